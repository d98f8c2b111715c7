// Package cache keeps raw inventory list responses between runs so repeated
// bulk runs against a large library do not refetch every listing.
package cache

import "context"

// Cache stores raw inventory responses keyed by request URL.
// A miss is never an error: callers fall back to the network.
type Cache interface {
	// Get returns the cached body and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a body, overwriting any previous value for the key.
	Set(ctx context.Context, key string, value []byte)

	// Delete drops a key, e.g. when a cached body no longer decodes.
	Delete(ctx context.Context, key string)

	// Close releases any resources held by the cache.
	Close() error
}

// Logger receives errors from backends that cannot return them through the Cache interface.
type Logger interface {
	Error(msg string, err error)
}
