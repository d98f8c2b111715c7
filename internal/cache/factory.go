package cache

import (
	"fmt"
	"time"
)

// Provider names accepted by New.
const (
	ProviderNone  = "none"
	ProviderDisk  = "disk"
	ProviderRedis = "redis"
)

// Providers lists the accepted provider names.
var Providers = []string{ProviderNone, ProviderDisk, ProviderRedis}

// Options configures New.
type Options struct {
	Provider string

	// TTL bounds how long an entry is served. Zero keeps entries until overwritten.
	TTL time.Duration

	// Dir is where the disk provider keeps its files.
	Dir string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// Logger receives error reports from cache operations. If nil, errors are silently ignored.
	Logger Logger
}

// New opens the configured cache. The providers "" and "none" return a nil
// Cache, which callers treat as disabled.
func New(opts Options) (Cache, error) {
	switch opts.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderDisk:
		return openDisk(opts)
	case ProviderRedis:
		return openRedis(opts)
	default:
		return nil, fmt.Errorf("cache: unknown provider %q (available: %v)", opts.Provider, Providers)
	}
}
