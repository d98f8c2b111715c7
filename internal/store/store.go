// Package store is the durable ledger of processed (media, language) pairs.
// A pair is recorded once the remote service accepted an action for it, and
// later runs can skip it.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bazarr-bulk/bb/internal/models"
)

// Store records which subtitle languages of which records have been processed.
// Implementations enforce uniqueness of (kind, id, language) themselves and
// serialise their operations, so a Store is safe for concurrent use.
type Store interface {
	// IsProcessed reports whether the pair has been recorded.
	IsProcessed(ctx context.Context, kind models.Kind, id int, languageCode string) (bool, error)

	// MarkProcessed records the pair. It returns false without error when the
	// subtitle has no language code or the pair was already present; an existing
	// entry is never modified.
	MarkProcessed(ctx context.Context, kind models.Kind, id int, title string, sub models.Subtitle) (bool, error)

	// ProcessedIDs returns the subset of ids that have at least one recorded language.
	ProcessedIDs(ctx context.Context, kind models.Kind, ids []int) (map[int]bool, error)

	// List returns recorded entries, newest first. A limit <= 0 returns everything.
	List(ctx context.Context, kind models.Kind, limit int) ([]models.ProcessedEntry, error)

	Close() error
}

// Provider opens a Store at the given path.
type Provider func(path string) (Store, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register registers a store provider under the given name.
// It panics if the name is already registered or the provider is nil.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		panic("store: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("store: provider %q already registered", name))
	}
	providers[name] = p
}

// Open opens a Store with the named provider.
func Open(name, path string) (Store, error) {
	if name == "" {
		name = "sqlite"
	}

	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("store: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}
	return p(path)
}

// RegisteredProviders returns a sorted list of registered provider names.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkKind rejects kinds that never carry subtitles.
func checkKind(kind models.Kind) error {
	if kind != models.KindMovie && kind != models.KindEpisode {
		return fmt.Errorf("store: %s records are not tracked", kind)
	}
	return nil
}
