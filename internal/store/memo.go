package store

import (
	"context"
	"strconv"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bazarr-bulk/bb/internal/metrics"
	"github.com/bazarr-bulk/bb/internal/models"
)

// DefaultMemoSize bounds the number of pairs a memoized store remembers.
const DefaultMemoSize = 4096

// memoStore remembers pairs known to be recorded. Recorded pairs are never
// removed from the ledger, so a positive answer stays true for the whole run.
// Negative answers always go to the backend.
type memoStore struct {
	Store
	known *expirable.LRU[string, struct{}]
}

// Memoize wraps s so repeated IsProcessed lookups of recorded pairs are answered
// from memory. A size <= 0 uses DefaultMemoSize.
func Memoize(s Store, size int) Store {
	if size <= 0 {
		size = DefaultMemoSize
	}
	return &memoStore{
		Store: s,
		known: expirable.NewLRU[string, struct{}](size, nil, 0),
	}
}

func memoKey(kind models.Kind, id int, languageCode string) string {
	return kind.String() + "/" + strconv.Itoa(id) + "/" + languageCode
}

func (m *memoStore) IsProcessed(ctx context.Context, kind models.Kind, id int, languageCode string) (bool, error) {
	key := memoKey(kind, id, languageCode)
	if _, ok := m.known.Get(key); ok {
		metrics.LedgerLookupsTotal.WithLabelValues(metrics.LookupMemo).Inc()
		return true, nil
	}

	done, err := m.Store.IsProcessed(ctx, kind, id, languageCode)
	if err != nil {
		return false, err
	}
	metrics.LedgerLookupsTotal.WithLabelValues(metrics.LookupBackend).Inc()
	if done {
		m.known.Add(key, struct{}{})
	}
	return done, nil
}

// MarkProcessed remembers the pair whether it was inserted now or already present.
func (m *memoStore) MarkProcessed(ctx context.Context, kind models.Kind, id int, title string, sub models.Subtitle) (bool, error) {
	inserted, err := m.Store.MarkProcessed(ctx, kind, id, title, sub)
	if err != nil {
		return false, err
	}
	if code := sub.LanguageCode(); code != "" {
		m.known.Add(memoKey(kind, id, code), struct{}{})
	}
	return inserted, nil
}

func (m *memoStore) Close() error {
	m.known.Purge()
	return m.Store.Close()
}
