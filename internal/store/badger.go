package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog"

	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/models"
)

const processedRootKey = "processed/"

func init() {
	Register("badger", func(path string) (Store, error) {
		return OpenBadger(path)
	})
}

// badgerLogger adapts zerolog for Badger's logger interface.
type badgerLogger struct {
	l zerolog.Logger
}

func (b *badgerLogger) Errorf(f string, v ...interface{}) {
	b.l.Error().Msgf(strings.TrimSpace(f), v...)
}

func (b *badgerLogger) Warningf(f string, v ...interface{}) {
	b.l.Warn().Msgf(strings.TrimSpace(f), v...)
}

func (b *badgerLogger) Infof(f string, v ...interface{}) {
	b.l.Debug().Msgf(strings.TrimSpace(f), v...)
}

func (b *badgerLogger) Debugf(f string, v ...interface{}) {
	b.l.Trace().Msgf(strings.TrimSpace(f), v...)
}

// badgerEntry is the value stored under each processed key.
type badgerEntry struct {
	Title        string    `json:"title"`
	LanguageName string    `json:"language_name"`
	Path         string    `json:"path"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// BadgerStore keeps the ledger in a Badger key-value directory.
// Keys are processed/<kind>/<id>/<language>.
type BadgerStore struct {
	mu  sync.Mutex
	db  *badger.DB
	now func() time.Time
}

var _ Store = (*BadgerStore)(nil)

// OpenBadger opens or creates a Badger directory at path.
// An empty path opens an in-memory store.
func OpenBadger(path string) (*BadgerStore, error) {
	logger := config.GetLogger()
	l := logger.With().Str("component", "badger-store").Logger()

	opts := badger.DefaultOptions(path).
		WithLogger(&badgerLogger{l: l}).
		WithValueLogFileSize(1<<26 - 1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	if path != "" {
		if err := db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			_ = db.Close()
			return nil, fmt.Errorf("badger value log gc: %w", err)
		}
	}

	return &BadgerStore{db: db, now: time.Now}, nil
}

func kindPrefix(kind models.Kind) string {
	return processedRootKey + kind.String() + "/"
}

func recordPrefix(kind models.Kind, id int) string {
	return kindPrefix(kind) + strconv.Itoa(id) + "/"
}

func processedKey(kind models.Kind, id int, languageCode string) []byte {
	return []byte(recordPrefix(kind, id) + languageCode)
}

// IsProcessed reports whether the pair has been recorded.
func (s *BadgerStore) IsProcessed(_ context.Context, kind models.Kind, id int, languageCode string) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.keyExists(processedKey(kind, id, languageCode))
	if err != nil {
		return false, fmt.Errorf("check processed %s %d/%s: %w", kind, id, languageCode, err)
	}
	return found, nil
}

// MarkProcessed inserts the pair unless it already exists.
func (s *BadgerStore) MarkProcessed(_ context.Context, kind models.Kind, id int, title string, sub models.Subtitle) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}
	code := sub.LanguageCode()
	if code == "" {
		return false, nil
	}

	value, err := json.Marshal(badgerEntry{
		Title:        title,
		LanguageName: sub.Name,
		Path:         sub.FilePath(),
		ProcessedAt:  s.now().UTC(),
	})
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	inserted, err := s.insertIn(txn, processedKey(kind, id, code), value)
	if err != nil {
		return false, fmt.Errorf("mark processed %s %d/%s: %w", kind, id, code, err)
	}
	return inserted, nil
}

// insertIn sets key in txn and commits unless the key is already present.
// A commit conflict means another writer stored the key first, which counts
// as a duplicate rather than a failure.
func (s *BadgerStore) insertIn(txn *badger.Txn, key, value []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return false, err
	}
	if err := txn.Set(key, value); err != nil {
		return false, err
	}

	err = txn.Commit()
	if errors.Is(err, badger.ErrConflict) {
		exists, getErr := s.keyExists(key)
		if getErr != nil {
			return false, getErr
		}
		if exists {
			return false, nil
		}
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BadgerStore) keyExists(key []byte) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// ProcessedIDs returns which of ids have any recorded language.
func (s *BadgerStore) ProcessedIDs(_ context.Context, kind models.Kind, ids []int) (map[int]bool, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]bool)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, id := range ids {
			prefix := []byte(recordPrefix(kind, id))
			it.Seek(prefix)
			if it.ValidForPrefix(prefix) {
				out[id] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk check processed %s: %w", kind.Plural(), err)
	}
	return out, nil
}

// List returns recorded entries, newest first.
func (s *BadgerStore) List(_ context.Context, kind models.Kind, limit int) ([]models.ProcessedEntry, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.ProcessedEntry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(kindPrefix(kind))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			rest := strings.TrimPrefix(string(item.Key()), string(prefix))
			idPart, code, ok := strings.Cut(rest, "/")
			if !ok {
				continue
			}
			id, err := strconv.Atoi(idPart)
			if err != nil {
				continue
			}

			var stored badgerEntry
			if err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &stored)
			}); err != nil {
				return err
			}
			entries = append(entries, models.ProcessedEntry{
				Kind:         kind,
				MediaID:      id,
				Title:        stored.Title,
				LanguageCode: code,
				LanguageName: stored.LanguageName,
				Path:         stored.Path,
				ProcessedAt:  stored.ProcessedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list processed %s: %w", kind.Plural(), err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ProcessedAt.After(entries[j].ProcessedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Close flushes and closes the Badger directory.
func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
