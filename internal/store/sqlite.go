package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// maxQueryArgs stays well below SQLite's bound-variable limit.
const maxQueryArgs = 500

func init() {
	Register("sqlite", func(path string) (Store, error) {
		return OpenSQLite(context.Background(), path)
	})
}

// SQLiteStore keeps the ledger in a SQLite database with one table per kind.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path and applies pending migrations.
// The path ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if len(results) > 0 {
		logger := config.GetLogger()
		logger.Debug().Int("applied", len(results)).Msg("Applied store migrations")
	}
	return nil
}

// table returns the table and id column holding a kind.
func table(kind models.Kind) (string, string, error) {
	switch kind {
	case models.KindMovie:
		return "processed_movie_subtitles", "radarr_id", nil
	case models.KindEpisode:
		return "processed_episode_subtitles", "sonarr_episode_id", nil
	default:
		return "", "", checkKind(kind)
	}
}

// IsProcessed reports whether the pair has been recorded.
func (s *SQLiteStore) IsProcessed(ctx context.Context, kind models.Kind, id int, languageCode string) (bool, error) {
	tbl, col, err := table(kind)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ? AND language_code = ? LIMIT 1", tbl, col)
	err = s.db.QueryRowContext(ctx, query, id, languageCode).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check processed %s %d/%s: %w", kind, id, languageCode, err)
	}
	return true, nil
}

// MarkProcessed inserts the pair unless it already exists.
func (s *SQLiteStore) MarkProcessed(ctx context.Context, kind models.Kind, id int, title string, sub models.Subtitle) (bool, error) {
	tbl, col, err := table(kind)
	if err != nil {
		return false, err
	}
	code := sub.LanguageCode()
	if code == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`INSERT INTO %s (%s, title, language_code, language_name, path, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (%s, language_code) DO NOTHING`, tbl, col, col)
	res, err := s.db.ExecContext(ctx, query, id, title, code, sub.Name, sub.FilePath(), s.now().UTC().Format(timeLayout))
	if err != nil {
		return false, fmt.Errorf("mark processed %s %d/%s: %w", kind, id, code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark processed %s %d/%s: %w", kind, id, code, err)
	}
	return n > 0, nil
}

// ProcessedIDs returns which of ids have any recorded language.
func (s *SQLiteStore) ProcessedIDs(ctx context.Context, kind models.Kind, ids []int) (map[int]bool, error) {
	tbl, col, err := table(kind)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]bool)
	for start := 0; start < len(ids); start += maxQueryArgs {
		end := min(start+maxQueryArgs, len(ids))
		batch := ids[start:end]

		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IN (%s)", col, tbl, col, placeholders)

		if err := s.collectIDs(ctx, query, args, out); err != nil {
			return nil, fmt.Errorf("bulk check processed %s: %w", kind.Plural(), err)
		}
	}
	return out, nil
}

func (s *SQLiteStore) collectIDs(ctx context.Context, query string, args []any, out map[int]bool) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		out[id] = true
	}
	return rows.Err()
}

// List returns recorded entries, newest first.
func (s *SQLiteStore) List(ctx context.Context, kind models.Kind, limit int) ([]models.ProcessedEntry, error) {
	tbl, col, err := table(kind)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`SELECT %s, title, language_code, language_name, path, processed_at
		FROM %s ORDER BY id DESC`, col, tbl)
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list processed %s: %w", kind.Plural(), err)
	}
	defer rows.Close()

	var entries []models.ProcessedEntry
	for rows.Next() {
		entry := models.ProcessedEntry{Kind: kind}
		var processedAt string
		if err := rows.Scan(&entry.MediaID, &entry.Title, &entry.LanguageCode, &entry.LanguageName, &entry.Path, &processedAt); err != nil {
			return nil, fmt.Errorf("scan processed %s: %w", kind, err)
		}
		if ts, err := time.Parse(timeLayout, processedAt); err == nil {
			entry.ProcessedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
