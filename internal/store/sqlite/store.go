// Package sqlite implements store.Store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/findshroom/findshroom-server/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is RFC3339 with a fixed-width fraction so stored timestamps sort
// lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store provides SQLite-backed persistence for the FindShroom server.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu            sync.RWMutex
	emitter       store.EventEmitter
	searchIndexer store.SearchIndexer
	now           func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	// Pragmas are per connection, so they go in the DSN and apply to every pooled one.
	pragmas := []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(1)",
		"busy_timeout(5000)",
	}
	dsn := "file:" + path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Store{
		db:            db,
		logger:        logger,
		emitter:       store.NewNoopEmitter(),
		searchIndexer: store.NoopSearchIndexer{},
		now:           time.Now,
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetEmitter sets the receiver of change notifications.
func (s *Store) SetEmitter(emitter store.EventEmitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitter = emitter
}

// SetSearchIndexer sets the indexer kept in sync with catalog writes.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchIndexer = indexer
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) emit(change store.Change) {
	s.mu.RLock()
	emitter := s.emitter
	s.mu.RUnlock()
	emitter.Emit(change)
}

func (s *Store) indexer() store.SearchIndexer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchIndexer
}

// formatTime formats a time.Time for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString maps the empty string to NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableInt64 maps a nil pointer to NULL.
func nullableInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// int64Ptr maps NULL to a nil pointer.
func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// fold is the case-folded, NFC-normalized form used for ordering and
// substring search. SQLite's own NOCASE only folds ASCII.
func fold(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps sql.ErrNoRows onto store.ErrNotFound.
func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("%s %v not found", what, id))
	}
	return err
}

// requireAffected returns ErrNotFound when an UPDATE or DELETE touched no row.
func requireAffected(res sql.Result, what string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("%s %v not found", what, id))
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
