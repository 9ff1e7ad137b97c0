// Package sqlite provides single-file SQLite persistence for local play and
// simulation runs.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/pokestack/internal/game/stats"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store persists game state in one SQLite database.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens the database at path, creating it if absent, and applies the
// embedded migrations.
//
// Precondition: path must be non-empty.
// Postcondition: Returns a migrated Store the caller must Close, or a non-nil error.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; transactions must use their *sql.Tx exclusively.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// migrateUp applies every pending embedded migration through golang-migrate.
// The migrator is not closed because that would close db.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Health checks that the database answers within timeout.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Settle applies the placements, trainer and stadium of st in one transaction.
//
// Postcondition: Either every write is applied, or none is and the error wraps
// the not-found error of the first missing record.
func (s *Store) Settle(ctx context.Context, st storage.Settlement) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := placeCreatures(ctx, tx, st.Placements); err != nil {
			return err
		}
		if st.Stadium != nil {
			if err := saveStadium(ctx, tx, st.Stadium); err != nil {
				return err
			}
		}
		if st.Trainer != nil {
			return saveTrainer(ctx, tx, st.Trainer)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("settling: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// bandSQL is the latitude prefilter of an area query. Distance ranking runs in
// Go via storage.Nearest.
const bandSQL = ` WHERE lat BETWEEN ? AND ?`

func bandArgs(a storage.Area) []any {
	lo, hi := a.LatitudeBand()
	return []any{lo, hi}
}

// placeholders returns n comma-separated bind markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func encodeBlock(b stats.Block) (string, error) {
	raw, err := json.Marshal(b.Slice())
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeBlock(raw string) (stats.Block, error) {
	var vals []int
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return stats.Block{}, err
	}
	return stats.BlockFromSlice(vals)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
