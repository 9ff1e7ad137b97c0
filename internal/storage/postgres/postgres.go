// Package postgres provides PostgreSQL persistence using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pokestack/internal/config"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

// Pool wraps a pgx connection pool with health-check and lifecycle methods.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a new PostgreSQL connection pool from the given configuration.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error. The pool is ready
// for queries upon successful return.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Health checks that the database is reachable within the given timeout.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns nil if the database responds within the timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources.
//
// Postcondition: The pool is no longer usable after calling Close.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// Store combines every repository over one pool.
type Store struct {
	*CreatureRepository
	*TrainerRepository
	*StadiumRepository
	*PokestopRepository
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a Store backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the schema migrated.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		CreatureRepository: NewCreatureRepository(db),
		TrainerRepository:  NewTrainerRepository(db),
		StadiumRepository:  NewStadiumRepository(db),
		PokestopRepository: NewPokestopRepository(db),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Settle applies the placements, trainer and stadium of st in one transaction.
//
// Postcondition: Either every write is applied, or none is and the error wraps
// the not-found error of the first missing record.
func (s *Store) Settle(ctx context.Context, st storage.Settlement) error {
	err := pgx.BeginFunc(ctx, s.CreatureRepository.db, func(tx pgx.Tx) error {
		if len(st.Placements) > 0 {
			if err := execBatch(ctx, tx, placementBatch(st.Placements), storage.ErrCreatureNotFound); err != nil {
				return err
			}
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

// haversineSQL is the great-circle distance in meters between (lng, lat) and
// the point ($1 lng, $2 lat). The factor is twice the earth radius.
const haversineSQL = `12756274 * asin(least(1, sqrt(
	power(sin(radians(lat - $2::float8) / 2), 2) +
	cos(radians($2::float8)) * cos(radians(lat)) * power(sin(radians(lng - $1::float8) / 2), 2))))`

// nearbySQL selects columns from table within an area, closest first.
// Parameters $1..$6 come from areaArgs; filter may reference $7 onwards.
func nearbySQL(table, columns, filter string) string {
	return fmt.Sprintf(`
		SELECT %[2]s FROM (
			SELECT %[2]s, %[3]s AS dist FROM %[1]s
			WHERE lat BETWEEN $3 AND $4%[4]s
		) nearby
		WHERE ($5::float8 <= 0 OR dist <= $5::float8)
		ORDER BY dist
		LIMIT $6`, table, columns, haversineSQL, filter)
}

// areaArgs returns the $1..$6 parameters of nearbySQL.
func areaArgs(a storage.Area) []any {
	lo, hi := a.LatitudeBand()
	var limit any
	if a.Limit > 0 {
		limit = int64(a.Limit)
	}
	return []any{a.Center.Lng, a.Center.Lat, lo, hi, a.Radius, limit}
}

// collect scans every row with scan.
func collect[T any](rows pgx.Rows, scan func(scanner) (T, error)) ([]T, error) {
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

