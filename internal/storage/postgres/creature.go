package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/stats"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

const creatureColumns = `id, species_id, name, form, nature, level, ivs, evs, stats, owner_kind, owner_id, lng, lat`

var creatureColumnList = []string{
	"id", "species_id", "name", "form", "nature", "level", "ivs", "evs", "stats",
	"owner_kind", "owner_id", "lng", "lat",
}

// CreatureRepository provides creature persistence operations.
type CreatureRepository struct {
	db *pgxpool.Pool
}

// NewCreatureRepository creates a CreatureRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCreatureRepository(db *pgxpool.Pool) *CreatureRepository {
	return &CreatureRepository{db: db}
}

// ownerArgs maps an Owner onto the owner_kind and owner_id columns.
func ownerArgs(o creature.Owner) (string, *string) {
	if o.IsFree() {
		return creature.OwnerNone.String(), nil
	}
	id := o.ID
	return o.Kind.String(), &id
}

func scanCreature(row scanner) (*creature.Creature, error) {
	var (
		c            creature.Creature
		ivs, evs, st []int
		kind         string
		ownerID      *string
	)
	if err := row.Scan(
		&c.ID, &c.SpeciesID, &c.Name, &c.Form, &c.Nature, &c.Level,
		&ivs, &evs, &st, &kind, &ownerID, &c.Location.Lng, &c.Location.Lat,
	); err != nil {
		return nil, err
	}
	var err error
	if c.IVs, err = stats.BlockFromSlice(ivs); err != nil {
		return nil, fmt.Errorf("creature %s ivs: %w", c.ID, err)
	}
	if c.EVs, err = stats.BlockFromSlice(evs); err != nil {
		return nil, fmt.Errorf("creature %s evs: %w", c.ID, err)
	}
	if c.Stats, err = stats.BlockFromSlice(st); err != nil {
		return nil, fmt.Errorf("creature %s stats: %w", c.ID, err)
	}
	c.Owner = creature.Owner{Kind: creature.ParseOwnerKind(kind)}
	if ownerID != nil {
		c.Owner.ID = *ownerID
	}
	c.ResetHP()
	return &c, nil
}

// InsertCreatures bulk-inserts cs with COPY.
//
// Precondition: every creature has a unique ID not yet stored.
// Postcondition: All rows are inserted, or none are and a non-nil error is returned.
func (r *CreatureRepository) InsertCreatures(ctx context.Context, cs []*creature.Creature) error {
	if len(cs) == 0 {
		return nil
	}
	_, err := r.db.CopyFrom(ctx, pgx.Identifier{"creatures"}, creatureColumnList,
		pgx.CopyFromSlice(len(cs), func(i int) ([]any, error) {
			c := cs[i]
			kind, ownerID := ownerArgs(c.Owner)
			return []any{
				c.ID, c.SpeciesID, c.Name, c.Form, c.Nature, c.Level,
				c.IVs.Slice(), c.EVs.Slice(), c.Stats.Slice(),
				kind, ownerID, c.Location.Lng, c.Location.Lat,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copying creatures: %w", err)
	}
	return nil
}

// GetCreature retrieves a creature by id.
//
// Postcondition: Returns the creature with CurrentHP at full, or storage.ErrCreatureNotFound.
func (r *CreatureRepository) GetCreature(ctx context.Context, id string) (*creature.Creature, error) {
	c, err := scanCreature(r.db.QueryRow(ctx, `SELECT `+creatureColumns+` FROM creatures WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrCreatureNotFound
		}
		return nil, fmt.Errorf("querying creature: %w", err)
	}
	return c, nil
}

// CreaturesByOwner lists the creatures held by owner, strongest first.
//
// Postcondition: Returns a slice (may be empty) ordered by level descending,
// then insertion order.
func (r *CreatureRepository) CreaturesByOwner(ctx context.Context, owner creature.Owner) ([]*creature.Creature, error) {
	kind, ownerID := ownerArgs(owner)
	rows, err := r.db.Query(ctx, `
		SELECT `+creatureColumns+` FROM creatures
		WHERE owner_kind = $1 AND owner_id IS NOT DISTINCT FROM $2
		ORDER BY level DESC, seq ASC`,
		kind, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing creatures by owner: %w", err)
	}
	return collect(rows, scanCreature)
}

// NearbyCreatures lists creatures within area that pass filter, closest first.
func (r *CreatureRepository) NearbyCreatures(ctx context.Context, area storage.Area, filter storage.CreatureFilter) ([]*creature.Creature, error) {
	q := nearbySQL("creatures", creatureColumns,
		` AND (NOT $7::bool OR owner_kind = 'none') AND ($8::int <= 0 OR level < $8::int)`)
	args := append(areaArgs(area), filter.FreeOnly, filter.BelowLevel)
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying nearby creatures: %w", err)
	}
	return collect(rows, scanCreature)
}

// sendBatch runs b in one transaction and requires every statement to touch
// a row.
func sendBatch(ctx context.Context, db *pgxpool.Pool, b *pgx.Batch, notFound error) error {
	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error { return execBatch(ctx, tx, b, notFound) })
}

func execBatch(ctx context.Context, tx pgx.Tx, b *pgx.Batch, notFound error) error {
	br := tx.SendBatch(ctx, b)
	for range b.Len() {
		tag, err := br.Exec()
		if err == nil && tag.RowsAffected() == 0 {
			err = notFound
		}
		if err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

// PlaceCreatures sets owner and location of each listed creature atomically.
//
// Postcondition: Either every placement is applied, or none is and the error
// wraps storage.ErrCreatureNotFound for an unknown id.
func (r *CreatureRepository) PlaceCreatures(ctx context.Context, ps []storage.Placement) error {
	if len(ps) == 0 {
		return nil
	}
	if err := sendBatch(ctx, r.db, placementBatch(ps), storage.ErrCreatureNotFound); err != nil {
		return fmt.Errorf("placing creatures: %w", err)
	}
	return nil
}

func placementBatch(ps []storage.Placement) *pgx.Batch {
	b := &pgx.Batch{}
	for _, p := range ps {
		kind, ownerID := ownerArgs(p.Owner)
		b.Queue(`UPDATE creatures SET owner_kind = $2, owner_id = $3, lng = $4, lat = $5 WHERE id = $1`,
			p.ID, kind, ownerID, p.Location.Lng, p.Location.Lat)
	}
	return b
}

// UpdateCreatureGrowth persists the level, EVs and stats of each creature.
//
// Postcondition: Either every creature is updated, or none is.
func (r *CreatureRepository) UpdateCreatureGrowth(ctx context.Context, cs []*creature.Creature) error {
	if len(cs) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, c := range cs {
		b.Queue(`UPDATE creatures SET level = $2, evs = $3, stats = $4 WHERE id = $1`,
			c.ID, c.Level, c.EVs.Slice(), c.Stats.Slice())
	}
	if err := sendBatch(ctx, r.db, b, storage.ErrCreatureNotFound); err != nil {
		return fmt.Errorf("updating creature growth: %w", err)
	}
	return nil
}

// DeleteCreatures removes the listed creatures and returns how many existed.
func (r *CreatureRepository) DeleteCreatures(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM creatures WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("deleting creatures: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CountCreatures returns the number of stored creatures.
func (r *CreatureRepository) CountCreatures(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM creatures`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting creatures: %w", err)
	}
	return n, nil
}
