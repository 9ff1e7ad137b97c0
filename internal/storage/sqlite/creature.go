package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

const creatureColumns = `id, species_id, name, form, nature, level, ivs, evs, stats, owner_kind, owner_id, lng, lat`

func ownerArgs(o creature.Owner) (string, sql.NullString) {
	if o.IsFree() {
		return creature.OwnerNone.String(), sql.NullString{}
	}
	return o.Kind.String(), nullable(o.ID)
}

func scanCreature(row scanner) (*creature.Creature, error) {
	var (
		c            creature.Creature
		ivs, evs, st string
		kind         string
		ownerID      sql.NullString
	)
	if err := row.Scan(
		&c.ID, &c.SpeciesID, &c.Name, &c.Form, &c.Nature, &c.Level,
		&ivs, &evs, &st, &kind, &ownerID, &c.Location.Lng, &c.Location.Lat,
	); err != nil {
		return nil, err
	}
	var err error
	if c.IVs, err = decodeBlock(ivs); err != nil {
		return nil, fmt.Errorf("creature %s ivs: %w", c.ID, err)
	}
	if c.EVs, err = decodeBlock(evs); err != nil {
		return nil, fmt.Errorf("creature %s evs: %w", c.ID, err)
	}
	if c.Stats, err = decodeBlock(st); err != nil {
		return nil, fmt.Errorf("creature %s stats: %w", c.ID, err)
	}
	c.Owner = creature.Owner{Kind: creature.ParseOwnerKind(kind), ID: ownerID.String}
	c.ResetHP()
	return &c, nil
}

// InsertCreatures stores cs in one transaction.
//
// Precondition: every creature has a unique ID not yet stored.
// Postcondition: All rows are inserted, or none are and a non-nil error is returned.
func (s *Store) InsertCreatures(ctx context.Context, cs []*creature.Creature) error {
	if len(cs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO creatures (`+creatureColumns+`) VALUES (`+placeholders(13)+`)`)
		if err != nil {
			return fmt.Errorf("preparing creature insert: %w", err)
		}
		defer stmt.Close()
		for _, c := range cs {
			ivs, err := encodeBlock(c.IVs)
			if err != nil {
				return err
			}
			evs, err := encodeBlock(c.EVs)
			if err != nil {
				return err
			}
			st, err := encodeBlock(c.Stats)
			if err != nil {
				return err
			}
			kind, ownerID := ownerArgs(c.Owner)
			if _, err := stmt.ExecContext(ctx,
				c.ID, c.SpeciesID, c.Name, c.Form, c.Nature, c.Level, ivs, evs, st,
				kind, ownerID, c.Location.Lng, c.Location.Lat,
			); err != nil {
				return fmt.Errorf("inserting creature %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// GetCreature retrieves a creature by id.
//
// Postcondition: Returns the creature with CurrentHP at full, or storage.ErrCreatureNotFound.
func (s *Store) GetCreature(ctx context.Context, id string) (*creature.Creature, error) {
	c, err := scanCreature(s.db.QueryRowContext(ctx, `SELECT `+creatureColumns+` FROM creatures WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCreatureNotFound
		}
		return nil, fmt.Errorf("querying creature: %w", err)
	}
	return c, nil
}

// CreaturesByOwner lists the creatures held by owner, strongest first, ties
// in insertion order.
func (s *Store) CreaturesByOwner(ctx context.Context, owner creature.Owner) ([]*creature.Creature, error) {
	kind, ownerID := ownerArgs(owner)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+creatureColumns+` FROM creatures
		WHERE owner_kind = ? AND owner_id IS ?
		ORDER BY level DESC, rowid ASC`,
		kind, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing creatures by owner: %w", err)
	}
	return collect(rows, scanCreature)
}

// NearbyCreatures lists creatures within area that pass filter, closest first.
func (s *Store) NearbyCreatures(ctx context.Context, area storage.Area, filter storage.CreatureFilter) ([]*creature.Creature, error) {
	q := `SELECT ` + creatureColumns + ` FROM creatures` + bandSQL
	args := bandArgs(area)
	if filter.FreeOnly {
		q += ` AND owner_kind = 'none'`
	}
	if filter.BelowLevel > 0 {
		q += ` AND level < ?`
		args = append(args, filter.BelowLevel)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying nearby creatures: %w", err)
	}
	cs, err := collect(rows, scanCreature)
	if err != nil {
		return nil, fmt.Errorf("scanning nearby creatures: %w", err)
	}
	return storage.Nearest(cs, func(c *creature.Creature) geo.Point { return c.Location }, area), nil
}

// PlaceCreatures sets owner and location of each listed creature atomically.
//
// Postcondition: Either every placement is applied, or none is and the error
// wraps storage.ErrCreatureNotFound for an unknown id.
func (s *Store) PlaceCreatures(ctx context.Context, ps []storage.Placement) error {
	if len(ps) == 0 {
		return nil
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error { return placeCreatures(ctx, tx, ps) })
	if err != nil {
		return fmt.Errorf("placing creatures: %w", err)
	}
	return nil
}

func placeCreatures(ctx context.Context, ex execer, ps []storage.Placement) error {
	for _, p := range ps {
		kind, ownerID := ownerArgs(p.Owner)
		res, err := ex.ExecContext(ctx,
			`UPDATE creatures SET owner_kind = ?, owner_id = ?, lng = ?, lat = ? WHERE id = ?`,
			kind, ownerID, p.Location.Lng, p.Location.Lat, p.ID)
		if err := requireRow(res, err, storage.ErrCreatureNotFound); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCreatureGrowth persists the level, EVs and stats of each creature.
//
// Postcondition: Either every creature is updated, or none is.
func (s *Store) UpdateCreatureGrowth(ctx context.Context, cs []*creature.Creature) error {
	if len(cs) == 0 {
		return nil
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range cs {
			evs, err := encodeBlock(c.EVs)
			if err != nil {
				return err
			}
			st, err := encodeBlock(c.Stats)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE creatures SET level = ?, evs = ?, stats = ? WHERE id = ?`,
				c.Level, evs, st, c.ID)
			if err := requireRow(res, err, storage.ErrCreatureNotFound); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating creature growth: %w", err)
	}
	return nil
}

// requireRow turns a statement that touched no row into notFound.
func requireRow(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// DeleteCreatures removes the listed creatures and returns how many existed.
func (s *Store) DeleteCreatures(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM creatures WHERE id IN (`+placeholders(len(ids))+`)`, stringArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("deleting creatures: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting creatures: %w", err)
	}
	return int(n), nil
}

// CountCreatures returns the number of stored creatures.
func (s *Store) CountCreatures(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM creatures`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting creatures: %w", err)
	}
	return n, nil
}
