package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/stadium"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

const (
	pokestopColumns = `id, name, lng, lat, height_meters, radius_meters, pokeball, greatball, revive, lure`
	stadiumColumns  = pokestopColumns + `, owner_id, points`
)

func pokestopArgs(p *stadium.Pokestop) []any {
	return []any{
		p.ID, p.Name, p.Location.Lng, p.Location.Lat, p.HeightMeters, p.RadiusMeters,
		p.Items.Pokeball, p.Items.Greatball, p.Items.Revive, p.Items.Lure,
	}
}

func pokestopDest(p *stadium.Pokestop) []any {
	return []any{
		&p.ID, &p.Name, &p.Location.Lng, &p.Location.Lat, &p.HeightMeters, &p.RadiusMeters,
		&p.Items.Pokeball, &p.Items.Greatball, &p.Items.Revive, &p.Items.Lure,
	}
}

func scanPokestop(row scanner) (*stadium.Pokestop, error) {
	var p stadium.Pokestop
	if err := row.Scan(pokestopDest(&p)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanStadium(row scanner) (*stadium.Stadium, error) {
	var (
		st    stadium.Stadium
		owner sql.NullString
	)
	if err := row.Scan(append(pokestopDest(&st.Pokestop), &owner, &st.Points)...); err != nil {
		return nil, err
	}
	st.OwnerID = owner.String
	return &st, nil
}

func stadiumLocation(st *stadium.Stadium) geo.Point { return st.Location }

func pokestopLocation(p *stadium.Pokestop) geo.Point { return p.Location }

// InsertStadium stores a new stadium. Its garrison is stored separately as
// creatures held by the stadium.
func (s *Store) InsertStadium(ctx context.Context, st *stadium.Stadium) error {
	args := append(pokestopArgs(&st.Pokestop), nullable(st.OwnerID), st.Points)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO stadiums (`+stadiumColumns+`) VALUES (`+placeholders(12)+`)`, args...,
	); err != nil {
		return fmt.Errorf("inserting stadium: %w", err)
	}
	return nil
}

// GetStadium retrieves a stadium by id.
//
// Postcondition: Returns the stadium or storage.ErrStadiumNotFound.
func (s *Store) GetStadium(ctx context.Context, id string) (*stadium.Stadium, error) {
	st, err := scanStadium(s.db.QueryRowContext(ctx, `SELECT `+stadiumColumns+` FROM stadiums WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrStadiumNotFound
		}
		return nil, fmt.Errorf("querying stadium: %w", err)
	}
	return st, nil
}

// SaveStadium persists the owner, points and items of st.
//
// Postcondition: Returns nil on success, storage.ErrStadiumNotFound if no row updated.
func (s *Store) SaveStadium(ctx context.Context, st *stadium.Stadium) error {
	return saveStadium(ctx, s.db, st)
}

func saveStadium(ctx context.Context, ex execer, st *stadium.Stadium) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE stadiums SET owner_id = ?, points = ?,
			pokeball = ?, greatball = ?, revive = ?, lure = ?
		WHERE id = ?`,
		nullable(st.OwnerID), st.Points,
		st.Items.Pokeball, st.Items.Greatball, st.Items.Revive, st.Items.Lure, st.ID,
	)
	if err := requireRow(res, err, storage.ErrStadiumNotFound); err != nil {
		if errors.Is(err, storage.ErrStadiumNotFound) {
			return err
		}
		return fmt.Errorf("saving stadium: %w", err)
	}
	return nil
}

// NearbyStadiums lists stadiums within area, closest first.
func (s *Store) NearbyStadiums(ctx context.Context, area storage.Area) ([]*stadium.Stadium, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stadiumColumns+` FROM stadiums`+bandSQL, bandArgs(area)...)
	if err != nil {
		return nil, fmt.Errorf("querying nearby stadiums: %w", err)
	}
	sts, err := collect(rows, scanStadium)
	if err != nil {
		return nil, fmt.Errorf("scanning nearby stadiums: %w", err)
	}
	return storage.Nearest(sts, stadiumLocation, area), nil
}

// InsertPokestops stores ps in one transaction.
func (s *Store) InsertPokestops(ctx context.Context, ps []*stadium.Pokestop) error {
	if len(ps) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO pokestops (`+pokestopColumns+`) VALUES (`+placeholders(10)+`)`)
		if err != nil {
			return fmt.Errorf("preparing pokestop insert: %w", err)
		}
		defer stmt.Close()
		for _, p := range ps {
			if _, err := stmt.ExecContext(ctx, pokestopArgs(p)...); err != nil {
				return fmt.Errorf("inserting pokestop %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// GetPokestop retrieves a pokestop by id.
//
// Postcondition: Returns the pokestop or storage.ErrPokestopNotFound.
func (s *Store) GetPokestop(ctx context.Context, id string) (*stadium.Pokestop, error) {
	p, err := scanPokestop(s.db.QueryRowContext(ctx, `SELECT `+pokestopColumns+` FROM pokestops WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPokestopNotFound
		}
		return nil, fmt.Errorf("querying pokestop: %w", err)
	}
	return p, nil
}

// NearbyPokestops lists pokestops within area, closest first.
func (s *Store) NearbyPokestops(ctx context.Context, area storage.Area) ([]*stadium.Pokestop, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pokestopColumns+` FROM pokestops`+bandSQL, bandArgs(area)...)
	if err != nil {
		return nil, fmt.Errorf("querying nearby pokestops: %w", err)
	}
	ps, err := collect(rows, scanPokestop)
	if err != nil {
		return nil, fmt.Errorf("scanning nearby pokestops: %w", err)
	}
	return storage.Nearest(ps, pokestopLocation, area), nil
}

// SamplePokestops returns up to n pokestops chosen at random.
func (s *Store) SamplePokestops(ctx context.Context, n int) ([]*stadium.Pokestop, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pokestopColumns+` FROM pokestops ORDER BY random() LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sampling pokestops: %w", err)
	}
	return collect(rows, scanPokestop)
}

// AddPokestopItem adds one unit of item to each listed pokestop.
func (s *Store) AddPokestopItem(ctx context.Context, ids []string, item inventory.Item) error {
	if len(ids) == 0 {
		return nil
	}
	col, err := storage.ItemColumn(item)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE pokestops SET %[1]s = %[1]s + 1 WHERE id IN (%[2]s)`, col, placeholders(len(ids)))
	if _, err := s.db.ExecContext(ctx, q, stringArgs(ids)...); err != nil {
		return fmt.Errorf("restocking pokestops: %w", err)
	}
	return nil
}
