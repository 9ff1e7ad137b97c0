package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/stadium"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

const (
	pokestopColumns = `id, name, lng, lat, height_meters, radius_meters, pokeball, greatball, revive, lure`
	stadiumColumns  = pokestopColumns + `, owner_id, points`
)

var pokestopColumnList = []string{
	"id", "name", "lng", "lat", "height_meters", "radius_meters",
	"pokeball", "greatball", "revive", "lure",
}

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
		s     stadium.Stadium
		owner *string
	)
	dest := append(pokestopDest(&s.Pokestop), &owner, &s.Points)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if owner != nil {
		s.OwnerID = *owner
	}
	return &s, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StadiumRepository provides stadium persistence operations.
type StadiumRepository struct {
	db *pgxpool.Pool
}

// NewStadiumRepository creates a StadiumRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewStadiumRepository(db *pgxpool.Pool) *StadiumRepository {
	return &StadiumRepository{db: db}
}

// InsertStadium stores a new stadium. Its garrison is stored separately as
// creatures held by the stadium.
func (r *StadiumRepository) InsertStadium(ctx context.Context, s *stadium.Stadium) error {
	args := append(pokestopArgs(&s.Pokestop), nullable(s.OwnerID), s.Points)
	_, err := r.db.Exec(ctx, `
		INSERT INTO stadiums (`+stadiumColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("inserting stadium: %w", err)
	}
	return nil
}

// GetStadium retrieves a stadium by id.
//
// Postcondition: Returns the stadium or storage.ErrStadiumNotFound.
func (r *StadiumRepository) GetStadium(ctx context.Context, id string) (*stadium.Stadium, error) {
	s, err := scanStadium(r.db.QueryRow(ctx, `SELECT `+stadiumColumns+` FROM stadiums WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrStadiumNotFound
		}
		return nil, fmt.Errorf("querying stadium: %w", err)
	}
	return s, nil
}

// SaveStadium persists the owner, points and items of s.
//
// Postcondition: Returns nil on success, storage.ErrStadiumNotFound if no row updated.
func (r *StadiumRepository) SaveStadium(ctx context.Context, s *stadium.Stadium) error {
	return saveStadium(ctx, r.db, s)
}

func saveStadium(ctx context.Context, ex execer, s *stadium.Stadium) error {
	tag, err := ex.Exec(ctx, `
		UPDATE stadiums SET owner_id = $2, points = $3,
			pokeball = $4, greatball = $5, revive = $6, lure = $7
		WHERE id = $1`,
		s.ID, nullable(s.OwnerID), s.Points,
		s.Items.Pokeball, s.Items.Greatball, s.Items.Revive, s.Items.Lure,
	)
	if err != nil {
		return fmt.Errorf("saving stadium: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrStadiumNotFound
	}
	return nil
}

// NearbyStadiums lists stadiums within area, closest first.
func (r *StadiumRepository) NearbyStadiums(ctx context.Context, area storage.Area) ([]*stadium.Stadium, error) {
	rows, err := r.db.Query(ctx, nearbySQL("stadiums", stadiumColumns, ""), areaArgs(area)...)
	if err != nil {
		return nil, fmt.Errorf("querying nearby stadiums: %w", err)
	}
	return collect(rows, scanStadium)
}

// PokestopRepository provides pokestop persistence operations.
type PokestopRepository struct {
	db *pgxpool.Pool
}

// NewPokestopRepository creates a PokestopRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPokestopRepository(db *pgxpool.Pool) *PokestopRepository {
	return &PokestopRepository{db: db}
}

// InsertPokestops bulk-inserts ps with COPY.
func (r *PokestopRepository) InsertPokestops(ctx context.Context, ps []*stadium.Pokestop) error {
	if len(ps) == 0 {
		return nil
	}
	_, err := r.db.CopyFrom(ctx, pgx.Identifier{"pokestops"}, pokestopColumnList,
		pgx.CopyFromSlice(len(ps), func(i int) ([]any, error) { return pokestopArgs(ps[i]), nil }),
	)
	if err != nil {
		return fmt.Errorf("copying pokestops: %w", err)
	}
	return nil
}

// GetPokestop retrieves a pokestop by id.
//
// Postcondition: Returns the pokestop or storage.ErrPokestopNotFound.
func (r *PokestopRepository) GetPokestop(ctx context.Context, id string) (*stadium.Pokestop, error) {
	p, err := scanPokestop(r.db.QueryRow(ctx, `SELECT `+pokestopColumns+` FROM pokestops WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrPokestopNotFound
		}
		return nil, fmt.Errorf("querying pokestop: %w", err)
	}
	return p, nil
}

// NearbyPokestops lists pokestops within area, closest first.
func (r *PokestopRepository) NearbyPokestops(ctx context.Context, area storage.Area) ([]*stadium.Pokestop, error) {
	rows, err := r.db.Query(ctx, nearbySQL("pokestops", pokestopColumns, ""), areaArgs(area)...)
	if err != nil {
		return nil, fmt.Errorf("querying nearby pokestops: %w", err)
	}
	return collect(rows, scanPokestop)
}

// SamplePokestops returns up to n pokestops chosen at random.
func (r *PokestopRepository) SamplePokestops(ctx context.Context, n int) ([]*stadium.Pokestop, error) {
	rows, err := r.db.Query(ctx, `SELECT `+pokestopColumns+` FROM pokestops ORDER BY random() LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("sampling pokestops: %w", err)
	}
	return collect(rows, scanPokestop)
}

// AddPokestopItem adds one unit of item to each listed pokestop.
func (r *PokestopRepository) AddPokestopItem(ctx context.Context, ids []string, item inventory.Item) error {
	if len(ids) == 0 {
		return nil
	}
	col, err := storage.ItemColumn(item)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE pokestops SET %[1]s = %[1]s + 1 WHERE id = ANY($1)`, col), ids); err != nil {
		return fmt.Errorf("restocking pokestops: %w", err)
	}
	return nil
}
