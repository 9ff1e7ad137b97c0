package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

const trainerColumns = `id, name, faction, age, joined_on, lng, lat,
	pokeball, greatball, revive, lure, points, worker_num`

// TrainerRepository provides trainer and player persistence operations.
type TrainerRepository struct {
	db *pgxpool.Pool
}

// NewTrainerRepository creates a TrainerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewTrainerRepository(db *pgxpool.Pool) *TrainerRepository {
	return &TrainerRepository{db: db}
}

func scanTrainer(row scanner) (*trainer.Trainer, error) {
	var (
		t      trainer.Trainer
		worker *int
	)
	if err := row.Scan(
		&t.ID, &t.Name, &t.Faction, &t.Age, &t.JoinedOn, &t.Location.Lng, &t.Location.Lat,
		&t.Bag.Pokeball, &t.Bag.Greatball, &t.Bag.Revive, &t.Bag.Lure, &t.Points, &worker,
	); err != nil {
		return nil, err
	}
	if worker != nil {
		t.WorkerNum = *worker
	}
	return &t, nil
}

func workerArg(t *trainer.Trainer) *int {
	if !t.IsUser() {
		return nil
	}
	n := t.WorkerNum
	return &n
}

func trainerArgs(t *trainer.Trainer) []any {
	return []any{
		t.ID, t.Name, t.Faction, t.Age, t.JoinedOn, t.Location.Lng, t.Location.Lat,
		t.Bag.Pokeball, t.Bag.Greatball, t.Bag.Revive, t.Bag.Lure, t.Points, workerArg(t),
	}
}

// InsertTrainer stores a new trainer.
//
// Precondition: t.ID must be unique.
// Postcondition: The row exists, or a non-nil error is returned.
func (r *TrainerRepository) InsertTrainer(ctx context.Context, t *trainer.Trainer) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trainers (`+trainerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		trainerArgs(t)...,
	)
	if err != nil {
		return fmt.Errorf("inserting trainer: %w", err)
	}
	return nil
}

// GetTrainer retrieves a trainer or player by id.
//
// Postcondition: Returns the trainer or storage.ErrTrainerNotFound.
func (r *TrainerRepository) GetTrainer(ctx context.Context, id string) (*trainer.Trainer, error) {
	t, err := scanTrainer(r.db.QueryRow(ctx, `SELECT `+trainerColumns+` FROM trainers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrTrainerNotFound
		}
		return nil, fmt.Errorf("querying trainer: %w", err)
	}
	return t, nil
}

// FindOrCreateUser inserts u unless a player with the same worker number
// exists, then returns the stored player.
//
// Precondition: u.WorkerNum > 0.
// Postcondition: Returns the single player row for u.WorkerNum.
func (r *TrainerRepository) FindOrCreateUser(ctx context.Context, u *trainer.Trainer) (*trainer.Trainer, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trainers (`+trainerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (worker_num) DO NOTHING`,
		trainerArgs(u)...,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	out, err := scanTrainer(r.db.QueryRow(ctx,
		`SELECT `+trainerColumns+` FROM trainers WHERE worker_num = $1`, u.WorkerNum))
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return out, nil
}

// SaveTrainer persists the bag, points and location of t.
//
// Postcondition: Returns nil on success, storage.ErrTrainerNotFound if no row updated.
func (r *TrainerRepository) SaveTrainer(ctx context.Context, t *trainer.Trainer) error {
	return saveTrainer(ctx, r.db, t)
}

func saveTrainer(ctx context.Context, ex execer, t *trainer.Trainer) error {
	tag, err := ex.Exec(ctx, `
		UPDATE trainers SET pokeball = $2, greatball = $3, revive = $4, lure = $5,
			points = $6, lng = $7, lat = $8
		WHERE id = $1`,
		t.ID, t.Bag.Pokeball, t.Bag.Greatball, t.Bag.Revive, t.Bag.Lure,
		t.Points, t.Location.Lng, t.Location.Lat,
	)
	if err != nil {
		return fmt.Errorf("saving trainer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrTrainerNotFound
	}
	return nil
}

// NearbyTrainers lists non-player trainers within area, closest first.
func (r *TrainerRepository) NearbyTrainers(ctx context.Context, area storage.Area) ([]*trainer.Trainer, error) {
	rows, err := r.db.Query(ctx, nearbySQL("trainers", trainerColumns, ` AND worker_num IS NULL`), areaArgs(area)...)
	if err != nil {
		return nil, fmt.Errorf("querying nearby trainers: %w", err)
	}
	return collect(rows, scanTrainer)
}

// MoveTrainer relocates a trainer together with its creatures, the stadiums
// it owns, and their garrisons, in one transaction.
//
// Postcondition: Returns storage.ErrTrainerNotFound and changes nothing for an unknown id.
func (r *TrainerRepository) MoveTrainer(ctx context.Context, id string, loc geo.Point) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE trainers SET lng = $2, lat = $3 WHERE id = $1`, id, loc.Lng, loc.Lat)
		if err != nil {
			return fmt.Errorf("moving trainer: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrTrainerNotFound
		}
		if _, err := tx.Exec(ctx, `
			UPDATE creatures SET lng = $2, lat = $3
			WHERE (owner_kind = 'trainer' AND owner_id = $1)
			   OR (owner_kind = 'stadium' AND owner_id IN (SELECT id FROM stadiums WHERE owner_id = $1))`,
			id, loc.Lng, loc.Lat,
		); err != nil {
			return fmt.Errorf("moving trainer creatures: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE stadiums SET lng = $2, lat = $3 WHERE owner_id = $1`, id, loc.Lng, loc.Lat); err != nil {
			return fmt.Errorf("moving trainer stadiums: %w", err)
		}
		return nil
	})
}
