package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

const trainerColumns = `id, name, faction, age, joined_on, lng, lat,
	pokeball, greatball, revive, lure, points, worker_num`

func scanTrainer(row scanner) (*trainer.Trainer, error) {
	var (
		t      trainer.Trainer
		joined int64
		worker sql.NullInt64
	)
	if err := row.Scan(
		&t.ID, &t.Name, &t.Faction, &t.Age, &joined, &t.Location.Lng, &t.Location.Lat,
		&t.Bag.Pokeball, &t.Bag.Greatball, &t.Bag.Revive, &t.Bag.Lure, &t.Points, &worker,
	); err != nil {
		return nil, err
	}
	t.JoinedOn = fromMillis(joined)
	t.WorkerNum = int(worker.Int64)
	return &t, nil
}

func trainerArgs(t *trainer.Trainer) []any {
	worker := sql.NullInt64{Int64: int64(t.WorkerNum), Valid: t.IsUser()}
	return []any{
		t.ID, t.Name, t.Faction, t.Age, toMillis(t.JoinedOn), t.Location.Lng, t.Location.Lat,
		t.Bag.Pokeball, t.Bag.Greatball, t.Bag.Revive, t.Bag.Lure, t.Points, worker,
	}
}

// InsertTrainer stores a new trainer.
//
// Precondition: t.ID must be unique.
func (s *Store) InsertTrainer(ctx context.Context, t *trainer.Trainer) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO trainers (`+trainerColumns+`) VALUES (`+placeholders(13)+`)`,
		trainerArgs(t)...,
	); err != nil {
		return fmt.Errorf("inserting trainer: %w", err)
	}
	return nil
}

// GetTrainer retrieves a trainer or player by id.
//
// Postcondition: Returns the trainer or storage.ErrTrainerNotFound.
func (s *Store) GetTrainer(ctx context.Context, id string) (*trainer.Trainer, error) {
	t, err := scanTrainer(s.db.QueryRowContext(ctx, `SELECT `+trainerColumns+` FROM trainers WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
func (s *Store) FindOrCreateUser(ctx context.Context, u *trainer.Trainer) (*trainer.Trainer, error) {
	var out *trainer.Trainer
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trainers (`+trainerColumns+`) VALUES (`+placeholders(13)+`)
			ON CONFLICT (worker_num) DO NOTHING`,
			trainerArgs(u)...,
		); err != nil {
			return fmt.Errorf("upserting user: %w", err)
		}
		var err error
		out, err = scanTrainer(tx.QueryRowContext(ctx,
			`SELECT `+trainerColumns+` FROM trainers WHERE worker_num = ?`, u.WorkerNum))
		if err != nil {
			return fmt.Errorf("querying user: %w", err)
		}
		return nil
	})
	return out, err
}

// SaveTrainer persists the bag, points and location of t.
//
// Postcondition: Returns nil on success, storage.ErrTrainerNotFound if no row updated.
func (s *Store) SaveTrainer(ctx context.Context, t *trainer.Trainer) error {
	return saveTrainer(ctx, s.db, t)
}

func saveTrainer(ctx context.Context, ex execer, t *trainer.Trainer) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE trainers SET pokeball = ?, greatball = ?, revive = ?, lure = ?,
			points = ?, lng = ?, lat = ?
		WHERE id = ?`,
		t.Bag.Pokeball, t.Bag.Greatball, t.Bag.Revive, t.Bag.Lure,
		t.Points, t.Location.Lng, t.Location.Lat, t.ID,
	)
	if err := requireRow(res, err, storage.ErrTrainerNotFound); err != nil {
		if errors.Is(err, storage.ErrTrainerNotFound) {
			return err
		}
		return fmt.Errorf("saving trainer: %w", err)
	}
	return nil
}

// NearbyTrainers lists non-player trainers within area, closest first.
func (s *Store) NearbyTrainers(ctx context.Context, area storage.Area) ([]*trainer.Trainer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trainerColumns+` FROM trainers`+bandSQL+` AND worker_num IS NULL`,
		bandArgs(area)...)
	if err != nil {
		return nil, fmt.Errorf("querying nearby trainers: %w", err)
	}
	ts, err := collect(rows, scanTrainer)
	if err != nil {
		return nil, fmt.Errorf("scanning nearby trainers: %w", err)
	}
	return storage.Nearest(ts, func(t *trainer.Trainer) geo.Point { return t.Location }, area), nil
}

// MoveTrainer relocates a trainer together with its creatures, the stadiums
// it owns, and their garrisons, in one transaction.
//
// Postcondition: Returns storage.ErrTrainerNotFound and changes nothing for an unknown id.
func (s *Store) MoveTrainer(ctx context.Context, id string, loc geo.Point) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE trainers SET lng = ?, lat = ? WHERE id = ?`, loc.Lng, loc.Lat, id)
		if err := requireRow(res, err, storage.ErrTrainerNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE creatures SET lng = ?, lat = ?
			WHERE (owner_kind = 'trainer' AND owner_id = ?)
			   OR (owner_kind = 'stadium' AND owner_id IN (SELECT id FROM stadiums WHERE owner_id = ?))`,
			loc.Lng, loc.Lat, id, id,
		); err != nil {
			return fmt.Errorf("moving trainer creatures: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE stadiums SET lng = ?, lat = ? WHERE owner_id = ?`, loc.Lng, loc.Lat, id); err != nil {
			return fmt.Errorf("moving trainer stadiums: %w", err)
		}
		return nil
	})
}
