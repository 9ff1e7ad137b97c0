package gameserver

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/game/capture"
	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

// CaptureOutcome reports one capture request.
type CaptureOutcome struct {
	Captured bool
	// Bag is the trainer's bag after the throws.
	Bag      inventory.Bag
	Throws   []capture.Throw
	Creature *creature.Creature
}

// Capture throws balls from the trainer's bag at a free creature.
//
// Precondition: trainerID and creatureID name stored records.
// Postcondition: the trainer's bag is persisted with the balls thrown removed;
// on success the creature is owned by the trainer and sits at its location.
// Returns ErrAlreadyOwned, without touching the bag, for a held creature.
func (s *Service) Capture(ctx context.Context, trainerID, creatureID string) (_ CaptureOutcome, err error) {
	ctx, span := s.start(ctx, "Capture",
		attribute.String("trainer.id", trainerID), attribute.String("creature.id", creatureID))
	defer func() { end(span, err) }()

	unlock := s.locks.Lock(trainerID, creatureID)
	defer unlock()

	t, err := s.store.GetTrainer(ctx, trainerID)
	if err != nil {
		return CaptureOutcome{}, fmt.Errorf("loading trainer %s: %w", trainerID, err)
	}
	c, err := s.store.GetCreature(ctx, creatureID)
	if err != nil {
		return CaptureOutcome{}, fmt.Errorf("loading creature %s: %w", creatureID, err)
	}
	if !c.Owner.IsFree() {
		return CaptureOutcome{}, fmt.Errorf("%w: %s", ErrAlreadyOwned, creatureID)
	}

	res := s.capture.Attempt(t.Bag, c.Level)
	t.Bag = res.Bag
	settle := storage.Settlement{Trainer: t}
	if res.Captured {
		c.Owner = creature.TrainerOwner(t.ID)
		c.Location = t.Location
		settle.Placements = []storage.Placement{{ID: c.ID, Owner: c.Owner, Location: c.Location}}
	}
	if err := s.store.Settle(ctx, settle); err != nil {
		return CaptureOutcome{}, fmt.Errorf("saving capture: %w", err)
	}

	s.logger.Info("capture",
		zap.String("trainer_id", t.ID),
		zap.String("creature_id", c.ID),
		zap.Int("level", c.Level),
		zap.Int("throws", len(res.Throws)),
		zap.Bool("captured", res.Captured),
	)
	return CaptureOutcome{Captured: res.Captured, Bag: res.Bag, Throws: res.Throws, Creature: c}, nil
}
