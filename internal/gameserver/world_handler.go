package gameserver

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/stadium"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

// Kind selects the records a proximity query returns.
type Kind string

const (
	KindCreature Kind = "creature"
	KindTrainer  Kind = "trainer"
	KindStadium  Kind = "stadium"
	KindPokestop Kind = "pokestop"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCreature, KindTrainer, KindStadium, KindPokestop:
		return k, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Sightings holds the records of one proximity query, closest first. Only
// the slice matching the queried Kind is populated.
type Sightings struct {
	Creatures []*creature.Creature
	Trainers  []*trainer.Trainer
	Stadiums  []*stadium.Stadium
	Pokestops []*stadium.Pokestop
}

// Len returns the number of records found.
func (s Sightings) Len() int {
	return len(s.Creatures) + len(s.Trainers) + len(s.Stadiums) + len(s.Pokestops)
}

// Move displaces the user by offset meters, carrying its creatures, its
// stadiums, and their garrisons.
//
// Precondition: userID names a player.
// Postcondition: Returns ErrMoveTooFar without moving when
// horz² + vert² exceeds the configured limit squared; otherwise returns the
// new location.
func (s *Service) Move(ctx context.Context, userID string, offset geo.Offset) (_ geo.Point, err error) {
	ctx, span := s.start(ctx, "Move",
		attribute.String("user.id", userID),
		attribute.Float64("offset.horz", offset.Horz), attribute.Float64("offset.vert", offset.Vert))
	defer func() { end(span, err) }()

	limit := s.cfg.MoveLimitMeters
	if offset.DistSq() > limit*limit {
		return geo.Point{}, fmt.Errorf("%w: at most %.0f m at a time", ErrMoveTooFar, limit)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	u, err := s.user(ctx, userID)
	if err != nil {
		return geo.Point{}, err
	}
	dest := geo.Move(u.Location, offset)
	if err := s.store.MoveTrainer(ctx, u.ID, dest); err != nil {
		return geo.Point{}, fmt.Errorf("moving user: %w", err)
	}
	s.logger.Debug("moved",
		zap.String("user_id", u.ID),
		zap.Float64("lng", dest.Lng),
		zap.Float64("lat", dest.Lat),
	)
	return dest, nil
}

// Nearby lists records of kind within radius meters of the trainer, closest
// first. A radius <= 0 uses the configured nearby radius.
func (s *Service) Nearby(ctx context.Context, trainerID string, kind Kind, radius float64) (_ Sightings, err error) {
	ctx, span := s.start(ctx, "Nearby",
		attribute.String("trainer.id", trainerID), attribute.String("kind", string(kind)))
	defer func() { end(span, err) }()

	if radius <= 0 {
		radius = s.cfg.NearbyRadiusMeters
	}
	return s.sight(ctx, trainerID, kind, radius, 0)
}

// Closest returns the single record of kind nearest the trainer, with no
// distance bound. The result is empty when no record exists.
func (s *Service) Closest(ctx context.Context, trainerID string, kind Kind) (_ Sightings, err error) {
	ctx, span := s.start(ctx, "Closest",
		attribute.String("trainer.id", trainerID), attribute.String("kind", string(kind)))
	defer func() { end(span, err) }()

	return s.sight(ctx, trainerID, kind, 0, 1)
}

func (s *Service) sight(ctx context.Context, trainerID string, kind Kind, radius float64, limit int) (Sightings, error) {
	t, err := s.store.GetTrainer(ctx, trainerID)
	if err != nil {
		return Sightings{}, fmt.Errorf("loading trainer %s: %w", trainerID, err)
	}
	area := storage.Area{Center: t.Location, Radius: radius, Limit: limit}

	var out Sightings
	switch kind {
	case KindCreature:
		out.Creatures, err = s.store.NearbyCreatures(ctx, area, storage.CreatureFilter{})
	case KindTrainer:
		out.Trainers, err = s.store.NearbyTrainers(ctx, area)
	case KindStadium:
		out.Stadiums, err = s.store.NearbyStadiums(ctx, area)
	case KindPokestop:
		out.Pokestops, err = s.store.NearbyPokestops(ctx, area)
	default:
		return Sightings{}, fmt.Errorf("unknown kind %q", kind)
	}
	if err != nil {
		return Sightings{}, fmt.Errorf("querying nearby %ss: %w", kind, err)
	}
	return out, nil
}

// Creatures lists the creatures a trainer carries, strongest first.
//
// Postcondition: Returns storage.ErrTrainerNotFound for an unknown trainer.
func (s *Service) Creatures(ctx context.Context, trainerID string) (_ []*creature.Creature, err error) {
	ctx, span := s.start(ctx, "Creatures", attribute.String("trainer.id", trainerID))
	defer func() { end(span, err) }()

	if _, err := s.store.GetTrainer(ctx, trainerID); err != nil {
		return nil, fmt.Errorf("loading trainer %s: %w", trainerID, err)
	}
	return s.ownedBy(ctx, creature.TrainerOwner(trainerID))
}

// Garrison lists the creatures defending a stadium, strongest first.
//
// Postcondition: Returns storage.ErrStadiumNotFound for an unknown stadium.
func (s *Service) Garrison(ctx context.Context, stadiumID string) (_ []*creature.Creature, err error) {
	ctx, span := s.start(ctx, "Garrison", attribute.String("stadium.id", stadiumID))
	defer func() { end(span, err) }()

	if _, err := s.store.GetStadium(ctx, stadiumID); err != nil {
		return nil, fmt.Errorf("loading stadium %s: %w", stadiumID, err)
	}
	return s.ownedBy(ctx, creature.StadiumOwner(stadiumID))
}
