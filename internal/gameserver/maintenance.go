package gameserver

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/stadium"
	"github.com/cory-johannsen/pokestack/internal/game/stats"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

// seedBatch bounds the rows written per insert while populating.
const seedBatch = 1000

// center returns near, or a uniformly random point when near is nil.
func (s *Service) center(near *geo.Point) geo.Point {
	if near != nil {
		return *near
	}
	return geo.Random(s.src)
}

// Cull deletes up to count free creatures closest to near. A nil near picks
// a random point; a count <= 0 uses DefaultCullCount.
//
// Postcondition: held creatures are never removed.
func (s *Service) Cull(ctx context.Context, count int, near *geo.Point) (_ []*creature.Creature, err error) {
	ctx, span := s.start(ctx, "Cull", attribute.Int("count", count))
	defer func() { end(span, err) }()

	if count <= 0 {
		count = DefaultCullCount
	}
	area := storage.Area{Center: s.center(near), Limit: count}
	victims, err := s.store.NearbyCreatures(ctx, area, storage.CreatureFilter{FreeOnly: true})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(victims))
	for i, c := range victims {
		ids[i] = c.ID
	}
	if _, err := s.store.DeleteCreatures(ctx, ids); err != nil {
		return nil, err
	}
	s.logger.Info("culled", zap.Int("removed", len(victims)))
	return victims, nil
}

// LevelUp raises by one the level of up to count creatures below the level
// cap closest to near, re-deriving their stats. A nil near picks a random
// point; a count <= 0 uses DefaultLevelUpCount.
//
// Postcondition: no creature exceeds stats.MaxLevel.
func (s *Service) LevelUp(ctx context.Context, count int, near *geo.Point) (_ []*creature.Creature, err error) {
	ctx, span := s.start(ctx, "LevelUp", attribute.Int("count", count))
	defer func() { end(span, err) }()

	if count <= 0 {
		count = DefaultLevelUpCount
	}
	area := storage.Area{Center: s.center(near), Limit: count}
	cs, err := s.store.NearbyCreatures(ctx, area, storage.CreatureFilter{BelowLevel: stats.MaxLevel})
	if err != nil {
		return nil, err
	}
	for _, c := range cs {
		c.Level++
		if err := s.factory.Rederive(c); err != nil {
			return nil, fmt.Errorf("re-deriving %s: %w", c.ID, err)
		}
	}
	if err := s.store.UpdateCreatureGrowth(ctx, cs); err != nil {
		return nil, err
	}
	s.logger.Info("leveled up", zap.Int("count", len(cs)))
	return cs, nil
}

// CountCreatures returns the number of stored creatures.
func (s *Service) CountCreatures(ctx context.Context) (_ int, err error) {
	ctx, span := s.start(ctx, "CountCreatures")
	defer func() { end(span, err) }()

	return s.store.CountCreatures(ctx)
}

// Population sizes one seeding pass.
type Population struct {
	Creatures int
	Pokestops int
	Stadiums  int
	Trainers  int
}

// DefaultPopulation is the content of one seeding iteration.
var DefaultPopulation = Population{Creatures: 10000, Pokestops: 1500, Stadiums: 200, Trainers: 50}

// Scale multiplies every count by n.
func (p Population) Scale(n int) Population {
	return Population{
		Creatures: p.Creatures * n,
		Pokestops: p.Pokestops * n,
		Stadiums:  p.Stadiums * n,
		Trainers:  p.Trainers * n,
	}
}

// Populate generates and stores wild creatures, pokestops, stadiums with
// their garrisons, and non-player trainers with their creatures.
//
// Postcondition: Returns the number of creatures stored in total, counting
// garrisons and trainer creatures, or the first storage error.
func (s *Service) Populate(ctx context.Context, p Population) (_ int, err error) {
	ctx, span := s.start(ctx, "Populate",
		attribute.Int("creatures", p.Creatures), attribute.Int("pokestops", p.Pokestops),
		attribute.Int("stadiums", p.Stadiums), attribute.Int("trainers", p.Trainers))
	defer func() { end(span, err) }()

	var pending []*creature.Creature
	stored := 0
	flush := func(force bool) error {
		if len(pending) == 0 || (!force && len(pending) < seedBatch) {
			return nil
		}
		if err := s.store.InsertCreatures(ctx, pending); err != nil {
			return fmt.Errorf("storing creatures: %w", err)
		}
		stored += len(pending)
		pending = pending[:0]
		return nil
	}

	for range p.Creatures {
		c, err := s.factory.Create(creature.Options{})
		if err != nil {
			return stored, err
		}
		pending = append(pending, c)
		if err := flush(false); err != nil {
			return stored, err
		}
	}

	stops := make([]*stadium.Pokestop, 0, min(p.Pokestops, seedBatch))
	for i := range p.Pokestops {
		stops = append(stops, stadium.GeneratePokestop(s.src))
		if len(stops) == seedBatch || i == p.Pokestops-1 {
			if err := s.store.InsertPokestops(ctx, stops); err != nil {
				return stored, fmt.Errorf("storing pokestops: %w", err)
			}
			stops = stops[:0]
		}
	}

	for range p.Stadiums {
		st, garrison, err := stadium.Generate(s.src, s.factory)
		if err != nil {
			return stored, err
		}
		if err := s.store.InsertStadium(ctx, st); err != nil {
			return stored, err
		}
		pending = append(pending, garrison...)
		if err := flush(false); err != nil {
			return stored, err
		}
	}

	for range p.Trainers {
		t, cs, err := trainer.Generate(s.src, s.factory, s.now())
		if err != nil {
			return stored, err
		}
		if err := s.store.InsertTrainer(ctx, t); err != nil {
			return stored, err
		}
		pending = append(pending, cs...)
		if err := flush(false); err != nil {
			return stored, err
		}
	}

	if err := flush(true); err != nil {
		return stored, err
	}
	s.logger.Info("world populated",
		zap.Int("creatures", stored),
		zap.Int("pokestops", p.Pokestops),
		zap.Int("stadiums", p.Stadiums),
		zap.Int("trainers", p.Trainers),
	)
	return stored, nil
}
