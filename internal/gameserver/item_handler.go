package gameserver

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/stadium"
)

// LureOutcome reports one lure request.
type LureOutcome struct {
	Bag     inventory.Bag
	Spawned []*creature.Creature
}

// Improvement reports one restock of sampled pokestops.
type Improvement struct {
	Item      inventory.Item
	Pokestops []*stadium.Pokestop
}

// addToBag loads a player under its lock, applies fn to its bag, and saves.
func (s *Service) addToBag(ctx context.Context, userID string, fn func(inventory.Bag) inventory.Bag) (inventory.Bag, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	u, err := s.user(ctx, userID)
	if err != nil {
		return inventory.Bag{}, err
	}
	u.Bag = fn(u.Bag)
	if err := s.store.SaveTrainer(ctx, u); err != nil {
		return inventory.Bag{}, fmt.Errorf("saving bag: %w", err)
	}
	return u.Bag, nil
}

// CollectItems adds a stadium's stocked items to the user's bag. The stadium
// keeps its items.
func (s *Service) CollectItems(ctx context.Context, userID, stadiumID string) (_ inventory.Bag, err error) {
	ctx, span := s.start(ctx, "CollectItems",
		attribute.String("user.id", userID), attribute.String("stadium.id", stadiumID))
	defer func() { end(span, err) }()

	st, err := s.store.GetStadium(ctx, stadiumID)
	if err != nil {
		return inventory.Bag{}, fmt.Errorf("loading stadium %s: %w", stadiumID, err)
	}
	return s.addToBag(ctx, userID, func(b inventory.Bag) inventory.Bag { return stadium.Collect(b, st.Items) })
}

// CollectPokestop adds a pokestop's stocked items to the user's bag. The
// pokestop keeps its items.
func (s *Service) CollectPokestop(ctx context.Context, userID, pokestopID string) (_ inventory.Bag, err error) {
	ctx, span := s.start(ctx, "CollectPokestop",
		attribute.String("user.id", userID), attribute.String("pokestop.id", pokestopID))
	defer func() { end(span, err) }()

	p, err := s.store.GetPokestop(ctx, pokestopID)
	if err != nil {
		return inventory.Bag{}, fmt.Errorf("loading pokestop %s: %w", pokestopID, err)
	}
	return s.addToBag(ctx, userID, func(b inventory.Bag) inventory.Bag { return stadium.Collect(b, p.Items) })
}

// DropItems removes the positive counts of items from the user's bag,
// flooring every counter at zero.
func (s *Service) DropItems(ctx context.Context, userID string, items inventory.Bag) (_ inventory.Bag, err error) {
	ctx, span := s.start(ctx, "DropItems", attribute.String("user.id", userID))
	defer func() { end(span, err) }()

	return s.addToBag(ctx, userID, func(b inventory.Bag) inventory.Bag { return b.Drop(items) })
}

// Lure consumes one lure from the user's bag and spawns count free creatures
// within the lure radius of a pokestop. A count <= 0 spawns DefaultLureCount.
//
// Postcondition: the lure counter never drops below zero and the request
// succeeds even when the user had no lure.
func (s *Service) Lure(ctx context.Context, userID, pokestopID string, count int) (_ LureOutcome, err error) {
	ctx, span := s.start(ctx, "Lure",
		attribute.String("user.id", userID), attribute.String("pokestop.id", pokestopID))
	defer func() { end(span, err) }()

	if count <= 0 {
		count = DefaultLureCount
	}
	p, err := s.store.GetPokestop(ctx, pokestopID)
	if err != nil {
		return LureOutcome{}, fmt.Errorf("loading pokestop %s: %w", pokestopID, err)
	}
	bag, err := s.addToBag(ctx, userID, func(b inventory.Bag) inventory.Bag {
		return b.Drop(inventory.Bag{Lure: 1})
	})
	if err != nil {
		return LureOutcome{}, err
	}

	spawned := make([]*creature.Creature, 0, count)
	for range count {
		loc := geo.RandomNear(s.src, p.Location, s.cfg.LureRadiusMeters)
		c, err := s.factory.Create(creature.Options{Location: &loc})
		if err != nil {
			return LureOutcome{}, fmt.Errorf("spawning creature: %w", err)
		}
		spawned = append(spawned, c)
	}
	if err := s.store.InsertCreatures(ctx, spawned); err != nil {
		return LureOutcome{}, fmt.Errorf("storing lured creatures: %w", err)
	}

	s.logger.Info("lure",
		zap.String("user_id", userID),
		zap.String("pokestop_id", p.ID),
		zap.Int("spawned", len(spawned)),
	)
	return LureOutcome{Bag: bag, Spawned: spawned}, nil
}

// ImprovePokestops adds one unit of a uniformly chosen item to each of up to
// count randomly sampled pokestops. A count <= 0 uses DefaultImproveCount.
func (s *Service) ImprovePokestops(ctx context.Context, count int) (_ Improvement, err error) {
	ctx, span := s.start(ctx, "ImprovePokestops", attribute.Int("count", count))
	defer func() { end(span, err) }()

	if count <= 0 {
		count = DefaultImproveCount
	}
	ps, err := s.store.SamplePokestops(ctx, count)
	if err != nil {
		return Improvement{}, err
	}
	item := stadium.RandomItem(s.src)
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
		p.Items = p.Items.With(item, p.Items.Count(item)+1)
	}
	if err := s.store.AddPokestopItem(ctx, ids, item); err != nil {
		return Improvement{}, err
	}
	s.logger.Info("pokestops improved", zap.String("item", string(item)), zap.Int("count", len(ps)))
	return Improvement{Item: item, Pokestops: ps}, nil
}
