// Package storage holds the types shared by the persistence backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/stadium"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
)

var (
	// ErrCreatureNotFound is returned when a creature lookup or update matches no row.
	ErrCreatureNotFound = errors.New("creature not found")
	// ErrTrainerNotFound is returned when a trainer lookup or update matches no row.
	ErrTrainerNotFound = errors.New("trainer not found")
	// ErrStadiumNotFound is returned when a stadium lookup or update matches no row.
	ErrStadiumNotFound = errors.New("stadium not found")
	// ErrPokestopNotFound is returned when a pokestop lookup matches no row.
	ErrPokestopNotFound = errors.New("pokestop not found")
)

// CreatureStore persists creatures. Loaded creatures have CurrentHP reset to
// their HP stat.
type CreatureStore interface {
	InsertCreatures(ctx context.Context, cs []*creature.Creature) error
	GetCreature(ctx context.Context, id string) (*creature.Creature, error)
	// CreaturesByOwner orders by level descending, then insertion order.
	CreaturesByOwner(ctx context.Context, owner creature.Owner) ([]*creature.Creature, error)
	NearbyCreatures(ctx context.Context, area Area, filter CreatureFilter) ([]*creature.Creature, error)
	// PlaceCreatures applies every placement or none.
	PlaceCreatures(ctx context.Context, ps []Placement) error
	// UpdateCreatureGrowth persists level, EVs and stats.
	UpdateCreatureGrowth(ctx context.Context, cs []*creature.Creature) error
	DeleteCreatures(ctx context.Context, ids []string) (int, error)
	CountCreatures(ctx context.Context) (int, error)
}

// TrainerStore persists trainers and players.
type TrainerStore interface {
	InsertTrainer(ctx context.Context, t *trainer.Trainer) error
	GetTrainer(ctx context.Context, id string) (*trainer.Trainer, error)
	// FindOrCreateUser returns the player with u.WorkerNum, inserting u if absent.
	FindOrCreateUser(ctx context.Context, u *trainer.Trainer) (*trainer.Trainer, error)
	// SaveTrainer persists bag, points and location.
	SaveTrainer(ctx context.Context, t *trainer.Trainer) error
	// NearbyTrainers lists non-player trainers only.
	NearbyTrainers(ctx context.Context, area Area) ([]*trainer.Trainer, error)
	// MoveTrainer relocates a trainer with its creatures, owned stadiums and
	// their garrisons.
	MoveTrainer(ctx context.Context, id string, loc geo.Point) error
}

// StadiumStore persists stadiums. Garrisons are creatures held by the stadium.
type StadiumStore interface {
	InsertStadium(ctx context.Context, s *stadium.Stadium) error
	GetStadium(ctx context.Context, id string) (*stadium.Stadium, error)
	// SaveStadium persists owner, points and items.
	SaveStadium(ctx context.Context, s *stadium.Stadium) error
	NearbyStadiums(ctx context.Context, area Area) ([]*stadium.Stadium, error)
}

// PokestopStore persists pokestops.
type PokestopStore interface {
	InsertPokestops(ctx context.Context, ps []*stadium.Pokestop) error
	GetPokestop(ctx context.Context, id string) (*stadium.Pokestop, error)
	NearbyPokestops(ctx context.Context, area Area) ([]*stadium.Pokestop, error)
	SamplePokestops(ctx context.Context, n int) ([]*stadium.Pokestop, error)
	AddPokestopItem(ctx context.Context, ids []string, item inventory.Item) error
}

// Settlement groups the writes that finish one game action.
type Settlement struct {
	Placements []Placement
	// Trainer, when set, has its bag, points and location saved.
	Trainer *trainer.Trainer
	// Stadium, when set, has its owner, points and items saved.
	Stadium *stadium.Stadium
}

// SettlementStore commits a Settlement.
type SettlementStore interface {
	// Settle applies every write of st or none.
	Settle(ctx context.Context, st Settlement) error
}

// Store is the full persistence surface used by the game server.
type Store interface {
	CreatureStore
	TrainerStore
	StadiumStore
	PokestopStore
	SettlementStore
}

// Area selects records around a point, closest first.
type Area struct {
	Center geo.Point
	// Radius in meters; <= 0 means unbounded.
	Radius float64
	// Limit caps the result count; <= 0 means no cap.
	Limit int
}

// Contains reports whether p lies within the area's radius.
func (a Area) Contains(p geo.Point) bool {
	return a.Radius <= 0 || geo.Distance(a.Center, p) <= a.Radius
}

// LatitudeBand returns a latitude range guaranteed to hold every point of the
// area, for index-friendly prefiltering.
func (a Area) LatitudeBand() (lo, hi float64) {
	if a.Radius <= 0 {
		return -90, 90
	}
	delta := a.Radius / geo.EarthRadiusMeters * 180 / math.Pi
	return math.Max(a.Center.Lat-delta, -90), math.Min(a.Center.Lat+delta, 90)
}

// CreatureFilter narrows creature area queries.
type CreatureFilter struct {
	// FreeOnly keeps only creatures without an owner.
	FreeOnly bool
	// BelowLevel, when > 0, keeps only creatures with Level < BelowLevel.
	BelowLevel int
}

// Match reports whether c passes the filter.
func (f CreatureFilter) Match(c *creature.Creature) bool {
	if f.FreeOnly && !c.Owner.IsFree() {
		return false
	}
	return f.BelowLevel <= 0 || c.Level < f.BelowLevel
}

// Placement assigns a creature its owner and location.
type Placement struct {
	ID       string
	Owner    creature.Owner
	Location geo.Point
}

// ItemColumn maps an item onto the counter column that stores it.
func ItemColumn(item inventory.Item) (string, error) {
	if !slices.Contains(inventory.Items, item) {
		return "", fmt.Errorf("unknown item %q", item)
	}
	return string(item), nil
}

// Nearest keeps the items of a within the area, orders them by distance to
// its center, and applies its limit.
func Nearest[T any](items []T, loc func(T) geo.Point, a Area) []T {
	type ranked struct {
		item T
		dist float64
	}
	kept := make([]ranked, 0, len(items))
	for _, it := range items {
		d := geo.Distance(a.Center, loc(it))
		if a.Radius > 0 && d > a.Radius {
			continue
		}
		kept = append(kept, ranked{item: it, dist: d})
	}
	slices.SortStableFunc(kept, func(x, y ranked) int {
		switch {
		case x.dist < y.dist:
			return -1
		case x.dist > y.dist:
			return 1
		}
		return 0
	})
	if a.Limit > 0 && len(kept) > a.Limit {
		kept = kept[:a.Limit]
	}
	out := make([]T, len(kept))
	for i, r := range kept {
		out[i] = r.item
	}
	return out
}
