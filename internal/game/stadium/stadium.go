// Package stadium models pokestops and the stadiums built on them.
package stadium

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/random"
)

// Pokestop is a fixed map location holding collectible items.
type Pokestop struct {
	ID           string
	Name         string
	Location     geo.Point
	HeightMeters float64
	RadiusMeters float64
	Items        inventory.Bag
}

// Stadium is a pokestop with a garrison of creatures and an optional owner.
type Stadium struct {
	Pokestop
	// OwnerID is the id of the owning trainer, empty when unclaimed.
	OwnerID string
	Points  float64
}

// RandomItems draws the items stocked at a new pokestop.
func RandomItems(src random.Source) inventory.Bag {
	lure := 0
	if src.Bernoulli(0.2) {
		lure++
	}
	if src.Bernoulli(0.05) {
		lure++
	}
	return inventory.Bag{
		Pokeball:  int(src.ChiSquare(1) * 3),
		Lure:      lure,
		Greatball: int(src.ChiSquare(1) / 3),
		Revive:    int(src.ChiSquare(2)),
	}
}

// GeneratePokestop creates a pokestop at a uniformly random location.
func GeneratePokestop(src random.Source) *Pokestop {
	id := uuid.New().String()
	return &Pokestop{
		ID:           id,
		Name:         "Pokestop " + id[:8],
		HeightMeters: src.ChiSquare(3) * 5,
		RadiusMeters: src.ChiSquare(1) * 4,
		Location:     geo.Random(src),
		Items:        RandomItems(src),
	}
}

// Generate creates an unclaimed stadium and its garrison of
// trunc(chisq(2)/2.5) creatures placed at the stadium.
//
// Precondition: src and factory must be non-nil.
// Postcondition: every returned creature has Owner == StadiumOwner(s.ID).
func Generate(src random.Source, factory *creature.Factory) (*Stadium, []*creature.Creature, error) {
	n := int(src.ChiSquare(2) / 2.5)
	s := &Stadium{Pokestop: *GeneratePokestop(src)}
	s.Name = "Stadium " + s.ID[:8]
	s.Points = src.ChiSquare(2) * 10

	garrison := make([]*creature.Creature, 0, n)
	for range n {
		loc := s.Location
		c, err := factory.Create(creature.Options{Location: &loc, Owner: creature.StadiumOwner(s.ID)})
		if err != nil {
			return nil, nil, fmt.Errorf("generating garrison for stadium %s: %w", s.ID, err)
		}
		garrison = append(garrison, c)
	}
	return s, garrison, nil
}

// Collect returns bag plus every positive item count stocked at the
// location. The location keeps its items.
func Collect(bag, items inventory.Bag) inventory.Bag {
	return bag.Add(items)
}

// RandomItem picks one item kind uniformly, for restocking pokestops.
func RandomItem(src random.Source) inventory.Item {
	return inventory.Items[src.Intn(len(inventory.Items))]
}
