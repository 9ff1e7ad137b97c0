// Package trainer models trainers and players and generates wandering
// trainers with their starting creatures.
package trainer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/random"
)

// ErrInvalidWorker is returned for a non-positive worker number.
var ErrInvalidWorker = errors.New("invalid worker number")

// Factions a trainer may belong to.
var Factions = []string{"Red", "Yellow", "Blue"}

const week = 7 * 24 * time.Hour

// Trainer is a non-player trainer or, when WorkerNum > 0, a player.
type Trainer struct {
	ID        string
	Name      string
	Faction   string
	Age       int
	JoinedOn  time.Time
	Location  geo.Point
	Bag       inventory.Bag
	Points    float64
	WorkerNum int
}

// IsUser reports whether t is a player.
func (t *Trainer) IsUser() bool { return t.WorkerNum > 0 }

// placeholderName derives a display name from id.
func placeholderName(prefix, id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return prefix + " " + id
}

func newBase(src random.Source, now time.Time) *Trainer {
	id := uuid.New().String()
	return &Trainer{
		ID:       id,
		Name:     placeholderName("Trainer", id),
		Faction:  Factions[src.Intn(len(Factions))],
		Age:      int(math.Trunc(15 + src.ChiSquare(1)*5)),
		JoinedOn: now.Add(-time.Duration(src.ChiSquare(1) * float64(week))),
		Location: geo.Random(src),
	}
}

// RandomBag draws a starting bag for a non-player trainer.
//
// Postcondition: every count is >= 0.
func RandomBag(src random.Source) inventory.Bag {
	return inventory.Bag{
		Pokeball:  int(src.ChiSquare(3) * 5),
		Greatball: int(src.ChiSquare(1) * 2),
		Revive:    int(src.ChiSquare(1) * 3),
		Lure:      int(src.ChiSquare(1)),
	}
}

// Generate creates a non-player trainer plus 1+trunc(chisq(1)) creatures
// owned by it and placed at its location.
//
// Precondition: src and factory must be non-nil.
// Postcondition: every returned creature has Owner == TrainerOwner(t.ID).
func Generate(src random.Source, factory *creature.Factory, now time.Time) (*Trainer, []*creature.Creature, error) {
	t := newBase(src, now)
	t.Bag = RandomBag(src)

	n := 1 + int(src.ChiSquare(1))
	owned := make([]*creature.Creature, 0, n)
	for range n {
		loc := t.Location
		c, err := factory.Create(creature.Options{Location: &loc, Owner: creature.TrainerOwner(t.ID)})
		if err != nil {
			return nil, nil, fmt.Errorf("generating creature for trainer %s: %w", t.ID, err)
		}
		owned = append(owned, c)
	}
	return t, owned, nil
}

// NewUser creates a player with an empty bag and zero points.
//
// Precondition: workerNum > 0.
// Postcondition: Returns ErrInvalidWorker for workerNum <= 0.
func NewUser(src random.Source, workerNum int, now time.Time) (*Trainer, error) {
	if workerNum <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorker, workerNum)
	}
	u := newBase(src, now)
	u.Name = placeholderName("Player", u.ID)
	u.JoinedOn = now
	u.WorkerNum = workerNum
	return u, nil
}
