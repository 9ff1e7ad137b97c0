// Package creature defines the creature record and the factory that
// generates new creatures.
package creature

import (
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/stats"
)

// OwnerKind distinguishes free creatures from owned or garrisoned ones.
type OwnerKind int

const (
	// OwnerNone marks a free (wild) creature.
	OwnerNone OwnerKind = iota
	// OwnerTrainer marks a creature owned by a trainer.
	OwnerTrainer
	// OwnerStadium marks a creature garrisoned in a stadium.
	OwnerStadium
)

// String returns the storage label of the kind.
func (k OwnerKind) String() string {
	switch k {
	case OwnerTrainer:
		return "trainer"
	case OwnerStadium:
		return "stadium"
	default:
		return "none"
	}
}

// ParseOwnerKind is the inverse of OwnerKind.String.
func ParseOwnerKind(s string) OwnerKind {
	switch s {
	case "trainer":
		return OwnerTrainer
	case "stadium":
		return OwnerStadium
	default:
		return OwnerNone
	}
}

// Owner references who holds a creature. The three kinds are mutually
// exclusive; ID is empty for OwnerNone.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// Free is the Owner of a wild creature.
var Free = Owner{}

// TrainerOwner returns an Owner for trainer id.
func TrainerOwner(id string) Owner { return Owner{Kind: OwnerTrainer, ID: id} }

// StadiumOwner returns an Owner for stadium id.
func StadiumOwner(id string) Owner { return Owner{Kind: OwnerStadium, ID: id} }

// IsFree reports whether nobody holds the creature.
func (o Owner) IsFree() bool { return o.Kind == OwnerNone }

// Creature is a single creature with its fixed attributes and derived stats.
//
// Invariant: every IV in [0, 15]; EVs sum to <= 510; 1 <= Level <= 100;
// every stat > 0.
type Creature struct {
	ID        string
	SpeciesID int
	Name      string
	Form      string
	Nature    string
	Level     int
	IVs       stats.Block
	EVs       stats.Block
	Stats     stats.Block
	// CurrentHP is battle scratch state. It starts at Stats[HP] and is never
	// persisted.
	CurrentHP float64
	Owner     Owner
	Location  geo.Point
}

// MaxHP returns the derived HP stat.
func (c *Creature) MaxHP() int { return c.Stats[stats.HP] }

// ResetHP restores CurrentHP to the HP stat.
//
// Postcondition: CurrentHP == float64(Stats[HP]).
func (c *Creature) ResetHP() { c.CurrentHP = float64(c.Stats[stats.HP]) }

// IsFainted reports whether the creature has no HP left.
func (c *Creature) IsFainted() bool { return c.CurrentHP <= 0 }

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP >= 0.
func (c *Creature) ApplyDamage(amount float64) {
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}

// Clone returns an independent copy suitable for a battle working set.
func (c *Creature) Clone() *Creature {
	out := *c
	return &out
}
