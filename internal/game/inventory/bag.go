// Package inventory tracks the item counters carried by trainers and stadiums.
package inventory

import (
	"errors"
	"fmt"
)

// Item names an inventory counter.
type Item string

const (
	Pokeball  Item = "pokeball"
	Greatball Item = "greatball"
	Revive    Item = "revive"
	Lure      Item = "lure"
)

// Items lists every counter in canonical order.
var Items = []Item{Pokeball, Greatball, Revive, Lure}

// ErrNegativeCount is returned when a bag counter would be negative.
var ErrNegativeCount = errors.New("item count must not be negative")

// Bag holds the item counters of a trainer or stadium.
//
// Invariant: all counters are >= 0 for a Bag that passed Validate.
type Bag struct {
	Pokeball  int `json:"pokeball" mapstructure:"pokeball"`
	Greatball int `json:"greatball" mapstructure:"greatball"`
	Revive    int `json:"revive" mapstructure:"revive"`
	Lure      int `json:"lure" mapstructure:"lure"`
}

// Count returns the counter for item.
//
// Postcondition: Returns 0 for an unknown item.
func (b Bag) Count(item Item) int {
	switch item {
	case Pokeball:
		return b.Pokeball
	case Greatball:
		return b.Greatball
	case Revive:
		return b.Revive
	case Lure:
		return b.Lure
	default:
		return 0
	}
}

// With returns a copy of b with item set to n.
func (b Bag) With(item Item, n int) Bag {
	switch item {
	case Pokeball:
		b.Pokeball = n
	case Greatball:
		b.Greatball = n
	case Revive:
		b.Revive = n
	case Lure:
		b.Lure = n
	}
	return b
}

// Validate reports a counter below zero.
func (b Bag) Validate() error {
	for _, item := range Items {
		if b.Count(item) < 0 {
			return fmt.Errorf("%w: %s=%d", ErrNegativeCount, item, b.Count(item))
		}
	}
	return nil
}

// Add returns b with every positive counter of other added.
//
// Postcondition: no counter of b decreases.
func (b Bag) Add(other Bag) Bag {
	for _, item := range Items {
		if n := other.Count(item); n > 0 {
			b = b.With(item, b.Count(item)+n)
		}
	}
	return b
}

// Drop returns b with every positive counter of other removed, flooring at zero.
//
// Postcondition: all counters are >= 0 if b was valid.
func (b Bag) Drop(other Bag) Bag {
	for _, item := range Items {
		n := other.Count(item)
		if n <= 0 {
			continue
		}
		left := b.Count(item) - n
		if left < 0 {
			left = 0
		}
		b = b.With(item, left)
	}
	return b
}

// Balls returns the number of capture balls of every kind.
func (b Bag) Balls() int {
	return b.Pokeball + b.Greatball
}
