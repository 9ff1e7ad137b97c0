// Package stats derives creature combat statistics from species base stats,
// individual values, effort values, nature, and level.
package stats

import "fmt"

// Index identifies one of the six combat statistics.
type Index int

const (
	HP Index = iota
	Attack
	Defense
	SpAttack
	SpDefense
	Speed
)

// Count is the number of combat statistics.
const Count = 6

const (
	// MaxIV is the inclusive upper bound of an individual value.
	MaxIV = 15
	// MaxEV is the per-stat effort value cap.
	MaxEV = 255
	// MaxEVTotal caps the sum of all six effort values.
	MaxEVTotal = 510
	// MaxLevel is the highest creature level.
	MaxLevel = 100
)

var indexNames = [Count]string{"HP", "Atk", "Def", "SpAtk", "SpDef", "Spd"}

// String returns the short stat label.
func (i Index) String() string {
	if i < 0 || int(i) >= Count {
		return fmt.Sprintf("Index(%d)", int(i))
	}
	return indexNames[i]
}

// Block holds one value per combat statistic, ordered HP, Atk, Def, SpAtk,
// SpDef, Spd.
type Block [Count]int

// Sum returns the total of all six values.
func (b Block) Sum() int {
	total := 0
	for _, v := range b {
		total += v
	}
	return total
}

// Slice returns the values as a freshly allocated slice.
func (b Block) Slice() []int {
	out := make([]int, Count)
	copy(out, b[:])
	return out
}

// BlockFromSlice builds a Block from exactly six values.
//
// Postcondition: Returns an error if len(vals) != Count.
func BlockFromSlice(vals []int) (Block, error) {
	var b Block
	if len(vals) != Count {
		return b, fmt.Errorf("stat block needs %d values, got %d", Count, len(vals))
	}
	copy(b[:], vals)
	return b, nil
}

// CalcStat computes one derived statistic with the generation III formula:
//
//	HP:    floor((2B + IV + floor(EV/4)) * L / 100) + L + 10
//	other: floor((floor((2B + IV + floor(EV/4)) * L / 100) + 5) * nature)
//
// Precondition: base >= 1; 1 <= level <= 100; natureMult in {0.9, 1.0, 1.1}.
// Postcondition: Returns a value > 0.
func CalcStat(idx Index, base, iv, ev, level int, natureMult float64) int {
	core := (2*base + iv + ev/4) * level / 100
	if idx == HP {
		return core + level + 10
	}
	// Multipliers are applied in integer tenths so 0.9 and 1.1 floor exactly.
	tenths := int(natureMult*10 + 0.5)
	return (core + 5) * tenths / 10
}

// Derive computes all six statistics for a creature.
//
// Precondition: every base value >= 1; 1 <= level <= 100.
// Postcondition: every returned value > 0; HP ignores the nature.
func Derive(base, ivs, evs Block, level int, nature Nature) Block {
	var out Block
	for i := Index(0); i < Count; i++ {
		out[i] = CalcStat(i, base[i], ivs[i], evs[i], level, nature.Multiplier(i))
	}
	return out
}
