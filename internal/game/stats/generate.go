package stats

import (
	"math"

	"github.com/cory-johannsen/pokestack/internal/game/random"
)

// IVsFromDraws assembles the six individual values from four base draws.
//
// The HP value takes bit i from bit 0 of draws[i]. The remaining slots are
// [draws[0], draws[1], draws[3], draws[3], draws[2]] for Atk, Def, SpAtk, SpDef,
// Spd. draws[3] fills both special slots; stored creatures depend on this layout.
//
// Precondition: every draw is in [0, 15].
// Postcondition: every returned value is in [0, 15].
func IVsFromDraws(draws [4]int) Block {
	hp := 0
	for i, v := range draws {
		hp |= (v & 1) << i
	}
	return Block{hp, draws[0], draws[1], draws[3], draws[3], draws[2]}
}

// RandomIVs draws four chi-square(3) variates scaled by 2, clamped to [0, 15]
// and truncated, then assembles them with IVsFromDraws.
//
// Postcondition: every returned value is in [0, 15].
func RandomIVs(src random.Source) Block {
	var draws [4]int
	for i := range draws {
		draws[i] = limit(src.ChiSquare(3)*2, 0, MaxIV)
	}
	return IVsFromDraws(draws)
}

// RandomEVs draws six effort values for a creature of the given level and
// shrinks them until their sum is at most 510.
//
// Precondition: 1 <= level <= 100.
// Postcondition: every value is in [0, 255] and the sum is <= 510.
func RandomEVs(src random.Source, level int) Block {
	scale := src.ChiSquare(1) * math.Pow(float64(level), 1.4)
	var evs Block
	for i := range evs {
		evs[i] = limit(math.Sqrt(src.ChiSquare(3)*40*scale), 0, MaxEV)
	}
	return ShrinkEVs(evs)
}

// ShrinkEVs repeatedly subtracts (sum-510)/countPositive from every positive
// entry, re-clamping at zero and truncating, until the sum is at most 510.
// Each pass lowers every positive entry by at least one, so the loop ends
// within sum passes.
//
// Precondition: every value >= 0.
// Postcondition: every value >= 0 and the sum is <= 510.
func ShrinkEVs(evs Block) Block {
	out, _ := shrinkEVs(evs)
	return out
}

// shrinkEVs is ShrinkEVs that also reports the number of passes taken.
func shrinkEVs(evs Block) (Block, int) {
	passes := 0
	for sum := evs.Sum(); sum > MaxEVTotal; sum = evs.Sum() {
		passes++
		positive := 0
		for _, v := range evs {
			if v > 0 {
				positive++
			}
		}
		diff := float64(sum-MaxEVTotal) / float64(positive)
		for i, v := range evs {
			if v > 0 {
				evs[i] = limit(float64(v)-diff, 0, float64(v))
			}
		}
	}
	return evs, passes
}

// limit clamps v to [min, max] and truncates toward zero.
func limit(v, min, max float64) int {
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return int(math.Trunc(v))
}
