package stats

import (
	"fmt"
	"strings"
)

// Nature applies a multiplier to each non-HP statistic, ordered Atk, Def,
// SpAtk, SpDef, Spd.
type Nature struct {
	Name        string
	Multipliers [Count - 1]float64
}

// Multiplier returns the nature multiplier for idx.
//
// Postcondition: Returns 1 for HP; otherwise one of 0.9, 1.0, 1.1.
func (n Nature) Multiplier(idx Index) float64 {
	if idx == HP || idx < 0 || int(idx) >= Count {
		return 1
	}
	return n.Multipliers[idx-1]
}

// Natures lists the 25 natures in canonical order.
var Natures = [25]Nature{
	{"Hardy", [5]float64{1, 1, 1, 1, 1}},
	{"Lonely", [5]float64{1.1, 0.9, 1, 1, 1}},
	{"Adamant", [5]float64{1.1, 1, 0.9, 1, 1}},
	{"Naughty", [5]float64{1.1, 1, 1, 0.9, 1}},
	{"Brave", [5]float64{1.1, 1, 1, 1, 0.9}},
	{"Bold", [5]float64{0.9, 1.1, 1, 1, 1}},
	{"Docile", [5]float64{1, 1, 1, 1, 1}},
	{"Impish", [5]float64{1, 1.1, 0.9, 1, 1}},
	{"Lax", [5]float64{1, 1.1, 1, 0.9, 1}},
	{"Relaxed", [5]float64{1, 1.1, 1, 1, 0.9}},
	{"Modest", [5]float64{0.9, 1, 1.1, 1, 1}},
	{"Mild", [5]float64{1, 0.9, 1.1, 1, 1}},
	{"Bashful", [5]float64{1, 1, 1, 1, 1}},
	{"Rash", [5]float64{1, 1, 1.1, 0.9, 1}},
	{"Quiet", [5]float64{1, 1, 1.1, 1, 0.9}},
	{"Calm", [5]float64{0.9, 1, 1, 1.1, 1}},
	{"Gentle", [5]float64{1, 0.9, 1, 1.1, 1}},
	{"Careful", [5]float64{1, 1, 0.9, 1.1, 1}},
	{"Quirky", [5]float64{1, 1, 1, 1, 1}},
	{"Sassy", [5]float64{1, 1, 1, 1.1, 0.9}},
	{"Timid", [5]float64{0.9, 1, 1, 1, 1.1}},
	{"Hasty", [5]float64{1, 0.9, 1, 1, 1.1}},
	{"Jolly", [5]float64{1, 1, 0.9, 1, 1.1}},
	{"Naive", [5]float64{1, 1, 1, 0.9, 1.1}},
	{"Serious", [5]float64{1, 1, 1, 1, 1}},
}

// NatureByName returns the nature with the given name, ignoring case.
//
// Postcondition: Returns an error if no nature matches.
func NatureByName(name string) (Nature, error) {
	for _, n := range Natures {
		if strings.EqualFold(n.Name, name) {
			return n, nil
		}
	}
	return Nature{}, fmt.Errorf("unknown nature %q", name)
}
