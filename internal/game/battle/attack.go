package battle

import (
	"math"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/stats"
)

// AttackEvent records the outcome of one attack.
type AttackEvent struct {
	// Offense is true when the offensive side attacked.
	Offense    bool
	AttackerID string
	DefenderID string
	Special    bool
	Dodged     bool
	Damage     float64
	// DefenderHP is the defender's CurrentHP after the attack.
	DefenderHP float64
}

// SpecialProbability returns the chance that an attacker of level picks a
// special attack.
func SpecialProbability(level int) float64 {
	return 0.51 - 8/(15+float64(level))
}

// DodgeProbability returns the chance that a defender with speed avoids an
// attack.
func DodgeProbability(speed int, special bool) float64 {
	p := math.Min(float64(speed)/255, 1) * 0.7
	if special {
		p /= 2
	}
	return p
}

// Attack resolves attacker striking defender. Draws, in order: Bernoulli for
// the special category, Bernoulli for the dodge, then a chi-square damage roll
// (10 df normal, 50 df special) unless the attack was dodged.
//
// Precondition: src, attacker and defender must be non-nil.
// Postcondition: defender.CurrentHP is reduced by the damage and floored at 0;
// attacker is not modified.
func Attack(src random.Source, attacker, defender *creature.Creature) AttackEvent {
	ev := AttackEvent{AttackerID: attacker.ID, DefenderID: defender.ID}
	ev.Special = src.Bernoulli(SpecialProbability(attacker.Level))
	if src.Bernoulli(DodgeProbability(defender.Stats[stats.Speed], ev.Special)) {
		ev.Dodged = true
		ev.DefenderHP = defender.CurrentHP
		return ev
	}

	atk, def := attacker.Stats, defender.Stats
	var base, mult float64
	if ev.Special {
		base = float64(atk[stats.SpAttack]) / 8 * math.Min(src.ChiSquare(50)/50, 3)
		mult = 510 / (510 + 2*float64(def[stats.SpDefense]) + float64(def[stats.Defense]))
	} else {
		base = float64(atk[stats.Attack]) / 10 * math.Min(src.ChiSquare(10)/10, 2)
		mult = 255 / (255 + float64(def[stats.Defense]))
	}
	ev.Damage = base * mult
	defender.ApplyDamage(ev.Damage)
	ev.DefenderHP = defender.CurrentHP
	return ev
}
