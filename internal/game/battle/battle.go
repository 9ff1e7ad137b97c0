// Package battle resolves turn-based fights between two teams of creatures.
package battle

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/game/random"
)

// ErrInvalidRoster is returned when a team passed to Resolve is empty.
var ErrInvalidRoster = errors.New("invalid roster")

// Result is the outcome of one battle.
type Result struct {
	OffenseWon bool
	Attacks    []AttackEvent
}

// Engine resolves battles.
type Engine struct {
	src    random.Source
	logger *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: src and logger must be non-nil.
func NewEngine(src random.Source, logger *zap.Logger) *Engine {
	return &Engine{src: src, logger: logger}
}

// cursor walks a team, skipping fainted members.
type cursor struct {
	team Team
	idx  int
}

func newCursor(t Team) *cursor {
	c := &cursor{team: t, idx: -1}
	c.advance()
	return c
}

// advance moves to the next member with HP left, or past the end.
func (c *cursor) advance() {
	for c.idx++; c.idx < len(c.team.Members); c.idx++ {
		if !c.team.Members[c.idx].IsFainted() {
			return
		}
	}
}

func (c *cursor) exhausted() bool { return c.idx >= len(c.team.Members) }

// Resolve fights offense against defense. Offense attacks first; sides
// alternate one attack at a time; a side whose active creature faints moves
// to its next creature. The battle ends as soon as either side is exhausted,
// and a side that starts with no creature able to fight loses without an
// attack being thrown.
//
// Precondition: both teams hold working copies the caller is willing to have
// their CurrentHP mutated.
// Postcondition: Returns ErrInvalidRoster if either team is empty; otherwise
// exactly one side is exhausted.
func (e *Engine) Resolve(offense, defense Team) (Result, error) {
	if offense.Len() == 0 {
		return Result{}, fmt.Errorf("%w: offensive team is empty", ErrInvalidRoster)
	}
	if defense.Len() == 0 {
		return Result{}, fmt.Errorf("%w: defensive team is empty", ErrInvalidRoster)
	}

	var res Result
	off, def := newCursor(offense), newCursor(defense)
	offTurn := true
	for !off.exhausted() && !def.exhausted() {
		attacker, target := off, def
		if !offTurn {
			attacker, target = def, off
		}
		a, d := attacker.team.Members[attacker.idx], target.team.Members[target.idx]
		ev := Attack(e.src, a, d)
		ev.Offense = offTurn
		res.Attacks = append(res.Attacks, ev)
		e.logger.Debug("attack",
			zap.String("attacker", a.Name),
			zap.String("attacker_id", a.ID),
			zap.String("defender", d.Name),
			zap.String("defender_id", d.ID),
			zap.Bool("special", ev.Special),
			zap.Bool("dodged", ev.Dodged),
			zap.Float64("damage", ev.Damage),
			zap.Float64("defender_hp", ev.DefenderHP),
		)
		if d.IsFainted() {
			target.advance()
		}
		offTurn = !offTurn
	}

	res.OffenseWon = !off.exhausted()
	e.logger.Info("battle resolved",
		zap.Bool("offense_won", res.OffenseWon),
		zap.Int("attacks", len(res.Attacks)),
		zap.Int("offense_size", offense.Len()),
		zap.Int("defense_size", defense.Len()),
	)
	return res, nil
}
