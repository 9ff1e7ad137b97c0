// Package capture runs the ball-throwing trials that decide whether a trainer
// catches a creature.
package capture

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/random"
)

// Mode selects what happens after a throw succeeds.
type Mode string

const (
	// ModeThrowAll keeps throwing until the trial budget or the bag runs out;
	// any success captures.
	ModeThrowAll Mode = "throw_all"
	// ModeStopOnSuccess stops consuming balls at the first success.
	ModeStopOnSuccess Mode = "stop_on_success"
)

const (
	// DefaultPokeballTrials is the pokeball trial budget per attempt.
	DefaultPokeballTrials = 10
	// DefaultGreatballTrials is the greatball trial budget per attempt.
	DefaultGreatballTrials = 2

	pokeballDivisor  = 120.0
	greatballDivisor = 220.0
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeThrowAll, ModeStopOnSuccess:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown capture mode %q", s)
}

// Config holds the engine settings.
type Config struct {
	Mode            Mode
	PokeballTrials  int
	GreatballTrials int
}

// DefaultConfig returns ModeThrowAll with the standard budgets.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeThrowAll,
		PokeballTrials:  DefaultPokeballTrials,
		GreatballTrials: DefaultGreatballTrials,
	}
}

// Throw records a single ball thrown during an attempt.
type Throw struct {
	Item    inventory.Item
	Success bool
}

// Result is the outcome of one capture attempt.
type Result struct {
	Captured bool
	// Bag is the input bag less the balls thrown.
	Bag    inventory.Bag
	Throws []Throw
}

// Engine runs capture attempts.
type Engine struct {
	cfg    Config
	src    random.Source
	logger *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: src and logger must be non-nil; trial budgets must be >= 0.
func NewEngine(cfg Config, src random.Source, logger *zap.Logger) *Engine {
	if cfg.Mode == "" {
		cfg.Mode = ModeThrowAll
	}
	return &Engine{cfg: cfg, src: src, logger: logger}
}

// SuccessProbability returns the per-throw chance of item against a creature
// of the given level, clamped to [0, 1].
func SuccessProbability(item inventory.Item, level int) float64 {
	divisor := pokeballDivisor
	if item == inventory.Greatball {
		divisor = greatballDivisor
	}
	p := 1 - float64(level)/divisor
	if p < 0 {
		return 0
	}
	return p
}

// Attempt throws pokeballs, then greatballs, at a creature of the given level.
// One Bernoulli draw is made per ball thrown.
//
// Precondition: bag counts are non-negative.
// Postcondition: Result.Bag never has more balls than bag; with no balls no
// draw is made and Result equals {false, bag, nil}. Under ModeThrowAll the
// pokeball count drops by min(pokeball, PokeballTrials) and the greatball count
// by min(greatball, GreatballTrials).
func (e *Engine) Attempt(bag inventory.Bag, level int) Result {
	res := Result{Bag: bag}
	res.Bag.Pokeball = e.throw(&res, inventory.Pokeball, bag.Pokeball, e.cfg.PokeballTrials, level)
	res.Bag.Greatball = e.throw(&res, inventory.Greatball, bag.Greatball, e.cfg.GreatballTrials, level)
	e.logger.Debug("capture attempt",
		zap.Int("level", level),
		zap.Int("throws", len(res.Throws)),
		zap.Bool("captured", res.Captured),
	)
	return res
}

// throw runs up to trials throws of item and returns the remaining count.
func (e *Engine) throw(res *Result, item inventory.Item, have, trials, level int) int {
	p := SuccessProbability(item, level)
	for i := 0; i < trials && have > 0; i++ {
		if res.Captured && e.cfg.Mode == ModeStopOnSuccess {
			break
		}
		have--
		ok := e.src.Bernoulli(p)
		res.Throws = append(res.Throws, Throw{Item: item, Success: ok})
		if ok {
			res.Captured = true
		}
		e.logger.Debug("ball thrown",
			zap.String("item", string(item)),
			zap.Float64("probability", p),
			zap.Bool("success", ok),
		)
	}
	return have
}
