package capture_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pokestack/internal/game/capture"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/random"
)

func newEngine(mode capture.Mode, src random.Source) *capture.Engine {
	cfg := capture.DefaultConfig()
	cfg.Mode = mode
	return capture.NewEngine(cfg, src, zap.NewNop())
}

func TestAttempt_NoBallsLeavesBagUnchanged(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 100).Draw(rt, "level")
		src := &random.Script{Bernoullis: []bool{true}}
		bag := inventory.Bag{Revive: 3, Lure: 1}
		res := newEngine(capture.ModeThrowAll, src).Attempt(bag, level)
		assert.False(rt, res.Captured)
		assert.Equal(rt, bag, res.Bag)
		assert.Empty(rt, res.Throws)
		assert.Equal(rt, 0, src.Calls(random.KindBernoulli))
	})
}

func TestAttempt_ThrowAllEmptiesFullBudget(t *testing.T) {
	for _, outcome := range []bool{true, false} {
		src := &random.Script{Bernoullis: []bool{outcome}}
		res := newEngine(capture.ModeThrowAll, src).Attempt(inventory.Bag{Pokeball: 10, Greatball: 2}, 50)
		assert.Equal(t, 0, res.Bag.Pokeball)
		assert.Equal(t, 0, res.Bag.Greatball)
		assert.Equal(t, outcome, res.Captured)
		assert.Len(t, res.Throws, 12)
	}
}

func TestAttempt_ThrowAllSuccessIsSticky(t *testing.T) {
	// First throw succeeds, every later one fails.
	src := &random.Script{Bernoullis: []bool{true, false}}
	res := newEngine(capture.ModeThrowAll, src).Attempt(inventory.Bag{Pokeball: 3}, 10)
	assert.True(t, res.Captured)
	assert.Equal(t, 0, res.Bag.Pokeball)
}

func TestAttempt_ThrowAllRespectsTrialBudget(t *testing.T) {
	src := &random.Script{Bernoullis: []bool{false}}
	res := newEngine(capture.ModeThrowAll, src).Attempt(inventory.Bag{Pokeball: 15, Greatball: 5}, 10)
	assert.Equal(t, 5, res.Bag.Pokeball)
	assert.Equal(t, 3, res.Bag.Greatball)
}

func TestAttempt_StopOnSuccessKeepsRemainingBalls(t *testing.T) {
	src := &random.Script{Bernoullis: []bool{false, false, true}}
	res := newEngine(capture.ModeStopOnSuccess, src).Attempt(inventory.Bag{Pokeball: 10, Greatball: 2}, 10)
	assert.True(t, res.Captured)
	assert.Equal(t, 7, res.Bag.Pokeball)
	assert.Equal(t, 2, res.Bag.Greatball)
	assert.Len(t, res.Throws, 3)
}

func TestAttempt_GreatballsAfterPokeballs(t *testing.T) {
	src := &random.Script{Bernoullis: []bool{false, false, true}}
	res := newEngine(capture.ModeStopOnSuccess, src).Attempt(inventory.Bag{Pokeball: 2, Greatball: 2}, 10)
	assert.True(t, res.Captured)
	assert.Equal(t, inventory.Greatball, res.Throws[2].Item)
	assert.Equal(t, 1, res.Bag.Greatball)
}

func TestAttempt_NeverAddsBalls(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		bag := inventory.Bag{
			Pokeball:  rapid.IntRange(0, 20).Draw(rt, "pokeball"),
			Greatball: rapid.IntRange(0, 5).Draw(rt, "greatball"),
		}
		mode := rapid.SampledFrom([]capture.Mode{capture.ModeThrowAll, capture.ModeStopOnSuccess}).Draw(rt, "mode")
		seed := rapid.Uint64().Draw(rt, "seed")
		res := newEngine(mode, random.NewSource(seed)).Attempt(bag, rapid.IntRange(1, 100).Draw(rt, "level"))
		assert.LessOrEqual(rt, res.Bag.Pokeball, bag.Pokeball)
		assert.LessOrEqual(rt, res.Bag.Greatball, bag.Greatball)
		assert.GreaterOrEqual(rt, res.Bag.Pokeball, 0)
		assert.GreaterOrEqual(rt, res.Bag.Greatball, 0)
		assert.Equal(rt, (bag.Pokeball-res.Bag.Pokeball)+(bag.Greatball-res.Bag.Greatball), len(res.Throws))
	})
}

func TestSuccessProbability(t *testing.T) {
	assert.InDelta(t, 0.5, capture.SuccessProbability(inventory.Pokeball, 60), 1e-9)
	assert.InDelta(t, 0.5, capture.SuccessProbability(inventory.Greatball, 110), 1e-9)
	assert.Equal(t, 0.0, capture.SuccessProbability(inventory.Pokeball, 200))
}

func TestParseMode(t *testing.T) {
	m, err := capture.ParseMode("stop_on_success")
	assert.NoError(t, err)
	assert.Equal(t, capture.ModeStopOnSuccess, m)
	_, err = capture.ParseMode("sometimes")
	assert.Error(t, err)
}
