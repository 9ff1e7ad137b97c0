package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/game/battle"
	"github.com/cory-johannsen/pokestack/internal/game/capture"
	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/species"
)

func newSimulator(t *testing.T, src random.Source, level int) simulator {
	t.Helper()
	reg, err := species.Default()
	require.NoError(t, err)
	factory := creature.NewFactory(reg, src)
	return simulator{
		factory: factory,
		battle:  battle.NewEngine(src, zap.NewNop()),
		capture: capture.NewEngine(capture.DefaultConfig(), src, zap.NewNop()),
		teams:   battle.TeamBuilder{RosterSize: 3, Pad: battle.PadNone},
		size:    3,
		level:   level,
	}
}

func TestSimulator_Battles(t *testing.T) {
	sim := newSimulator(t, random.NewSource(42), 30)
	wins, err := sim.battles(20)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, wins, 0)
	assert.LessOrEqual(t, wins, 20)
}

func TestSimulator_Captures_AlwaysSucceed(t *testing.T) {
	src := &random.Script{Bernoullis: []bool{true}}
	sim := newSimulator(t, src, 10)
	caught, err := sim.captures(5)
	require.NoError(t, err)
	assert.Equal(t, 5, caught)
}

func TestRatio(t *testing.T) {
	assert.Zero(t, ratio(3, 0))
	assert.InDelta(t, 0.25, ratio(1, 4), 1e-12)
}
