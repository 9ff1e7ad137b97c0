package stadium_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/species"
	"github.com/cory-johannsen/pokestack/internal/game/stadium"
)

func TestRandomItems_Formula(t *testing.T) {
	src := &random.Script{Bernoullis: []bool{true, true}, ChiSquares: []float64{2, 4, 3.5}}
	assert.Equal(t, inventory.Bag{Pokeball: 6, Lure: 2, Greatball: 1, Revive: 3}, stadium.RandomItems(src))
}

func TestGeneratePokestop(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := stadium.GeneratePokestop(random.NewSource(rapid.Uint64().Draw(rt, "seed")))
		assert.NotEmpty(rt, p.ID)
		assert.GreaterOrEqual(rt, p.HeightMeters, 0.0)
		assert.GreaterOrEqual(rt, p.RadiusMeters, 0.0)
		assert.NoError(rt, p.Items.Validate())
		assert.LessOrEqual(rt, p.Items.Lure, 2)
	})
}

func TestGenerate_GarrisonHeldByStadium(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	// garrison count draw: trunc(6/2.5) = 2.
	src := &random.Script{ChiSquares: []float64{6, 2}}
	s, garrison, err := stadium.Generate(src, creature.NewFactory(reg, src))
	require.NoError(t, err)
	require.Len(t, garrison, 2)
	assert.Empty(t, s.OwnerID)
	assert.InDelta(t, 20.0, s.Points, 1e-9)
	for _, c := range garrison {
		assert.Equal(t, creature.StadiumOwner(s.ID), c.Owner)
		assert.Equal(t, s.Location, c.Location)
	}
}

func TestCollect_AddsPositiveCountsOnly(t *testing.T) {
	bag := inventory.Bag{Pokeball: 1, Revive: 2}
	items := inventory.Bag{Pokeball: 3, Greatball: 0, Lure: 1}
	assert.Equal(t, inventory.Bag{Pokeball: 4, Revive: 2, Lure: 1}, stadium.Collect(bag, items))
}

func TestRandomItem(t *testing.T) {
	assert.Equal(t, inventory.Greatball, stadium.RandomItem(&random.Script{Ints: []int{1}}))
}
