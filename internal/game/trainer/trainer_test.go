package trainer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/species"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestGenerate_OwnsCreaturesAtItsLocation(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	rapid.Check(t, func(rt *rapid.T) {
		src := random.NewSource(rapid.Uint64().Draw(rt, "seed"))
		tr, owned, err := trainer.Generate(src, creature.NewFactory(reg, src), now)
		require.NoError(rt, err)
		assert.False(rt, tr.IsUser())
		assert.NotEmpty(rt, owned)
		assert.NoError(rt, tr.Bag.Validate())
		assert.Contains(rt, trainer.Factions, tr.Faction)
		assert.GreaterOrEqual(rt, tr.Age, 15)
		assert.False(rt, tr.JoinedOn.After(now))
		for _, c := range owned {
			assert.Equal(rt, creature.TrainerOwner(tr.ID), c.Owner)
			assert.Equal(rt, tr.Location, c.Location)
		}
	})
}

func TestGenerate_CreatureCountFromDraw(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	// age, joined, bag x4, creature count, then per-creature draws.
	src := &random.Script{ChiSquares: []float64{1, 1, 1, 1, 1, 1, 2.7, 2}}
	_, owned, err := trainer.Generate(src, creature.NewFactory(reg, src), now)
	require.NoError(t, err)
	assert.Len(t, owned, 3)
}

func TestRandomBag_Formula(t *testing.T) {
	src := &random.Script{ChiSquares: []float64{2, 1.6, 1, 0.9}}
	assert.Equal(t, inventory.Bag{Pokeball: 10, Greatball: 3, Revive: 3, Lure: 0}, trainer.RandomBag(src))
}

func TestNewUser(t *testing.T) {
	u, err := trainer.NewUser(random.NewSource(1), 7, now)
	require.NoError(t, err)
	assert.True(t, u.IsUser())
	assert.Equal(t, inventory.Bag{}, u.Bag)
	assert.Equal(t, 0.0, u.Points)
	assert.Equal(t, now, u.JoinedOn)

	_, err = trainer.NewUser(random.NewSource(1), 0, now)
	assert.ErrorIs(t, err, trainer.ErrInvalidWorker)
}
