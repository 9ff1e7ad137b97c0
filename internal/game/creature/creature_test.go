package creature_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/species"
	"github.com/cory-johannsen/pokestack/internal/game/stats"
)

func newFactory(t testing.TB, src random.Source) *creature.Factory {
	reg, err := species.Default()
	require.NoError(t, err)
	return creature.NewFactory(reg, src)
}

func TestCreate_BySpeciesID(t *testing.T) {
	f := newFactory(t, random.NewSource(1))
	c, err := f.Create(creature.Options{SpeciesID: 25, Level: 30})
	require.NoError(t, err)
	assert.Equal(t, 25, c.SpeciesID)
	assert.Equal(t, "Pikachu", c.Name)
	assert.Equal(t, 30, c.Level)
	assert.Equal(t, float64(c.Stats[stats.HP]), c.CurrentHP)
	_, err = uuid.Parse(c.ID)
	assert.NoError(t, err)
	assert.True(t, c.Owner.IsFree())
}

func TestCreate_ByName(t *testing.T) {
	f := newFactory(t, random.NewSource(2))
	c, err := f.Create(creature.Options{SpeciesName: "charmander"})
	require.NoError(t, err)
	assert.Equal(t, 4, c.SpeciesID)
}

func TestCreate_UnknownName(t *testing.T) {
	f := newFactory(t, random.NewSource(3))
	_, err := f.Create(creature.Options{SpeciesName: "Pikachoo"})
	assert.ErrorIs(t, err, species.ErrUnknownSpecies)
	assert.Contains(t, err.Error(), "Pikachu")
}

func TestCreate_UnknownID(t *testing.T) {
	f := newFactory(t, random.NewSource(3))
	_, err := f.Create(creature.Options{SpeciesID: 9999})
	assert.ErrorIs(t, err, species.ErrUnknownSpecies)
}

func TestCreate_RejectsLevelOutOfRange(t *testing.T) {
	f := newFactory(t, random.NewSource(3))
	_, err := f.Create(creature.Options{SpeciesID: 1, Level: 101})
	assert.Error(t, err)
}

func TestCreate_UsesGivenLocationAndOwner(t *testing.T) {
	f := newFactory(t, random.NewSource(4))
	loc := geo.Point{Lng: 12.5, Lat: -33}
	c, err := f.Create(creature.Options{SpeciesID: 1, Location: &loc, Owner: creature.TrainerOwner("t-1")})
	require.NoError(t, err)
	assert.Equal(t, loc, c.Location)
	assert.Equal(t, creature.OwnerTrainer, c.Owner.Kind)
	assert.Equal(t, "t-1", c.Owner.ID)
}

func TestCreate_ScriptedSpeciesPick(t *testing.T) {
	// Intn draws: species, form, then nature.
	src := &random.Script{Ints: []int{24, 0, 0}, ChiSquares: []float64{4}}
	f := newFactory(t, src)
	c, err := f.Create(creature.Options{})
	require.NoError(t, err)
	assert.Equal(t, 25, c.SpeciesID)
	assert.Equal(t, 20, c.Level)
	assert.Equal(t, stats.Natures[0].Name, c.Nature)
}

func TestRandomLevel_Clamped(t *testing.T) {
	assert.Equal(t, 1, creature.RandomLevel(&random.Script{ChiSquares: []float64{0}}))
	assert.Equal(t, 100, creature.RandomLevel(&random.Script{ChiSquares: []float64{500}}))
	assert.Equal(t, 13, creature.RandomLevel(&random.Script{ChiSquares: []float64{2.5}}))
}

func TestCreate_InvariantsHold(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		f := creature.NewFactory(reg, random.NewSource(seed))
		c, err := f.Create(creature.Options{})
		require.NoError(rt, err)
		assert.GreaterOrEqual(rt, c.Level, 1)
		assert.LessOrEqual(rt, c.Level, stats.MaxLevel)
		assert.LessOrEqual(rt, c.EVs.Sum(), stats.MaxEVTotal)
		for i := range c.IVs {
			assert.GreaterOrEqual(rt, c.IVs[i], 0)
			assert.LessOrEqual(rt, c.IVs[i], stats.MaxIV)
			assert.Greater(rt, c.Stats[i], 0)
		}
		forms, err := reg.Forms(c.SpeciesID)
		require.NoError(rt, err)
		assert.Contains(rt, forms, c.Form)
	})
}

func TestRederive_MatchesCreate(t *testing.T) {
	f := newFactory(t, random.NewSource(9))
	c, err := f.Create(creature.Options{SpeciesID: 6})
	require.NoError(t, err)
	want := c.Stats
	c.Stats = stats.Block{}
	c.CurrentHP = 0
	require.NoError(t, f.Rederive(c))
	assert.Equal(t, want, c.Stats)
	assert.Equal(t, float64(want[stats.HP]), c.CurrentHP)
}

func TestApplyDamage_FloorsAtZero(t *testing.T) {
	c := &creature.Creature{CurrentHP: 10}
	c.ApplyDamage(4.5)
	assert.InDelta(t, 5.5, c.CurrentHP, 1e-9)
	c.ApplyDamage(100)
	assert.Equal(t, 0.0, c.CurrentHP)
	assert.True(t, c.IsFainted())
}

func TestClone_IsIndependent(t *testing.T) {
	c := &creature.Creature{ID: "a", CurrentHP: 10}
	cp := c.Clone()
	cp.ApplyDamage(3)
	assert.Equal(t, 10.0, c.CurrentHP)
}

func TestOwnerKind_RoundTrip(t *testing.T) {
	for _, k := range []creature.OwnerKind{creature.OwnerNone, creature.OwnerTrainer, creature.OwnerStadium} {
		assert.Equal(t, k, creature.ParseOwnerKind(k.String()))
	}
}
