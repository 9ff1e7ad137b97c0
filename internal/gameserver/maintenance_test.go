package gameserver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/stats"
	"github.com/cory-johannsen/pokestack/internal/gameserver"
	"github.com/cory-johannsen/pokestack/internal/storage/storagetest"
)

func TestCull_FreeOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, random.NewSource(11), nil)
	held := storagetest.NewCreature(5, creature.TrainerOwner("t1"), storagetest.Origin)
	f.addCreatures(t, held)
	for i := range 3 {
		f.addCreatures(t, storagetest.NewCreature(5, creature.Free, storagetest.East(float64(i+1))))
	}

	origin := storagetest.Origin
	removed, err := f.svc.Cull(ctx, 2, &origin)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	n, err := f.svc.CountCreatures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	removed, err = f.svc.Cull(ctx, 0, &origin)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	_, err = f.store.GetCreature(ctx, held.ID)
	assert.NoError(t, err, "held creatures survive culling")
}

func TestLevelUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, random.NewSource(11), nil)
	origin := storagetest.Origin

	young, err := f.svc.Factory().Create(creature.Options{SpeciesName: "Bulbasaur", Level: 5, Location: &origin})
	require.NoError(t, err)
	capped, err := f.svc.Factory().Create(creature.Options{Level: stats.MaxLevel, Location: &origin})
	require.NoError(t, err)
	f.addCreatures(t, young, capped)

	raised, err := f.svc.LevelUp(ctx, 0, &origin)
	require.NoError(t, err)
	require.Len(t, raised, 1)
	assert.Equal(t, young.ID, raised[0].ID)

	got, err := f.store.GetCreature(ctx, young.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Level)
	assert.GreaterOrEqual(t, got.Stats[stats.HP], young.Stats[stats.HP])
	assert.Equal(t, float64(got.Stats[stats.HP]), got.CurrentHP)

	got, err = f.store.GetCreature(ctx, capped.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.MaxLevel, got.Level)
}

func TestPopulation_Scale(t *testing.T) {
	p := gameserver.Population{Creatures: 10, Pokestops: 3, Stadiums: 2, Trainers: 1}.Scale(3)
	assert.Equal(t, gameserver.Population{Creatures: 30, Pokestops: 9, Stadiums: 6, Trainers: 3}, p)
}

func TestPopulate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, random.NewSource(11), nil)
	p := gameserver.Population{Creatures: 25, Pokestops: 4, Stadiums: 3, Trainers: 2}

	stored, err := f.svc.Populate(ctx, p)
	require.NoError(t, err)
	// Every trainer carries at least one creature.
	assert.GreaterOrEqual(t, stored, p.Creatures+p.Trainers)

	n, err := f.svc.CountCreatures(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, n)

	stops, err := f.store.SamplePokestops(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, stops, p.Pokestops)

	populated := f.logs.FilterMessage("world populated").All()
	require.Len(t, populated, 1)
	assert.Equal(t, int64(stored), populated[0].ContextMap()["creatures"])
}
