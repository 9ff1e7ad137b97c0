package gameserver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/stadium"
	"github.com/cory-johannsen/pokestack/internal/gameserver"
	"github.com/cory-johannsen/pokestack/internal/storage"
	"github.com/cory-johannsen/pokestack/internal/storage/storagetest"
)

func TestCollectItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, random.NewSource(5), nil)
	u := f.addUser(t, storagetest.Origin)
	st := storagetest.NewStadium(storagetest.Origin)
	require.NoError(t, f.store.InsertStadium(ctx, st))

	bag, err := f.svc.CollectItems(ctx, u.ID, st.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Bag.Add(st.Items), bag)

	saved, err := f.store.GetTrainer(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, bag, saved.Bag)

	kept, err := f.store.GetStadium(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.Items, kept.Items, "the stadium keeps its items")

	_, err = f.svc.CollectItems(ctx, u.ID, "nowhere")
	assert.ErrorIs(t, err, storage.ErrStadiumNotFound)
}

func TestCollectPokestop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, random.NewSource(5), nil)
	u := f.addUser(t, storagetest.Origin)
	p := storagetest.NewPokestop(storagetest.Origin)
	require.NoError(t, f.store.InsertPokestops(ctx, []*stadium.Pokestop{p}))

	bag, err := f.svc.CollectPokestop(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.Bag{Pokeball: 7, Greatball: 1, Revive: 3, Lure: 1}, bag)

	_, err = f.svc.CollectPokestop(ctx, u.ID, "nowhere")
	assert.ErrorIs(t, err, storage.ErrPokestopNotFound)
}

func TestDropItems_FloorsAtZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, random.NewSource(5), nil)
	u := f.addUser(t, storagetest.Origin)

	bag, err := f.svc.DropItems(ctx, u.ID, inventory.Bag{Pokeball: 10, Revive: 1})
	require.NoError(t, err)
	assert.Equal(t, inventory.Bag{Greatball: 1, Revive: 1, Lure: 1}, bag)

	npc := f.addTrainer(t, storagetest.Origin)
	_, err = f.svc.DropItems(ctx, npc.ID, inventory.Bag{Pokeball: 1})
	assert.ErrorIs(t, err, gameserver.ErrNotAUser)
}

func TestLure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, random.NewSource(5), nil)
	u := f.addUser(t, storagetest.Origin)
	p := storagetest.NewPokestop(storagetest.East(20))
	require.NoError(t, f.store.InsertPokestops(ctx, []*stadium.Pokestop{p}))

	out, err := f.svc.Lure(ctx, u.ID, p.ID, 3)
	require.NoError(t, err)
	assert.Zero(t, out.Bag.Lure)
	require.Len(t, out.Spawned, 3)
	for _, c := range out.Spawned {
		assert.True(t, c.Owner.IsFree())
		assert.LessOrEqual(t, geo.Distance(p.Location, c.Location), f.cfg.LureRadiusMeters*1.01)
		stored, err := f.store.GetCreature(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Level, stored.Level)
	}

	// A second lure with an empty lure counter still spawns.
	out, err = f.svc.Lure(ctx, u.ID, p.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, out.Bag.Lure)
	assert.Len(t, out.Spawned, gameserver.DefaultLureCount)

	n, err := f.svc.CountCreatures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3+gameserver.DefaultLureCount, n)
}

func TestImprovePokestops(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, random.NewSource(5), nil)
	before := make(map[string]inventory.Bag)
	var stops []*stadium.Pokestop
	for i := range 4 {
		p := storagetest.NewPokestop(storagetest.East(float64(i)))
		before[p.ID] = p.Items
		stops = append(stops, p)
	}
	require.NoError(t, f.store.InsertPokestops(ctx, stops))

	out, err := f.svc.ImprovePokestops(ctx, 2)
	require.NoError(t, err)
	require.Len(t, out.Pokestops, 2)
	assert.Contains(t, inventory.Items, out.Item)

	improved := make(map[string]bool)
	for _, p := range out.Pokestops {
		improved[p.ID] = true
		assert.Equal(t, before[p.ID].Count(out.Item)+1, p.Items.Count(out.Item))
	}
	for id, items := range before {
		got, err := f.store.GetPokestop(ctx, id)
		require.NoError(t, err)
		want := items.Count(out.Item)
		if improved[id] {
			want++
		}
		assert.Equal(t, want, got.Items.Count(out.Item), "pokestop %s", id)
	}
}
