package gameserver_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pokestack/internal/config"
	"github.com/cory-johannsen/pokestack/internal/game/capture"
	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
	"github.com/cory-johannsen/pokestack/internal/gameserver"
	"github.com/cory-johannsen/pokestack/internal/storage"
	"github.com/cory-johannsen/pokestack/internal/storage/storagetest"
)

func TestCapture_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &random.Script{Bernoullis: []bool{true}}, nil)
	tr := f.addTrainer(t, storagetest.East(3))
	wild := storagetest.NewCreature(10, creature.Free, storagetest.Origin)
	f.addCreatures(t, wild)

	out, err := f.svc.Capture(ctx, tr.ID, wild.ID)
	require.NoError(t, err)
	assert.True(t, out.Captured)
	// throw_all spends the whole budget: 5 pokeballs and 1 greatball.
	assert.Len(t, out.Throws, 6)
	assert.Equal(t, inventory.Bag{Revive: 2, Lure: 1}, out.Bag)

	got, err := f.store.GetCreature(ctx, wild.ID)
	require.NoError(t, err)
	assert.Equal(t, creature.TrainerOwner(tr.ID), got.Owner)
	assert.Equal(t, tr.Location, got.Location)

	saved, err := f.store.GetTrainer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Bag, saved.Bag)
	assert.Equal(t, 1, f.logs.FilterMessage("capture").Len())
}

func TestCapture_FailedSaveLeavesCreatureFree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &random.Script{Bernoullis: []bool{true}}, nil)
	tr := storagetest.NewTrainer(storagetest.Origin)
	wild := storagetest.NewCreature(10, creature.Free, storagetest.East(1))
	f.addCreatures(t, wild)
	f.vanish(t, tr)

	_, err := f.svc.Capture(ctx, tr.ID, wild.ID)
	require.ErrorIs(t, err, storage.ErrTrainerNotFound)

	got, err := f.store.GetCreature(ctx, wild.ID)
	require.NoError(t, err)
	assert.True(t, got.Owner.IsFree())
}

func TestCapture_Failure_KeepsCreatureFree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &random.Script{Bernoullis: []bool{false}}, nil)
	tr := f.addTrainer(t, storagetest.Origin)
	wild := storagetest.NewCreature(10, creature.Free, storagetest.East(1))
	f.addCreatures(t, wild)

	out, err := f.svc.Capture(ctx, tr.ID, wild.ID)
	require.NoError(t, err)
	assert.False(t, out.Captured)
	assert.Zero(t, out.Bag.Balls())

	got, err := f.store.GetCreature(ctx, wild.ID)
	require.NoError(t, err)
	assert.True(t, got.Owner.IsFree())
	assert.Equal(t, wild.Location, got.Location)
}

func TestCapture_StopOnSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &random.Script{Bernoullis: []bool{true}}, func(c *config.GameConfig) {
		c.CaptureMode = string(capture.ModeStopOnSuccess)
	})
	tr := f.addTrainer(t, storagetest.Origin)
	wild := storagetest.NewCreature(10, creature.Free, storagetest.Origin)
	f.addCreatures(t, wild)

	out, err := f.svc.Capture(ctx, tr.ID, wild.ID)
	require.NoError(t, err)
	assert.True(t, out.Captured)
	assert.Len(t, out.Throws, 1)
	assert.Equal(t, 4, out.Bag.Pokeball)
	assert.Equal(t, 1, out.Bag.Greatball)
}

func TestCapture_NoBalls(t *testing.T) {
	ctx := context.Background()
	src := &random.Script{Bernoullis: []bool{true}}
	f := newFixture(t, src, nil)
	tr := storagetest.NewTrainer(storagetest.Origin)
	tr.Bag = inventory.Bag{Revive: 1}
	require.NoError(t, f.store.InsertTrainer(ctx, tr))
	wild := storagetest.NewCreature(3, creature.Free, storagetest.Origin)
	f.addCreatures(t, wild)

	out, err := f.svc.Capture(ctx, tr.ID, wild.ID)
	require.NoError(t, err)
	assert.False(t, out.Captured)
	assert.Empty(t, out.Throws)
	assert.Zero(t, src.Calls(random.KindBernoulli))
}

func TestCapture_AlreadyOwned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &random.Script{Bernoullis: []bool{true}}, nil)
	tr := f.addTrainer(t, storagetest.Origin)
	held := storagetest.NewCreature(10, creature.StadiumOwner("s1"), storagetest.Origin)
	f.addCreatures(t, held)

	_, err := f.svc.Capture(ctx, tr.ID, held.ID)
	assert.ErrorIs(t, err, gameserver.ErrAlreadyOwned)

	saved, err := f.store.GetTrainer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.Bag, saved.Bag)
}

func TestCapture_Concurrent_SingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &random.Script{Bernoullis: []bool{true}}, nil)
	wild := storagetest.NewCreature(10, creature.Free, storagetest.Origin)
	f.addCreatures(t, wild)

	const n = 6
	trainers := make([]*trainer.Trainer, n)
	for i := range trainers {
		trainers[i] = f.addTrainer(t, storagetest.Origin)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	captured := make([]bool, n)
	for i, tr := range trainers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.svc.Capture(ctx, tr.ID, wild.ID)
			errs[i], captured[i] = err, out.Captured
		}()
	}
	wg.Wait()

	winners := 0
	for i := range trainers {
		if captured[i] {
			winners++
			continue
		}
		assert.True(t, errors.Is(errs[i], gameserver.ErrAlreadyOwned), "trainer %d: %v", i, errs[i])
	}
	assert.Equal(t, 1, winners)
}
