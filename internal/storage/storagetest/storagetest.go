// Package storagetest runs one behavioral suite against any storage.Store
// implementation.
package storagetest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
	"github.com/cory-johannsen/pokestack/internal/game/stadium"
	"github.com/cory-johannsen/pokestack/internal/game/stats"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

// Factory returns an empty, migrated store for one subtest.
type Factory func(t *testing.T) storage.Store

// Origin is the center of every fixture area.
var Origin = geo.Point{Lng: 0, Lat: 0}

// East returns a point on the equator about km kilometers east of Origin.
func East(km float64) geo.Point {
	return geo.Point{Lng: km * 1000 / geo.EarthRadiusMeters * 180 / math.Pi, Lat: 0}
}

// NewCreature returns a valid creature fixture.
func NewCreature(level int, owner creature.Owner, loc geo.Point) *creature.Creature {
	c := &creature.Creature{
		ID:        uuid.New().String(),
		SpeciesID: 25,
		Name:      "Pikachu",
		Form:      "Normal",
		Nature:    "Hardy",
		Level:     level,
		IVs:       stats.Block{15, 1, 2, 3, 4, 5},
		EVs:       stats.Block{10, 20, 30, 40, 50, 60},
		Stats:     stats.Block{35 + level, 20, 20, 20, 20, 30},
		Owner:     owner,
		Location:  loc,
	}
	c.ResetHP()
	return c
}

// NewTrainer returns a non-player trainer fixture.
func NewTrainer(loc geo.Point) *trainer.Trainer {
	return &trainer.Trainer{
		ID:       uuid.New().String(),
		Name:     "Trainer Red",
		Faction:  "Red",
		Age:      17,
		JoinedOn: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Location: loc,
		Bag:      inventory.Bag{Pokeball: 5, Greatball: 1, Revive: 2, Lure: 1},
		Points:   12.5,
	}
}

// NewStadium returns an unowned stadium fixture.
func NewStadium(loc geo.Point) *stadium.Stadium {
	id := uuid.New().String()
	return &stadium.Stadium{
		Pokestop: stadium.Pokestop{
			ID:           id,
			Name:         "Stadium " + id[:8],
			Location:     loc,
			HeightMeters: 12,
			RadiusMeters: 4,
			Items:        inventory.Bag{Pokeball: 3},
		},
		Points: 40,
	}
}

// NewPokestop returns a pokestop fixture.
func NewPokestop(loc geo.Point) *stadium.Pokestop {
	id := uuid.New().String()
	return &stadium.Pokestop{
		ID:           id,
		Name:         "Pokestop " + id[:8],
		Location:     loc,
		HeightMeters: 8,
		RadiusMeters: 3,
		Items:        inventory.Bag{Pokeball: 2, Revive: 1},
	}
}

func creatureIDs(cs []*creature.Creature) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

// Run executes the suite, calling newStore once per subtest.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("creature round trip", func(t *testing.T) {
		s := newStore(t)
		c := NewCreature(42, creature.TrainerOwner("t1"), East(1))
		require.NoError(t, s.InsertCreatures(ctx, []*creature.Creature{c}))

		got, err := s.GetCreature(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.Equal(t, float64(c.Stats[stats.HP]), got.CurrentHP)
	})

	t.Run("missing creature", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetCreature(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrCreatureNotFound)
	})

	t.Run("creatures by owner strongest first", func(t *testing.T) {
		s := newStore(t)
		owner := creature.TrainerOwner("t1")
		a := NewCreature(10, owner, Origin)
		b := NewCreature(30, owner, Origin)
		c := NewCreature(10, owner, Origin)
		other := NewCreature(99, creature.StadiumOwner("s1"), Origin)
		free := NewCreature(50, creature.Free, Origin)
		require.NoError(t, s.InsertCreatures(ctx, []*creature.Creature{a, b, c, other, free}))

		got, err := s.CreaturesByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, []string{b.ID, a.ID, c.ID}, creatureIDs(got))

		wild, err := s.CreaturesByOwner(ctx, creature.Free)
		require.NoError(t, err)
		assert.Equal(t, []string{free.ID}, creatureIDs(wild))

		none, err := s.CreaturesByOwner(ctx, creature.TrainerOwner("nobody"))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("nearby creatures closest first", func(t *testing.T) {
		s := newStore(t)
		far := NewCreature(5, creature.Free, East(20))
		mid := NewCreature(5, creature.TrainerOwner("t1"), East(5))
		near := NewCreature(80, creature.Free, East(1))
		require.NoError(t, s.InsertCreatures(ctx, []*creature.Creature{far, mid, near}))

		got, err := s.NearbyCreatures(ctx, storage.Area{Center: Origin, Radius: 10000}, storage.CreatureFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{near.ID, mid.ID}, creatureIDs(got))

		got, err = s.NearbyCreatures(ctx, storage.Area{Center: Origin, Limit: 1}, storage.CreatureFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{near.ID}, creatureIDs(got))

		got, err = s.NearbyCreatures(ctx, storage.Area{Center: Origin}, storage.CreatureFilter{FreeOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []string{near.ID, far.ID}, creatureIDs(got))

		got, err = s.NearbyCreatures(ctx, storage.Area{Center: Origin}, storage.CreatureFilter{BelowLevel: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{mid.ID, far.ID}, creatureIDs(got))
	})

	t.Run("place creatures is atomic", func(t *testing.T) {
		s := newStore(t)
		c := NewCreature(5, creature.Free, Origin)
		require.NoError(t, s.InsertCreatures(ctx, []*creature.Creature{c}))

		err := s.PlaceCreatures(ctx, []storage.Placement{
			{ID: c.ID, Owner: creature.TrainerOwner("t1"), Location: East(3)},
			{ID: "missing", Owner: creature.TrainerOwner("t1"), Location: East(3)},
		})
		require.ErrorIs(t, err, storage.ErrCreatureNotFound)
		got, err := s.GetCreature(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, got.Owner.IsFree())

		require.NoError(t, s.PlaceCreatures(ctx, []storage.Placement{
			{ID: c.ID, Owner: creature.StadiumOwner("s1"), Location: East(3)},
		}))
		got, err = s.GetCreature(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, creature.StadiumOwner("s1"), got.Owner)
		assert.Equal(t, East(3), got.Location)
	})

	t.Run("growth update", func(t *testing.T) {
		s := newStore(t)
		c := NewCreature(5, creature.Free, Origin)
		require.NoError(t, s.InsertCreatures(ctx, []*creature.Creature{c}))

		c.Level = 6
		c.EVs = stats.Block{1, 1, 1, 1, 1, 1}
		c.Stats = stats.Block{50, 21, 21, 21, 21, 31}
		require.NoError(t, s.UpdateCreatureGrowth(ctx, []*creature.Creature{c}))

		got, err := s.GetCreature(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Level)
		assert.Equal(t, c.EVs, got.EVs)
		assert.Equal(t, c.Stats, got.Stats)
		assert.Equal(t, 50.0, got.CurrentHP)

		missing := NewCreature(5, creature.Free, Origin)
		assert.ErrorIs(t, s.UpdateCreatureGrowth(ctx, []*creature.Creature{missing}), storage.ErrCreatureNotFound)
	})

	t.Run("delete and count", func(t *testing.T) {
		s := newStore(t)
		a := NewCreature(5, creature.Free, Origin)
		b := NewCreature(5, creature.Free, Origin)
		require.NoError(t, s.InsertCreatures(ctx, []*creature.Creature{a, b}))

		n, err := s.CountCreatures(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		removed, err := s.DeleteCreatures(ctx, []string{a.ID, "missing"})
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		n, err = s.CountCreatures(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		removed, err = s.DeleteCreatures(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("trainer round trip", func(t *testing.T) {
		s := newStore(t)
		tr := NewTrainer(East(2))
		require.NoError(t, s.InsertTrainer(ctx, tr))

		got, err := s.GetTrainer(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, tr.Name, got.Name)
		assert.Equal(t, tr.Faction, got.Faction)
		assert.Equal(t, tr.Age, got.Age)
		assert.True(t, tr.JoinedOn.Equal(got.JoinedOn))
		assert.Equal(t, tr.Location, got.Location)
		assert.Equal(t, tr.Bag, got.Bag)
		assert.Equal(t, tr.Points, got.Points)
		assert.False(t, got.IsUser())

		_, err = s.GetTrainer(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrTrainerNotFound)
	})

	t.Run("find or create user is idempotent", func(t *testing.T) {
		s := newStore(t)
		first := NewTrainer(Origin)
		first.WorkerNum = 7
		got, err := s.FindOrCreateUser(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, 7, got.WorkerNum)

		second := NewTrainer(East(9))
		second.WorkerNum = 7
		again, err := s.FindOrCreateUser(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, Origin, again.Location)
	})

	t.Run("save trainer", func(t *testing.T) {
		s := newStore(t)
		tr := NewTrainer(Origin)
		require.NoError(t, s.InsertTrainer(ctx, tr))

		tr.Bag = inventory.Bag{Pokeball: 1}
		tr.Points = 99
		tr.Location = East(4)
		require.NoError(t, s.SaveTrainer(ctx, tr))

		got, err := s.GetTrainer(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, tr.Bag, got.Bag)
		assert.Equal(t, 99.0, got.Points)
		assert.Equal(t, East(4), got.Location)

		assert.ErrorIs(t, s.SaveTrainer(ctx, NewTrainer(Origin)), storage.ErrTrainerNotFound)
	})

	t.Run("nearby trainers skip players", func(t *testing.T) {
		s := newStore(t)
		npc := NewTrainer(East(1))
		far := NewTrainer(East(30))
		user := NewTrainer(East(0.5))
		user.WorkerNum = 1
		require.NoError(t, s.InsertTrainer(ctx, npc))
		require.NoError(t, s.InsertTrainer(ctx, far))
		_, err := s.FindOrCreateUser(ctx, user)
		require.NoError(t, err)

		got, err := s.NearbyTrainers(ctx, storage.Area{Center: Origin, Radius: 10000})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, npc.ID, got[0].ID)
	})

	t.Run("move trainer carries holdings", func(t *testing.T) {
		s := newStore(t)
		tr := NewTrainer(Origin)
		require.NoError(t, s.InsertTrainer(ctx, tr))
		st := NewStadium(Origin)
		st.OwnerID = tr.ID
		require.NoError(t, s.InsertStadium(ctx, st))
		owned := NewCreature(5, creature.TrainerOwner(tr.ID), Origin)
		garrison := NewCreature(5, creature.StadiumOwner(st.ID), Origin)
		bystander := NewCreature(5, creature.Free, Origin)
		require.NoError(t, s.InsertCreatures(ctx, []*creature.Creature{owned, garrison, bystander}))

		dest := East(7)
		require.NoError(t, s.MoveTrainer(ctx, tr.ID, dest))

		gotT, err := s.GetTrainer(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, dest, gotT.Location)
		gotS, err := s.GetStadium(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, dest, gotS.Location)
		for _, id := range []string{owned.ID, garrison.ID} {
			c, err := s.GetCreature(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, dest, c.Location)
		}
		c, err := s.GetCreature(ctx, bystander.ID)
		require.NoError(t, err)
		assert.Equal(t, Origin, c.Location)

		assert.ErrorIs(t, s.MoveTrainer(ctx, "nope", dest), storage.ErrTrainerNotFound)
	})

	t.Run("stadium round trip and save", func(t *testing.T) {
		s := newStore(t)
		st := NewStadium(East(1))
		require.NoError(t, s.InsertStadium(ctx, st))

		got, err := s.GetStadium(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, st, got)

		st.OwnerID = "t1"
		st.Points = 5
		st.Items = inventory.Bag{}
		require.NoError(t, s.SaveStadium(ctx, st))
		got, err = s.GetStadium(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, st, got)

		_, err = s.GetStadium(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrStadiumNotFound)
		assert.ErrorIs(t, s.SaveStadium(ctx, NewStadium(Origin)), storage.ErrStadiumNotFound)
	})

	t.Run("settle is atomic", func(t *testing.T) {
		s := newStore(t)
		tr := NewTrainer(Origin)
		require.NoError(t, s.InsertTrainer(ctx, tr))
		st := NewStadium(East(1))
		require.NoError(t, s.InsertStadium(ctx, st))
		c := NewCreature(5, creature.Free, Origin)
		require.NoError(t, s.InsertCreatures(ctx, []*creature.Creature{c}))

		claim := *st
		claim.OwnerID = tr.ID
		winner := *tr
		winner.Points += st.Points
		placed := []storage.Placement{{ID: c.ID, Owner: creature.StadiumOwner(st.ID), Location: st.Location}}

		ghost := NewTrainer(Origin)
		err := s.Settle(ctx, storage.Settlement{Placements: placed, Stadium: &claim, Trainer: ghost})
		require.ErrorIs(t, err, storage.ErrTrainerNotFound)
		gotC, err := s.GetCreature(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, gotC.Owner.IsFree(), "placements roll back")
		gotS, err := s.GetStadium(ctx, st.ID)
		require.NoError(t, err)
		assert.Empty(t, gotS.OwnerID, "stadium claim rolls back")

		require.NoError(t, s.Settle(ctx, storage.Settlement{Placements: placed, Stadium: &claim, Trainer: &winner}))
		gotC, err = s.GetCreature(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, creature.StadiumOwner(st.ID), gotC.Owner)
		gotS, err = s.GetStadium(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, tr.ID, gotS.OwnerID)
		gotT, err := s.GetTrainer(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, winner.Points, gotT.Points)

		require.NoError(t, s.Settle(ctx, storage.Settlement{}))
	})

	t.Run("nearby stadiums", func(t *testing.T) {
		s := newStore(t)
		near := NewStadium(East(2))
		far := NewStadium(East(40))
		require.NoError(t, s.InsertStadium(ctx, far))
		require.NoError(t, s.InsertStadium(ctx, near))

		got, err := s.NearbyStadiums(ctx, storage.Area{Center: Origin})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, near.ID, got[0].ID)
		assert.Equal(t, far.ID, got[1].ID)
	})

	t.Run("pokestops", func(t *testing.T) {
		s := newStore(t)
		near := NewPokestop(East(1))
		far := NewPokestop(East(15))
		require.NoError(t, s.InsertPokestops(ctx, []*stadium.Pokestop{far, near}))

		got, err := s.GetPokestop(ctx, near.ID)
		require.NoError(t, err)
		assert.Equal(t, near, got)
		_, err = s.GetPokestop(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrPokestopNotFound)

		nearby, err := s.NearbyPokestops(ctx, storage.Area{Center: Origin, Radius: 5000})
		require.NoError(t, err)
		require.Len(t, nearby, 1)
		assert.Equal(t, near.ID, nearby[0].ID)

		sample, err := s.SamplePokestops(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, sample, 1)
		sample, err = s.SamplePokestops(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, sample, 2)

		require.NoError(t, s.AddPokestopItem(ctx, []string{near.ID}, inventory.Lure))
		got, err = s.GetPokestop(ctx, near.ID)
		require.NoError(t, err)
		assert.Equal(t, near.Items.Lure+1, got.Items.Lure)
		assert.Equal(t, near.Items.Pokeball, got.Items.Pokeball)

		assert.Error(t, s.AddPokestopItem(ctx, []string{near.ID}, inventory.Item("masterball")))
	})
}
