package species_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pokestack/internal/game/species"
	"github.com/cory-johannsen/pokestack/internal/game/stats"
)

func TestDefault_LoadsEmbeddedTable(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reg.Count(), 25)

	name, err := reg.Name(25)
	require.NoError(t, err)
	assert.Equal(t, "Pikachu", name)

	base, err := reg.BaseStats(25, species.DefaultForm)
	require.NoError(t, err)
	assert.Equal(t, stats.Block{35, 55, 40, 50, 50, 90}, base)
}

func TestDefault_EveryIDResolves(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.IntRange(1, reg.Count()).Draw(rt, "id")
		forms, err := reg.Forms(id)
		require.NoError(rt, err)
		require.NotEmpty(rt, forms)
		for _, f := range forms {
			base, err := reg.BaseStats(id, f)
			require.NoError(rt, err)
			for _, v := range base {
				assert.GreaterOrEqual(rt, v, 1)
			}
		}
	})
}

func TestRegistry_Forms(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	forms, err := reg.Forms(6)
	require.NoError(t, err)
	assert.Equal(t, []string{"normal", "mega-x", "mega-y"}, forms)
}

func TestRegistry_UnknownID(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	_, err = reg.Get(0)
	assert.ErrorIs(t, err, species.ErrUnknownSpecies)
	_, err = reg.BaseStats(reg.Count()+1, species.DefaultForm)
	assert.ErrorIs(t, err, species.ErrUnknownSpecies)
}

func TestRegistry_UnknownForm(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	_, err = reg.BaseStats(25, "gigantamax")
	assert.ErrorIs(t, err, species.ErrUnknownForm)
}

func TestRegistry_IDByName_CaseInsensitive(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	for _, name := range []string{"Pikachu", "pikachu", "PIKACHU", "  Pikachu "} {
		id, err := reg.IDByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, 25, id)
	}
	id, err := reg.IDByName("nidoran♀")
	require.NoError(t, err)
	assert.Equal(t, 29, id)
}

func TestRegistry_IDByName_SuggestsCloseNames(t *testing.T) {
	reg, err := species.Default()
	require.NoError(t, err)
	_, err = reg.IDByName("Pikachoo")
	require.ErrorIs(t, err, species.ErrUnknownSpecies)
	assert.Contains(t, err.Error(), "Pikachu")

	_, err = reg.IDByName("Mewtwo-Prime-Ultimate")
	require.ErrorIs(t, err, species.ErrUnknownSpecies)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestNewRegistry_RejectsGapsAndDuplicates(t *testing.T) {
	form := []species.Form{{Name: "normal", Base: []int{1, 1, 1, 1, 1, 1}}}
	_, err := species.NewRegistry([]*species.Species{
		{ID: 1, Name: "A", Forms: form},
		{ID: 3, Name: "B", Forms: form},
	})
	assert.Error(t, err)

	_, err = species.NewRegistry([]*species.Species{
		{ID: 1, Name: "A", Forms: form},
		{ID: 1, Name: "B", Forms: form},
	})
	assert.Error(t, err)

	_, err = species.NewRegistry([]*species.Species{
		{ID: 1, Name: "A", Forms: form},
		{ID: 2, Name: "a", Forms: form},
	})
	assert.Error(t, err, "names collide after case folding")

	_, err = species.NewRegistry(nil)
	assert.Error(t, err, "an empty list has nothing to create")

	list, err := species.LoadFromBytes([]byte("species:\n  -\n"))
	require.NoError(t, err)
	_, err = species.NewRegistry(list)
	assert.Error(t, err, "null entries are rejected")
}

func TestLoadDir_RejectsDirWithoutYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kanto.yml"), []byte("species: []\n"), 0o644))
	_, err := species.LoadDir(dir)
	assert.Error(t, err)
}

func TestSpecies_Validate(t *testing.T) {
	cases := []struct {
		name string
		s    species.Species
	}{
		{"no id", species.Species{Name: "A", Forms: []species.Form{{Name: "normal", Base: []int{1, 1, 1, 1, 1, 1}}}}},
		{"no name", species.Species{ID: 1, Forms: []species.Form{{Name: "normal", Base: []int{1, 1, 1, 1, 1, 1}}}}},
		{"no forms", species.Species{ID: 1, Name: "A"}},
		{"short base", species.Species{ID: 1, Name: "A", Forms: []species.Form{{Name: "normal", Base: []int{1, 1}}}}},
		{"zero base", species.Species{ID: 1, Name: "A", Forms: []species.Form{{Name: "normal", Base: []int{0, 1, 1, 1, 1, 1}}}}},
		{"dup form", species.Species{ID: 1, Name: "A", Forms: []species.Form{
			{Name: "normal", Base: []int{1, 1, 1, 1, 1, 1}},
			{Name: "normal", Base: []int{1, 1, 1, 1, 1, 1}},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.s.Validate())
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
species:
  - id: 2
    name: Beta
    forms:
      - {name: normal, base: [10, 20, 30, 40, 50, 60]}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(`
species:
  - id: 1
    name: Alpha
    forms:
      - {name: normal, base: [1, 2, 3, 4, 5, 6]}
      - {name: shadow, base: [6, 5, 4, 3, 2, 1]}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	reg, err := species.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Count())
	base, err := reg.BaseStats(1, "shadow")
	require.NoError(t, err)
	assert.Equal(t, stats.Block{6, 5, 4, 3, 2, 1}, base)
}

func TestLoadDir_MissingDir(t *testing.T) {
	_, err := species.LoadDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoad_EmptyDirUsesEmbedded(t *testing.T) {
	reg, err := species.Load("")
	require.NoError(t, err)
	assert.Greater(t, reg.Count(), 0)
}
