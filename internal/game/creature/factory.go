package creature

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/stats"
)

// SpeciesProvider supplies species data to the Factory.
type SpeciesProvider interface {
	// Count returns the number of species; ids are 1..Count.
	Count() int
	// Name returns the display name of species id.
	Name(id int) (string, error)
	// IDByName resolves a species name.
	IDByName(name string) (int, error)
	// Forms returns the valid form names of species id.
	Forms(id int) ([]string, error)
	// BaseStats returns the base stats of a species form.
	BaseStats(id int, form string) (stats.Block, error)
}

// Options selects the fixed attributes of a new creature. Zero fields are
// drawn at random.
type Options struct {
	// SpeciesID wins over SpeciesName when both are set.
	SpeciesID   int
	SpeciesName string
	Level       int
	Location    *geo.Point
	Owner       Owner
}

// Factory generates creatures from a species table and a random source.
type Factory struct {
	species SpeciesProvider
	src     random.Source
}

// NewFactory creates a Factory.
//
// Precondition: species and src must be non-nil; species.Count() >= 1.
func NewFactory(species SpeciesProvider, src random.Source) *Factory {
	return &Factory{species: species, src: src}
}

// RandomLevel draws clamp(round(chisq(2) * 5), 1, 100).
//
// Postcondition: 1 <= result <= 100.
func RandomLevel(src random.Source) int {
	level := int(math.Round(src.ChiSquare(2) * 5))
	if level < 1 {
		return 1
	}
	if level > stats.MaxLevel {
		return stats.MaxLevel
	}
	return level
}

// Create generates a new creature.
//
// Species resolution: opts.SpeciesID, else opts.SpeciesName, else uniform over
// all species. Form and nature are uniform. IVs and EVs come from the stats
// generator; CurrentHP starts at the HP stat; the location defaults to a random
// point.
//
// Postcondition: Returns a creature satisfying every Creature invariant, or an
// error wrapping species.ErrUnknownSpecies for an unknown id or name.
func (f *Factory) Create(opts Options) (*Creature, error) {
	id := opts.SpeciesID
	if id == 0 {
		if opts.SpeciesName != "" {
			resolved, err := f.species.IDByName(opts.SpeciesName)
			if err != nil {
				return nil, err
			}
			id = resolved
		} else {
			id = f.src.Intn(f.species.Count()) + 1
		}
	}
	name, err := f.species.Name(id)
	if err != nil {
		return nil, err
	}

	level := opts.Level
	if level == 0 {
		level = RandomLevel(f.src)
	}
	if level < 1 || level > stats.MaxLevel {
		return nil, fmt.Errorf("creature level must be 1-%d, got %d", stats.MaxLevel, level)
	}

	forms, err := f.species.Forms(id)
	if err != nil {
		return nil, err
	}
	form := forms[f.src.Intn(len(forms))]
	nature := stats.Natures[f.src.Intn(len(stats.Natures))]

	base, err := f.species.BaseStats(id, form)
	if err != nil {
		return nil, err
	}
	ivs := stats.RandomIVs(f.src)
	evs := stats.RandomEVs(f.src, level)

	c := &Creature{
		ID:        uuid.New().String(),
		SpeciesID: id,
		Name:      name,
		Form:      form,
		Nature:    nature.Name,
		Level:     level,
		IVs:       ivs,
		EVs:       evs,
		Stats:     stats.Derive(base, ivs, evs, level, nature),
		Owner:     opts.Owner,
	}
	c.ResetHP()
	if opts.Location != nil {
		c.Location = *opts.Location
	} else {
		c.Location = geo.Random(f.src)
	}
	return c, nil
}

// Rederive recomputes c.Stats from its species, form, nature, IVs, EVs, and
// level, for records reconstructed from storage without derived stats.
//
// Postcondition: c.Stats and c.CurrentHP are refreshed, or an error is returned.
func (f *Factory) Rederive(c *Creature) error {
	base, err := f.species.BaseStats(c.SpeciesID, c.Form)
	if err != nil {
		return err
	}
	nature, err := stats.NatureByName(c.Nature)
	if err != nil {
		return err
	}
	c.Stats = stats.Derive(base, c.IVs, c.EVs, c.Level, nature)
	c.ResetHP()
	return nil
}
