// Package species provides the species base-stat table consumed by the
// creature factory.
package species

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/pokestack/internal/game/stats"
)

// DefaultForm is the form name of a species without variants.
const DefaultForm = "normal"

// ErrUnknownSpecies is returned when a species id or name has no entry.
var ErrUnknownSpecies = errors.New("unknown species")

// ErrUnknownForm is returned when a species has no form with the given name.
var ErrUnknownForm = errors.New("unknown form")

//go:embed data/*.yaml
var defaultData embed.FS

// Form is one variant of a species with its own base stats.
type Form struct {
	Name string `yaml:"name"`
	Base []int  `yaml:"base"`
}

// Species is one entry of the table.
type Species struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Forms []Form `yaml:"forms"`
}

// Validate checks the species invariants.
//
// Postcondition: Returns nil iff ID >= 1, Name is non-empty, at least one form
// exists, form names are unique, and every form has six base stats >= 1.
func (s *Species) Validate() error {
	if s.ID < 1 {
		return fmt.Errorf("species %q: id must be >= 1", s.Name)
	}
	if s.Name == "" {
		return fmt.Errorf("species %d: name must not be empty", s.ID)
	}
	if len(s.Forms) == 0 {
		return fmt.Errorf("species %d: at least one form is required", s.ID)
	}
	seen := make(map[string]bool, len(s.Forms))
	for _, f := range s.Forms {
		if f.Name == "" {
			return fmt.Errorf("species %d: form name must not be empty", s.ID)
		}
		if seen[f.Name] {
			return fmt.Errorf("species %d: duplicate form %q", s.ID, f.Name)
		}
		seen[f.Name] = true
		if len(f.Base) != stats.Count {
			return fmt.Errorf("species %d form %q: base needs %d values, got %d", s.ID, f.Name, stats.Count, len(f.Base))
		}
		for _, v := range f.Base {
			if v < 1 {
				return fmt.Errorf("species %d form %q: base stats must be >= 1", s.ID, f.Name)
			}
		}
	}
	return nil
}

type document struct {
	Species []*Species `yaml:"species"`
}

// Registry indexes species by id and by folded name.
// A Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	byID   []*Species // index = id-1
	byName map[string]int
}

// NewRegistry builds a Registry from a complete species list.
//
// Precondition: list must be non-empty; ids must be exactly 1..len(list) with
// no gaps or duplicates.
// Postcondition: Returns a Registry or an error naming the first violation.
func NewRegistry(list []*Species) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("species list is empty")
	}
	r := &Registry{
		byID:   make([]*Species, len(list)),
		byName: make(map[string]int, len(list)),
	}
	for i, s := range list {
		if s == nil {
			return nil, fmt.Errorf("species entry %d is empty", i)
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if s.ID > len(list) {
			return nil, fmt.Errorf("species %d: ids must be contiguous from 1 to %d", s.ID, len(list))
		}
		if r.byID[s.ID-1] != nil {
			return nil, fmt.Errorf("species %d: duplicate id", s.ID)
		}
		key := r.key(s.Name)
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("species %d: duplicate name %q", s.ID, s.Name)
		}
		r.byID[s.ID-1] = s
		r.byName[key] = s.ID
	}
	return r, nil
}

// LoadFromBytes parses one YAML document holding a `species` list.
func LoadFromBytes(data []byte) ([]*Species, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing species YAML: %w", err)
	}
	return doc.Species, nil
}

// LoadDir reads every *.yaml file in dir and builds a Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a Registry or an error on the first read, parse, or
// validation failure.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading species dir %q: %w", dir, err)
	}
	var all []*Species
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		list, err := LoadFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		all = append(all, list...)
	}
	return NewRegistry(all)
}

// Default returns the Registry built from the embedded species table.
//
// Postcondition: Returns a non-empty Registry or an error if the embedded data
// is malformed.
func Default() (*Registry, error) {
	entries, err := defaultData.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("reading embedded species: %w", err)
	}
	var all []*Species
	for _, entry := range entries {
		data, err := defaultData.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading embedded %q: %w", entry.Name(), err)
		}
		list, err := LoadFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading embedded %q: %w", entry.Name(), err)
		}
		all = append(all, list...)
	}
	return NewRegistry(all)
}

// Load returns the Registry from dir, or the embedded table when dir is empty.
func Load(dir string) (*Registry, error) {
	if dir == "" {
		return Default()
	}
	return LoadDir(dir)
}

// Count returns the number of known species; valid ids are 1..Count.
func (r *Registry) Count() int { return len(r.byID) }

// Get returns the species with the given id.
//
// Postcondition: Returns ErrUnknownSpecies if id is outside 1..Count.
func (r *Registry) Get(id int) (*Species, error) {
	if id < 1 || id > len(r.byID) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownSpecies, id)
	}
	return r.byID[id-1], nil
}

// Name returns the display name of species id.
func (r *Registry) Name(id int) (string, error) {
	s, err := r.Get(id)
	if err != nil {
		return "", err
	}
	return s.Name, nil
}

// Forms returns the names of the valid forms of species id, in table order.
//
// Postcondition: the returned slice is non-empty on success.
func (r *Registry) Forms(id int) ([]string, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(s.Forms))
	for i, f := range s.Forms {
		names[i] = f.Name
	}
	return names, nil
}

// BaseStats returns the six base stats of the given species form.
//
// Postcondition: Returns ErrUnknownSpecies or ErrUnknownForm on a miss.
func (r *Registry) BaseStats(id int, form string) (stats.Block, error) {
	s, err := r.Get(id)
	if err != nil {
		return stats.Block{}, err
	}
	for _, f := range s.Forms {
		if f.Name == form {
			return stats.BlockFromSlice(f.Base)
		}
	}
	return stats.Block{}, fmt.Errorf("%w: species %d has no form %q", ErrUnknownForm, id, form)
}

// IDByName resolves a species name, ignoring case.
//
// Postcondition: Returns the id, or an error wrapping ErrUnknownSpecies that
// lists up to three close names.
func (r *Registry) IDByName(name string) (int, error) {
	key := r.key(name)
	if id, ok := r.byName[key]; ok {
		return id, nil
	}
	if s := r.Suggest(name, 3); len(s) > 0 {
		return 0, fmt.Errorf("%w: %q (did you mean %s?)", ErrUnknownSpecies, name, strings.Join(s, ", "))
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
}

// Suggest returns up to max species names within edit distance of name,
// closest first.
func (r *Registry) Suggest(name string, max int) []string {
	key := r.key(name)
	if key == "" {
		return nil
	}
	type candidate struct {
		name string
		dist int
	}
	limit := distanceLimit(len(key))
	var cands []candidate
	for _, s := range r.byID {
		d := levenshtein.ComputeDistance(key, r.key(s.Name))
		if d <= limit {
			cands = append(cands, candidate{name: s.Name, dist: d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if len(cands) > max {
		cands = cands[:max]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}

// key folds name for lookup. Casers are stateful, so each call gets its own.
func (r *Registry) key(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
