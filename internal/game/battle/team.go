package battle

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/pokestack/internal/game/creature"
)

// DefaultRosterSize is the number of creatures each side fields.
const DefaultRosterSize = 4

// PadPolicy decides what happens when a side has fewer creatures than the
// roster size.
type PadPolicy string

const (
	// PadNone fields the short roster as is.
	PadNone PadPolicy = "none"
	// PadGenerateRandom tops the roster up with freshly generated creatures.
	PadGenerateRandom PadPolicy = "generate_random"
)

// ParsePadPolicy validates a configured policy name.
func ParsePadPolicy(s string) (PadPolicy, error) {
	switch PadPolicy(s) {
	case PadNone, PadGenerateRandom:
		return PadPolicy(s), nil
	}
	return "", fmt.Errorf("unknown pad policy %q", s)
}

// Generator creates padding creatures. *creature.Factory satisfies it.
type Generator interface {
	Create(opts creature.Options) (*creature.Creature, error)
}

// Team is an ordered battle roster of working copies.
type Team struct {
	Members []*creature.Creature
	padded  map[string]bool
}

// NewTeam wraps members without copying, sorting or padding them.
func NewTeam(members ...*creature.Creature) Team {
	return Team{Members: members}
}

// Len returns the roster size.
func (t Team) Len() int { return len(t.Members) }

// Fielded returns the members that came from the caller, excluding padding,
// in roster order.
func (t Team) Fielded() []*creature.Creature {
	return t.filter(false)
}

// Padded returns the generated padding members in roster order.
func (t Team) Padded() []*creature.Creature {
	return t.filter(true)
}

func (t Team) filter(padded bool) []*creature.Creature {
	var out []*creature.Creature
	for _, m := range t.Members {
		if t.padded[m.ID] == padded {
			out = append(out, m)
		}
	}
	return out
}

func byLevelDesc(a, b *creature.Creature) int { return b.Level - a.Level }

// TeamBuilder turns a caller's creature list into a Team.
type TeamBuilder struct {
	RosterSize int
	Pad        PadPolicy
	// Gen is required when Pad is PadGenerateRandom.
	Gen Generator
}

// Build clones members, orders them by descending level (ties keep input
// order), truncates to RosterSize, and pads per Pad.
//
// Precondition: RosterSize >= 1.
// Postcondition: members are not modified; Team.Len() <= RosterSize and equals
// RosterSize under PadGenerateRandom.
func (b TeamBuilder) Build(members []*creature.Creature) (Team, error) {
	size := b.RosterSize
	if size < 1 {
		size = DefaultRosterSize
	}
	clones := make([]*creature.Creature, len(members))
	for i, m := range members {
		clones[i] = m.Clone()
	}
	slices.SortStableFunc(clones, byLevelDesc)
	if len(clones) > size {
		clones = clones[:size]
	}
	team := Team{Members: clones}
	if b.Pad != PadGenerateRandom {
		return team, nil
	}
	if b.Gen == nil {
		return Team{}, fmt.Errorf("pad policy %q requires a generator", b.Pad)
	}
	team.padded = make(map[string]bool)
	for len(team.Members) < size {
		c, err := b.Gen.Create(creature.Options{})
		if err != nil {
			return Team{}, fmt.Errorf("generating padding creature: %w", err)
		}
		team.padded[c.ID] = true
		team.Members = append(team.Members, c)
	}
	slices.SortStableFunc(team.Members, byLevelDesc)
	return team, nil
}
