package main

import (
	"github.com/cory-johannsen/pokestack/internal/game/battle"
	"github.com/cory-johannsen/pokestack/internal/game/capture"
	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/inventory"
)

// simulatedBag is the bag handed to every simulated capture attempt.
var simulatedBag = inventory.Bag{
	Pokeball:  capture.DefaultPokeballTrials,
	Greatball: capture.DefaultGreatballTrials,
}

type simulator struct {
	factory *creature.Factory
	battle  *battle.Engine
	capture *capture.Engine
	teams   battle.TeamBuilder
	size    int
	// level fixes every creature's level; 0 draws it.
	level int
}

func (s simulator) team() (battle.Team, error) {
	members := make([]*creature.Creature, 0, s.size)
	for range s.size {
		c, err := s.factory.Create(creature.Options{Level: s.level})
		if err != nil {
			return battle.Team{}, err
		}
		members = append(members, c)
	}
	return s.teams.Build(members)
}

// battles fights n pairs of random full rosters and returns offense wins.
func (s simulator) battles(n int) (int, error) {
	wins := 0
	for range n {
		offense, err := s.team()
		if err != nil {
			return wins, err
		}
		defense, err := s.team()
		if err != nil {
			return wins, err
		}
		res, err := s.battle.Resolve(offense, defense)
		if err != nil {
			return wins, err
		}
		if res.OffenseWon {
			wins++
		}
	}
	return wins, nil
}

// captures runs n attempts with simulatedBag and returns the successes.
func (s simulator) captures(n int) (int, error) {
	caught := 0
	for range n {
		c, err := s.factory.Create(creature.Options{Level: s.level})
		if err != nil {
			return caught, err
		}
		if s.capture.Attempt(simulatedBag, c.Level).Captured {
			caught++
		}
	}
	return caught, nil
}
