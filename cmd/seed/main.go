// Package main provides the world seeder: it fills a store with wild
// creatures, pokestops, stadiums with their garrisons, and trainers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/pokestack/internal/config"
	"github.com/cory-johannsen/pokestack/internal/gameserver"
	"github.com/cory-johannsen/pokestack/internal/observability"
)

func main() {
	start := time.Now()
	def := gameserver.DefaultPopulation

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scale := flag.Int("scale", 1, "number of seeding iterations")
	creatures := flag.Int("creatures", def.Creatures, "wild creatures per iteration")
	pokestops := flag.Int("pokestops", def.Pokestops, "pokestops per iteration")
	stadiums := flag.Int("stadiums", def.Stadiums, "stadiums per iteration")
	trainers := flag.Int("trainers", def.Trainers, "trainers per iteration")
	flag.Parse()

	if *scale < 1 {
		log.Fatalf("invalid scale %d: must be >= 1", *scale)
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	shutdown, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		log.Fatalf("initializing tracing: %v", err)
	}
	defer func() { _ = shutdown(ctx) }()

	svc, cleanup, err := initializeService(ctx, cfg)
	if err != nil {
		log.Fatalf("initializing service: %v", err)
	}
	defer cleanup()

	pop := gameserver.Population{
		Creatures: *creatures,
		Pokestops: *pokestops,
		Stadiums:  *stadiums,
		Trainers:  *trainers,
	}.Scale(*scale)

	stored, err := svc.Populate(ctx, pop)
	if err != nil {
		log.Fatalf("populating world: %v", err)
	}
	total, err := svc.CountCreatures(ctx)
	if err != nil {
		log.Fatalf("counting creatures: %v", err)
	}

	fmt.Fprintf(os.Stdout, "seeded %d creatures, %d pokestops, %d stadiums, %d trainers (%d creatures stored) [%s]\n",
		stored, pop.Pokestops, pop.Stadiums, pop.Trainers, total, time.Since(start))
}
