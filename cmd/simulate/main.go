// Package main provides an offline simulator that runs random battles and
// capture attempts in memory and prints their success ratios.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/config"
	"github.com/cory-johannsen/pokestack/internal/game/battle"
	"github.com/cory-johannsen/pokestack/internal/game/capture"
	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/species"
	"github.com/cory-johannsen/pokestack/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (empty = defaults)")
	battles := flag.Int("battles", 1000, "number of battles to run")
	captures := flag.Int("captures", 1000, "number of capture attempts to run")
	level := flag.Int("level", 0, "level of every simulated creature (0 = random)")
	seed := flag.Uint64("seed", 0, "random seed (0 = crypto seed)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "simulate")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if *seed == 0 {
		if *seed, err = random.NewSeed(); err != nil {
			logger.Fatal("seeding random source", zap.Error(err))
		}
	}
	var src random.Source = random.NewSource(*seed)
	if cfg.Game.LogDraws {
		src = random.NewLoggedSource(src, logger.Named("random"))
	}

	reg, err := species.Load(cfg.Game.SpeciesDir)
	if err != nil {
		logger.Fatal("loading species", zap.Error(err))
	}
	pad, err := battle.ParsePadPolicy(cfg.Game.PadPolicy)
	if err != nil {
		logger.Fatal("parsing pad policy", zap.Error(err))
	}
	mode, err := capture.ParseMode(cfg.Game.CaptureMode)
	if err != nil {
		logger.Fatal("parsing capture mode", zap.Error(err))
	}

	factory := creature.NewFactory(reg, src)
	sim := simulator{
		factory: factory,
		battle:  battle.NewEngine(src, logger.Named("battle")),
		capture: capture.NewEngine(capture.Config{
			Mode:            mode,
			PokeballTrials:  cfg.Game.PokeballTrials,
			GreatballTrials: cfg.Game.GreatballTrials,
		}, src, logger.Named("capture")),
		teams: battle.TeamBuilder{RosterSize: cfg.Game.RosterSize, Pad: pad, Gen: factory},
		size:  cfg.Game.RosterSize,
		level: *level,
	}

	wins, err := sim.battles(*battles)
	if err != nil {
		logger.Fatal("simulating battles", zap.Error(err))
	}
	caught, err := sim.captures(*captures)
	if err != nil {
		logger.Fatal("simulating captures", zap.Error(err))
	}

	logger.Info("simulation complete",
		zap.Uint64("seed", *seed),
		zap.Int("battles", *battles),
		zap.Int("captures", *captures),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Fprintf(os.Stdout, "seed=%d\n", *seed)
	fmt.Fprintf(os.Stdout, "offense win ratio: %.4f (%d/%d)\n", ratio(wins, *battles), wins, *battles)
	fmt.Fprintf(os.Stdout, "capture ratio:     %.4f (%d/%d)\n", ratio(caught, *captures), caught, *captures)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
