package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/config"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/species"
	"github.com/cory-johannsen/pokestack/internal/gameserver"
	"github.com/cory-johannsen/pokestack/internal/observability"
	"github.com/cory-johannsen/pokestack/internal/storage"
	"github.com/cory-johannsen/pokestack/internal/storage/postgres"
	"github.com/cory-johannsen/pokestack/internal/storage/sqlite"
)

func provideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging, "seed")
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// provideSource seeds from cfg.Game.Seed, or from crypto/rand when it is zero.
func provideSource(cfg config.Config, logger *zap.Logger) (random.Source, error) {
	seed := cfg.Game.Seed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return nil, fmt.Errorf("seeding random source: %w", err)
		}
	}
	logger.Info("random source ready", zap.Uint64("seed", seed))
	src := random.NewSource(seed)
	if cfg.Game.LogDraws {
		return random.NewLoggedSource(src, logger.Named("random")), nil
	}
	return src, nil
}

func provideSpecies(cfg config.Config, logger *zap.Logger) (*species.Registry, error) {
	reg, err := species.Load(cfg.Game.SpeciesDir)
	if err != nil {
		return nil, fmt.Errorf("loading species: %w", err)
	}
	logger.Info("species loaded", zap.Int("count", reg.Count()))
	return reg, nil
}

// provideStore opens the configured backend with its schema migrated.
func provideStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		s, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite store opened", zap.String("path", cfg.Storage.SQLitePath))
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		if err := postgres.MigrateUp(cfg.Database.DSN()); err != nil {
			return nil, nil, err
		}
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database connected", zap.String("host", cfg.Database.Host))
		return postgres.NewStore(pool.DB()), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func provideService(store storage.Store, reg *species.Registry, src random.Source, cfg config.Config, logger *zap.Logger) (*gameserver.Service, error) {
	return gameserver.NewService(store, reg, src, cfg.Game, logger.Named("gameserver"))
}
