//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/pokestack/internal/config"
	"github.com/cory-johannsen/pokestack/internal/gameserver"
)

func initializeService(ctx context.Context, cfg config.Config) (*gameserver.Service, func(), error) {
	wire.Build(
		provideLogger,
		provideSource,
		provideSpecies,
		provideStore,
		provideService,
	)
	return nil, nil, nil
}
