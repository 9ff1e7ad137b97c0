// Package gameserver applies game rules to persisted state: captures, battles,
// movement, proximity queries, item handling, and world maintenance.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/config"
	"github.com/cory-johannsen/pokestack/internal/game/battle"
	"github.com/cory-johannsen/pokestack/internal/game/capture"
	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/random"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

const tracerName = "github.com/cory-johannsen/pokestack/internal/gameserver"

var (
	// ErrAlreadyOwned is returned when a capture or wild battle targets a
	// creature held by a trainer or stadium.
	ErrAlreadyOwned = errors.New("creature already owned")
	// ErrMoveTooFar is returned when a move offset exceeds the move limit.
	ErrMoveTooFar = errors.New("move exceeds limit")
	// ErrNoCreatures is returned when a user without creatures starts a
	// battle and no padding is configured.
	ErrNoCreatures = errors.New("user has no creatures to battle with")
	// ErrNotAUser is returned when an operation reserved to players is
	// invoked with a non-player trainer.
	ErrNotAUser = errors.New("trainer is not a player")
	// ErrInvalidOpponent is returned for a battle against oneself, another
	// player, or one's own stadium.
	ErrInvalidOpponent = errors.New("invalid opponent")
)

// Default request sizes for operations whose count is optional.
const (
	DefaultLureCount    = 20
	DefaultImproveCount = 10
	DefaultCullCount    = 10
	DefaultLevelUpCount = 10
)

// Service runs game operations against a Store.
//
// Captures and battles are serialized per participant: two operations that
// touch the same trainer, stadium, or creature never interleave.
type Service struct {
	store   storage.Store
	factory *creature.Factory
	capture *capture.Engine
	battle  *battle.Engine
	teams   battle.TeamBuilder
	src     random.Source
	cfg     config.GameConfig
	logger  *zap.Logger
	tracer  trace.Tracer
	locks   *keyedMutex
	now     func() time.Time
}

// NewService wires the game engines over store.
//
// Precondition: store, species, src and logger must be non-nil; cfg must have
// passed config validation.
// Postcondition: Returns a ready Service or an error for an unknown pad policy
// or capture mode.
func NewService(store storage.Store, species creature.SpeciesProvider, src random.Source, cfg config.GameConfig, logger *zap.Logger) (*Service, error) {
	pad, err := battle.ParsePadPolicy(cfg.PadPolicy)
	if err != nil {
		return nil, err
	}
	mode, err := capture.ParseMode(cfg.CaptureMode)
	if err != nil {
		return nil, err
	}
	factory := creature.NewFactory(species, src)
	return &Service{
		store:   store,
		factory: factory,
		capture: capture.NewEngine(capture.Config{
			Mode:            mode,
			PokeballTrials:  cfg.PokeballTrials,
			GreatballTrials: cfg.GreatballTrials,
		}, src, logger.Named("capture")),
		battle: battle.NewEngine(src, logger.Named("battle")),
		teams: battle.TeamBuilder{
			RosterSize: cfg.RosterSize,
			Pad:        pad,
			Gen:        factory,
		},
		src:    src,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(tracerName),
		locks:  newKeyedMutex(),
		now:    time.Now,
	}, nil
}

// Factory exposes the creature factory used for spawning.
func (s *Service) Factory() *creature.Factory { return s.factory }

// start opens a span for op.
func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "gameserver."+op, trace.WithAttributes(attrs...))
}

// end records err on span and closes it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// user loads a player.
func (s *Service) user(ctx context.Context, id string) (*trainer.Trainer, error) {
	u, err := s.store.GetTrainer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", id, err)
	}
	if !u.IsUser() {
		return nil, fmt.Errorf("%w: %s", ErrNotAUser, id)
	}
	return u, nil
}

// FindOrCreateUser returns the player registered under workerNum, creating it
// with an empty bag at a random location when absent.
//
// Precondition: workerNum > 0.
// Postcondition: repeated calls with the same workerNum return the same player.
func (s *Service) FindOrCreateUser(ctx context.Context, workerNum int) (_ *trainer.Trainer, err error) {
	ctx, span := s.start(ctx, "FindOrCreateUser", attribute.Int("worker.num", workerNum))
	defer func() { end(span, err) }()

	candidate, err := trainer.NewUser(s.src, workerNum, s.now())
	if err != nil {
		return nil, err
	}
	u, err := s.store.FindOrCreateUser(ctx, candidate)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user ready", zap.String("user_id", u.ID), zap.Int("worker_num", workerNum))
	return u, nil
}
