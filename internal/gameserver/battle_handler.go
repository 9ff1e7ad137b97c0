package gameserver

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pokestack/internal/game/battle"
	"github.com/cory-johannsen/pokestack/internal/game/creature"
	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/trainer"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

// BattleOutcome reports one battle from the user's side.
type BattleOutcome struct {
	Victory bool
	// Won lists the creatures the user gained.
	Won []*creature.Creature
	// Lost lists the user's creatures released after a defeat.
	Lost    []*creature.Creature
	Attacks []battle.AttackEvent
}

// userTeam builds the user's roster from the creatures it carries. Garrisoned
// creatures are held by their stadium and never fight for the user.
func (s *Service) userTeam(u *trainer.Trainer, mine []*creature.Creature) (battle.Team, error) {
	if len(mine) == 0 && s.teams.Pad == battle.PadNone {
		return battle.Team{}, fmt.Errorf("%w: %s", ErrNoCreatures, u.ID)
	}
	return s.teams.Build(mine)
}

// fight resolves offense against defense. An empty defense forfeits.
func (s *Service) fight(offense, defense battle.Team) (battle.Result, error) {
	if defense.Len() == 0 {
		return battle.Result{OffenseWon: true}, nil
	}
	return s.battle.Resolve(offense, defense)
}

// originals returns the stored records behind the fielded members of team.
func originals(team battle.Team, stored []*creature.Creature) []*creature.Creature {
	byID := make(map[string]*creature.Creature, len(stored))
	for _, c := range stored {
		byID[c.ID] = c
	}
	out := make([]*creature.Creature, 0, team.Len())
	for _, c := range team.Fielded() {
		if orig, ok := byID[c.ID]; ok {
			out = append(out, orig)
		}
	}
	return out
}

// transfer builds placements moving cs to owner at loc, updating cs in place.
func transfer(cs []*creature.Creature, owner creature.Owner, loc geo.Point) []storage.Placement {
	ps := make([]storage.Placement, len(cs))
	for i, c := range cs {
		c.Owner = owner
		c.Location = loc
		ps[i] = storage.Placement{ID: c.ID, Owner: owner, Location: loc}
	}
	return ps
}

// release frees the user's fielded creatures at random locations.
func (s *Service) release(ctx context.Context, team battle.Team, stored []*creature.Creature) ([]*creature.Creature, error) {
	lost := originals(team, stored)
	ps := make([]storage.Placement, len(lost))
	for i, c := range lost {
		c.Owner = creature.Free
		c.Location = geo.Random(s.src)
		ps[i] = storage.Placement{ID: c.ID, Owner: c.Owner, Location: c.Location}
	}
	if err := s.store.PlaceCreatures(ctx, ps); err != nil {
		return nil, fmt.Errorf("releasing creatures: %w", err)
	}
	return lost, nil
}

func (s *Service) ownedBy(ctx context.Context, owner creature.Owner) ([]*creature.Creature, error) {
	cs, err := s.store.CreaturesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("loading %s %s creatures: %w", owner.Kind, owner.ID, err)
	}
	return cs, nil
}

// BattleTrainer pits the user's roster against a non-player trainer's.
//
// Precondition: userID names a player; trainerID names a non-player trainer.
// Postcondition: on victory the trainer's fielded creatures become the user's
// at the user's location; on defeat the user's fielded creatures become free
// at random locations. Padding creatures are never persisted.
func (s *Service) BattleTrainer(ctx context.Context, userID, trainerID string) (_ BattleOutcome, err error) {
	ctx, span := s.start(ctx, "BattleTrainer",
		attribute.String("user.id", userID), attribute.String("trainer.id", trainerID))
	defer func() { end(span, err) }()

	unlock := s.locks.Lock(userID, trainerID)
	defer unlock()

	if userID == trainerID {
		return BattleOutcome{}, fmt.Errorf("%w: cannot battle oneself", ErrInvalidOpponent)
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return BattleOutcome{}, err
	}
	opp, err := s.store.GetTrainer(ctx, trainerID)
	if err != nil {
		return BattleOutcome{}, fmt.Errorf("loading trainer %s: %w", trainerID, err)
	}
	if opp.IsUser() {
		return BattleOutcome{}, fmt.Errorf("%w: %s is a player", ErrInvalidOpponent, trainerID)
	}

	mine, err := s.ownedBy(ctx, creature.TrainerOwner(u.ID))
	if err != nil {
		return BattleOutcome{}, err
	}
	offense, err := s.userTeam(u, mine)
	if err != nil {
		return BattleOutcome{}, err
	}
	theirs, err := s.ownedBy(ctx, creature.TrainerOwner(opp.ID))
	if err != nil {
		return BattleOutcome{}, err
	}
	defense, err := s.teams.Build(theirs)
	if err != nil {
		return BattleOutcome{}, err
	}

	res, err := s.fight(offense, defense)
	if err != nil {
		return BattleOutcome{}, err
	}
	out := BattleOutcome{Victory: res.OffenseWon, Attacks: res.Attacks}
	if res.OffenseWon {
		out.Won = originals(defense, theirs)
		if err := s.store.PlaceCreatures(ctx, transfer(out.Won, creature.TrainerOwner(u.ID), u.Location)); err != nil {
			return BattleOutcome{}, fmt.Errorf("claiming creatures: %w", err)
		}
	} else if out.Lost, err = s.release(ctx, offense, mine); err != nil {
		return BattleOutcome{}, err
	}

	s.logger.Info("trainer battle",
		zap.String("user_id", u.ID),
		zap.String("trainer_id", opp.ID),
		zap.Bool("victory", out.Victory),
		zap.Int("won", len(out.Won)),
		zap.Int("lost", len(out.Lost)),
	)
	return out, nil
}

// BattleStadium pits the user's roster against a stadium garrison.
//
// Precondition: userID names a player that does not own the stadium.
// Postcondition: on victory the user owns the stadium and gains its points,
// the user's fielded creatures garrison it at the stadium's location, and the
// whole former garrison becomes the user's at the user's location. Defeat
// releases the user's fielded creatures.
func (s *Service) BattleStadium(ctx context.Context, userID, stadiumID string) (_ BattleOutcome, err error) {
	ctx, span := s.start(ctx, "BattleStadium",
		attribute.String("user.id", userID), attribute.String("stadium.id", stadiumID))
	defer func() { end(span, err) }()

	unlock := s.locks.Lock(userID, stadiumID)
	defer unlock()

	u, err := s.user(ctx, userID)
	if err != nil {
		return BattleOutcome{}, err
	}
	st, err := s.store.GetStadium(ctx, stadiumID)
	if err != nil {
		return BattleOutcome{}, fmt.Errorf("loading stadium %s: %w", stadiumID, err)
	}
	if st.OwnerID == u.ID {
		return BattleOutcome{}, fmt.Errorf("%w: %s already owns %s", ErrInvalidOpponent, u.ID, st.ID)
	}

	mine, err := s.ownedBy(ctx, creature.TrainerOwner(u.ID))
	if err != nil {
		return BattleOutcome{}, err
	}
	offense, err := s.userTeam(u, mine)
	if err != nil {
		return BattleOutcome{}, err
	}
	garrison, err := s.ownedBy(ctx, creature.StadiumOwner(st.ID))
	if err != nil {
		return BattleOutcome{}, err
	}
	defense, err := s.teams.Build(garrison)
	if err != nil {
		return BattleOutcome{}, err
	}

	res, err := s.fight(offense, defense)
	if err != nil {
		return BattleOutcome{}, err
	}
	out := BattleOutcome{Victory: res.OffenseWon, Attacks: res.Attacks}
	if res.OffenseWon {
		winners := originals(offense, mine)
		ps := transfer(winners, creature.StadiumOwner(st.ID), st.Location)
		ps = append(ps, transfer(garrison, creature.TrainerOwner(u.ID), u.Location)...)
		st.OwnerID = u.ID
		u.Points += st.Points
		if err := s.store.Settle(ctx, storage.Settlement{Placements: ps, Stadium: st, Trainer: u}); err != nil {
			return BattleOutcome{}, fmt.Errorf("claiming stadium: %w", err)
		}
		out.Won = garrison
	} else if out.Lost, err = s.release(ctx, offense, mine); err != nil {
		return BattleOutcome{}, err
	}

	s.logger.Info("stadium battle",
		zap.String("user_id", u.ID),
		zap.String("stadium_id", st.ID),
		zap.Bool("victory", out.Victory),
		zap.Int("won", len(out.Won)),
		zap.Int("lost", len(out.Lost)),
	)
	return out, nil
}

// BattleWild pits the user's roster against a single free creature.
//
// Postcondition: on victory the creature becomes the user's at the user's
// location; defeat releases the user's fielded creatures. Returns
// ErrAlreadyOwned for a held creature.
func (s *Service) BattleWild(ctx context.Context, userID, creatureID string) (_ BattleOutcome, err error) {
	ctx, span := s.start(ctx, "BattleWild",
		attribute.String("user.id", userID), attribute.String("creature.id", creatureID))
	defer func() { end(span, err) }()

	unlock := s.locks.Lock(userID, creatureID)
	defer unlock()

	u, err := s.user(ctx, userID)
	if err != nil {
		return BattleOutcome{}, err
	}
	wild, err := s.store.GetCreature(ctx, creatureID)
	if err != nil {
		return BattleOutcome{}, fmt.Errorf("loading creature %s: %w", creatureID, err)
	}
	if !wild.Owner.IsFree() {
		return BattleOutcome{}, fmt.Errorf("%w: %s", ErrAlreadyOwned, creatureID)
	}

	mine, err := s.ownedBy(ctx, creature.TrainerOwner(u.ID))
	if err != nil {
		return BattleOutcome{}, err
	}
	offense, err := s.userTeam(u, mine)
	if err != nil {
		return BattleOutcome{}, err
	}

	res, err := s.fight(offense, battle.NewTeam(wild.Clone()))
	if err != nil {
		return BattleOutcome{}, err
	}
	out := BattleOutcome{Victory: res.OffenseWon, Attacks: res.Attacks}
	if res.OffenseWon {
		out.Won = []*creature.Creature{wild}
		if err := s.store.PlaceCreatures(ctx, transfer(out.Won, creature.TrainerOwner(u.ID), u.Location)); err != nil {
			return BattleOutcome{}, fmt.Errorf("claiming creature: %w", err)
		}
	} else if out.Lost, err = s.release(ctx, offense, mine); err != nil {
		return BattleOutcome{}, err
	}

	s.logger.Info("wild battle",
		zap.String("user_id", u.ID),
		zap.String("creature_id", wild.ID),
		zap.Bool("victory", out.Victory),
	)
	return out, nil
}
