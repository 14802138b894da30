package service

import (
	"context"
	"time"

	"gamehub-backend/internal/constants"
	"gamehub-backend/internal/domain"

	"github.com/rs/zerolog"
)

// PlayerPatch describes one player update. Nil/empty members leave the
// corresponding state untouched.
type PlayerPatch struct {
	SetProps    map[string]string
	DeleteProps []string
	DevBuild    *bool
	TouchSeen   bool
}

type PlayerService struct {
	games   GameStore
	players PlayerStore
	sync    *Synchronizer
	logger  zerolog.Logger
}

func NewPlayerService(games GameStore, players PlayerStore, sync *Synchronizer, logger zerolog.Logger) *PlayerService {
	return &PlayerService{games: games, players: players, sync: sync, logger: logger}
}

// Create registers a player and triggers one membership sync once the
// write has committed.
func (s *PlayerService) Create(ctx context.Context, gameID string, devBuild bool, props map[string]string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	exists, err := s.games.Exists(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	if props == nil {
		props = map[string]string{}
	}
	player := &domain.Player{GameID: gameID, DevBuild: devBuild, Props: props}
	if err := s.players.Create(ctx, player); err != nil {
		return nil, err
	}

	s.sync.Enqueue(player.ID, player.GameID)
	return player, nil
}

// Patch applies one update to a player. Exactly one sync is triggered
// per committed write, however many props the patch touched.
func (s *PlayerService) Patch(ctx context.Context, playerID string, patch PlayerPatch) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	player, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	for k, v := range patch.SetProps {
		player.Props[k] = v
	}
	for _, k := range patch.DeleteProps {
		delete(player.Props, k)
	}
	if patch.DevBuild != nil {
		player.DevBuild = *patch.DevBuild
	}
	if patch.TouchSeen {
		player.LastSeenAt = time.Now().UTC()
	}

	if err := s.players.Update(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("player_id", player.ID).
		Int("props_set", len(patch.SetProps)).
		Int("props_deleted", len(patch.DeleteProps)).
		Msg("player patched")

	s.sync.Enqueue(player.ID, player.GameID)
	return player, nil
}

func (s *PlayerService) Get(ctx context.Context, playerID string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.players.Get(ctx, playerID)
}
