package service

import (
	"context"

	"gamehub-backend/internal/constants"
	"gamehub-backend/internal/domain"

	"github.com/rs/zerolog"
)

// GameAdminStore is the write-capable slice of game storage; the other
// services only need the read-only GameStore.
type GameAdminStore interface {
	GameStore
	Create(ctx context.Context, name string) (*domain.Game, error)
}

type GameService struct {
	games  GameAdminStore
	logger zerolog.Logger
}

func NewGameService(games GameAdminStore, logger zerolog.Logger) *GameService {
	return &GameService{games: games, logger: logger}
}

func (s *GameService) Create(ctx context.Context, name string) (*domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.games.Create(ctx, name)
}

func (s *GameService) Get(ctx context.Context, id string) (*domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.games.Get(ctx, id)
}
