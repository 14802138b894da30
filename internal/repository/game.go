package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gamehub-backend/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type GameRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGameRepository(sqlDB *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{db: sqlDB, logger: logger}
}

func (r *GameRepository) Create(ctx context.Context, name string) (*domain.Game, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate game id: %w", err)
	}

	game := &domain.Game{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO games (id, name, created_at)
		VALUES (?, ?, ?)
	`, game.ID, game.Name, game.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert game: %w", err)
	}

	r.logger.Info().Str("game_id", game.ID).Str("name", game.Name).Msg("game created")
	return game, nil
}

func (r *GameRepository) Get(ctx context.Context, id string) (*domain.Game, error) {
	var g domain.Game
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM games
		WHERE id = ?
	`, id).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GameRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
