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

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

func (r *PlayerRepository) Create(ctx context.Context, player *domain.Player) error {
	if player.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate player id: %w", err)
		}
		player.ID = id
	}
	now := time.Now().UTC()
	player.CreatedAt = now
	player.LastSeenAt = now
	player.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO players (id, game_id, dev_build, created_at, last_seen_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, player.ID, player.GameID, player.DevBuild, player.CreatedAt, player.LastSeenAt, player.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}

	if err := insertProps(ctx, tx, player.ID, player.Props); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.logger.Info().
		Str("player_id", player.ID).
		Str("game_id", player.GameID).
		Int("props", len(player.Props)).
		Msg("player created")
	return nil
}

// Update persists the player row and replaces its property set in one
// transaction.
func (r *PlayerRepository) Update(ctx context.Context, player *domain.Player) error {
	player.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE players
		SET dev_build = ?, last_seen_at = ?, updated_at = ?
		WHERE id = ?
	`, player.DevBuild, player.LastSeenAt, player.UpdatedAt, player.ID)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_props WHERE player_id = ?`, player.ID); err != nil {
		return fmt.Errorf("failed to clear player props: %w", err)
	}
	if err := insertProps(ctx, tx, player.ID, player.Props); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	var p domain.Player
	err := r.db.QueryRowContext(ctx, `
		SELECT id, game_id, dev_build, created_at, last_seen_at, updated_at
		FROM players
		WHERE id = ?
	`, id).Scan(&p.ID, &p.GameID, &p.DevBuild, &p.CreatedAt, &p.LastSeenAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Props = map[string]string{}
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, value
		FROM player_props
		WHERE player_id = ?
		ORDER BY key
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		p.Props[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByGame returns every player of a game with props attached. Used
// by the preview service and by whole-game resyncs.
func (r *PlayerRepository) ListByGame(ctx context.Context, gameID string) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, game_id, dev_build, created_at, last_seen_at, updated_at
		FROM players
		WHERE game_id = ?
		ORDER BY id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []domain.Player
	index := map[string]int{}
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.GameID, &p.DevBuild, &p.CreatedAt, &p.LastSeenAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Props = map[string]string{}
		index[p.ID] = len(players)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return []domain.Player{}, nil
	}

	propRows, err := r.db.QueryContext(ctx, `
		SELECT pp.player_id, pp.key, pp.value
		FROM player_props pp
		JOIN players p ON p.id = pp.player_id
		WHERE p.game_id = ?
		ORDER BY pp.player_id, pp.key
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer propRows.Close()
	for propRows.Next() {
		var playerID, k, v string
		if err := propRows.Scan(&playerID, &k, &v); err != nil {
			return nil, err
		}
		if i, ok := index[playerID]; ok {
			players[i].Props[k] = v
		}
	}
	if err := propRows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func insertProps(ctx context.Context, tx *sql.Tx, playerID string, props map[string]string) error {
	for k, v := range props {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO player_props (player_id, key, value)
			VALUES (?, ?, ?)
		`, playerID, k, v); err != nil {
			return fmt.Errorf("failed to insert prop %q: %w", k, err)
		}
	}
	return nil
}
