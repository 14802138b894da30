package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gamehub-backend/internal/domain"

	"github.com/rs/zerolog"
)

type MembershipRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMembershipRepository(sqlDB *sql.DB, logger zerolog.Logger) *MembershipRepository {
	return &MembershipRepository{db: sqlDB, logger: logger}
}

// GroupIDsForPlayer returns the groups a player currently belongs to,
// restricted to one game.
func (r *MembershipRepository) GroupIDsForPlayer(ctx context.Context, playerID, gameID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.group_id
		FROM player_group_members m
		JOIN player_groups g ON g.id = m.group_id
		WHERE m.player_id = ? AND g.game_id = ?
	`, playerID, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApplyDiff commits one player's membership changes atomically: either
// all adds and removes land, or none do.
func (r *MembershipRepository) ApplyDiff(ctx context.Context, playerID string, add, remove []string) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, groupID := range add {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO player_group_members (group_id, player_id)
			VALUES (?, ?)
			ON CONFLICT (group_id, player_id) DO NOTHING
		`, groupID, playerID); err != nil {
			return fmt.Errorf("failed to add membership %s/%s: %w", groupID, playerID, err)
		}
	}
	for _, groupID := range remove {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM player_group_members
			WHERE group_id = ? AND player_id = ?
		`, groupID, playerID); err != nil {
			return fmt.Errorf("failed to remove membership %s/%s: %w", groupID, playerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.logger.Debug().
		Str("player_id", playerID).
		Int("added", len(add)).
		Int("removed", len(remove)).
		Msg("membership diff applied")
	return nil
}

// ListMembers returns the players holding membership in a group, with
// props attached.
func (r *MembershipRepository) ListMembers(ctx context.Context, groupID string) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.game_id, p.dev_build, p.created_at, p.last_seen_at, p.updated_at
		FROM players p
		JOIN player_group_members m ON m.player_id = p.id
		WHERE m.group_id = ?
		ORDER BY p.id
	`, groupID)
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
		JOIN player_group_members m ON m.player_id = pp.player_id
		WHERE m.group_id = ?
		ORDER BY pp.player_id, pp.key
	`, groupID)
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

func (r *MembershipRepository) CountMembers(ctx context.Context, groupID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM player_group_members
		WHERE group_id = ?
	`, groupID).Scan(&n)
	return n, err
}
