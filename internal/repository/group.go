package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamehub-backend/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type GroupRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGroupRepository(sqlDB *sql.DB, logger zerolog.Logger) *GroupRepository {
	return &GroupRepository{db: sqlDB, logger: logger}
}

func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	if group.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate group id: %w", err)
		}
		group.ID = id
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO player_groups (id, game_id, name, description, rule_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, group.ID, group.GameID, group.Name, group.Description, group.RuleMode, group.CreatedAt, group.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	if err := insertRules(ctx, tx, group); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.logger.Info().
		Str("group_id", group.ID).
		Str("game_id", group.GameID).
		Str("name", group.Name).
		Int("rules", len(group.Rules)).
		Msg("group created")
	return nil
}

// Update rewrites the group row and its entire rule set. Rules are
// owned by the group, so replacing them wholesale is the contract.
func (r *GroupRepository) Update(ctx context.Context, group *domain.Group) error {
	group.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE player_groups
		SET name = ?, description = ?, rule_mode = ?, updated_at = ?
		WHERE id = ?
	`, group.Name, group.Description, group.RuleMode, group.UpdatedAt, group.ID)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_group_rules WHERE group_id = ?`, group.ID); err != nil {
		return fmt.Errorf("failed to clear group rules: %w", err)
	}
	if err := insertRules(ctx, tx, group); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a group; rules and membership rows cascade.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM player_groups WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info().Str("group_id", id).Msg("group deleted")
	return nil
}

func (r *GroupRepository) Get(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	err := r.db.QueryRowContext(ctx, `
		SELECT id, game_id, name, description, rule_mode, created_at, updated_at
		FROM player_groups
		WHERE id = ?
	`, id).Scan(&g.ID, &g.GameID, &g.Name, &g.Description, &g.RuleMode, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rules, err := r.rulesFor(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	g.Rules = rules
	return &g, nil
}

// ListByGame returns every group of a game with rules attached, the
// unit of work for one membership sync.
func (r *GroupRepository) ListByGame(ctx context.Context, gameID string) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, game_id, name, description, rule_mode, created_at, updated_at
		FROM player_groups
		WHERE game_id = ?
		ORDER BY created_at, id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	index := map[string]int{}
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.GameID, &g.Name, &g.Description, &g.RuleMode, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return []domain.Group{}, nil
	}

	ruleRows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.group_id, r.position, r.operator, r.field, r.operands, r.negate, r.cast_type
		FROM player_group_rules r
		JOIN player_groups g ON g.id = r.group_id
		WHERE g.game_id = ?
		ORDER BY r.group_id, r.position
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer ruleRows.Close()
	for ruleRows.Next() {
		rule, err := scanRule(ruleRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[rule.GroupID]; ok {
			groups[i].Rules = append(groups[i].Rules, rule)
		}
	}
	if err := ruleRows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *GroupRepository) rulesFor(ctx context.Context, groupID string) ([]domain.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, position, operator, field, operands, negate, cast_type
		FROM player_group_rules
		WHERE group_id = ?
		ORDER BY position
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanRule(rows *sql.Rows) (domain.Rule, error) {
	var rule domain.Rule
	var operandsJSON string
	if err := rows.Scan(&rule.ID, &rule.GroupID, &rule.Position, &rule.Operator,
		&rule.Field, &operandsJSON, &rule.Negate, &rule.CastType); err != nil {
		return rule, err
	}
	if err := json.Unmarshal([]byte(operandsJSON), &rule.Operands); err != nil {
		return rule, fmt.Errorf("failed to decode operands for rule %s: %w", rule.ID, err)
	}
	return rule, nil
}

func insertRules(ctx context.Context, tx *sql.Tx, group *domain.Group) error {
	for i := range group.Rules {
		rule := &group.Rules[i]
		if rule.ID == "" {
			id, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate rule id: %w", err)
			}
			rule.ID = id
		}
		rule.GroupID = group.ID
		rule.Position = i

		operands := rule.Operands
		if operands == nil {
			operands = []string{}
		}
		operandsJSON, err := json.Marshal(operands)
		if err != nil {
			return fmt.Errorf("failed to encode operands for rule %s: %w", rule.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO player_group_rules (id, group_id, position, operator, field, operands, negate, cast_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, rule.ID, rule.GroupID, rule.Position, rule.Operator, rule.Field,
			string(operandsJSON), rule.Negate, rule.CastType); err != nil {
			return fmt.Errorf("failed to insert rule %s: %w", rule.ID, err)
		}
	}
	return nil
}
