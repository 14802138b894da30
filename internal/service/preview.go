package service

import (
	"context"

	"gamehub-backend/internal/constants"
	"gamehub-backend/internal/domain"
	"gamehub-backend/internal/rules"

	"github.com/rs/zerolog"
)

// PreviewService answers "how many existing players would this rule
// set match" for ad-hoc, unsaved rule sets. It shares the evaluator
// with the synchronizer, so a previewed count always equals the
// membership the same rules would produce once saved. Read-only.
type PreviewService struct {
	games   GameStore
	players PlayerStore
	logger  zerolog.Logger
}

func NewPreviewService(games GameStore, players PlayerStore, logger zerolog.Logger) *PreviewService {
	return &PreviewService{games: games, players: players, logger: logger}
}

func (s *PreviewService) PreviewCount(ctx context.Context, gameID string, mode domain.RuleMode, ruleSet []domain.Rule) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if mode != domain.RuleModeAnd && mode != domain.RuleModeOr {
		return 0, ErrInvalidRuleMode
	}

	exists, err := s.games.Exists(ctx, gameID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, domain.ErrNotFound
	}

	preds, err := rules.CompileSet(ruleSet)
	if err != nil {
		return 0, err
	}

	players, err := s.players.ListByGame(ctx, gameID)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range players {
		if rules.EvalAll(preds, mode, &players[i]) {
			count++
		}
	}

	s.logger.Debug().
		Str("game_id", gameID).
		Str("rule_mode", string(mode)).
		Int("rules", len(ruleSet)).
		Int("count", count).
		Msg("preview count computed")
	return count, nil
}
