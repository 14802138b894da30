package service

import (
	"context"
	"errors"

	"gamehub-backend/internal/constants"
	"gamehub-backend/internal/domain"
	"gamehub-backend/internal/rules"

	"github.com/rs/zerolog"
)

// ErrInvalidRuleMode rejects rule modes outside AND/OR; handlers map
// it to a 400.
var ErrInvalidRuleMode = errors.New("ruleMode must be AND or OR")

// GroupInput is the operator-facing definition of a group.
type GroupInput struct {
	Name        string
	Description string
	RuleMode    domain.RuleMode
	Rules       []domain.Rule
}

// GroupWithCount pairs a group with its current member count for
// listing endpoints.
type GroupWithCount struct {
	domain.Group
	MemberCount int
}

type GroupService struct {
	games   GameStore
	groups  GroupStore
	members MembershipStore
	sync    *Synchronizer
	logger  zerolog.Logger
}

func NewGroupService(
	games GameStore,
	groups GroupStore,
	members MembershipStore,
	sync *Synchronizer,
	logger zerolog.Logger,
) *GroupService {
	return &GroupService{games: games, groups: groups, members: members, sync: sync, logger: logger}
}

// Create validates and persists a group, then converges membership for
// the whole game in the background.
func (s *GroupService) Create(ctx context.Context, gameID string, input GroupInput) (*domain.Group, error) {
	exists, err := s.games.Exists(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	group := &domain.Group{
		GameID:      gameID,
		Name:        input.Name,
		Description: input.Description,
		RuleMode:    input.RuleMode,
		Rules:       input.Rules,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	s.resyncInBackground(gameID)
	return group, nil
}

func (s *GroupService) Update(ctx context.Context, groupID string, input GroupInput) (*domain.Group, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	group.Name = input.Name
	group.Description = input.Description
	group.RuleMode = input.RuleMode
	group.Rules = input.Rules
	for i := range group.Rules {
		// replacement rules get fresh ids in the repository
		group.Rules[i].ID = ""
	}

	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}

	s.resyncInBackground(group.GameID)
	return group, nil
}

// Delete removes a group; its rules and membership rows go with it, so
// no resync is needed.
func (s *GroupService) Delete(ctx context.Context, groupID string) error {
	return s.groups.Delete(ctx, groupID)
}

func (s *GroupService) Get(ctx context.Context, groupID string) (*GroupWithCount, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	count, err := s.members.CountMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &GroupWithCount{Group: *group, MemberCount: count}, nil
}

func (s *GroupService) ListByGame(ctx context.Context, gameID string) ([]GroupWithCount, error) {
	exists, err := s.games.Exists(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	groups, err := s.groups.ListByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	out := make([]GroupWithCount, 0, len(groups))
	for _, g := range groups {
		count, err := s.members.CountMembers(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, GroupWithCount{Group: g, MemberCount: count})
	}
	return out, nil
}

func (s *GroupService) Members(ctx context.Context, groupID string) ([]domain.Player, error) {
	if _, err := s.groups.Get(ctx, groupID); err != nil {
		return nil, err
	}
	return s.members.ListMembers(ctx, groupID)
}

func validateInput(input GroupInput) error {
	if input.RuleMode != domain.RuleModeAnd && input.RuleMode != domain.RuleModeOr {
		return ErrInvalidRuleMode
	}
	_, err := rules.CompileSet(input.Rules)
	return err
}

func (s *GroupService) resyncInBackground(gameID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
		defer cancel()
		if err := s.sync.ResyncGame(ctx, gameID); err != nil {
			s.logger.Error().Err(err).Str("game_id", gameID).Msg("game resync failed")
		}
	}()
}
