package service

import (
	"context"

	"gamehub-backend/internal/domain"
)

// Storage interfaces consumed by the services; implemented by
// internal/repository and by in-memory fakes in tests.

type GameStore interface {
	Get(ctx context.Context, id string) (*domain.Game, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type PlayerStore interface {
	Create(ctx context.Context, player *domain.Player) error
	Update(ctx context.Context, player *domain.Player) error
	Get(ctx context.Context, id string) (*domain.Player, error)
	ListByGame(ctx context.Context, gameID string) ([]domain.Player, error)
}

type GroupStore interface {
	Create(ctx context.Context, group *domain.Group) error
	Update(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Group, error)
	ListByGame(ctx context.Context, gameID string) ([]domain.Group, error)
}

type MembershipStore interface {
	GroupIDsForPlayer(ctx context.Context, playerID, gameID string) ([]string, error)
	ApplyDiff(ctx context.Context, playerID string, add, remove []string) error
	ListMembers(ctx context.Context, groupID string) ([]domain.Player, error)
	CountMembers(ctx context.Context, groupID string) (int, error)
}

// EventSink receives membership-change events after a sync commits.
type EventSink interface {
	Deliver(ctx context.Context, ev domain.MembershipEvent)
}

// NoopSink is used when no webhook endpoint is configured.
type NoopSink struct{}

func (NoopSink) Deliver(context.Context, domain.MembershipEvent) {}
