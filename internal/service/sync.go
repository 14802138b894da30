package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gamehub-backend/internal/constants"
	"gamehub-backend/internal/domain"
	"gamehub-backend/internal/rules"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// Synchronizer keeps the derived group membership relation consistent
// with player state. Every sync is a full re-evaluation of all of the
// game's groups against one player, which makes retries idempotent: a
// re-run with current inputs converges to the same membership no matter
// what the failed attempt saw.
type Synchronizer struct {
	groups  GroupStore
	players PlayerStore
	members MembershipStore
	events  EventSink
	logger  zerolog.Logger

	lockMu sync.Mutex
	locks  map[string]*playerLock

	cacheMu sync.Mutex
	cache   map[string]compiledGroup
}

// playerLock serializes syncs for one player. Refcounted so idle
// entries do not accumulate.
type playerLock struct {
	mu   sync.Mutex
	refs int
}

type compiledGroup struct {
	updatedAt time.Time
	preds     []rules.Predicate
	err       error
}

func NewSynchronizer(
	groups GroupStore,
	players PlayerStore,
	members MembershipStore,
	events EventSink,
	logger zerolog.Logger,
) *Synchronizer {
	return &Synchronizer{
		groups:  groups,
		players: players,
		members: members,
		events:  events,
		logger:  logger,
		locks:   map[string]*playerLock{},
		cache:   map[string]compiledGroup{},
	}
}

// Enqueue schedules a sync for a player whose write just committed.
// It returns immediately; failures are retried with backoff out of
// band and never surface to the triggering request.
func (s *Synchronizer) Enqueue(playerID, gameID string) {
	go func() {
		backoff := retry.WithMaxRetries(constants.SyncMaxRetries, retry.NewFibonacci(constants.SyncRetryBase))
		err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
			defer cancel()
			if err := s.Sync(attemptCtx, playerID, gameID); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("player_id", playerID).
				Str("game_id", gameID).
				Msg("membership sync abandoned after retries")
		}
	}()
}

// Sync recomputes the player's membership across every group of the
// game and commits the difference atomically. Syncs for the same
// player are serialized; different players run independently.
func (s *Synchronizer) Sync(ctx context.Context, playerID, gameID string) error {
	lock := s.acquire(playerID)
	defer s.release(playerID, lock)

	player, err := s.players.Get(ctx, playerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// deleted between trigger and sync; membership rows cascade
			return nil
		}
		return err
	}

	groups, err := s.groups.ListByGame(ctx, gameID)
	if err != nil {
		return err
	}

	currentIDs, err := s.members.GroupIDsForPlayer(ctx, playerID, gameID)
	if err != nil {
		return err
	}
	current := make(map[string]bool, len(currentIDs))
	for _, id := range currentIDs {
		current[id] = true
	}

	var add, remove []string
	for _, g := range groups {
		compiled := s.predicatesFor(&g)
		if compiled.err != nil {
			// a stored group failing to compile means validation was
			// bypassed; leave its membership untouched rather than
			// guessing
			s.logger.Error().
				Err(compiled.err).
				Str("group_id", g.ID).
				Msg("stored group has invalid rules, skipping")
			continue
		}
		matches := rules.EvalAll(compiled.preds, g.RuleMode, player)
		switch {
		case matches && !current[g.ID]:
			add = append(add, g.ID)
		case !matches && current[g.ID]:
			remove = append(remove, g.ID)
		}
	}

	if err := s.members.ApplyDiff(ctx, playerID, add, remove); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, groupID := range add {
		s.events.Deliver(ctx, domain.MembershipEvent{
			Type: domain.EventGroupEntered, GameID: gameID, GroupID: groupID, PlayerID: playerID, OccurredAt: now,
		})
	}
	for _, groupID := range remove {
		s.events.Deliver(ctx, domain.MembershipEvent{
			Type: domain.EventGroupLeft, GameID: gameID, GroupID: groupID, PlayerID: playerID, OccurredAt: now,
		})
	}

	s.logger.Debug().
		Str("player_id", playerID).
		Str("game_id", gameID).
		Int("groups", len(groups)).
		Int("entered", len(add)).
		Int("left", len(remove)).
		Msg("membership sync complete")
	return nil
}

// ResyncGame re-evaluates every player of a game, used after a group
// is created or its rules change so membership converges without
// waiting for the next player write.
func (s *Synchronizer) ResyncGame(ctx context.Context, gameID string) error {
	players, err := s.players.ListByGame(ctx, gameID)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.ResyncConcurrency)
	for _, p := range players {
		playerID := p.ID
		g.Go(func() error {
			return s.Sync(ctx, playerID, gameID)
		})
	}
	return g.Wait()
}

// predicatesFor returns the compiled rule set for a group, recompiling
// only when the group's version changed. Rules change rarely, players
// write constantly.
func (s *Synchronizer) predicatesFor(g *domain.Group) compiledGroup {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if c, ok := s.cache[g.ID]; ok && c.updatedAt.Equal(g.UpdatedAt) {
		return c
	}
	preds, err := rules.CompileSet(g.Rules)
	c := compiledGroup{updatedAt: g.UpdatedAt, preds: preds, err: err}
	s.cache[g.ID] = c
	return c
}

func (s *Synchronizer) acquire(playerID string) *playerLock {
	s.lockMu.Lock()
	l := s.locks[playerID]
	if l == nil {
		l = &playerLock{}
		s.locks[playerID] = l
	}
	l.refs++
	s.lockMu.Unlock()

	l.mu.Lock()
	return l
}

func (s *Synchronizer) release(playerID string, l *playerLock) {
	l.mu.Unlock()

	s.lockMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, playerID)
	}
	s.lockMu.Unlock()
}
