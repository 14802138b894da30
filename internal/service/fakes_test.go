package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gamehub-backend/internal/domain"
)

// fakeStore is an in-memory implementation of the storage interfaces,
// shared by the service tests.
type fakeStore struct {
	mu      sync.Mutex
	seq     int
	clock   time.Time
	games   map[string]*domain.Game
	players map[string]*domain.Player
	groups  map[string]*domain.Group
	members map[string]map[string]bool // group id -> player id set

	diffCalls []diffCall
	failDiffs int // next N ApplyDiff calls fail
}

type diffCall struct {
	playerID string
	add      []string
	remove   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:   time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
		games:   map[string]*domain.Game{},
		players: map[string]*domain.Player{},
		groups:  map[string]*domain.Group{},
		members: map[string]map[string]bool{},
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) addGame(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games[id] = &domain.Game{ID: id, Name: id, CreatedAt: f.tick()}
}

func (f *fakeStore) Get(ctx context.Context, id string) (*domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeStore) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.games[id]
	return ok, nil
}

func copyPlayer(p *domain.Player) *domain.Player {
	cp := *p
	cp.Props = make(map[string]string, len(p.Props))
	for k, v := range p.Props {
		cp.Props[k] = v
	}
	return &cp
}

func (f *fakeStore) Create(ctx context.Context, player *domain.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if player.ID == "" {
		player.ID = f.nextID("p")
	}
	now := f.tick()
	player.CreatedAt = now
	player.LastSeenAt = now
	player.UpdatedAt = now
	f.players[player.ID] = copyPlayer(player)
	return nil
}

func (f *fakeStore) Update(ctx context.Context, player *domain.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[player.ID]; !ok {
		return domain.ErrNotFound
	}
	player.UpdatedAt = f.tick()
	f.players[player.ID] = copyPlayer(player)
	return nil
}

func (f *fakeStore) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyPlayer(p), nil
}

func (f *fakeStore) ListByGame(ctx context.Context, gameID string) ([]domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Player
	for _, p := range f.players {
		if p.GameID == gameID {
			out = append(out, *copyPlayer(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyGroup(g *domain.Group) *domain.Group {
	cp := *g
	cp.Rules = append([]domain.Rule(nil), g.Rules...)
	return &cp
}

func (f *fakeStore) CreateGroup(ctx context.Context, group *domain.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if group.ID == "" {
		group.ID = f.nextID("grp")
	}
	now := f.tick()
	group.CreatedAt = now
	group.UpdatedAt = now
	for i := range group.Rules {
		if group.Rules[i].ID == "" {
			group.Rules[i].ID = f.nextID("r")
		}
		group.Rules[i].GroupID = group.ID
		group.Rules[i].Position = i
	}
	f.groups[group.ID] = copyGroup(group)
	return nil
}

func (f *fakeStore) UpdateGroup(ctx context.Context, group *domain.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[group.ID]; !ok {
		return domain.ErrNotFound
	}
	group.UpdatedAt = f.tick()
	for i := range group.Rules {
		if group.Rules[i].ID == "" {
			group.Rules[i].ID = f.nextID("r")
		}
		group.Rules[i].GroupID = group.ID
		group.Rules[i].Position = i
	}
	f.groups[group.ID] = copyGroup(group)
	return nil
}

func (f *fakeStore) DeleteGroup(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.groups, id)
	delete(f.members, id)
	return nil
}

func (f *fakeStore) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyGroup(g), nil
}

func (f *fakeStore) ListGroupsByGame(ctx context.Context, gameID string) ([]domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Group
	for _, g := range f.groups {
		if g.GameID == gameID {
			out = append(out, *copyGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GroupIDsForPlayer(ctx context.Context, playerID, gameID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for groupID, set := range f.members {
		g, ok := f.groups[groupID]
		if !ok || g.GameID != gameID {
			continue
		}
		if set[playerID] {
			ids = append(ids, groupID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) ApplyDiff(ctx context.Context, playerID string, add, remove []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	f.diffCalls = append(f.diffCalls, diffCall{playerID: playerID, add: add, remove: remove})
	if f.failDiffs > 0 {
		f.failDiffs--
		return fmt.Errorf("storage unavailable")
	}
	for _, groupID := range add {
		if f.members[groupID] == nil {
			f.members[groupID] = map[string]bool{}
		}
		f.members[groupID][playerID] = true
	}
	for _, groupID := range remove {
		delete(f.members[groupID], playerID)
	}
	return nil
}

func (f *fakeStore) ListMembers(ctx context.Context, groupID string) ([]domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Player
	for playerID := range f.members[groupID] {
		if p, ok := f.players[playerID]; ok {
			out = append(out, *copyPlayer(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CountMembers(ctx context.Context, groupID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members[groupID]), nil
}

func (f *fakeStore) memberIDs(groupID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.members[groupID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// playerStoreAdapter and groupStoreAdapter pick the right method set
// off the shared fake, since PlayerStore.Get and GroupStore.Get would
// otherwise collide with GameStore.Get.
type playerStoreAdapter struct{ *fakeStore }

func (a playerStoreAdapter) Get(ctx context.Context, id string) (*domain.Player, error) {
	return a.GetPlayer(ctx, id)
}

type groupStoreAdapter struct{ *fakeStore }

func (a groupStoreAdapter) Create(ctx context.Context, g *domain.Group) error {
	return a.CreateGroup(ctx, g)
}
func (a groupStoreAdapter) Update(ctx context.Context, g *domain.Group) error {
	return a.UpdateGroup(ctx, g)
}
func (a groupStoreAdapter) Delete(ctx context.Context, id string) error {
	return a.DeleteGroup(ctx, id)
}
func (a groupStoreAdapter) Get(ctx context.Context, id string) (*domain.Group, error) {
	return a.GetGroup(ctx, id)
}
func (a groupStoreAdapter) ListByGame(ctx context.Context, gameID string) ([]domain.Group, error) {
	return a.ListGroupsByGame(ctx, gameID)
}

// recordingSink captures delivered membership events.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.MembershipEvent
}

func (r *recordingSink) Deliver(_ context.Context, ev domain.MembershipEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) all() []domain.MembershipEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.MembershipEvent(nil), r.events...)
}
