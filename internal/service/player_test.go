package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehub-backend/internal/domain"
)

func newTestPlayerService(f *fakeStore) (*PlayerService, *Synchronizer) {
	sync := newTestSynchronizer(f, nil)
	return NewPlayerService(f, playerStoreAdapter{f}, sync, zerolog.Nop()), sync
}

func TestPlayerCreateTriggersSync(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addGame("g1")
	svc, _ := newTestPlayerService(f)

	group := seedGroup(t, f, "g1", domain.RuleModeAnd, setRule("props.vip", false))

	player, err := svc.Create(ctx, "g1", false, map[string]string{"vip": "1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		ids := f.memberIDs(group.ID)
		return len(ids) == 1 && ids[0] == player.ID
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPlayerCreateUnknownGame(t *testing.T) {
	f := newFakeStore()
	svc, _ := newTestPlayerService(f)

	_, err := svc.Create(context.Background(), "missing", false, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlayerPatchUpdatesPropsAndResyncs(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addGame("g1")
	svc, sync := newTestPlayerService(f)

	group := seedGroup(t, f, "g1", domain.RuleModeAnd, setRule("props.vip", false))

	player, err := svc.Create(ctx, "g1", false, nil)
	require.NoError(t, err)
	require.NoError(t, sync.Sync(ctx, player.ID, "g1"))
	require.Empty(t, f.memberIDs(group.ID))

	patched, err := svc.Patch(ctx, player.ID, PlayerPatch{SetProps: map[string]string{"vip": "1"}})
	require.NoError(t, err)
	assert.Equal(t, "1", patched.Props["vip"])

	require.Eventually(t, func() bool {
		ids := f.memberIDs(group.ID)
		return len(ids) == 1 && ids[0] == player.ID
	}, 5*time.Second, 10*time.Millisecond)

	// dropping the prop removes the membership again
	_, err = svc.Patch(ctx, player.ID, PlayerPatch{DeleteProps: []string{"vip"}})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(f.memberIDs(group.ID)) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPlayerPatchDevBuildAndSeen(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addGame("g1")
	svc, _ := newTestPlayerService(f)

	player, err := svc.Create(ctx, "g1", false, nil)
	require.NoError(t, err)

	dev := true
	before := player.LastSeenAt
	patched, err := svc.Patch(ctx, player.ID, PlayerPatch{DevBuild: &dev, TouchSeen: true})
	require.NoError(t, err)
	assert.True(t, patched.DevBuild)
	assert.True(t, patched.LastSeenAt.After(before))

	_, err = svc.Patch(ctx, "missing", PlayerPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
