package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehub-backend/internal/domain"
	"gamehub-backend/internal/rules"
)

func newTestGroupService(f *fakeStore) *GroupService {
	sync := newTestSynchronizer(f, nil)
	return NewGroupService(f, groupStoreAdapter{f}, f, sync, zerolog.Nop())
}

func TestGroupCreateValidates(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addGame("g1")
	svc := newTestGroupService(f)

	tests := []struct {
		name  string
		input GroupInput
	}{
		{"bad rule mode", GroupInput{Name: "x", RuleMode: "NAND"}},
		{"unknown field", GroupInput{Name: "x", RuleMode: domain.RuleModeAnd, Rules: []domain.Rule{
			{Operator: domain.OperatorEquals, Field: "score", Operands: []string{"1"}, CastType: domain.CastChar},
		}}},
		{"bad operand cast", GroupInput{Name: "x", RuleMode: domain.RuleModeAnd, Rules: []domain.Rule{
			{Operator: domain.OperatorLT, Field: "props.score", Operands: []string{"low"}, CastType: domain.CastDouble},
		}}},
		{"set on core field", GroupInput{Name: "x", RuleMode: domain.RuleModeOr, Rules: []domain.Rule{
			{Operator: domain.OperatorSet, Field: "devBuild"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "g1", tt.input)
			require.Error(t, err)
		})
	}

	// nothing was persisted
	groups, err := f.ListGroupsByGame(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupCreateUnknownGame(t *testing.T) {
	f := newFakeStore()
	svc := newTestGroupService(f)

	_, err := svc.Create(context.Background(), "missing", GroupInput{Name: "x", RuleMode: domain.RuleModeAnd})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupCreatePersistsValidInput(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addGame("g1")
	svc := newTestGroupService(f)

	group, err := svc.Create(ctx, "g1", GroupInput{
		Name:        "finishers",
		Description: "players who finished the game",
		RuleMode:    domain.RuleModeAnd,
		Rules:       []domain.Rule{setRule("props.hasFinishedGame", false)},
	})
	require.NoError(t, err)
	require.NotEmpty(t, group.ID)

	stored, err := f.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "finishers", stored.Name)
	require.Len(t, stored.Rules, 1)
	assert.Equal(t, domain.OperatorSet, stored.Rules[0].Operator)
}

func TestGroupUpdateRejectsInvalidRules(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addGame("g1")
	svc := newTestGroupService(f)

	group, err := svc.Create(ctx, "g1", GroupInput{Name: "x", RuleMode: domain.RuleModeAnd})
	require.NoError(t, err)

	_, err = svc.Update(ctx, group.ID, GroupInput{Name: "x", RuleMode: domain.RuleModeAnd, Rules: []domain.Rule{
		{Operator: "NEVER", Field: "props.x", CastType: domain.CastChar},
	}})
	require.Error(t, err)
	var verr *rules.ValidationError
	assert.ErrorAs(t, err, &verr)

	// stored rules unchanged
	stored, err := f.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Rules)
}

func TestGroupDeleteRemovesMembership(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addGame("g1")
	svc := newTestGroupService(f)
	sync := newTestSynchronizer(f, nil)

	player := seedPlayer(t, f, "g1", map[string]string{"x": "1"})
	group := seedGroup(t, f, "g1", domain.RuleModeAnd, setRule("props.x", false))
	require.NoError(t, sync.Sync(ctx, player.ID, "g1"))
	require.Len(t, f.memberIDs(group.ID), 1)

	require.NoError(t, svc.Delete(ctx, group.ID))
	assert.Empty(t, f.memberIDs(group.ID))

	err := svc.Delete(ctx, group.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupListWithCounts(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	f.addGame("g1")
	svc := newTestGroupService(f)
	sync := newTestSynchronizer(f, nil)

	seedPlayer(t, f, "g1", map[string]string{"x": "1"})
	seedPlayer(t, f, "g1", map[string]string{"x": "1"})
	seedPlayer(t, f, "g1", nil)
	group := seedGroup(t, f, "g1", domain.RuleModeAnd, setRule("props.x", false))
	require.NoError(t, sync.ResyncGame(ctx, "g1"))

	listed, err := svc.ListByGame(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, group.ID, listed[0].ID)
	assert.Equal(t, 2, listed[0].MemberCount)
}
