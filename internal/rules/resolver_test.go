package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehub-backend/internal/domain"
)

func TestResolvePropField(t *testing.T) {
	p := &domain.Player{Props: map[string]string{"hasFinishedGame": "1", "empty": ""}}

	v, ok := Resolve(p, "props.hasFinishedGame")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	// present with an empty value is not the same as absent
	v, ok = Resolve(p, "props.empty")
	require.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = Resolve(p, "props.missing")
	assert.False(t, ok)
}

func TestResolveCoreFields(t *testing.T) {
	seen := time.Date(2022, 5, 3, 14, 30, 0, 0, time.UTC)
	created := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &domain.Player{CreatedAt: created, LastSeenAt: seen, DevBuild: true}

	v, ok := Resolve(p, "lastSeenAt")
	require.True(t, ok)
	assert.Equal(t, "2022-05-03T14:30:00Z", v)

	v, ok = Resolve(p, "createdAt")
	require.True(t, ok)
	assert.Equal(t, "2022-01-01T00:00:00Z", v)

	v, ok = Resolve(p, "devBuild")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	p.DevBuild = false
	v, _ = Resolve(p, "devBuild")
	assert.Equal(t, "0", v)
}

func TestKnownField(t *testing.T) {
	assert.True(t, KnownField("lastSeenAt"))
	assert.True(t, KnownField("createdAt"))
	assert.True(t, KnownField("devBuild"))
	assert.True(t, KnownField("props.anything"))
	assert.False(t, KnownField("props."))
	assert.False(t, KnownField("coins"))
	assert.False(t, KnownField(""))
}
