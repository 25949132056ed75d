package badger

import (
	"context"
	"testing"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	session := &core.ChatSession{ID: "session-1", Title: "Family chat"}
	require.NoError(t, repos.Sessions.CreateSession(ctx, session))
	assert.False(t, session.CreatedAt.IsZero())

	err := repos.Sessions.CreateSession(ctx, &core.ChatSession{ID: "session-1"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := repos.Sessions.GetSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Family chat", got.Title)

	_, err = repos.Sessions.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestQueryLogs(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Sessions.CreateSession(ctx, &core.ChatSession{ID: "a"}))
	require.NoError(t, repos.Sessions.CreateSession(ctx, &core.ChatSession{ID: "b"}))

	for _, q := range []string{"first", "second", "third"} {
		log, err := repos.Sessions.AddQueryLog(ctx, &core.QueryLog{SessionID: "a", QueryText: q})
		require.NoError(t, err)
		assert.NotZero(t, log.ID)
		assert.False(t, log.CreatedAt.IsZero())
	}
	_, err := repos.Sessions.AddQueryLog(ctx, &core.QueryLog{SessionID: "b", QueryText: "other"})
	require.NoError(t, err)

	logs, err := repos.Sessions.GetQueryLogs(ctx, "a")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "first", logs[0].QueryText)
	assert.Equal(t, "third", logs[2].QueryText)

	session, err := repos.Sessions.GetSession(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, logs[2].CreatedAt, session.UpdatedAt)

	_, err = repos.Sessions.AddQueryLog(ctx, &core.QueryLog{SessionID: "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
