package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmadforge/runtime/pkg/types"
)

func newTestFileBackend(t *testing.T) *FileBackend {
	t.Helper()
	b := NewFileBackend(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, b.Initialize(context.Background()))
	return b
}

func TestFileBackendSaveLoadRoundTrip(t *testing.T) {
	b := newTestFileBackend(t)
	ctx := context.Background()

	_, err := b.Save(ctx, types.Document{Path: "/plan.md", Content: "# Plan"}, types.StorageMetadata{SessionID: "s1"})
	require.NoError(t, err)

	doc, err := b.Load(ctx, "/plan.md")
	require.NoError(t, err)
	assert.Equal(t, "# Plan", doc.Content)
}

func TestFileBackendLoadMissingReturnsNotFound(t *testing.T) {
	b := newTestFileBackend(t)
	_, err := b.Load(context.Background(), "/missing.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileBackendExistsAndDelete(t *testing.T) {
	b := newTestFileBackend(t)
	ctx := context.Background()
	b.Save(ctx, types.Document{Path: "/a.md", Content: "x"}, types.StorageMetadata{})

	exists, err := b.Exists(ctx, "/a.md")
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := b.Delete(ctx, "/a.md")
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err = b.Exists(ctx, "/a.md")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileBackendSessionStateRoundTrip(t *testing.T) {
	b := newTestFileBackend(t)
	ctx := context.Background()
	state := types.SessionState{ID: "sess-1", AgentID: "dev", Status: types.SessionRunning}

	require.NoError(t, b.SaveSessionState(ctx, state))

	loaded, err := b.LoadSessionState(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, types.SessionRunning, loaded.Status)
}

func TestFileBackendListSessionsFiltersByAgent(t *testing.T) {
	b := newTestFileBackend(t)
	ctx := context.Background()
	require.NoError(t, b.SaveSessionState(ctx, types.SessionState{ID: "s1", AgentID: "dev"}))
	require.NoError(t, b.SaveSessionState(ctx, types.SessionState{ID: "s2", AgentID: "pm"}))

	result, err := b.ListSessions(ctx, types.StorageQueryOptions{AgentID: "dev"})
	require.NoError(t, err)
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, "s1", result.Sessions[0].ID)
}
