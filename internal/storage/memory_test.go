package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmadforge/runtime/pkg/types"
)

func TestMemoryBackendSaveLoadRoundTrip(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	res, err := b.Save(ctx, types.Document{Path: "/plan.md", Content: "# Plan"}, types.StorageMetadata{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", res.Metadata.MimeType)

	doc, err := b.Load(ctx, "/plan.md")
	require.NoError(t, err)
	assert.Equal(t, "# Plan", doc.Content)
}

func TestMemoryBackendLoadMissingReturnsNotFound(t *testing.T) {
	b := NewMemoryBackend()
	_, err := b.Load(context.Background(), "/missing.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackendDeleteReportsExistence(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	b.Save(ctx, types.Document{Path: "/a.md", Content: "x"}, types.StorageMetadata{})

	existed, err := b.Delete(ctx, "/a.md")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = b.Delete(ctx, "/a.md")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestMemoryBackendListFiltersBySessionID(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	b.Save(ctx, types.Document{Path: "/a.md", Content: "x"}, types.StorageMetadata{SessionID: "s1"})
	b.Save(ctx, types.Document{Path: "/b.md", Content: "y"}, types.StorageMetadata{SessionID: "s2"})

	result, err := b.List(ctx, types.StorageQueryOptions{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.md"}, result.Paths)
	assert.Equal(t, 1, result.Total)
}

func TestMemoryBackendSessionStateRoundTrip(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	state := types.SessionState{ID: "sess-1", AgentID: "dev", Status: types.SessionCompleted}

	require.NoError(t, b.SaveSessionState(ctx, state))

	loaded, err := b.LoadSessionState(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "dev", loaded.AgentID)

	deleted, err := b.DeleteSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestMemoryBackendGetURLReturnsEmpty(t *testing.T) {
	b := NewMemoryBackend()
	url, err := b.GetURL(context.Background(), "/a.md", 0)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestMemoryBackendSaveDocumentsTagsSessionID(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	docs := []types.Document{{Path: "/a.md", Content: "1"}, {Path: "/b.md", Content: "2"}}

	require.NoError(t, b.SaveDocuments(ctx, "sess-x", docs))

	result, err := b.List(ctx, types.StorageQueryOptions{SessionID: "sess-x"})
	require.NoError(t, err)
	assert.Len(t, result.Paths, 2)
}
