package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmadforge/runtime/internal/storage"
	"github.com/bmadforge/runtime/pkg/types"
)

type stubProvider struct {
	responses []*types.ProviderResponse
	calls     int
}

func (p *stubProvider) SendMessage(ctx context.Context, messages []types.Message, tools []types.Tool, opts types.CompletionOptions) (*types.ProviderResponse, error) {
	resp := p.responses[p.calls]
	if p.calls < len(p.responses)-1 {
		p.calls++
	}
	return resp, nil
}

func (p *stubProvider) CalculateCost(usage types.Usage, model string) float64 { return 0 }
func (p *stubProvider) ModelInfo() types.Model {
	return types.Model{ID: "stub-model", Name: "Stub", ProviderID: "stub"}
}
func (p *stubProvider) PricePer1K(model string) (float64, float64, bool) { return 0.001, 0.002, true }

type stubLoader struct {
	defs map[string]*types.AgentDefinition
}

func (l *stubLoader) Load(id string) (*types.AgentDefinition, error) {
	if def, ok := l.defs[id]; ok {
		return def, nil
	}
	return nil, &stubAgentNotFound{id: id}
}

func (l *stubLoader) Discover() (map[string]string, error) { return map[string]string{}, nil }

type stubAgentNotFound struct{ id string }

func (e *stubAgentNotFound) Error() string { return "agent not found: " + e.id }

func textResponse(text string) *types.ProviderResponse {
	return &types.ProviderResponse{
		Message:    types.Message{Role: types.RoleAssistant, Text: text},
		Usage:      types.Usage{InputTokens: 10, OutputTokens: 5},
		StopReason: types.StopEndTurn,
	}
}

func newTestClient(t *testing.T, responses []*types.ProviderResponse) *Client {
	t.Helper()
	loader := &stubLoader{defs: map[string]*types.AgentDefinition{
		"dev": {ID: "dev", Name: "Dev Agent"},
	}}
	return New(&stubProvider{responses: responses}, loader, storage.NewMemoryBackend(), nil, 5.0, false)
}

func TestNewSessionExecutesToCompletion(t *testing.T) {
	c := newTestClient(t, []*types.ProviderResponse{textResponse("all done")})

	s := c.NewSession("dev", "do the thing")
	result, err := s.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.SessionCompleted, result.Status)
	assert.Equal(t, "all done", result.FinalResponse)
}

func TestResumeReconstructsFromSerializedState(t *testing.T) {
	c := newTestClient(t, []*types.ProviderResponse{textResponse("first")})
	s := c.NewSession("dev", "cmd")
	_, err := s.Execute(context.Background())
	require.NoError(t, err)

	state := s.Serialize()
	resumed := c.Resume(state)
	assert.Equal(t, state.ID, resumed.ID())
	assert.Equal(t, types.SessionCompleted, resumed.Status())
}

func TestSpawnChildRunsNestedSessionToCompletion(t *testing.T) {
	c := newTestClient(t, []*types.ProviderResponse{textResponse("child done")})

	result, vfsFiles, err := c.SpawnChild(context.Background(), "dev", "child task", map[string]any{"parentSessionId": "p1"}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, types.SessionCompleted, result.Status)
	assert.Equal(t, "child done", result.FinalResponse)
	assert.NotNil(t, vfsFiles)
}

func TestSpawnChildUnknownAgentReturnsError(t *testing.T) {
	c := newTestClient(t, []*types.ProviderResponse{textResponse("unused")})

	result, _, err := c.SpawnChild(context.Background(), "ghost", "cmd", nil, 1.0)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestFromConfigRequiresAPIKey(t *testing.T) {
	cfg := &types.Config{Provider: types.ProviderConfig{ID: "anthropic"}}
	_, err := FromConfig(context.Background(), cfg, t.TempDir())
	require.Error(t, err)
}

func TestStorageFromConfigFileBackendRoundTrips(t *testing.T) {
	cfg := &types.Config{Storage: types.StorageConfig{Backend: "file", File: types.FileStorageConfig{Path: t.TempDir()}}}
	backend, err := storageFromConfig(context.Background(), cfg)
	require.NoError(t, err)

	_, err = backend.Save(context.Background(), types.Document{Path: "/a.md", Content: "hi"}, types.StorageMetadata{})
	require.NoError(t, err)

	loaded, err := backend.Load(context.Background(), "/a.md")
	require.NoError(t, err)
	assert.Equal(t, "hi", loaded.Content)
}

func TestStorageFromConfigFileBackendDefaultsWithoutExplicitPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")
	cfg := &types.Config{Storage: types.StorageConfig{Backend: "file"}}
	backend, err := storageFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.FileBackend{}, backend)
}
