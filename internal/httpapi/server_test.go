package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmadforge/runtime/internal/client"
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

func newTestServer(t *testing.T, responses []*types.ProviderResponse) *Server {
	t.Helper()
	loader := &stubLoader{defs: map[string]*types.AgentDefinition{
		"dev": {ID: "dev", Name: "Dev Agent"},
	}}
	c := client.New(&stubProvider{responses: responses}, loader, storage.NewMemoryBackend(), nil, 5.0, false)
	cfg := DefaultConfig()
	cfg.EnableCORS = false
	return New(cfg, c)
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateSessionReturnsAcceptedWithID(t *testing.T) {
	s := newTestServer(t, []*types.ProviderResponse{textResponse("done")})

	rec := postJSON(t, s.Router(), "/sessions/", createSessionRequest{AgentID: "dev", Command: "do it"})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp createSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, types.SessionRunning, resp.Status)
}

func TestCreateSessionRejectsMissingFields(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postJSON(t, s.Router(), "/sessions/", createSessionRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSessionReflectsCompletion(t *testing.T) {
	s := newTestServer(t, []*types.ProviderResponse{textResponse("all done")})

	rec := postJSON(t, s.Router(), "/sessions/", createSessionRequest{AgentID: "dev", Command: "do it"})
	var created createSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/sessions/"+created.ID, nil)
		getRec := httptest.NewRecorder()
		s.Router().ServeHTTP(getRec, req)
		if getRec.Code != http.StatusOK {
			return false
		}
		var view sessionView
		_ = json.Unmarshal(getRec.Body.Bytes(), &view)
		return view.Status == types.SessionCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnswerSessionNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postJSON(t, s.Router(), "/sessions/missing/answer", answerSessionRequest{Answer: "42"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointExposesSessionCounts(t *testing.T) {
	s := newTestServer(t, []*types.ProviderResponse{textResponse("done")})

	rec := postJSON(t, s.Router(), "/sessions/", createSessionRequest{AgentID: "dev", Command: "do it"})
	var created createSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		metricsRec := httptest.NewRecorder()
		s.Router().ServeHTTP(metricsRec, req)
		return metricsRec.Code == http.StatusOK && bytes.Contains(metricsRec.Body.Bytes(), []byte("bmadrun_sessions_total"))
	}, time.Second, 5*time.Millisecond)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
