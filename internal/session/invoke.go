package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bmadforge/runtime/internal/toolexec"
	"github.com/bmadforge/runtime/pkg/types"
)

// InvokeAgent implements toolexec.AgentInvoker (§4.7). agent_id resolution
// against the known, finite set happens inside the spawned child's own
// Execute -> agentdef.Loader.Load, which already returns ErrAgentNotFound on
// exhaustion; invoke_agent surfaces that as a tool failure rather than
// duplicating the validation here.
func (s *Session) InvokeAgent(ctx context.Context, agentID, command string, invokeCtx map[string]any) (*toolexec.Result, error) {
	if s.deps.Spawner == nil {
		return &toolexec.Result{Success: false, Error: "invoke_agent is not available in this session"}, nil
	}

	start := time.Now()

	parentCtx := map[string]any{"parentSessionId": s.id, "isSubAgent": true}
	for k, v := range invokeCtx {
		parentCtx[k] = v
	}

	result, childVFS, err := s.deps.Spawner.SpawnChild(ctx, agentID, command, parentCtx, s.remainingBudget())
	if err != nil {
		return &toolexec.Result{Success: false, Error: err.Error()}, nil
	}
	if result.Status != types.SessionCompleted {
		return &toolexec.Result{Success: false, Error: result.Error}, nil
	}

	s.mu.Lock()
	if s.costTracker != nil {
		s.costTracker.AddChildCost(types.ChildSessionCost{
			SessionID:    result.SessionID,
			Agent:        agentID,
			Command:      command,
			TotalCost:    result.Costs.TotalCost,
			InputTokens:  result.Costs.InputTokens,
			OutputTokens: result.Costs.OutputTokens,
			APICalls:     result.Costs.APICalls,
		})
	}
	for path, content := range childVFS {
		_ = s.vfs.Write(path, content)
	}
	s.mu.Unlock()

	summary, err := json.Marshal(map[string]any{
		"status":    string(result.Status),
		"agent":     agentID,
		"command":   command,
		"documents": documentSummaries(result.Documents),
		"costs":     result.Costs,
		"duration":  time.Since(start).Milliseconds(),
	})
	if err != nil {
		return &toolexec.Result{Success: false, Error: err.Error()}, nil
	}

	return &toolexec.Result{Success: true, Content: string(summary)}, nil
}

func documentSummaries(docs []types.Document) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, map[string]any{"path": d.Path, "size": len(d.Content)})
	}
	return out
}
