package session

import (
	"time"

	"github.com/bmadforge/runtime/internal/costtracker"
	"github.com/bmadforge/runtime/internal/toolexec"
	"github.com/bmadforge/runtime/internal/vfs"
	"github.com/bmadforge/runtime/pkg/types"
)

// Serialize captures the full session state (§6.4), sufficient for
// Deserialize(Serialize(s)) to reconstruct it byte-for-byte.
func (s *Session) Serialize() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := types.SessionState{
		ID:           s.id,
		AgentID:      s.agentID,
		Command:      s.command,
		Status:       s.status,
		CreatedAt:    s.createdAt.UnixMilli(),
		Messages:     append([]types.Message(nil), s.messages...),
		VFSFiles:     s.vfs.Snapshot(),
		Options:      s.options,
		ProviderType: s.providerType,
		ModelName:    s.modelName,
	}
	if s.startedAt != nil {
		ms := s.startedAt.UnixMilli()
		state.StartedAt = &ms
	}
	if s.pausedAt != nil {
		ms := s.pausedAt.UnixMilli()
		state.PausedAt = &ms
	}
	if s.completedAt != nil {
		ms := s.completedAt.UnixMilli()
		state.CompletedAt = &ms
	}
	state.PendingQuestion = s.pendingQuestion
	if s.costTracker != nil {
		report := s.costTracker.Report()
		state.TotalInputTokens = report.InputTokens
		state.TotalOutputTokens = report.OutputTokens
		state.TotalCost = report.TotalCost
		state.APICallCount = report.APICalls
		state.ChildSessionCosts = report.ChildSessions
	}
	return state
}

// Deserialize reconstructs a Session from a previously serialized state,
// re-wiring it to fresh Deps so it can resume running (§6.4).
func Deserialize(state types.SessionState, deps Deps) *Session {
	s := &Session{
		id:           state.ID,
		agentID:      state.AgentID,
		command:      state.Command,
		status:       state.Status,
		createdAt:    time.UnixMilli(state.CreatedAt),
		messages:     append([]types.Message(nil), state.Messages...),
		vfs:          vfs.New(),
		options:      state.Options,
		providerType: state.ProviderType,
		modelName:    state.ModelName,
		deps:         deps,
		pendingQuestion: state.PendingQuestion,
	}
	s.vfs.Restore(state.VFSFiles)
	if state.StartedAt != nil {
		t := time.UnixMilli(*state.StartedAt)
		s.startedAt = &t
	}
	if state.PausedAt != nil {
		t := time.UnixMilli(*state.PausedAt)
		s.pausedAt = &t
	}
	if state.CompletedAt != nil {
		t := time.UnixMilli(*state.CompletedAt)
		s.completedAt = &t
	}

	s.costTracker = costtrackerFromState(state, deps)
	s.toolExec = toolexec.New(s.vfs, deps.CmdExecutor, s, s) // bound to the restored VFS so ContinueWith can dispatch tools

	if state.Status == types.SessionPaused {
		s.answerCh = make(chan string, 1)
	}

	return s
}

// costtrackerFromState rebuilds a Tracker whose aggregate totals match the
// serialized state. The saved totals include child sessions, so the children's
// tokens and calls are subtracted out and the children re-credited through
// AddChildCost. The saved SessionState keeps no per-model breakdown, so the
// session's own usage is re-seeded under its single configured model; this is
// exact when, as is the common case, a session only ever talks to one model.
func costtrackerFromState(state types.SessionState, deps Deps) *costtracker.Tracker {
	t := costtracker.New(state.ID, state.Options.CostLimit, costtrackerPricing(deps.Provider))
	ownIn, ownOut, ownCalls := state.TotalInputTokens, state.TotalOutputTokens, state.APICallCount
	for _, c := range state.ChildSessionCosts {
		ownIn -= c.InputTokens
		ownOut -= c.OutputTokens
		ownCalls -= c.APICalls
	}
	if ownCalls < 1 && (ownIn > 0 || ownOut > 0) {
		ownCalls = 1
	}
	for i := 0; i < ownCalls; i++ {
		usage := types.Usage{}
		if i == 0 {
			usage = types.Usage{InputTokens: ownIn, OutputTokens: ownOut}
		}
		t.RecordUsage(usage, state.ModelName)
	}
	for _, c := range state.ChildSessionCosts {
		t.AddChildCost(c)
	}
	return t
}
