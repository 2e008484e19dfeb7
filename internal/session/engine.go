package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bmadforge/runtime/internal/agentdef"
	"github.com/bmadforge/runtime/internal/cmdexec"
	"github.com/bmadforge/runtime/internal/costtracker"
	"github.com/bmadforge/runtime/internal/event"
	"github.com/bmadforge/runtime/internal/provider"
	"github.com/bmadforge/runtime/internal/toolexec"
	"github.com/bmadforge/runtime/internal/vfs"
	"github.com/bmadforge/runtime/pkg/types"
)

// MaxLoopIterations bounds the tool-call loop per §4.6 step 8.
const MaxLoopIterations = 50

// RetryMaxElapsedTime bounds how long a flaky provider call is retried
// before its ProviderError is surfaced as fatal, matching the teacher's
// session/loop.go backoff ceiling.
const RetryMaxElapsedTime = 2 * time.Minute

// Storage is the narrow slice of the storage abstraction (§4.9) the engine
// needs for autosave and document persistence. The full contract lives in
// internal/storage; this interface lets session depend on behavior, not a
// concrete package, avoiding an import cycle.
type Storage interface {
	SaveSessionState(ctx context.Context, state types.SessionState) error
	SaveDocuments(ctx context.Context, sessionID string, docs []types.Document) error
}

// Spawner creates and runs a nested session for invoke_agent (§4.7). Client
// implements this.
type Spawner interface {
	SpawnChild(ctx context.Context, agentID, command string, parentContext map[string]any, costLimit float64) (*types.SessionResult, map[string]string, error)
}

// Deps bundles a Session's external collaborators.
type Deps struct {
	Provider    provider.LLMProvider
	Loader      agentdef.Loader
	CmdExecutor *cmdexec.Executor // nil disables execute_command
	Spawner     Spawner           // nil disables invoke_agent
	Storage     Storage           // nil disables autosave/persistence
}

// Session is the one-shot engine (§4.6). It is also the building block the
// conversational driver (§4.8) wraps.
type Session struct {
	mu sync.Mutex

	id      string
	agentID string
	command string
	status  types.SessionStatus

	createdAt   time.Time
	startedAt   *time.Time
	pausedAt    *time.Time
	completedAt *time.Time

	messages []types.Message
	vfs      *vfs.VFS

	options     types.SessionOptions
	costTracker *costtracker.Tracker

	pendingQuestion *types.PendingQuestion
	answerCh        chan string

	providerType string
	modelName    string

	deps     Deps
	toolExec *toolexec.Executor
}

// New constructs a pending Session. Execute must be called to run it.
func New(id, agentID, command string, opts types.SessionOptions, deps Deps) *Session {
	s := &Session{
		id:        id,
		agentID:   agentID,
		command:   command,
		status:    types.SessionPending,
		createdAt: time.Now(),
		vfs:       vfs.New(),
		options:   opts,
		deps:      deps,
	}
	return s
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Status returns the session's current lifecycle state.
func (s *Session) Status() types.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) setStatus(status types.SessionStatus) {
	s.status = status
}

// Execute runs the session from pending through to completed/failed,
// implementing the lifecycle and tool-call loop in §4.6.
func (s *Session) Execute(ctx context.Context) (*types.SessionResult, error) {
	s.mu.Lock()
	if s.status != types.SessionPending {
		s.mu.Unlock()
		return nil, &StateError{Op: "execute", Status: string(s.status)}
	}
	now := time.Now()
	s.startedAt = &now
	s.setStatus(types.SessionRunning)
	s.mu.Unlock()

	event.Publish(event.Event{Type: event.SessionStarted, Data: event.SessionStartedData{SessionID: s.id, AgentID: s.agentID, Command: s.command}})

	def, err := s.deps.Loader.Load(s.agentID)
	if err != nil {
		return s.fail(ctx, err)
	}

	s.costTracker = costtracker.New(s.id, s.options.CostLimit, costtrackerPricing(s.deps.Provider))

	if err := s.seedAgentDefinitions(); err != nil {
		return s.fail(ctx, err)
	}

	model := s.deps.Provider.ModelInfo()
	s.providerType = model.ProviderID
	s.modelName = model.ID

	s.toolExec = toolexec.New(s.vfs, s.deps.CmdExecutor, s, s)

	systemPrompt := buildSystemPrompt(def, toolexec.Catalog())
	s.messages = []types.Message{
		{Role: types.RoleSystem, Text: systemPrompt},
		{Role: types.RoleUser, Text: fmt.Sprintf("Execute command: %s", s.command)},
	}

	return s.runLoop(ctx)
}

// ContinueWith appends a new user message and re-runs the loop. Only valid
// when status is completed (§4.6 Continuation).
func (s *Session) ContinueWith(ctx context.Context, message string) (*types.SessionResult, error) {
	s.mu.Lock()
	if s.status != types.SessionCompleted {
		status := s.status
		s.mu.Unlock()
		return nil, &StateError{Op: "continueWith", Status: string(status)}
	}
	s.setStatus(types.SessionRunning)
	s.messages = append(s.messages, types.Message{Role: types.RoleUser, Text: message})
	s.mu.Unlock()

	return s.runLoop(ctx)
}

// runLoop drives the provider/tool exchange until a terminal stopReason, the
// iteration bound, or an error.
func (s *Session) runLoop(ctx context.Context) (*types.SessionResult, error) {
	tools := toolexec.Catalog()

	for iteration := 0; iteration < MaxLoopIterations; iteration++ {
		resp, err := s.sendWithRetry(ctx, tools)
		if err != nil {
			return s.fail(ctx, &provider.ProviderError{Op: "sendMessage", Err: err})
		}

		s.mu.Lock()
		s.costTracker.RecordUsage(resp.Usage, s.modelName)
		s.messages = append(s.messages, resp.Message)
		s.mu.Unlock()
		s.autosave(ctx)

		switch resp.StopReason {
		case types.StopEndTurn, types.StopStopSequence:
			return s.complete(ctx)
		case types.StopMaxTokens:
			return s.complete(ctx)
		case types.StopToolUse:
			if err := s.executeToolUseBlocks(ctx, resp.Message); err != nil {
				return s.fail(ctx, err)
			}
			if err := s.costTracker.Enforce(); err != nil {
				return s.fail(ctx, err)
			}
			continue
		default:
			return s.complete(ctx)
		}
	}

	return s.fail(ctx, &LoopBoundExceededError{SessionID: s.id, Bound: MaxLoopIterations})
}

// sendWithRetry wraps the provider call in the bounded, jittered backoff
// described in §4.6, the same shape the teacher's session/loop.go uses
// around its completion call.
func (s *Session) sendWithRetry(ctx context.Context, tools []types.Tool) (*types.ProviderResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = RetryMaxElapsedTime
	b.RandomizationFactor = 0.5

	var resp *types.ProviderResponse
	operation := func() error {
		s.mu.Lock()
		messages := append([]types.Message(nil), s.messages...)
		s.mu.Unlock()

		r, err := s.deps.Provider.SendMessage(ctx, messages, tools, types.CompletionOptions{})
		if err != nil {
			return err
		}
		resp = r
		return nil
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// executeToolUseBlocks runs every tool_use block in the assistant's last
// message, in order, and appends one user message carrying their
// tool_result blocks (§4.6 step 8d, §5 ordering guarantees).
func (s *Session) executeToolUseBlocks(ctx context.Context, assistantMsg types.Message) error {
	toolUses := assistantMsg.ToolUseBlocks()
	if len(toolUses) == 0 {
		return nil
	}

	results := make([]types.ContentBlock, 0, len(toolUses))
	for _, tu := range toolUses {
		start := time.Now()
		result := s.toolExec.Execute(ctx, tu.ToolName, tu.ToolInput)
		event.Publish(event.Event{Type: event.ToolDispatched, Data: event.ToolDispatchedData{SessionID: s.id, ToolName: tu.ToolName, Success: result.Success, DurationMS: time.Since(start).Milliseconds()}})

		if result.Success {
			results = append(results, types.NewToolResultBlock(tu.ToolUseID, result.Content, false))
			if tu.ToolName == "write_file" || tu.ToolName == "edit_file" {
				if path, ok := tu.ToolInput["file_path"].(string); ok {
					event.Publish(event.Event{Type: event.FileEdited, Data: event.FileEditedData{SessionID: s.id, Path: path}})
				}
			}
		} else {
			results = append(results, types.NewToolResultBlock(tu.ToolUseID, result.Error, true))
		}
	}

	s.mu.Lock()
	s.messages = append(s.messages, types.Message{Role: types.RoleUser, Blocks: results})
	s.mu.Unlock()
	return nil
}

func (s *Session) seedAgentDefinitions() error {
	files, err := s.deps.Loader.Discover()
	if err != nil {
		return err
	}
	for path, content := range files {
		if err := s.vfs.Write(path, content); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) complete(ctx context.Context) (*types.SessionResult, error) {
	s.mu.Lock()
	now := time.Now()
	s.completedAt = &now
	s.setStatus(types.SessionCompleted)
	s.mu.Unlock()

	result := &types.SessionResult{
		SessionID:     s.id,
		Status:        types.SessionCompleted,
		FinalResponse: lastAssistantText(s.messages),
		Documents:     s.documents(),
		Costs:         s.costTracker.Report(),
	}

	if s.deps.Storage != nil {
		_ = s.deps.Storage.SaveDocuments(ctx, s.id, result.Documents)
	}
	s.autosave(ctx)
	event.Publish(event.Event{Type: event.SessionCompleted, Data: event.SessionCompletedData{SessionID: s.id, Cost: result.Costs.TotalCost}})
	return result, nil
}

func (s *Session) fail(ctx context.Context, cause error) (*types.SessionResult, error) {
	s.mu.Lock()
	now := time.Now()
	s.completedAt = &now
	s.setStatus(types.SessionFailed)
	s.mu.Unlock()

	result := &types.SessionResult{
		SessionID: s.id,
		Status:    types.SessionFailed,
		Documents: s.documents(),
		Error:     cause.Error(),
	}
	if s.costTracker != nil {
		result.Costs = s.costTracker.Report()
	}
	s.autosave(ctx)
	event.Publish(event.Event{Type: event.SessionFailed, Data: event.SessionFailedData{SessionID: s.id, Error: cause.Error()}})
	return result, cause
}

func (s *Session) documents() []types.Document {
	raw := s.vfs.Documents()
	docs := make([]types.Document, 0, len(raw))
	for _, d := range raw {
		docs = append(docs, types.Document{Path: d.Path, Content: d.Content})
	}
	return docs
}

func (s *Session) autosave(ctx context.Context) {
	if !s.options.AutoSave || s.deps.Storage == nil {
		return
	}
	_ = s.deps.Storage.SaveSessionState(ctx, s.Serialize())
}

func lastAssistantText(messages []types.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleAssistant {
			if text := messages[i].TextContent(); text != "" {
				return text
			}
		}
	}
	return ""
}

func costtrackerPricing(p provider.LLMProvider) costtracker.PricingLookup {
	return p
}

// remainingBudget reports the cost still available before costLimit is hit,
// used to cap a child session's budget per §4.6 sub-agent accounting.
func (s *Session) remainingBudget() float64 {
	if s.costTracker == nil {
		return s.options.CostLimit
	}
	return s.costTracker.RemainingBudget()
}
