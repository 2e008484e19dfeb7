package types

// SessionStatus is the lifecycle state of a one-shot session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionRunning   SessionStatus = "running"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// ConversationalStatus is the lifecycle state of a conversational session.
type ConversationalStatus string

const (
	ConvIdle             ConversationalStatus = "idle"
	ConvProcessing       ConversationalStatus = "processing"
	ConvWaitingForAnswer ConversationalStatus = "waiting_for_answer"
	ConvEnded            ConversationalStatus = "ended"
	ConvError            ConversationalStatus = "error"
)

// ModelCost is the per-model token totals and derived cost inside a CostReport.
type ModelCost struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	Cost         float64 `json:"cost"`
}

// ChildSessionCost is the rolled-up cost of one completed sub-agent session,
// credited into the parent's CostReport.
type ChildSessionCost struct {
	SessionID    string  `json:"sessionID"`
	Agent        string  `json:"agent"`
	Command      string  `json:"command"`
	TotalCost    float64 `json:"totalCost"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	APICalls     int     `json:"apiCalls"`
}

// CostReport is the final cost accounting surfaced in a SessionResult.
type CostReport struct {
	TotalCost      float64            `json:"totalCost"`
	Currency       string             `json:"currency"`
	InputTokens    int                `json:"inputTokens"`
	OutputTokens   int                `json:"outputTokens"`
	APICalls       int                `json:"apiCalls"`
	Breakdown      []ModelCost        `json:"breakdown"`
	ChildSessions  []ChildSessionCost `json:"childSessions,omitempty"`
}

// PendingQuestion records an outstanding ask_user request that has paused a
// session awaiting a host-supplied answer.
type PendingQuestion struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

// SessionOptions configures a session at creation time.
type SessionOptions struct {
	CostLimit         float64        `json:"costLimit,omitempty"`
	Context           map[string]any `json:"context,omitempty"`
	AutoSave          bool           `json:"autoSave"`
	ExpansionPackPaths []string      `json:"expansionPackPaths,omitempty"`
}

// Document is a named piece of textual content produced into, or read back
// out of, a session's virtual filesystem.
type Document struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// SessionState is the full serialized form of a one-shot session, sufficient
// to reconstruct it byte-for-byte via deserialize(serialize(s)).
type SessionState struct {
	ID          string        `json:"id"`
	AgentID     string        `json:"agentId"`
	Command     string        `json:"command"`
	Status      SessionStatus `json:"status"`
	CreatedAt   int64         `json:"createdAt"`
	StartedAt   *int64        `json:"startedAt,omitempty"`
	PausedAt    *int64        `json:"pausedAt,omitempty"`
	CompletedAt *int64        `json:"completedAt,omitempty"`

	Messages []Message         `json:"messages"`
	VFSFiles map[string]string `json:"vfsFiles"`

	TotalInputTokens  int                `json:"totalInputTokens"`
	TotalOutputTokens int                `json:"totalOutputTokens"`
	TotalCost         float64            `json:"totalCost"`
	APICallCount      int                `json:"apiCallCount"`
	ChildSessionCosts []ChildSessionCost `json:"childSessionCosts,omitempty"`

	PendingQuestion *PendingQuestion `json:"pendingQuestion,omitempty"`

	Options      SessionOptions `json:"options"`
	ProviderType string         `json:"providerType"`
	ModelName    string         `json:"modelName,omitempty"`
}

// SessionResult is returned by Execute/ContinueWith regardless of outcome.
type SessionResult struct {
	SessionID     string        `json:"sessionId"`
	Status        SessionStatus `json:"status"`
	FinalResponse string        `json:"finalResponse,omitempty"`
	Documents     []Document    `json:"documents"`
	Costs         CostReport    `json:"costs"`
	Error         string        `json:"error,omitempty"`
}

// TurnRecord captures one exchange in a conversational session.
type TurnRecord struct {
	ID            string    `json:"id"`
	UserMessage   string    `json:"userMessage"`
	AgentResponse string    `json:"agentResponse"`
	ToolCalls     []string  `json:"toolCalls,omitempty"`
	TokensUsed    Usage     `json:"tokensUsed"`
	Cost          float64   `json:"cost"`
	Timestamp     int64     `json:"timestamp"`
}

// ConversationResult is returned when a conversational session ends.
type ConversationResult struct {
	SessionID string       `json:"sessionId"`
	Turns     []TurnRecord `json:"turns"`
	Documents []Document   `json:"documents"`
	Costs     CostReport   `json:"costs"`
	DurationMS int64       `json:"durationMs"`
}
