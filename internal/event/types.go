package event

// SessionStartedData is published when a session transitions pending -> running.
type SessionStartedData struct {
	SessionID string `json:"sessionID"`
	AgentID   string `json:"agentID"`
	Command   string `json:"command"`
}

// SessionQuestionData is published when ask_user suspends a session.
type SessionQuestionData struct {
	SessionID string `json:"sessionID"`
	Question  string `json:"question"`
	Context   string `json:"context,omitempty"`
}

// SessionResumedData is published when a host answers a pending question.
type SessionResumedData struct {
	SessionID string `json:"sessionID"`
}

// SessionCompletedData is published when a session reaches SessionCompleted.
type SessionCompletedData struct {
	SessionID string  `json:"sessionID"`
	Cost      float64 `json:"cost"`
}

// SessionFailedData is published when a session reaches SessionFailed.
type SessionFailedData struct {
	SessionID string `json:"sessionID"`
	Error     string `json:"error"`
}

// CostWarningData is published the first time a usage crosses a warning
// threshold fraction of the configured cost limit.
type CostWarningData struct {
	SessionID string  `json:"sessionID"`
	Threshold float64 `json:"threshold"`
	Current   float64 `json:"current"`
	Limit     float64 `json:"limit"`
}

// CostLimitExceededData is published when enforce() raises CostLimitExceeded.
type CostLimitExceededData struct {
	SessionID string  `json:"sessionID"`
	Current   float64 `json:"current"`
	Limit     float64 `json:"limit"`
}

// FileEditedData is published whenever the VFS write/edit tool mutates a path.
type FileEditedData struct {
	SessionID string `json:"sessionID"`
	Path      string `json:"path"`
}

// ToolDispatchedData is a structured diagnostic line for one tool dispatch,
// supplementing the teacher's batch-result display (internal/tool/batch.go)
// with a per-call observability event.
type ToolDispatchedData struct {
	SessionID  string `json:"sessionID"`
	ToolName   string `json:"toolName"`
	Success    bool   `json:"success"`
	DurationMS int64  `json:"durationMs"`
}
