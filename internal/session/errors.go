package session

import "fmt"

// LoopBoundExceededError is raised when the tool-call loop exhausts its
// 50-iteration safety bound (§4.6 step 9) without reaching a terminal
// stopReason.
type LoopBoundExceededError struct {
	SessionID string
	Bound     int
}

func (e *LoopBoundExceededError) Error() string {
	return fmt.Sprintf("session %s exceeded the %d-iteration tool-call loop bound", e.SessionID, e.Bound)
}

// StateError is raised for an operation invalid in the session's current
// status (answering with no pending question, sending during processing,
// ending during processing, continuing a non-completed session) — per §7
// it is raised to the caller and leaves session state unchanged.
type StateError struct {
	Op     string
	Status string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid operation %q in state %q", e.Op, e.Status)
}
