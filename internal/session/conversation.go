package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bmadforge/runtime/internal/event"
	"github.com/bmadforge/runtime/pkg/types"
)

// Conversational wraps a one-shot Session with the turn-based driver in
// §4.8: the same engine, seeded once, driven by repeated send/answer calls
// instead of a single execute.
type Conversational struct {
	mu sync.Mutex

	session *Session
	status  types.ConversationalStatus
	started time.Time
	turns   []types.TurnRecord
	seeded  bool

	onMessage  func(sessionID, text string)
	onQuestion func(sessionID, question string)
}

// NewConversational builds a conversational driver around a pending Session.
func NewConversational(s *Session) *Conversational {
	return &Conversational{session: s, status: types.ConvIdle, started: time.Now()}
}

// OnMessage registers a callback fired with the assistant's text each time a
// turn completes without asking a question.
func (c *Conversational) OnMessage(fn func(sessionID, text string)) { c.onMessage = fn }

// OnQuestion registers a callback fired when a turn's assistant text looks
// like a proactive question (§4.8 heuristic: trailing "?").
func (c *Conversational) OnQuestion(fn func(sessionID, question string)) { c.onQuestion = fn }

// Status returns the conversation's current state.
func (c *Conversational) Status() types.ConversationalStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Send pushes a user message and runs one turn to completion (or to a
// suspended ask_user gate, which Answer later resolves).
func (c *Conversational) Send(ctx context.Context, message string) (*types.TurnRecord, error) {
	c.mu.Lock()
	if c.status == types.ConvProcessing || c.status == types.ConvWaitingForAnswer {
		status := c.status
		c.mu.Unlock()
		return nil, &StateError{Op: "send", Status: string(status)}
	}
	c.status = types.ConvProcessing
	seeded := c.seeded
	c.seeded = true
	c.mu.Unlock()

	turnStart := time.Now()

	// The LLM can call the real ask_user tool mid-turn, which pauses the
	// underlying Session and blocks this very Execute/ContinueWith call
	// inside askgate.go until Answer delivers a reply. Without this
	// subscription c.status would stay ConvProcessing for that whole span
	// (the isQuestion heuristic below only runs after the blocking call
	// returns), and Conversational.Answer could never be reached to
	// unblock it. SessionQuestion is published asynchronously, so this
	// fires even though the calling goroutine is parked in Execute.
	unsubscribe := event.Subscribe(event.SessionQuestion, func(evt event.Event) {
		data, ok := evt.Data.(event.SessionQuestionData)
		if !ok || data.SessionID != c.session.id {
			return
		}
		c.mu.Lock()
		c.status = types.ConvWaitingForAnswer
		onQuestion := c.onQuestion
		c.mu.Unlock()
		if onQuestion != nil {
			onQuestion(c.session.id, data.Question)
		}
	})
	defer unsubscribe()

	before := reportOrZero(c.session)
	var result *types.SessionResult
	var err error
	if !seeded {
		c.session.command = message
		result, err = c.session.Execute(ctx)
	} else {
		result, err = c.session.ContinueWith(ctx, message)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.status = types.ConvError
		return nil, err
	}

	response := result.FinalResponse
	record := types.TurnRecord{
		ID:            fmt.Sprintf("turn-%d", len(c.turns)+1),
		UserMessage:   message,
		AgentResponse: response,
		TokensUsed:    types.Usage{InputTokens: result.Costs.InputTokens - before.InputTokens, OutputTokens: result.Costs.OutputTokens - before.OutputTokens},
		Cost:          result.Costs.TotalCost - before.TotalCost,
		Timestamp:     turnStart.UnixMilli(),
	}
	c.turns = append(c.turns, record)

	if isQuestion(response) {
		c.status = types.ConvWaitingForAnswer
		if c.onQuestion != nil {
			c.onQuestion(c.session.id, response)
		}
	} else {
		c.status = types.ConvIdle
		if c.onMessage != nil {
			c.onMessage(c.session.id, response)
		}
	}

	return &record, nil
}

// Answer resolves a pending ask_user suspension and resumes the turn.
func (c *Conversational) Answer(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.status != types.ConvWaitingForAnswer {
		status := c.status
		c.mu.Unlock()
		return &StateError{Op: "answer", Status: string(status)}
	}
	c.mu.Unlock()

	return c.session.Answer(text)
}

// End transitions the conversation to ended and returns its accumulated
// result. Invalid while a turn is processing.
func (c *Conversational) End() (*types.ConversationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == types.ConvProcessing {
		return nil, &StateError{Op: "end", Status: string(c.status)}
	}
	c.status = types.ConvEnded

	return &types.ConversationResult{
		SessionID:  c.session.id,
		Turns:      append([]types.TurnRecord(nil), c.turns...),
		Documents:  c.session.documents(),
		Costs:      reportOrZero(c.session),
		DurationMS: time.Since(c.started).Milliseconds(),
	}, nil
}

func reportOrZero(s *Session) types.CostReport {
	if s.costTracker == nil {
		return types.CostReport{Currency: "USD"}
	}
	return s.costTracker.Report()
}

// isQuestion implements the §4.8 heuristic: assistant text ending in "?"
// after trimming trailing whitespace and a closing quote/parenthesis.
func isQuestion(text string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(text), "\"')")
	return strings.HasSuffix(trimmed, "?")
}
