package session

import (
	"context"
	"time"

	"github.com/bmadforge/runtime/internal/event"
	"github.com/bmadforge/runtime/pkg/types"
)

// AskUser implements toolexec.AskUserGate. It suspends the session
// (running -> paused), publishes SessionQuestion, and blocks until Answer
// delivers a reply and resumes it (paused -> running), per §4.6's
// pause/resume gate.
func (s *Session) AskUser(ctx context.Context, question, askCtx string) (string, error) {
	s.mu.Lock()
	if s.status != types.SessionRunning {
		status := s.status
		s.mu.Unlock()
		return "", &StateError{Op: "askUser", Status: string(status)}
	}
	now := time.Now()
	s.pausedAt = &now
	s.pendingQuestion = &types.PendingQuestion{Question: question, Context: askCtx}
	s.answerCh = make(chan string, 1)
	s.setStatus(types.SessionPaused)
	ch := s.answerCh
	s.mu.Unlock()

	event.Publish(event.Event{Type: event.SessionQuestion, Data: event.SessionQuestionData{
		SessionID: s.id,
		Question:  question,
		Context:   askCtx,
	}})

	select {
	case answer := <-ch:
		return answer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Answer delivers a host-supplied reply to a pending ask_user question and
// resumes the session (paused -> running). It is invalid to call when no
// question is outstanding.
func (s *Session) Answer(answer string) error {
	s.mu.Lock()
	if s.status != types.SessionPaused || s.answerCh == nil {
		status := s.status
		s.mu.Unlock()
		return &StateError{Op: "answer", Status: string(status)}
	}
	ch := s.answerCh
	s.answerCh = nil
	s.pendingQuestion = nil
	s.pausedAt = nil
	s.setStatus(types.SessionRunning)
	s.mu.Unlock()

	event.Publish(event.Event{Type: event.SessionResumed, Data: event.SessionResumedData{SessionID: s.id}})
	ch <- answer
	return nil
}

// PendingQuestion returns the outstanding ask_user question, if any.
func (s *Session) PendingQuestion() *types.PendingQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingQuestion
}
