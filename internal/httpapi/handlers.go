package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bmadforge/runtime/internal/session"
	"github.com/bmadforge/runtime/pkg/types"
)

// createSessionRequest is the body for POST /sessions.
type createSessionRequest struct {
	AgentID   string         `json:"agentId"`
	Command   string         `json:"command"`
	CostLimit float64        `json:"costLimit,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

type createSessionResponse struct {
	ID     string              `json:"id"`
	Status types.SessionStatus `json:"status"`
}

// createSession handles POST /sessions: builds a session for the requested
// agent and command, starts it running in the background, and returns its
// ID immediately. The session may pause on an ask_user question before it
// completes; poll GET /sessions/{id} for status.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.AgentID == "" || req.Command == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "agentId and command are required")
		return
	}

	opts := types.SessionOptions{Context: req.Context, AutoSave: true}
	if req.CostLimit > 0 {
		opts.CostLimit = req.CostLimit
	}

	sess := s.client.NewSessionWithOptions(req.AgentID, req.Command, opts)
	e := s.reg.put(sess)

	go func() {
		result, err := sess.Execute(context.Background())
		e.finish(result, err)
	}()

	writeJSON(w, http.StatusAccepted, createSessionResponse{ID: sess.ID(), Status: types.SessionRunning})
}

// sessionView is the GET /sessions/{id} response shape: current status,
// any outstanding ask_user question, and the final result once the
// session's background Execute call has returned.
type sessionView struct {
	ID              string                 `json:"id"`
	Status          types.SessionStatus    `json:"status"`
	PendingQuestion *types.PendingQuestion `json:"pendingQuestion,omitempty"`
	Result          *types.SessionResult   `json:"result,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	e, ok := s.reg.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	}

	view := sessionView{ID: id, Status: e.sess.Status(), PendingQuestion: e.sess.PendingQuestion()}
	if result, err, done := e.outcome(); done {
		if err != nil {
			view.Error = err.Error()
		} else {
			view.Result = result
		}
	}

	writeJSON(w, http.StatusOK, view)
}

// answerSessionRequest is the body for POST /sessions/{id}/answer.
type answerSessionRequest struct {
	Answer string `json:"answer"`
}

// answerSession handles POST /sessions/{id}/answer: delivers a reply to the
// session's outstanding ask_user question and resumes it.
func (s *Server) answerSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	e, ok := s.reg.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	}

	var req answerSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	if err := e.sess.Answer(req.Answer); err != nil {
		var stateErr *session.StateError
		if errors.As(err, &stateErr) {
			writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
