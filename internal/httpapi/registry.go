package httpapi

import (
	"sync"

	"github.com/bmadforge/runtime/internal/session"
	"github.com/bmadforge/runtime/pkg/types"
)

// entry tracks a live session alongside the outcome of its background
// Execute call, since the result is only available once the goroutine
// running it returns.
type entry struct {
	sess *session.Session

	mu     sync.Mutex
	result *types.SessionResult
	err    error
	done   bool
}

func (e *entry) finish(result *types.SessionResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.result = result
	e.err = err
	e.done = true
}

func (e *entry) outcome() (*types.SessionResult, error, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, e.err, e.done
}

// registry holds the sessions this server has created or resumed, keyed by
// session ID, so handlers can look up a running session by the ID returned
// from create.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*entry)}
}

func (r *registry) put(sess *session.Session) *entry {
	e := &entry{sess: sess}
	r.mu.Lock()
	r.entries[sess.ID()] = e
	r.mu.Unlock()
	return e
}

func (r *registry) get(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}
