package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bmadforge/runtime/pkg/types"
)

// MemoryBackend is the reference in-memory adapter: a single locked map,
// matching §5's "shared-resource policy" for the memory backend exactly.
// It is safe for concurrent use by multiple sessions.
type MemoryBackend struct {
	mu sync.RWMutex

	docs     map[string]types.Document
	metadata map[string]types.StorageMetadata
	sessions map[string]types.SessionState
}

// NewMemoryBackend builds an empty in-memory store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:     make(map[string]types.Document),
		metadata: make(map[string]types.StorageMetadata),
		sessions: make(map[string]types.SessionState),
	}
}

func (b *MemoryBackend) Initialize(ctx context.Context) error { return nil }
func (b *MemoryBackend) Close(ctx context.Context) error      { return nil }

func (b *MemoryBackend) Save(ctx context.Context, doc types.Document, metadata types.StorageMetadata) (*types.StorageResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	metadata.Path = doc.Path
	metadata.Size = len(doc.Content)
	if metadata.MimeType == "" {
		metadata.MimeType = mimeByExtension(doc.Path)
	}
	if metadata.Timestamp == 0 {
		metadata.Timestamp = time.Now().UnixMilli()
	}

	b.docs[doc.Path] = doc
	b.metadata[doc.Path] = metadata
	return &types.StorageResult{Path: doc.Path, Metadata: metadata}, nil
}

func (b *MemoryBackend) SaveBatch(ctx context.Context, docs []types.Document, metas []types.StorageMetadata) ([]types.StorageResult, error) {
	out := make([]types.StorageResult, 0, len(docs))
	for i, doc := range docs {
		var m types.StorageMetadata
		if i < len(metas) {
			m = metas[i]
		}
		res, err := b.Save(ctx, doc, m)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, nil
}

func (b *MemoryBackend) Load(ctx context.Context, path string) (*types.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	doc, ok := b.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (b *MemoryBackend) Exists(ctx context.Context, path string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.docs[path]
	return ok, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, path string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, existed := b.docs[path]
	delete(b.docs, path)
	delete(b.metadata, path)
	return existed, nil
}

func (b *MemoryBackend) List(ctx context.Context, opts types.StorageQueryOptions) (*types.StorageListResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []string
	for path, m := range b.metadata {
		if !matchesQuery(m, opts) {
			continue
		}
		matched = append(matched, path)
	}
	sort.Strings(matched)
	total := len(matched)
	matched = paginate(matched, opts.Offset, opts.Limit)
	return &types.StorageListResult{Paths: matched, Total: total}, nil
}

func (b *MemoryBackend) GetMetadata(ctx context.Context, path string) (*types.StorageMetadata, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.metadata[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

// GetURL returns the empty string: the memory backend has no URL-addressable
// location, per §4.9's "memory returns ⊥".
func (b *MemoryBackend) GetURL(ctx context.Context, path string, expiresSeconds int) (string, error) {
	return "", nil
}

func (b *MemoryBackend) SaveSessionState(ctx context.Context, state types.SessionState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[state.ID] = state
	return nil
}

func (b *MemoryBackend) LoadSessionState(ctx context.Context, id string) (*types.SessionState, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (b *MemoryBackend) ListSessions(ctx context.Context, opts types.StorageQueryOptions) (*types.SessionListResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []types.SessionState
	for _, s := range b.sessions {
		if opts.AgentID != "" && s.AgentID != opts.AgentID {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt < matched[j].CreatedAt })
	total := len(matched)

	if opts.Offset > 0 && opts.Offset < len(matched) {
		matched = matched[opts.Offset:]
	} else if opts.Offset >= len(matched) {
		matched = nil
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return &types.SessionListResult{Sessions: matched, Total: total}, nil
}

func (b *MemoryBackend) DeleteSession(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, existed := b.sessions[id]
	delete(b.sessions, id)
	return existed, nil
}

// SaveDocuments implements the session engine's narrow session.Storage
// contract: persist every document tagged with sessionID.
func (b *MemoryBackend) SaveDocuments(ctx context.Context, sessionID string, docs []types.Document) error {
	for _, doc := range docs {
		if _, err := b.Save(ctx, doc, types.StorageMetadata{SessionID: sessionID}); err != nil {
			return err
		}
	}
	return nil
}

func matchesQuery(m types.StorageMetadata, opts types.StorageQueryOptions) bool {
	if opts.SessionID != "" && m.SessionID != opts.SessionID {
		return false
	}
	if opts.AgentID != "" && m.AgentID != opts.AgentID {
		return false
	}
	if opts.Since > 0 && m.Timestamp < opts.Since {
		return false
	}
	if opts.Until > 0 && m.Timestamp > opts.Until {
		return false
	}
	if opts.Tag != "" {
		if m.Tags == nil {
			return false
		}
		if _, ok := m.Tags[opts.Tag]; !ok {
			return false
		}
	}
	return true
}

func paginate(items []string, offset, limit int) []string {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
