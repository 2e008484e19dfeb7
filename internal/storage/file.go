package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmadforge/runtime/pkg/types"
)

// docRecord is the on-disk envelope for one saved document: content plus its
// storage metadata, so a single JSON file round-trips both halves of Save.
type docRecord struct {
	Document types.Document        `json:"document"`
	Metadata types.StorageMetadata `json:"metadata"`
}

// FileBackend persists documents and session state as JSON files under a
// base directory, one file per path/session, each guarded by its own
// RecordLock so writers to unrelated records never block each other. This is
// a durable alternative to MemoryBackend for the example CLI (§10.6), not
// one of the two backends §4.9 names — it is kept because the locking
// pattern it is grounded on has no other home in the transformed tree.
type FileBackend struct {
	basePath string
	mu       sync.Mutex
	locks    map[string]*RecordLock
}

// NewFileBackend roots a FileBackend at basePath. It touches no files;
// Initialize creates the directory.
func NewFileBackend(basePath string) *FileBackend {
	return &FileBackend{basePath: basePath, locks: make(map[string]*RecordLock)}
}

func (b *FileBackend) Initialize(ctx context.Context) error {
	return os.MkdirAll(filepath.Join(b.basePath, "documents"), 0o755)
}

func (b *FileBackend) Close(ctx context.Context) error { return nil }

func (b *FileBackend) docPath(path string) string {
	safe := strings.TrimPrefix(path, "/")
	return filepath.Join(b.basePath, "documents", safe+".json")
}

func (b *FileBackend) sessionPath(id string) string {
	return filepath.Join(b.basePath, "sessions", id+".json")
}

func (b *FileBackend) getLock(path string) *RecordLock {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.locks[path]
	if !ok {
		l = NewRecordLock(path)
		b.locks[path] = l
	}
	return l
}

func writeJSONAtomic(lock *RecordLock, filePath string, v any) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func readJSON(filePath string, v any) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (b *FileBackend) Save(ctx context.Context, doc types.Document, metadata types.StorageMetadata) (*types.StorageResult, error) {
	metadata.Path = doc.Path
	metadata.Size = len(doc.Content)
	if metadata.MimeType == "" {
		metadata.MimeType = mimeByExtension(doc.Path)
	}
	if metadata.Timestamp == 0 {
		metadata.Timestamp = time.Now().UnixMilli()
	}

	filePath := b.docPath(doc.Path)
	if err := writeJSONAtomic(b.getLock(filePath), filePath, docRecord{Document: doc, Metadata: metadata}); err != nil {
		return nil, err
	}
	return &types.StorageResult{Path: doc.Path, Metadata: metadata}, nil
}

func (b *FileBackend) SaveBatch(ctx context.Context, docs []types.Document, metas []types.StorageMetadata) ([]types.StorageResult, error) {
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

func (b *FileBackend) Load(ctx context.Context, path string) (*types.Document, error) {
	var rec docRecord
	if err := readJSON(b.docPath(path), &rec); err != nil {
		return nil, err
	}
	return &rec.Document, nil
}

func (b *FileBackend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(b.docPath(path))
	return err == nil, nil
}

func (b *FileBackend) Delete(ctx context.Context, path string) (bool, error) {
	filePath := b.docPath(path)
	lock := b.getLock(filePath)
	if err := lock.Lock(); err != nil {
		return false, err
	}
	defer lock.Unlock()

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *FileBackend) List(ctx context.Context, opts types.StorageQueryOptions) (*types.StorageListResult, error) {
	root := filepath.Join(b.basePath, "documents")
	var matched []string

	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		var rec docRecord
		if readErr := readJSON(p, &rec); readErr != nil {
			return nil
		}
		if matchesQuery(rec.Metadata, opts) {
			matched = append(matched, rec.Document.Path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	sort.Strings(matched)
	total := len(matched)
	matched = paginate(matched, opts.Offset, opts.Limit)
	return &types.StorageListResult{Paths: matched, Total: total}, nil
}

func (b *FileBackend) GetMetadata(ctx context.Context, path string) (*types.StorageMetadata, error) {
	var rec docRecord
	if err := readJSON(b.docPath(path), &rec); err != nil {
		return nil, err
	}
	return &rec.Metadata, nil
}

// GetURL returns a file:// URL to the backing JSON record; there is no web
// server fronting this backend.
func (b *FileBackend) GetURL(ctx context.Context, path string, expiresSeconds int) (string, error) {
	return "file://" + b.docPath(path), nil
}

func (b *FileBackend) SaveSessionState(ctx context.Context, state types.SessionState) error {
	filePath := b.sessionPath(state.ID)
	return writeJSONAtomic(b.getLock(filePath), filePath, state)
}

func (b *FileBackend) LoadSessionState(ctx context.Context, id string) (*types.SessionState, error) {
	var state types.SessionState
	if err := readJSON(b.sessionPath(id), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (b *FileBackend) ListSessions(ctx context.Context, opts types.StorageQueryOptions) (*types.SessionListResult, error) {
	root := filepath.Join(b.basePath, "sessions")
	var matched []types.SessionState

	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		var state types.SessionState
		if readErr := readJSON(p, &state); readErr != nil {
			return nil
		}
		if opts.AgentID == "" || state.AgentID == opts.AgentID {
			matched = append(matched, state)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
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

func (b *FileBackend) DeleteSession(ctx context.Context, id string) (bool, error) {
	filePath := b.sessionPath(id)
	lock := b.getLock(filePath)
	if err := lock.Lock(); err != nil {
		return false, err
	}
	defer lock.Unlock()

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *FileBackend) SaveDocuments(ctx context.Context, sessionID string, docs []types.Document) error {
	for _, doc := range docs {
		if _, err := b.Save(ctx, doc, types.StorageMetadata{SessionID: sessionID}); err != nil {
			return err
		}
	}
	return nil
}
