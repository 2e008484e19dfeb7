// Package storage persists documents and session state behind the §4.9
// contract. Three adapters ship: an in-memory backend (a single locked map,
// per §5's shared-resource policy), an object-store backend over S3, and a
// local JSON-file backend (FileBackend).
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/bmadforge/runtime/pkg/types"
)

// ErrNotFound is returned by Load/GetMetadata/LoadSessionState when the
// requested path or session id does not exist.
var ErrNotFound = errors.New("not found")

// Backend is the storage contract every adapter implements (§4.9).
type Backend interface {
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error

	Save(ctx context.Context, doc types.Document, metadata types.StorageMetadata) (*types.StorageResult, error)
	SaveBatch(ctx context.Context, docs []types.Document, metadata []types.StorageMetadata) ([]types.StorageResult, error)
	Load(ctx context.Context, path string) (*types.Document, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, opts types.StorageQueryOptions) (*types.StorageListResult, error)
	GetMetadata(ctx context.Context, path string) (*types.StorageMetadata, error)
	GetURL(ctx context.Context, path string, expiresSeconds int) (string, error)

	SaveSessionState(ctx context.Context, state types.SessionState) error
	LoadSessionState(ctx context.Context, id string) (*types.SessionState, error)
	ListSessions(ctx context.Context, opts types.StorageQueryOptions) (*types.SessionListResult, error)
	DeleteSession(ctx context.Context, id string) (bool, error)

	// SaveDocuments is the session-engine-facing subset (session.Storage);
	// it batches plain Documents under a common sessionID tag.
	SaveDocuments(ctx context.Context, sessionID string, docs []types.Document) error
}

// mimeByExtension implements §4.9's fixed extension -> MIME table.
func mimeByExtension(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "md":
		return "text/markdown"
	case "json":
		return "application/json"
	case "yaml", "yml":
		return "text/yaml"
	case "txt":
		return "text/plain"
	case "html":
		return "text/html"
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
