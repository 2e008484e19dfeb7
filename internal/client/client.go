// Package client wires the provider, agent-definition loader, storage
// backend, and external command executor into a single entry point for
// running sessions, and implements session.Spawner so invoke_agent can
// spawn nested sessions against the same collaborators.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bmadforge/runtime/internal/agentdef"
	"github.com/bmadforge/runtime/internal/cmdexec"
	"github.com/bmadforge/runtime/internal/config"
	"github.com/bmadforge/runtime/internal/provider"
	"github.com/bmadforge/runtime/internal/session"
	"github.com/bmadforge/runtime/internal/storage"
	"github.com/bmadforge/runtime/pkg/types"
)

// Client owns the collaborators every session needs and is the one place
// that knows how to build one. It also implements session.Spawner, so a
// session's invoke_agent tool can hand back to the same Client to run a
// child session.
type Client struct {
	provider    provider.LLMProvider
	loader      agentdef.Loader
	store       storage.Backend
	cmdExecutor *cmdexec.Executor
	costLimit   float64
	autoSave    bool
}

// New builds a Client from an already-resolved provider, loader, and
// storage backend. cmdExecutor may be nil, which disables execute_command
// for every session the Client creates.
func New(p provider.LLMProvider, loader agentdef.Loader, store storage.Backend, cmdExecutor *cmdexec.Executor, costLimit float64, autoSave bool) *Client {
	return &Client{
		provider:    p,
		loader:      loader,
		store:       store,
		cmdExecutor: cmdExecutor,
		costLimit:   costLimit,
		autoSave:    autoSave,
	}
}

// FromConfig builds a Client from a resolved Config: the Anthropic
// provider, the default agent-definition loader rooted at workDir plus any
// configured expansion pack paths, the configured storage backend, and an
// execute_command executor if ExternalCommands.Enabled.
func FromConfig(ctx context.Context, cfg *types.Config, workDir string) (*Client, error) {
	reg, err := provider.InitializeProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing provider: %w", err)
	}

	loader := agentdef.NewDefaultLoader(workDir, cfg.ExpansionPackPaths)

	store, err := storageFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	var executor *cmdexec.Executor
	if cfg.ExternalCommands.Enabled {
		whitelist := resolveWhitelist(cfg.ExternalCommands)
		timeout := time.Duration(cfg.ExternalCommands.TimeoutSeconds) * time.Second
		executor = cmdexec.New(whitelist, cfg.ExternalCommands.Environment, timeout)
	}

	return New(reg.Provider(), loader, store, executor, cfg.CostLimit, cfg.AutoSave), nil
}

func resolveWhitelist(cfg types.ExternalCommandsConfig) []string {
	var base []string
	switch cfg.WhitelistPreset {
	case "content-creation":
		base = cmdexec.ContentCreationWhitelist
	default:
		base = cmdexec.ReadOnlyWhitelist
	}
	return append(append([]string{}, base...), cfg.ExtraWhitelist...)
}

func storageFromConfig(ctx context.Context, cfg *types.Config) (storage.Backend, error) {
	var backend storage.Backend
	switch cfg.Storage.Backend {
	case "s3":
		b, err := storage.NewS3Backend(ctx, cfg.Storage.S3.Bucket, cfg.Storage.S3.Prefix)
		if err != nil {
			return nil, err
		}
		backend = b
	case "file":
		path := cfg.Storage.File.Path
		if path == "" {
			path = config.GetPaths().StoragePath()
		}
		backend = storage.NewFileBackend(path)
	default:
		backend = storage.NewMemoryBackend()
	}
	if err := backend.Initialize(ctx); err != nil {
		return nil, err
	}
	return backend, nil
}

// deps builds the Deps a new Session needs, sharing this Client's
// collaborators and wiring the Client itself in as the Spawner.
func (c *Client) deps() session.Deps {
	return session.Deps{
		Provider:    c.provider,
		Loader:      c.loader,
		CmdExecutor: c.cmdExecutor,
		Spawner:     c,
		Storage:     c.store,
	}
}

// NewSession constructs a pending session for agentID/command with default
// options (the Client's configured cost limit and autosave setting).
func (c *Client) NewSession(agentID, command string) *session.Session {
	opts := types.SessionOptions{CostLimit: c.costLimit, AutoSave: c.autoSave}
	return session.New("sess_"+uuid.NewString(), agentID, command, opts, c.deps())
}

// NewSessionWithOptions constructs a pending session with caller-supplied
// options, overriding the Client's defaults.
func (c *Client) NewSessionWithOptions(agentID, command string, opts types.SessionOptions) *session.Session {
	return session.New("sess_"+uuid.NewString(), agentID, command, opts, c.deps())
}

// Resume reconstructs a session from a previously serialized state.
func (c *Client) Resume(state types.SessionState) *session.Session {
	return session.Deserialize(state, c.deps())
}

// Store exposes the configured storage backend, e.g. for the HTTP front
// door to load a session's prior state before resuming it.
func (c *Client) Store() storage.Backend { return c.store }

// SpawnChild implements session.Spawner (§4.7): it builds and runs a fresh
// child session against this Client's own collaborators, bounded by
// costLimit, and returns the child's result alongside its VFS snapshot so
// the parent can merge in any documents the child produced.
func (c *Client) SpawnChild(ctx context.Context, agentID, command string, parentContext map[string]any, costLimit float64) (*types.SessionResult, map[string]string, error) {
	opts := types.SessionOptions{CostLimit: costLimit, Context: parentContext, AutoSave: c.autoSave}
	child := c.NewSessionWithOptions(agentID, command, opts)

	result, err := child.Execute(ctx)
	if err != nil {
		return nil, nil, err
	}
	return result, child.Serialize().VFSFiles, nil
}
