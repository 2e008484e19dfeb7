// Package config loads and merges runtime configuration from a global
// config file, a project config file, and environment variable overrides.
//
// # Configuration Loading
//
// Load resolves configuration in order of increasing precedence:
//
//  1. Built-in defaults
//  2. Global config (~/.config/bmadrun/config.yaml)
//  3. Project config (<directory>/.bmadrun/config.yaml)
//  4. Environment variables (BMADRUN_*, plus ANTHROPIC_API_KEY as a fallback
//     when no config file set an API key)
//
// # Format
//
// Config files are YAML, matching pkg/types.Config's shape: a single
// provider block, a cost limit, expansion pack paths, external-command
// whitelist settings, and storage backend selection.
//
// # Path Management
//
// GetPaths returns XDG Base Directory Specification compliant paths:
//   - Data: ~/.local/share/bmadrun (XDG_DATA_HOME)
//   - Config: ~/.config/bmadrun (XDG_CONFIG_HOME)
//   - Cache: ~/.cache/bmadrun (XDG_CACHE_HOME)
//   - State: ~/.local/state/bmadrun (XDG_STATE_HOME)
//
// On Windows, these paths fall back to APPDATA.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	paths := config.GetPaths()
//	if err := paths.EnsurePaths(); err != nil {
//	    log.Fatal(err)
//	}
package config
