// Package config provides configuration loading and path management.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDirName is the directory segment used under each XDG base for this
// runtime's data, config, cache, and state.
const appDirName = "bmadrun"

// Paths contains the standard paths for the runtime's on-disk data.
type Paths struct {
	Data   string // ~/.local/share/bmadrun
	Config string // ~/.config/bmadrun
	Cache  string // ~/.cache/bmadrun
	State  string // ~/.local/state/bmadrun
}

// GetPaths returns the standard paths for the runtime's on-disk data,
// honoring the XDG Base Directory Specification env vars first and falling
// back to the conventional per-OS default for each.
func GetPaths() *Paths {
	return &Paths{
		Data:   filepath.Join(getEnvOrDefault("XDG_DATA_HOME", xdgDefault(".local", "share")), appDirName),
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", xdgDefault(".config")), appDirName),
		Cache:  filepath.Join(getEnvOrDefault("XDG_CACHE_HOME", xdgDefault(".cache")), appDirName),
		State:  filepath.Join(getEnvOrDefault("XDG_STATE_HOME", xdgDefault(".local", "state")), appDirName),
	}
}

// EnsurePaths creates all required directories.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Data, p.Config, p.Cache, p.State} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// StoragePath returns the path to the storage directory used by the "file"
// storage backend (internal/storage.FileBackend) when no explicit path is
// configured.
func (p *Paths) StoragePath() string {
	return filepath.Join(p.Data, "storage")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// xdgDefault joins segments onto $HOME to build the conventional default for
// an XDG base directory. Windows has no equivalent convention, so every base
// there just falls back to %APPDATA%.
func xdgDefault(segments ...string) string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(append([]string{os.Getenv("HOME")}, segments...)...)
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	return filepath.Join(GetPaths().Config, "config.yaml")
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath(directory string) string {
	return filepath.Join(directory, ".bmadrun", "config.yaml")
}
