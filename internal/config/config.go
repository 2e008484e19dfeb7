// Package config loads the runtime's configuration from a global config
// file, a project config file, and environment variable overrides, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/bmadforge/runtime/pkg/types"
)

// Load resolves a Config by layering, from lowest to highest precedence:
// the global config file (~/.config/bmadrun/config.yaml), the project
// config file (<directory>/.bmadrun/config.yaml), and environment variable
// overrides. Either file may be absent; a missing file is not an error.
func Load(directory string) (*types.Config, error) {
	cfg := defaultConfig()

	if global, err := loadConfigFile(GlobalConfigPath()); err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	} else if global != nil {
		mergeConfig(cfg, global)
	}

	if directory != "" {
		if project, err := loadConfigFile(ProjectConfigPath(directory)); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		} else if project != nil {
			mergeConfig(cfg, project)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *types.Config {
	return &types.Config{
		Schema:    "https://bmadforge.dev/runtime/config.json",
		CostLimit: 5.0,
		Storage:   types.StorageConfig{Backend: "memory"},
		AutoSave:  true,
	}
}

// loadConfigFile reads and parses a YAML config file. A missing file yields
// (nil, nil) rather than an error, so callers can treat absence as "no
// overrides from this layer".
func loadConfigFile(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeConfig overlays non-zero fields of source onto target. Later layers
// win field-by-field, not wholesale: a project config that sets only
// CostLimit does not erase a global config's Provider block.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.Provider.ID != "" {
		target.Provider.ID = source.Provider.ID
	}
	if source.Provider.APIKey != "" {
		target.Provider.APIKey = source.Provider.APIKey
	}
	if source.Provider.BaseURL != "" {
		target.Provider.BaseURL = source.Provider.BaseURL
	}
	if source.Provider.Model != "" {
		target.Provider.Model = source.Provider.Model
	}
	if source.Provider.MaxTokens != 0 {
		target.Provider.MaxTokens = source.Provider.MaxTokens
	}
	if source.Provider.Temperature != nil {
		target.Provider.Temperature = source.Provider.Temperature
	}
	if source.CostLimit != 0 {
		target.CostLimit = source.CostLimit
	}
	if len(source.ExpansionPackPaths) > 0 {
		target.ExpansionPackPaths = source.ExpansionPackPaths
	}
	if source.ExternalCommands.Enabled {
		target.ExternalCommands.Enabled = true
	}
	if source.ExternalCommands.WhitelistPreset != "" {
		target.ExternalCommands.WhitelistPreset = source.ExternalCommands.WhitelistPreset
	}
	if len(source.ExternalCommands.ExtraWhitelist) > 0 {
		target.ExternalCommands.ExtraWhitelist = source.ExternalCommands.ExtraWhitelist
	}
	if len(source.ExternalCommands.Environment) > 0 {
		if target.ExternalCommands.Environment == nil {
			target.ExternalCommands.Environment = make(map[string]string, len(source.ExternalCommands.Environment))
		}
		for k, v := range source.ExternalCommands.Environment {
			target.ExternalCommands.Environment[k] = v
		}
	}
	if source.ExternalCommands.TimeoutSeconds != 0 {
		target.ExternalCommands.TimeoutSeconds = source.ExternalCommands.TimeoutSeconds
	}
	if source.Storage.Backend != "" {
		target.Storage.Backend = source.Storage.Backend
	}
	if source.Storage.S3.Bucket != "" {
		target.Storage.S3 = source.Storage.S3
	}
	if source.Storage.File.Path != "" {
		target.Storage.File = source.Storage.File
	}
}

// applyEnvOverrides layers environment variables over cfg, taking
// precedence over both config files. ANTHROPIC_API_KEY is honored only as
// a fallback when no other layer set an API key; BMADRUN_-prefixed
// variables are the authoritative override surface.
func applyEnvOverrides(cfg *types.Config) {
	if v := os.Getenv("BMADRUN_PROVIDER"); v != "" {
		cfg.Provider.ID = v
	}
	if v := os.Getenv("BMADRUN_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("BMADRUN_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("BMADRUN_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("BMADRUN_COST_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.CostLimit = f
		}
	}
	if v := os.Getenv("BMADRUN_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("BMADRUN_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("BMADRUN_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("BMADRUN_STORAGE_PATH"); v != "" {
		cfg.Storage.File.Path = v
	}
	if v := os.Getenv("BMADRUN_EXTERNAL_COMMANDS"); v == "1" || v == "true" {
		cfg.ExternalCommands.Enabled = true
	}
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func Save(cfg *types.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
