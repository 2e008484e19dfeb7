package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmadforge/runtime/pkg/types"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	tmpHome := t.TempDir()
	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpHome)
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	for _, v := range []string{"XDG_CONFIG_HOME", "BMADRUN_PROVIDER", "BMADRUN_MODEL", "BMADRUN_API_KEY",
		"BMADRUN_BASE_URL", "BMADRUN_COST_LIMIT", "BMADRUN_STORAGE_BACKEND", "BMADRUN_S3_BUCKET",
		"BMADRUN_S3_REGION", "BMADRUN_STORAGE_PATH", "BMADRUN_EXTERNAL_COMMANDS", "ANTHROPIC_API_KEY"} {
		old, had := os.LookupEnv(v)
		os.Unsetenv(v)
		t.Cleanup(func() {
			if had {
				os.Setenv(v, old)
			}
		})
	}
	return tmpHome
}

func writeGlobalConfig(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".config", "bmadrun")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

func writeProjectConfig(t *testing.T, project, content string) {
	t.Helper()
	dir := filepath.Join(project, ".bmadrun")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

func TestLoadAppliesDefaultsWithNoConfigFiles(t *testing.T) {
	isolateHome(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.CostLimit)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.True(t, cfg.AutoSave)
}

func TestLoadParsesGlobalConfig(t *testing.T) {
	home := isolateHome(t)
	writeGlobalConfig(t, home, `
provider:
  id: anthropic
  apiKey: global-key
  model: claude-sonnet-4-20250514
costLimit: 12.5
`)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider.ID)
	assert.Equal(t, "global-key", cfg.Provider.APIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Provider.Model)
	assert.Equal(t, 12.5, cfg.CostLimit)
}

func TestLoadMergesProjectOverGlobal(t *testing.T) {
	home := isolateHome(t)
	writeGlobalConfig(t, home, `
provider:
  id: anthropic
  apiKey: global-key
costLimit: 10
`)

	project := t.TempDir()
	writeProjectConfig(t, project, `
costLimit: 3
`)

	cfg, err := Load(project)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider.ID, "global provider preserved")
	assert.Equal(t, "global-key", cfg.Provider.APIKey, "global key preserved")
	assert.Equal(t, 3.0, cfg.CostLimit, "project overrides cost limit")
}

func TestLoadMissingFilesIsNotAnError(t *testing.T) {
	isolateHome(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestApplyEnvOverridesPrecedence(t *testing.T) {
	home := isolateHome(t)
	writeGlobalConfig(t, home, `
provider:
  id: anthropic
  model: file-model
costLimit: 10
`)
	os.Setenv("BMADRUN_MODEL", "env-model")
	defer os.Unsetenv("BMADRUN_MODEL")
	os.Setenv("BMADRUN_COST_LIMIT", "25.5")
	defer os.Unsetenv("BMADRUN_COST_LIMIT")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "env-model", cfg.Provider.Model)
	assert.Equal(t, 25.5, cfg.CostLimit)
}

func TestApplyEnvOverridesAnthropicAPIKeyFallback(t *testing.T) {
	isolateHome(t)
	os.Setenv("ANTHROPIC_API_KEY", "sk-ant-fallback")
	defer os.Unsetenv("ANTHROPIC_API_KEY")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-fallback", cfg.Provider.APIKey)
}

func TestApplyEnvOverridesBMADRUNAPIKeyWins(t *testing.T) {
	isolateHome(t)
	os.Setenv("ANTHROPIC_API_KEY", "sk-ant-fallback")
	defer os.Unsetenv("ANTHROPIC_API_KEY")
	os.Setenv("BMADRUN_API_KEY", "explicit-key")
	defer os.Unsetenv("BMADRUN_API_KEY")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "explicit-key", cfg.Provider.APIKey)
}

func TestLoadStorageS3Config(t *testing.T) {
	home := isolateHome(t)
	writeGlobalConfig(t, home, `
storage:
  backend: s3
  s3:
    bucket: my-bucket
    region: us-east-1
`)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "my-bucket", cfg.Storage.S3.Bucket)
	assert.Equal(t, "us-east-1", cfg.Storage.S3.Region)
}

func TestLoadStorageFileConfig(t *testing.T) {
	home := isolateHome(t)
	writeGlobalConfig(t, home, `
storage:
  backend: file
  file:
    path: /var/lib/bmadrun-data
`)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/bmadrun-data", cfg.Storage.File.Path)
}

func TestApplyEnvOverridesStoragePath(t *testing.T) {
	isolateHome(t)
	os.Setenv("BMADRUN_STORAGE_PATH", "/tmp/bmadrun-storage")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/bmadrun-storage", cfg.Storage.File.Path)
}

func TestLoadExternalCommandsConfig(t *testing.T) {
	home := isolateHome(t)
	writeGlobalConfig(t, home, `
externalCommands:
  enabled: true
  whitelistPreset: content-creation
  extraWhitelist: ["grep"]
  timeoutSeconds: 30
`)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.ExternalCommands.Enabled)
	assert.Equal(t, "content-creation", cfg.ExternalCommands.WhitelistPreset)
	assert.Equal(t, []string{"grep"}, cfg.ExternalCommands.ExtraWhitelist)
	assert.Equal(t, 30, cfg.ExternalCommands.TimeoutSeconds)
}

func TestSaveWritesYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := &types.Config{
		Provider:  types.ProviderConfig{ID: "anthropic", Model: "claude-sonnet-4-20250514"},
		CostLimit: 7.5,
		Storage:   types.StorageConfig{Backend: "memory"},
	}
	require.NoError(t, Save(cfg, path))

	loaded, err := loadConfigFile(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "anthropic", loaded.Provider.ID)
	assert.Equal(t, 7.5, loaded.CostLimit)
}

func TestMergeConfigPreservesUnsetFields(t *testing.T) {
	target := &types.Config{
		Provider:  types.ProviderConfig{ID: "anthropic", APIKey: "key-a"},
		CostLimit: 10,
	}
	source := &types.Config{
		Provider: types.ProviderConfig{Model: "claude-sonnet-4-20250514"},
	}

	mergeConfig(target, source)

	assert.Equal(t, "anthropic", target.Provider.ID)
	assert.Equal(t, "key-a", target.Provider.APIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", target.Provider.Model)
	assert.Equal(t, 10.0, target.CostLimit)
}
