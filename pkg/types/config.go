package types

// Config is the runtime's top-level configuration, loaded from environment
// variables overlaid with an optional YAML file (internal/config).
type Config struct {
	Schema string `yaml:"$schema,omitempty" json:"$schema,omitempty"`

	// Provider selects and configures the LLM backend.
	Provider ProviderConfig `yaml:"provider,omitempty" json:"provider,omitempty"`

	// CostLimit, in the provider's currency, enforced by the cost tracker.
	// Zero means unlimited.
	CostLimit float64 `yaml:"costLimit,omitempty" json:"costLimit,omitempty"`

	// ExpansionPackPaths are additional roots scanned for agent definitions,
	// beyond the local ./.bmad-core and sibling export-author directories.
	ExpansionPackPaths []string `yaml:"expansionPackPaths,omitempty" json:"expansionPackPaths,omitempty"`

	// ExternalCommands configures the execute_command tool backend.
	ExternalCommands ExternalCommandsConfig `yaml:"externalCommands,omitempty" json:"externalCommands,omitempty"`

	// Storage selects the persistence backend.
	Storage StorageConfig `yaml:"storage,omitempty" json:"storage,omitempty"`

	// AutoSave enables state snapshotting after every provider turn.
	AutoSave bool `yaml:"autoSave,omitempty" json:"autoSave,omitempty"`
}

// ProviderConfig configures the LLM provider adapter.
type ProviderConfig struct {
	ID        string  `yaml:"id,omitempty" json:"id,omitempty"` // e.g. "anthropic"
	APIKey    string  `yaml:"apiKey,omitempty" json:"apiKey,omitempty"`
	BaseURL   string  `yaml:"baseURL,omitempty" json:"baseURL,omitempty"`
	Model     string  `yaml:"model,omitempty" json:"model,omitempty"`
	MaxTokens int     `yaml:"maxTokens,omitempty" json:"maxTokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
}

// ExternalCommandsConfig controls the execute_command tool.
type ExternalCommandsConfig struct {
	Enabled        bool              `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	WhitelistPreset string           `yaml:"whitelistPreset,omitempty" json:"whitelistPreset,omitempty"` // "readonly" | "content-creation"
	ExtraWhitelist []string          `yaml:"extraWhitelist,omitempty" json:"extraWhitelist,omitempty"`
	Environment    map[string]string `yaml:"environment,omitempty" json:"environment,omitempty"`
	TimeoutSeconds int               `yaml:"timeoutSeconds,omitempty" json:"timeoutSeconds,omitempty"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend string            `yaml:"backend,omitempty" json:"backend,omitempty"` // "memory" | "s3" | "file"
	S3      S3StorageConfig   `yaml:"s3,omitempty" json:"s3,omitempty"`
	File    FileStorageConfig `yaml:"file,omitempty" json:"file,omitempty"`
}

// FileStorageConfig configures the on-disk JSON storage adapter.
type FileStorageConfig struct {
	// Path roots the backend's documents/ and sessions/ directories. Empty
	// defaults to the runtime's XDG data directory (config.Paths.StoragePath).
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// S3StorageConfig configures the object-store storage adapter.
type S3StorageConfig struct {
	Bucket    string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// Model represents an LLM model available from a provider.
type Model struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	ProviderID        string       `json:"providerID"`
	ContextLength     int          `json:"contextLength"`
	MaxOutputTokens   int          `json:"maxOutputTokens,omitempty"`
	SupportsTools     bool         `json:"supportsTools"`
	SupportsVision    bool         `json:"supportsVision"`
	SupportsReasoning bool         `json:"supportsReasoning,omitempty"`
	InputPricePer1M   float64      `json:"inputPricePer1M,omitempty"`
	OutputPricePer1M  float64      `json:"outputPricePer1M,omitempty"`
}

// InputPricePer1K converts the model's per-million input price to the
// per-1,000-token unit the cost tracker's contract (§4.1) specifies.
func (m Model) InputPricePer1K() float64 { return m.InputPricePer1M / 1000 }

// OutputPricePer1K converts the model's per-million output price to the
// per-1,000-token unit the cost tracker's contract (§4.1) specifies.
func (m Model) OutputPricePer1K() float64 { return m.OutputPricePer1M / 1000 }
