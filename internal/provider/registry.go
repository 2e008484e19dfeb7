package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/bmadforge/runtime/pkg/types"
)

// Registry resolves a single configured LLMProvider. Multi-provider
// selection is out of scope (§10.4 not-wired list: only Anthropic is
// wired — no OpenAI/Ark/Bedrock-by-default fan-out).
type Registry struct {
	provider LLMProvider
}

// NewRegistry builds a registry around an already-constructed provider.
func NewRegistry(p LLMProvider) *Registry {
	return &Registry{provider: p}
}

// Provider returns the configured provider.
func (r *Registry) Provider() LLMProvider { return r.provider }

// InitializeProvider constructs the Anthropic provider from Config,
// preferring an explicit APIKey over ANTHROPIC_API_KEY.
func InitializeProvider(ctx context.Context, cfg *types.Config) (*Registry, error) {
	apiKey := cfg.Provider.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no anthropic credentials: set provider.apiKey or ANTHROPIC_API_KEY")
	}

	maxTokens := cfg.Provider.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	p, err := NewAnthropicProvider(ctx, &AnthropicConfig{
		ID:        cfg.Provider.ID,
		APIKey:    apiKey,
		BaseURL:   cfg.Provider.BaseURL,
		Model:     cfg.Provider.Model,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, err
	}
	return NewRegistry(p), nil
}
