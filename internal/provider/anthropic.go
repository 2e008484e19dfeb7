package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino-ext/components/model/claude"

	"github.com/bmadforge/runtime/pkg/types"
)

// AnthropicProvider implements LLMProvider against Claude models via Eino's
// ToolCallingChatModel, non-streamed.
type AnthropicProvider struct {
	chatModel model.ToolCallingChatModel
	models    []types.Model
	config    *AnthropicConfig
}

// AnthropicConfig configures the Anthropic adapter, including the Bedrock
// transport the teacher's config already supported.
type AnthropicConfig struct {
	ID        string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int

	Thinking *claude.Thinking

	UseBedrock bool
	Region     string
	Profile    string
}

// NewAnthropicProvider builds the Eino chat model and wraps it.
func NewAnthropicProvider(ctx context.Context, config *AnthropicConfig) (*AnthropicProvider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" && !config.UseBedrock {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	modelID := config.Model
	if modelID == "" {
		modelID = "claude-sonnet-4-20250514"
	}

	var chatModel model.ToolCallingChatModel
	var err error

	if config.UseBedrock {
		bedrockModel := "anthropic." + modelID + "-v1:0"
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			ByBedrock: true,
			Region:    config.Region,
			Profile:   config.Profile,
			Model:     bedrockModel,
			MaxTokens: config.MaxTokens,
			Thinking:  config.Thinking,
		})
	} else {
		cfg := &claude.Config{
			APIKey:    apiKey,
			Model:     modelID,
			MaxTokens: config.MaxTokens,
			Thinking:  config.Thinking,
		}
		if config.BaseURL != "" {
			cfg.BaseURL = &config.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Claude model: %w", err)
	}

	return &AnthropicProvider{
		chatModel: chatModel,
		models:    anthropicModels(),
		config:    config,
	}, nil
}

// ID returns the provider identifier.
func (p *AnthropicProvider) ID() string {
	if p.config.ID != "" {
		return p.config.ID
	}
	return "anthropic"
}

// Name returns the human-readable provider name.
func (p *AnthropicProvider) Name() string { return "Anthropic" }

// Models returns the list of available models.
func (p *AnthropicProvider) Models() []types.Model { return p.models }

// ModelInfo returns the configured model's static facts, falling back to the
// first known model if the configured id is unrecognized.
func (p *AnthropicProvider) ModelInfo() types.Model {
	for _, m := range p.models {
		if m.ID == p.config.Model {
			return m
		}
	}
	if len(p.models) > 0 {
		return p.models[0]
	}
	return types.Model{}
}

// PricePer1K implements costtracker.PricingLookup.
func (p *AnthropicProvider) PricePer1K(modelID string) (inputPer1k, outputPer1k float64, ok bool) {
	for _, m := range p.models {
		if m.ID == modelID {
			return m.InputPricePer1K(), m.OutputPricePer1K(), true
		}
	}
	return 0, 0, false
}

// CalculateCost is a pure function of usage and the model's per-1K pricing.
func (p *AnthropicProvider) CalculateCost(usage types.Usage, modelID string) float64 {
	inputPer1k, outputPer1k, ok := p.PricePer1K(modelID)
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1000*inputPer1k + float64(usage.OutputTokens)/1000*outputPer1k
}

// SendMessage submits the full history and tool catalog and returns the
// complete response in one round trip via chatModel.Generate, replacing the
// teacher's Stream-based CreateCompletion since this contract has no
// streaming surface (§1 Non-goals).
func (p *AnthropicProvider) SendMessage(ctx context.Context, messages []types.Message, tools []types.Tool, opts types.CompletionOptions) (*types.ProviderResponse, error) {
	chatModel := p.chatModel
	if len(tools) > 0 {
		var err error
		chatModel, err = chatModel.WithTools(toEinoTools(tools))
		if err != nil {
			return nil, &ProviderError{Op: "bind_tools", Err: err}
		}
	}

	maxTokens := opts.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = types.DefaultMaxOutputTokens
	}

	genOpts := []model.Option{model.WithMaxTokens(maxTokens)}
	if opts.Temperature != nil {
		genOpts = append(genOpts, model.WithTemperature(float32(*opts.Temperature)))
	}

	resp, err := chatModel.Generate(ctx, toEinoMessages(messages), genOpts...)
	if err != nil {
		return nil, &ProviderError{Op: "generate", Err: err}
	}

	msg := fromEinoMessage(resp)
	usage := types.Usage{}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		usage.InputTokens = int(resp.ResponseMeta.Usage.PromptTokens)
		usage.OutputTokens = int(resp.ResponseMeta.Usage.CompletionTokens)
	}
	finishReason := ""
	if resp.ResponseMeta != nil {
		finishReason = resp.ResponseMeta.FinishReason
	}

	return &types.ProviderResponse{
		Message:    msg,
		Usage:      usage,
		StopReason: stopReasonFromFinish(finishReason, len(msg.ToolUseBlocks()) > 0),
	}, nil
}

// anthropicModels is the static catalog of supported Claude models and their
// per-million pricing, carried over from the teacher's registry.
func anthropicModels() []types.Model {
	return []types.Model{
		{
			ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ProviderID: "anthropic",
			ContextLength: 200000, MaxOutputTokens: 64000,
			SupportsTools: true, SupportsVision: true,
			InputPricePer1M: 3.0, OutputPricePer1M: 15.0,
		},
		{
			ID: "claude-opus-4-20250514", Name: "Claude Opus 4", ProviderID: "anthropic",
			ContextLength: 200000, MaxOutputTokens: 32000,
			SupportsTools: true, SupportsVision: true, SupportsReasoning: true,
			InputPricePer1M: 15.0, OutputPricePer1M: 75.0,
		},
		{
			ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ProviderID: "anthropic",
			ContextLength: 200000, MaxOutputTokens: 8192,
			SupportsTools: true, SupportsVision: true,
			InputPricePer1M: 3.0, OutputPricePer1M: 15.0,
		},
		{
			ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", ProviderID: "anthropic",
			ContextLength: 200000, MaxOutputTokens: 8192,
			SupportsTools: true, SupportsVision: true,
			InputPricePer1M: 0.8, OutputPricePer1M: 4.0,
		},
		{
			ID: "claude-haiku-4-5-20251001", Name: "Claude 4.5 Haiku", ProviderID: "anthropic",
			ContextLength: 200000, MaxOutputTokens: 8192,
			SupportsTools: true, SupportsVision: true,
			InputPricePer1M: 0.8, OutputPricePer1M: 4.0,
		},
	}
}
