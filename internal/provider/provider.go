// Package provider defines the LLMProvider contract the session engine
// depends on (§4.1) and ships a concrete Anthropic-backed implementation
// (§10.2) built on cloudwego/eino's ToolCallingChatModel over
// eino-ext/components/model/claude.
package provider

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/schema"

	"github.com/bmadforge/runtime/pkg/types"
)

// LLMProvider is the transport-agnostic contract the engine calls. Each
// SendMessage returns one complete, non-streamed response — there are no
// token deltas in this contract (§1 Non-goals).
type LLMProvider interface {
	// SendMessage submits the full message history and tool catalog for one
	// turn and returns the complete response.
	SendMessage(ctx context.Context, messages []types.Message, tools []types.Tool, opts types.CompletionOptions) (*types.ProviderResponse, error)

	// CalculateCost is a deterministic, pure function of token usage for a
	// given model name.
	CalculateCost(usage types.Usage, model string) float64

	// ModelInfo returns static facts about the currently configured model.
	ModelInfo() types.Model

	// PricePer1K resolves input/output price per 1,000 tokens for model,
	// satisfying costtracker.PricingLookup.
	PricePer1K(model string) (inputPer1k, outputPer1k float64, ok bool)
}

// ProviderError wraps a transport or parse failure from SendMessage. It is
// fatal to the owning session once the engine's bounded retry (§4.6) is
// exhausted.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return "provider: " + e.Op + ": " + e.Err.Error() }
func (e *ProviderError) Unwrap() error  { return e.Err }

// parseJSONSchemaToParams converts a JSON-schema input_schema to Eino's
// ParameterInfo map, the shape the tool-calling chat model binds against.
func parseJSONSchemaToParams(inputSchema map[string]any) map[string]*schema.ParameterInfo {
	if inputSchema == nil {
		return nil
	}
	raw, err := json.Marshal(inputSchema)
	if err != nil {
		return nil
	}

	var jsonSchema struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(raw, &jsonSchema); err != nil {
		return nil
	}

	required := make(map[string]bool, len(jsonSchema.Required))
	for _, r := range jsonSchema.Required {
		required[r] = true
	}

	params := make(map[string]*schema.ParameterInfo, len(jsonSchema.Properties))
	for name, prop := range jsonSchema.Properties {
		paramType := schema.String
		switch prop.Type {
		case "integer":
			paramType = schema.Integer
		case "number":
			paramType = schema.Number
		case "boolean":
			paramType = schema.Boolean
		case "array":
			paramType = schema.Array
		case "object":
			paramType = schema.Object
		}
		params[name] = &schema.ParameterInfo{Type: paramType, Desc: prop.Description, Required: required[name]}
	}
	return params
}

// toEinoTools converts the tool catalog to Eino's *schema.ToolInfo.
func toEinoTools(tools []types.Tool) []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, len(tools))
	for i, t := range tools {
		out[i] = &schema.ToolInfo{
			Name:        t.Name,
			Desc:        t.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(parseJSONSchemaToParams(t.InputSchema)),
		}
	}
	return out
}

// toEinoMessages converts our flattened Message/ContentBlock shape to
// Eino's schema.Message, splitting tool_use/tool_result blocks into the
// dedicated ToolCalls/ToolCallID fields Eino expects.
func toEinoMessages(messages []types.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		role := schema.Assistant
		switch m.Role {
		case types.RoleUser:
			role = schema.User
		case types.RoleSystem:
			role = schema.System
		}

		if !m.HasBlocks() {
			out = append(out, &schema.Message{Role: role, Content: m.Text})
			continue
		}

		var textContent string
		var toolCalls []schema.ToolCall
		for _, b := range m.Blocks {
			switch b.Type {
			case types.BlockText:
				textContent += b.Text
			case types.BlockToolUse:
				inputJSON, _ := json.Marshal(b.ToolInput)
				toolCalls = append(toolCalls, schema.ToolCall{
					ID: b.ToolUseID,
					Function: schema.FunctionCall{
						Name:      b.ToolName,
						Arguments: string(inputJSON),
					},
				})
			case types.BlockToolResult:
				// Eino models each tool result as its own Tool-role message.
				out = append(out, &schema.Message{
					Role:       schema.Tool,
					Content:    b.Content,
					ToolCallID: b.ToolResultID,
				})
			}
		}
		if textContent != "" || len(toolCalls) > 0 {
			out = append(out, &schema.Message{Role: role, Content: textContent, ToolCalls: toolCalls})
		}
	}
	return out
}

// fromEinoMessage converts Eino's response message back to our Message,
// reconstructing tool_use blocks from ToolCalls.
func fromEinoMessage(msg *schema.Message) types.Message {
	result := types.Message{Role: types.RoleAssistant}
	if msg.Content != "" {
		result.Blocks = append(result.Blocks, types.NewTextBlock(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		var input map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
		result.Blocks = append(result.Blocks, types.NewToolUseBlock(tc.ID, tc.Function.Name, input))
	}
	return result
}

func stopReasonFromFinish(finishReason string, hasToolCalls bool) types.StopReason {
	if hasToolCalls {
		return types.StopToolUse
	}
	switch finishReason {
	case "max_tokens", "length":
		return types.StopMaxTokens
	case "stop_sequence":
		return types.StopStopSequence
	default:
		return types.StopEndTurn
	}
}
