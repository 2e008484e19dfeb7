package provider

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/bmadforge/runtime/pkg/types"
)

func TestParseJSONSchemaToParams(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":      map[string]any{"type": "string", "description": "file path"},
			"recursive": map[string]any{"type": "boolean", "description": "recurse into subdirs"},
		},
		"required": []any{"path"},
	}

	params := parseJSONSchemaToParams(schema)
	require := assert.New(t)
	require.Len(params, 2)
	require.True(params["path"].Required)
	require.False(params["recursive"].Required)
}

func TestParseJSONSchemaToParamsNil(t *testing.T) {
	assert.Nil(t, parseJSONSchemaToParams(nil))
}

func TestToEinoToolsPreservesNameAndDescription(t *testing.T) {
	tools := []types.Tool{
		{Name: "read_file", Description: "reads a file", InputSchema: map[string]any{"type": "object"}},
	}
	einoTools := toEinoTools(tools)
	assert.Len(t, einoTools, 1)
	assert.Equal(t, "read_file", einoTools[0].Name)
	assert.Equal(t, "reads a file", einoTools[0].Desc)
}

func TestToEinoMessagesFlatText(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Text: "hello"},
	}
	out := toEinoMessages(messages)
	assert.Len(t, out, 1)
	assert.Equal(t, "hello", out[0].Content)
}

func TestToEinoMessagesSplitsToolResultIntoOwnMessage(t *testing.T) {
	messages := []types.Message{
		{
			Role: types.RoleUser,
			Blocks: []types.ContentBlock{
				types.NewToolResultBlock("call-1", "file contents", false),
			},
		},
	}
	out := toEinoMessages(messages)
	assert.Len(t, out, 1)
	assert.Equal(t, "call-1", out[0].ToolCallID)
	assert.Equal(t, "file contents", out[0].Content)
}

func TestFromEinoMessageReconstructsToolUseBlocks(t *testing.T) {
	fixture := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: "read_file", Arguments: `{"path":"/a.md"}`}},
		},
	}
	msg := fromEinoMessage(fixture)
	assert.Len(t, msg.ToolUseBlocks(), 1)
	assert.Equal(t, "read_file", msg.ToolUseBlocks()[0].ToolName)
}

func TestStopReasonFromFinish(t *testing.T) {
	assert.Equal(t, types.StopToolUse, stopReasonFromFinish("stop", true))
	assert.Equal(t, types.StopMaxTokens, stopReasonFromFinish("max_tokens", false))
	assert.Equal(t, types.StopEndTurn, stopReasonFromFinish("stop", false))
}
