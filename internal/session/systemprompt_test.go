package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bmadforge/runtime/pkg/types"
)

func testTools() []types.Tool {
	return []types.Tool{
		{
			Name:        "read_file",
			Description: "Reads a document from the workspace.",
			InputSchema: map[string]any{
				"properties": map[string]any{
					"file_path": map[string]any{"type": "string", "description": "absolute path"},
				},
				"required": []string{"file_path"},
			},
		},
	}
}

func TestBuildSystemPromptSectionOrder(t *testing.T) {
	def := &types.AgentDefinition{
		ID:    "dev",
		Name:  "Dev Agent",
		Title: "Full Stack Developer",
		Icon:  ":construction_worker:",
		Persona: types.Persona{
			Role:           "senior engineer",
			CorePrinciples: []string{"ship working code", "write tests"},
		},
		Commands: []string{"*help", "*implement"},
		ActivationInstructions: []string{"Greet the user", "Await a command"},
	}

	prompt := buildSystemPrompt(def, testTools())

	sections := []string{
		"## Available Tools",
		"## Tool Usage Rules",
		"## Workflow Guidelines",
		"## Agent Persona",
		"## Available Commands",
		"## Activation Instructions",
	}
	lastIdx := -1
	for _, section := range sections {
		idx := strings.Index(prompt, section)
		assert.True(t, idx >= 0, "missing section %q", section)
		assert.True(t, idx > lastIdx, "section %q out of order", section)
		lastIdx = idx
	}

	assert.Contains(t, prompt, "Dev Agent")
	assert.Contains(t, prompt, "senior engineer")
	assert.Contains(t, prompt, "ship working code")
	assert.Contains(t, prompt, "*help")
	assert.Contains(t, prompt, "1. Greet the user")
}

func TestBuildSystemPromptOmitsEmptyOptionalSections(t *testing.T) {
	def := &types.AgentDefinition{ID: "dev", Name: "Dev Agent"}
	prompt := buildSystemPrompt(def, testTools())

	assert.NotContains(t, prompt, "## Available Commands")
	assert.Contains(t, prompt, "Follow the persona and commands described above.")
}

func TestBuildSystemPromptIncludesToolSchema(t *testing.T) {
	def := &types.AgentDefinition{ID: "dev", Name: "Dev Agent"}
	prompt := buildSystemPrompt(def, testTools())

	assert.Contains(t, prompt, "read_file")
	assert.Contains(t, prompt, "file_path: string (required) - absolute path")
}
