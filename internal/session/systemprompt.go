package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmadforge/runtime/pkg/types"
)

// buildSystemPrompt assembles the plaintext system prompt in the exact
// section order and headings §6.2 specifies. Vocabulary is a stable
// contract with the LLM — do not reword the headings.
func buildSystemPrompt(def *types.AgentDefinition, tools []types.Tool) string {
	var b strings.Builder

	b.WriteString(preamble)
	b.WriteString("\n\n")

	b.WriteString("## Available Tools\n\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", t.Name, t.Description)
		b.WriteString("Parameters:\n\n```\n")
		writeSchema(&b, t.InputSchema)
		b.WriteString("```\n\n")
		fmt.Fprintf(&b, "Example: call `%s` with the parameters above filled in for the task at hand.\n\n", t.Name)
	}

	b.WriteString(toolUsageRules)
	b.WriteString("\n\n")
	b.WriteString(workflowGuidelines)
	b.WriteString("\n\n")

	b.WriteString("## Agent Persona\n\n")
	fmt.Fprintf(&b, "**Name:** %s\n\n", def.Name)
	fmt.Fprintf(&b, "**Role:** %s\n\n", def.Persona.Role)
	fmt.Fprintf(&b, "**Title:** %s\n\n", def.Title)
	fmt.Fprintf(&b, "**Icon:** %s\n\n", def.Icon)
	if def.Persona.Style != "" {
		fmt.Fprintf(&b, "**Style:** %s\n\n", def.Persona.Style)
	}
	if def.Persona.Identity != "" {
		fmt.Fprintf(&b, "**Identity:** %s\n\n", def.Persona.Identity)
	}
	if def.Persona.Focus != "" {
		fmt.Fprintf(&b, "**Focus:** %s\n\n", def.Persona.Focus)
	}
	if len(def.Persona.CorePrinciples) > 0 {
		b.WriteString("**Core Principles:**\n\n")
		for _, p := range def.Persona.CorePrinciples {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}

	if def.Customization != "" {
		b.WriteString(def.Customization)
		b.WriteString("\n\n")
	}

	if len(def.Commands) > 0 {
		b.WriteString("## Available Commands\n\n")
		for _, c := range def.Commands {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Activation Instructions\n\n")
	if len(def.ActivationInstructions) > 0 {
		for i, instr := range def.ActivationInstructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, instr)
		}
	} else {
		b.WriteString("Follow the persona and commands described above.\n")
	}
	b.WriteString("\n")

	b.WriteString(closingDirective)

	return b.String()
}

const preamble = `You are an autonomous documentation and planning assistant operating inside a fixed tool environment. You have no access to the host filesystem or shell directly; every file operation goes through the tools described below, which act on a virtual, in-memory workspace. Specialized tools are available for reading, writing, and editing documents, for listing and discovering files, for asking the user a clarifying question, and for delegating work to other specialized agents.`

const toolUsageRules = `## Tool Usage Rules

- Always call read_file on a document before calling edit_file on it.
- All file paths passed to any tool must be absolute (start with "/").
- Do not perform speculative writes: only write or edit a file when you have a concrete reason to.`

const workflowGuidelines = `## Workflow Guidelines

1. Understand the command and the current state of the workspace.
2. Gather the information you need using the read and discovery tools.
3. Act by producing or editing the requested documents.
4. Report what you did and where the resulting documents live.`

const closingDirective = `Adopt the persona described above for the remainder of this session and await the commands given to you.`

func writeSchema(b *strings.Builder, schema map[string]any) {
	props, _ := schema["properties"].(map[string]any)
	required := map[string]bool{}
	if req, ok := schema["required"].([]string); ok {
		for _, r := range req {
			required[r] = true
		}
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry, _ := props[name].(map[string]any)
		typ, _ := entry["type"].(string)
		desc, _ := entry["description"].(string)
		marker := ""
		if required[name] {
			marker = " (required)"
		}
		fmt.Fprintf(b, "  %s: %s%s - %s\n", name, typ, marker, desc)
	}
}
