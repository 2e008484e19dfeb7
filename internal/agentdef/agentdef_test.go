package agentdef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePM = `---
agent:
  id: pm
  name: Jordan
  title: Product Manager
  icon: "📋"
persona:
  role: Product strategist
  core_principles:
    - Ruthless prioritization
    - Talk to users
commands:
  - create-prd
  - create-story
dependencies:
  templates:
    - prd-tmpl.yaml
activation_instructions:
  - Greet the user
  - Await a command
---

# Product Manager

Body text is informational.
`

func TestParse(t *testing.T) {
	def, err := Parse(samplePM)
	require.NoError(t, err)

	assert.Equal(t, "pm", def.ID)
	assert.Equal(t, "Jordan", def.Name)
	assert.Equal(t, "Product Manager", def.Title)
	assert.Equal(t, []string{"Ruthless prioritization", "Talk to users"}, def.Persona.CorePrinciples)
	assert.Equal(t, []string{"create-prd", "create-story"}, def.Commands)
	assert.Equal(t, []string{"prd-tmpl.yaml"}, def.Dependencies.Templates)
	assert.Equal(t, []string{"Greet the user", "Await a command"}, def.ActivationInstructions)
}

func TestParseMissingID(t *testing.T) {
	_, err := Parse("---\nagent:\n  name: X\n---\nbody")
	assert.Error(t, err)
}

func TestParseMissingFrontMatter(t *testing.T) {
	_, err := Parse("# just a heading\n")
	assert.Error(t, err)
}

func TestDefaultLoaderResolutionOrder(t *testing.T) {
	work := t.TempDir()
	localAgents := filepath.Join(work, ".bmad-core", "agents")
	require.NoError(t, os.MkdirAll(localAgents, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(localAgents, "pm.md"), []byte(samplePM), 0o644))

	loader := NewDefaultLoader(work, nil)
	def, err := loader.Load("pm")
	require.NoError(t, err)
	assert.Equal(t, "pm", def.ID)

	_, err = loader.Load("missing")
	var notFound *ErrAgentNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestDiscoverSeedsVFSPaths(t *testing.T) {
	work := t.TempDir()
	localAgents := filepath.Join(work, ".bmad-core", "agents")
	require.NoError(t, os.MkdirAll(localAgents, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(localAgents, "pm.md"), []byte(samplePM), 0o644))

	loader := NewDefaultLoader(work, nil)
	files, err := loader.Discover()
	require.NoError(t, err)
	assert.Contains(t, files, "/.bmad-core/agents/pm.md")
}
