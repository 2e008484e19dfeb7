// Package agentdef parses agent-definition markdown files (YAML front
// matter + persona body) and resolves an agent id to a definition across a
// local root, a sibling export-author root, and configured expansion-pack
// roots. The front-matter/body split follows the same "---"-delimited
// scanning idiom the teacher uses for its slash-command files, generalized
// from a flat key:value scan to full gopkg.in/yaml.v3 unmarshaling because
// persona.core_principles[] and dependencies.*[] are nested shapes a
// line-by-line scanner cannot express.
package agentdef

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bmadforge/runtime/pkg/types"
)

// ErrAgentNotFound is returned when no root yields {id}.md.
type ErrAgentNotFound struct{ ID string }

func (e *ErrAgentNotFound) Error() string { return fmt.Sprintf("agent not found: %s", e.ID) }

// Loader resolves agent ids to AgentDefinitions. It is the external
// collaborator contracted in §6.1; DefaultLoader is this module's reference
// implementation.
type Loader interface {
	Load(id string) (*types.AgentDefinition, error)
	// Discover returns every agent-definition file found across the
	// resolution roots, used to seed the VFS for LLM self-discovery.
	Discover() (map[string]string, error)
}

type frontMatter struct {
	Agent struct {
		ID            string `yaml:"id"`
		Name          string `yaml:"name"`
		Title         string `yaml:"title"`
		Icon          string `yaml:"icon"`
		WhenToUse     string `yaml:"whenToUse"`
		Customization string `yaml:"customization"`
	} `yaml:"agent"`
	Persona struct {
		Role           string   `yaml:"role"`
		Style          string   `yaml:"style"`
		Identity       string   `yaml:"identity"`
		Focus          string   `yaml:"focus"`
		CorePrinciples []string `yaml:"core_principles"`
	} `yaml:"persona"`
	Commands     []string `yaml:"commands"`
	Dependencies struct {
		Tasks      []string `yaml:"tasks"`
		Templates  []string `yaml:"templates"`
		Checklists []string `yaml:"checklists"`
		Data       []string `yaml:"data"`
	} `yaml:"dependencies"`
	ActivationInstructions []string `yaml:"activation_instructions"`
}

// DefaultLoader resolves agent markdown files from a local root, an optional
// sibling export-author root, and a list of expansion-pack roots, in that
// order — the first match wins, matching §4.6 step 2.
type DefaultLoader struct {
	LocalRoot          string   // e.g. ./.bmad-core
	ExportAuthorRoot    string  // e.g. ../bmad-export-author/.bmad-core
	ExpansionPackRoots []string
}

// NewDefaultLoader builds a loader rooted at workDir/.bmad-core.
func NewDefaultLoader(workDir string, expansionPackPaths []string) *DefaultLoader {
	return &DefaultLoader{
		LocalRoot:        filepath.Join(workDir, ".bmad-core"),
		ExportAuthorRoot: filepath.Join(workDir, "..", "bmad-export-author", ".bmad-core"),
		ExpansionPackRoots: expansionPackPaths,
	}
}

func (l *DefaultLoader) roots() []string {
	roots := []string{l.LocalRoot, l.ExportAuthorRoot}
	roots = append(roots, l.ExpansionPackRoots...)
	return roots
}

// Load resolves id against each root's agents/ directory in order.
func (l *DefaultLoader) Load(id string) (*types.AgentDefinition, error) {
	for _, root := range l.roots() {
		path := filepath.Join(root, "agents", id+".md")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		def, err := Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		def.Source = path
		return def, nil
	}
	return nil, &ErrAgentNotFound{ID: id}
}

// Discover walks every root's agents/ directory and returns absolute VFS
// path (e.g. "/.bmad-core/agents/pm.md", or "/.bmad-<pack>/agents/..." for a
// root named .bmad-<pack>) -> raw file content, for seeding the VFS. Local entries
// overwrite expansion-pack entries at identical relative paths, matching the
// "local overwrites earlier entries" ordering in §4.6 step 5.
func (l *DefaultLoader) Discover() (map[string]string, error) {
	out := make(map[string]string)
	// Reverse order so later iterations (local root last) win on conflict.
	roots := l.roots()
	for i := len(roots) - 1; i >= 0; i-- {
		root := roots[i]
		dir := filepath.Join(root, "agents")
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		ns := namespaceFor(root)
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			out[fmt.Sprintf("/%s/agents/%s", ns, e.Name())] = string(data)
		}
	}
	return out, nil
}

// namespaceFor derives the .bmad-* directory name a root should be exposed
// under in the VFS, defaulting to ".bmad-core".
func namespaceFor(root string) string {
	base := filepath.Base(root)
	if strings.HasPrefix(base, ".bmad-") {
		return base
	}
	return ".bmad-core"
}

// Parse splits front matter from body and unmarshals it into an
// AgentDefinition. Required keys: agent.id, agent.name.
func Parse(content string) (*types.AgentDefinition, error) {
	fm, _, err := splitFrontMatter(content)
	if err != nil {
		return nil, err
	}
	if fm.Agent.ID == "" {
		return nil, fmt.Errorf("agent-definition front matter missing agent.id")
	}
	if fm.Agent.Name == "" {
		return nil, fmt.Errorf("agent-definition front matter missing agent.name")
	}

	def := &types.AgentDefinition{
		ID:            fm.Agent.ID,
		Name:          fm.Agent.Name,
		Title:         fm.Agent.Title,
		Icon:          fm.Agent.Icon,
		WhenToUse:     fm.Agent.WhenToUse,
		Customization: fm.Agent.Customization,
		Persona: types.Persona{
			Role:           fm.Persona.Role,
			Style:          fm.Persona.Style,
			Identity:       fm.Persona.Identity,
			Focus:          fm.Persona.Focus,
			CorePrinciples: fm.Persona.CorePrinciples,
		},
		Commands: fm.Commands,
		Dependencies: types.AgentDependencies{
			Tasks:      fm.Dependencies.Tasks,
			Templates:  fm.Dependencies.Templates,
			Checklists: fm.Dependencies.Checklists,
			Data:       fm.Dependencies.Data,
		},
		ActivationInstructions: fm.ActivationInstructions,
	}
	return def, nil
}

// splitFrontMatter separates the leading "---"-delimited YAML block from
// the markdown body, exactly the scanning idiom the teacher's slash-command
// parser uses, generalized to hand the block to a real YAML unmarshaler.
func splitFrontMatter(content string) (frontMatter, string, error) {
	var fm frontMatter

	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return fm, content, fmt.Errorf("missing front matter delimiter")
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return fm, content, fmt.Errorf("unterminated front matter block")
	}

	block := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return fm, content, fmt.Errorf("invalid front matter yaml: %w", err)
	}

	body := strings.TrimSpace(strings.Join(lines[end+1:], "\n"))
	return fm, body, nil
}
