package types

// AgentDefinition is the parsed form of an agent-definition markdown file
// (front matter + persona). It is produced by an AgentLoader and consumed
// read-only by the session engine when composing a system prompt.
type AgentDefinition struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Title         string   `yaml:"title,omitempty" json:"title,omitempty"`
	Icon          string   `yaml:"icon,omitempty" json:"icon,omitempty"`
	WhenToUse     string   `yaml:"whenToUse,omitempty" json:"whenToUse,omitempty"`
	Customization string   `yaml:"customization,omitempty" json:"customization,omitempty"`

	Persona Persona `yaml:"persona,omitempty" json:"persona,omitempty"`

	Commands     []string          `yaml:"commands,omitempty" json:"commands,omitempty"`
	Dependencies AgentDependencies `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`

	ActivationInstructions []string `yaml:"activationInstructions,omitempty" json:"activationInstructions,omitempty"`

	// Source records the VFS/host path this definition was loaded from, for
	// diagnostics; not part of the front-matter schema itself.
	Source string `yaml:"-" json:"-"`
}

// Persona is the agent's role-play identity, used verbatim in the system prompt.
type Persona struct {
	Role            string   `yaml:"role,omitempty" json:"role,omitempty"`
	Style           string   `yaml:"style,omitempty" json:"style,omitempty"`
	Identity        string   `yaml:"identity,omitempty" json:"identity,omitempty"`
	Focus           string   `yaml:"focus,omitempty" json:"focus,omitempty"`
	CorePrinciples  []string `yaml:"core_principles,omitempty" json:"corePrinciples,omitempty"`
}

// AgentDependencies names the supporting documents an agent may reference.
// These are informational to the core (§6.1: "body is informational"); the
// runtime does not resolve them on the agent's behalf.
type AgentDependencies struct {
	Tasks      []string `yaml:"tasks,omitempty" json:"tasks,omitempty"`
	Templates  []string `yaml:"templates,omitempty" json:"templates,omitempty"`
	Checklists []string `yaml:"checklists,omitempty" json:"checklists,omitempty"`
	Data       []string `yaml:"data,omitempty" json:"data,omitempty"`
}

// IsEmpty reports whether the agent declared no persona fields at all, used
// to decide whether to emit the "## Agent Persona" section with defaults.
func (p Persona) IsEmpty() bool {
	return p.Role == "" && p.Style == "" && p.Identity == "" && p.Focus == "" && len(p.CorePrinciples) == 0
}
