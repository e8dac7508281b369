// Package skill resolves registered capabilities against a request. Matching
// itself is owned by an external registry; this package owns the boundary
// types, the legacy-slug filtering, the executable/prompt partition and the
// deterministic prompt blocks injected for matched skills.
package skill

import (
	"fmt"
	"strings"
)

// RuntimeType is the closed set of skill runtimes.
type RuntimeType string

const (
	// RuntimeCode is a skill backed by an executable routine.
	RuntimeCode RuntimeType = "code"
	// RuntimeMCP is a skill backed by an MCP tool server.
	RuntimeMCP RuntimeType = "mcp"
	// RuntimePrompt is a prompt-snippet skill.
	RuntimePrompt RuntimeType = "prompt"
	// RuntimeComposite combines prompt and executable parts.
	RuntimeComposite RuntimeType = "composite"
)

// Valid reports whether r is a member of the closed runtime set.
func (r RuntimeType) Valid() bool {
	switch r {
	case RuntimeCode, RuntimeMCP, RuntimePrompt, RuntimeComposite:
		return true
	}
	return false
}

// Executable reports whether the runtime produces an invocable backend
// (code, mcp) rather than prompt augmentation (prompt, composite).
func (r RuntimeType) Executable() bool {
	return r == RuntimeCode || r == RuntimeMCP
}

// Parameter describes one input of a skill.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Extension is the capability descriptor owned by the external registry.
// This core only reads it.
type Extension struct {
	Name          string      `json:"name"`
	Slug          string      `json:"slug"`
	Description   string      `json:"description"`
	Runtime       RuntimeType `json:"runtime"`
	Parameters    []Parameter `json:"parameters,omitempty"`
	Outputs       []string    `json:"outputs,omitempty"`
	RequiredTools []string    `json:"requiredTools,omitempty"`
	Dependencies  []string    `json:"dependencies,omitempty"`
}

// Validate checks the capability-set contract an Extension must satisfy when
// it crosses the registry boundary.
func (e Extension) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("extension has no name")
	}
	if e.Slug == "" {
		return fmt.Errorf("extension %q has no slug", e.Name)
	}
	if !e.Runtime.Valid() {
		return fmt.Errorf("extension %q has unknown runtime %q", e.Name, e.Runtime)
	}
	for _, p := range e.Parameters {
		if err := p.validateDeclaration(); err != nil {
			return fmt.Errorf("extension %q: %w", e.Name, err)
		}
	}
	return nil
}

// ResolvedSkill pairs a registry extension with the triggers that matched the
// request.
type ResolvedSkill struct {
	Skill           Extension `json:"skill"`
	MatchedTriggers []string  `json:"matchedTriggers"`
}

// PromptBlock renders the deterministic markdown block injected into the
// downstream prompt for this skill.
func (rs ResolvedSkill) PromptBlock() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Skill: %s\n", rs.Skill.Name)
	if rs.Skill.Description != "" {
		fmt.Fprintf(&b, "%s\n", rs.Skill.Description)
	}
	if len(rs.MatchedTriggers) > 0 {
		fmt.Fprintf(&b, "Matched triggers: %s\n", strings.Join(rs.MatchedTriggers, ", "))
	}
	if len(rs.Skill.Parameters) > 0 {
		b.WriteString("Parameters:\n")
		for _, p := range rs.Skill.Parameters {
			fmt.Fprintf(&b, "- %s (%s", p.Name, p.Type)
			if p.Default != nil {
				fmt.Fprintf(&b, ", default: %v", p.Default)
			}
			b.WriteString(")")
			if p.Description != "" {
				fmt.Fprintf(&b, ": %s", p.Description)
			}
			b.WriteString("\n")
		}
	}
	if len(rs.Skill.Outputs) > 0 {
		fmt.Fprintf(&b, "Outputs: %s\n", strings.Join(rs.Skill.Outputs, ", "))
	}
	if len(rs.Skill.RequiredTools) > 0 {
		fmt.Fprintf(&b, "Required tools: %s\n", strings.Join(rs.Skill.RequiredTools, ", "))
	}
	if len(rs.Skill.Dependencies) > 0 {
		fmt.Fprintf(&b, "Dependencies: %s\n", strings.Join(rs.Skill.Dependencies, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
