package skill

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRegistry struct {
	skills []ResolvedSkill
	err    error
	calls  int
}

func (m *mockRegistry) ResolveSkillsForRequest(_ context.Context, _, _ string) ([]ResolvedSkill, error) {
	m.calls++
	return m.skills, m.err
}

func title(slug string) string {
	return strings.ToUpper(slug[:1]) + slug[1:]
}

func codeSkill(slug string) ResolvedSkill {
	return ResolvedSkill{
		Skill:           Extension{Name: title(slug), Slug: slug, Runtime: RuntimeCode},
		MatchedTriggers: []string{slug},
	}
}

func promptSkill(slug string) ResolvedSkill {
	return ResolvedSkill{
		Skill:           Extension{Name: title(slug), Slug: slug, Runtime: RuntimePrompt},
		MatchedTriggers: []string{slug},
	}
}

func TestResolver_PartitionsByRuntime(t *testing.T) {
	reg := &mockRegistry{skills: []ResolvedSkill{
		codeSkill("deployer"),
		promptSkill("styleguide"),
		{Skill: Extension{Name: "Sync", Slug: "sync", Runtime: RuntimeMCP}},
		{Skill: Extension{Name: "Review", Slug: "review", Runtime: RuntimeComposite}},
	}}
	r := NewResolver(reg, nil)

	res := r.Resolve(context.Background(), "org-1", "deploy the service", nil)

	require.Len(t, res.ResolvedSkills, 4)
	assert.Len(t, res.ExecutableSkills, 2)
	assert.Len(t, res.PromptSkills, 2)
}

func TestResolver_FiltersLegacySlugs(t *testing.T) {
	reg := &mockRegistry{skills: []ResolvedSkill{codeSkill("deployer"), promptSkill("styleguide")}}
	r := NewResolver(reg, nil)

	res := r.Resolve(context.Background(), "org-1", "deploy", []string{"Styleguide"})

	require.Len(t, res.ResolvedSkills, 1)
	assert.Equal(t, "deployer", res.ResolvedSkills[0].Skill.Slug)
	assert.NotContains(t, res.SkillPrompts, "Styleguide")
}

func TestResolver_RegistryFailureYieldsEmpty(t *testing.T) {
	reg := &mockRegistry{err: errors.New("registry down")}
	r := NewResolver(reg, nil)

	res := r.Resolve(context.Background(), "org-1", "deploy", nil)

	assert.Empty(t, res.ResolvedSkills)
	assert.Empty(t, res.SkillPrompts)
	assert.Empty(t, res.ExecutableSkills)
	assert.Empty(t, res.PromptSkills)
}

func TestResolver_DropsInvalidExtensions(t *testing.T) {
	reg := &mockRegistry{skills: []ResolvedSkill{
		{Skill: Extension{Name: "NoRuntime", Slug: "no-runtime", Runtime: "mystery"}},
		{Skill: Extension{Name: "BadParam", Slug: "bad-param", Runtime: RuntimeCode,
			Parameters: []Parameter{{Name: "mode", Type: "enum"}}}},
		codeSkill("deployer"),
	}}
	r := NewResolver(reg, nil)

	res := r.Resolve(context.Background(), "org-1", "deploy", nil)

	require.Len(t, res.ResolvedSkills, 1)
	assert.Equal(t, "deployer", res.ResolvedSkills[0].Skill.Slug)
}

func TestResolver_NilRegistry(t *testing.T) {
	r := NewResolver(nil, nil)
	res := r.Resolve(context.Background(), "org-1", "deploy", nil)
	assert.Empty(t, res.ResolvedSkills)
}

func TestPromptBlock_Deterministic(t *testing.T) {
	rs := ResolvedSkill{
		Skill: Extension{
			Name:        "Invoice Generator",
			Slug:        "invoice-generator",
			Description: "Creates invoices from structured input.",
			Runtime:     RuntimeCode,
			Parameters: []Parameter{
				{Name: "currency", Type: "string", Default: "USD", Description: "ISO currency code"},
				{Name: "amount", Type: "number", Required: true},
			},
			Outputs:       []string{"invoice_id", "pdf_url"},
			RequiredTools: []string{"billing-api"},
			Dependencies:  []string{"tax-tables"},
		},
		MatchedTriggers: []string{"invoice", "bill"},
	}

	block := rs.PromptBlock()

	assert.Equal(t, block, rs.PromptBlock())
	assert.True(t, strings.HasPrefix(block, "## Skill: Invoice Generator"))
	assert.Contains(t, block, "Matched triggers: invoice, bill")
	assert.Contains(t, block, "- currency (string, default: USD): ISO currency code")
	assert.Contains(t, block, "Outputs: invoice_id, pdf_url")
	assert.Contains(t, block, "Required tools: billing-api")
	assert.Contains(t, block, "Dependencies: tax-tables")
}

func TestResolver_JoinsPromptBlocks(t *testing.T) {
	reg := &mockRegistry{skills: []ResolvedSkill{promptSkill("styleguide"), promptSkill("tone")}}
	r := NewResolver(reg, nil)

	res := r.Resolve(context.Background(), "org-1", "write", nil)

	assert.Contains(t, res.SkillPrompts, "\n\n---\n\n")
	assert.Contains(t, res.SkillPrompts, "## Skill: Styleguide")
	assert.Contains(t, res.SkillPrompts, "## Skill: Tone")
}
