package skill

import (
	"context"
	"strings"

	"github.com/routecore/routecore/logging"
)

// Registry is the external skill registry this core consumes. Implementations
// own matching and the Extension payloads.
type Registry interface {
	ResolveSkillsForRequest(ctx context.Context, organizationID, requestText string) ([]ResolvedSkill, error)
}

// Resolution is the outcome of resolving skills for one request.
type Resolution struct {
	ResolvedSkills   []ResolvedSkill `json:"resolvedSkills"`
	SkillPrompts     string          `json:"skillPrompts"`
	ExecutableSkills []ResolvedSkill `json:"executableSkills"`
	PromptSkills     []ResolvedSkill `json:"promptSkills"`
}

const promptSeparator = "\n\n---\n\n"

// Resolver queries the registry and assembles the resolution. Stateless; safe
// for concurrent use.
type Resolver struct {
	registry Registry
	logger   logging.Logger
}

// NewResolver constructs a Resolver. A nil logger falls back to NoOp.
func NewResolver(registry Registry, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Resolver{registry: registry, logger: logger}
}

// Resolve matches skills for the request. Slugs already present in
// legacySkillSlugs are dropped to avoid duplicate prompt injection, invalid
// registry payloads are dropped at the boundary, and remaining matches are
// partitioned by runtime. Registry failure yields an empty Resolution so
// routing proceeds without skill augmentation.
func (r *Resolver) Resolve(ctx context.Context, organizationID, requestText string, legacySkillSlugs []string) Resolution {
	if r.registry == nil {
		return Resolution{}
	}

	matches, err := r.registry.ResolveSkillsForRequest(ctx, organizationID, requestText)
	if err != nil {
		r.logger.Warn("skill registry unavailable", "organization_id", organizationID, "error", err)
		return Resolution{}
	}

	legacy := make(map[string]struct{}, len(legacySkillSlugs))
	for _, slug := range legacySkillSlugs {
		legacy[strings.ToLower(slug)] = struct{}{}
	}

	var res Resolution
	var prompts []string
	for _, match := range matches {
		if err := match.Skill.Validate(); err != nil {
			r.logger.Warn("dropping invalid registry extension", "error", err)
			continue
		}
		if _, dup := legacy[strings.ToLower(match.Skill.Slug)]; dup {
			continue
		}

		res.ResolvedSkills = append(res.ResolvedSkills, match)
		if match.Skill.Runtime.Executable() {
			res.ExecutableSkills = append(res.ExecutableSkills, match)
		} else {
			res.PromptSkills = append(res.PromptSkills, match)
		}
		prompts = append(prompts, match.PromptBlock())
	}

	res.SkillPrompts = strings.Join(prompts, promptSeparator)
	return res
}
