package ambiguity

import (
	"fmt"
	"strings"

	"github.com/routecore/routecore/intent"
)

// Clarification is the question the orchestrator should put to the end user
// before routing an ambiguous request.
type Clarification struct {
	Question         string   `json:"question"`
	Context          string   `json:"context,omitempty"`
	SuggestedAnswers []string `json:"suggestedAnswers,omitempty"`
}

const maxSuggestedAnswers = 5

// GenerateClarificationQuestion builds the primary clarification for an
// ambiguous request: the first suggested clarification (or a generic prompt),
// a context string summarizing any detected entities, and up to five
// topic-specific suggested answers. Never fails.
func GenerateClarificationQuestion(text string, result Result, entities intent.ExtractedEntities) Clarification {
	question := "Could you clarify what you would like me to do?"
	if len(result.SuggestedClarifications) > 0 {
		question = result.SuggestedClarifications[0]
	}

	return Clarification{
		Question:         question,
		Context:          entitiesContext(entities),
		SuggestedAnswers: suggestedAnswers(text, entities),
	}
}

// suggestedAnswers proposes concrete answer candidates keyed off topic words
// in the request and off detected entities.
func suggestedAnswers(text string, entities intent.ExtractedEntities) []string {
	lower := strings.ToLower(text)
	var answers []string

	add := func(answer string) {
		if len(answers) < maxSuggestedAnswers {
			answers = append(answers, answer)
		}
	}

	// Scope first: narrowing the blast radius is the most common missing piece.
	if len(entities.FileNames) > 0 {
		add(fmt.Sprintf("Only %s", entities.FileNames[0]))
		add("The whole project")
	} else if len(entities.ProjectNames) > 0 {
		add(fmt.Sprintf("Everything in %s", entities.ProjectNames[0]))
	}

	if strings.Contains(lower, "error") || strings.Contains(lower, "bug") || strings.Contains(lower, "fix") {
		add("Fix the error handling around the failing path")
		add("Find and fix the root cause of the bug")
	}
	if strings.Contains(lower, "test") {
		add("Run the existing test suite")
		add("Write new tests for recent changes")
	}
	if strings.Contains(lower, "refactor") || strings.Contains(lower, "clean") {
		add("Refactor for readability without behavior changes")
		add("Restructure the module layout")
	}
	for _, provider := range entities.Providers {
		add(fmt.Sprintf("Use the %s integration", provider))
	}

	return answers
}
