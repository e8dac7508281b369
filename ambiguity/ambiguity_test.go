package ambiguity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routecore/routecore/intent"
)

func TestDetect_FixIt(t *testing.T) {
	res := Detect("fix it")

	assert.True(t, res.IsAmbiguous)
	assert.GreaterOrEqual(t, res.AmbiguityScore, Threshold)

	joined := strings.Join(res.Reasons, " | ")
	assert.Contains(t, joined, "vague verb")
	assert.Contains(t, joined, "antecedent")
	assert.NotEmpty(t, res.SuggestedClarifications)
}

func TestDetect_ClearRequest(t *testing.T) {
	res := Detect("create a new invoice for ACME Corp for the March retainer and send it to billing@acme.com")

	assert.False(t, res.IsAmbiguous)
	assert.Less(t, res.AmbiguityScore, Threshold)
}

func TestDetect_VagueVerbSuppressedByConcreteToken(t *testing.T) {
	vague := Detect("improve the thing somehow please")
	anchored := Detect("improve parser.go error messages somehow please")

	joined := strings.Join(vague.Reasons, " | ")
	assert.Contains(t, joined, "vague verb")
	for _, r := range anchored.Reasons {
		assert.NotContains(t, r, "vague verb")
	}
}

func TestDetect_ShortImperativeWhitelisted(t *testing.T) {
	res := Detect("run tests")
	for _, r := range res.Reasons {
		assert.NotContains(t, r, "lacks a specific object")
	}
	assert.False(t, res.IsAmbiguous)
}

func TestDetect_ConflictingInstructions(t *testing.T) {
	res := Detect("add the banner to the homepage and also remove the banner from the homepage entirely")

	joined := strings.Join(res.Reasons, " | ")
	assert.Contains(t, joined, "conflicting instructions")
	assert.Contains(t, joined, "add/remove")
}

func TestDetect_ScoreClamped(t *testing.T) {
	// Stacks every heuristic; sum would exceed 1 without the clamp.
	res := Detect("it fix test")
	assert.LessOrEqual(t, res.AmbiguityScore, 1.0)
}

func TestDetect_EmptyReasonsWhenClear(t *testing.T) {
	res := Detect("summarize the quarterly revenue report spreadsheet for the finance leadership meeting")
	assert.Empty(t, res.Reasons)
	assert.Zero(t, res.AmbiguityScore)
}

func TestGenerateClarificationQuestion(t *testing.T) {
	text := "fix it"
	res := Detect(text)
	entities := intent.ExtractEntities("fix it in parser.go for project Apollo via slack")

	c := GenerateClarificationQuestion(text, res, entities)

	assert.Equal(t, res.SuggestedClarifications[0], c.Question)
	assert.Contains(t, c.Context, "parser.go")
	assert.Contains(t, c.Context, "Apollo")
	assert.NotEmpty(t, c.SuggestedAnswers)
	assert.LessOrEqual(t, len(c.SuggestedAnswers), 5)
}

func TestGenerateClarificationQuestion_DefaultQuestion(t *testing.T) {
	c := GenerateClarificationQuestion("summarize the quarterly revenue report", Result{}, intent.ExtractedEntities{})
	assert.NotEmpty(t, c.Question)
	assert.Empty(t, c.Context)
}
