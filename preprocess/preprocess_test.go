package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess_Normalizes(t *testing.T) {
	res := Preprocess("  Create   a NEW Task\n")
	assert.Equal(t, "create a new task", res.Normalized)
	assert.Equal(t, []string{"create", "a", "new", "task"}, res.Tokens)
	assert.Equal(t, 4, res.EstimatedWordCount)
	assert.False(t, res.HasCode)
	assert.False(t, res.HasURL)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, LanguageEnglish, DetectLanguage("create a task for tomorrow"))
	assert.Equal(t, LanguageKorean, DetectLanguage("작업 생성해줘"))
	// Half Latin, half Hangul lands between the thresholds.
	assert.Equal(t, LanguageMixed, DetectLanguage("task 생성"))
	// Empty and punctuation-only inputs default to English.
	assert.Equal(t, LanguageEnglish, DetectLanguage(""))
	assert.Equal(t, LanguageEnglish, DetectLanguage("?!"))
}

func TestPreprocess_DetectsCode(t *testing.T) {
	assert.True(t, Preprocess("fix this:\n```go\nfunc main() {}\n```").HasCode)
	assert.True(t, Preprocess("see below\n    indented := true").HasCode)
	assert.True(t, Preprocess("see below\n\tindented := true").HasCode)
	assert.False(t, Preprocess("no code here, just prose").HasCode)
}

func TestPreprocess_DetectsURL(t *testing.T) {
	assert.True(t, Preprocess("summarize https://example.com/doc").HasURL)
	assert.False(t, Preprocess("summarize the doc").HasURL)
}

func TestPreprocess_IsPure(t *testing.T) {
	in := "Create a task"
	first := Preprocess(in)
	second := Preprocess(in)
	assert.Equal(t, first, second)
}
