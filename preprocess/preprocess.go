// Package preprocess normalizes raw request text before classification.
// All functions are pure: they never fail and hold no state, so the same
// input always produces the same Result regardless of call order.
package preprocess

import (
	"regexp"
	"strings"
	"unicode"
)

// Language identifies the dominant script of a request.
type Language string

const (
	// LanguageEnglish marks requests dominated by Latin script.
	LanguageEnglish Language = "en"
	// LanguageKorean marks requests dominated by Hangul.
	LanguageKorean Language = "ko"
	// LanguageMixed marks requests with a substantial share of both.
	LanguageMixed Language = "mixed"
)

// Result is the normalized view of a raw request.
type Result struct {
	Normalized         string
	Language           Language
	Tokens             []string
	HasCode            bool
	HasURL             bool
	EstimatedWordCount int
}

var (
	urlPattern        = regexp.MustCompile(`https?://[^\s]+`)
	fencedCodePattern = regexp.MustCompile("```")
	indentedLine      = regexp.MustCompile(`(?m)^(?: {4}|\t)\S`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// Preprocess normalizes text and derives the signals the rest of the pipeline
// keys on. Language is decided by the fraction of Hangul code points among
// non-whitespace, non-punctuation runes: above 30% is Korean, below 5% is
// English, anything between is mixed.
func Preprocess(text string) Result {
	normalized := Normalize(text)
	tokens := Tokenize(normalized)

	return Result{
		Normalized:         normalized,
		Language:           DetectLanguage(text),
		Tokens:             tokens,
		HasCode:            hasCode(text),
		HasURL:             urlPattern.MatchString(text),
		EstimatedWordCount: len(tokens),
	}
}

// Normalize lowercases, trims and collapses internal whitespace runs.
func Normalize(text string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// Tokenize splits normalized text on whitespace. Empty input yields no tokens.
func Tokenize(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// DetectLanguage reports the dominant script of the text.
func DetectLanguage(text string) Language {
	var hangul, total int
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Hangul, r) {
			hangul++
		}
	}
	if total == 0 {
		return LanguageEnglish
	}
	ratio := float64(hangul) / float64(total)
	switch {
	case ratio > 0.3:
		return LanguageKorean
	case ratio < 0.05:
		return LanguageEnglish
	default:
		return LanguageMixed
	}
}

// hasCode matches fenced blocks or 4-space/tab indented lines.
func hasCode(text string) bool {
	return fencedCodePattern.MatchString(text) || indentedLine.MatchString(text)
}
