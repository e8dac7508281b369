// Package ambiguity scores how under-specified a request is. Detection is a
// pure function summing independently capped heuristic contributions; a score
// of 0.6 or above marks the request ambiguous and the surrounding
// orchestrator is expected to ask the generated clarification question before
// routing.
package ambiguity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/routecore/routecore/intent"
)

// Threshold is the score at or above which a request counts as ambiguous.
const Threshold = 0.6

// Result is the outcome of one ambiguity check.
type Result struct {
	IsAmbiguous             bool     `json:"isAmbiguous"`
	AmbiguityScore          float64  `json:"ambiguityScore"`
	Reasons                 []string `json:"reasons"`
	SuggestedClarifications []string `json:"suggestedClarifications"`
}

// vagueVerbs indicate an action without saying what it applies to.
var vagueVerbs = []string{
	"fix", "improve", "handle", "clean", "optimize", "sort out", "deal with",
	"make better", "update", "change", "고쳐", "개선", "처리", "수정",
}

// concreteTokenPattern matches tokens precise enough to anchor a vague verb:
// file names, function or method references, endpoint paths, class-like names.
var concreteTokenPattern = regexp.MustCompile(`\b[\w-]+\.\w{1,5}\b|\b\w+\(\)|\b[A-Z][a-z]+[A-Z]\w*\b|(?:^|\s)/[\w/-]+`)

// specificImperatives are short commands that are complete despite their length.
var specificImperatives = []string{
	"run tests", "run the tests", "build", "deploy", "run lint", "format code",
	"테스트 실행", "빌드",
}

// multiInterpretationTopics are words that routinely mean different kinds of
// work depending on intent.
var multiInterpretationTopics = []string{
	"test", "deploy", "refactor", "optimize", "clean", "release", "migrate", "sync",
}

// leadingPronouns start a request without an antecedent to resolve against.
var leadingPronouns = []string{"it", "this", "that", "these", "those", "them", "이거", "저거", "그거"}

// conflictingPairs are instruction pairs that cannot both be meant.
var conflictingPairs = [][2]string{
	{"add", "remove"},
	{"create", "delete"},
	{"enable", "disable"},
	{"start", "stop"},
	{"increase", "decrease"},
	{"show", "hide"},
}

// Detect scores text for ambiguity against the default Threshold. Pure
// function: never fails, returns an empty reasons list when the request is
// clear.
func Detect(text string) Result {
	return DetectWithThreshold(text, Threshold)
}

// DetectWithThreshold scores text for ambiguity, flagging it as ambiguous at
// or above the given threshold. The score itself does not depend on the
// threshold.
func DetectWithThreshold(text string, threshold float64) Result {
	normalized := strings.ToLower(strings.TrimSpace(text))
	tokens := strings.Fields(normalized)

	var (
		score          float64
		reasons        []string
		clarifications []string
	)

	hasConcrete := concreteTokenPattern.MatchString(text)

	if verb := matchedVagueVerb(normalized); verb != "" && !hasConcrete {
		score += 0.2
		reasons = append(reasons, fmt.Sprintf("vague verb %q without a concrete target", verb))
		clarifications = append(clarifications, fmt.Sprintf("What exactly should I %s?", verb))
	}

	if missingSpecificity(normalized, tokens, hasConcrete) {
		score += 0.25
		reasons = append(reasons, "request lacks a specific object or scope")
		clarifications = append(clarifications, "Which file, feature or system is this about?")
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < 15 {
		score += 0.3
		reasons = append(reasons, "request is very short")
		clarifications = append(clarifications, "Could you describe the request in more detail?")
	}

	if topicScore, topics := multiInterpretationScore(tokens); topicScore > 0 {
		score += topicScore
		reasons = append(reasons, fmt.Sprintf("topic can be read multiple ways: %s", strings.Join(topics, ", ")))
		clarifications = append(clarifications, fmt.Sprintf("What kind of %s work do you mean?", topics[0]))
	}

	if pronoun := unresolvedLeadingPronoun(tokens); pronoun != "" {
		score += 0.2
		reasons = append(reasons, fmt.Sprintf("pronoun %q has no antecedent", pronoun))
		clarifications = append(clarifications, fmt.Sprintf("What does %q refer to?", pronoun))
	}

	if conflictScore, pairs := conflictingInstructionScore(normalized); conflictScore > 0 {
		score += conflictScore
		reasons = append(reasons, fmt.Sprintf("conflicting instructions: %s", strings.Join(pairs, ", ")))
		clarifications = append(clarifications, "Should I do both of these, or only one?")
	}

	if score > 1 {
		score = 1
	}

	return Result{
		IsAmbiguous:             score >= threshold,
		AmbiguityScore:          score,
		Reasons:                 reasons,
		SuggestedClarifications: clarifications,
	}
}

func matchedVagueVerb(normalized string) string {
	for _, verb := range vagueVerbs {
		if strings.Contains(normalized, verb) {
			return verb
		}
	}
	return ""
}

// missingSpecificity reports short requests with nothing concrete to act on,
// excluding whitelisted imperatives like "run tests".
func missingSpecificity(normalized string, tokens []string, hasConcrete bool) bool {
	if hasConcrete || len(tokens) == 0 || len(tokens) > 4 {
		return false
	}
	for _, imperative := range specificImperatives {
		if normalized == imperative {
			return false
		}
	}
	return true
}

// multiInterpretationScore contributes 0.15 per matched topic, capped at 0.3.
func multiInterpretationScore(tokens []string) (float64, []string) {
	var matched []string
	for _, token := range tokens {
		trimmed := strings.Trim(token, ".,!?")
		for _, topic := range multiInterpretationTopics {
			if trimmed == topic || trimmed == topic+"s" || trimmed == topic+"ing" {
				matched = append(matched, topic)
			}
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}
	score := 0.15 * float64(len(matched))
	if score > 0.3 {
		score = 0.3
	}
	return score, matched
}

// unresolvedLeadingPronoun returns a pronoun appearing in the first three
// tokens of the request, where nothing earlier in the text could bind it.
func unresolvedLeadingPronoun(tokens []string) string {
	limit := len(tokens)
	if limit > 3 {
		limit = 3
	}
	for i := 0; i < limit; i++ {
		token := strings.Trim(tokens[i], ".,!?")
		for _, pronoun := range leadingPronouns {
			if token == pronoun {
				return pronoun
			}
		}
	}
	return ""
}

// conflictingInstructionScore contributes 0.2 per conflicting pair, capped at 0.4.
func conflictingInstructionScore(normalized string) (float64, []string) {
	var matched []string
	for _, pair := range conflictingPairs {
		if strings.Contains(normalized, pair[0]) && strings.Contains(normalized, pair[1]) {
			matched = append(matched, pair[0]+"/"+pair[1])
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}
	score := 0.2 * float64(len(matched))
	if score > 0.4 {
		score = 0.4
	}
	return score, matched
}

// entitiesContext renders detected entities into a short context string for
// the clarification question.
func entitiesContext(entities intent.ExtractedEntities) string {
	var parts []string
	if len(entities.Providers) > 0 {
		parts = append(parts, "providers: "+strings.Join(entities.Providers, ", "))
	}
	if len(entities.FileNames) > 0 {
		parts = append(parts, "files: "+strings.Join(entities.FileNames, ", "))
	}
	if len(entities.ProjectNames) > 0 {
		parts = append(parts, "projects: "+strings.Join(entities.ProjectNames, ", "))
	}
	if len(entities.UserMentions) > 0 {
		parts = append(parts, "users: "+strings.Join(entities.UserMentions, ", "))
	}
	if len(entities.Dates) > 0 {
		parts = append(parts, "dates: "+strings.Join(entities.Dates, ", "))
	}
	return strings.Join(parts, "; ")
}
