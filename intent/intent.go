// Package intent classifies free-text requests into an (action, target)
// pair with a confidence score, and extracts structured entities from the
// text. Classification runs a keyword pattern stage first and escalates to a
// hosted completion service only when pattern confidence stays below the
// fallback threshold. Every failure mode on the fallback path degrades to the
// low-confidence unknown intent; Detect never returns an error.
package intent

// Action enumerates the closed set of request actions.
type Action string

const (
	ActionCreate    Action = "create"
	ActionRead      Action = "read"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionSearch    Action = "search"
	ActionAnalyze   Action = "analyze"
	ActionSummarize Action = "summarize"
	ActionSchedule  Action = "schedule"
	ActionNotify    Action = "notify"
	ActionUnknown   Action = "unknown"
)

// Classification methods reported by DetectDetailed.
const (
	MethodPattern  = "pattern"
	MethodFallback = "llm_fallback"
)

// ValidAction reports whether s is a member of the closed action set.
func ValidAction(s string) bool {
	switch Action(s) {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionSearch,
		ActionAnalyze, ActionSummarize, ActionSchedule, ActionNotify, ActionUnknown:
		return true
	}
	return false
}

// Intent is the immutable classification of one request. Produced fresh per
// call and never mutated afterwards.
type Intent struct {
	Action     Action  `json:"action"`
	Target     string  `json:"target"`
	Confidence float64 `json:"confidence"`
}

// Unknown is the degraded intent returned whenever classification cannot
// produce a usable result.
func Unknown() Intent {
	return Intent{Action: ActionUnknown, Target: "unknown", Confidence: 0.1}
}

// ExtractedEntities holds structured references found in request text.
// Each slice is de-duplicated with insertion order preserved.
type ExtractedEntities struct {
	Providers    []string `json:"providers"`
	FileNames    []string `json:"fileNames"`
	URLs         []string `json:"urls"`
	Dates        []string `json:"dates"`
	ProjectNames []string `json:"projectNames"`
	UserMentions []string `json:"userMentions"`
}

// Analysis bundles the intent and entities derived from one request.
type Analysis struct {
	Intent   Intent            `json:"intent"`
	Entities ExtractedEntities `json:"entities"`
}
