package intent

import (
	"regexp"
	"strings"
)

var (
	urlEntityPattern     = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
	fileNamePattern      = regexp.MustCompile(`\b[\w./-]+\.(?:go|ts|tsx|js|jsx|py|rb|rs|java|md|txt|json|yaml|yml|toml|csv|pdf|docx?|xlsx?|png|jpe?g|sql|sh|html?|css)\b`)
	isoDatePattern       = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	userMentionPattern   = regexp.MustCompile(`@([\w.-]+)`)
	quotedProjectPattern = regexp.MustCompile(`(?:project|프로젝트)\s+"([^"]+)"|"([^"]+)"\s+(?:project|프로젝트)`)
	namedProjectPattern  = regexp.MustCompile(`(?i)(?:project|프로젝트)\s+([A-Za-z][\w-]*)`)
)

// knownProviders are the integration providers the platform recognizes in
// request text.
var knownProviders = []string{
	"slack", "notion", "github", "gitlab", "jira", "linear", "figma",
	"google", "gmail", "drive", "calendar", "confluence", "asana", "trello",
}

// relativeDateWords cover English and Korean relative date references.
var relativeDateWords = []string{
	"today", "tomorrow", "yesterday", "tonight",
	"next week", "last week", "this week", "next month", "last month",
	"오늘", "내일", "어제", "이번주", "다음주", "지난주", "이번달", "다음달",
}

// ExtractEntities derives structured references from request text. Pure
// function: no side effects, never fails. Each returned slice is
// de-duplicated with insertion order preserved.
func ExtractEntities(text string) ExtractedEntities {
	lower := strings.ToLower(text)

	var providers []string
	for _, p := range knownProviders {
		if strings.Contains(lower, p) {
			providers = append(providers, p)
		}
	}

	var dates []string
	dates = append(dates, isoDatePattern.FindAllString(text, -1)...)
	for _, w := range relativeDateWords {
		if strings.Contains(lower, w) {
			dates = append(dates, w)
		}
	}

	var projects []string
	for _, m := range quotedProjectPattern.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			projects = append(projects, m[1])
		} else if m[2] != "" {
			projects = append(projects, m[2])
		}
	}
	for _, m := range namedProjectPattern.FindAllStringSubmatch(text, -1) {
		projects = append(projects, m[1])
	}

	var mentions []string
	for _, m := range userMentionPattern.FindAllStringSubmatch(text, -1) {
		mentions = append(mentions, m[1])
	}

	return ExtractedEntities{
		Providers:    dedupe(providers),
		FileNames:    dedupe(fileNamePattern.FindAllString(text, -1)),
		URLs:         dedupe(urlEntityPattern.FindAllString(text, -1)),
		Dates:        dedupe(dates),
		ProjectNames: dedupe(projects),
		UserMentions: dedupe(mentions),
	}
}

// dedupe removes duplicates preserving first-occurrence order.
func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
