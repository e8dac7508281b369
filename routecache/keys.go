package routecache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/routecore/routecore/preprocess"
)

// keyNamespace prefixes every cache key so shared-tier invalidation can scan
// this cache's keys without touching unrelated data.
const keyNamespace = "route"

// stopWords are dropped from the fuzzy key so requests differing only in
// filler words and token order land on the same entry.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "please": {}, "to": {}, "for": {}, "of": {},
	"in": {}, "on": {}, "my": {}, "me": {}, "you": {}, "can": {}, "could": {},
	"would": {}, "will": {}, "do": {}, "does": {}, "is": {}, "are": {},
	"it": {}, "this": {}, "that": {}, "and": {}, "or": {}, "with": {},
	"at": {}, "by": {}, "from": {}, "up": {}, "just": {}, "some": {},
	"좀": {}, "해줘": {}, "주세요": {}, "제발": {}, "그": {}, "저": {}, "이": {},
}

// ExactKey derives the exact-match cache key: a 64-bit hex digest over the
// organization and the normalized request.
func ExactKey(organizationID, text string) string {
	normalized := preprocess.Normalize(text)
	digest := xxhash.Sum64String(organizationID + "\x00" + normalized)
	return fmt.Sprintf("%s:%s:%016x", keyNamespace, organizationID, digest)
}

// FuzzyKey derives the fuzzy-match cache key: the digest of the sorted,
// stop-word-filtered token set of the normalized request.
func FuzzyKey(organizationID, text string) string {
	tokens := preprocess.Tokenize(preprocess.Normalize(text))
	kept := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		kept = append(kept, token)
	}
	sort.Strings(kept)
	digest := xxhash.Sum64String(organizationID + "\x00" + strings.Join(kept, " "))
	return fmt.Sprintf("%s:%s:%016x", keyNamespace, organizationID, digest)
}

// orgPattern matches every shared-tier key belonging to one organization.
func orgPattern(organizationID string) string {
	return fmt.Sprintf("%s:%s:*", keyNamespace, organizationID)
}

// orgPrefix matches local-tier keys belonging to one organization.
func orgPrefix(organizationID string) string {
	return fmt.Sprintf("%s:%s:", keyNamespace, organizationID)
}
