// Package merge reconciles execution results produced by multiple backends
// into one payload. Inputs are never mutated; a strategy only projects them.
// Strategy misuse (unknown mode, custom without a reducer) is a configuration
// error and returned as such, unlike backend failures which are ordinary data
// here.
package merge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Strategy selects how results are combined.
type Strategy string

const (
	// StrategyConcat projects every result, tagged by source and success.
	StrategyConcat Strategy = "concat"
	// StrategyDedupe drops results whose key was already seen, keeping first
	// occurrence order.
	StrategyDedupe Strategy = "dedupe"
	// StrategyPriority returns the first successful output in a declared
	// source order.
	StrategyPriority Strategy = "priority"
	// StrategyCustom delegates to a caller-supplied reducer.
	StrategyCustom Strategy = "custom"
)

// TaskResult is one backend invocation's outcome.
type TaskResult struct {
	TaskID   string        `json:"taskId"`
	Source   string        `json:"source"`
	Output   any           `json:"output"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Item is one projected result inside a merged payload.
type Item struct {
	TaskID  string `json:"taskId"`
	Source  string `json:"source"`
	Output  any    `json:"output"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Meta aggregates accounting over the merged results.
type Meta struct {
	ResultCount   int           `json:"resultCount"`
	SuccessCount  int           `json:"successCount"`
	FailedCount   int           `json:"failedCount"`
	TotalDuration time.Duration `json:"totalDuration"`
	Sources       []string      `json:"sources"`
}

// MergedResult is the combined payload. Items carries the projection for
// concat/dedupe; Output carries the selected or reduced value for
// priority/custom.
type MergedResult struct {
	Strategy Strategy `json:"strategy"`
	Items    []Item   `json:"items,omitempty"`
	Output   any      `json:"output,omitempty"`
	Meta     Meta     `json:"meta"`
}

// Options configures one merge invocation.
type Options struct {
	Strategy Strategy

	// FilterFailed removes unsuccessful results before merging.
	FilterFailed bool

	// SourcePriority orders sources for StrategyPriority. Sources not listed
	// rank after listed ones in input order.
	SourcePriority []string

	// DedupeKey overrides the de-duplication key for StrategyDedupe. The
	// default is a hash of the JSON-encoded output.
	DedupeKey func(TaskResult) string

	// Reducer combines results for StrategyCustom. Required for that
	// strategy.
	Reducer func([]TaskResult) (any, error)
}

// Merge combines results according to opts. An empty input merges to an
// empty payload under every strategy.
func Merge(results []TaskResult, opts Options) (MergedResult, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyConcat
	}

	if len(results) == 0 {
		return MergedResult{Strategy: strategy}, nil
	}

	considered := results
	if opts.FilterFailed {
		considered = make([]TaskResult, 0, len(results))
		for _, r := range results {
			if r.Success {
				considered = append(considered, r)
			}
		}
		// Filtering an all-failed batch merges to the same empty payload an
		// empty input does.
		if len(considered) == 0 {
			return MergedResult{Strategy: strategy}, nil
		}
	}

	merged := MergedResult{Strategy: strategy, Meta: buildMeta(considered)}

	switch strategy {
	case StrategyConcat:
		merged.Items = project(considered)
	case StrategyDedupe:
		deduped := dedupeResults(considered, opts.DedupeKey)
		merged.Items = project(deduped)
		merged.Meta = buildMeta(deduped)
	case StrategyPriority:
		merged.Output = selectByPriority(considered, opts.SourcePriority)
	case StrategyCustom:
		if opts.Reducer == nil {
			return MergedResult{}, fmt.Errorf("merge: custom strategy requires a reducer")
		}
		output, err := opts.Reducer(considered)
		if err != nil {
			return MergedResult{}, fmt.Errorf("merge: custom reducer failed: %w", err)
		}
		merged.Output = output
	default:
		return MergedResult{}, fmt.Errorf("merge: unknown strategy %q", strategy)
	}

	return merged, nil
}

// project maps results into tagged items.
func project(results []TaskResult) []Item {
	items := make([]Item, 0, len(results))
	for _, r := range results {
		items = append(items, Item{
			TaskID:  r.TaskID,
			Source:  r.Source,
			Output:  r.Output,
			Success: r.Success,
			Error:   r.Error,
		})
	}
	return items
}

// buildMeta aggregates accounting over the considered results.
func buildMeta(results []TaskResult) Meta {
	meta := Meta{ResultCount: len(results)}
	seen := map[string]struct{}{}
	for _, r := range results {
		if r.Success {
			meta.SuccessCount++
		} else {
			meta.FailedCount++
		}
		meta.TotalDuration += r.Duration
		if _, ok := seen[r.Source]; !ok && r.Source != "" {
			seen[r.Source] = struct{}{}
			meta.Sources = append(meta.Sources, r.Source)
		}
	}
	return meta
}

// dedupeResults keeps the first occurrence per key.
func dedupeResults(results []TaskResult, keyFn func(TaskResult) string) []TaskResult {
	if keyFn == nil {
		keyFn = defaultDedupeKey
	}
	seen := map[string]struct{}{}
	kept := make([]TaskResult, 0, len(results))
	for _, r := range results {
		key := keyFn(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	return kept
}

// defaultDedupeKey hashes the JSON encoding of the output.
func defaultDedupeKey(r TaskResult) string {
	payload, err := json.Marshal(r.Output)
	if err != nil {
		// Unencodable outputs fall back to their formatted value.
		payload = []byte(fmt.Sprintf("%v", r.Output))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

// selectByPriority returns the output of the first successful result in
// priority order, or the first result in priority order when none succeeded.
func selectByPriority(results []TaskResult, priority []string) any {
	ordered := orderByPriority(results, priority)
	for _, r := range ordered {
		if r.Success {
			return r.Output
		}
	}
	return ordered[0].Output
}

// orderByPriority sorts results by declared source priority, keeping input
// order within a source and placing unlisted sources last.
func orderByPriority(results []TaskResult, priority []string) []TaskResult {
	rank := make(map[string]int, len(priority))
	for i, source := range priority {
		rank[source] = i
	}

	ordered := make([]TaskResult, 0, len(results))
	for _, source := range priority {
		for _, r := range results {
			if r.Source == source {
				ordered = append(ordered, r)
			}
		}
	}
	for _, r := range results {
		if _, listed := rank[r.Source]; !listed {
			ordered = append(ordered, r)
		}
	}
	return ordered
}
