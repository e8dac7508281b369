// Package abtest runs controlled experiments between alternative routing
// strategies. Assignment is a deterministic hash of (user, experiment) into
// traffic buckets, exposures are an append-only in-memory log, and statistics
// are recomputed from the full log on demand. The in-memory stores are
// process-local: a multi-process deployment must promote them to a shared
// store before experiment results can be pooled.
package abtest

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an experiment.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// validTransitions encodes the draft → running → paused|completed lifecycle.
var validTransitions = map[Status][]Status{
	StatusDraft:   {StatusRunning},
	StatusRunning: {StatusPaused, StatusCompleted},
	StatusPaused:  {StatusRunning, StatusCompleted},
}

// canTransition reports whether from → to is a legal lifecycle step.
func canTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PrimaryMetric selects which measurement decides an experiment.
type PrimaryMetric string

const (
	// MetricSuccessRate is higher-is-better.
	MetricSuccessRate PrimaryMetric = "success_rate"
	// MetricLatency is lower-is-better.
	MetricLatency PrimaryMetric = "latency"
	// MetricCost is lower-is-better.
	MetricCost PrimaryMetric = "cost"
)

// lowerIsBetter reports whether smaller values of the metric win.
func (m PrimaryMetric) lowerIsBetter() bool {
	return m == MetricLatency || m == MetricCost
}

// Variant is one arm of an experiment.
type Variant struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	TrafficPercent int            `json:"trafficPercent"`
	Config         map[string]any `json:"config,omitempty"`
}

// Experiment owns one control variant and N treatments. Traffic percentages
// must sum to exactly 100.
type Experiment struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Status        Status        `json:"status"`
	Control       Variant       `json:"control"`
	Treatments    []Variant     `json:"treatments"`
	PrimaryMetric PrimaryMetric `json:"primaryMetric"`

	// Targeting filters restrict eligibility; an empty filter is unrestricted.
	TargetUserIDs         []string `json:"targetUserIds,omitempty"`
	TargetOrganizationIDs []string `json:"targetOrganizationIds,omitempty"`
	TargetCategories      []string `json:"targetCategories,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the configuration invariants that make an experiment safe
// to run. Violations are operator errors and surface as errors at
// registration time.
func (e *Experiment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("experiment has no name")
	}
	if e.Control.ID == "" {
		return fmt.Errorf("experiment %q has no control variant", e.Name)
	}
	if len(e.Treatments) == 0 {
		return fmt.Errorf("experiment %q has no treatments", e.Name)
	}

	total := e.Control.TrafficPercent
	seen := map[string]struct{}{e.Control.ID: {}}
	for _, v := range e.Treatments {
		if v.ID == "" {
			return fmt.Errorf("experiment %q has a treatment without an id", e.Name)
		}
		if _, dup := seen[v.ID]; dup {
			return fmt.Errorf("experiment %q has duplicate variant id %q", e.Name, v.ID)
		}
		seen[v.ID] = struct{}{}
		if v.TrafficPercent < 0 {
			return fmt.Errorf("variant %q has negative traffic percent", v.ID)
		}
		total += v.TrafficPercent
	}
	if total != 100 {
		return fmt.Errorf("experiment %q traffic percentages sum to %d, want 100", e.Name, total)
	}

	switch e.PrimaryMetric {
	case MetricSuccessRate, MetricLatency, MetricCost, "":
	default:
		return fmt.Errorf("experiment %q has unknown primary metric %q", e.Name, e.PrimaryMetric)
	}

	return nil
}

// variantByID returns the variant with the given id, control included.
func (e *Experiment) variantByID(id string) (Variant, bool) {
	if e.Control.ID == id {
		return e.Control, true
	}
	for _, v := range e.Treatments {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Assignment maps a user to a variant of one experiment.
type Assignment struct {
	ExperimentID string    `json:"experimentId"`
	VariantID    string    `json:"variantId"`
	AssignedAt   time.Time `json:"assignedAt"`
}

// Result is one exposure record. Append-only; never mutated after insertion.
type Result struct {
	ID           string         `json:"id"`
	ExperimentID string         `json:"experimentId"`
	VariantID    string         `json:"variantId"`
	UserID       string         `json:"userId"`
	SessionID    string         `json:"sessionId,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Success      bool           `json:"success"`
	LatencyMs    float64        `json:"latencyMs"`
	CostCents    *float64       `json:"costCents,omitempty"`
	Category     string         `json:"category,omitempty"`
	Skills       []string       `json:"skills,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
