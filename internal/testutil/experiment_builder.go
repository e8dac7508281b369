package testutil

import (
	"github.com/routecore/routecore/abtest"
)

// ExperimentBuilder helps construct experiments with fluent chaining for tests.
// Example:
//
//	exp := NewExperimentBuilder("exp-1").
//		Control("control", 50).
//		Treatment("llm-first", 50).
//		Build()
type ExperimentBuilder struct {
	exp abtest.Experiment
}

// NewExperimentBuilder creates a new builder for an experiment with the given
// id. The experiment starts running with the success-rate metric; use
// chainable methods to override, then call Build.
func NewExperimentBuilder(id string) *ExperimentBuilder {
	return &ExperimentBuilder{exp: abtest.Experiment{
		ID:            id,
		Name:          "experiment " + id,
		Status:        abtest.StatusRunning,
		PrimaryMetric: abtest.MetricSuccessRate,
	}}
}

// Name overrides the experiment name (chainable).
func (b *ExperimentBuilder) Name(name string) *ExperimentBuilder {
	b.exp.Name = name
	return b
}

// Status overrides the initial lifecycle status (chainable).
func (b *ExperimentBuilder) Status(s abtest.Status) *ExperimentBuilder {
	b.exp.Status = s
	return b
}

// Metric overrides the primary metric (chainable).
func (b *ExperimentBuilder) Metric(m abtest.PrimaryMetric) *ExperimentBuilder {
	b.exp.PrimaryMetric = m
	return b
}

// Control sets the control arm (chainable).
func (b *ExperimentBuilder) Control(id string, trafficPercent int) *ExperimentBuilder {
	b.exp.Control = abtest.Variant{ID: id, Name: id, TrafficPercent: trafficPercent}
	return b
}

// Treatment appends a treatment arm (chainable).
func (b *ExperimentBuilder) Treatment(id string, trafficPercent int) *ExperimentBuilder {
	b.exp.Treatments = append(b.exp.Treatments, abtest.Variant{ID: id, Name: id, TrafficPercent: trafficPercent})
	return b
}

// TreatmentConfig appends a treatment arm carrying a variant configuration
// (chainable).
func (b *ExperimentBuilder) TreatmentConfig(id string, trafficPercent int, cfg map[string]any) *ExperimentBuilder {
	b.exp.Treatments = append(b.exp.Treatments, abtest.Variant{ID: id, Name: id, TrafficPercent: trafficPercent, Config: cfg})
	return b
}

// TargetOrgs restricts eligibility to the given organizations (chainable).
func (b *ExperimentBuilder) TargetOrgs(ids ...string) *ExperimentBuilder {
	b.exp.TargetOrganizationIDs = append(b.exp.TargetOrganizationIDs, ids...)
	return b
}

// TargetUsers restricts eligibility to the given users (chainable).
func (b *ExperimentBuilder) TargetUsers(ids ...string) *ExperimentBuilder {
	b.exp.TargetUserIDs = append(b.exp.TargetUserIDs, ids...)
	return b
}

// Build returns the assembled experiment.
func (b *ExperimentBuilder) Build() abtest.Experiment {
	return b.exp
}
