package testutil

import (
	"fmt"

	"github.com/routecore/routecore/abtest"
)

// ResultBatchBuilder assembles a batch of exposure results for one variant
// with fluent chaining. User ids, success flags and latencies are generated
// deterministically so aggregate assertions stay exact across runs.
// Example:
//
//	results := NewResultBatchBuilder("exp-1", "control").
//		Count(40).
//		Successes(20).
//		LatencyMs(100).
//		Build()
type ResultBatchBuilder struct {
	experimentID string
	variantID    string
	count        int
	successes    int
	latencyMs    float64
	costCents    *float64
	category     string
}

// NewResultBatchBuilder creates a new builder for results attributed to the
// given experiment and variant.
func NewResultBatchBuilder(experimentID, variantID string) *ResultBatchBuilder {
	return &ResultBatchBuilder{experimentID: experimentID, variantID: variantID}
}

// Count sets the batch size (chainable).
func (b *ResultBatchBuilder) Count(n int) *ResultBatchBuilder {
	b.count = n
	return b
}

// Successes marks the first k results successful (chainable).
func (b *ResultBatchBuilder) Successes(k int) *ResultBatchBuilder {
	b.successes = k
	return b
}

// LatencyMs sets the base latency. Each result adds its index modulo 10 so
// percentile assertions see a spread (chainable).
func (b *ResultBatchBuilder) LatencyMs(base float64) *ResultBatchBuilder {
	b.latencyMs = base
	return b
}

// CostCents attaches a per-result cost (chainable).
func (b *ResultBatchBuilder) CostCents(c float64) *ResultBatchBuilder {
	b.costCents = &c
	return b
}

// Category tags every result with a routing category (chainable).
func (b *ResultBatchBuilder) Category(c string) *ResultBatchBuilder {
	b.category = c
	return b
}

// Build returns the assembled batch.
func (b *ResultBatchBuilder) Build() []abtest.Result {
	results := make([]abtest.Result, 0, b.count)
	for i := 0; i < b.count; i++ {
		var cost *float64
		if b.costCents != nil {
			c := *b.costCents
			cost = &c
		}
		results = append(results, abtest.Result{
			ExperimentID: b.experimentID,
			VariantID:    b.variantID,
			UserID:       fmt.Sprintf("u-%s-%d", b.variantID, i),
			Success:      i < b.successes,
			LatencyMs:    b.latencyMs + float64(i%10),
			CostCents:    cost,
			Category:     b.category,
		})
	}
	return results
}
