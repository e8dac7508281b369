package abtest

import (
	"math"
	"sort"
)

// ConfidenceInterval is a two-sided interval on a proportion.
type ConfidenceInterval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// VariantStats aggregates the exposure log of one variant.
type VariantStats struct {
	VariantID     string             `json:"variantId"`
	SampleSize    int                `json:"sampleSize"`
	SuccessCount  int                `json:"successCount"`
	SuccessRate   float64            `json:"successRate"`
	SuccessRateCI ConfidenceInterval `json:"successRateCi"`

	LatencyMeanMs   float64 `json:"latencyMeanMs"`
	LatencyMedianMs float64 `json:"latencyMedianMs"`
	LatencyP95Ms    float64 `json:"latencyP95Ms"`
	LatencyP99Ms    float64 `json:"latencyP99Ms"`

	CostMeanCents  float64 `json:"costMeanCents"`
	CostTotalCents float64 `json:"costTotalCents"`

	Categories map[string]int `json:"categories,omitempty"`
}

// Significance is the outcome of testing the control against the
// best-performing treatment.
type Significance struct {
	ControlID   string  `json:"controlId"`
	TreatmentID string  `json:"treatmentId"`
	ZScore      float64 `json:"zScore"`
	PValue      float64 `json:"pValue"`
	Significant bool    `json:"significant"`
	WinnerID    string  `json:"winnerId,omitempty"`
}

// ExperimentStats is the on-demand aggregate over one experiment's exposures.
type ExperimentStats struct {
	ExperimentID   string         `json:"experimentId"`
	Status         Status         `json:"status"`
	TotalExposures int            `json:"totalExposures"`
	Variants       []VariantStats `json:"variants"`
	Significance   *Significance  `json:"significance,omitempty"`
}

// minSamplesForSignificance is the per-arm floor below which no test is run.
const minSamplesForSignificance = 30

// significanceAlpha marks a winner at p < 0.05.
const significanceAlpha = 0.05

// computeVariantStats aggregates results belonging to one variant.
func computeVariantStats(variantID string, results []Result) VariantStats {
	stats := VariantStats{VariantID: variantID, Categories: map[string]int{}}

	var latencies []float64
	var latencySum float64
	var costCount int
	for _, r := range results {
		if r.VariantID != variantID {
			continue
		}
		stats.SampleSize++
		if r.Success {
			stats.SuccessCount++
		}
		latencies = append(latencies, r.LatencyMs)
		latencySum += r.LatencyMs
		if r.CostCents != nil {
			stats.CostTotalCents += *r.CostCents
			costCount++
		}
		if r.Category != "" {
			stats.Categories[r.Category]++
		}
	}

	if stats.SampleSize == 0 {
		return stats
	}

	stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.SampleSize)
	stats.SuccessRateCI = wilsonInterval(stats.SuccessCount, stats.SampleSize)

	sort.Float64s(latencies)
	stats.LatencyMeanMs = latencySum / float64(len(latencies))
	stats.LatencyMedianMs = percentile(latencies, 50)
	stats.LatencyP95Ms = percentile(latencies, 95)
	stats.LatencyP99Ms = percentile(latencies, 99)

	if costCount > 0 {
		stats.CostMeanCents = stats.CostTotalCents / float64(costCount)
	}

	return stats
}

// wilsonInterval computes the Wilson score 95% confidence interval for a
// binomial proportion. It behaves far better than the normal approximation at
// small sample sizes and extreme rates.
func wilsonInterval(successes, n int) ConfidenceInterval {
	if n == 0 {
		return ConfidenceInterval{}
	}
	const z = 1.96
	p := float64(successes) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	margin := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return ConfidenceInterval{
		Low:  math.Max(0, center-margin),
		High: math.Min(1, center+margin),
	}
}

// percentile returns the nearest-rank percentile of sorted values.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(pct / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// twoProportionZTest tests whether two success proportions differ. Returns
// the z score and the two-tailed p-value.
func twoProportionZTest(s1, n1, s2, n2 int) (z, p float64) {
	if n1 == 0 || n2 == 0 {
		return 0, 1
	}
	p1 := float64(s1) / float64(n1)
	p2 := float64(s2) / float64(n2)
	pooled := float64(s1+s2) / float64(n1+n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 0, 1
	}
	z = (p1 - p2) / se
	p = 2 * (1 - normalCDF(math.Abs(z)))
	return z, p
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// metricValue extracts a variant's primary-metric reading from its stats.
func metricValue(metric PrimaryMetric, stats VariantStats) float64 {
	switch metric {
	case MetricLatency:
		return stats.LatencyMeanMs
	case MetricCost:
		return stats.CostMeanCents
	default:
		return stats.SuccessRate
	}
}

// betterThan reports whether a beats b on the metric, inverting the
// comparison for lower-is-better metrics.
func betterThan(metric PrimaryMetric, a, b float64) bool {
	if metric.lowerIsBetter() {
		return a < b
	}
	return a > b
}
