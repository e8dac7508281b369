package abtest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExperiment(id string) Experiment {
	return Experiment{
		ID:     id,
		Name:   "routing strategies",
		Status: StatusRunning,
		Control: Variant{
			ID: "control", Name: "pattern-first", TrafficPercent: 50,
		},
		Treatments: []Variant{
			{ID: "llm-first", Name: "llm-first", TrafficPercent: 30},
			{ID: "cache-aggressive", Name: "cache-aggressive", TrafficPercent: 20},
		},
		PrimaryMetric: MetricSuccessRate,
	}
}

func TestRegister_RejectsBadTrafficSplit(t *testing.T) {
	m := NewManager(nil)

	exp := testExperiment("exp-1")
	exp.Treatments[0].TrafficPercent = 35 // 50 + 35 + 20 = 105

	_, err := m.Register(exp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 105")
}

func TestRegister_Defaults(t *testing.T) {
	m := NewManager(nil)

	exp := testExperiment("")
	exp.Status = ""
	exp.PrimaryMetric = ""

	registered, err := m.Register(exp)
	require.NoError(t, err)
	assert.NotEmpty(t, registered.ID)
	assert.Equal(t, StatusDraft, registered.Status)
	assert.Equal(t, MetricSuccessRate, registered.PrimaryMetric)
	assert.False(t, registered.CreatedAt.IsZero())
}

func TestRegister_DuplicateID(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Register(testExperiment("exp-1"))
	require.NoError(t, err)
	_, err = m.Register(testExperiment("exp-1"))
	require.Error(t, err)
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	m := NewManager(nil)
	exp := testExperiment("exp-1")
	exp.Status = StatusDraft
	_, err := m.Register(exp)
	require.NoError(t, err)

	require.NoError(t, m.UpdateStatus("exp-1", StatusRunning))
	require.NoError(t, m.UpdateStatus("exp-1", StatusPaused))
	require.NoError(t, m.UpdateStatus("exp-1", StatusRunning))
	require.NoError(t, m.UpdateStatus("exp-1", StatusCompleted))

	// Completed is terminal.
	assert.Error(t, m.UpdateStatus("exp-1", StatusRunning))
}

func TestUpdateStatus_RejectsSkippingDraft(t *testing.T) {
	m := NewManager(nil)
	exp := testExperiment("exp-1")
	exp.Status = StatusDraft
	_, err := m.Register(exp)
	require.NoError(t, err)

	assert.Error(t, m.UpdateStatus("exp-1", StatusCompleted))
}

func TestAssign_Deterministic(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Register(testExperiment("exp-1"))
	require.NoError(t, err)

	first := m.Assign("user-42", "exp-1")
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		again := m.Assign("user-42", "exp-1")
		require.NotNil(t, again)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestAssign_Distribution(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Register(testExperiment("exp-1"))
	require.NoError(t, err)

	counts := map[string]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		v := m.Assign(fmt.Sprintf("user-%d", i), "exp-1")
		require.NotNil(t, v)
		counts[v.ID]++
	}

	// Empirical shares approximate declared traffic within a few points.
	assert.InDelta(t, 0.50, float64(counts["control"])/n, 0.03)
	assert.InDelta(t, 0.30, float64(counts["llm-first"])/n, 0.03)
	assert.InDelta(t, 0.20, float64(counts["cache-aggressive"])/n, 0.03)
}

func TestAssign_NonRunningYieldsNil(t *testing.T) {
	m := NewManager(nil)
	exp := testExperiment("exp-1")
	exp.Status = StatusDraft
	_, err := m.Register(exp)
	require.NoError(t, err)

	assert.Nil(t, m.Assign("user-1", "exp-1"))
	assert.Nil(t, m.Assign("user-1", "missing"))
}

func TestAssignScoped_Targeting(t *testing.T) {
	m := NewManager(nil)
	exp := testExperiment("exp-1")
	exp.TargetOrganizationIDs = []string{"org-77"}
	exp.TargetUserIDs = []string{"user-1"}
	_, err := m.Register(exp)
	require.NoError(t, err)

	assert.NotNil(t, m.AssignScoped("user-1", "exp-1", "org-77", ""))
	assert.Nil(t, m.AssignScoped("user-2", "exp-1", "org-77", ""))
	assert.Nil(t, m.AssignScoped("user-1", "exp-1", "org-88", ""))
	// Plain Assign has no organization context, so org targeting excludes it.
	assert.Nil(t, m.Assign("user-1", "exp-1"))
}

func TestRecordResult_Validation(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Register(testExperiment("exp-1"))
	require.NoError(t, err)

	require.NoError(t, m.RecordResult(Result{ExperimentID: "exp-1", VariantID: "control", UserID: "u", Success: true}))
	assert.Error(t, m.RecordResult(Result{ExperimentID: "missing", VariantID: "control"}))
	assert.Error(t, m.RecordResult(Result{ExperimentID: "exp-1", VariantID: "missing"}))
}

func recordBatch(t *testing.T, m *Manager, variantID string, n, successes int, latency float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		cost := 2.5
		require.NoError(t, m.RecordResult(Result{
			ExperimentID: "exp-1",
			VariantID:    variantID,
			UserID:       fmt.Sprintf("u-%s-%d", variantID, i),
			Success:      i < successes,
			LatencyMs:    latency + float64(i%10),
			CostCents:    &cost,
			Category:     "task_management",
		}))
	}
}

func TestStats_Aggregates(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Register(testExperiment("exp-1"))
	require.NoError(t, err)

	recordBatch(t, m, "control", 40, 20, 100)
	recordBatch(t, m, "llm-first", 40, 36, 200)

	stats, err := m.Stats("exp-1")
	require.NoError(t, err)

	assert.Equal(t, 80, stats.TotalExposures)
	require.Len(t, stats.Variants, 3)

	control := stats.Variants[0]
	assert.Equal(t, "control", control.VariantID)
	assert.Equal(t, 40, control.SampleSize)
	assert.InDelta(t, 0.5, control.SuccessRate, 1e-9)
	assert.Greater(t, control.SuccessRateCI.Low, 0.0)
	assert.Less(t, control.SuccessRateCI.High, 1.0)
	assert.InDelta(t, 104.5, control.LatencyMeanMs, 1e-9)
	assert.Equal(t, map[string]int{"task_management": 40}, control.Categories)
	assert.InDelta(t, 2.5, control.CostMeanCents, 1e-9)
	assert.InDelta(t, 100, control.CostTotalCents, 1e-9)

	// 90% vs 50% success over 40 samples each is decisive.
	require.NotNil(t, stats.Significance)
	assert.Equal(t, "llm-first", stats.Significance.TreatmentID)
	assert.True(t, stats.Significance.Significant)
	assert.Equal(t, "llm-first", stats.Significance.WinnerID)
	assert.Less(t, stats.Significance.PValue, 0.05)
}

func TestStats_RequiresMinimumSamples(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Register(testExperiment("exp-1"))
	require.NoError(t, err)

	recordBatch(t, m, "control", 10, 5, 100)
	recordBatch(t, m, "llm-first", 10, 9, 100)

	stats, err := m.Stats("exp-1")
	require.NoError(t, err)
	assert.Nil(t, stats.Significance)
}

func TestStats_LowerIsBetterMetric(t *testing.T) {
	m := NewManager(nil)
	exp := testExperiment("exp-1")
	exp.PrimaryMetric = MetricLatency
	_, err := m.Register(exp)
	require.NoError(t, err)

	// llm-first is slower, cache-aggressive is fastest.
	recordBatch(t, m, "control", 40, 20, 100)
	recordBatch(t, m, "llm-first", 40, 20, 300)
	recordBatch(t, m, "cache-aggressive", 40, 39, 50)

	stats, err := m.Stats("exp-1")
	require.NoError(t, err)
	require.NotNil(t, stats.Significance)
	assert.Equal(t, "cache-aggressive", stats.Significance.TreatmentID)
}

func TestStats_UnknownExperiment(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Stats("missing")
	assert.Error(t, err)
}
