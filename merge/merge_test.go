package merge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []TaskResult {
	return []TaskResult{
		{TaskID: "t1", Source: "workflow", Output: "alpha", Success: true, Duration: 100 * time.Millisecond},
		{TaskID: "t2", Source: "skill", Output: "beta", Success: true, Duration: 200 * time.Millisecond},
		{TaskID: "t3", Source: "llm", Output: "gamma", Success: false, Duration: 50 * time.Millisecond, Error: "timeout"},
	}
}

func TestMerge_Concat(t *testing.T) {
	m, err := Merge(sampleResults(), Options{Strategy: StrategyConcat})
	require.NoError(t, err)

	require.Len(t, m.Items, 3)
	assert.Equal(t, "workflow", m.Items[0].Source)
	assert.False(t, m.Items[2].Success)
	assert.Equal(t, 3, m.Meta.ResultCount)
	assert.Equal(t, 2, m.Meta.SuccessCount)
	assert.Equal(t, 1, m.Meta.FailedCount)
	assert.Equal(t, 350*time.Millisecond, m.Meta.TotalDuration)
	assert.Equal(t, []string{"workflow", "skill", "llm"}, m.Meta.Sources)
}

func TestMerge_EmptyInputNeverFails(t *testing.T) {
	for _, strategy := range []Strategy{StrategyConcat, StrategyDedupe, StrategyPriority, StrategyCustom, "bogus"} {
		m, err := Merge(nil, Options{Strategy: strategy})
		require.NoError(t, err, "strategy %s", strategy)
		assert.Zero(t, m.Meta.ResultCount)
		assert.Empty(t, m.Items)
	}
}

func TestMerge_DedupeDropsRepeatedOutputs(t *testing.T) {
	results := append(sampleResults(), TaskResult{TaskID: "t4", Source: "cache", Output: "alpha", Success: true})

	m, err := Merge(results, Options{Strategy: StrategyDedupe})
	require.NoError(t, err)

	require.Len(t, m.Items, 3)
	assert.Equal(t, "t1", m.Items[0].TaskID) // first occurrence wins
	assert.Equal(t, 3, m.Meta.ResultCount)
}

func TestMerge_DedupeOrderInvariant(t *testing.T) {
	dup := TaskResult{TaskID: "t4", Source: "cache", Output: "alpha", Success: true}

	early := append([]TaskResult{sampleResults()[0], dup}, sampleResults()[1:]...)
	late := append(sampleResults(), dup)

	a, err := Merge(early, Options{Strategy: StrategyDedupe})
	require.NoError(t, err)
	b, err := Merge(late, Options{Strategy: StrategyDedupe})
	require.NoError(t, err)

	assert.Equal(t, len(a.Items), len(b.Items))
	assert.LessOrEqual(t, len(a.Items), 4)
}

func TestMerge_DedupeCustomKey(t *testing.T) {
	m, err := Merge(sampleResults(), Options{
		Strategy:  StrategyDedupe,
		DedupeKey: func(r TaskResult) string { return r.Source },
	})
	require.NoError(t, err)
	assert.Len(t, m.Items, 3)

	m, err = Merge(sampleResults(), Options{
		Strategy:  StrategyDedupe,
		DedupeKey: func(TaskResult) string { return "same" },
	})
	require.NoError(t, err)
	assert.Len(t, m.Items, 1)
}

func TestMerge_PriorityPrefersDeclaredOrder(t *testing.T) {
	m, err := Merge(sampleResults(), Options{
		Strategy:       StrategyPriority,
		SourcePriority: []string{"llm", "skill", "workflow"},
	})
	require.NoError(t, err)

	// llm failed, so the first successful result in priority order wins.
	assert.Equal(t, "beta", m.Output)
}

func TestMerge_PriorityAllFailed(t *testing.T) {
	results := []TaskResult{
		{TaskID: "t1", Source: "workflow", Output: "alpha", Success: false},
		{TaskID: "t2", Source: "skill", Output: "beta", Success: false},
	}

	m, err := Merge(results, Options{Strategy: StrategyPriority, SourcePriority: []string{"skill", "workflow"}})
	require.NoError(t, err)
	assert.Equal(t, "beta", m.Output)
}

func TestMerge_PriorityFilterFailedAllFailed(t *testing.T) {
	results := []TaskResult{
		{TaskID: "t1", Source: "workflow", Output: "alpha", Success: false, Error: "timeout"},
		{TaskID: "t2", Source: "skill", Output: "beta", Success: false, Error: "timeout"},
	}

	m, err := Merge(results, Options{Strategy: StrategyPriority, FilterFailed: true})
	require.NoError(t, err)
	assert.Nil(t, m.Output)
	assert.Zero(t, m.Meta.ResultCount)
}

func TestMerge_DedupeMetaCoversKeptResultsOnly(t *testing.T) {
	results := append(sampleResults(), TaskResult{TaskID: "t4", Source: "cache", Output: "alpha", Success: true, Duration: 400 * time.Millisecond})

	m, err := Merge(results, Options{Strategy: StrategyDedupe})
	require.NoError(t, err)

	require.Len(t, m.Items, 3)
	assert.Equal(t, 3, m.Meta.ResultCount)
	assert.Equal(t, 2, m.Meta.SuccessCount)
	assert.Equal(t, 1, m.Meta.FailedCount)
	assert.Equal(t, 350*time.Millisecond, m.Meta.TotalDuration)
}

func TestMerge_CustomReducer(t *testing.T) {
	m, err := Merge(sampleResults(), Options{
		Strategy: StrategyCustom,
		Reducer: func(results []TaskResult) (any, error) {
			return len(results), nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Output)
}

func TestMerge_CustomWithoutReducerFails(t *testing.T) {
	_, err := Merge(sampleResults(), Options{Strategy: StrategyCustom})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reducer")
}

func TestMerge_CustomReducerErrorPropagates(t *testing.T) {
	_, err := Merge(sampleResults(), Options{
		Strategy: StrategyCustom,
		Reducer:  func([]TaskResult) (any, error) { return nil, errors.New("bad reduce") },
	})
	assert.Error(t, err)
}

func TestMerge_UnknownStrategyFails(t *testing.T) {
	_, err := Merge(sampleResults(), Options{Strategy: "zip"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestMerge_FilterFailed(t *testing.T) {
	m, err := Merge(sampleResults(), Options{Strategy: StrategyConcat, FilterFailed: true})
	require.NoError(t, err)

	assert.Len(t, m.Items, 2)
	assert.Equal(t, 0, m.Meta.FailedCount)
	assert.Equal(t, []string{"workflow", "skill"}, m.Meta.Sources)
}

func TestMerge_InputsNotMutated(t *testing.T) {
	results := sampleResults()
	_, err := Merge(results, Options{Strategy: StrategyDedupe})
	require.NoError(t, err)
	assert.Equal(t, sampleResults(), results)
}
