package merge

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToChatMessage(t *testing.T) {
	m, err := Merge(sampleResults(), Options{Strategy: StrategyConcat})
	require.NoError(t, err)

	msg := ToChatMessage(m, 0)

	assert.Contains(t, msg.Text, "[workflow] alpha")
	assert.Contains(t, msg.Text, "[llm (failed)] gamma")
	assert.Contains(t, msg.Text, "2/3 succeeded")
	assert.Contains(t, msg.Text, "sources: workflow, skill, llm")

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "Some backends failed", msg.Attachments[0].Title)
	assert.Equal(t, "warning", msg.Attachments[0].Color)
}

func TestToChatMessage_Truncates(t *testing.T) {
	m, err := Merge([]TaskResult{
		{TaskID: "t1", Source: "llm", Output: strings.Repeat("x", 500), Success: true},
	}, Options{Strategy: StrategyConcat})
	require.NoError(t, err)

	msg := ToChatMessage(m, 100)

	assert.Contains(t, msg.Text, "… (truncated)")
	assert.Less(t, strings.Index(msg.Text, "…"), 120)
	assert.Empty(t, msg.Attachments)
}

func TestToChatMessage_TruncatesOnRuneBoundary(t *testing.T) {
	m, err := Merge([]TaskResult{
		{TaskID: "t1", Source: "llm", Output: strings.Repeat("작업을 생성했습니다 ", 20), Success: true},
	}, Options{Strategy: StrategyConcat})
	require.NoError(t, err)

	msg := ToChatMessage(m, 20)

	assert.True(t, utf8.ValidString(msg.Text))
	assert.Contains(t, msg.Text, "… (truncated)")
}

func TestToChatMessage_PriorityOutput(t *testing.T) {
	m, err := Merge(sampleResults(), Options{Strategy: StrategyPriority, SourcePriority: []string{"workflow"}})
	require.NoError(t, err)

	msg := ToChatMessage(m, 0)
	assert.True(t, strings.HasPrefix(msg.Text, "alpha"))
}

func TestToAPIResponse(t *testing.T) {
	m, err := Merge(sampleResults(), Options{Strategy: StrategyConcat})
	require.NoError(t, err)

	resp := ToAPIResponse(m)

	assert.False(t, resp.Success)
	assert.Equal(t, m.Items, resp.Data)
	assert.Equal(t, m.Meta, resp.Meta)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "llm", resp.Errors[0].Source)
	assert.Equal(t, "timeout", resp.Errors[0].Error)
}

func TestToAPIResponse_AllSucceeded(t *testing.T) {
	m, err := Merge(sampleResults(), Options{Strategy: StrategyConcat, FilterFailed: true})
	require.NoError(t, err)

	resp := ToAPIResponse(m)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Errors)
}

func TestToAPIResponse_OutputStrategies(t *testing.T) {
	m, err := Merge(sampleResults(), Options{Strategy: StrategyPriority, SourcePriority: []string{"workflow"}})
	require.NoError(t, err)

	resp := ToAPIResponse(m)
	assert.Equal(t, "alpha", resp.Data)
}
