package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExecution(t *testing.T) {
	c := NewCollector()

	execution := c.CreateExecution("", map[string]any{"agent": "researcher"})
	assert.NotEmpty(t, execution.ExecutionID)
	assert.Equal(t, StatusUnverified, execution.Validation.Status)
	assert.False(t, execution.Performance.StartTime.IsZero())

	named := c.CreateExecution("run-42", nil)
	assert.Equal(t, "run-42", named.ExecutionID)
	assert.Equal(t, 2, c.TotalExecutions())
}

func TestHistoryEviction(t *testing.T) {
	c := NewCollector(WithHistoryCap(3))
	for i := 0; i < 5; i++ {
		c.CreateExecution(fmt.Sprintf("run-%d", i), nil)
	}

	retained := c.Metrics(0, nil)
	require.Len(t, retained, 3)
	assert.Equal(t, "run-2", retained[0].ExecutionID)
	assert.Equal(t, "run-4", retained[2].ExecutionID)
	// The running total survives eviction.
	assert.Equal(t, 5, c.TotalExecutions())
}

func TestUnboundedHistory(t *testing.T) {
	c := NewCollector(WithHistoryCap(0))
	for i := 0; i < DefaultHistoryCap+10; i++ {
		c.CreateExecution("", nil)
	}
	assert.Len(t, c.Metrics(0, nil), DefaultHistoryCap+10)
}

func TestMetricsFilter(t *testing.T) {
	c := NewCollector()

	valid := c.CreateExecution("a", nil)
	valid.Validation.Status = StatusValid
	valid.Performance.AgentName = "researcher"

	invalid := c.CreateExecution("b", nil)
	invalid.Validation.Status = StatusInvalid
	invalid.Performance.AgentName = "writer"

	byStatus := c.Metrics(0, &Filter{Status: StatusValid})
	require.Len(t, byStatus, 1)
	assert.Equal(t, "a", byStatus[0].ExecutionID)

	byAgent := c.Metrics(0, &Filter{AgentName: "writer"})
	require.Len(t, byAgent, 1)
	assert.Equal(t, "b", byAgent[0].ExecutionID)

	assert.Empty(t, c.Metrics(0, &Filter{Status: StatusValid, AgentName: "writer"}))

	limited := c.Metrics(1, nil)
	require.Len(t, limited, 1)
	assert.Equal(t, "b", limited[0].ExecutionID)
}

func TestAggregatedStats(t *testing.T) {
	c := NewCollector()

	assert.Zero(t, c.AggregatedStats().TotalExecutions)

	for i, status := range []ValidationStatus{StatusValid, StatusValid, StatusInvalid, StatusHallucination} {
		execution := c.CreateExecution(fmt.Sprintf("run-%d", i), nil)
		execution.Validation.Status = status
		execution.Validation.ConfidenceScore = 0.5
		execution.Performance.StartTime = time.Now().Add(-time.Duration(i+1) * 10 * time.Millisecond)
		execution.Performance.End()
	}

	stats := c.AggregatedStats()
	assert.Equal(t, 4, stats.TotalExecutions)
	assert.Equal(t, 2, stats.Validation.StatusCounts[string(StatusValid)])
	assert.InDelta(t, 50.0, stats.Validation.ValidPercentage, 1e-9)
	assert.InDelta(t, 25.0, stats.Validation.InvalidPercentage, 1e-9)
	assert.InDelta(t, 25.0, stats.Validation.HallucinationPercentage, 1e-9)
	assert.InDelta(t, 0.5, stats.Validation.AvgConfidenceScore, 1e-9)
	assert.Greater(t, stats.Performance.MaxDurationMS, stats.Performance.MinDurationMS)
	assert.Len(t, stats.RecentExecutions, 4)
}

func TestRecentExecutionsCapped(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 15; i++ {
		c.CreateExecution(fmt.Sprintf("run-%d", i), nil)
	}
	stats := c.AggregatedStats()
	require.Len(t, stats.RecentExecutions, 10)
	assert.Equal(t, "run-5", stats.RecentExecutions[0].ExecutionID)
	assert.Equal(t, "run-14", stats.RecentExecutions[9].ExecutionID)
}

func TestAgentStats(t *testing.T) {
	c := NewCollector()

	empty := c.AgentStats("ghost")
	assert.Zero(t, empty.TotalExecutions)

	for i := 0; i < 3; i++ {
		execution := c.CreateExecution("", nil)
		execution.Performance.AgentName = "researcher"
		execution.Validation.Status = StatusValid
		execution.Validation.ConfidenceScore = 0.9
		execution.Performance.End()
	}
	other := c.CreateExecution("", nil)
	other.Performance.AgentName = "writer"

	stats := c.AgentStats("researcher")
	assert.Equal(t, 3, stats.TotalExecutions)
	assert.Equal(t, 3, stats.ValidationStats[string(StatusValid)])
	assert.InDelta(t, 0.9, stats.AvgConfidence, 1e-9)
}

func TestClear(t *testing.T) {
	c := NewCollector()
	c.CreateExecution("", nil)
	c.Clear()
	assert.Empty(t, c.Metrics(0, nil))
	assert.Zero(t, c.TotalExecutions())
}

func TestSetInputOutput(t *testing.T) {
	c := NewCollector()
	execution := c.CreateExecution("", nil)
	execution.SetInput("question")
	execution.SetOutput("answer text")
	assert.Equal(t, 8, execution.InputLength)
	assert.Equal(t, 11, execution.OutputLen)
}
