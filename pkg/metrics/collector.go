package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryCap bounds the in-memory execution history. Once exceeded,
// the oldest records are dropped.
const DefaultHistoryCap = 1024

// Collector aggregates execution metrics in memory.
type Collector struct {
	mu         sync.Mutex
	history    []*ExecutionMetrics
	historyCap int
	total      int
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithHistoryCap bounds the number of retained executions. Zero keeps the
// history unbounded.
func WithHistoryCap(n int) CollectorOption {
	return func(c *Collector) {
		c.historyCap = n
	}
}

// NewCollector creates a collector with the default history cap.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{historyCap: DefaultHistoryCap}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateExecution starts tracking a new execution. An empty id gets a
// generated UUID.
func (c *Collector) CreateExecution(executionID string, metadata map[string]any) *ExecutionMetrics {
	if executionID == "" {
		executionID = uuid.NewString()
	}
	execution := &ExecutionMetrics{
		ExecutionID: executionID,
		Timestamp:   time.Now().UTC(),
		Performance: PerformanceMetrics{StartTime: time.Now()},
		Validation:  ValidationMetrics{Status: StatusUnverified},
		Metadata:    metadata,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, execution)
	c.total++
	if c.historyCap > 0 && len(c.history) > c.historyCap {
		overflow := len(c.history) - c.historyCap
		c.history = append(c.history[:0:0], c.history[overflow:]...)
	}
	return execution
}

// Filter narrows Metrics results.
type Filter struct {
	Status    ValidationStatus
	AgentName string
}

func (f *Filter) matches(m *ExecutionMetrics) bool {
	if f == nil {
		return true
	}
	if f.Status != "" && m.Validation.Status != f.Status {
		return false
	}
	if f.AgentName != "" && m.Performance.AgentName != f.AgentName {
		return false
	}
	return true
}

// Metrics returns up to limit of the most recent executions, optionally
// filtered by status or agent name.
func (c *Collector) Metrics(limit int, filter *Filter) []*ExecutionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	recent := c.history
	if limit > 0 && len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}

	out := make([]*ExecutionMetrics, 0, len(recent))
	for _, m := range recent {
		if filter.matches(m) {
			out = append(out, m)
		}
	}
	return out
}

// TotalExecutions reports how many executions were ever created, including
// records already evicted from the bounded history.
func (c *Collector) TotalExecutions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// PerformanceStats summarizes execution durations.
type PerformanceStats struct {
	AvgDurationMS float64 `json:"avgDurationMs"`
	MinDurationMS float64 `json:"minDurationMs"`
	MaxDurationMS float64 `json:"maxDurationMs"`
	P50DurationMS float64 `json:"p50DurationMs"`
	P95DurationMS float64 `json:"p95DurationMs"`
}

// ValidationStats summarizes validation outcomes.
type ValidationStats struct {
	StatusCounts            map[string]int `json:"statusCounts"`
	AvgConfidenceScore      float64        `json:"avgConfidenceScore"`
	ValidPercentage         float64        `json:"validPercentage"`
	HallucinationPercentage float64        `json:"hallucinationPercentage"`
	InvalidPercentage       float64        `json:"invalidPercentage"`
}

// AggregatedStats is a snapshot across the retained history.
type AggregatedStats struct {
	TotalExecutions  int                 `json:"totalExecutions"`
	Performance      PerformanceStats    `json:"performance"`
	Validation       ValidationStats     `json:"validation"`
	RecentExecutions []*ExecutionMetrics `json:"recentExecutions"`
}

// AggregatedStats computes statistics across all retained executions.
func (c *Collector) AggregatedStats() AggregatedStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := AggregatedStats{
		Validation: ValidationStats{StatusCounts: map[string]int{}},
	}
	if len(c.history) == 0 {
		return stats
	}

	stats.TotalExecutions = len(c.history)
	var durations []float64
	var confidenceTotal float64
	for _, m := range c.history {
		if !m.Performance.EndTime.IsZero() {
			durations = append(durations, m.Performance.DurationMS)
		}
		stats.Validation.StatusCounts[string(m.Validation.Status)]++
		confidenceTotal += m.Validation.ConfidenceScore
	}

	stats.Performance = summarizeDurations(durations)
	total := float64(len(c.history))
	stats.Validation.AvgConfidenceScore = confidenceTotal / total
	stats.Validation.ValidPercentage = float64(stats.Validation.StatusCounts[string(StatusValid)]) / total * 100
	stats.Validation.HallucinationPercentage = float64(stats.Validation.StatusCounts[string(StatusHallucination)]) / total * 100
	stats.Validation.InvalidPercentage = float64(stats.Validation.StatusCounts[string(StatusInvalid)]) / total * 100

	recent := c.history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	stats.RecentExecutions = append([]*ExecutionMetrics(nil), recent...)
	return stats
}

// AgentStats summarizes executions attributed to one agent.
type AgentStats struct {
	AgentName       string         `json:"agentName"`
	TotalExecutions int            `json:"totalExecutions"`
	AvgDurationMS   float64        `json:"avgDurationMs"`
	ValidationStats map[string]int `json:"validationStats"`
	AvgConfidence   float64        `json:"avgConfidence"`
}

// AgentStats computes statistics for a single agent name.
func (c *Collector) AgentStats(agentName string) AgentStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := AgentStats{AgentName: agentName, ValidationStats: map[string]int{}}
	var durations []float64
	var confidenceTotal float64
	for _, m := range c.history {
		if m.Performance.AgentName != agentName {
			continue
		}
		stats.TotalExecutions++
		if !m.Performance.EndTime.IsZero() {
			durations = append(durations, m.Performance.DurationMS)
		}
		stats.ValidationStats[string(m.Validation.Status)]++
		confidenceTotal += m.Validation.ConfidenceScore
	}
	if stats.TotalExecutions == 0 {
		return stats
	}

	if len(durations) > 0 {
		var sum float64
		for _, d := range durations {
			sum += d
		}
		stats.AvgDurationMS = sum / float64(len(durations))
	}
	stats.AvgConfidence = confidenceTotal / float64(stats.TotalExecutions)
	return stats
}

// Clear drops all collected metrics.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
	c.total = 0
}

func summarizeDurations(durations []float64) PerformanceStats {
	if len(durations) == 0 {
		return PerformanceStats{}
	}
	sorted := append([]float64(nil), durations...)
	sort.Float64s(sorted)

	var sum float64
	for _, d := range sorted {
		sum += d
	}
	p95Index := int(float64(len(sorted)) * 0.95)
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}
	return PerformanceStats{
		AvgDurationMS: sum / float64(len(sorted)),
		MinDurationMS: sorted[0],
		MaxDurationMS: sorted[len(sorted)-1],
		P50DurationMS: sorted[len(sorted)/2],
		P95DurationMS: sorted[p95Index],
	}
}
