package hallucination

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillet/pkg/agent"
	"github.com/jingkaihe/skillet/pkg/metrics"
)

func TestQuickIndicators(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		contains string
	}{
		{
			name:     "unsourced percentage",
			text:     "Revenue grew 45% last year.",
			contains: "Unsourced statistics",
		},
		{
			name:     "many dates",
			text:     "In 1995, 1998, 2001 and 2004 the company pivoted.",
			contains: "Multiple specific dates",
		},
		{
			name:     "precise numbers",
			text:     "They sold 1234 units, then 5678 units, then 9012 units.",
			contains: "Overly precise numbers",
		},
		{
			name:     "citation format",
			text:     "This was proven (Smith et al., 2019) beyond doubt.",
			contains: "Academic citation format",
		},
		{
			name:     "conflicting absolutes",
			text:     "It always works and never fails.",
			contains: "absolute statements",
		},
		{
			name:     "urls",
			text:     "See https://example.com/report for details.",
			contains: "1 URLs",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indicators := quickIndicators(tt.text)
			found := false
			for _, indicator := range indicators {
				if strings.Contains(indicator, tt.contains) {
					found = true
				}
			}
			assert.True(t, found, "expected indicator containing %q in %v", tt.contains, indicators)
		})
	}
}

func TestQuickIndicatorsHedgingExemption(t *testing.T) {
	long := strings.Repeat("word ", 60)
	indicators := quickIndicators(long)
	assert.Contains(t, strings.Join(indicators, "; "), "Lacks hedging language")

	hedged := strings.Repeat("word ", 60) + "this may vary"
	for _, indicator := range quickIndicators(hedged) {
		assert.NotContains(t, indicator, "Lacks hedging language")
	}
}

func TestExtractClaims(t *testing.T) {
	text := "The sky looks nice. NVDA reported 35 billion in revenue. John Smith agreed."
	claims := extractClaims(text)
	require.Len(t, claims, 2)
	assert.Contains(t, claims[0], "35 billion")
	assert.Contains(t, claims[1], "John Smith")
}

func TestExtractClaimsCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("Fact number 42 holds. ")
	}
	assert.Len(t, extractClaims(b.String()), maxClaims)
}

func TestCheckResponseHeuristicsOnly(t *testing.T) {
	d := NewDetector()
	ctx := context.TODO()

	clean := d.CheckResponse(ctx, "This might be fine.", "", nil)
	assert.Equal(t, metrics.StatusUnverified, clean.Status)
	assert.InDelta(t, 0.7, clean.ConfidenceScore, 1e-9)

	suspicious := d.CheckResponse(ctx, "Revenue grew 45% in a year.", "", nil)
	assert.Equal(t, metrics.StatusPartial, suspicious.Status)
	assert.InDelta(t, 0.6, suspicious.ConfidenceScore, 1e-9)

	heavy := d.CheckResponse(ctx,
		"Growth hit 45% in 2001, 2004, 2009 and 2015 with 1234, 5678 and 9012 units sold. See https://example.com and https://example.org.",
		"", nil)
	assert.Equal(t, metrics.StatusHallucination, heavy.Status)
	assert.InDelta(t, 0.3, heavy.ConfidenceScore, 1e-9)
	assert.GreaterOrEqual(t, len(heavy.HallucinationIndicators), 3)
}

func deepCheckRunner(t *testing.T, result CheckResult) agent.Runner {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	return agent.RunnerFunc(func(_ context.Context, prompt string) (agent.Response, error) {
		assert.Contains(t, prompt, "RESPONSE TO CHECK:")
		return agent.Response{Content: string(raw)}, nil
	})
}

func TestCheckResponseDeepCheck(t *testing.T) {
	runner := deepCheckRunner(t, CheckResult{
		IsHallucinated:  false,
		ConfidenceScore: 0.9,
		Claims: []FactCheckResult{
			{Claim: "NVDA reported 35 billion in revenue", IsFactual: true, Confidence: 0.95, Evidence: "quarterly filing"},
			{Claim: "The CEO resigned in 2003", IsFactual: false, Confidence: 0.4},
		},
		HallucinationIndicators: []string{},
		Reasoning:               "claims cross-checked",
		OverallAssessment:       "mostly factual",
	})

	d := NewDetector(WithFactChecker(runner))
	vm := d.CheckResponse(context.TODO(), "NVDA reported 35 billion in revenue.", "earnings question", nil)

	assert.Equal(t, metrics.StatusValid, vm.Status)
	assert.InDelta(t, 0.9, vm.ConfidenceScore, 1e-9)
	assert.Equal(t, []string{"NVDA reported 35 billion in revenue"}, vm.VerifiedClaims)
	assert.Equal(t, 1, vm.EvidenceCount)
	assert.Contains(t, vm.ReasoningSteps, "claims cross-checked")
}

func TestCheckResponseDeepCheckStatuses(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected metrics.ValidationStatus
	}{
		{
			name:     "hallucinated",
			result:   CheckResult{IsHallucinated: true, ConfidenceScore: 0.9},
			expected: metrics.StatusHallucination,
		},
		{
			name:     "partial",
			result:   CheckResult{ConfidenceScore: 0.6},
			expected: metrics.StatusPartial,
		},
		{
			name:     "invalid",
			result:   CheckResult{ConfidenceScore: 0.2},
			expected: metrics.StatusInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.result.Claims = []FactCheckResult{}
			tt.result.HallucinationIndicators = []string{}
			d := NewDetector(WithFactChecker(deepCheckRunner(t, tt.result)))
			vm := d.CheckResponse(context.TODO(), "NVDA is growing fast.", "", nil)
			assert.Equal(t, tt.expected, vm.Status)
		})
	}
}

func TestCheckResponseDeepCheckFallsBack(t *testing.T) {
	runner := agent.RunnerFunc(func(_ context.Context, _ string) (agent.Response, error) {
		return agent.Response{Content: "not json at all"}, nil
	})
	d := NewDetector(WithFactChecker(runner))

	vm := d.CheckResponse(context.TODO(), "NVDA is reportedly strong, though that might change.", "", nil)
	// The agent kept producing unusable output, so heuristics decide.
	assert.Equal(t, metrics.StatusUnverified, vm.Status)
}

func TestBatchCheck(t *testing.T) {
	d := NewDetector()
	out := d.BatchCheck(context.TODO(), []BatchItem{
		{Response: "This might be fine."},
		{Response: "Revenue grew 45% in a year."},
	})
	require.Len(t, out, 2)
	assert.Equal(t, metrics.StatusUnverified, out[0].Status)
	assert.Equal(t, metrics.StatusPartial, out[1].Status)
}
