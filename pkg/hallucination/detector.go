// Package hallucination provides heuristic and agent-backed hallucination
// detection over agent responses, producing validation metrics consumed by
// the metrics collector.
package hallucination

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jingkaihe/skillet/pkg/agent"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/metrics"
	"github.com/jingkaihe/skillet/pkg/validation"
)

const maxClaims = 10

var (
	percentPattern  = regexp.MustCompile(`\d+(\.\d+)?%`)
	yearPattern     = regexp.MustCompile(`\b\d{4}\b`)
	precisePattern  = regexp.MustCompile(`\d{3,}(?:,\d{3})*(?:\.\d+)?`)
	citationPattern = regexp.MustCompile(`\(.*?\s+et al\.,?\s+\d{4}\)`)
	urlPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	sentenceSplit   = regexp.MustCompile(`[.!?]+`)
	properNameRx    = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
	digitRx         = regexp.MustCompile(`\d+`)
)

var hedgingWords = []string{"may", "might", "possibly", "likely", "probably", "appears"}

// FactCheckResult is the structured assessment of a single claim.
type FactCheckResult struct {
	Claim      string   `json:"claim"`
	IsFactual  bool     `json:"is_factual"`
	Confidence float64  `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Evidence   string   `json:"evidence,omitempty"`
	Sources    []string `json:"sources,omitempty"`
}

// CheckResult is the complete structured output of a deep fact check.
type CheckResult struct {
	IsHallucinated          bool              `json:"is_hallucinated"`
	ConfidenceScore         float64           `json:"confidence_score" jsonschema:"minimum=0,maximum=1"`
	Claims                  []FactCheckResult `json:"claims"`
	HallucinationIndicators []string          `json:"hallucination_indicators"`
	Reasoning               string            `json:"reasoning"`
	OverallAssessment       string            `json:"overall_assessment"`
}

// Detector checks agent responses for hallucination indicators. Quick
// heuristic checks always run; when a fact-check runner is configured and
// deep checking is enabled, claims are additionally assessed by the agent
// through the self-healing validation loop.
type Detector struct {
	runner    agent.Runner
	loop      *validation.Loop
	deepCheck bool
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithFactChecker sets the agent used for deep fact checking.
func WithFactChecker(runner agent.Runner) DetectorOption {
	return func(d *Detector) {
		d.runner = runner
		d.deepCheck = true
	}
}

// WithDeepCheck toggles agent-backed checking.
func WithDeepCheck(enabled bool) DetectorOption {
	return func(d *Detector) {
		d.deepCheck = enabled
	}
}

// NewDetector creates a detector. Without a fact checker it runs heuristics
// only.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{}
	for _, opt := range opts {
		opt(d)
	}
	if d.runner != nil {
		d.loop = validation.NewLoop(d.runner, validation.WithMaxRetries(1))
	}
	return d
}

// CheckResponse analyzes a response for hallucinations and factual accuracy.
// contextText is the input that produced the response; referenceKnowledge is
// an optional list of verified sources.
func (d *Detector) CheckResponse(ctx context.Context, responseText string, contextText string, referenceKnowledge []string) metrics.ValidationMetrics {
	vm := metrics.ValidationMetrics{Status: metrics.StatusUnverified}

	indicators := quickIndicators(responseText)
	vm.HallucinationIndicators = append(vm.HallucinationIndicators, indicators...)

	claims := extractClaims(responseText)
	vm.FactualClaims = claims

	if d.deepCheck && d.runner != nil && len(claims) > 0 {
		result, err := d.deepFactCheck(ctx, responseText, contextText, referenceKnowledge)
		if err != nil {
			logger.G(ctx).WithError(err).Warn("deep fact check failed, falling back to heuristics")
		} else {
			vm.ConfidenceScore = result.ConfidenceScore
			for _, claim := range result.Claims {
				if claim.IsFactual {
					vm.VerifiedClaims = append(vm.VerifiedClaims, claim.Claim)
				}
				if claim.Evidence != "" {
					vm.EvidenceCount++
				}
			}
			vm.HallucinationIndicators = append(vm.HallucinationIndicators, result.HallucinationIndicators...)

			switch {
			case result.IsHallucinated:
				vm.Status = metrics.StatusHallucination
			case result.ConfidenceScore >= 0.8:
				vm.Status = metrics.StatusValid
			case result.ConfidenceScore >= 0.5:
				vm.Status = metrics.StatusPartial
			default:
				vm.Status = metrics.StatusInvalid
			}
			vm.ReasoningSteps = append(vm.ReasoningSteps, result.Reasoning, result.OverallAssessment)
			return vm
		}
	}

	switch {
	case len(indicators) >= 3:
		vm.Status = metrics.StatusHallucination
		vm.ConfidenceScore = 0.3
	case len(indicators) >= 1:
		vm.Status = metrics.StatusPartial
		vm.ConfidenceScore = 0.6
	default:
		vm.Status = metrics.StatusUnverified
		vm.ConfidenceScore = 0.7
	}
	return vm
}

// BatchCheck checks multiple responses sequentially.
func (d *Detector) BatchCheck(ctx context.Context, items []BatchItem) []metrics.ValidationMetrics {
	out := make([]metrics.ValidationMetrics, 0, len(items))
	for _, item := range items {
		out = append(out, d.CheckResponse(ctx, item.Response, item.Context, item.References))
	}
	return out
}

// BatchItem is one response to check in a batch.
type BatchItem struct {
	Response   string
	Context    string
	References []string
}

func (d *Detector) deepFactCheck(ctx context.Context, responseText, contextText string, referenceKnowledge []string) (CheckResult, error) {
	var prompt strings.Builder
	prompt.WriteString("Analyze this AI-generated response for hallucinations and factual accuracy:\n\n")
	prompt.WriteString("RESPONSE TO CHECK:\n")
	prompt.WriteString(responseText)
	prompt.WriteString("\n")

	if contextText != "" {
		prompt.WriteString("\nORIGINAL CONTEXT/QUESTION:\n")
		prompt.WriteString(contextText)
		prompt.WriteString("\n")
	}
	if len(referenceKnowledge) > 0 {
		prompt.WriteString("\nVERIFIED KNOWLEDGE SOURCES:\n")
		limit := len(referenceKnowledge)
		if limit > 5 {
			limit = 5
		}
		for _, source := range referenceKnowledge[:limit] {
			fmt.Fprintf(&prompt, "- %s\n", source)
		}
	}
	prompt.WriteString(`
Provide a detailed analysis of:
1. Each factual claim made
2. Whether each claim is likely factual or hallucinated
3. Confidence level for each assessment
4. Overall hallucination risk
5. Specific indicators that suggest hallucination

Respond with a single JSON object matching the expected schema.`)

	resp, err := d.runner.Run(ctx, prompt.String())
	if err != nil {
		return CheckResult{}, err
	}
	return validation.ValidateInto[CheckResult](ctx, d.loop, resp.Content, nil)
}

// quickIndicators runs fast pattern checks for common hallucination signals.
func quickIndicators(text string) []string {
	var indicators []string
	lowered := strings.ToLower(text)

	if percentPattern.MatchString(text) && !strings.Contains(lowered, "according to") {
		indicators = append(indicators, "Unsourced statistics detected")
	}
	if len(yearPattern.FindAllString(text, -1)) > 3 {
		indicators = append(indicators, "Multiple specific dates without clear sourcing")
	}
	if len(precisePattern.FindAllString(text, -1)) > 2 && !strings.Contains(lowered, "approximately") {
		indicators = append(indicators, "Overly precise numbers without qualification")
	}
	if citationPattern.MatchString(text) {
		indicators = append(indicators, "Academic citation format found - may need verification")
	}

	words := strings.Fields(lowered)
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}
	_, hasAlways := wordSet["always"]
	_, hasNever := wordSet["never"]
	if hasAlways && hasNever {
		indicators = append(indicators, "Contains absolute statements that may conflict")
	}

	hasHedging := false
	for _, hedge := range hedgingWords {
		if strings.Contains(lowered, hedge) {
			hasHedging = true
			break
		}
	}
	if !hasHedging && len(words) > 50 {
		indicators = append(indicators, "Lacks hedging language for uncertain statements")
	}

	if urls := urlPattern.FindAllString(text, -1); len(urls) > 0 {
		indicators = append(indicators, fmt.Sprintf("Contains %d URLs - verification needed", len(urls)))
	}
	return indicators
}

// extractClaims pulls factual-looking sentences from text, capped for
// downstream fact-check cost.
func extractClaims(text string) []string {
	sentences := sentenceSplit.Split(text, -1)
	var claims []string
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if digitRx.MatchString(sentence) || properNameRx.MatchString(sentence) || containsAssertion(sentence) {
			claims = append(claims, sentence)
		}
		if len(claims) >= maxClaims {
			break
		}
	}
	return claims
}

func containsAssertion(sentence string) bool {
	lowered := strings.ToLower(sentence)
	for _, verb := range []string{"is", "was", "are", "were", "will"} {
		if strings.Contains(lowered, verb) {
			return true
		}
	}
	return false
}
