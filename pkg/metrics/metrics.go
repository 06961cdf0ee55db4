// Package metrics tracks per-execution performance and validation outcomes
// for agent runs. The collector is an explicitly constructed service passed
// to its consumers; there is no package-level singleton.
package metrics

import (
	"time"
)

// ValidationStatus classifies the outcome of validating an execution.
type ValidationStatus string

const (
	StatusValid         ValidationStatus = "valid"
	StatusInvalid       ValidationStatus = "invalid"
	StatusHallucination ValidationStatus = "hallucination"
	StatusUnverified    ValidationStatus = "unverified"
	StatusPartial       ValidationStatus = "partial"
)

// PerformanceMetrics measures a single operation.
type PerformanceMetrics struct {
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime,omitzero"`
	DurationMS float64   `json:"durationMs"`
	TokenCount int       `json:"tokenCount,omitempty"`
	ModelName  string    `json:"modelName,omitempty"`
	SkillName  string    `json:"skillName,omitempty"`
	AgentName  string    `json:"agentName,omitempty"`
}

// End marks the operation finished and computes its duration.
func (p *PerformanceMetrics) End() {
	p.EndTime = time.Now()
	p.DurationMS = float64(p.EndTime.Sub(p.StartTime)) / float64(time.Millisecond)
}

// ValidationMetrics captures validation and hallucination-detection detail.
type ValidationMetrics struct {
	Status                  ValidationStatus `json:"status"`
	ConfidenceScore         float64          `json:"confidenceScore"`
	Checks                  map[string]bool  `json:"validationChecks,omitempty"`
	EvidenceCount           int              `json:"evidenceCount"`
	FactualClaims           []string         `json:"factualClaims,omitempty"`
	VerifiedClaims          []string         `json:"verifiedClaims,omitempty"`
	HallucinationIndicators []string         `json:"hallucinationIndicators,omitempty"`
	SourceReferences        []string         `json:"sourceReferences,omitempty"`
	ReasoningSteps          []string         `json:"reasoningSteps,omitempty"`
}

// ExecutionMetrics is the complete record of one agent execution. It is
// created at request start and mutated as validation progresses.
type ExecutionMetrics struct {
	ExecutionID string             `json:"executionId"`
	Timestamp   time.Time          `json:"timestamp"`
	Performance PerformanceMetrics `json:"performance"`
	Validation  ValidationMetrics  `json:"validation"`
	InputText   string             `json:"-"`
	OutputText  string             `json:"-"`
	InputLength int                `json:"inputLength"`
	OutputLen   int                `json:"outputLength"`
	Error       string             `json:"error,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
}

// SetInput records the input text and its length.
func (e *ExecutionMetrics) SetInput(text string) {
	e.InputText = text
	e.InputLength = len(text)
}

// SetOutput records the output text and its length.
func (e *ExecutionMetrics) SetOutput(text string) {
	e.OutputText = text
	e.OutputLen = len(text)
}
