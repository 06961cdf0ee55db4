package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/agent"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/metrics"
)

// DefaultMaxRetries is the default correction budget.
const DefaultMaxRetries = 2

// TransformFunc extracts a JSON-like document from free-form response text.
// When nil, the response is decoded as a JSON document directly.
type TransformFunc func(responseText string) (map[string]any, error)

// Loop validates agent output against a schema and asks the producing agent
// to self-correct on failure. MaxRetries counts correction attempts, not
// total attempts: a loop with MaxRetries=1 parses at most twice.
type Loop struct {
	runner         agent.Runner
	maxRetries     int
	attemptTimeout time.Duration
	collector      *metrics.Collector
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithMaxRetries sets the correction budget.
func WithMaxRetries(n int) LoopOption {
	return func(l *Loop) {
		l.maxRetries = n
	}
}

// WithAttemptTimeout bounds each agent round-trip. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) LoopOption {
	return func(l *Loop) {
		l.attemptTimeout = d
	}
}

// WithCollector records an execution metric per ValidateAndFix call.
func WithCollector(c *metrics.Collector) LoopOption {
	return func(l *Loop) {
		l.collector = c
	}
}

// NewLoop creates a validation loop over the given agent runner.
func NewLoop(runner agent.Runner, opts ...LoopOption) *Loop {
	l := &Loop{runner: runner, maxRetries: DefaultMaxRetries}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ValidateAndFix validates responseText against the schema, retrying through
// agent self-correction up to the retry budget. It either returns the
// validated document or an error; a partially-valid result is never
// returned. When the budget is exhausted the last *SchemaError is returned
// unchanged so callers can inspect the violations.
func (l *Loop) ValidateAndFix(ctx context.Context, responseText string, schema *Schema, transform TransformFunc) (any, error) {
	var execution *metrics.ExecutionMetrics
	if l.collector != nil {
		execution = l.collector.CreateExecution("", map[string]any{"operation": "validate_and_fix"})
		execution.SetInput(responseText)
	}

	current := responseText
	attempt := 0
	var lastErr *SchemaError
	var doc any

	err := retry.Do(
		func() error {
			if attempt > 0 {
				prompt := l.correctionPrompt(current, schema, lastErr, attempt)
				resp, err := l.run(ctx, prompt)
				if err != nil {
					return retry.Unrecoverable(errors.Wrap(err, "correction attempt failed"))
				}
				current = resp.Content
			}
			attempt++

			parsed, err := parseAndValidate(current, schema, transform)
			if err != nil {
				var se *SchemaError
				if errors.As(err, &se) {
					lastErr = se
					logger.G(ctx).WithField("attempt", attempt).WithField("violations", len(se.Fields)).
						Debug("schema validation failed")
					return err
				}
				return retry.Unrecoverable(err)
			}
			doc = parsed
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(l.maxRetries)+1),
		retry.LastErrorOnly(true),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(0),
		retry.RetryIf(func(err error) bool {
			var se *SchemaError
			return errors.As(err, &se)
		}),
	)

	if execution != nil {
		execution.SetOutput(current)
		execution.Metadata["attempts"] = attempt
		if err != nil {
			execution.Validation.Status = metrics.StatusInvalid
			execution.Error = err.Error()
		} else {
			execution.Validation.Status = metrics.StatusValid
		}
		execution.Performance.End()
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ValidateInto runs the loop against the schema reflected from T and decodes
// the validated document into a T.
func ValidateInto[T any](ctx context.Context, l *Loop, responseText string, transform TransformFunc) (T, error) {
	var zero T
	schema, err := SchemaFor[T]()
	if err != nil {
		return zero, err
	}
	doc, err := l.ValidateAndFix(ctx, responseText, schema, transform)
	if err != nil {
		return zero, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return zero, errors.Wrap(err, "failed to re-encode validated document")
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, errors.Wrap(err, "failed to decode validated document")
	}
	return out, nil
}

// ValidateResponse is a convenience for one-off validation with retry.
func ValidateResponse[T any](ctx context.Context, runner agent.Runner, responseText string, opts ...LoopOption) (T, error) {
	return ValidateInto[T](ctx, NewLoop(runner, opts...), responseText, nil)
}

func parseAndValidate(responseText string, schema *Schema, transform TransformFunc) (any, error) {
	var doc any
	if transform != nil {
		mapped, err := transform(responseText)
		if err != nil {
			return nil, errors.Wrap(err, "transform failed")
		}
		doc = mapped
	} else {
		if err := json.Unmarshal([]byte(responseText), &doc); err != nil {
			return nil, invalidJSONError(err)
		}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (l *Loop) run(ctx context.Context, prompt string) (agent.Response, error) {
	if l.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.attemptTimeout)
		defer cancel()
	}
	return l.runner.Run(ctx, prompt)
}

func (l *Loop) correctionPrompt(original string, schema *Schema, schemaErr *SchemaError, attempt int) string {
	return fmt.Sprintf(`Your previous output failed validation (attempt %d/%d).

VALIDATION ERRORS:
%s

EXPECTED SCHEMA:
%s

ORIGINAL OUTPUT:
%s

Please provide a corrected response that strictly adheres to the schema above.
Output ONLY the corrected JSON without any explanation or markdown formatting.`,
		attempt, l.maxRetries, schemaErr.Details(), schema.Description(), original)
}
