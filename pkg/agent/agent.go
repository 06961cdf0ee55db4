// Package agent defines the narrow interface skillet uses to invoke an
// external LLM execution engine. The core never depends on a concrete
// provider; callers supply a Runner.
package agent

import "context"

// Response is the output of a single agent invocation.
type Response struct {
	Content string
}

// Runner executes one prompt against an agent runtime and returns its
// textual output.
type Runner interface {
	Run(ctx context.Context, prompt string) (Response, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, prompt string) (Response, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, prompt string) (Response, error) {
	return f(ctx, prompt)
}
