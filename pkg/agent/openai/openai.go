// Package openai provides an agent.Runner backed by the OpenAI chat
// completions API.
package openai

import (
	"context"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jingkaihe/skillet/pkg/agent"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

// Runner invokes a single OpenAI chat completion per prompt.
type Runner struct {
	client       *openai.Client
	model        string
	instructions string
}

// Option configures a Runner.
type Option func(*Runner)

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(r *Runner) {
		r.model = model
	}
}

// WithInstructions sets a system prompt sent with every run.
func WithInstructions(instructions string) Option {
	return func(r *Runner) {
		r.instructions = instructions
	}
}

// NewRunner creates a Runner using the given API key.
func NewRunner(apiKey string, opts ...Option) *Runner {
	r := &Runner{
		client: openai.NewClient(apiKey),
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run implements agent.Runner.
func (r *Runner) Run(ctx context.Context, prompt string) (agent.Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if r.instructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.instructions,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
	})
	if err != nil {
		return agent.Response{}, errors.Wrap(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return agent.Response{}, errors.New("chat completion returned no choices")
	}
	return agent.Response{Content: resp.Choices[0].Message.Content}, nil
}
