package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// FollowUpToolName identifies the follow-up question suggester.
const FollowUpToolName = "suggest_follow_up_questions"

// FollowUpTool proposes two concise follow-up questions that extend the
// current topic, keeping a session moving.
type FollowUpTool struct{}

type followUpInput struct {
	Context string `json:"context,omitempty" jsonschema:"description=Current conversation topic"`
}

func (t *FollowUpTool) Name() string        { return FollowUpToolName }
func (t *FollowUpTool) Description() string { return "Generate follow-up prompts to keep the session moving" }

func (t *FollowUpTool) Schema() *jsonschema.Schema {
	return generateSchema(&followUpInput{})
}

func (t *FollowUpTool) Invoke(_ context.Context, input string) (string, error) {
	var args followUpInput
	if input != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", errors.Wrap(err, "invalid follow-up input")
		}
	}

	topic := strings.TrimSpace(args.Context)
	if topic == "" {
		topic = "this topic"
	}
	questions := []string{
		fmt.Sprintf("What additional insight would help clarify %s?", topic),
		fmt.Sprintf("Which related area should we explore next regarding %s?", topic),
	}

	out, err := json.Marshal(questions)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode follow-up questions")
	}
	return string(out), nil
}
