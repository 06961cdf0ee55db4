package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// EmitEventToolName identifies the structured event log tool.
const EmitEventToolName = "emit_skill_event"

// TimestampToolName identifies the UTC timestamp tool.
const TimestampToolName = "current_timestamp"

// EmitEventTool renders a structured event line with an ISO-8601 timestamp
// for downstream audit handling.
type EmitEventTool struct{}

type emitEventInput struct {
	Event string `json:"event" jsonschema:"description=Event text to record"`
}

func (t *EmitEventTool) Name() string        { return EmitEventToolName }
func (t *EmitEventTool) Description() string { return "Emit a structured event log with ISO-8601 timestamp" }

func (t *EmitEventTool) Schema() *jsonschema.Schema {
	return generateSchema(&emitEventInput{})
}

func (t *EmitEventTool) Invoke(_ context.Context, input string) (string, error) {
	var args emitEventInput
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", errors.Wrap(err, "invalid event input")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339)
	return fmt.Sprintf("[%s] %s", timestamp, strings.TrimSpace(args.Event)), nil
}

// TimestampTool returns the current UTC timestamp for audit trails.
type TimestampTool struct{}

type timestampInput struct{}

func (t *TimestampTool) Name() string        { return TimestampToolName }
func (t *TimestampTool) Description() string { return "Return the current UTC timestamp for audit trails" }

func (t *TimestampTool) Schema() *jsonschema.Schema {
	return generateSchema(&timestampInput{})
}

func (t *TimestampTool) Invoke(_ context.Context, _ string) (string, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}
