package validation

import (
	"fmt"
	"strings"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldError is a single schema violation located by instance path.
type FieldError struct {
	Path    string
	Message string
}

// SchemaError reports every schema violation found in one document. It is
// the error type re-raised unchanged when the validation loop exhausts its
// retry budget.
type SchemaError struct {
	Fields []FieldError
}

// Error implements error.
func (e *SchemaError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("schema validation failed: %s: %s", e.Fields[0].Path, e.Fields[0].Message)
	}
	return fmt.Sprintf("schema validation failed: %d violations\n%s", len(e.Fields), e.Details())
}

// Details renders one violation per line, "path: message", for embedding in
// correction prompts.
func (e *SchemaError) Details() string {
	lines := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		lines = append(lines, fmt.Sprintf("  - %s: %s", f.Path, f.Message))
	}
	return strings.Join(lines, "\n")
}

// invalidJSONError wraps a JSON decode failure as a root-level schema
// violation so malformed output flows through the same retry path as a
// well-formed document with bad fields.
func invalidJSONError(err error) *SchemaError {
	return &SchemaError{Fields: []FieldError{{
		Path:    "(root)",
		Message: fmt.Sprintf("response is not valid JSON: %v", err),
	}}}
}

func newSchemaError(ve *santhosh.ValidationError) *SchemaError {
	se := &SchemaError{}
	collectLeaves(ve, se)
	if len(se.Fields) == 0 {
		se.Fields = append(se.Fields, FieldError{Path: displayPath(ve.InstanceLocation), Message: ve.Message})
	}
	return se
}

func collectLeaves(ve *santhosh.ValidationError, se *SchemaError) {
	if len(ve.Causes) == 0 {
		se.Fields = append(se.Fields, FieldError{
			Path:    displayPath(ve.InstanceLocation),
			Message: ve.Message,
		})
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, se)
	}
}

func displayPath(instanceLocation string) string {
	trimmed := strings.TrimPrefix(instanceLocation, "/")
	if trimmed == "" {
		return "(root)"
	}
	return strings.ReplaceAll(trimmed, "/", " -> ")
}
