package validation

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema(t *testing.T) {
	raw := []byte(`{
		"type": "object",
		"properties": {
			"answer": {"type": "string", "minLength": 1}
		},
		"required": ["answer"]
	}`)

	schema, err := NewSchema("answer.json", raw)
	require.NoError(t, err)
	assert.Contains(t, schema.Description(), `"minLength"`)

	require.NoError(t, schema.Validate(map[string]any{"answer": "42"}))

	err = schema.Validate(map[string]any{"answer": ""})
	require.Error(t, err)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "answer", se.Fields[0].Path)
}

func TestNewSchemaMalformed(t *testing.T) {
	_, err := NewSchema("bad.json", []byte(`{"type": 12}`))
	assert.Error(t, err)
}

func TestSchemaForReportsEveryViolation(t *testing.T) {
	schema, err := SchemaFor[stockReport]()
	require.NoError(t, err)

	err = schema.Validate(map[string]any{"confidence": 2.0})
	require.Error(t, err)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	// Missing required fields and the out-of-range confidence are all
	// reported together.
	assert.GreaterOrEqual(t, len(se.Fields), 2)
}

func TestSchemaErrorRendering(t *testing.T) {
	single := &SchemaError{Fields: []FieldError{{Path: "ticker", Message: "expected string"}}}
	assert.Equal(t, "schema validation failed: ticker: expected string", single.Error())

	multi := &SchemaError{Fields: []FieldError{
		{Path: "ticker", Message: "expected string"},
		{Path: "confidence", Message: "must be <= 1"},
	}}
	assert.Contains(t, multi.Error(), "2 violations")
	assert.Contains(t, multi.Details(), "  - ticker: expected string")
	assert.Contains(t, multi.Details(), "  - confidence: must be <= 1")
}

func TestDisplayPath(t *testing.T) {
	assert.Equal(t, "(root)", displayPath(""))
	assert.Equal(t, "answer", displayPath("/answer"))
	assert.Equal(t, "items -> 0 -> name", displayPath("/items/0/name"))
}
