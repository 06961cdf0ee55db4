// Package validation implements the self-healing validation loop: structured
// agent output is checked against a JSON schema, and on failure the agent is
// asked to correct its own output, bounded by a retry budget.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	invopop "github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema pairs a compiled JSON schema with its textual description, which is
// embedded in correction prompts so the agent can see the expected shape.
type Schema struct {
	name        string
	description string
	compiled    *santhosh.Schema
}

// NewSchema compiles a raw JSON schema document.
func NewSchema(name string, schemaJSON []byte) (*Schema, error) {
	compiler := santhosh.NewCompiler()
	resource := name
	if resource == "" {
		resource = "schema.json"
	}
	if err := compiler.AddResource(resource, bytes.NewReader(schemaJSON)); err != nil {
		return nil, errors.Wrapf(err, "failed to add schema resource %s", resource)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile schema %s", resource)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, schemaJSON, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(schemaJSON)
	}
	return &Schema{name: resource, description: pretty.String(), compiled: compiled}, nil
}

// SchemaFor reflects a JSON schema from the Go type T and compiles it.
// Field constraints are expressed through jsonschema struct tags
// (minLength, minimum, maximum, ...).
func SchemaFor[T any]() (*Schema, error) {
	reflector := invopop.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	var value T
	reflected := reflector.Reflect(&value)
	raw, err := json.Marshal(reflected)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode reflected schema")
	}
	return NewSchema(fmt.Sprintf("%T.json", value), raw)
}

// Description returns the schema's structural description as indented JSON.
func (s *Schema) Description() string {
	return s.description
}

// Validate checks a decoded JSON document against the schema. Violations
// are returned as a *SchemaError carrying one entry per failing field.
func (s *Schema) Validate(doc any) error {
	if err := s.compiled.Validate(doc); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return newSchemaError(ve)
		}
		return errors.Wrap(err, "schema validation failed")
	}
	return nil
}
