// Package tools defines the callable tool contract handed to agent runtimes
// and a static plugin registry that resolves tool names declared in skill
// manifests. Tools are compiled into the binary and registered by name; skill
// directories declare which registered tools they want instead of shipping
// loadable code.
package tools

import (
	"context"

	"github.com/invopop/jsonschema"
)

// Tool is a single callable capability exposed to an agent runtime.
type Tool interface {
	Name() string
	Description() string
	Schema() *jsonschema.Schema
	Invoke(ctx context.Context, input string) (string, error)
}

// ReferenceBinder is implemented by tools that operate over the reference
// documents collected for the current context. The orchestrator binds the
// complete reference list once context assembly is finished.
type ReferenceBinder interface {
	BindReferences(refs []string)
}

// generateSchema reflects a JSON schema from the tool's argument struct.
func generateSchema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	return reflector.Reflect(v)
}
