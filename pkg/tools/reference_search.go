package tools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/references"
)

// ReferenceSearchToolName is the sentinel name the orchestrator looks for
// when binding collected reference documents to a context's tool set.
const ReferenceSearchToolName = "search_skill_references"

// ReferenceSearchTool performs keyword search across the reference documents
// bound to the current agent context. The reference list is supplied
// explicitly by the orchestrator via BindReferences once context assembly is
// complete.
type ReferenceSearchTool struct {
	mu   sync.RWMutex
	refs []string
}

// NewReferenceSearchTool creates a search tool over the given references.
func NewReferenceSearchTool(refs []string) *ReferenceSearchTool {
	return &ReferenceSearchTool{refs: refs}
}

type referenceSearchInput struct {
	Query string `json:"query" jsonschema:"description=Search terms to look for in reference documents"`
}

// Name implements Tool.
func (t *ReferenceSearchTool) Name() string {
	return ReferenceSearchToolName
}

// Description implements Tool.
func (t *ReferenceSearchTool) Description() string {
	return "Search skill reference documents for relevant information"
}

// Schema implements Tool.
func (t *ReferenceSearchTool) Schema() *jsonschema.Schema {
	return generateSchema(&referenceSearchInput{})
}

// BindReferences implements ReferenceBinder. It replaces the reference list
// the tool searches over.
func (t *ReferenceSearchTool) BindReferences(refs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs = refs
}

// References returns the currently bound reference paths.
func (t *ReferenceSearchTool) References() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refs
}

// Invoke implements Tool.
func (t *ReferenceSearchTool) Invoke(_ context.Context, input string) (string, error) {
	var args referenceSearchInput
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", errors.Wrap(err, "invalid search input")
	}
	return references.SearchFiles(t.References(), args.Query), nil
}
