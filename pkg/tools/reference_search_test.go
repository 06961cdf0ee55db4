package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceSearchTool(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(ref, []byte("alpha\nrevenue grew sharply\nomega\n"), 0o644))

	tool := NewReferenceSearchTool([]string{ref})
	assert.Equal(t, ReferenceSearchToolName, tool.Name())
	assert.NotNil(t, tool.Schema())

	out, err := tool.Invoke(context.TODO(), `{"query": "revenue"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `Found 1 reference(s) matching "revenue"`)
	assert.Contains(t, out, "[notes.md]")
}

func TestReferenceSearchToolRebind(t *testing.T) {
	tool := NewReferenceSearchTool(nil)

	out, err := tool.Invoke(context.TODO(), `{"query": "anything"}`)
	require.NoError(t, err)
	assert.Equal(t, "No reference documents available for the current skill context", out)

	dir := t.TempDir()
	ref := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(ref, []byte("anything goes\n"), 0o644))

	tool.BindReferences([]string{ref})
	assert.Equal(t, []string{ref}, tool.References())

	out, err = tool.Invoke(context.TODO(), `{"query": "anything"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "[doc.md]")
}

func TestReferenceSearchToolInvalidInput(t *testing.T) {
	tool := NewReferenceSearchTool(nil)
	_, err := tool.Invoke(context.TODO(), "{not json")
	assert.Error(t, err)
}

func TestReferenceSearchToolEmptyQuery(t *testing.T) {
	tool := NewReferenceSearchTool([]string{"ignored"})
	out, err := tool.Invoke(context.TODO(), `{"query": ""}`)
	require.NoError(t, err)
	assert.Equal(t, "Error: search query cannot be empty", out)
}

func TestEmitEventTool(t *testing.T) {
	tool := &EmitEventTool{}
	out, err := tool.Invoke(context.TODO(), `{"event": "  skill loaded  "}`)
	require.NoError(t, err)
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z\] skill loaded$`, out)
}

func TestTimestampTool(t *testing.T) {
	tool := &TimestampTool{}
	out, err := tool.Invoke(context.TODO(), "")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`, out)
}

func TestFollowUpTool(t *testing.T) {
	tool := &FollowUpTool{}

	out, err := tool.Invoke(context.TODO(), `{"context": "NVDA earnings"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "NVDA earnings")

	out, err = tool.Invoke(context.TODO(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "this topic")
}
