package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinRegistry(t *testing.T) {
	r := Builtin()
	assert.Equal(t, []string{
		TimestampToolName,
		EmitEventToolName,
		ReferenceSearchToolName,
		FollowUpToolName,
	}, r.Names())

	tool, err := r.Resolve(ReferenceSearchToolName)
	require.NoError(t, err)
	assert.Equal(t, ReferenceSearchToolName, tool.Name())
}

func TestResolveInstantiatesFreshTools(t *testing.T) {
	r := Builtin()
	first, err := r.Resolve(ReferenceSearchToolName)
	require.NoError(t, err)
	second, err := r.Resolve(ReferenceSearchToolName)
	require.NoError(t, err)

	// Stateful tools must never be shared between contexts.
	first.(*ReferenceSearchTool).BindReferences([]string{"a"})
	assert.Empty(t, second.(*ReferenceSearchTool).References())
}

func TestResolveUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestLoadFromDir(t *testing.T) {
	ctx := context.TODO()
	r := Builtin()

	t.Run("missing dir", func(t *testing.T) {
		assert.Nil(t, r.LoadFromDir(ctx, filepath.Join(t.TempDir(), "nope")))
	})

	t.Run("missing manifest", func(t *testing.T) {
		assert.Nil(t, r.LoadFromDir(ctx, t.TempDir()))
	})

	t.Run("malformed manifest", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tools.yaml"), []byte("{not yaml"), 0o644))
		assert.Nil(t, r.LoadFromDir(ctx, dir))
	})

	t.Run("resolves declared tools", func(t *testing.T) {
		dir := t.TempDir()
		manifest := "tools:\n  - search_skill_references\n  - current_timestamp\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tools.yaml"), []byte(manifest), 0o644))

		loaded := r.LoadFromDir(ctx, dir)
		require.Len(t, loaded, 2)
		assert.Equal(t, ReferenceSearchToolName, loaded[0].Name())
		assert.Equal(t, TimestampToolName, loaded[1].Name())
	})

	t.Run("skips unresolvable names", func(t *testing.T) {
		dir := t.TempDir()
		manifest := "tools:\n  - no_such_tool\n  - current_timestamp\n  - \"\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tools.yaml"), []byte(manifest), 0o644))

		loaded := r.LoadFromDir(ctx, dir)
		require.Len(t, loaded, 1)
		assert.Equal(t, TimestampToolName, loaded[0].Name())
	})
}
