package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillet/pkg/logger"
)

// manifestFileName is the tool manifest a skill ships inside its tools
// directory. It lists registered tool names instead of loadable code.
const manifestFileName = "tools.yaml"

// Factory constructs a fresh tool instance. Tools are instantiated per
// resolution so stateful tools (reference binding) are never shared between
// contexts.
type Factory func() Tool

// Registry maps tool names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Builtin returns a registry pre-populated with the tools shipped in this
// package.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(ReferenceSearchToolName, func() Tool { return NewReferenceSearchTool(nil) })
	r.Register(EmitEventToolName, func() Tool { return &EmitEventTool{} })
	r.Register(TimestampToolName, func() Tool { return &TimestampTool{} })
	r.Register(FollowUpToolName, func() Tool { return &FollowUpTool{} })
	return r
}

// Register adds or replaces a factory under the given name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Resolve instantiates the tool registered under name.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("tool %q is not registered", name)
	}
	return factory(), nil
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type toolManifest struct {
	Tools []string `yaml:"tools"`
}

// LoadFromDir resolves the tools declared in dir's manifest against the
// registry. Missing directories and missing manifests yield an empty list.
// Individual resolution failures are logged and skipped so one bad tool
// entry never breaks context assembly for the rest of the skill.
func (r *Registry) LoadFromDir(ctx context.Context, dir string) []Tool {
	manifestPath := filepath.Join(dir, manifestFileName)
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil
	}

	var manifest toolManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		logger.G(ctx).WithError(err).WithField("path", manifestPath).Warn("skipping malformed tool manifest")
		return nil
	}

	loaded := make([]Tool, 0, len(manifest.Tools))
	for _, name := range manifest.Tools {
		if name == "" {
			continue
		}
		tool, err := r.Resolve(name)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("tool", name).Warn("skipping unresolvable tool")
			continue
		}
		loaded = append(loaded, tool)
	}
	return loaded
}
