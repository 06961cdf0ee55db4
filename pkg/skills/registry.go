package skills

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/references"
	"github.com/jingkaihe/skillet/pkg/tools"
)

// Registry discovers skills under a root directory and resolves them on
// demand. Discovered metadata and loaded packages are cached until Reload.
type Registry struct {
	root         string
	toolRegistry *tools.Registry

	mu       sync.RWMutex
	catalog  map[string]Metadata
	packages map[string]*Package
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithToolRegistry sets the tool registry used to resolve skill tool
// manifests. Defaults to the builtin registry.
func WithToolRegistry(tr *tools.Registry) RegistryOption {
	return func(r *Registry) {
		r.toolRegistry = tr
	}
}

// NewRegistry creates a registry rooted at root and runs discovery. A
// missing root yields an empty catalog; malformed manifests and duplicate
// skill ids are configuration errors and fail construction.
func NewRegistry(root string, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		root:         root,
		toolRegistry: tools.Builtin(),
		catalog:      make(map[string]Metadata),
		packages:     make(map[string]*Package),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.discover(); err != nil {
		return nil, err
	}
	return r, nil
}

// Root returns the skills root directory.
func (r *Registry) Root() string {
	return r.root
}

// discover walks the immediate subdirectories of the root in lexicographic
// order and parses a manifest from each. Every bad manifest is reported, not
// just the first, so operators can fix a broken tree in one pass.
func (r *Registry) discover() error {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to read skills root %s", r.root)
	}

	var errs *multierror.Error
	catalog := make(map[string]Metadata)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.root, entry.Name())

		md, ok, err := loadManifest(dir)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if !ok {
			continue
		}

		if _, exists := catalog[md.ID]; exists {
			errs = multierror.Append(errs, errors.Errorf("duplicate skill id detected: %s", md.ID))
			continue
		}
		catalog[md.ID] = md
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	r.mu.Lock()
	r.catalog = catalog
	r.mu.Unlock()
	return nil
}

// loadManifest parses the manifest for a single skill directory. ok reports
// whether the directory qualifies as a skill at all.
func loadManifest(dir string) (md Metadata, ok bool, err error) {
	manifestPath := filepath.Join(dir, ManifestFileName)
	if _, statErr := os.Stat(manifestPath); statErr == nil {
		md, err = parseManifestFile(manifestPath, dir)
		if err != nil {
			return Metadata{}, false, err
		}
		return md, true, nil
	}

	skillMD := filepath.Join(dir, DefaultInstructionsFile)
	if _, statErr := os.Stat(skillMD); statErr == nil {
		return parseFrontmatterManifest(skillMD, dir)
	}
	return Metadata{}, false, nil
}

// ListMetadata returns all discovered metadata sorted by id for stable
// enumeration.
func (r *Registry) ListMetadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.catalog))
	for _, md := range r.catalog {
		out = append(out, md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetMetadata returns the metadata for a skill id.
func (r *Registry) GetMetadata(id string) (Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	md, ok := r.catalog[id]
	if !ok {
		return Metadata{}, errors.Wrapf(ErrNotFound, "unknown skill id %q", id)
	}
	return md, nil
}

// EnsureSkills verifies every id is present in the catalog.
func (r *Registry) EnsureSkills(ids []string) error {
	for _, id := range ids {
		if _, err := r.GetMetadata(id); err != nil {
			return err
		}
	}
	return nil
}

// LoadSkill resolves a skill's full package: trimmed instructions, tools
// declared in its tool manifest, and reference file paths. The result is
// cached; repeat calls do not re-hit the filesystem until Reload. A skill
// without an instructions file is invalid.
func (r *Registry) LoadSkill(ctx context.Context, id string) (*Package, error) {
	r.mu.RLock()
	if pkg, ok := r.packages[id]; ok {
		r.mu.RUnlock()
		return pkg, nil
	}
	r.mu.RUnlock()

	md, err := r.GetMetadata(id)
	if err != nil {
		return nil, err
	}

	instructionsPath := filepath.Join(md.Root, md.InstructionsPath)
	raw, err := os.ReadFile(instructionsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "skill %s missing instructions file at %s", id, instructionsPath)
		}
		return nil, errors.Wrapf(err, "failed to read instructions for skill %s", id)
	}
	instructions := strings.TrimSpace(stripFrontmatter(string(raw)))

	pkg := &Package{
		Metadata:     md,
		Instructions: instructions,
		Tools:        r.toolRegistry.LoadFromDir(ctx, filepath.Join(md.Root, md.ToolsPath)),
		References:   references.ListDir(filepath.Join(md.Root, md.RefsPath)),
	}

	r.mu.Lock()
	if cached, ok := r.packages[id]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.packages[id] = pkg
	r.mu.Unlock()

	logger.G(ctx).WithField("skill", id).Debug("loaded skill package")
	return pkg, nil
}

// Reload clears the metadata catalog and the package cache and re-runs
// discovery, so on-disk changes become visible.
func (r *Registry) Reload() error {
	r.mu.Lock()
	r.catalog = make(map[string]Metadata)
	r.packages = make(map[string]*Package)
	r.mu.Unlock()
	return r.discover()
}

// stripFrontmatter drops a leading YAML frontmatter block so instructions
// authored in the SKILL.md-with-frontmatter layout do not leak manifest
// fields into the agent prompt.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return content
}
