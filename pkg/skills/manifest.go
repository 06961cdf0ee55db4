package skills

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is the primary manifest a skill directory ships.
const ManifestFileName = "skill.yaml"

var slugPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type manifest struct {
	ID           string   `yaml:"id" mapstructure:"id"`
	Name         string   `yaml:"name" mapstructure:"name"`
	Description  string   `yaml:"description" mapstructure:"description"`
	Tags         []string `yaml:"tags" mapstructure:"tags"`
	MatchTerms   []string `yaml:"match_terms" mapstructure:"match_terms"`
	Version      string   `yaml:"version" mapstructure:"version"`
	Instructions string   `yaml:"instructions" mapstructure:"instructions"`
	ToolsPath    string   `yaml:"tools_path" mapstructure:"tools_path"`
	RefsPath     string   `yaml:"refs_path" mapstructure:"refs_path"`
}

// parseManifestFile parses a skill.yaml manifest. Every field except id is
// optional and falls back to a documented default.
func parseManifestFile(path string, root string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, errors.Wrapf(err, "failed to read manifest %s", path)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Metadata{}, errors.Wrapf(err, "malformed manifest %s", path)
	}
	return m.toMetadata(root, path)
}

// parseFrontmatterManifest treats a SKILL.md file with YAML frontmatter as an
// alternate manifest source. Files without frontmatter, or whose frontmatter
// carries no id, are not manifests; ok reports whether one was found.
func parseFrontmatterManifest(path string, root string) (md Metadata, ok bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, false, errors.Wrapf(err, "failed to read %s", path)
	}

	parsed := goldmark.New(goldmark.WithExtensions(meta.Meta))
	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := parsed.Convert(raw, &buf, parser.WithContext(pctx)); err != nil {
		return Metadata{}, false, errors.Wrapf(err, "failed to parse %s", path)
	}

	front := meta.Get(pctx)
	if front == nil {
		return Metadata{}, false, nil
	}
	if _, hasID := front["id"]; !hasID {
		return Metadata{}, false, nil
	}

	var m manifest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &m,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Metadata{}, false, errors.Wrap(err, "failed to build frontmatter decoder")
	}
	if err := decoder.Decode(front); err != nil {
		return Metadata{}, false, errors.Wrapf(err, "malformed frontmatter in %s", path)
	}

	md, err = m.toMetadata(root, path)
	if err != nil {
		return Metadata{}, false, err
	}
	return md, true, nil
}

func (m manifest) toMetadata(root string, source string) (Metadata, error) {
	if m.ID == "" {
		return Metadata{}, errors.Errorf("skill manifest %s missing 'id'", source)
	}
	if !slugPattern.MatchString(m.ID) {
		return Metadata{}, errors.Errorf("skill id %q in %s must match %s", m.ID, source, slugPattern.String())
	}

	name := m.Name
	if name == "" {
		name = m.ID
	}

	matchTerms := make([]string, 0, len(m.MatchTerms))
	for _, term := range m.MatchTerms {
		matchTerms = append(matchTerms, strings.ToLower(term))
	}

	md := Metadata{
		ID:               m.ID,
		Name:             name,
		Description:      m.Description,
		Root:             root,
		Tags:             append([]string(nil), m.Tags...),
		MatchTerms:       matchTerms,
		Version:          m.Version,
		InstructionsPath: m.Instructions,
		ToolsPath:        m.ToolsPath,
		RefsPath:         m.RefsPath,
	}
	if md.InstructionsPath == "" {
		md.InstructionsPath = DefaultInstructionsFile
	}
	if md.ToolsPath == "" {
		md.ToolsPath = DefaultToolsDir
	}
	if md.RefsPath == "" {
		md.RefsPath = DefaultRefsDir
	}
	return md, nil
}
