package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ScaffoldConfig describes a skill package to create on disk.
type ScaffoldConfig struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	MatchTerms  []string
	// Force overwrites an existing skill directory.
	Force bool
}

const defaultSkillBody = `# %s

Describe the workflow, required tools, guardrails, and output format for this skill.
`

// CreatePackage scaffolds a new skill directory under root: a manifest, an
// instructions file, a tool manifest wired to the builtin reference search,
// and an empty refs directory. It returns the created skill directory.
func CreatePackage(root string, cfg ScaffoldConfig) (string, error) {
	if cfg.ID == "" {
		return "", errors.New("skill id must not be empty")
	}
	if !slugPattern.MatchString(cfg.ID) {
		return "", errors.Errorf("skill id %q must match %s", cfg.ID, slugPattern.String())
	}

	skillDir := filepath.Join(root, cfg.ID)
	if _, err := os.Stat(skillDir); err == nil && !cfg.Force {
		return "", errors.Errorf("skill directory already exists at %s", skillDir)
	}

	for _, dir := range []string{skillDir, filepath.Join(skillDir, DefaultToolsDir), filepath.Join(skillDir, DefaultRefsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(err, "failed to create %s", dir)
		}
	}

	name := cfg.Name
	if name == "" {
		name = titleFromID(cfg.ID)
	}
	tags := trimmed(cfg.Tags)
	if len(tags) == 0 {
		tags = []string{"general"}
	}
	matchTerms := trimmed(cfg.MatchTerms)
	for i, term := range matchTerms {
		matchTerms[i] = strings.ToLower(term)
	}
	if len(matchTerms) == 0 {
		matchTerms = []string{cfg.ID}
	}

	m := manifest{
		ID:           cfg.ID,
		Name:         name,
		Description:  strings.TrimSpace(cfg.Description),
		Tags:         tags,
		MatchTerms:   matchTerms,
		Version:      "0.1.0",
		Instructions: DefaultInstructionsFile,
		ToolsPath:    DefaultToolsDir,
		RefsPath:     DefaultRefsDir,
	}
	rawManifest, err := yaml.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode manifest")
	}

	files := map[string]string{
		filepath.Join(skillDir, ManifestFileName):              string(rawManifest),
		filepath.Join(skillDir, DefaultInstructionsFile):       fmt.Sprintf(defaultSkillBody, name),
		filepath.Join(skillDir, DefaultToolsDir, "tools.yaml"): "tools:\n  - search_skill_references\n",
		filepath.Join(skillDir, DefaultRefsDir, "README.md"):   "Add supplementary resources for retrieval or documentation.\n",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", errors.Wrapf(err, "failed to write %s", path)
		}
	}
	return skillDir, nil
}

func titleFromID(id string) string {
	words := strings.Split(id, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
