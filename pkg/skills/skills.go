// Package skills implements the skill catalog at the heart of skillet:
// discovery of skill packages on disk, lazy loading of their assets, and
// keyword-similarity routing of skills against free-text messages.
//
// A skill is a directory containing a skill.yaml manifest (or a SKILL.md
// file with YAML frontmatter carrying the same fields), an instructions
// file, an optional tools directory with a tool manifest, and an optional
// refs directory of reference documents.
package skills

import (
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/tools"
)

// Default relative paths inside a skill directory.
const (
	DefaultInstructionsFile = "SKILL.md"
	DefaultToolsDir         = "tools"
	DefaultRefsDir          = "refs"
)

// ErrNotFound is returned when a skill id is absent from the catalog or a
// skill's instructions file is missing on disk.
var ErrNotFound = errors.New("skill not found")

// Metadata is the lightweight description of a skill, loaded during
// discovery without pulling the full skill context. It is treated as
// immutable once discovered.
type Metadata struct {
	ID          string
	Name        string
	Description string
	Root        string
	Tags        []string
	MatchTerms  []string
	Version     string

	// Relative paths inside Root.
	InstructionsPath string
	ToolsPath        string
	RefsPath         string
}

// Package is a fully-resolved skill ready for orchestration: metadata plus
// trimmed instructions, instantiated tools, and reference file paths.
type Package struct {
	Metadata     Metadata
	Instructions string
	Tools        []tools.Tool
	References   []string
}
