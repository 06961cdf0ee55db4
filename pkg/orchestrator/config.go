package orchestrator

import (
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the declarative agent configuration document. The root of the
// document must be a mapping.
type Config struct {
	Agents map[string]AgentConfig `mapstructure:"agents"`
}

// AgentConfig declares one agent's skill selection and context options.
// Skills accepts three shapes: a plain list of skill ids, a mapping with
// default/auto blocks, or the literal string "auto".
type AgentConfig struct {
	Skills            any    `mapstructure:"skills"`
	IncludeShared     *bool  `mapstructure:"include_shared"`
	ExtraInstructions string `mapstructure:"extra_instructions"`
}

// SkillsSpec is the mapping form of an agent's skills config.
type SkillsSpec struct {
	Default []string  `mapstructure:"default"`
	Auto    *AutoSpec `mapstructure:"auto"`
}

// AutoSpec tunes automatic routing for an agent.
type AutoSpec struct {
	Enabled    *bool    `mapstructure:"enabled"`
	Limit      int      `mapstructure:"limit"`
	Tags       []string `mapstructure:"tags"`
	MinScore   float64  `mapstructure:"min_score"`
	Additional []string `mapstructure:"additional"`
}

// enabled defaults to true when unset.
func (a *AutoSpec) enabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// loadConfigFile parses the configuration document. A missing file is an
// empty configuration; a document whose root is not a mapping is a
// configuration error.
func loadConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	var root map[string]any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, errors.Wrapf(err, "config %s must contain a mapping at the root", path)
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build config decoder")
	}
	if err := decoder.Decode(root); err != nil {
		return nil, errors.Wrapf(err, "malformed config %s", path)
	}
	return &cfg, nil
}

// decodeSkillsSpec interprets the mapping form of a skills config.
func decodeSkillsSpec(value any) (*SkillsSpec, error) {
	var spec SkillsSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build skills decoder")
	}
	if err := decoder.Decode(value); err != nil {
		return nil, errors.Wrap(err, "malformed skills config")
	}
	return &spec, nil
}
