// Package version exposes build-time version metadata.
package version

import (
	"encoding/json"
	"fmt"
)

var (
	// Version is set at build time via -ldflags.
	Version = "dev"

	// GitCommit is the git commit SHA that was built.
	GitCommit = "unknown"
)

// Info is the version metadata reported by the CLI.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
}

// Get returns the current build's version information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("Version: %s, GitCommit: %s", i.Version, i.GitCommit)
}

// JSON renders the version info as indented JSON.
func (i Info) JSON() (string, error) {
	raw, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
