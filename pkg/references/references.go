// Package references collects and searches the passive reference documents
// shipped alongside skills. References stay on disk as plain file paths so
// callers decide when to open them (for example to embed them into a vector
// store on first use).
package references

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ListDir returns every regular file under dir, recursively, in sorted
// order. A missing or non-directory path yields an empty list rather than
// an error; shipping no references is a valid skill layout.
func ListDir(dir string) []string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}

	var refs []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			refs = append(refs, path)
		}
		return nil
	})
	sort.Strings(refs)
	return refs
}

// Match is a single search hit inside a reference document.
type Match struct {
	Path    string
	Snippet string
}

// Searcher is the narrow interface an external embedding/similarity store
// implements. The in-tree KeywordSearcher is the plain-text fallback.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Match, error)
}
