package references

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	maxSnippetsPerFile = 3
	contextLines       = 1
)

// KeywordSearcher performs case-insensitive substring search over a fixed
// set of reference files, returning matching lines with surrounding context.
type KeywordSearcher struct {
	paths []string
}

// NewKeywordSearcher creates a searcher over the given reference paths.
func NewKeywordSearcher(paths []string) *KeywordSearcher {
	return &KeywordSearcher{paths: paths}
}

// Search implements Searcher. A non-positive limit returns all matches.
func (s *KeywordSearcher) Search(_ context.Context, query string, limit int) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var matches []Match
	for _, path := range s.paths {
		snippet, ok := searchFile(path, query)
		if !ok {
			continue
		}
		matches = append(matches, Match{Path: path, Snippet: snippet})
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

// SearchFiles runs a keyword search across paths and renders the results the
// way the reference-search tool presents them to the model.
func SearchFiles(paths []string, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Error: search query cannot be empty"
	}
	if len(paths) == 0 {
		return "No reference documents available for the current skill context"
	}

	searcher := NewKeywordSearcher(paths)
	matches, _ := searcher.Search(context.Background(), query, 0)
	if len(matches) == 0 {
		return fmt.Sprintf("No matches found for %q in %d reference document(s)", query, len(paths))
	}

	snippets := make([]string, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, m.Snippet)
	}
	header := fmt.Sprintf("Found %d reference(s) matching %q:\n\n", len(matches), query)
	return header + strings.Join(snippets, "\n---\n")
}

// searchFile scans a single file for the query, returning matching lines
// with one line of context either side, capped at maxSnippetsPerFile hits.
func searchFile(path string, query string) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	queryLower := strings.ToLower(query)
	if !strings.Contains(strings.ToLower(string(content)), queryLower) {
		return "", false
	}

	lines := strings.Split(string(content), "\n")
	var hits []string
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), queryLower) {
			continue
		}
		start := i - contextLines
		if start < 0 {
			start = 0
		}
		end := i + contextLines + 1
		if end > len(lines) {
			end = len(lines)
		}
		hits = append(hits, strings.Join(lines[start:end], "\n"))
		if len(hits) >= maxSnippetsPerFile {
			break
		}
	}

	if len(hits) == 0 {
		return "", false
	}
	snippet := strings.Join(hits, "\n...\n")
	return fmt.Sprintf("[%s]\n%s\n", filepath.Base(path), snippet), true
}
