package skills

import (
	"regexp"
	"sort"
	"strings"
)

// Scoring weights. Substring matches of longer terms earn a length bonus so
// specific phrases dominate generic single-word hits.
const (
	substringBase      = 3.0
	substringLenBonus  = 0.05
	tokenMatchScore    = 2.5
	fuzzyThreshold     = 0.82
	fuzzyWeight        = 1.5
	tagSubstringScore  = 2.0
	tagTokenScore      = 1.5
	descriptionKeyword = 0.25
)

var tokenPattern = regexp.MustCompile(`\b[\w-]+\b`)

// RouteOptions narrows and truncates a routing result.
type RouteOptions struct {
	// Limit truncates the result when positive.
	Limit int
	// Tags, when non-empty, restricts scoring to skills carrying at least
	// one of these tags (case-insensitive).
	Tags []string
	// MinScore excludes skills scoring at or below this value. The boundary
	// is exclusive: a skill scoring exactly MinScore is dropped.
	MinScore float64
}

// Router scores skills in a registry against a free-text message and
// returns the most relevant matches.
type Router struct {
	registry *Registry
}

// NewRouter creates a router over the registry's catalog.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Route ranks all cataloged skills against the message, highest score
// first. An empty message yields no matches regardless of catalog size.
func (r *Router) Route(message string, opts RouteOptions) []Metadata {
	if message == "" {
		return nil
	}

	normalized := strings.ToLower(message)
	tokens := tokenPattern.FindAllString(normalized, -1)
	tokenCounts := make(map[string]int, len(tokens))
	tokenOrder := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if tokenCounts[token] == 0 {
			tokenOrder = append(tokenOrder, token)
		}
		tokenCounts[token]++
	}

	var requiredTags map[string]struct{}
	if len(opts.Tags) > 0 {
		requiredTags = make(map[string]struct{}, len(opts.Tags))
		for _, tag := range opts.Tags {
			requiredTags[strings.ToLower(tag)] = struct{}{}
		}
	}

	type scored struct {
		score float64
		md    Metadata
	}
	var results []scored
	for _, md := range r.registry.ListMetadata() {
		if requiredTags != nil && !hasAnyTag(md.Tags, requiredTags) {
			continue
		}
		score := scoreSkill(md, normalized, tokenCounts, tokenOrder)
		if score <= opts.MinScore {
			continue
		}
		results = append(results, scored{score: score, md: md})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	out := make([]Metadata, 0, len(results))
	for _, item := range results {
		out = append(out, item.md)
	}
	return out
}

func hasAnyTag(tags []string, required map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := required[strings.ToLower(tag)]; ok {
			return true
		}
	}
	return false
}

// scoreSkill accumulates a skill's relevance score additively; no
// cross-skill normalization is applied.
func scoreSkill(md Metadata, normalized string, tokenCounts map[string]int, tokenOrder []string) float64 {
	score := 0.0

	for _, term := range md.MatchTerms {
		if term == "" {
			continue
		}
		if strings.Contains(normalized, term) {
			score += substringBase + substringLenBonus*float64(len(term))
			continue
		}
		if tokenCounts[term] > 0 {
			score += tokenMatchScore
			continue
		}
		// First token above the threshold wins; the scan does not continue
		// looking for a better match.
		for _, token := range tokenOrder {
			similarity := similarityRatio(term, token)
			if similarity >= fuzzyThreshold {
				score += fuzzyWeight * similarity
				break
			}
		}
	}

	for _, tag := range md.Tags {
		if tag == "" {
			continue
		}
		lowered := strings.ToLower(tag)
		if strings.Contains(normalized, lowered) {
			score += tagSubstringScore
		} else if tokenCounts[lowered] > 0 {
			score += tagTokenScore
		}
	}

	for _, keyword := range strings.Fields(strings.ToLower(md.Description)) {
		if tokenCounts[keyword] > 0 {
			score += descriptionKeyword
		}
	}

	return score
}
