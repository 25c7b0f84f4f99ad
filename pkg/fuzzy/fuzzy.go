// Package fuzzy provides approximate string matching used to catch
// near-duplicate entity names that an exact lookup would miss (casing,
// punctuation, minor typos across extraction calls).
package fuzzy

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is a candidate string paired with its edit distance from the
// query. Lower distances are closer matches.
type Match struct {
	Value    string
	Distance int
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Distance returns the Levenshtein edit distance between a and b after
// case/whitespace normalization.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(normalize(a), normalize(b))
}

// Nearest returns candidates whose distance to query is at most
// maxDistance, ordered by ascending distance then lexicographically.
func Nearest(query string, candidates []string, maxDistance int) []Match {
	normalizedQuery := normalize(query)

	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		d := levenshtein.ComputeDistance(normalizedQuery, normalize(candidate))
		if maxDistance >= 0 && d > maxDistance {
			continue
		}
		matches = append(matches, Match{Value: candidate, Distance: d})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance == matches[j].Distance {
			return matches[i].Value < matches[j].Value
		}
		return matches[i].Distance < matches[j].Distance
	})

	return matches
}

// MaxDistanceFor scales the allowed edit distance to the query length, so
// short names ("Al" vs "Ed") aren't treated as near-duplicates while long
// ones tolerate a few typos.
func MaxDistanceFor(name string) int {
	n := len(name)
	switch {
	case n <= 4:
		return 0
	case n <= 8:
		return 1
	default:
		return 2
	}
}
