package storage

import (
	"math"
	"sort"
)

// FallbackCandidateLimit implements the over-fetch rule of thumb for the
// in-memory cosine fallback used by backends with no native vector
// index: 5x the requested limit, floored at 100 and capped at 500.
func FallbackCandidateLimit(limit int) int {
	n := limit * 5
	if n < 100 {
		n = 100
	}
	if n > 500 {
		n = 500
	}
	return n
}

// CosineSimilarity computes the cosine similarity between two vectors of
// equal length. Vectors of differing length or zero magnitude yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// ScoredRow is a row candidate carrying its computed similarity.
type ScoredRow[T any] struct {
	Row        T
	Similarity float64
}

// RankByCosine scores candidates against a query embedding, sorts
// descending by similarity, applies the threshold floor, and truncates
// to limit. embeddingOf extracts the stored embedding for a candidate.
func RankByCosine[T any](candidates []T, query []float32, threshold float64, limit int, embeddingOf func(T) []float32) []ScoredRow[T] {
	scored := make([]ScoredRow[T], 0, len(candidates))
	for _, c := range candidates {
		sim := CosineSimilarity(query, embeddingOf(c))
		if sim < threshold {
			continue
		}
		scored = append(scored, ScoredRow[T]{Row: c, Similarity: sim})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// ToFloat32 normalizes heterogeneous numeric slices (as decoded from
// JSON or a driver's generic row map) to []float32.
func ToFloat32(v interface{}) []float32 {
	switch vv := v.(type) {
	case []float32:
		return vv
	case []float64:
		out := make([]float32, len(vv))
		for i, f := range vv {
			out[i] = float32(f)
		}
		return out
	case []interface{}:
		out := make([]float32, len(vv))
		for i, item := range vv {
			switch n := item.(type) {
			case float64:
				out[i] = float32(n)
			case float32:
				out[i] = n
			}
		}
		return out
	default:
		return nil
	}
}
