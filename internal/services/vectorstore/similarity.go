package vectorstore

import (
	"math"
	"sort"
)

// CosineSimilarity returns dot(a,b)/(|a||b|). Mismatched lengths and zero vectors
// yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push parallel vectors marginally past the bounds.
	return math.Max(-1, math.Min(1, sim))
}

// rankTopK sorts matches by descending similarity, keeping insertion order among
// ties, and truncates to limit.
func rankTopK(matches []Match, limit int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches
}
