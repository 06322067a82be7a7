package domain

import "math"

// CosineSimilarity returns dot(a,b) / (|a|*|b|).
//
// Empty vectors, vectors of different length and zero vectors score exactly 0,
// so unembeddable content stays stored but unranked.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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

	sim := dot / math.Sqrt(normA*normB)
	// Clamp float drift.
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// Rankable reports whether v can score above zero against any query:
// it must be non-empty with a non-zero norm.
func Rankable(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return true
		}
	}
	return false
}
