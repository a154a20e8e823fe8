package domain

import "math"

// CosineSimilarity returns dot(a, b) / (|a| |b|).
// Vectors of different length, empty vectors and zero-magnitude vectors score 0.
// Accumulation is done in float64 to keep self-similarity at 1 within tolerance.
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

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Clamp rounding drift so callers can rely on the documented range.
	switch {
	case score > 1:
		return 1
	case score < -1:
		return -1
	default:
		return score
	}
}
