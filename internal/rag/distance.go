package rag

import "math"

// CosineDistance returns 1 - cos(u, v), the dissimilarity between two
// vectors, in [0, 2]: 0 for identical directions, 1 for orthogonal, 2 for
// opposite. If either vector has zero magnitude the distance is defined as
// 1.0 — maximally unrelated — rather than a division error.
func CosineDistance(u, v []float32) float32 {
	n := len(u)
	if len(v) < n {
		n = len(v)
	}

	var dot, normU, normV float64
	for i := 0; i < n; i++ {
		dot += float64(u[i]) * float64(v[i])
		normU += float64(u[i]) * float64(u[i])
		normV += float64(v[i]) * float64(v[i])
	}

	if normU == 0 || normV == 0 {
		return 1.0
	}

	sim := dot / (math.Sqrt(normU) * math.Sqrt(normV))
	// Clamp for float error so the result stays within [0, 2].
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return float32(1 - sim)
}
