package vector

import "math"

// CosineSimilarity returns the dot product of a and b divided by the product
// of their magnitudes. It returns 0 when the dimensions differ, a vector is
// empty, or either magnitude is zero, so a corrupt record scores as irrelevant.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2))
}
