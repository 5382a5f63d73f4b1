package index

import (
	"math"
)

// NormalizeL2 scales a vector to unit length in place and returns it.
// Zero vectors are returned unchanged since they cannot be normalized.
func NormalizeL2(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// dot returns the inner product of two equal-length vectors. On unit vectors
// this is the cosine similarity.
func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
