package core

import (
	"fmt"
	"math"
)

// Normalize pads or truncates values to exactly targetDim elements.
//
// A shorter sequence is padded by repeating the last element, not by zero
// padding. A longer sequence is truncated to the first targetDim elements;
// callers must not assume reversibility. An empty sequence cannot be
// normalized and returns ErrEmptyVector.
func Normalize(values []float32, targetDim int) ([]float32, error) {
	if targetDim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, targetDim)
	}
	if len(values) == 0 {
		return nil, ErrEmptyVector
	}

	result := make([]float32, targetDim)
	n := copy(result, values)
	last := values[len(values)-1]
	for i := n; i < targetDim; i++ {
		result[i] = last
	}
	return result, nil
}

// NormalizeUnit scales a vector to unit length so that inner product equals
// cosine similarity. Returns a new vector. A zero vector cannot be scaled and
// comes back as a zero vector.
func NormalizeUnit(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// DotProduct calculates the dot product of two vectors. For unit-normalized
// vectors this equals cosine similarity.
func DotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Float32s converts a float64 sequence to float32, for handing raw readings
// to the vector pipelines.
func Float32s(values []float64) []float32 {
	result := make([]float32, len(values))
	for i, v := range values {
		result[i] = float32(v)
	}
	return result
}
