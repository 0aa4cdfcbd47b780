package distance

import (
	"fmt"
	"math"
	"slices"
)

// NormEpsilon is added to both vector norms when computing Cosine so that
// zero vectors produce a similarity of ~0 instead of dividing by zero.
const NormEpsilon = 1e-9

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	var dist float32
	for i := range a {
		d := a[i] - b[i]
		dist += d * d
	}
	return dist
}

// Cosine calculates the cosine similarity of two vectors.
// Assumes vectors are the same length (caller's responsibility).
//
// Both norms are padded with NormEpsilon, so a zero vector yields a
// similarity near zero rather than NaN.
func Cosine(a, b []float32) float32 {
	dot := float64(Dot(a, b))
	na := math.Sqrt(float64(Dot(a, a))) + NormEpsilon
	nb := math.Sqrt(float64(Dot(b, b))) + NormEpsilon
	return float32(dot / (na * nb))
}

// Norm returns the L2 norm (magnitude) of v.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// ScaleInPlace multiplies every element of a by scalar.
func ScaleInPlace(a []float32, scalar float32) {
	for i := range a {
		a[i] *= scalar
	}
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	ScaleInPlace(v, inv)
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricDot Metric = iota
	MetricCosine
	MetricL2
)

func (m Metric) String() string {
	switch m {
	case MetricDot:
		return "Dot"
	case MetricCosine:
		return "Cosine"
	case MetricL2:
		return "L2"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance/similarity calculation.
type Func func(a, b []float32) float32

// Provider returns the calculation function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricDot:
		return Dot, nil
	case MetricCosine:
		return Cosine, nil
	case MetricL2:
		return SquaredL2, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
