package kmeans

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DistanceFunc represents a function for measuring distance between n-dimensional vectors.
type DistanceFunc func([]float64, []float64) float64

// PearsonDistance returns 1 minus the Pearson correlation of a and b.
// Perfectly correlated vectors are at distance 0, perfectly anti-correlated ones at 2.
// The result is NaN or ±Inf when either vector has zero variance; use Dissimilarity
// when the value takes part in a comparison.
func PearsonDistance(a, b []float64) float64 {
	n := float64(len(a))
	sumA := floats.Sum(a)
	sumB := floats.Sum(b)
	sqA := floats.Dot(a, a)
	sqB := floats.Dot(b, b)
	prod := floats.Dot(a, b)

	num := prod - sumA*sumB/n
	den := math.Sqrt((sqA - sumA*sumA/n) * (sqB - sumB*sumB/n))
	return 1 - num/den
}

// Dissimilarity is PearsonDistance with non-finite results mapped to +Inf,
// so a zero-variance vector never beats a finite candidate.
func Dissimilarity(a, b []float64) float64 {
	d := PearsonDistance(a, b)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return math.Inf(1)
	}
	return d
}
