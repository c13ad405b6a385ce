package neat

import "math"

// Activation bounds. Sigmoid never returns exactly 0 or 1.
var (
	minActivation = math.SmallestNonzeroFloat64
	maxActivation = math.Nextafter(1, 0)
)

// Sigmoid is the logistic activation 1 / (1 + exp(-k * x)), with k the
// steepness. It is the only activation function genomes use.
//
// The result always lies in the open interval (0, 1): saturated values are
// pulled back inside it, and a NaN sum (Inf - Inf from overflowing inputs)
// is treated as 0.
func Sigmoid(x, k float64) float64 {
	if math.IsNaN(x) {
		x = 0
	}
	return clamp(1.0/(1.0+math.Exp(-k*x)), minActivation, maxActivation)
}
