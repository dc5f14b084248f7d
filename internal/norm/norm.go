// Package norm reduces state vectors to scalar error measures.
package norm

import (
	"math"

	"github.com/kmoren/stepwise/internal/ode"
)

// Func reduces a state vector to a single non-negative scalar.
type Func func(ode.State) float64

// RMS is the root-mean-square norm. The empty vector and the all-zero
// vector map to exactly 0; the square root is never taken of a zero
// mean, so the result is always finite.
func RMS(x ode.State) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	mean := sum / float64(len(x))
	if mean == 0 {
		return 0
	}
	return math.Sqrt(mean)
}

// Max is the infinity norm.
func Max(x ode.State) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
