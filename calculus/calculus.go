// Package calculus integrates and differentiates functions known only at
// sample points, such as an entropy sampled along a sweep of moments.
package calculus

import (
	"github.com/hammal/closure"
)

// CumulativeIntegral returns F with F[0] = 0 and
// F[i+1] = F[i] + (x[i+1] - x[i]) y[i+1], a right rectangle rule.
func CumulativeIntegral(x, y []float64) ([]float64, error) {
	if err := checkSamples(x, y, 1); err != nil {
		return nil, err
	}
	integral := make([]float64, len(x))
	for i := 0; i < len(x)-1; i++ {
		integral[i+1] = integral[i] + (x[i+1]-x[i])*y[i+1]
	}
	return integral, nil
}

// FiniteDiff returns dy/dx at every sample: a forward difference at the first
// point and backward differences elsewhere.
func FiniteDiff(x, y []float64) ([]float64, error) {
	if err := checkSamples(x, y, 2); err != nil {
		return nil, err
	}
	grad := make([]float64, len(x))
	grad[0] = (y[1] - y[0]) / (x[1] - x[0])
	for i := 1; i < len(x); i++ {
		grad[i] = (y[i] - y[i-1]) / (x[i] - x[i-1])
	}
	return grad, nil
}

func checkSamples(x, y []float64, min int) error {
	if len(x) != len(y) {
		return closure.Configurationf("%d arguments but %d function values", len(x), len(y))
	}
	if len(x) < min {
		return closure.Configurationf("need at least %d samples, got %d", min, len(x))
	}
	return nil
}
