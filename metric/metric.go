// Package metric computes relative differences between reference and
// reconstructed quantities, one value per sample.
//
// Two normalizations exist. The max mode divides by the larger magnitude of
// the two inputs and is symmetric. The reference mode divides by the first
// input only; a zero reference yields Inf or NaN following IEEE-754, no error
// is raised.
package metric

import (
	"math"

	"github.com/hammal/closure"
	"github.com/hammal/closure/gonumExtensions"
	"gonum.org/v1/gonum/mat"
)

// DenominatorFloor is the smallest denominator of RelativeDifferenceScalar in
// max mode.
const DenominatorFloor = 1e-3

// RelativeDifferenceScalar returns |x1 - x2| / max(|x1|, |x2|, DenominatorFloor)
// elementwise if useMax, else |x1 - x2| / |x1|.
func RelativeDifferenceScalar(x1, x2 []float64, useMax bool) ([]float64, error) {
	if len(x1) != len(x2) {
		return nil, closure.Configurationf("inputs have %d and %d samples", len(x1), len(x2))
	}
	res := make([]float64, len(x1))
	for s := range x1 {
		diff := math.Abs(x1[s] - x2[s])
		if useMax {
			res[s] = diff / math.Max(math.Max(math.Abs(x1[s]), math.Abs(x2[s])), DenominatorFloor)
		} else {
			res[s] = diff / math.Abs(x1[s])
		}
	}
	return res, nil
}

// RelativeDifference returns the L1 distance of every row of x1 and x2
// relative to a normalization.
//
// If useMax the normalization of a row is the larger L1 norm of the two rows.
// Otherwise it is the L1 norm of the columns of x1, taken across the samples:
// with a single column every row is divided by the same total, with one
// column per sample row s is divided by the norm of column s. Other shapes
// cannot be paired with the rows and fail with a ConfigurationError.
func RelativeDifference(x1, x2 mat.Matrix, useMax bool) ([]float64, error) {
	ns, n := x1.Dims()
	ns2, n2 := x2.Dims()
	if ns != ns2 || n != n2 {
		return nil, closure.Configurationf("inputs have shapes (%d, %d) and (%d, %d)", ns, n, ns2, n2)
	}
	if ns == 0 {
		return []float64{}, nil
	}

	var diff mat.Dense
	diff.Sub(x1, x2)
	res := gonumExtensions.RowNorms1(&diff)

	if useMax {
		norm1 := gonumExtensions.RowNorms1(x1)
		norm2 := gonumExtensions.RowNorms1(x2)
		for s := range res {
			res[s] /= math.Max(norm1[s], norm2[s])
		}
		return res, nil
	}

	colNorms := gonumExtensions.ColNorms1(x1)
	switch {
	case n == 1:
		for s := range res {
			res[s] /= colNorms[0]
		}
	case n == ns:
		for s := range res {
			res[s] /= colNorms[s]
		}
	default:
		return nil, closure.Configurationf("column norms of length %d cannot normalize %d samples", n, ns)
	}
	return res, nil
}
