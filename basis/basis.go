// Package basis tabulates moment bases at quadrature nodes.
package basis

import (
	"github.com/hammal/closure"
	"gonum.org/v1/gonum/mat"
)

// Size returns the number of monomials up to maxDegree in one dimension.
func Size(maxDegree int) int {
	return maxDegree + 1
}

// Monomial1D returns the (maxDegree+1 by len(nodes)) matrix whose row i holds
// node^i at every node. Row 0 is the constant function.
func Monomial1D(nodes []float64, maxDegree int) (*mat.Dense, error) {
	if maxDegree < 0 {
		return nil, closure.Configurationf("negative basis degree %d", maxDegree)
	}
	if len(nodes) == 0 {
		return nil, closure.Configurationf("basis needs at least one node")
	}
	nq := len(nodes)
	m := mat.NewDense(Size(maxDegree), nq, nil)
	// Build the powers recursively, row i = row (i-1) * node
	for k, x := range nodes {
		v := 1.
		for i := 0; i <= maxDegree; i++ {
			m.Set(i, k, v)
			v *= x
		}
	}
	return m, nil
}

// Evaluate returns the monomials 1, x, ..., x^maxDegree at a single point.
func Evaluate(x float64, maxDegree int) []float64 {
	res := make([]float64, Size(maxDegree))
	v := 1.
	for i := range res {
		res[i] = v
		v *= x
	}
	return res
}
