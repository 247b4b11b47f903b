// Package quadrature provides Gauss-Legendre rules for integration over a
// finite interval.
//
// A rule with n points integrates polynomials up to degree 2n-1 exactly. The
// nodes and weights are computed by gonum's iteration free algorithm, so rules
// with thousands of points are cheap to build.
package quadrature

import (
	"math"

	"github.com/hammal/closure"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// Rule holds quadrature nodes and weights on [Min, Max].
//
// Nodes are sorted ascending and Weights[k] belongs to Nodes[k]. A Rule should
// be treated as immutable once created.
type Rule struct {
	Nodes   []float64
	Weights []float64
	Min     float64
	Max     float64
}

// GaussLegendre returns the n point rule on the reference interval [-1, 1].
func GaussLegendre(n int) (Rule, error) {
	return GaussLegendreOn(n, -1, 1)
}

// GaussLegendreOn returns the n point rule on [min, max].
func GaussLegendreOn(n int, min, max float64) (Rule, error) {
	if n < 1 {
		return Rule{}, closure.Configurationf("quadrature needs at least one point, got %d", n)
	}
	if !(min < max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return Rule{}, closure.Configurationf("quadrature domain [%v, %v] is not a finite interval", min, max)
	}

	x := make([]float64, n)
	w := make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, min, max)

	// quad returns the nodes in descending order
	inds := make([]int, n)
	floats.Argsort(x, inds)
	weights := make([]float64, n)
	for k, index := range inds {
		weights[k] = w[index]
	}

	return Rule{Nodes: x, Weights: weights, Min: min, Max: max}, nil
}

// FromSetup builds the rule described by the setup.
func FromSetup(s closure.Setup) (Rule, error) {
	if err := s.Validate(); err != nil {
		return Rule{}, err
	}
	return GaussLegendreOn(s.QuadraturePoints, s.DomainMin, s.DomainMax)
}

// Len returns the number of points.
func (r Rule) Len() int {
	return len(r.Nodes)
}

// Measure returns the length of the integration domain.
func (r Rule) Measure() float64 {
	return r.Max - r.Min
}

// Integrate approximates the integral of f over [Min, Max].
func (r Rule) Integrate(f func(float64) float64) float64 {
	var sum float64
	for k, x := range r.Nodes {
		sum += r.Weights[k] * f(x)
	}
	return sum
}
