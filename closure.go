// Package closure holds the shared contracts of the moment closure toolkit.
//
// A closure maps moment vectors u of a kinetic density to the Lagrange
// multipliers alpha of the entropy minimization problem
//
//	min <f log f - f>  subject to  <m f> = u
//
// whose solution is the density f = exp(alpha . m). The sub packages provide the
// quadrature, basis tabulation, reconstruction, divergence loss and error
// metrics needed to train and validate such closures.
package closure

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Model is the interface of a closure, learned or exact.
type Model interface {
	// Predict returns the multipliers, one row per moment row.
	Predict(u mat.Matrix) (*mat.Dense, error)
	// CallScaled evaluates the closure and returns the reconstructed moments,
	// the multipliers and the entropy, in that order.
	CallScaled(u mat.Matrix) (*mat.Dense, *mat.Dense, *mat.VecDense, error)
}

// Setup contains the discretization parameters shared by all components
type Setup struct {
	// Maximal degree of the moment basis, the N of M_N
	MaxDegree int
	// Number of quadrature points
	QuadraturePoints int
	// Lower end of the velocity domain
	DomainMin float64
	// Upper end of the velocity domain
	DomainMax float64
}

// DefaultSetup is the M_1 closure on [-1, 1] with 100 Gauss points.
func DefaultSetup() Setup {
	return Setup{MaxDegree: 1, QuadraturePoints: 100, DomainMin: -1, DomainMax: 1}
}

// BasisSize returns the number of basis functions.
func (s Setup) BasisSize() int {
	return s.MaxDegree + 1
}

// Validate checks the setup for obviously broken values.
func (s Setup) Validate() error {
	if s.MaxDegree < 0 {
		return Configurationf("negative basis degree %d", s.MaxDegree)
	}
	if s.QuadraturePoints < 1 {
		return Configurationf("need at least one quadrature point, got %d", s.QuadraturePoints)
	}
	if !(s.DomainMin < s.DomainMax) || math.IsInf(s.DomainMin, 0) || math.IsInf(s.DomainMax, 0) {
		return Configurationf("invalid domain [%v, %v]", s.DomainMin, s.DomainMax)
	}
	return nil
}
