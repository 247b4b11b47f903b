// Package reconstruct evaluates quadrature approximations of functionals of
// the entropy ansatz f(v) = exp(alpha . m(v)).
//
// All functions take a batch of multipliers with one sample per row, the basis
// matrix with one basis function per row and one quadrature node per column,
// and the quadrature weights. The exponential is not guarded: callers holding
// untrusted multipliers clip them first (see package loss).
package reconstruct

import (
	"math"

	"github.com/hammal/closure"
	"github.com/hammal/closure/basis"
	"github.com/hammal/closure/gonumExtensions"
	"github.com/hammal/closure/quadrature"
	"gonum.org/v1/gonum/mat"
)

// Reconstruction is a reconstruction engine bound to one basis and rule.
type Reconstruction interface {
	// Moments returns u = <m exp(alpha . m)> for every row of alpha
	Moments(alpha mat.Matrix) (*mat.Dense, error)
	// Entropy returns h = <exp(alpha . m) (alpha . m - 1)>
	Entropy(alpha mat.Matrix) (*mat.VecDense, error)
	// DensityL1 returns <|exp(alpha . m)|>
	DensityL1(alpha mat.Matrix) (*mat.VecDense, error)
	// Basis returns the tabulated basis
	Basis() *mat.Dense
	// Weights returns the quadrature weights
	Weights() []float64
}

// QuadratureReconstruction holds a basis tabulated at the nodes of a rule.
type QuadratureReconstruction struct {
	basis   *mat.Dense
	weights []float64
}

// NewQuadratureReconstruction tabulates the monomial basis of maxDegree at
// the nodes of rule.
func NewQuadratureReconstruction(rule quadrature.Rule, maxDegree int) (*QuadratureReconstruction, error) {
	m, err := basis.Monomial1D(rule.Nodes, maxDegree)
	if err != nil {
		return nil, err
	}
	w := make([]float64, len(rule.Weights))
	copy(w, rule.Weights)
	return &QuadratureReconstruction{basis: m, weights: w}, nil
}

// FromSetup builds the rule and basis described by s.
func FromSetup(s closure.Setup) (*QuadratureReconstruction, error) {
	rule, err := quadrature.FromSetup(s)
	if err != nil {
		return nil, err
	}
	return NewQuadratureReconstruction(rule, s.MaxDegree)
}

func (rec *QuadratureReconstruction) Moments(alpha mat.Matrix) (*mat.Dense, error) {
	return Moments(alpha, rec.basis, rec.weights)
}

func (rec *QuadratureReconstruction) Entropy(alpha mat.Matrix) (*mat.VecDense, error) {
	return Entropy(alpha, rec.basis, rec.weights)
}

func (rec *QuadratureReconstruction) DensityL1(alpha mat.Matrix) (*mat.VecDense, error) {
	return DensityL1(alpha, rec.basis, rec.weights)
}

func (rec *QuadratureReconstruction) Basis() *mat.Dense {
	return rec.basis
}

func (rec *QuadratureReconstruction) Weights() []float64 {
	return rec.weights
}

// Moments reconstructs u_j = sum_k w_k m_jk exp(sum_i alpha_i m_ik) for every
// sample. The result has one row per sample and one column per basis function.
func Moments(alpha, m mat.Matrix, w []float64) (*mat.Dense, error) {
	ns, err := CheckDims(alpha, m, w)
	if err != nil {
		return nil, err
	}
	if ns == 0 {
		return &mat.Dense{}, nil
	}
	density := Density(alpha, m)
	// u = exp(alpha m) diag(w) m^T
	gonumExtensions.ScaleColumns(density, w)
	var u mat.Dense
	u.Mul(density, m.T())
	return &u, nil
}

// Entropy reconstructs h = sum_k w_k exp(alpha . m_k) (alpha . m_k - 1), the
// Legendre dual of the Maxwell-Boltzmann entropy at the reconstructed density.
func Entropy(alpha, m mat.Matrix, w []float64) (*mat.VecDense, error) {
	ns, err := CheckDims(alpha, m, w)
	if err != nil {
		return nil, err
	}
	if ns == 0 {
		return &mat.VecDense{}, nil
	}
	var exponent mat.Dense
	exponent.Mul(alpha, m)
	h := mat.NewVecDense(ns, nil)
	for s := 0; s < ns; s++ {
		var sum float64
		for k, z := range exponent.RawRowView(s) {
			sum += w[k] * math.Exp(z) * (z - 1)
		}
		h.SetVec(s, sum)
	}
	return h, nil
}

// DensityL1 integrates |exp(alpha . m)| for every sample.
func DensityL1(alpha, m mat.Matrix, w []float64) (*mat.VecDense, error) {
	ns, err := CheckDims(alpha, m, w)
	if err != nil {
		return nil, err
	}
	if ns == 0 {
		return &mat.VecDense{}, nil
	}
	density := Density(alpha, m)
	res := mat.NewVecDense(ns, nil)
	for s := 0; s < ns; s++ {
		var sum float64
		for k, f := range density.RawRowView(s) {
			sum += w[k] * math.Abs(f)
		}
		res.SetVec(s, sum)
	}
	return res, nil
}

// Density evaluates exp(alpha m) at every quadrature node, one row per
// sample. Dimensions are not checked.
func Density(alpha, m mat.Matrix) *mat.Dense {
	var density mat.Dense
	density.Mul(alpha, m)
	gonumExtensions.Exp(&density, &density)
	return &density
}

// CheckDims validates that alpha has one column per basis function and that
// the basis has one column per weight. It returns the number of samples.
func CheckDims(alpha, m mat.Matrix, w []float64) (int, error) {
	ns, n := alpha.Dims()
	nb, nq := m.Dims()
	if ns == 0 {
		return 0, nil
	}
	if nq != len(w) {
		return 0, closure.Configurationf("basis has %d nodes but there are %d weights", nq, len(w))
	}
	if n != nb {
		return 0, closure.Configurationf("multipliers have %d entries but the basis has %d functions", n, nb)
	}
	return ns, nil
}
