// Package loss implements the Kullback-Leibler divergence between the
// entropy ansatz densities of two multiplier batches, the training objective
// of learned closures.
//
// Multipliers enter in reduced form: alpha_1, ..., alpha_N without the
// normalization multiplier alpha_0, which is recovered from the others so
// that the density integrates to one.
package loss

import (
	"math"

	"github.com/hammal/closure"
	"github.com/hammal/closure/gonumExtensions"
	"github.com/hammal/closure/reconstruct"
	"gonum.org/v1/gonum/mat"
)

// DefaultClipBound limits the reduced multipliers before they enter the
// exponential of the normalization. exp(50) is far below the float64
// overflow threshold for any basis bounded by one.
const DefaultClipBound = 50.

// KLDivergence evaluates the pointwise divergence
//
//	D(a, b) = <exp(a . m) (a - b) . m>
//
// between the completed true multipliers a and predicted multipliers b.
type KLDivergence struct {
	basis   *mat.Dense
	weights []float64
	clip    float64
}

// Option configures a KLDivergence.
type Option func(*KLDivergence)

// WithClipBound sets the symmetric clip bound of the reduced multipliers.
func WithClipBound(bound float64) Option {
	return func(kl *KLDivergence) {
		kl.clip = bound
	}
}

// NewKLDivergence returns the divergence for the basis (N+1 by nq) and the
// quadrature weights. Row 0 of the basis is the normalization row.
func NewKLDivergence(m *mat.Dense, w []float64, opts ...Option) (*KLDivergence, error) {
	nb, nq := m.Dims()
	if nq != len(w) {
		return nil, closure.Configurationf("basis has %d nodes but there are %d weights", nq, len(w))
	}
	if nb < 2 {
		return nil, closure.Configurationf("divergence needs at least one multiplier besides the normalization, basis has %d rows", nb)
	}
	kl := &KLDivergence{basis: m, weights: w, clip: DefaultClipBound}
	for _, opt := range opts {
		opt(kl)
	}
	if !(kl.clip > 0) || math.IsInf(kl.clip, 0) {
		return nil, closure.Configurationf("clip bound must be positive and finite, got %v", kl.clip)
	}
	return kl, nil
}

// ClipBound returns the clip bound in use.
func (kl *KLDivergence) ClipBound() float64 {
	return kl.clip
}

// ReducedSize returns the number of reduced multipliers N.
func (kl *KLDivergence) ReducedSize() int {
	nb, _ := kl.basis.Dims()
	return nb - 1
}

// CompleteMultipliers prepends alpha_0 = -log <exp(alpha . m_{1:})> to every
// row of the reduced batch alpha.
//
// A NaN or Inf entry fails with a NumericalInstabilityError. The entries are
// clipped to the clip bound, and both alpha_0 and the returned higher
// multipliers are those of the clipped batch, so every completed row
// describes a density of unit mass.
func (kl *KLDivergence) CompleteMultipliers(alpha mat.Matrix) (*mat.Dense, error) {
	ns, _, err := kl.checkReduced(alpha)
	if err != nil {
		return nil, err
	}
	if ns == 0 {
		return &mat.Dense{}, nil
	}
	alpha0, clipped, _, err := kl.normalization(alpha)
	if err != nil {
		return nil, err
	}
	n := kl.ReducedSize()
	full := mat.NewDense(ns, n+1, nil)
	full.SetCol(0, alpha0)
	full.Slice(0, ns, 1, n+1).(*mat.Dense).Copy(clipped)
	return full, nil
}

// Loss returns the divergence of every sample, one value per row of the
// reduced batches. No aggregation over the batch takes place.
func (kl *KLDivergence) Loss(alphaTrue, alphaPred mat.Matrix) (*mat.VecDense, error) {
	ns, err := kl.checkPair(alphaTrue, alphaPred)
	if err != nil {
		return nil, err
	}
	if ns == 0 {
		return &mat.VecDense{}, nil
	}
	trueFull, err := kl.CompleteMultipliers(alphaTrue)
	if err != nil {
		return nil, err
	}
	predFull, err := kl.CompleteMultipliers(alphaPred)
	if err != nil {
		return nil, err
	}

	var diff, t2 mat.Dense
	diff.Sub(trueFull, predFull)
	// t1 = exp(a m), t2 = (a - b) m
	t1 := reconstruct.Density(trueFull, kl.basis)
	t2.Mul(&diff, kl.basis)
	t1.MulElem(t1, &t2)

	res := mat.NewVecDense(ns, nil)
	res.MulVec(t1, mat.NewVecDense(len(kl.weights), kl.weights))
	return res, nil
}

// Deriv returns the gradient of every sample's divergence with respect to the
// reduced predicted multipliers, one row per sample.
//
// With u the moments of the true density and v the moments of the normalized
// predicted density, the derivative with respect to b_i is u_0 v_i - u_i. The
// clip acts as the identity on the gradient.
func (kl *KLDivergence) Deriv(alphaTrue, alphaPred mat.Matrix) (*mat.Dense, error) {
	ns, err := kl.checkPair(alphaTrue, alphaPred)
	if err != nil {
		return nil, err
	}
	if ns == 0 {
		return &mat.Dense{}, nil
	}
	trueFull, err := kl.CompleteMultipliers(alphaTrue)
	if err != nil {
		return nil, err
	}
	u, err := reconstruct.Moments(trueFull, kl.basis, kl.weights)
	if err != nil {
		return nil, err
	}
	_, _, v, err := kl.normalization(alphaPred)
	if err != nil {
		return nil, err
	}

	n := kl.ReducedSize()
	grad := mat.NewDense(ns, n, nil)
	for s := 0; s < ns; s++ {
		for i := 0; i < n; i++ {
			grad.Set(s, i, u.At(s, 0)*v.At(s, i)-u.At(s, i+1))
		}
	}
	return grad, nil
}

// normalization clips the reduced batch and returns alpha_0 for every row,
// the clipped multipliers and the normalized moments
// <m_{1:} exp(alpha . m_{1:})> / <exp(alpha . m_{1:})> of the clipped batch.
func (kl *KLDivergence) normalization(alpha mat.Matrix) ([]float64, *mat.Dense, *mat.Dense, error) {
	if row, col, found := gonumExtensions.FirstNonFinite(alpha); found {
		return nil, nil, nil, closure.Instability(row, col, alpha.At(row, col))
	}
	ns, n := alpha.Dims()
	_, nq := kl.basis.Dims()

	var clipped mat.Dense
	gonumExtensions.Clamp(&clipped, alpha, -kl.clip, kl.clip)

	higher := kl.basis.Slice(1, n+1, 0, nq)
	density := reconstruct.Density(&clipped, higher)
	gonumExtensions.ScaleColumns(density, kl.weights)

	var partial mat.Dense
	partial.Mul(density, higher.T())

	alpha0 := make([]float64, ns)
	normalized := mat.NewDense(ns, n, nil)
	for s := 0; s < ns; s++ {
		var z float64
		for _, f := range density.RawRowView(s) {
			z += f
		}
		alpha0[s] = -math.Log(z)
		for i := 0; i < n; i++ {
			normalized.Set(s, i, partial.At(s, i)/z)
		}
	}
	return alpha0, &clipped, normalized, nil
}

func (kl *KLDivergence) checkReduced(alpha mat.Matrix) (int, int, error) {
	ns, n := alpha.Dims()
	if ns == 0 {
		return 0, 0, nil
	}
	if n != kl.ReducedSize() {
		return 0, 0, closure.Configurationf("expected %d reduced multipliers per sample, got %d", kl.ReducedSize(), n)
	}
	return ns, n, nil
}

func (kl *KLDivergence) checkPair(alphaTrue, alphaPred mat.Matrix) (int, error) {
	nsTrue, _, err := kl.checkReduced(alphaTrue)
	if err != nil {
		return 0, err
	}
	nsPred, _, err := kl.checkReduced(alphaPred)
	if err != nil {
		return 0, err
	}
	if nsTrue != nsPred {
		return 0, closure.Configurationf("true batch has %d samples, predicted batch has %d", nsTrue, nsPred)
	}
	return nsTrue, nil
}
