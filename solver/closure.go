package solver

import (
	"github.com/hammal/closure"
	"github.com/hammal/closure/reconstruct"
	"gonum.org/v1/gonum/mat"
)

var _ closure.Model = (*Closure)(nil)

// Closure is the exact closure: it answers Predict with the solution of the
// dual problem and serves as the reference model in error analysis.
type Closure struct {
	solver *Solver
	rec    reconstruct.Reconstruction
}

// NewClosure returns the exact closure for the reconstruction's basis and
// quadrature.
func NewClosure(rec reconstruct.Reconstruction, settings Settings) (*Closure, error) {
	sol, err := NewSolver(rec.Basis(), rec.Weights(), settings)
	if err != nil {
		return nil, err
	}
	return &Closure{solver: sol, rec: rec}, nil
}

// Solver returns the underlying dual solver.
func (c *Closure) Solver() *Solver {
	return c.solver
}

// Predict returns the full multipliers of every moment row.
func (c *Closure) Predict(u mat.Matrix) (*mat.Dense, error) {
	return c.solver.SolveBatch(u)
}

// CallScaled returns the moments reconstructed from the predicted multipliers,
// the multipliers and the entropy.
func (c *Closure) CallScaled(u mat.Matrix) (*mat.Dense, *mat.Dense, *mat.VecDense, error) {
	alpha, err := c.Predict(u)
	if err != nil {
		return nil, nil, nil, err
	}
	uRec, err := c.rec.Moments(alpha)
	if err != nil {
		return nil, nil, nil, err
	}
	h, err := c.rec.Entropy(alpha)
	if err != nil {
		return nil, nil, nil, err
	}
	return uRec, alpha, h, nil
}
