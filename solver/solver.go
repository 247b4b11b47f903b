// Package solver computes exact closures by solving the dual entropy
// minimization problem
//
//	alpha(u) = argmin_a <exp(a . m)> - a . u
//
// with a Newton method. Its results are the reference multipliers against
// which learned closures are validated, and the source of generated data.
package solver

import (
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/hammal/closure"
	"github.com/hammal/closure/gonumExtensions"
	"github.com/hammal/closure/reconstruct"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Settings controls the Newton iteration.
type Settings struct {
	// Largest accepted infinity norm of the moment residual, relative to
	// max(1, |u|_inf)
	Tolerance float64
	// Maximal number of Newton iterations per sample
	MaxIterations int
	// Number of goroutines used by SolveBatch, 0 means GOMAXPROCS
	Workers int
}

// DefaultSettings are sufficient for moderately anisotropic densities.
func DefaultSettings() Settings {
	return Settings{Tolerance: 1e-8, MaxIterations: 200}
}

// Solver solves the dual problem for a fixed basis and quadrature.
type Solver struct {
	basis    *mat.Dense
	weights  []float64
	settings Settings
}

// NewSolver returns a solver for the basis (N+1 by nq) and weights.
func NewSolver(m *mat.Dense, w []float64, settings Settings) (*Solver, error) {
	_, nq := m.Dims()
	if nq != len(w) {
		return nil, closure.Configurationf("basis has %d nodes but there are %d weights", nq, len(w))
	}
	if !(settings.Tolerance > 0) || settings.MaxIterations < 1 || settings.Workers < 0 {
		return nil, closure.Configurationf("invalid solver settings %+v", settings)
	}
	return &Solver{basis: m, weights: w, settings: settings}, nil
}

// Solve returns the full multiplier vector whose density has the moments u.
func (sol *Solver) Solve(u []float64) ([]float64, error) {
	nb, nq := sol.basis.Dims()
	if len(u) != nb {
		return nil, closure.Configurationf("expected %d moments, got %d", nb, len(u))
	}
	if gonumExtensions.NANORINF(mat.NewVecDense(nb, u)) {
		return nil, errors.Errorf("moments %v are not finite", u)
	}
	if u[0] <= 0 {
		return nil, errors.Errorf("moments %v are not realizable, u_0 must be positive", u)
	}

	// Scratch space, Func, Grad and Hess are called sequentially
	column := make([]float64, nb)
	density := make([]float64, nq)
	evaluate := func(x []float64) {
		for k := 0; k < nq; k++ {
			mat.Col(column, k, sol.basis)
			density[k] = sol.weights[k] * math.Exp(floats.Dot(x, column))
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			evaluate(x)
			return floats.Sum(density) - floats.Dot(x, u)
		},
		Grad: func(grad, x []float64) {
			evaluate(x)
			for i := range grad {
				grad[i] = floats.Dot(sol.basis.RawRowView(i), density) - u[i]
			}
		},
		Hess: func(hess *mat.SymDense, x []float64) {
			evaluate(x)
			for i := 0; i < nb; i++ {
				for j := i; j < nb; j++ {
					var sum float64
					for k := 0; k < nq; k++ {
						sum += sol.basis.At(i, k) * sol.basis.At(j, k) * density[k]
					}
					hess.SetSym(i, j, sum)
				}
			}
		},
	}

	// Start from the isotropic density with the right mass
	init := make([]float64, nb)
	init[0] = math.Log(u[0] / floats.Sum(sol.weights))

	settings := &optimize.Settings{
		GradientThreshold: sol.settings.Tolerance * 1e-2 * math.Max(1, floats.Norm(u, math.Inf(1))),
		MajorIterations:   sol.settings.MaxIterations,
	}
	result, err := optimize.Minimize(problem, init, settings, &optimize.Newton{})
	if err != nil && result == nil {
		return nil, errors.Wrapf(err, "dual problem for moments %v", u)
	}

	// Accept the result only if it reproduces the moments
	residual := sol.Residual(result.X, u)
	if residual > sol.settings.Tolerance*math.Max(1, floats.Norm(u, math.Inf(1))) {
		return nil, errors.Errorf("dual problem for moments %v did not converge: residual %v after %d iterations (%v)",
			u, residual, result.MajorIterations, result.Status)
	}
	return result.X, nil
}

// Residual returns the infinity norm of the difference between the moments of
// alpha and u.
func (sol *Solver) Residual(alpha, u []float64) float64 {
	rec, err := reconstruct.Moments(mat.NewDense(1, len(alpha), alpha), sol.basis, sol.weights)
	if err != nil {
		return math.Inf(1)
	}
	var res float64
	for i, v := range rec.RawRowView(0) {
		res = math.Max(res, math.Abs(v-u[i]))
	}
	if math.IsNaN(res) {
		return math.Inf(1)
	}
	return res
}

// SolveBatch solves every row of u concurrently. The first failure is
// returned together with its row.
func (sol *Solver) SolveBatch(u mat.Matrix) (*mat.Dense, error) {
	ns, nb := u.Dims()
	if ns == 0 {
		return &mat.Dense{}, nil
	}
	if basisSize, _ := sol.basis.Dims(); nb != basisSize {
		return nil, closure.Configurationf("expected %d moments per sample, got %d", basisSize, nb)
	}

	workers := sol.settings.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > ns {
		workers = ns
	}

	res := mat.NewDense(ns, nb, nil)
	errs := make([]error, ns)

	var wg sync.WaitGroup
	wg.Add(workers)
	for worker := 0; worker < workers; worker++ {
		// Each worker owns the rows worker, worker+workers, ...
		go func(first int) {
			defer wg.Done()
			row := make([]float64, nb)
			for s := first; s < ns; s += workers {
				mat.Row(row, s, u)
				alpha, err := sol.Solve(row)
				if err != nil {
					slog.Debug("dual solve failed", "sample", s, "error", err)
					errs[s] = err
					continue
				}
				res.SetRow(s, alpha)
			}
		}(worker)
	}
	wg.Wait()

	for s, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", s)
		}
	}
	return res, nil
}
