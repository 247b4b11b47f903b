package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/hammal/closure"
	"github.com/hammal/closure/calculus"
	"github.com/hammal/closure/config"
	"github.com/hammal/closure/dataset"
	"github.com/hammal/closure/gonumExtensions"
	"github.com/hammal/closure/loss"
	"github.com/hammal/closure/metric"
	"github.com/hammal/closure/plotting"
	"github.com/hammal/closure/quadrature"
	"github.com/hammal/closure/reconstruct"
	"github.com/hammal/closure/solver"
)

const (
	perturbationSteps = 50

	um1Directions = 100
	um1Deltas     = 20
	um1Range      = 0.1
	um1Origins    = 5

	um0Steps = 1000
)

// validation compares the exact closure with the configured dataset.
func validation(opts config.Options) error {
	if opts.MaxDegree < 1 {
		return closure.Configurationf("validation is plotted over u_1 and needs degree >= 1, got %d", opts.MaxDegree)
	}
	rec, err := reconstruct.FromSetup(opts.Setup)
	if err != nil {
		return err
	}
	data, err := loadOrSample(opts, rec)
	if err != nil {
		return err
	}
	if data.Len() == 0 {
		return closure.Configurationf("no samples in %s", opts.DataFile)
	}
	model, err := solver.NewClosure(rec, opts.SolverSettings())
	if err != nil {
		return err
	}
	var m closure.Model = model
	uPred, alphaPred, hPred, err := m.CallScaled(data.U)
	if err != nil {
		return err
	}

	alphaErr, err := metric.RelativeDifferenceScalar(col(data.Alpha, 1), col(alphaPred, 1), true)
	if err != nil {
		return err
	}
	uErr, err := metric.RelativeDifferenceScalar(col(data.U, 1), col(uPred, 1), true)
	if err != nil {
		return err
	}
	hErr, err := metric.RelativeDifferenceScalar(col(data.H, 0), col(hPred, 0), true)
	if err != nil {
		return err
	}
	vecErr, err := metric.RelativeDifference(data.Alpha, alphaPred, true)
	if err != nil {
		return err
	}
	slog.Info("validation",
		"samples", data.Len(),
		"alpha1_max", floats.Max(alphaErr),
		"u1_max", floats.Max(uErr),
		"h_max", floats.Max(hErr),
		"alpha_mean", floats.Sum(vecErr)/float64(len(vecErr)),
	)

	x, ys := sortBy(col(data.U, 1),
		col(hPred, 0), col(data.H, 0),
		col(alphaPred, 1), col(data.Alpha, 1),
		col(uPred, 1), col(data.U, 1),
		alphaErr, uErr, hErr,
	)
	xs := [][]float64{x}
	lin := plotting.Options{Folder: filepath.Join(opts.Folder, "ValidationTest"), XLabel: "u_1"}
	savePlot(plotting.Plot1D(xs, ys[0:2], []string{"h model", "h test"}, "000_h", lin))
	savePlot(plotting.Plot1D(xs, ys[2:4], []string{"alpha_1 model", "alpha_1 test"}, "000_alpha", lin))
	savePlot(plotting.Plot1D(xs, ys[4:6], []string{"u_1 model", "u_1 test"}, "000_u", lin))

	logScale := lin
	logScale.Log = true
	logScale.YLabel = "relative error"
	savePlot(plotting.Plot1D(xs, ys[6:7], []string{"alpha_1"}, "000_alphaErr", logScale))
	savePlot(plotting.Plot1D(xs, ys[7:8], []string{"u_1"}, "000_uErr", logScale))
	savePlot(plotting.Plot1D(xs, ys[8:9], []string{"h"}, "000_hErr", logScale))
	return nil
}

// um0 checks the degree 0 reconstruction, u = |domain| exp(alpha).
func um0(opts config.Options) error {
	setup := opts.Setup
	setup.MaxDegree = 0
	rule, err := quadrature.FromSetup(setup)
	if err != nil {
		return err
	}
	rec, err := reconstruct.NewQuadratureReconstruction(rule, 0)
	if err != nil {
		return err
	}

	alphas := make([]float64, um0Steps)
	want := make([]float64, um0Steps)
	for i := range alphas {
		alphas[i] = float64(i) / um0Steps
		want[i] = rule.Measure() * math.Exp(alphas[i])
	}
	u, err := rec.Moments(mat.NewDense(um0Steps, 1, alphas))
	if err != nil {
		return err
	}
	got := col(u, 0)
	rel, err := metric.RelativeDifferenceScalar(want, got, true)
	if err != nil {
		return err
	}
	slog.Info("degree 0 reconstruction", "max_rel_err", floats.Max(rel))

	savePlot(plotting.Plot1D([][]float64{alphas}, [][]float64{want, got}, []string{"u", "u rec"}, "u_and_u_rec",
		plotting.Options{Folder: opts.Folder, XLabel: "alpha_0"}))
	return nil
}

// perturbation disturbs alpha_1 of the middle sample by relative steps
// 2^-20, 2^-19, ... and records the induced errors in u and in f.
func perturbation(opts config.Options) error {
	if opts.MaxDegree < 1 {
		return closure.Configurationf("perturbation disturbs alpha_1 and needs degree >= 1, got %d", opts.MaxDegree)
	}
	rec, err := reconstruct.FromSetup(opts.Setup)
	if err != nil {
		return err
	}
	data, err := loadOrSample(opts, rec)
	if err != nil {
		return err
	}
	if data.Len() == 0 {
		return closure.Configurationf("no samples in %s", opts.DataFile)
	}
	pick := data.Len() / 2
	n := opts.BasisSize()

	alphas := mat.NewDense(perturbationSteps, n, nil)
	us := mat.NewDense(perturbationSteps, n, nil)
	for i := 0; i < perturbationSteps; i++ {
		alphas.SetRow(i, data.Alpha.RawRowView(pick))
		us.SetRow(i, data.U.RawRowView(pick))
	}
	disturbed := mat.DenseCopyOf(alphas)
	delta := math.Pow(0.5, 20)
	for i := 0; i < perturbationSteps; i++ {
		disturbed.Set(i, 1, disturbed.At(i, 1)*(1+delta))
		delta *= 2
	}

	uRec, err := rec.Moments(disturbed)
	if err != nil {
		return err
	}
	errAlpha, err := metric.RelativeDifference(disturbed, alphas, true)
	if err != nil {
		return err
	}
	errU, err := metric.RelativeDifference(uRec, us, true)
	if err != nil {
		return err
	}
	errF, err := densityError(rec, alphas, disturbed)
	if err != nil {
		return err
	}
	slog.Info("perturbation", "sample", pick, "alpha", data.Alpha.RawRowView(pick))

	steps := make([]float64, perturbationSteps)
	floats.Span(steps, 0, perturbationSteps-1)
	logScale := plotting.Options{Folder: opts.Folder, Log: true, XLabel: "step"}
	savePlot(plotting.Plot1D([][]float64{steps}, [][]float64{errAlpha, errU}, []string{"errAlpha", "errU"}, "Disturbed_alpha", logScale))
	savePlot(plotting.Plot1D([][]float64{steps}, [][]float64{errAlpha, errF}, []string{"errAlpha", "err f"}, "err_in_f", logScale))
	return nil
}

// densityError returns ||f(disturbed) - f(alpha)||_1 / ||f(alpha)||_1 per row.
func densityError(rec reconstruct.Reconstruction, alpha, disturbed *mat.Dense) ([]float64, error) {
	norm, err := rec.DensityL1(alpha)
	if err != nil {
		return nil, err
	}
	if _, err := reconstruct.CheckDims(disturbed, rec.Basis(), rec.Weights()); err != nil {
		return nil, err
	}
	var diff mat.Dense
	diff.Sub(reconstruct.Density(disturbed, rec.Basis()), reconstruct.Density(alpha, rec.Basis()))

	w := rec.Weights()
	res := make([]float64, norm.Len())
	for s := range res {
		for k, d := range diff.RawRowView(s) {
			res[s] += w[k] * math.Abs(d)
		}
		res[s] /= norm.AtVec(s)
	}
	return res, nil
}

// um1Scatter walks away from a few M_1 multipliers in um1Directions
// directions and maps the relative change of the density mass.
func um1Scatter(opts config.Options) error {
	opts = m1(opts)
	rec, err := reconstruct.FromSetup(opts.Setup)
	if err != nil {
		return err
	}
	data, err := loadOrSample(opts, rec)
	if err != nil {
		return err
	}
	ns := data.Len()
	origins := min(um1Origins, ns)
	folder := filepath.Join(opts.Folder, "ScatterPlots")

	for j := 0; j < origins; j++ {
		origin := data.Alpha.RawRowView(j * ns / origins)
		var x, y, z []float64
		for i := 0; i < um1Directions; i++ {
			theta := float64(i) * 2 * math.Pi / um1Directions
			dir := [2]float64{math.Cos(theta), math.Sin(theta)}

			alphas := mat.NewDense(um1Deltas, 2, nil)
			for d := 0; d < um1Deltas; d++ {
				delta := float64(d) * um1Range / um1Deltas
				alphas.Set(d, 0, origin[0]+delta*dir[0])
				alphas.Set(d, 1, origin[1]+delta*dir[1])
			}
			l1, err := rec.DensityL1(alphas)
			if err != nil {
				return err
			}
			ref := gonumExtensions.Full(um1Deltas, 1, l1.AtVec(0))
			rel, err := metric.RelativeDifference(ref, l1, false)
			if err != nil {
				return err
			}
			x = append(x, col(alphas, 0)...)
			y = append(y, col(alphas, 1)...)
			z = append(z, rel...)
		}
		savePlot(plotting.Scatter2D(x, y, z, fmt.Sprintf("ScatterM1Error_%d", j),
			plotting.Options{Folder: folder, Log: true, XLabel: "alpha_0", YLabel: "alpha_1"}))
	}
	return nil
}

// entropyDerivative sweeps alpha_1 over [-Bound, Bound] with unit mass
// densities and checks dh/du_1 = alpha_1 and h = h_0 + int alpha_1 du_1.
func entropyDerivative(opts config.Options) error {
	opts = m1(opts)
	rec, err := reconstruct.FromSetup(opts.Setup)
	if err != nil {
		return err
	}
	kl, err := loss.NewKLDivergence(rec.Basis(), rec.Weights(), loss.WithClipBound(opts.ClipBound))
	if err != nil {
		return err
	}
	n := max(opts.Samples, 3)
	reduced := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		reduced.Set(i, 0, opts.Bound*(2*float64(i)/float64(n-1)-1))
	}
	alpha, err := kl.CompleteMultipliers(reduced)
	if err != nil {
		return err
	}
	u, err := rec.Moments(alpha)
	if err != nil {
		return err
	}
	h, err := rec.Entropy(alpha)
	if err != nil {
		return err
	}

	u1, hs, a1 := col(u, 1), col(h, 0), col(alpha, 1)
	dhdu, err := calculus.FiniteDiff(u1, hs)
	if err != nil {
		return err
	}
	derivErr, err := metric.RelativeDifferenceScalar(a1, dhdu, true)
	if err != nil {
		return err
	}
	integral, err := calculus.CumulativeIntegral(u1, a1)
	if err != nil {
		return err
	}
	floats.AddConst(hs[0], integral)
	integralErr, err := metric.RelativeDifferenceScalar(hs, integral, true)
	if err != nil {
		return err
	}
	slog.Info("entropy derivative", "points", n,
		"max_dhdu_err", floats.Max(derivErr), "max_integral_err", floats.Max(integralErr))

	xs := [][]float64{u1}
	savePlot(plotting.Plot1D(xs, [][]float64{a1, dhdu}, []string{"alpha_1", "dh/du_1"}, "dhdu",
		plotting.Options{Folder: opts.Folder, XLabel: "u_1"}))
	savePlot(plotting.Plot1D(xs, [][]float64{derivErr, integralErr}, []string{"dh/du_1", "h"}, "dhdu_err",
		plotting.Options{Folder: opts.Folder, Log: true, XLabel: "u_1", YLabel: "relative error"}))
	return nil
}

// loadOrSample reads the configured dataset, or samples a fresh one when the
// file does not exist.
func loadOrSample(opts config.Options, rec reconstruct.Reconstruction) (dataset.Data, error) {
	if _, err := os.Stat(opts.DataFile); os.IsNotExist(err) {
		slog.Warn("data file not found, sampling", "path", opts.DataFile, "samples", opts.Samples)
		rng := rand.New(rand.NewSource(opts.Seed))
		return dataset.Sample(rec, opts.Samples, opts.Bound, rng)
	}
	return dataset.Load(opts.DataFile, opts.BasisSize(), dataset.All)
}

func m1(opts config.Options) config.Options {
	if opts.MaxDegree != 1 {
		slog.Info("experiment uses the M_1 basis", "configured_degree", opts.MaxDegree)
	}
	opts.MaxDegree = 1
	return opts
}

func col(m mat.Matrix, j int) []float64 {
	return mat.Col(nil, j, m)
}

// sortBy orders x ascending and permutes every ys[i] alongside.
func sortBy(x []float64, ys ...[]float64) ([]float64, [][]float64) {
	sorted := append([]float64(nil), x...)
	inds := make([]int, len(x))
	floats.Argsort(sorted, inds)
	res := make([][]float64, len(ys))
	for j, y := range ys {
		res[j] = make([]float64, len(y))
		for i, k := range inds {
			res[j][i] = y[k]
		}
	}
	return sorted, res
}

// savePlot logs the outcome of a plot. Plot failures never fail an experiment.
func savePlot(file string, err error) {
	if err != nil {
		slog.Warn("plot failed", "err", err)
		return
	}
	slog.Info("figure saved", "file", file)
}
