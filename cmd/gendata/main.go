// Command gendata samples normalized moment/multiplier/entropy triples and
// writes them in the dataset layout. Every generated sample is checked by
// solving the dual problem back from its moments.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/hammal/closure/config"
	"github.com/hammal/closure/dataset"
	"github.com/hammal/closure/metric"
	"github.com/hammal/closure/reconstruct"
	"github.com/hammal/closure/solver"
)

func main() {
	opts, err := config.Load("gendata", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(opts.NewLogger())

	if err := run(opts); err != nil {
		slog.Error("data generation failed", "err", err)
		os.Exit(1)
	}
}

func run(opts config.Options) error {
	rec, err := reconstruct.FromSetup(opts.Setup)
	if err != nil {
		return err
	}

	start := time.Now()
	rng := rand.New(rand.NewSource(opts.Seed))
	data, err := dataset.Sample(rec, opts.Samples, opts.Bound, rng)
	if err != nil {
		return err
	}
	slog.Info("samples drawn", "samples", data.Len(), "degree", opts.MaxDegree, "elapsed", time.Since(start))

	if err := verify(opts, rec, data); err != nil {
		return err
	}

	if dir := filepath.Dir(opts.DataFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	if err := dataset.Write(opts.DataFile, data); err != nil {
		return err
	}
	slog.Info("data written", "path", opts.DataFile)

	script, cfg, err := config.WriteRunFiles("gendata", opts, opts.Folder)
	if err != nil {
		return err
	}
	slog.Info("run files written", "script", script, "config", cfg)
	return nil
}

// verify solves every sample back from its moments and logs how far the
// recovered multipliers are from the sampled ones.
func verify(opts config.Options, rec reconstruct.Reconstruction, data dataset.Data) error {
	model, err := solver.NewClosure(rec, opts.SolverSettings())
	if err != nil {
		return err
	}
	start := time.Now()
	alpha, err := model.Predict(data.U)
	if err != nil {
		return errors.Wrap(err, "solving sampled moments")
	}
	rel, err := metric.RelativeDifference(data.Alpha, alpha, true)
	if err != nil {
		return err
	}
	slog.Info("samples verified",
		"max_rel_alpha_err", floats.Max(rel),
		"mean_rel_alpha_err", floats.Sum(rel)/float64(len(rel)),
		"elapsed", time.Since(start),
	)
	return nil
}
