// Package config collects the run parameters of the command line tools.
//
// Values are layered: Default, then CLOSURE_* environment variables (an
// optional .env file is loaded first), then command line flags.
package config

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/hammal/closure"
	"github.com/hammal/closure/loss"
	"github.com/hammal/closure/solver"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "CLOSURE_"

// Options are the parameters of a run.
type Options struct {
	closure.Setup

	// DataFile is the dataset read or written by a run.
	DataFile string
	// Folder receives figures and run files.
	Folder string
	// Experiment selects what cmd/erroranalysis runs.
	Experiment string
	// Samples is the number of generated data points.
	Samples int
	// Bound is the half width of the box the reduced multipliers are sampled in.
	Bound float64
	// ClipBound limits the normalized multipliers before exponentiation.
	ClipBound float64
	Seed      int64
	Workers   int
	Tolerance float64
	MaxIter   int
	LogLevel  string
}

// Default returns the options of an M_1 run.
func Default() Options {
	s := solver.DefaultSettings()
	return Options{
		Setup:      closure.DefaultSetup(),
		DataFile:   "data/1D/Monomial_M1_1D.csv",
		Folder:     "figures",
		Experiment: "validation",
		Samples:    1000,
		Bound:      5,
		ClipBound:  loss.DefaultClipBound,
		Seed:       1,
		Workers:    s.Workers,
		Tolerance:  s.Tolerance,
		MaxIter:    s.MaxIterations,
		LogLevel:   "info",
	}
}

// SolverSettings extracts the dual solver parameters.
func (o Options) SolverSettings() solver.Settings {
	return solver.Settings{Tolerance: o.Tolerance, MaxIterations: o.MaxIter, Workers: o.Workers}
}

// Validate checks the options that no component checks on its own.
func (o Options) Validate() error {
	if err := o.Setup.Validate(); err != nil {
		return err
	}
	if o.Samples < 0 {
		return closure.Configurationf("negative sample count %d", o.Samples)
	}
	if !(o.Bound > 0) {
		return closure.Configurationf("sampling bound must be positive, got %v", o.Bound)
	}
	if !(o.ClipBound > 0) {
		return closure.Configurationf("clip bound must be positive, got %v", o.ClipBound)
	}
	return nil
}

// FromEnv overrides o with the CLOSURE_* variables of the environment. A
// .env file in the working directory is loaded first when present; variables
// already set in the environment win over it.
func FromEnv(o Options) (Options, error) {
	return fromEnvFile(o, ".env")
}

func fromEnvFile(o Options, path string) (Options, error) {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return o, errors.Wrapf(err, "loading %s", path)
	}
	return o, applyEnv(&o, os.LookupEnv)
}

func applyEnv(o *Options, lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"DEGREE":      &o.MaxDegree,
		"QUAD_POINTS": &o.QuadraturePoints,
		"SAMPLES":     &o.Samples,
		"WORKERS":     &o.Workers,
		"MAX_ITER":    &o.MaxIter,
	}
	floats := map[string]*float64{
		"DOMAIN_MIN": &o.DomainMin,
		"DOMAIN_MAX": &o.DomainMax,
		"BOUND":      &o.Bound,
		"CLIP":       &o.ClipBound,
		"TOLERANCE":  &o.Tolerance,
	}
	strs := map[string]*string{
		"DATA":       &o.DataFile,
		"FOLDER":     &o.Folder,
		"EXPERIMENT": &o.Experiment,
		"LOG_LEVEL":  &o.LogLevel,
	}

	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return errors.Wrapf(err, "parsing %s%s", EnvPrefix, key)
			}
			*dst = n
		}
	}
	for key, dst := range floats {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return errors.Wrapf(err, "parsing %s%s", EnvPrefix, key)
			}
			*dst = f
		}
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing %sSEED", EnvPrefix)
		}
		o.Seed = seed
	}
	return nil
}

// RegisterFlags binds every option to a flag of fs, using the current
// values as defaults.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&o.MaxDegree, "degree", o.MaxDegree, "maximal degree of the moment basis")
	fs.IntVar(&o.QuadraturePoints, "quadpoints", o.QuadraturePoints, "number of Gauss-Legendre points")
	fs.Float64Var(&o.DomainMin, "vmin", o.DomainMin, "lower end of the velocity domain")
	fs.Float64Var(&o.DomainMax, "vmax", o.DomainMax, "upper end of the velocity domain")
	fs.StringVar(&o.DataFile, "data", o.DataFile, "dataset csv file")
	fs.StringVar(&o.Folder, "folder", o.Folder, "output folder for figures and run files")
	fs.StringVar(&o.Experiment, "experiment", o.Experiment, "experiment to run")
	fs.IntVar(&o.Samples, "samples", o.Samples, "number of samples to generate")
	fs.Float64Var(&o.Bound, "bound", o.Bound, "half width of the multiplier sampling box")
	fs.Float64Var(&o.ClipBound, "clip", o.ClipBound, "clip bound of the normalized multipliers")
	fs.Int64Var(&o.Seed, "seed", o.Seed, "random seed")
	fs.IntVar(&o.Workers, "workers", o.Workers, "solver goroutines, 0 uses GOMAXPROCS")
	fs.Float64Var(&o.Tolerance, "tol", o.Tolerance, "dual solver tolerance")
	fs.IntVar(&o.MaxIter, "maxiter", o.MaxIter, "dual solver iteration limit")
	fs.StringVar(&o.LogLevel, "loglevel", o.LogLevel, "debug, info, warn or error")
}

// Load resolves defaults, environment and args, in that order.
func Load(name string, args []string) (Options, error) {
	o, err := FromEnv(Default())
	if err != nil {
		return o, err
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	o.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return o, errors.Wrap(err, "parsing flags")
	}
	return o, o.Validate()
}

// Level maps LogLevel to a slog level. Unknown names fall back to info.
func (o Options) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger returns a text logger on stderr at the configured level.
func (o Options) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: o.Level()}))
}
