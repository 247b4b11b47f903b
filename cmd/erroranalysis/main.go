// Command erroranalysis runs the numerical experiments that check a closure
// and the reconstruction it relies on.
//
// Experiments are chosen with -experiment (comma separated, or "all"):
//
//	validation    alpha_1, u_1 and h of a model against a dataset
//	um0           degree 0 reconstruction against |domain| exp(alpha)
//	perturbation  error in u and f when alpha_1 of one sample is disturbed
//	um1           heat map of the L1 error of f around M_1 multipliers
//	entropy       dh/du_1 = alpha_1 along a normalized M_1 sweep
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hammal/closure"
	"github.com/hammal/closure/config"
)

type experiment func(config.Options) error

var experiments = map[string]experiment{
	"validation":   validation,
	"um0":          um0,
	"perturbation": perturbation,
	"um1":          um1Scatter,
	"entropy":      entropyDerivative,
}

func main() {
	opts, err := config.Load("erroranalysis", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(opts.NewLogger())

	if err := run(opts); err != nil {
		slog.Error("error analysis failed", "experiment", opts.Experiment, "err", err)
		os.Exit(1)
	}
}

func run(opts config.Options) error {
	names, err := selected(opts.Experiment)
	if err != nil {
		return err
	}
	for _, name := range names {
		slog.Info("running experiment", "name", name)
		if err := experiments[name](opts); err != nil {
			return errors.Wrap(err, name)
		}
	}
	script, cfg, err := config.WriteRunFiles("erroranalysis", opts, opts.Folder)
	if err != nil {
		return err
	}
	slog.Info("run files written", "script", script, "config", cfg)
	return nil
}

func selected(list string) ([]string, error) {
	if strings.TrimSpace(list) == "all" {
		names := make([]string, 0, len(experiments))
		for name := range experiments {
			names = append(names, name)
		}
		sort.Strings(names)
		return names, nil
	}
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := experiments[name]; !ok {
			return nil, closure.Configurationf("unknown experiment %q", name)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, closure.Configurationf("no experiment selected")
	}
	return names, nil
}
