package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/hammal/closure"
	"github.com/hammal/closure/config"
	"github.com/hammal/closure/reconstruct"
)

func testOptions(t *testing.T) config.Options {
	o := config.Default()
	o.Folder = t.TempDir()
	o.DataFile = filepath.Join(t.TempDir(), "missing.csv")
	o.Samples = 20
	o.Bound = 2
	o.QuadraturePoints = 40
	o.LogLevel = "error"
	return o
}

func TestSelected(t *testing.T) {
	names, err := selected("all")
	if err != nil || len(names) != len(experiments) {
		t.Errorf("all selected %v, %v", names, err)
	}
	names, err = selected(" um0, entropy ,")
	if err != nil || len(names) != 2 || names[0] != "um0" || names[1] != "entropy" {
		t.Errorf("unexpected selection %v, %v", names, err)
	}
	if _, err := selected("um0,nope"); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if _, err := selected(" , "); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestRunAll(t *testing.T) {
	o := testOptions(t)
	o.Experiment = "all"
	if err := run(o); err != nil {
		t.Fatal(err)
	}
	for _, file := range []string{
		"u_and_u_rec.png",
		"dhdu.png",
		"runScript_001_.sh",
		"config_001_.csv",
		filepath.Join("ValidationTest", "000_alpha.png"),
		filepath.Join("ScatterPlots", "ScatterM1Error_0.png"),
	} {
		if _, err := os.Stat(filepath.Join(o.Folder, file)); err != nil {
			t.Errorf("missing output %s: %v", file, err)
		}
	}
}

func TestValidationNeedsFirstMoment(t *testing.T) {
	o := testOptions(t)
	o.MaxDegree = 0
	if err := validation(o); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if err := perturbation(o); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestDensityError(t *testing.T) {
	rec, err := reconstruct.FromSetup(closure.DefaultSetup())
	if err != nil {
		t.Fatal(err)
	}
	alpha := mat.NewDense(2, 2, []float64{-1, 0.5, 0, 0})
	res, err := densityError(rec, alpha, alpha)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range res {
		if v != 0 {
			t.Errorf("expected zero error, got %v", v)
		}
	}

	// shifting alpha_0 by log 2 doubles f
	shifted := mat.NewDense(2, 2, []float64{-1 + math.Ln2, 0.5, math.Ln2, 0})
	res, err = densityError(rec, alpha, shifted)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range res {
		if math.Abs(v-1) > 1e-12 {
			t.Errorf("expected relative error 1, got %v", v)
		}
	}
}

func TestSortBy(t *testing.T) {
	x, ys := sortBy([]float64{3, 1, 2}, []float64{30, 10, 20}, []float64{0, 1, 2})
	if x[0] != 1 || x[1] != 2 || x[2] != 3 {
		t.Errorf("unsorted %v", x)
	}
	if ys[0][0] != 10 || ys[0][2] != 30 || ys[1][0] != 1 || ys[1][2] != 0 {
		t.Errorf("not permuted alongside %v", ys)
	}
}
