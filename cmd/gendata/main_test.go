package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hammal/closure"
	"github.com/hammal/closure/config"
	"github.com/hammal/closure/dataset"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestRun(t *testing.T) {
	o := config.Default()
	o.Folder = t.TempDir()
	o.DataFile = filepath.Join(t.TempDir(), "data", "M1.csv")
	o.Samples = 30
	o.Bound = 3

	if err := run(o); err != nil {
		t.Fatal(err)
	}
	data, err := dataset.Load(o.DataFile, o.BasisSize(), dataset.All)
	if err != nil {
		t.Fatal(err)
	}
	if data.Len() != o.Samples {
		t.Errorf("expected %d samples, got %d", o.Samples, data.Len())
	}
	for s := 0; s < data.Len(); s++ {
		if !scalar.EqualWithinAbsOrRel(data.U.At(s, 0), 1, 1e-10, 1e-10) {
			t.Errorf("sample %d is not normalized: u0 = %v", s, data.U.At(s, 0))
		}
	}
	if _, err := os.Stat(filepath.Join(o.Folder, "runScript_001_.sh")); err != nil {
		t.Error(err)
	}
}

func TestRunRejectsNoSamples(t *testing.T) {
	o := config.Default()
	o.Folder = t.TempDir()
	o.DataFile = filepath.Join(t.TempDir(), "M1.csv")
	o.Samples = 0
	if err := run(o); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
