package metric

import (
	"math"
	"testing"

	"github.com/hammal/closure"
	"gonum.org/v1/gonum/mat"
)

const difTol = 1e-14

func TestRelativeDifferenceScalarSelf(t *testing.T) {
	x := []float64{-3, 0, 1e-5, 2.5, 1e8}
	res, err := RelativeDifferenceScalar(x, x, true)
	if err != nil {
		t.Fatal(err)
	}
	for s, v := range res {
		if v != 0 {
			t.Errorf("self difference of %v is %v", x[s], v)
		}
	}
	// Reference mode is zero as well wherever the reference is non-zero
	res, _ = RelativeDifferenceScalar([]float64{-3, 2.5}, []float64{-3, 2.5}, false)
	if res[0] != 0 || res[1] != 0 {
		t.Errorf("self difference %v", res)
	}
}

func TestRelativeDifferenceScalarDenominator(t *testing.T) {
	x1 := []float64{2, -1, 1e-4, 5e-4, 3}
	x2 := []float64{1, -4, -2e-4, 1e-4, 3}
	res, err := RelativeDifferenceScalar(x1, x2, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{
		1. / 2.,
		3. / 4.,
		// both below the floor
		3e-4 / DenominatorFloor,
		4e-4 / DenominatorFloor,
		0,
	}
	for s := range want {
		if math.Abs(res[s]-want[s]) > difTol {
			t.Errorf("sample %v: got %v want %v", s, res[s], want[s])
		}
		if res[s] < 0 {
			t.Errorf("sample %v negative: %v", s, res[s])
		}
	}

	res, err = RelativeDifferenceScalar(x1, x2, false)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res[1]-3) > difTol || math.Abs(res[2]-3) > difTol {
		t.Errorf("reference normalization gave %v", res)
	}
}

func TestRelativeDifferenceScalarZeroReference(t *testing.T) {
	res, err := RelativeDifferenceScalar([]float64{0, 0}, []float64{1, 0}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(res[0], 1) {
		t.Errorf("expected +Inf for zero reference, got %v", res[0])
	}
	if !math.IsNaN(res[1]) {
		t.Errorf("expected NaN for 0/0, got %v", res[1])
	}
}

func TestRelativeDifferenceScalarMismatch(t *testing.T) {
	if _, err := RelativeDifferenceScalar([]float64{1}, []float64{1, 2}, true); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestRelativeDifferenceMaxSymmetric(t *testing.T) {
	x1 := mat.NewDense(3, 2, []float64{1, 2, -3, 0.5, 0, 0.1})
	x2 := mat.NewDense(3, 2, []float64{1.5, -2, 4, 0, 0.2, 0.1})
	a, err := RelativeDifference(x1, x2, true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RelativeDifference(x2, x1, true)
	if err != nil {
		t.Fatal(err)
	}
	for s := range a {
		if a[s] != b[s] {
			t.Errorf("sample %v: %v != %v", s, a[s], b[s])
		}
	}
	// row 0: |0.5| + |4| over max(3, 3.5)
	if want := 4.5 / 3.5; math.Abs(a[0]-want) > difTol {
		t.Errorf("row 0: got %v want %v", a[0], want)
	}
}

func TestRelativeDifferenceReferenceSingleColumn(t *testing.T) {
	x1 := mat.NewDense(4, 1, []float64{1, -2, 3, 4})
	x2 := mat.NewDense(4, 1, []float64{1, -1, 5, 4})
	res, err := RelativeDifference(x1, x2, false)
	if err != nil {
		t.Fatal(err)
	}
	// every row is divided by the column norm 10
	want := []float64{0, 0.1, 0.2, 0}
	for s := range want {
		if math.Abs(res[s]-want[s]) > difTol {
			t.Errorf("sample %v: got %v want %v", s, res[s], want[s])
		}
	}
}

func TestRelativeDifferenceReferenceSquare(t *testing.T) {
	x1 := mat.NewDense(2, 2, []float64{1, 2, 3, -4})
	x2 := mat.NewDense(2, 2, []float64{0, 2, 3, 0})
	res, err := RelativeDifference(x1, x2, false)
	if err != nil {
		t.Fatal(err)
	}
	// row 0 by column 0 norm 4, row 1 by column 1 norm 6
	want := []float64{1. / 4., 4. / 6.}
	for s := range want {
		if math.Abs(res[s]-want[s]) > difTol {
			t.Errorf("sample %v: got %v want %v", s, res[s], want[s])
		}
	}
}

func TestRelativeDifferenceInvalid(t *testing.T) {
	if _, err := RelativeDifference(mat.NewDense(3, 2, nil), mat.NewDense(3, 2, nil), false); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error for unpairable column norms, got %v", err)
	}
	if _, err := RelativeDifference(mat.NewDense(3, 2, nil), mat.NewDense(2, 2, nil), true); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error for shape mismatch, got %v", err)
	}
	res, err := RelativeDifference(&mat.Dense{}, &mat.Dense{}, true)
	if err != nil || len(res) != 0 {
		t.Errorf("expected empty result, got %v, %v", res, err)
	}
}
