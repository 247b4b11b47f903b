package reconstruct

import (
	"fmt"
	"math"
	"testing"

	"github.com/hammal/closure"
	"github.com/hammal/closure/basis"
	"github.com/hammal/closure/quadrature"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// difTol is the tolerance for comparing quadrature results against closed forms
const difTol = 1e-10

func setup(t testing.TB, nq, degree int) (*mat.Dense, []float64) {
	rule, err := quadrature.GaussLegendre(nq)
	if err != nil {
		t.Fatal(err)
	}
	m, err := basis.Monomial1D(rule.Nodes, degree)
	if err != nil {
		t.Fatal(err)
	}
	return m, rule.Weights
}

func TestMomentsDegreeZero(t *testing.T) {
	m, w := setup(t, 100, 0)
	alphas := []float64{-2, -0.5, 0, 0.001, 0.5, 0.999, 3}
	alpha := mat.NewDense(len(alphas), 1, alphas)
	u, err := Moments(alpha, m, w)
	if err != nil {
		t.Fatal(err)
	}
	for s, a := range alphas {
		if want := 2 * math.Exp(a); math.Abs(u.At(s, 0)-want) > difTol*want {
			t.Errorf("alpha %v: u = %v want %v", a, u.At(s, 0), want)
		}
	}
}

func TestMomentsConstantDensity(t *testing.T) {
	m, w := setup(t, 100, 0)
	alpha := mat.NewDense(5, 1, nil)
	u, err := Moments(alpha, m, w)
	if err != nil {
		t.Fatal(err)
	}
	for s := 0; s < 5; s++ {
		if math.Abs(u.At(s, 0)-2) > difTol {
			t.Errorf("sample %v: u = %v want 2", s, u.At(s, 0))
		}
	}
}

// closedFormM1 returns the moments of exp(a0 + a1 v) on [-1, 1].
func closedFormM1(a0, a1 float64) (u0, u1 float64) {
	e := math.Exp(a0)
	u0 = 2 * e * math.Sinh(a1) / a1
	u1 = 2 * e * (a1*math.Cosh(a1) - math.Sinh(a1)) / (a1 * a1)
	return u0, u1
}

func TestMomentsDegreeOne(t *testing.T) {
	rule, err := quadrature.GaussLegendre(50)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := NewQuadratureReconstruction(rule, 1)
	if err != nil {
		t.Fatal(err)
	}
	alpha := mat.NewDense(4, 2, []float64{
		-1, 0.5,
		0.2, -2,
		-3, 4,
		0, 1e-2,
	})
	u, err := rec.Moments(alpha)
	if err != nil {
		t.Fatal(err)
	}
	for s := 0; s < 4; s++ {
		u0, u1 := closedFormM1(alpha.At(s, 0), alpha.At(s, 1))
		if !scalar.EqualWithinAbsOrRel(u.At(s, 0), u0, difTol, difTol) || !scalar.EqualWithinAbsOrRel(u.At(s, 1), u1, difTol, difTol) {
			t.Errorf("sample %v: got (%v, %v) want (%v, %v)", s, u.At(s, 0), u.At(s, 1), u0, u1)
		}
	}
}

func TestEntropyDuality(t *testing.T) {
	m, w := setup(t, 60, 2)
	alpha := mat.NewDense(3, 3, []float64{
		-1, 0.5, -0.3,
		0.2, -2, 1,
		-0.7, 0, 0,
	})
	u, err := Moments(alpha, m, w)
	if err != nil {
		t.Fatal(err)
	}
	h, err := Entropy(alpha, m, w)
	if err != nil {
		t.Fatal(err)
	}
	// h = alpha . u - u_0
	for s := 0; s < 3; s++ {
		want := floats.Dot(alpha.RawRowView(s), u.RawRowView(s)) - u.At(s, 0)
		if math.Abs(h.AtVec(s)-want) > difTol {
			t.Errorf("sample %v: h = %v want %v", s, h.AtVec(s), want)
		}
	}
}

func TestDensityL1(t *testing.T) {
	m, w := setup(t, 40, 1)
	alpha := mat.NewDense(2, 2, []float64{-0.5, 1, 2, -3})
	l1, err := DensityL1(alpha, m, w)
	if err != nil {
		t.Fatal(err)
	}
	u, err := Moments(alpha, m, w)
	if err != nil {
		t.Fatal(err)
	}
	// The density is positive so its L1 norm is the zeroth moment
	for s := 0; s < 2; s++ {
		if math.Abs(l1.AtVec(s)-u.At(s, 0)) > difTol {
			t.Errorf("sample %v: L1 = %v, u_0 = %v", s, l1.AtVec(s), u.At(s, 0))
		}
	}
}

func TestEmptyBatch(t *testing.T) {
	m, w := setup(t, 10, 1)
	u, err := Moments(&mat.Dense{}, m, w)
	if err != nil {
		t.Fatal(err)
	}
	if !u.IsEmpty() {
		t.Errorf("expected empty moments, got %v", mat.Formatted(u))
	}
	h, err := Entropy(&mat.Dense{}, m, w)
	if err != nil {
		t.Fatal(err)
	}
	if h.Len() != 0 {
		t.Errorf("expected empty entropy, got length %v", h.Len())
	}
	l1, err := DensityL1(&mat.Dense{}, m, w)
	if err != nil {
		t.Fatal(err)
	}
	if l1.Len() != 0 {
		t.Errorf("expected empty L1, got length %v", l1.Len())
	}
}

func TestDimensionMismatch(t *testing.T) {
	m, w := setup(t, 10, 1)
	if _, err := Moments(mat.NewDense(2, 3, nil), m, w); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error for wide alpha, got %v", err)
	}
	if _, err := Entropy(mat.NewDense(2, 2, nil), m, w[:5]); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error for short weights, got %v", err)
	}
	if _, err := DensityL1(mat.NewDense(2, 1, nil), m, w); !closure.IsConfiguration(err) {
		t.Errorf("expected configuration error for narrow alpha, got %v", err)
	}
}

func TestFromSetup(t *testing.T) {
	rec, err := FromSetup(closure.DefaultSetup())
	if err != nil {
		t.Fatal(err)
	}
	r, c := rec.Basis().Dims()
	if r != 2 || c != 100 || len(rec.Weights()) != 100 {
		t.Errorf("unexpected basis (%v, %v) with %v weights", r, c, len(rec.Weights()))
	}
	fmt.Println(mat.Formatted(rec.Basis().Slice(0, 2, 0, 3)))
}

func BenchmarkMoments(b *testing.B) {
	m, w := setup(b, 100, 1)
	ns := 1000
	data := make([]float64, 2*ns)
	for s := 0; s < ns; s++ {
		data[2*s] = -1
		data[2*s+1] = float64(s) / float64(ns)
	}
	alpha := mat.NewDense(ns, 2, data)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Moments(alpha, m, w)
	}
}
