package gonumExtensions

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Full returns a (m by n) matrix filled with value
func Full(m, n int, value float64) *mat.Dense {
	data := make([]float64, m*n)
	for index := range data {
		data[index] = value
	}
	return mat.NewDense(m, n, data)
}

// NANORINF checks if there are any NAN or INF in matrix
func NANORINF(matrix mat.Matrix) bool {
	_, _, found := FirstNonFinite(matrix)
	return found
}

// FirstNonFinite returns the position of the first NaN or Inf entry in
// row-major order.
func FirstNonFinite(matrix mat.Matrix) (row, col int, found bool) {
	m, n := matrix.Dims()
	for row = 0; row < m; row++ {
		for col = 0; col < n; col++ {
			if math.IsNaN(matrix.At(row, col)) || math.IsInf(matrix.At(row, col), 0) {
				return row, col, true
			}
		}
	}
	return 0, 0, false
}

// Exp stores the elementwise exponential of a in dst.
func Exp(dst *mat.Dense, a mat.Matrix) {
	dst.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, a)
}

// Clamp stores a with every entry limited to [lo, hi] in dst.
func Clamp(dst *mat.Dense, a mat.Matrix, lo, hi float64) {
	dst.Apply(func(_, _ int, v float64) float64 { return math.Max(lo, math.Min(hi, v)) }, a)
}

// ScaleColumns multiplies column k of dst by scale[k] in place.
func ScaleColumns(dst *mat.Dense, scale []float64) {
	m, n := dst.Dims()
	if n != len(scale) {
		panic(mat.ErrShape)
	}
	for row := 0; row < m; row++ {
		raw := dst.RawRowView(row)
		for col := range raw {
			raw[col] *= scale[col]
		}
	}
}

// RowNorms1 returns the L1 norm of every row.
func RowNorms1(a mat.Matrix) []float64 {
	m, n := a.Dims()
	res := make([]float64, m)
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			res[row] += math.Abs(a.At(row, col))
		}
	}
	return res
}

// ColNorms1 returns the L1 norm of every column.
func ColNorms1(a mat.Matrix) []float64 {
	m, n := a.Dims()
	res := make([]float64, n)
	for col := 0; col < n; col++ {
		for row := 0; row < m; row++ {
			res[col] += math.Abs(a.At(row, col))
		}
	}
	return res
}
