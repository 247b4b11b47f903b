// Package dataset reads and writes closure training data.
//
// A data file is comma separated with one header line. Column 0 holds the
// sample index, columns 1..N the moments u, columns N+1..2N the multipliers
// alpha and column 2N+1 the entropy h, where N is the basis size.
package dataset

import (
	"encoding/csv"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/hammal/closure"
	"github.com/hammal/closure/loss"
	"github.com/hammal/closure/reconstruct"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Data holds one sample per row of U and Alpha and per entry of H. Fields not
// selected when loading are nil.
type Data struct {
	U     *mat.Dense
	Alpha *mat.Dense
	H     *mat.VecDense
}

// Len returns the number of samples.
func (d Data) Len() int {
	switch {
	case d.U != nil:
		r, _ := d.U.Dims()
		return r
	case d.Alpha != nil:
		r, _ := d.Alpha.Dims()
		return r
	case d.H != nil:
		return d.H.Len()
	}
	return 0
}

// Selection picks the quantities to load.
type Selection struct {
	U, Alpha, H bool
}

// All selects u, alpha and h.
var All = Selection{U: true, Alpha: true, H: true}

// Load reads the file at path holding data for a basis of size inputDim.
func Load(path string, inputDim int, sel Selection) (Data, error) {
	slog.Info("loading data", "path", path)
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return Data{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	data, err := Read(f, inputDim, sel)
	if err != nil {
		return Data{}, errors.Wrapf(err, "read %s", path)
	}
	slog.Info("data loaded", "samples", data.Len(), "elapsed", time.Since(start))
	return data, nil
}

// Read parses data from r, see Load.
func Read(r io.Reader, inputDim int, sel Selection) (Data, error) {
	if inputDim < 1 {
		return Data{}, closure.Configurationf("input dimension must be positive, got %d", inputDim)
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Data{}, errors.Wrap(err, "parse csv")
	}
	if len(records) < 1 {
		return Data{}, errors.New("missing header line")
	}
	records = records[1:]
	ns := len(records)
	width := 2*inputDim + 2

	var u, alpha, h []float64
	if sel.U {
		u = make([]float64, 0, ns*inputDim)
	}
	if sel.Alpha {
		alpha = make([]float64, 0, ns*inputDim)
	}
	if sel.H {
		h = make([]float64, 0, ns)
	}
	for line, record := range records {
		if len(record) < width {
			return Data{}, errors.Errorf("line %d has %d columns, need %d", line+2, len(record), width)
		}
		values := make([]float64, width)
		for col := 1; col < width; col++ {
			values[col], err = strconv.ParseFloat(record[col], 64)
			if err != nil {
				return Data{}, errors.Wrapf(err, "line %d column %d", line+2, col)
			}
		}
		if sel.U {
			u = append(u, values[1:inputDim+1]...)
		}
		if sel.Alpha {
			alpha = append(alpha, values[inputDim+1:2*inputDim+1]...)
		}
		if sel.H {
			h = append(h, values[2*inputDim+1])
		}
	}

	var data Data
	if ns == 0 {
		return data, nil
	}
	if sel.U {
		data.U = mat.NewDense(ns, inputDim, u)
	}
	if sel.Alpha {
		data.Alpha = mat.NewDense(ns, inputDim, alpha)
	}
	if sel.H {
		data.H = mat.NewVecDense(ns, h)
	}
	return data, nil
}

// Write stores complete data at path in the layout read by Load.
func Write(path string, data Data) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := Encode(f, data); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}

// Encode writes complete data to w.
func Encode(w io.Writer, data Data) error {
	if data.U == nil || data.Alpha == nil || data.H == nil {
		return closure.Configurationf("writing needs u, alpha and h")
	}
	ns, n := data.U.Dims()
	if r, c := data.Alpha.Dims(); r != ns || c != n || data.H.Len() != ns {
		return closure.Configurationf("u is (%d, %d), alpha is (%d, %d), h has %d entries", ns, n, r, c, data.H.Len())
	}

	writer := csv.NewWriter(w)
	header := []string{""}
	for i := 0; i < n; i++ {
		header = append(header, "u_"+strconv.Itoa(i))
	}
	for i := 0; i < n; i++ {
		header = append(header, "alpha_"+strconv.Itoa(i))
	}
	header = append(header, "h")
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, 2*n+2)
	for s := 0; s < ns; s++ {
		record[0] = strconv.Itoa(s)
		for i := 0; i < n; i++ {
			record[1+i] = strconv.FormatFloat(data.U.At(s, i), 'g', -1, 64)
			record[1+n+i] = strconv.FormatFloat(data.Alpha.At(s, i), 'g', -1, 64)
		}
		record[2*n+1] = strconv.FormatFloat(data.H.AtVec(s), 'g', -1, 64)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Sample draws ns reduced multipliers uniformly from [-bound, bound]^N,
// completes them so that every density has unit mass and returns the
// resulting normalized moments, multipliers and entropies.
func Sample(rec reconstruct.Reconstruction, ns int, bound float64, rng *rand.Rand) (Data, error) {
	if ns < 1 {
		return Data{}, closure.Configurationf("need at least one sample, got %d", ns)
	}
	kl, err := loss.NewKLDivergence(rec.Basis(), rec.Weights(), loss.WithClipBound(bound))
	if err != nil {
		return Data{}, err
	}
	n := kl.ReducedSize()
	reduced := mat.NewDense(ns, n, nil)
	reduced.Apply(func(_, _ int, _ float64) float64 { return bound * (2*rng.Float64() - 1) }, reduced)

	alpha, err := kl.CompleteMultipliers(reduced)
	if err != nil {
		return Data{}, err
	}
	u, err := rec.Moments(alpha)
	if err != nil {
		return Data{}, err
	}
	h, err := rec.Entropy(alpha)
	if err != nil {
		return Data{}, err
	}
	return Data{U: u, Alpha: alpha, H: h}, nil
}
