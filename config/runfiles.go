package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// maxRunFiles bounds the search for a free run file index.
const maxRunFiles = 1000

// record lists the options as flag name and value, in flag order.
func (o Options) record() [][2]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return [][2]string{
		{"degree", strconv.Itoa(o.MaxDegree)},
		{"quadpoints", strconv.Itoa(o.QuadraturePoints)},
		{"vmin", f(o.DomainMin)},
		{"vmax", f(o.DomainMax)},
		{"data", o.DataFile},
		{"folder", o.Folder},
		{"experiment", o.Experiment},
		{"samples", strconv.Itoa(o.Samples)},
		{"bound", f(o.Bound)},
		{"clip", f(o.ClipBound)},
		{"seed", strconv.FormatInt(o.Seed, 10)},
		{"workers", strconv.Itoa(o.Workers)},
		{"tol", f(o.Tolerance)},
		{"maxiter", strconv.Itoa(o.MaxIter)},
		{"loglevel", o.LogLevel},
	}
}

// WriteRunFiles stores a shell script that repeats the run of program with
// the options o, together with a semicolon separated csv of the options
// stamped with a fresh run id. Files are numbered runScript_001_.sh,
// config_001_.csv and so on, taking the first free number in folder.
func WriteRunFiles(program string, o Options, folder string) (script, cfg string, err error) {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", "", errors.Wrapf(err, "creating run folder %s", folder)
	}

	index := 1
	for ; index <= maxRunFiles; index++ {
		script = filepath.Join(folder, fmt.Sprintf("runScript_%03d_.sh", index))
		if _, err := os.Stat(script); os.IsNotExist(err) {
			break
		}
	}
	if index > maxRunFiles {
		return "", "", errors.Errorf("no free run file index in %s", folder)
	}
	cfg = filepath.Join(folder, fmt.Sprintf("config_%03d_.csv", index))

	rec := o.record()
	lines := make([]string, 0, len(rec)+1)
	lines = append(lines, program+" \\")
	for i, kv := range rec {
		line := fmt.Sprintf("--%s=%s", kv[0], shellQuote(kv[1]))
		if i < len(rec)-1 {
			line += " \\"
		}
		lines = append(lines, line)
	}
	if err := os.WriteFile(script, []byte(strings.Join(lines, "\n")+"\n"), 0o755); err != nil {
		return "", "", errors.Wrapf(err, "writing %s", script)
	}

	file, err := os.Create(cfg)
	if err != nil {
		return "", "", errors.Wrapf(err, "creating %s", cfg)
	}
	defer file.Close()

	header := []string{"run_id"}
	values := []string{uuid.New().String()}
	for _, kv := range rec {
		header = append(header, kv[0])
		values = append(values, kv[1])
	}
	writer := csv.NewWriter(file)
	writer.Comma = ';'
	if err := writer.WriteAll([][]string{header, values}); err != nil {
		return "", "", errors.Wrapf(err, "writing %s", cfg)
	}
	return script, cfg, nil
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>()*?") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
