package closure

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports invalid static parameters: negative point counts
// or degrees, and dimension mismatches between multipliers, basis and weights.
type ConfigurationError struct{ string }

func (err ConfigurationError) Error() string {
	return "configuration: " + err.string
}

// NumericalInstabilityError reports a non-finite entry found in a multiplier
// batch before it reached the exponential reconstruction.
type NumericalInstabilityError struct {
	Row, Col int
	Value    float64
}

func (err NumericalInstabilityError) Error() string {
	return fmt.Sprintf("numerical instability: non-finite multiplier %v at (%d, %d)", err.Value, err.Row, err.Col)
}

// Configurationf returns a ConfigurationError carrying a stack trace.
func Configurationf(format string, args ...interface{}) error {
	return errors.WithStack(ConfigurationError{fmt.Sprintf(format, args...)})
}

// Instability returns a NumericalInstabilityError carrying a stack trace.
func Instability(row, col int, value float64) error {
	return errors.WithStack(NumericalInstabilityError{Row: row, Col: col, Value: value})
}

// IsConfiguration reports whether err wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var target ConfigurationError
	return errors.As(err, &target)
}

// IsNumericalInstability reports whether err wraps a NumericalInstabilityError.
func IsNumericalInstability(err error) bool {
	var target NumericalInstabilityError
	return errors.As(err, &target)
}
