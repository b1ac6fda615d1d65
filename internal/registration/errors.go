package registration

import (
	"errors"
	"fmt"
)

// Sentinel error kinds per the registration error design. Callers compare
// with errors.Is. The insufficient-correspondences case (§7) is deliberately
// not one of these: it is not an exceptional control-flow path, it returns a
// defined identity Result with Insufficient set — see orchestrator.go.
var (
	// ErrEmptyInput is returned when a cloud or feature matrix has N = 0.
	ErrEmptyInput = errors.New("registration: empty input")
	// ErrDimensionMismatch is returned when a cloud's point count differs
	// from its feature matrix's column count, or when the two clouds'
	// feature matrices have different descriptor widths.
	ErrDimensionMismatch = errors.New("registration: dimension mismatch")
	// ErrNumericalFailure names the solver's Cholesky-failure kind. Register
	// does not return it: a singular system is reported through
	// Result.NumericalFailure, with the best-so-far transform and a nil error.
	ErrNumericalFailure = errors.New("registration: numerical failure")
)

func dimensionMismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrDimensionMismatch}, args...)...)
}
