package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the calculation kernel. Callers match with errors.Is.
var (
	// ErrInvalidGeometry marks degenerate geometry (zero-area triangle or patch).
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrMissingAsset marks a referenced photometric distribution or material
	// that is not present in the cache. Fatal to the enclosing job.
	ErrMissingAsset = errors.New("missing asset")

	// ErrInvalidDirection marks a zero-length direction vector.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrDivergence marks a radiosity residual blow-up.
	ErrDivergence = errors.New("radiosity diverged")
)

// InvalidGeometryError wraps ErrInvalidGeometry with context about the
// offending primitive.
func InvalidGeometryError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidGeometry, fmt.Sprintf(format, args...))
}

// MissingAssetError wraps ErrMissingAsset with the missing reference.
func MissingAssetError(ref string) error {
	return fmt.Errorf("%w: %s", ErrMissingAsset, ref)
}

// DivergenceError carries the partial diagnostic trace of an aborted
// radiosity solve.
type DivergenceError struct {
	Iteration int
	Residual  float64
	Residuals []float64 // per-iteration residual history up to the abort
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("radiosity diverged at iteration %d (residual %g)", e.Iteration, e.Residual)
}

// Unwrap lets errors.Is(err, ErrDivergence) match.
func (e *DivergenceError) Unwrap() error {
	return ErrDivergence
}
