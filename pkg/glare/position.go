package glare

import "math"

// PositionIndexer maps a glare source's angular offset from the line of
// sight to a Guth-style position index. The formula in use is a simplified
// approximation, not full CIE 117 fidelity, so it sits behind this strategy
// interface and can be swapped for a table-validated implementation.
type PositionIndexer interface {
	// PositionIndex takes the vertical (hDeg) and horizontal (tDeg)
	// off-axis angles in degrees and returns the dimensionless index p.
	PositionIndex(hDeg, tDeg float64) float64
}

// GuthIndexer is the default simplified Guth exponential fit.
type GuthIndexer struct{}

// PositionIndex evaluates
//
//	p = exp[(35.2 - 0.31889*T - 1.22*e^(-T/9)) * 1e-3 * (H + sigma)]
//
// with sigma = 1 + 0.5*T_rad, clamped to [1, 100]. Sources directly ahead
// glare more than sources off to the side.
func (GuthIndexer) PositionIndex(hDeg, tDeg float64) float64 {
	h := math.Abs(hDeg)
	t := math.Abs(tDeg)
	if t < 0.1 {
		t = 0.1
	}

	sigma := 1.0 + 0.5*(t*math.Pi/180.0)
	exponent := (35.2 - 0.31889*t - 1.22*math.Exp(-t/9)) * 1e-3 * (h + sigma)
	p := math.Exp(exponent)

	return math.Max(1.0, math.Min(p, 100.0))
}

// ConstantIndexer always returns a fixed index. Useful for isolating the
// rest of the UGR pipeline in tests.
type ConstantIndexer struct {
	Value float64
}

func (c ConstantIndexer) PositionIndex(hDeg, tDeg float64) float64 {
	if c.Value <= 0 {
		return 1
	}
	return c.Value
}
