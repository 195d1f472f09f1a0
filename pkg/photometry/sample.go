package photometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/luxera/luxcalc/pkg/core"
)

// Sample returns the luminous intensity (candela) of the distribution in the
// given luminaire-local direction. Sampling is deterministic and pure:
// bilinear interpolation over the angle grid, a cyclic horizontal seam at
// 0/360, clamped extrapolation at the vertical grid ends, and the tilt
// multiplier (when present) applied after interpolation.
//
// A zero-length direction yields ErrInvalidDirection.
func (d *Distribution) Sample(localDir core.Vec3) (float64, error) {
	if localDir.LengthSquared() == 0 {
		return 0, fmt.Errorf("%w: zero-length sample direction", core.ErrInvalidDirection)
	}
	dir := localDir.Normalize()

	var hDeg, vDeg float64
	switch d.System {
	case SystemC:
		hDeg, vDeg = anglesTypeC(dir)
	case SystemB:
		hDeg, vDeg = anglesTypeAB(dir, core.NewVec3(0, 1, 0), d.AnglesV)
	case SystemA:
		hDeg, vDeg = anglesTypeAB(dir, core.NewVec3(1, 0, 0), d.AnglesV)
	default:
		return 0, fmt.Errorf("%w: unknown photometric system %v", ErrInvalidDistribution, d.System)
	}

	return d.SampleAngles(hDeg, vDeg), nil
}

// SampleAngles interpolates the intensity at explicit photometric angles in
// degrees. Horizontal symmetry folding and the cyclic seam are applied here.
func (d *Distribution) SampleAngles(hDeg, vDeg float64) float64 {
	h := d.foldHorizontal(hDeg)
	v := clampToRange(vDeg, d.AnglesV)

	vLo, vHi, vT := bracket(v, d.AnglesV)
	hLo, hHi, hT := d.bracketHorizontal(h)

	c00 := d.Intensity[hLo][vLo]
	c01 := d.Intensity[hLo][vHi]
	c10 := d.Intensity[hHi][vLo]
	c11 := d.Intensity[hHi][vHi]

	c0 := c00*(1-vT) + c01*vT
	c1 := c10*(1-vT) + c11*vT
	value := c0*(1-hT) + c1*hT

	if d.Tilt != nil {
		value *= d.tiltFactor(v)
	}
	return value
}

// foldHorizontal maps a horizontal angle into the stored grid domain
// according to the declared symmetry.
func (d *Distribution) foldHorizontal(hDeg float64) float64 {
	c := math.Mod(hDeg, 360.0)
	if c < 0 {
		c += 360.0
	}
	switch d.Symmetry {
	case SymmetryFull:
		return d.AnglesH[0]
	case SymmetryQuadrant:
		switch {
		case c <= 90:
		case c <= 180:
			c = 180 - c
		case c <= 270:
			c = c - 180
		default:
			c = 360 - c
		}
	case SymmetryBilateral:
		if c > 180 {
			c = 360 - c
		}
	}
	return c
}

// bracketHorizontal locates the two columns around the horizontal angle.
// For a full-circle grid without an explicit 360 endpoint, angles past the
// last column wrap to the first (cyclic seam, not clamped).
func (d *Distribution) bracketHorizontal(h float64) (lo, hi int, t float64) {
	arr := d.AnglesH
	n := len(arr)
	if n == 1 {
		return 0, 0, 0
	}
	// Grids spanning a negative domain (e.g. -180..180) store angles past
	// 180 as negative; shift the wrapped query back into that domain.
	if arr[0] < 0 && arr[n-1] > 0 && h > 180 {
		h -= 360
	}
	if d.Symmetry == SymmetryNone && arr[0] <= 1e-9 && arr[n-1] < 360.0 && arr[n-1] > 180.0 {
		// Grid spans the circle but stops short of 360: interpolate across
		// the seam between the last and first columns.
		if h > arr[n-1] {
			span := (arr[0] + 360.0) - arr[n-1]
			t = 0
			if span > 0 {
				t = (h - arr[n-1]) / span
			}
			return n - 1, 0, t
		}
	}
	h = clampToRange(h, arr)
	return bracket(h, arr)
}

// bracket finds indices lo, hi surrounding val in the ascending array and
// the interpolation factor between them. Values at or outside the ends pin
// to the end index with factor 0.
func bracket(val float64, arr []float64) (int, int, float64) {
	n := len(arr)
	if n == 0 {
		return 0, 0, 0
	}
	if val <= arr[0] {
		return 0, 0, 0
	}
	if val >= arr[n-1] {
		return n - 1, n - 1, 0
	}
	// First index with arr[i] > val; the bracket is [i-1, i].
	i := sort.SearchFloat64s(arr, val)
	if i < n && arr[i] == val {
		return i, i, 0
	}
	lo := i - 1
	hi := i
	denom := arr[hi] - arr[lo]
	t := 0.0
	if denom != 0 {
		t = (val - arr[lo]) / denom
	}
	return lo, hi, t
}

func clampToRange(val float64, arr []float64) float64 {
	if len(arr) == 0 {
		return val
	}
	return math.Max(arr[0], math.Min(arr[len(arr)-1], val))
}

// tiltFactor interpolates the tilt multiplier at the given vertical angle,
// clamped at the curve endpoints.
func (d *Distribution) tiltFactor(vDeg float64) float64 {
	tilt := d.Tilt
	if tilt == nil || len(tilt.AnglesDeg) == 0 {
		return 1.0
	}
	t := clampToRange(vDeg, tilt.AnglesDeg)
	lo, hi, tt := bracket(t, tilt.AnglesDeg)
	return tilt.Factors[lo]*(1-tt) + tilt.Factors[hi]*tt
}
