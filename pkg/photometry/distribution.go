package photometry

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidDistribution marks a malformed canonical distribution
// (non-ascending grids, shape mismatch, non-finite intensities).
var ErrInvalidDistribution = errors.New("invalid photometric distribution")

// System identifies the photometric coordinate convention of a distribution.
type System int

const (
	SystemC System = iota // azimuth C, polar gamma from nadir
	SystemB               // polar axis along local +Y (minor axis)
	SystemA               // polar axis along local +X (major axis)
)

func (s System) String() string {
	switch s {
	case SystemC:
		return "C"
	case SystemB:
		return "B"
	case SystemA:
		return "A"
	}
	return "?"
}

// Symmetry describes how the horizontal grid folds the full circle.
type Symmetry int

const (
	SymmetryNone      Symmetry = iota // grid covers its full stated range
	SymmetryFull                      // rotationally symmetric, single C-plane
	SymmetryQuadrant                  // data for 0-90, mirrored into all quadrants
	SymmetryBilateral                 // data for 0-180, mirrored
)

// TiltCurve is a multiplier curve indexed by vertical angle in degrees.
// Applied after interpolation, clamped at curve endpoints.
type TiltCurve struct {
	AnglesDeg []float64
	Factors   []float64
}

// Distribution is a canonical photometric intensity distribution: an angle
// grid of luminous intensities in candela. Immutable once built; instances
// referencing the same source asset share one Distribution by pointer.
type Distribution struct {
	System     System
	Symmetry   Symmetry
	AnglesH    []float64   // horizontal (C-plane) angles, degrees, strictly ascending
	AnglesV    []float64   // vertical (gamma) angles, degrees, strictly ascending
	Intensity  [][]float64 // candela, indexed [h][v]
	LampLumens float64     // 0 when unknown
	Tilt       *TiltCurve  // nil when no tilt correction applies

	contentHash string
}

// NewDistribution validates the grids and matrix and computes the content
// hash. The returned distribution must not be mutated.
func NewDistribution(system System, symmetry Symmetry, anglesH, anglesV []float64, intensity [][]float64, lampLumens float64, tilt *TiltCurve) (*Distribution, error) {
	if len(anglesH) == 0 || len(anglesV) == 0 {
		return nil, fmt.Errorf("%w: empty angle grid", ErrInvalidDistribution)
	}
	if err := checkAscending("horizontal", anglesH); err != nil {
		return nil, err
	}
	if err := checkAscending("vertical", anglesV); err != nil {
		return nil, err
	}
	if len(intensity) != len(anglesH) {
		return nil, fmt.Errorf("%w: intensity has %d rows, want %d", ErrInvalidDistribution, len(intensity), len(anglesH))
	}
	for i, row := range intensity {
		if len(row) != len(anglesV) {
			return nil, fmt.Errorf("%w: intensity row %d has %d columns, want %d", ErrInvalidDistribution, i, len(row), len(anglesV))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("%w: intensity[%d][%d] = %v", ErrInvalidDistribution, i, j, v)
			}
		}
	}
	if tilt != nil {
		if len(tilt.AnglesDeg) != len(tilt.Factors) {
			return nil, fmt.Errorf("%w: tilt curve has %d angles but %d factors", ErrInvalidDistribution, len(tilt.AnglesDeg), len(tilt.Factors))
		}
		if len(tilt.AnglesDeg) > 1 {
			if err := checkAscending("tilt", tilt.AnglesDeg); err != nil {
				return nil, err
			}
		}
	}

	d := &Distribution{
		System:     system,
		Symmetry:   symmetry,
		AnglesH:    anglesH,
		AnglesV:    anglesV,
		Intensity:  intensity,
		LampLumens: lampLumens,
		Tilt:       tilt,
	}
	d.contentHash = d.computeHash()
	return d, nil
}

func checkAscending(name string, arr []float64) error {
	for i := 1; i < len(arr); i++ {
		if arr[i] <= arr[i-1] {
			return fmt.Errorf("%w: %s angles not strictly ascending at index %d (%g after %g)",
				ErrInvalidDistribution, name, i, arr[i], arr[i-1])
		}
	}
	return nil
}

// ContentHash returns the deterministic fingerprint of the normalized
// distribution data. It is a pure function of the data, never of file paths
// or timestamps, and keys the distribution cache.
func (d *Distribution) ContentHash() string {
	return d.contentHash
}

// computeHash serializes the normalized payload (floats rounded to 12
// significant digits) and hashes it with SHA-256.
func (d *Distribution) computeHash() string {
	var sb strings.Builder
	sb.WriteString("system=")
	sb.WriteString(d.System.String())
	fmt.Fprintf(&sb, ";symmetry=%d;lumens=%.12g;h=", d.Symmetry, d.LampLumens)
	writeFloats(&sb, d.AnglesH)
	sb.WriteString(";v=")
	writeFloats(&sb, d.AnglesV)
	sb.WriteString(";cd=")
	for _, row := range d.Intensity {
		writeFloats(&sb, row)
		sb.WriteByte('|')
	}
	if d.Tilt != nil {
		sb.WriteString(";tilt=")
		writeFloats(&sb, d.Tilt.AnglesDeg)
		sb.WriteByte('/')
		writeFloats(&sb, d.Tilt.Factors)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func writeFloats(sb *strings.Builder, vals []float64) {
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(sb, "%.12g", v)
	}
}

// NewUniformDistribution builds a Type C distribution emitting the same
// intensity in every direction. Useful for quick scenarios and tests.
func NewUniformDistribution(intensityCd float64) (*Distribution, error) {
	anglesH := []float64{0, 90, 180, 270, 360}
	anglesV := []float64{0, 45, 90, 135, 180}
	intensity := make([][]float64, len(anglesH))
	for i := range intensity {
		row := make([]float64, len(anglesV))
		for j := range row {
			row[j] = intensityCd
		}
		intensity[i] = row
	}
	return NewDistribution(SystemC, SymmetryNone, anglesH, anglesV, intensity, 0, nil)
}
