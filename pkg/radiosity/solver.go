package radiosity

import (
	"math"

	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/direct"
)

// Status reports how a radiosity solve ended.
type Status int

const (
	// StatusConverged means the residual dropped below the tolerance.
	StatusConverged Status = iota
	// StatusCapped means the iteration cap (or a cooperative cancellation)
	// stopped the solve first. The field is usable but not converged.
	StatusCapped
	// StatusDiverged means the residual blew up; the field is invalid.
	StatusDiverged
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusCapped:
		return "capped"
	case StatusDiverged:
		return "diverged"
	}
	return "unknown"
}

// Settings configures the radiosity stage.
type Settings struct {
	// MaxPatchArea bounds subdivision, in m².
	MaxPatchArea float64
	// Damping blends each Jacobi update: B' = (1-d)*B + d*(E + rho*(F*B)).
	Damping float64
	// Tolerance is the max-norm residual convergence threshold.
	Tolerance float64
	// MaxIterations caps the iteration count (capped status, not an error).
	MaxIterations int
	// BlowUpFactor: the solve aborts as diverged when the residual exceeds
	// this multiple of the first iteration's residual.
	BlowUpFactor float64
	// Workers bounds per-iteration parallelism; <= 0 selects the CPU count.
	Workers int

	FormFactors FormFactorConfig
}

// DefaultSettings returns the conventional solver configuration.
func DefaultSettings() Settings {
	return Settings{
		MaxPatchArea:  0.5,
		Damping:       1.0,
		Tolerance:     1e-3,
		MaxIterations: 100,
		BlowUpFactor:  100,
		FormFactors:   DefaultFormFactorConfig(),
	}
}

// Diagnostics records the solve trace surfaced to callers.
type Diagnostics struct {
	Iterations    int
	FinalResidual float64
	MaxResidual   float64
	Residuals     []float64 // max-norm change per iteration
	ResidualsL2   []float64 // L2 change per iteration
	EnergyErrors  []float64 // energy-balance closure per iteration
	GuardCount    int64     // non-finite intermediates replaced with zero
}

// Result is the extracted radiosity field plus its convergence status.
type Result struct {
	Patches     []*Patch
	Status      Status
	Diagnostics Diagnostics
}

// SeedDirect evaluates direct illuminance at every patch centroid (offset
// slightly along the normal so the patch does not shadow itself) and seeds
// each patch's emission with the reflected part.
func SeedDirect(patches []*Patch, kernel *direct.Kernel) {
	points := make([]direct.Point, len(patches))
	for i, p := range patches {
		points[i] = direct.Point{
			Position: p.Centroid.Add(p.Normal.Multiply(1e-4)),
			Normal:   p.Normal,
		}
	}
	values := kernel.Evaluate(points)
	for i, p := range patches {
		p.DirectIrradiance = values[i]
		p.Emission = p.Reflectance * values[i]
		p.Radiosity = p.Emission
		p.Irradiance = 0
	}
}

// Solve iterates B_{t+1} = E + rho .* (F * B_t) with damping until the
// max-norm residual drops below the tolerance, the iteration cap is
// reached, or the residual blows up. cancel is checked between iterations
// only; a cancelled solve keeps its intermediate field and reports capped.
//
// With identical patches, matrix, settings and seed the residual and
// energy histories are bit-identical across runs for any worker count.
func Solve(patches []*Patch, formFactors [][]float64, s Settings, logger core.Logger, cancel func() bool) (*Result, error) {
	n := len(patches)
	result := &Result{Patches: patches, Status: StatusConverged}
	if n == 0 {
		return result, nil
	}
	if logger == nil {
		logger = core.NewSilentLogger()
	}

	damping := s.Damping
	if damping <= 0 || damping > 1 {
		damping = 1.0
	}
	tol := math.Max(s.Tolerance, 1e-12)
	maxIters := s.MaxIterations
	if maxIters < 1 {
		maxIters = 1
	}
	blowUp := s.BlowUpFactor
	if blowUp <= 1 {
		blowUp = 100
	}

	emission := make([]float64, n)
	reflectance := make([]float64, n)
	areas := make([]float64, n)
	b := make([]float64, n)
	bNext := make([]float64, n)
	gathered := make([]float64, n)
	var guard core.GuardCounter

	totalEmitted := 0.0
	for i, p := range patches {
		emission[i] = p.Emission
		reflectance[i] = math.Max(0, math.Min(0.999, p.Reflectance))
		areas[i] = p.Area
		b[i] = p.Emission
		totalEmitted += p.Emission * p.Area
	}

	diag := &result.Diagnostics
	firstResidual := 0.0
	status := StatusCapped

	for iter := 0; iter < maxIters; iter++ {
		if cancel != nil && cancel() {
			logger.Printf("radiosity: cancelled after %d iterations\n", iter)
			break
		}

		core.ParallelRanges(n, s.Workers, func(start, end int) {
			for i := start; i < end; i++ {
				sum := 0.0
				row := formFactors[i]
				for j, f := range row {
					if f != 0 {
						sum += f * b[j]
					}
				}
				gathered[i] = guard.Guard(sum)
				candidate := emission[i] + reflectance[i]*gathered[i]
				bNext[i] = guard.Guard((1-damping)*b[i] + damping*candidate)
			}
		})

		residual := 0.0
		sumSq := 0.0
		for i := 0; i < n; i++ {
			change := math.Abs(bNext[i] - b[i])
			if change > residual {
				residual = change
			}
			sumSq += change * change
		}
		b, bNext = bNext, b

		// Energy balance closure: exitance should equal emission plus the
		// reflected share of gathered irradiance.
		totalExitance := 0.0
		totalReflected := 0.0
		for i := 0; i < n; i++ {
			totalExitance += b[i] * areas[i]
			totalReflected += reflectance[i] * gathered[i] * areas[i]
		}
		energyErr := math.Abs(totalExitance-(totalEmitted+totalReflected)) / math.Max(totalEmitted, 1)

		diag.Iterations = iter + 1
		diag.FinalResidual = residual
		diag.MaxResidual = math.Max(diag.MaxResidual, residual)
		diag.Residuals = append(diag.Residuals, residual)
		diag.ResidualsL2 = append(diag.ResidualsL2, math.Sqrt(sumSq/float64(n)))
		diag.EnergyErrors = append(diag.EnergyErrors, energyErr)

		if iter == 0 {
			firstResidual = residual
		}

		if residual > blowUp*math.Max(firstResidual, tol) ||
			totalExitance > 10*math.Max(totalEmitted, 1e-9) {
			diag.GuardCount = guard.Count()
			logger.Printf("radiosity: diverged at iteration %d (residual %g)\n", iter+1, residual)
			return nil, &core.DivergenceError{
				Iteration: iter + 1,
				Residual:  residual,
				Residuals: append([]float64(nil), diag.Residuals...),
			}
		}

		if residual <= tol {
			status = StatusConverged
			break
		}
	}

	// Gather once more from the final field so the published irradiance is
	// consistent with the published radiosity, not one iterate stale.
	core.ParallelRanges(n, s.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			sum := 0.0
			for j, f := range formFactors[i] {
				if f != 0 {
					sum += f * b[j]
				}
			}
			gathered[i] = guard.Guard(sum)
		}
	})

	for i, p := range patches {
		p.Radiosity = b[i]
		p.Irradiance = gathered[i]
	}
	diag.GuardCount = guard.Count()
	result.Status = status
	logger.Printf("radiosity: %s after %d iterations (residual %g)\n",
		status, diag.Iterations, diag.FinalResidual)
	return result, nil
}

// SurfaceIrradiance returns the area-weighted average total irradiance
// (direct plus interreflected) over a surface's patches.
func (r *Result) SurfaceIrradiance(surfaceID string) float64 {
	sum, area := 0.0, 0.0
	for _, p := range r.Patches {
		if p.SurfaceID == surfaceID {
			sum += p.TotalIrradiance() * p.Area
			area += p.Area
		}
	}
	if area < 1e-12 {
		return 0
	}
	return sum / area
}

// SurfaceRadiosity returns the area-weighted average exitance over a
// surface's patches.
func (r *Result) SurfaceRadiosity(surfaceID string) float64 {
	sum, area := 0.0, 0.0
	for _, p := range r.Patches {
		if p.SurfaceID == surfaceID {
			sum += p.Radiosity * p.Area
			area += p.Area
		}
	}
	if area < 1e-12 {
		return 0
	}
	return sum / area
}

// AverageRadiosity returns the area-weighted average exitance over all
// patches. The glare evaluator derives background luminance from it.
func (r *Result) AverageRadiosity() float64 {
	sum, area := 0.0, 0.0
	for _, p := range r.Patches {
		sum += p.Radiosity * p.Area
		area += p.Area
	}
	if area < 1e-12 {
		return 0
	}
	return sum / area
}
