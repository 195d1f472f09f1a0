package direct

import (
	"math"

	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/geometry"
	"github.com/luxera/luxcalc/pkg/photometry"
)

// Settings configures direct illuminance evaluation.
type Settings struct {
	// Occlusion enables binary shadow-ray testing against the BVH.
	Occlusion bool
	// OcclusionEpsilon shaves shadow-segment endpoints; <= 0 selects the
	// BVH default.
	OcclusionEpsilon float64
	// MinDistance guards the inverse-square law against points coincident
	// with a luminaire.
	MinDistance float64
}

// DefaultSettings returns sensible defaults (no occlusion).
func DefaultSettings() Settings {
	return Settings{
		Occlusion:        false,
		OcclusionEpsilon: geometry.DefaultOcclusionEpsilon,
		MinDistance:      1e-3,
	}
}

// Kernel evaluates direct illuminance at calculation points. Contributions
// accumulate over luminaires in ascending-ID order regardless of evaluation
// or completion order, so results are deterministic. All referenced
// distributions are resolved from the cache at construction; a missing
// reference fails the whole job with ErrMissingAsset before any point is
// evaluated.
type Kernel struct {
	luminaires    []*photometry.Luminaire
	distributions []*photometry.Distribution // parallel to luminaires
	bvh           *geometry.BVH
	settings      Settings
	guard         *core.GuardCounter
}

// NewKernel resolves every luminaire's distribution and returns a ready
// evaluator. The luminaire slice is copied and sorted by ID; the caller's
// slice is not modified.
func NewKernel(luminaires []*photometry.Luminaire, cache *photometry.Cache, bvh *geometry.BVH, settings Settings) (*Kernel, error) {
	sorted := make([]*photometry.Luminaire, len(luminaires))
	copy(sorted, luminaires)
	photometry.SortLuminaires(sorted)

	if settings.MinDistance <= 0 {
		settings.MinDistance = 1e-3
	}

	distributions := make([]*photometry.Distribution, len(sorted))
	for i, lum := range sorted {
		d, err := cache.Lookup(lum.DistributionHash)
		if err != nil {
			return nil, err
		}
		distributions[i] = d
	}

	return &Kernel{
		luminaires:    sorted,
		distributions: distributions,
		bvh:           bvh,
		settings:      settings,
		guard:         &core.GuardCounter{},
	}, nil
}

// EvaluatePoint returns the direct illuminance in lux at one point:
//
//	E = sum over luminaires of I(C,gamma)/d^2 * cos(theta) * mf * flux
//
// with the luminaire's contribution zeroed when the shadow segment is
// occluded.
func (k *Kernel) EvaluatePoint(p Point) float64 {
	total := 0.0
	for i, lum := range k.luminaires {
		total += k.contribution(i, lum, p)
	}
	return total
}

func (k *Kernel) contribution(i int, lum *photometry.Luminaire, p Point) float64 {
	toPoint := p.Position.Subtract(lum.Position)
	distSq := toPoint.LengthSquared()
	dist := math.Sqrt(distSq)
	if dist < k.settings.MinDistance {
		return 0
	}
	dir := toPoint.Multiply(1.0 / dist)

	// Angle of incidence at the point's normal; light from behind the
	// surface contributes nothing.
	cosTheta := -dir.Dot(p.Normal)
	if cosTheta <= 0 {
		return 0
	}

	if k.settings.Occlusion && k.bvh != nil && k.bvh.Occluded(lum.Position, p.Position) {
		return 0
	}

	local := lum.Orientation.ToLocal(dir)
	intensity, err := k.distributions[i].Sample(local)
	if err != nil {
		// dir is unit length by construction; a sampling error here means a
		// non-finite intermediate.
		return k.guard.Guard(math.NaN())
	}

	e := intensity * lum.OutputScale() * cosTheta / distSq
	return k.guard.Guard(e)
}

// Evaluate computes illuminance for every point, in order.
func (k *Kernel) Evaluate(points []Point) []float64 {
	values := make([]float64, len(points))
	k.EvaluateInto(points, values, 0)
	return values
}

// EvaluateInto writes results for points into values[offset:]. Batches with
// non-overlapping ranges may run concurrently on a shared slice; this is
// what the engine's worker pool does.
func (k *Kernel) EvaluateInto(points []Point, values []float64, offset int) {
	for i, p := range points {
		values[offset+i] = k.EvaluatePoint(p)
	}
}

// Luminaires returns the kernel's luminaires in evaluation (ascending ID)
// order.
func (k *Kernel) Luminaires() []*photometry.Luminaire {
	return k.luminaires
}

// Distribution returns the resolved distribution for luminaire index i in
// evaluation order.
func (k *Kernel) Distribution(i int) *photometry.Distribution {
	return k.distributions[i]
}

// GuardCount reports how many non-finite intermediates were replaced with
// zero during evaluation.
func (k *Kernel) GuardCount() int64 {
	return k.guard.Count()
}
