package glare

import (
	"math"
	"sort"

	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/direct"
)

// Observer is one glare evaluation viewpoint: a floor position, an eye
// height above it, and a view direction.
type Observer struct {
	Position      core.Vec3
	EyeHeight     float64
	ViewDirection core.Vec3
	Label         string
}

// EyePosition returns the world-space eye point.
func (o Observer) EyePosition() core.Vec3 {
	return o.Position.Add(core.NewVec3(0, 0, o.EyeHeight))
}

// Settings configures UGR evaluation.
type Settings struct {
	// Indexer is the position-index strategy; nil selects GuthIndexer.
	Indexer PositionIndexer
	// Epsilon guards divisions and the behind-observer test.
	Epsilon float64
	// MinDistance skips luminaires essentially at the eye point.
	MinDistance float64
}

// DefaultSettings returns the standard configuration.
func DefaultSettings() Settings {
	return Settings{Indexer: GuthIndexer{}, Epsilon: 1e-9, MinDistance: 0.1}
}

// Contribution is one luminaire's share of a UGR sum, for debug ranking.
type Contribution struct {
	LuminaireID   string
	Luminance     float64 // cd/m² toward the observer
	SolidAngle    float64 // sr
	PositionIndex float64
	Value         float64 // L² * omega / p²
}

// Result is the UGR evaluation of one observer view. Contributions are
// ranked by descending value with ties broken by ascending luminaire ID.
type Result struct {
	Observer            Observer
	UGR                 float64
	BackgroundLuminance float64
	Contributions       []Contribution
}

// Class snaps the UGR value to the standard reporting scale
// (10, 13, 16, 19, 22, 25, 28).
func (r *Result) Class() int {
	for _, limit := range []int{10, 13, 16, 19, 22, 25} {
		if r.UGR <= float64(limit) {
			return limit
		}
	}
	return 28
}

// CompliesWith reports whether the view stays within a UGR limit.
func (r *Result) CompliesWith(limit float64) bool {
	return r.UGR <= limit
}

// Engine evaluates the Unified Glare Rating for observer views. It shares
// the direct kernel's resolved luminaires and distributions so glare
// sampling uses the same photometric data as illuminance.
type Engine struct {
	kernel   *direct.Kernel
	settings Settings
}

// NewEngine creates a UGR engine over the kernel's luminaire set.
func NewEngine(kernel *direct.Kernel, settings Settings) *Engine {
	if settings.Indexer == nil {
		settings.Indexer = GuthIndexer{}
	}
	if settings.Epsilon <= 0 {
		settings.Epsilon = 1e-9
	}
	if settings.MinDistance <= 0 {
		settings.MinDistance = 0.1
	}
	return &Engine{kernel: kernel, settings: settings}
}

// BackgroundLuminance converts an area-averaged surface exitance (lm/m²)
// on the room's bounding surfaces into a Lambertian background luminance
// (cd/m²).
func BackgroundLuminance(averageExitance float64) float64 {
	return averageExitance / math.Pi
}

// Evaluate computes the UGR for one observer view:
//
//	UGR = clamp(8 * log10(0.25/Lb * sum(L²*omega/p²)), 0, 40)
//
// returning 0 when the sum term is non-positive. Luminaires behind the
// observer are excluded.
func (e *Engine) Evaluate(obs Observer, backgroundLuminance float64) Result {
	eps := e.settings.Epsilon
	eye := obs.EyePosition()
	view := obs.ViewDirection.Normalize()
	frame := newViewFrame(view)

	result := Result{
		Observer:            obs,
		BackgroundLuminance: backgroundLuminance,
	}

	sum := 0.0
	for i, lum := range e.kernel.Luminaires() {
		toLum := lum.Position.Subtract(eye)
		dist := toLum.Length()
		if dist < e.settings.MinDistance {
			continue
		}
		dir := toLum.Multiply(1.0 / dist)

		// Behind the observer
		if view.Dot(dir) <= eps {
			continue
		}

		// Apparent luminous area as seen from the eye
		toObserver := dir.Negate()
		cosEmit := lum.OpticalAxis().Dot(toObserver)
		apparentArea := lum.LuminousArea * math.Max(0, cosEmit)
		omega := math.Max(0, math.Min(apparentArea/(dist*dist), 2*math.Pi))
		if omega <= 0 {
			continue
		}

		local := lum.Orientation.ToLocal(dir)
		intensity, err := e.kernel.Distribution(i).Sample(local)
		if err != nil {
			continue
		}
		intensity *= lum.OutputScale()

		luminance := intensity / math.Max(apparentArea, eps)

		hDeg, tDeg := frame.offAxisAngles(dir)
		p := e.settings.Indexer.PositionIndex(hDeg, tDeg)
		if p <= 0 {
			p = 1
		}

		value := luminance * luminance * omega / (p * p)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		sum += value

		result.Contributions = append(result.Contributions, Contribution{
			LuminaireID:   lum.ID,
			Luminance:     luminance,
			SolidAngle:    omega,
			PositionIndex: p,
			Value:         value,
		})
	}

	logTerm := 0.25 / math.Max(backgroundLuminance, eps) * sum
	if logTerm > 0 {
		ugr := 8 * math.Log10(math.Max(logTerm, eps))
		result.UGR = math.Max(0, math.Min(40, ugr))
	}

	sort.Slice(result.Contributions, func(i, j int) bool {
		a, b := result.Contributions[i], result.Contributions[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return a.LuminaireID < b.LuminaireID
	})

	return result
}

// EvaluateViews evaluates every observer view and returns the results plus
// the index of the worst (highest UGR) view, or -1 when no views were given.
func (e *Engine) EvaluateViews(observers []Observer, backgroundLuminance float64) ([]Result, int) {
	results := make([]Result, len(observers))
	worst := -1
	for i, obs := range observers {
		results[i] = e.Evaluate(obs, backgroundLuminance)
		if worst < 0 || results[i].UGR > results[worst].UGR {
			worst = i
		}
	}
	return results, worst
}

// viewFrame is an observer-centered orthonormal frame: forward along the
// view direction, right and up spanning the image plane.
type viewFrame struct {
	forward, right, up core.Vec3
}

func newViewFrame(view core.Vec3) viewFrame {
	forward := view.Normalize()
	worldUp := core.NewVec3(0, 0, 1)
	right := forward.Cross(worldUp)
	if right.LengthSquared() < 1e-12 {
		right = forward.Cross(core.NewVec3(0, 1, 0))
	}
	right = right.Normalize()
	up := right.Cross(forward)
	return viewFrame{forward: forward, right: right, up: up}
}

// offAxisAngles returns the vertical and horizontal angular offsets in
// degrees of a unit direction from the frame's forward axis.
func (f viewFrame) offAxisAngles(dir core.Vec3) (hDeg, tDeg float64) {
	x := dir.Dot(f.right)
	y := dir.Dot(f.up)
	z := dir.Dot(f.forward)
	if z < 1e-12 {
		z = 1e-12
	}
	hDeg = math.Atan2(math.Abs(y), z) * 180.0 / math.Pi
	tDeg = math.Atan2(math.Abs(x), z) * 180.0 / math.Pi
	return hDeg, tDeg
}
