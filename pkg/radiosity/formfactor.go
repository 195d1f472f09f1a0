package radiosity

import (
	"math"
	"math/rand"

	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/geometry"
)

// FormFactorMethod selects how patch-pair form factors are computed.
type FormFactorMethod int

const (
	// Analytic uses the point-to-point approximation over patch centroids.
	Analytic FormFactorMethod = iota
	// MonteCarlo averages jittered sample-pair contributions.
	MonteCarlo
)

// FormFactorConfig configures form-factor matrix construction.
type FormFactorConfig struct {
	Method FormFactorMethod
	// Visibility gates transfer through the acceleration structure.
	Visibility bool
	// Samples is the Monte Carlo sample-pair count per patch pair.
	Samples int
	// Seed drives the per-row sample generators. Identical seeds yield
	// bit-identical matrices regardless of worker count.
	Seed int64
	// Workers bounds row-level parallelism; <= 0 selects the CPU count.
	Workers int
}

// DefaultFormFactorConfig returns analytic factors without visibility.
func DefaultFormFactorConfig() FormFactorConfig {
	return FormFactorConfig{Method: Analytic, Samples: 16}
}

// AnalyticFormFactor returns the point-to-point form factor from patch j to
// patch i:
//
//	F = cos(theta_i) * cos(theta_j) * A_j / (pi * r^2)
//
// Zero when the patches face away from each other or are coincident.
func AnalyticFormFactor(pi, pj *Patch) float64 {
	rVec := pj.Centroid.Subtract(pi.Centroid)
	rSq := rVec.LengthSquared()
	if rSq < 1e-12 {
		return 0
	}
	r := math.Sqrt(rSq)
	rDir := rVec.Multiply(1.0 / r)

	cosI := pi.Normal.Dot(rDir)
	cosJ := -pj.Normal.Dot(rDir)
	if cosI <= 0 || cosJ <= 0 {
		return 0
	}

	f := cosI * cosJ * pj.Area / (math.Pi * rSq)
	return math.Max(0, math.Min(1, f))
}

// monteCarloFormFactor estimates the form factor from patch j to patch i by
// averaging jittered point-pair contributions, optionally gating each pair's
// visibility through the BVH.
func monteCarloFormFactor(pi, pj *Patch, samples int, rng *rand.Rand, bvh *geometry.BVH, visibility bool) float64 {
	if samples < 1 {
		samples = 1
	}
	total := 0.0
	for s := 0; s < samples; s++ {
		a := pi.pointAt(rng.Float64(), rng.Float64())
		b := pj.pointAt(rng.Float64(), rng.Float64())

		if visibility && bvh != nil && bvh.Occluded(a, b) {
			continue
		}

		rVec := b.Subtract(a)
		rSq := rVec.LengthSquared()
		if rSq < 1e-12 {
			continue
		}
		r := math.Sqrt(rSq)
		rDir := rVec.Multiply(1.0 / r)
		cosI := pi.Normal.Dot(rDir)
		cosJ := -pj.Normal.Dot(rDir)
		if cosI <= 0 || cosJ <= 0 {
			continue
		}
		total += cosI * cosJ / (math.Pi * rSq)
	}

	f := total / float64(samples) * pj.Area
	return math.Max(0, math.Min(1, f))
}

// BuildFormFactorMatrix computes the full ordered-pair matrix F where
// F[i][j] is the fraction of energy leaving patch j that arrives at patch i.
// Each row is normalized to sum to at most 1 so numerical overshoot cannot
// create energy. Rows are computed in parallel with per-row derived seeds,
// so the matrix is identical for any worker count.
func BuildFormFactorMatrix(patches []*Patch, bvh *geometry.BVH, cfg FormFactorConfig) [][]float64 {
	n := len(patches)
	f := make([][]float64, n)

	core.ParallelRanges(n, cfg.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			row := make([]float64, n)
			var rng *rand.Rand
			if cfg.Method == MonteCarlo {
				rng = rand.New(rand.NewSource(cfg.Seed + int64(i)*0x9e3779b9))
			}
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				switch cfg.Method {
				case MonteCarlo:
					row[j] = monteCarloFormFactor(patches[i], patches[j], cfg.Samples, rng, bvh, cfg.Visibility)
				default:
					v := AnalyticFormFactor(patches[i], patches[j])
					if v > 0 && cfg.Visibility && bvh != nil && bvh.Occluded(patches[i].Centroid, patches[j].Centroid) {
						v = 0
					}
					row[j] = v
				}
			}
			normalizeRow(row)
			f[i] = row
		}
	})

	return f
}

// normalizeRow rescales a row whose sum exceeds 1 (energy conservation
// against numerical overshoot).
func normalizeRow(row []float64) {
	sum := 0.0
	for _, v := range row {
		sum += v
	}
	if sum > 1.0 {
		inv := 1.0 / sum
		for j := range row {
			row[j] *= inv
		}
	}
}
