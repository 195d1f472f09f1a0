package engine

import (
	"github.com/luxera/luxcalc/pkg/direct"
	"github.com/luxera/luxcalc/pkg/geometry"
	"github.com/luxera/luxcalc/pkg/glare"
	"github.com/luxera/luxcalc/pkg/photometry"
	"github.com/luxera/luxcalc/pkg/radiosity"
)

// Scene is the fully materialized input snapshot for a job: triangulated
// geometry, placed luminaires, and the distribution cache. Nothing here is
// read from the network or disk during calculation.
type Scene struct {
	Surfaces   []*geometry.Surface
	Luminaires []*photometry.Luminaire
	Cache      *photometry.Cache

	// OcclusionEpsilon configures shadow-segment endpoint shaving; <= 0
	// selects the BVH default.
	OcclusionEpsilon float64
}

// Job is the closed set of calculation job kinds, each carrying its own
// typed settings. The runner dispatches with an exhaustive type switch;
// there is no runtime plugin registry.
type Job interface {
	isJob()
}

// DirectJob evaluates direct illuminance at explicit calculation points.
type DirectJob struct {
	Points   []direct.Point
	Settings direct.Settings
	// Workers and BatchSize control the point worker pool; zero values
	// select CPU count and a proportional batch size.
	Workers   int
	BatchSize int
}

func (DirectJob) isJob() {}

// RadiosityJob runs the interreflection solve over the scene surfaces,
// seeding patch emission from the direct solution.
type RadiosityJob struct {
	Direct   direct.Settings
	Settings radiosity.Settings
}

func (RadiosityJob) isJob() {}

// UGRJob evaluates glare for a set of observer views. Background luminance
// comes from the radiosity solution when WithRadiosity is set, otherwise
// from the direct solution on the scene surfaces.
type UGRJob struct {
	Observers     []glare.Observer
	Settings      glare.Settings
	Direct        direct.Settings
	WithRadiosity bool
	Radiosity     radiosity.Settings
}

func (UGRJob) isJob() {}

// DirectResult is the published output of a DirectJob.
type DirectResult struct {
	Points     []direct.Point
	Values     []float64 // lux, parallel to Points
	Summary    direct.Summary
	GuardCount int64
}

// UGRResult is the published output of a UGRJob.
type UGRResult struct {
	Views               []glare.Result
	WorstIndex          int
	BackgroundLuminance float64
}

// JobResult carries exactly one populated field depending on the job kind.
type JobResult struct {
	Direct    *DirectResult
	Radiosity *radiosity.Result
	UGR       *UGRResult
}
