package engine

import (
	"context"
	"fmt"

	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/direct"
	"github.com/luxera/luxcalc/pkg/geometry"
	"github.com/luxera/luxcalc/pkg/glare"
	"github.com/luxera/luxcalc/pkg/radiosity"
)

// Runner executes calculation jobs against a scene snapshot. Each Run
// builds the acceleration structure once, shares it read-only across all
// concurrent queries, and produces either a complete result or an error,
// never a partial artifact.
type Runner struct {
	logger core.Logger
}

// NewRunner creates a job runner. A nil logger discards output.
func NewRunner(logger core.Logger) *Runner {
	if logger == nil {
		logger = core.NewSilentLogger()
	}
	return &Runner{logger: logger}
}

// Run dispatches the job by kind. The context is honored cooperatively
// between point batches and radiosity iterations.
func (r *Runner) Run(ctx context.Context, scene *Scene, job Job) (*JobResult, error) {
	bvh := geometry.NewBVH(scene.Surfaces, scene.OcclusionEpsilon)

	switch j := job.(type) {
	case DirectJob:
		return r.runDirect(ctx, scene, bvh, j)
	case RadiosityJob:
		return r.runRadiosity(ctx, scene, bvh, j)
	case UGRJob:
		return r.runUGR(ctx, scene, bvh, j)
	default:
		return nil, fmt.Errorf("unknown job kind %T", job)
	}
}

func (r *Runner) runDirect(ctx context.Context, scene *Scene, bvh *geometry.BVH, job DirectJob) (*JobResult, error) {
	kernel, err := direct.NewKernel(scene.Luminaires, scene.Cache, bvh, job.Settings)
	if err != nil {
		return nil, err
	}

	values, err := r.evaluatePoints(ctx, kernel, job.Points, job.Workers, job.BatchSize)
	if err != nil {
		return nil, err
	}

	r.logger.Printf("direct: %d points, %d luminaires, mean %.2f lux\n",
		len(job.Points), len(kernel.Luminaires()), direct.Summarize(values).Mean)

	return &JobResult{Direct: &DirectResult{
		Points:     job.Points,
		Values:     values,
		Summary:    direct.Summarize(values),
		GuardCount: kernel.GuardCount(),
	}}, nil
}

// evaluatePoints fans point batches out to the worker pool. Every batch
// writes only its own index range of the shared slice, so the assembled
// result is identical for any worker count or completion order.
func (r *Runner) evaluatePoints(ctx context.Context, kernel *direct.Kernel, points []direct.Point, workers, batchSize int) ([]float64, error) {
	values := make([]float64, len(points))
	if len(points) == 0 {
		return values, nil
	}
	if batchSize <= 0 {
		batchSize = 256
	}

	numBatches := (len(points) + batchSize - 1) / batchSize
	pool := NewWorkerPool(ctx, kernel, workers, numBatches)
	pool.Start()

	for i := 0; i < numBatches; i++ {
		start := i * batchSize
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}
		pool.Submit(PointBatch{
			TaskID: i,
			Start:  start,
			Points: points[start:end],
			Values: values,
		})
	}
	pool.Stop()

	var firstErr error
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Err != nil && firstErr == nil {
			firstErr = result.Err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return values, nil
}

func (r *Runner) runRadiosity(ctx context.Context, scene *Scene, bvh *geometry.BVH, job RadiosityJob) (*JobResult, error) {
	result, err := r.solveRadiosity(ctx, scene, bvh, job.Direct, job.Settings)
	if err != nil {
		return nil, err
	}
	return &JobResult{Radiosity: result}, nil
}

func (r *Runner) solveRadiosity(ctx context.Context, scene *Scene, bvh *geometry.BVH, directSettings direct.Settings, settings radiosity.Settings) (*radiosity.Result, error) {
	kernel, err := direct.NewKernel(scene.Luminaires, scene.Cache, bvh, directSettings)
	if err != nil {
		return nil, err
	}

	patches, err := radiosity.Subdivide(scene.Surfaces, settings.MaxPatchArea)
	if err != nil {
		return nil, err
	}
	radiosity.SeedDirect(patches, kernel)

	r.logger.Printf("radiosity: %d surfaces subdivided into %d patches\n",
		len(scene.Surfaces), len(patches))

	formFactors := radiosity.BuildFormFactorMatrix(patches, bvh, settings.FormFactors)

	cancel := func() bool { return ctx.Err() != nil }
	return radiosity.Solve(patches, formFactors, settings, r.logger, cancel)
}

func (r *Runner) runUGR(ctx context.Context, scene *Scene, bvh *geometry.BVH, job UGRJob) (*JobResult, error) {
	kernel, err := direct.NewKernel(scene.Luminaires, scene.Cache, bvh, job.Direct)
	if err != nil {
		return nil, err
	}

	// Background luminance from the room-average exitance on bounding
	// surfaces: the radiosity field when requested, otherwise the first
	// reflection of the direct solution.
	var averageExitance float64
	if job.WithRadiosity {
		radResult, err := r.solveRadiosity(ctx, scene, bvh, job.Direct, job.Radiosity)
		if err != nil {
			return nil, err
		}
		averageExitance = radResult.AverageRadiosity()
	} else {
		patches, err := radiosity.Subdivide(scene.Surfaces, job.Radiosity.MaxPatchArea)
		if err != nil {
			return nil, err
		}
		radiosity.SeedDirect(patches, kernel)
		sum, area := 0.0, 0.0
		for _, p := range patches {
			sum += p.Emission * p.Area
			area += p.Area
		}
		if area > 0 {
			averageExitance = sum / area
		}
	}

	lb := glare.BackgroundLuminance(averageExitance)
	engine := glare.NewEngine(kernel, job.Settings)
	views, worst := engine.EvaluateViews(job.Observers, lb)

	if worst >= 0 {
		r.logger.Printf("ugr: %d views, worst %.1f (%s)\n",
			len(views), views[worst].UGR, views[worst].Observer.Label)
	}

	return &JobResult{UGR: &UGRResult{
		Views:               views,
		WorstIndex:          worst,
		BackgroundLuminance: lb,
	}}, nil
}
