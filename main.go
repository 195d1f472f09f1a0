package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/direct"
	"github.com/luxera/luxcalc/pkg/engine"
	"github.com/luxera/luxcalc/pkg/geometry"
	"github.com/luxera/luxcalc/pkg/glare"
	"github.com/luxera/luxcalc/pkg/photometry"
	"github.com/luxera/luxcalc/pkg/radiosity"
	"github.com/luxera/luxcalc/pkg/viz"
)

func main() {
	// Parse command line flags
	width := flag.Float64("width", 6, "Room width in meters (X)")
	length := flag.Float64("length", 8, "Room length in meters (Y)")
	height := flag.Float64("height", 3, "Room height in meters (Z)")
	intensity := flag.Float64("intensity", 1000, "Luminaire intensity in candela (uniform distribution)")
	gridX := flag.Int("nx", 24, "Calculation grid columns")
	gridY := flag.Int("ny", 32, "Calculation grid rows")
	workers := flag.Int("workers", 0, "Worker count (0 = all CPUs)")
	indirect := flag.Bool("indirect", true, "Include interreflected light (radiosity)")
	scale := flag.Int("scale", 16, "Heat map upscale factor")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Luxcalc demo runner")
		fmt.Println("Usage: luxcalc [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Builds a rectangular room lit by a 2x3 luminaire layout, computes")
		fmt.Println("working-plane illuminance, optional interreflections, and UGR for a")
		fmt.Println("seated observer. Output is saved to output/heatmap_<timestamp>.webp")
		return
	}

	fmt.Println("Starting lighting calculation...")

	logger := core.NewDefaultLogger()
	scene, err := buildScene(*width, *length, *height, *intensity)
	if err != nil {
		fmt.Printf("Error building scene: %v\n", err)
		os.Exit(1)
	}

	points := direct.HorizontalGrid(core.Vec3{}, *width, *length, 0.8, *gridX, *gridY)
	fmt.Printf("Room %gx%gx%g m, %d luminaires, %d calculation points\n",
		*width, *length, *height, len(scene.Luminaires), len(points))

	runner := engine.NewRunner(logger)
	ctx := context.Background()

	// Direct component
	startTime := time.Now()
	directResult, err := runner.Run(ctx, scene, engine.DirectJob{
		Points:   points,
		Settings: direct.Settings{Occlusion: true, OcclusionEpsilon: geometry.DefaultOcclusionEpsilon, MinDistance: 1e-3},
		Workers:  *workers,
	})
	if err != nil {
		fmt.Printf("Direct calculation failed: %v\n", err)
		os.Exit(1)
	}
	values := directResult.Direct.Values
	summary := directResult.Direct.Summary
	fmt.Printf("Direct pass completed in %v\n", time.Since(startTime))
	fmt.Printf("Direct illuminance: min %.1f / avg %.1f / max %.1f lx (U0 %.2f)\n",
		summary.Min, summary.Mean, summary.Max, summary.UniformityRatio)

	// Interreflected component
	var radResult *radiosity.Result
	if *indirect {
		startTime = time.Now()
		jobResult, err := runner.Run(ctx, scene, engine.RadiosityJob{
			Direct:   direct.Settings{Occlusion: true, OcclusionEpsilon: geometry.DefaultOcclusionEpsilon, MinDistance: 1e-3},
			Settings: radiosity.DefaultSettings(),
		})
		if err != nil {
			fmt.Printf("Radiosity solve failed: %v\n", err)
			os.Exit(1)
		}
		radResult = jobResult.Radiosity
		diag := radResult.Diagnostics
		fmt.Printf("Radiosity %s after %d iterations in %v (residual %.2e)\n",
			radResult.Status, diag.Iterations, time.Since(startTime), diag.FinalResidual)
	}

	// Glare for an observer looking down the room
	observer := glare.Observer{
		Position:      core.Vec3{X: *width / 2, Y: 0.5, Z: 0},
		EyeHeight:     1.2,
		ViewDirection: core.Vec3{Y: 1},
		Label:         "seated",
	}
	ugrJob := engine.UGRJob{
		Observers:     []glare.Observer{observer},
		Settings:      glare.DefaultSettings(),
		Direct:        direct.Settings{Occlusion: true, OcclusionEpsilon: geometry.DefaultOcclusionEpsilon, MinDistance: 1e-3},
		WithRadiosity: radResult != nil,
		Radiosity:     radiosity.DefaultSettings(),
	}
	ugrResult, err := runner.Run(ctx, scene, ugrJob)
	if err != nil {
		fmt.Printf("UGR evaluation failed: %v\n", err)
		os.Exit(1)
	}
	view := ugrResult.UGR.Views[0]
	fmt.Printf("UGR at observer %q: %.1f (class %d)\n", view.Observer.Label, view.UGR, view.Class())

	// Save the working-plane heat map
	outputDir := "output"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	img := viz.Scale(viz.Heatmap(values, *gridX, *gridY), *scale)
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("heatmap_%s.webp", timestamp))
	if err := viz.WriteWebP(filename, img); err != nil {
		fmt.Printf("Error saving heat map: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Heat map saved as %s\n", filename)
}

// buildScene assembles a rectangular room with a regular 2x3 ceiling layout
// of identical downlights.
func buildScene(width, length, height, intensityCd float64) (*engine.Scene, error) {
	surfaces, err := geometry.NewRectangularRoom(core.Vec3{}, width, length, height, geometry.DefaultRoomReflectances())
	if err != nil {
		return nil, err
	}

	cache := photometry.NewCache()
	dist, err := photometry.NewUniformDistribution(intensityCd)
	if err != nil {
		return nil, err
	}
	hash := cache.Put(dist)

	var luminaires []*photometry.Luminaire
	id := 1
	for _, fx := range []float64{0.25, 0.75} {
		for _, fy := range []float64{1.0 / 6, 0.5, 5.0 / 6} {
			lum := photometry.NewLuminaire(
				fmt.Sprintf("L%d", id),
				core.Vec3{X: width * fx, Y: length * fy, Z: height - 0.05},
				hash,
			)
			lum.LuminousArea = 0.09
			luminaires = append(luminaires, lum)
			id++
		}
	}

	return &engine.Scene{
		Surfaces:         surfaces,
		Luminaires:       luminaires,
		Cache:            cache,
		OcclusionEpsilon: geometry.DefaultOcclusionEpsilon,
	}, nil
}
