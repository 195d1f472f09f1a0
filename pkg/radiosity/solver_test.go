package radiosity

import (
	"errors"
	"math"
	"testing"

	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/direct"
	"github.com/luxera/luxcalc/pkg/geometry"
	"github.com/luxera/luxcalc/pkg/photometry"
)

// roomSolveSetup builds a room scene with one uniform luminaire and returns
// seeded patches ready for a solve.
func roomSolveSetup(t *testing.T, reflectances geometry.RoomReflectances, maxPatchArea float64) []*Patch {
	t.Helper()
	surfaces, err := geometry.NewRectangularRoom(core.Vec3{}, 4, 4, 3, reflectances)
	if err != nil {
		t.Fatalf("NewRectangularRoom failed: %v", err)
	}

	cache := photometry.NewCache()
	d, err := photometry.NewUniformDistribution(1000)
	if err != nil {
		t.Fatalf("Failed to build distribution: %v", err)
	}
	hash := cache.Put(d)
	lum := photometry.NewLuminaire("L1", core.NewVec3(2, 2, 2.8), hash)

	kernel, err := direct.NewKernel([]*photometry.Luminaire{lum}, cache, nil, direct.DefaultSettings())
	if err != nil {
		t.Fatalf("NewKernel failed: %v", err)
	}

	patches, err := Subdivide(surfaces, maxPatchArea)
	if err != nil {
		t.Fatalf("Subdivide failed: %v", err)
	}
	SeedDirect(patches, kernel)
	return patches
}

func TestSolve_ZeroReflectanceReducesToDirect(t *testing.T) {
	patches := roomSolveSetup(t, geometry.RoomReflectances{}, 4.0)
	f := BuildFormFactorMatrix(patches, nil, DefaultFormFactorConfig())

	result, err := Solve(patches, f, DefaultSettings(), nil, nil)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Status != StatusConverged {
		t.Fatalf("Expected converged status, got %s", result.Status)
	}

	for i, p := range patches {
		if p.Radiosity != 0 {
			t.Errorf("Patch %d: expected zero exitance in a black room, got %g", i, p.Radiosity)
		}
		if p.TotalIrradiance() != p.DirectIrradiance {
			t.Errorf("Patch %d: expected total irradiance to equal direct, got %g vs %g",
				i, p.TotalIrradiance(), p.DirectIrradiance)
		}
	}
}

func TestSolve_TwoPatchFixedPoint(t *testing.T) {
	// Two facing patches with symmetric emission. The fixed point is
	// B = E / (1 - rho*F) on both.
	formFactor := 0.5 / math.Pi
	mk := func(z, nz float64) *Patch {
		return &Patch{
			Centroid:    core.NewVec3(0, 0, z),
			Normal:      core.NewVec3(0, 0, nz),
			Area:        0.5,
			Reflectance: 0.5,
			Emission:    1.0,
		}
	}
	patches := []*Patch{mk(0, 1), mk(1, -1)}
	f := [][]float64{{0, formFactor}, {formFactor, 0}}

	settings := DefaultSettings()
	settings.Tolerance = 1e-9
	settings.MaxIterations = 1000
	result, err := Solve(patches, f, settings, nil, nil)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Status != StatusConverged {
		t.Fatalf("Expected converged status, got %s", result.Status)
	}

	expected := 1.0 / (1.0 - 0.5*formFactor)
	for i, p := range patches {
		if math.Abs(p.Radiosity-expected) > 1e-6 {
			t.Errorf("Patch %d: expected exitance %g, got %g", i, expected, p.Radiosity)
		}
	}
}

func TestSolve_CappedIrradianceMatchesFinalField(t *testing.T) {
	// One emitting and one dark patch, capped after a single iteration. The
	// published irradiance must be gathered from the final exitance field,
	// so the dark patch's reflection shows up back on the emitter.
	formFactor := 0.5 / math.Pi
	mk := func(z, nz, emission float64) *Patch {
		return &Patch{
			Centroid:    core.NewVec3(0, 0, z),
			Normal:      core.NewVec3(0, 0, nz),
			Area:        1.0,
			Reflectance: 0.5,
			Emission:    emission,
		}
	}
	patches := []*Patch{mk(0, 1, 1.0), mk(1, -1, 0.0)}
	f := [][]float64{{0, formFactor}, {formFactor, 0}}

	settings := DefaultSettings()
	settings.Tolerance = 1e-12
	settings.MaxIterations = 1
	result, err := Solve(patches, f, settings, nil, nil)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Status != StatusCapped {
		t.Fatalf("Expected capped status, got %s", result.Status)
	}

	// After one iteration B = [1, 0.5*f]; gathering from that field gives
	// [0.5*f*f, f].
	wantRadiosity := []float64{1.0, 0.5 * formFactor}
	wantIrradiance := []float64{0.5 * formFactor * formFactor, formFactor}
	for i, p := range patches {
		if math.Abs(p.Radiosity-wantRadiosity[i]) > 1e-12 {
			t.Errorf("Patch %d: expected exitance %g, got %g", i, wantRadiosity[i], p.Radiosity)
		}
		if math.Abs(p.Irradiance-wantIrradiance[i]) > 1e-12 {
			t.Errorf("Patch %d: expected gathered irradiance %g, got %g",
				i, wantIrradiance[i], p.Irradiance)
		}
	}
}

func TestSolve_ConvergesInRealRoom(t *testing.T) {
	patches := roomSolveSetup(t, geometry.DefaultRoomReflectances(), 2.0)
	f := BuildFormFactorMatrix(patches, nil, DefaultFormFactorConfig())

	result, err := Solve(patches, f, DefaultSettings(), nil, nil)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Status != StatusConverged {
		t.Fatalf("Expected converged status, got %s", result.Status)
	}

	diag := result.Diagnostics
	if diag.Iterations < 2 {
		t.Errorf("Expected at least 2 iterations in a reflective room, got %d", diag.Iterations)
	}
	if len(diag.Residuals) != diag.Iterations || len(diag.EnergyErrors) != diag.Iterations {
		t.Errorf("Expected %d history entries, got %d residuals and %d energy errors",
			diag.Iterations, len(diag.Residuals), len(diag.EnergyErrors))
	}
	if diag.FinalResidual > 1e-3 {
		t.Errorf("Expected final residual within tolerance, got %g", diag.FinalResidual)
	}

	// Interreflection adds light on top of the direct field.
	indirect := 0.0
	for _, p := range patches {
		if p.Irradiance < 0 {
			t.Fatalf("Negative indirect irradiance %g on patch %d", p.Irradiance, p.Index)
		}
		indirect += p.Irradiance
	}
	if indirect <= 0 {
		t.Error("Expected positive interreflected light in a reflective room")
	}
}

func TestSolve_DeterministicHistories(t *testing.T) {
	patches := roomSolveSetup(t, geometry.DefaultRoomReflectances(), 2.0)
	f := BuildFormFactorMatrix(patches, nil, DefaultFormFactorConfig())

	settings := DefaultSettings()
	settings.Workers = 1
	r1, err := Solve(patches, f, settings, nil, nil)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	settings.Workers = 8
	r8, err := Solve(patches, f, settings, nil, nil)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if len(r1.Diagnostics.Residuals) != len(r8.Diagnostics.Residuals) {
		t.Fatalf("History lengths differ across worker counts: %d vs %d",
			len(r1.Diagnostics.Residuals), len(r8.Diagnostics.Residuals))
	}
	for i := range r1.Diagnostics.Residuals {
		if r1.Diagnostics.Residuals[i] != r8.Diagnostics.Residuals[i] {
			t.Fatalf("Residual %d differs across worker counts: %g vs %g",
				i, r1.Diagnostics.Residuals[i], r8.Diagnostics.Residuals[i])
		}
		if r1.Diagnostics.EnergyErrors[i] != r8.Diagnostics.EnergyErrors[i] {
			t.Fatalf("Energy error %d differs across worker counts: %g vs %g",
				i, r1.Diagnostics.EnergyErrors[i], r8.Diagnostics.EnergyErrors[i])
		}
	}
}

func TestSolve_Divergence(t *testing.T) {
	mk := func(z, nz float64) *Patch {
		return &Patch{
			Centroid:    core.NewVec3(0, 0, z),
			Normal:      core.NewVec3(0, 0, nz),
			Area:        1.0,
			Reflectance: 0.999,
			Emission:    1.0,
		}
	}
	patches := []*Patch{mk(0, 1), mk(1, -1)}
	// Physically impossible transfer matrix forces an energy blow-up.
	f := [][]float64{{0, 50}, {50, 0}}

	_, err := Solve(patches, f, DefaultSettings(), nil, nil)
	if err == nil {
		t.Fatal("Expected divergence error, got nil")
	}
	if !errors.Is(err, core.ErrDivergence) {
		t.Fatalf("Expected ErrDivergence, got %v", err)
	}

	var divErr *core.DivergenceError
	if !errors.As(err, &divErr) {
		t.Fatalf("Expected *core.DivergenceError, got %T", err)
	}
	if divErr.Iteration < 1 {
		t.Errorf("Expected a positive abort iteration, got %d", divErr.Iteration)
	}
	if len(divErr.Residuals) != divErr.Iteration {
		t.Errorf("Expected %d residual history entries, got %d", divErr.Iteration, len(divErr.Residuals))
	}
}

func TestSolve_Cancellation(t *testing.T) {
	patches := roomSolveSetup(t, geometry.DefaultRoomReflectances(), 2.0)
	f := BuildFormFactorMatrix(patches, nil, DefaultFormFactorConfig())

	result, err := Solve(patches, f, DefaultSettings(), nil, func() bool { return true })
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Status != StatusCapped {
		t.Errorf("Expected capped status after cancellation, got %s", result.Status)
	}
	if result.Diagnostics.Iterations != 0 {
		t.Errorf("Expected 0 completed iterations, got %d", result.Diagnostics.Iterations)
	}
}

func TestResult_SurfaceAverages(t *testing.T) {
	patches := roomSolveSetup(t, geometry.DefaultRoomReflectances(), 2.0)
	f := BuildFormFactorMatrix(patches, nil, DefaultFormFactorConfig())

	result, err := Solve(patches, f, DefaultSettings(), nil, nil)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	floor := result.SurfaceIrradiance("floor")
	if floor <= 0 {
		t.Errorf("Expected positive floor irradiance, got %g", floor)
	}
	if result.SurfaceRadiosity("ceiling") < 0 {
		t.Errorf("Expected non-negative ceiling exitance, got %g", result.SurfaceRadiosity("ceiling"))
	}
	if result.AverageRadiosity() <= 0 {
		t.Errorf("Expected positive room-average exitance, got %g", result.AverageRadiosity())
	}
	if result.SurfaceIrradiance("no-such-surface") != 0 {
		t.Error("Expected 0 for an unknown surface ID")
	}
}
