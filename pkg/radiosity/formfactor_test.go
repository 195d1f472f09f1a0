package radiosity

import (
	"math"
	"testing"

	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/geometry"
)

func facingPatches(area float64) (*Patch, *Patch) {
	pi := &Patch{Centroid: core.Vec3{}, Normal: core.NewVec3(0, 0, 1), Area: area}
	pj := &Patch{Centroid: core.NewVec3(0, 0, 1), Normal: core.NewVec3(0, 0, -1), Area: area}
	return pi, pj
}

func TestAnalyticFormFactor_FacingPatches(t *testing.T) {
	pi, pj := facingPatches(0.5)
	got := AnalyticFormFactor(pi, pj)
	expected := 0.5 / math.Pi // cosI = cosJ = 1, r = 1
	if math.Abs(got-expected) > 1e-12 {
		t.Errorf("Expected form factor %g, got %g", expected, got)
	}
}

func TestAnalyticFormFactor_FacingAway(t *testing.T) {
	pi, pj := facingPatches(0.5)
	pj.Normal = core.NewVec3(0, 0, 1) // now facing away from pi
	if got := AnalyticFormFactor(pi, pj); got != 0 {
		t.Errorf("Expected 0 for patches facing away, got %g", got)
	}

	pi2, pj2 := facingPatches(0.5)
	pj2.Centroid = pi2.Centroid // coincident
	if got := AnalyticFormFactor(pi2, pj2); got != 0 {
		t.Errorf("Expected 0 for coincident patches, got %g", got)
	}
}

func roomPatches(t *testing.T, maxArea float64) []*Patch {
	t.Helper()
	surfaces, err := geometry.NewRectangularRoom(core.Vec3{}, 4, 6, 3, geometry.DefaultRoomReflectances())
	if err != nil {
		t.Fatalf("NewRectangularRoom failed: %v", err)
	}
	patches, err := Subdivide(surfaces, maxArea)
	if err != nil {
		t.Fatalf("Subdivide failed: %v", err)
	}
	return patches
}

func TestBuildFormFactorMatrix_RowSums(t *testing.T) {
	patches := roomPatches(t, 2.0)
	f := BuildFormFactorMatrix(patches, nil, DefaultFormFactorConfig())

	if len(f) != len(patches) {
		t.Fatalf("Expected %d rows, got %d", len(patches), len(f))
	}
	for i, row := range f {
		sum := 0.0
		for j, v := range row {
			if v < 0 {
				t.Fatalf("F[%d][%d] = %g is negative", i, j, v)
			}
			sum += v
		}
		if sum > 1.0+1e-12 {
			t.Errorf("Row %d sums to %g, expected at most 1", i, sum)
		}
		if row[i] != 0 {
			t.Errorf("Expected zero self-transfer on row %d, got %g", i, row[i])
		}
	}
}

func TestBuildFormFactorMatrix_DeterministicAcrossWorkers(t *testing.T) {
	patches := roomPatches(t, 6.0)

	cfg := FormFactorConfig{Method: MonteCarlo, Samples: 4, Seed: 42, Workers: 1}
	f1 := BuildFormFactorMatrix(patches, nil, cfg)
	cfg.Workers = 8
	f8 := BuildFormFactorMatrix(patches, nil, cfg)

	for i := range f1 {
		for j := range f1[i] {
			if f1[i][j] != f8[i][j] {
				t.Fatalf("F[%d][%d] differs across worker counts: %g vs %g", i, j, f1[i][j], f8[i][j])
			}
		}
	}
}

func TestBuildFormFactorMatrix_VisibilityGating(t *testing.T) {
	// Two small facing surfaces with a large blocker between them.
	mk := func(id string, z float64, faceUp bool) *geometry.Surface {
		a := core.NewVec3(-0.1, -0.1, z)
		b := core.NewVec3(0.1, -0.1, z)
		c := core.NewVec3(0, 0.1, z)
		if !faceUp {
			b, c = c, b // reverse winding so the normal points down
		}
		tri, err := geometry.NewTriangle(a, b, c)
		if err != nil {
			t.Fatalf("NewTriangle failed: %v", err)
		}
		s, err := geometry.NewSurfaceFromTriangles(id, []*geometry.Triangle{tri}, 0.5)
		if err != nil {
			t.Fatalf("NewSurfaceFromTriangles failed: %v", err)
		}
		return s
	}
	bottom := mk("bottom", 0, true)
	top := mk("top", 2, false)

	b0, _ := geometry.NewTriangle(core.NewVec3(-5, -5, 1), core.NewVec3(5, -5, 1), core.NewVec3(5, 5, 1))
	b1, _ := geometry.NewTriangle(core.NewVec3(-5, -5, 1), core.NewVec3(5, 5, 1), core.NewVec3(-5, 5, 1))
	blocker, err := geometry.NewSurfaceFromTriangles("blocker", []*geometry.Triangle{b0, b1}, 0.5)
	if err != nil {
		t.Fatalf("NewSurfaceFromTriangles failed: %v", err)
	}

	patches, err := Subdivide([]*geometry.Surface{bottom, top}, 0)
	if err != nil {
		t.Fatalf("Subdivide failed: %v", err)
	}
	bvh := geometry.NewBVH([]*geometry.Surface{blocker}, 0)

	open := BuildFormFactorMatrix(patches, bvh, FormFactorConfig{Method: Analytic})
	gated := BuildFormFactorMatrix(patches, bvh, FormFactorConfig{Method: Analytic, Visibility: true})

	if open[0][1] <= 0 {
		t.Fatal("Expected positive transfer without a visibility test")
	}
	if gated[0][1] != 0 {
		t.Errorf("Expected zero transfer through the blocker, got %g", gated[0][1])
	}
}
