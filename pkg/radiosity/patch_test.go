package radiosity

import (
	"math"
	"testing"

	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/geometry"
)

func singleTriangleSurface(t *testing.T) *geometry.Surface {
	t.Helper()
	tri, err := geometry.NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(4, 0, 0),
		core.NewVec3(0, 4, 0))
	if err != nil {
		t.Fatalf("NewTriangle failed: %v", err)
	}
	s, err := geometry.NewSurfaceFromTriangles("floor", []*geometry.Triangle{tri}, 0.3)
	if err != nil {
		t.Fatalf("NewSurfaceFromTriangles failed: %v", err)
	}
	return s
}

func TestSubdivide_AreaBound(t *testing.T) {
	surface := singleTriangleSurface(t)
	patches, err := Subdivide([]*geometry.Surface{surface}, 0.6)
	if err != nil {
		t.Fatalf("Subdivide failed: %v", err)
	}

	// 8 m^2 triangle quartered twice: 16 patches of 0.5 m^2.
	if len(patches) != 16 {
		t.Errorf("Expected 16 patches, got %d", len(patches))
	}

	total := 0.0
	for i, p := range patches {
		if p.Area > 0.6 {
			t.Errorf("Patch %d exceeds the area bound: %g", i, p.Area)
		}
		if p.Index != i {
			t.Errorf("Patch %d carries index %d", i, p.Index)
		}
		if p.SurfaceID != "floor" {
			t.Errorf("Patch %d: expected surface ID floor, got %s", i, p.SurfaceID)
		}
		if p.Reflectance != 0.3 {
			t.Errorf("Patch %d: expected reflectance 0.3, got %g", i, p.Reflectance)
		}
		if !vecCloseTol(p.Normal, core.NewVec3(0, 0, 1), 1e-12) {
			t.Errorf("Patch %d: expected inherited normal (0,0,1), got %v", i, p.Normal)
		}
		total += p.Area
	}
	if math.Abs(total-8.0) > 1e-9 {
		t.Errorf("Expected subdivision to preserve total area 8, got %g", total)
	}
}

func TestSubdivide_Disabled(t *testing.T) {
	surface := singleTriangleSurface(t)
	patches, err := Subdivide([]*geometry.Surface{surface}, 0)
	if err != nil {
		t.Fatalf("Subdivide failed: %v", err)
	}
	if len(patches) != 1 {
		t.Errorf("Expected 1 patch per triangle with subdivision disabled, got %d", len(patches))
	}
}

func vecCloseTol(a, b core.Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
