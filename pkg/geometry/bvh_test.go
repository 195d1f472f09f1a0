package geometry

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/luxera/luxcalc/pkg/core"
)

// randomSurfaces scatters small triangles through a cube, several per
// surface, with a fixed seed.
func randomSurfaces(t *testing.T, numSurfaces, trianglesPerSurface int, seed int64) []*Surface {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	surfaces := make([]*Surface, 0, numSurfaces)
	for s := 0; s < numSurfaces; s++ {
		triangles := make([]*Triangle, 0, trianglesPerSurface)
		for len(triangles) < trianglesPerSurface {
			base := core.NewVec3(rng.Float64()*10-5, rng.Float64()*10-5, rng.Float64()*10-5)
			tri, err := NewTriangle(
				base,
				base.Add(core.NewVec3(rng.Float64()+0.1, rng.Float64(), rng.Float64())),
				base.Add(core.NewVec3(rng.Float64(), rng.Float64()+0.1, rng.Float64())))
			if err != nil {
				continue
			}
			triangles = append(triangles, tri)
		}
		surface, err := NewSurfaceFromTriangles(fmt.Sprintf("s%02d", s), triangles, 0.5)
		if err != nil {
			t.Fatalf("NewSurfaceFromTriangles failed: %v", err)
		}
		surfaces = append(surfaces, surface)
	}
	return surfaces
}

// bruteForceIntersect is the reference nearest-hit implementation.
func bruteForceIntersect(surfaces []*Surface, ray core.Ray, tMin, tMax float64) (Hit, bool) {
	best := Hit{T: tMax}
	found := false
	for _, s := range surfaces {
		for _, tri := range s.Triangles {
			if hitT, ok := tri.Hit(ray, tMin, best.T); ok {
				best.T = hitT
				best.Surface = s
				best.Triangle = tri
				found = true
			}
		}
	}
	if !found {
		return Hit{}, false
	}
	best.Point = ray.At(best.T)
	best.Normal = best.Triangle.Normal()
	return best, true
}

func TestBVH_IntersectMatchesBruteForce(t *testing.T) {
	surfaces := randomSurfaces(t, 8, 12, 42)
	bvh := NewBVH(surfaces, 0)
	rng := rand.New(rand.NewSource(7))

	hits := 0
	for i := 0; i < 500; i++ {
		origin := core.NewVec3(rng.Float64()*16-8, rng.Float64()*16-8, rng.Float64()*16-8)
		dir := core.NewVec3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1)
		if dir.LengthSquared() < 1e-6 {
			continue
		}
		ray := core.NewRay(origin, dir.Normalize())

		got, gotHit := bvh.Intersect(ray)
		want, wantHit := bruteForceIntersect(surfaces, ray, bvh.Epsilon(), 1e30)

		if gotHit != wantHit {
			t.Fatalf("Ray %d: BVH hit=%t, brute force hit=%t", i, gotHit, wantHit)
		}
		if gotHit {
			hits++
			if math.Abs(got.T-want.T) > 1e-9 {
				t.Errorf("Ray %d: BVH t=%g, brute force t=%g", i, got.T, want.T)
			}
			if got.Surface != want.Surface {
				t.Errorf("Ray %d: BVH hit surface %s, brute force %s", i, got.Surface.ID, want.Surface.ID)
			}
		}
	}
	if hits == 0 {
		t.Fatal("Expected at least some ray hits in the test scene")
	}
}

func TestBVH_NodeEnclosure(t *testing.T) {
	surfaces := randomSurfaces(t, 6, 20, 99)
	bvh := NewBVH(surfaces, 0)

	surfaceBoxes := make([]core.AABB, len(surfaces))
	for i, s := range surfaces {
		surfaceBoxes[i] = s.BoundingBox()
	}
	if !checkEnclosure(bvh.nodes, 0, surfaceBoxes, bvh.order) {
		t.Error("Top-level node does not enclose its children")
	}

	for i, lower := range bvh.lower {
		triBoxes := make([]core.AABB, len(lower.surface.Triangles))
		for j, tri := range lower.surface.Triangles {
			triBoxes[j] = tri.BoundingBox()
		}
		if !checkEnclosure(lower.nodes, 0, triBoxes, lower.order) {
			t.Errorf("Bottom-level hierarchy %d violates node enclosure", i)
		}
	}
}

func TestBVH_EveryPrimitiveReachable(t *testing.T) {
	surfaces := randomSurfaces(t, 5, 17, 1234)
	bvh := NewBVH(surfaces, 0)

	var stats bvhStats
	collectStats(bvh.nodes, 0, 0, &stats)
	if stats.totalItems != len(surfaces) {
		t.Errorf("Expected %d surfaces in top-level leaves, got %d", len(surfaces), stats.totalItems)
	}

	for i, lower := range bvh.lower {
		var lowerStats bvhStats
		collectStats(lower.nodes, 0, 0, &lowerStats)
		if lowerStats.totalItems != len(lower.surface.Triangles) {
			t.Errorf("Hierarchy %d: expected %d triangles in leaves, got %d",
				i, len(lower.surface.Triangles), lowerStats.totalItems)
		}
	}
}

func TestBVH_Occluded(t *testing.T) {
	// A single blocking quad at z=1 spanning [-2,2]^2.
	t0, _ := NewTriangle(core.NewVec3(-2, -2, 1), core.NewVec3(2, -2, 1), core.NewVec3(2, 2, 1))
	t1, _ := NewTriangle(core.NewVec3(-2, -2, 1), core.NewVec3(2, 2, 1), core.NewVec3(-2, 2, 1))
	blocker, err := NewSurfaceFromTriangles("blocker", []*Triangle{t0, t1}, 0.5)
	if err != nil {
		t.Fatalf("NewSurfaceFromTriangles failed: %v", err)
	}
	bvh := NewBVH([]*Surface{blocker}, 0)

	tests := []struct {
		name     string
		from, to core.Vec3
		expected bool
	}{
		{"segment through blocker", core.NewVec3(0, 0, 2), core.NewVec3(0, 0, 0), true},
		{"segment beside blocker", core.NewVec3(5, 0, 2), core.NewVec3(5, 0, 0), false},
		{"segment above blocker", core.NewVec3(0, 0, 3), core.NewVec3(0, 0, 1.5), false},
		{"endpoint on blocker is shaved", core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 0), false},
		{"zero-length segment", core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bvh.Occluded(tt.from, tt.to); got != tt.expected {
				t.Errorf("Expected Occluded=%t for %v -> %v, got %t", tt.expected, tt.from, tt.to, got)
			}
		})
	}
}

func TestBVH_EmptyScene(t *testing.T) {
	bvh := NewBVH(nil, 0)
	if _, ok := bvh.Intersect(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1))); ok {
		t.Error("Expected no hit in an empty scene")
	}
	if bvh.Occluded(core.Vec3{}, core.NewVec3(1, 1, 1)) {
		t.Error("Expected no occlusion in an empty scene")
	}
}
