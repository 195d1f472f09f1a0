package geometry

import (
	"github.com/luxera/luxcalc/pkg/core"
)

// Surface is a triangulated surface with a scalar broadband reflectance.
// Surfaces are supplied by external collaborators (import/cleaning/CSG) and
// treated as immutable snapshots during a calculation job.
type Surface struct {
	ID          string
	Triangles   []*Triangle
	Reflectance float64 // in [0, 1)
	bbox        core.AABB
	area        float64
}

// NewSurface builds a surface from a vertex list and face indices (three per
// triangle). Reflectance is clamped into [0, 1). Degenerate faces are
// rejected with ErrInvalidGeometry.
func NewSurface(id string, vertices []core.Vec3, faces []int, reflectance float64) (*Surface, error) {
	if len(faces)%3 != 0 {
		return nil, core.InvalidGeometryError("surface %q: face indices not a multiple of 3", id)
	}
	numTriangles := len(faces) / 3
	if numTriangles == 0 {
		return nil, core.InvalidGeometryError("surface %q: no triangles", id)
	}

	triangles := make([]*Triangle, 0, numTriangles)
	for i := 0; i < numTriangles; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]
		if i0 < 0 || i1 < 0 || i2 < 0 || i0 >= len(vertices) || i1 >= len(vertices) || i2 >= len(vertices) {
			return nil, core.InvalidGeometryError("surface %q: face index out of bounds at triangle %d", id, i)
		}
		tri, err := NewTriangle(vertices[i0], vertices[i1], vertices[i2])
		if err != nil {
			return nil, err
		}
		triangles = append(triangles, tri)
	}

	return NewSurfaceFromTriangles(id, triangles, reflectance)
}

// NewSurfaceFromTriangles builds a surface from pre-built triangles.
func NewSurfaceFromTriangles(id string, triangles []*Triangle, reflectance float64) (*Surface, error) {
	if len(triangles) == 0 {
		return nil, core.InvalidGeometryError("surface %q: no triangles", id)
	}
	if reflectance < 0 {
		reflectance = 0
	}
	// Patch reflectance must stay below 1 or interreflection never converges.
	if reflectance >= 1 {
		reflectance = 0.999
	}

	bbox := triangles[0].BoundingBox()
	area := 0.0
	for _, tri := range triangles {
		bbox = bbox.Union(tri.BoundingBox())
		area += tri.Area()
	}

	return &Surface{
		ID:          id,
		Triangles:   triangles,
		Reflectance: reflectance,
		bbox:        bbox,
		area:        area,
	}, nil
}

// BoundingBox returns the bounding box of all triangles.
func (s *Surface) BoundingBox() core.AABB {
	return s.bbox
}

// Area returns the total surface area.
func (s *Surface) Area() float64 {
	return s.area
}

// Normal returns the area-weighted average unit normal of the surface.
func (s *Surface) Normal() core.Vec3 {
	sum := core.Vec3{}
	for _, tri := range s.Triangles {
		sum = sum.Add(tri.Normal().Multiply(tri.Area()))
	}
	return sum.Normalize()
}

// Centroid returns the area-weighted centroid of the surface.
func (s *Surface) Centroid() core.Vec3 {
	sum := core.Vec3{}
	total := 0.0
	for _, tri := range s.Triangles {
		sum = sum.Add(tri.Centroid().Multiply(tri.Area()))
		total += tri.Area()
	}
	if total == 0 {
		return core.Vec3{}
	}
	return sum.Multiply(1.0 / total)
}
