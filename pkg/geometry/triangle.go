package geometry

import (
	"github.com/luxera/luxcalc/pkg/core"
)

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3
	normal     core.Vec3 // Cached unit normal
	bbox       core.AABB // Cached bounding box
	area       float64   // Cached area
}

// NewTriangle creates a new triangle from three vertices. The normal follows
// the counter-clockwise winding of the vertices. Degenerate (zero-area)
// triangles are rejected with ErrInvalidGeometry.
func NewTriangle(v0, v1, v2 core.Vec3) (*Triangle, error) {
	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)
	cross := edge1.Cross(edge2)
	doubleArea := cross.Length()
	if doubleArea < 1e-12 {
		return nil, core.InvalidGeometryError("degenerate triangle (%v, %v, %v)", v0, v1, v2)
	}

	t := &Triangle{
		V0:     v0,
		V1:     v1,
		V2:     v2,
		normal: cross.Multiply(1.0 / doubleArea),
		bbox:   core.NewAABBFromPoints(v0, v1, v2),
		area:   0.5 * doubleArea,
	}
	return t, nil
}

// NewTriangleWithNormal creates a triangle with an explicitly supplied normal
// (e.g. from externally cleaned geometry).
func NewTriangleWithNormal(v0, v1, v2 core.Vec3, normal core.Vec3) (*Triangle, error) {
	t, err := NewTriangle(v0, v1, v2)
	if err != nil {
		return nil, err
	}
	if normal.LengthSquared() == 0 {
		return nil, core.InvalidGeometryError("zero-length normal for triangle at %v", v0)
	}
	t.normal = normal.Normalize()
	return t, nil
}

// Hit tests ray intersection using the Möller-Trumbore algorithm and returns
// the ray parameter of the hit. The test is two-sided: occlusion is binary
// and does not depend on winding.
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64) (float64, bool) {
	const epsilon = 1e-12

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray parallel to the triangle plane
	if a > -epsilon && a < epsilon {
		return 0, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	tParam := f * edge2.Dot(q)
	if tParam < tMin || tParam > tMax {
		return 0, false
	}
	return tParam, true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Normal returns the triangle's unit normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// Area returns the triangle's area
func (t *Triangle) Area() float64 {
	return t.area
}

// Centroid returns the triangle's centroid
func (t *Triangle) Centroid() core.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Multiply(1.0 / 3.0)
}
