package direct

import (
	"math"

	"github.com/luxera/luxcalc/pkg/core"
)

// Point is a calculation point: a position plus the surface normal that
// defines the illuminance orientation. All target types (grids, planes,
// point sets, polylines) reduce to a flat list of Points and are evaluated
// identically.
type Point struct {
	Position core.Vec3
	Normal   core.Vec3
	Label    string // optional identifier for reporting grouping
}

// HorizontalGrid generates an nx by ny grid of upward-facing points on a
// horizontal work plane. origin is the minimum corner; width extends along
// +X and depth along +Y at the given elevation.
func HorizontalGrid(origin core.Vec3, width, depth, elevation float64, nx, ny int) []Point {
	up := core.NewVec3(0, 0, 1)
	return PlaneGrid(
		core.NewVec3(origin.X, origin.Y, elevation),
		core.NewVec3(width, 0, 0),
		core.NewVec3(0, depth, 0),
		up, nx, ny)
}

// VerticalPlane generates a grid of points on a vertical plane. origin is
// the bottom corner, along is the horizontal extent vector, height the
// vertical extent; normal faces the evaluated side.
func VerticalPlane(origin, along core.Vec3, height float64, normal core.Vec3, nx, nz int) []Point {
	return PlaneGrid(origin, along, core.NewVec3(0, 0, height), normal, nx, nz)
}

// PlaneGrid generates an nu by nv grid spanning the parallelogram
// origin + u + v with the given normal. Grids with a single point along an
// axis collapse to the axis midpoint.
func PlaneGrid(origin, u, v, normal core.Vec3, nu, nv int) []Point {
	if nu < 1 {
		nu = 1
	}
	if nv < 1 {
		nv = 1
	}
	n := normal.Normalize()
	points := make([]Point, 0, nu*nv)
	for j := 0; j < nv; j++ {
		fv := 0.5
		if nv > 1 {
			fv = float64(j) / float64(nv-1)
		}
		for i := 0; i < nu; i++ {
			fu := 0.5
			if nu > 1 {
				fu = float64(i) / float64(nu-1)
			}
			pos := origin.Add(u.Multiply(fu)).Add(v.Multiply(fv))
			points = append(points, Point{Position: pos, Normal: n})
		}
	}
	return points
}

// PointSet wraps explicit positions sharing one normal.
func PointSet(positions []core.Vec3, normal core.Vec3) []Point {
	n := normal.Normalize()
	points := make([]Point, len(positions))
	for i, pos := range positions {
		points[i] = Point{Position: pos, Normal: n}
	}
	return points
}

// Polyline samples points along a vertex chain at approximately the given
// spacing, including both endpoints of every segment's subdivision.
func Polyline(vertices []core.Vec3, spacing float64, normal core.Vec3) []Point {
	n := normal.Normalize()
	if len(vertices) == 0 {
		return nil
	}
	if spacing <= 0 || len(vertices) == 1 {
		return PointSet(vertices, normal)
	}

	points := []Point{{Position: vertices[0], Normal: n}}
	for i := 1; i < len(vertices); i++ {
		seg := vertices[i].Subtract(vertices[i-1])
		length := seg.Length()
		if length == 0 {
			continue
		}
		steps := int(math.Ceil(length / spacing))
		for s := 1; s <= steps; s++ {
			f := float64(s) / float64(steps)
			points = append(points, Point{Position: vertices[i-1].Add(seg.Multiply(f)), Normal: n})
		}
	}
	return points
}
