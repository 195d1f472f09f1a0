package geometry

import (
	"github.com/luxera/luxcalc/pkg/core"
)

// RoomReflectances holds the broadband reflectances of a rectangular room's
// bounding surfaces.
type RoomReflectances struct {
	Floor   float64
	Ceiling float64
	Walls   float64
}

// DefaultRoomReflectances returns the conventional office values
// (ceiling 0.7, walls 0.5, floor 0.2).
func DefaultRoomReflectances() RoomReflectances {
	return RoomReflectances{Floor: 0.2, Ceiling: 0.7, Walls: 0.5}
}

// NewRectangularRoom builds the six bounding surfaces of an axis-aligned
// rectangular room with inward-facing normals. origin is the floor corner at
// minimum x/y; width extends along +X, length along +Y, height along +Z.
// Surface IDs: floor, ceiling, wall_-x, wall_+x, wall_-y, wall_+y.
func NewRectangularRoom(origin core.Vec3, width, length, height float64, refl RoomReflectances) ([]*Surface, error) {
	if width <= 0 || length <= 0 || height <= 0 {
		return nil, core.InvalidGeometryError("room dimensions must be positive (%g x %g x %g)", width, length, height)
	}

	x0, y0, z0 := origin.X, origin.Y, origin.Z
	x1, y1, z1 := x0+width, y0+length, z0+height

	// Corner layout: low quad z=z0, high quad z=z1
	p000 := core.NewVec3(x0, y0, z0)
	p100 := core.NewVec3(x1, y0, z0)
	p010 := core.NewVec3(x0, y1, z0)
	p110 := core.NewVec3(x1, y1, z0)
	p001 := core.NewVec3(x0, y0, z1)
	p101 := core.NewVec3(x1, y0, z1)
	p011 := core.NewVec3(x0, y1, z1)
	p111 := core.NewVec3(x1, y1, z1)

	quads := []struct {
		id         string
		a, b, c, d core.Vec3 // counter-clockwise as seen from inside the room
		refl       float64
	}{
		{"floor", p000, p100, p110, p010, refl.Floor},
		{"ceiling", p001, p011, p111, p101, refl.Ceiling},
		{"wall_-x", p000, p010, p011, p001, refl.Walls},
		{"wall_+x", p100, p101, p111, p110, refl.Walls},
		{"wall_-y", p000, p001, p101, p100, refl.Walls},
		{"wall_+y", p010, p110, p111, p011, refl.Walls},
	}

	surfaces := make([]*Surface, 0, len(quads))
	for _, q := range quads {
		t0, err := NewTriangle(q.a, q.b, q.c)
		if err != nil {
			return nil, err
		}
		t1, err := NewTriangle(q.a, q.c, q.d)
		if err != nil {
			return nil, err
		}
		s, err := NewSurfaceFromTriangles(q.id, []*Triangle{t0, t1}, q.refl)
		if err != nil {
			return nil, err
		}
		surfaces = append(surfaces, s)
	}
	return surfaces, nil
}
