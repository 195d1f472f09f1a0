package radiosity

import (
	"github.com/luxera/luxcalc/pkg/core"
	"github.com/luxera/luxcalc/pkg/geometry"
)

// Patch is the radiosity solver's discretization unit: a sub-triangle of a
// surface. Patches are created at job start by area-bounded subdivision,
// mutated during iteration, and discarded after results are extracted.
type Patch struct {
	Index     int
	SurfaceID string

	V0, V1, V2 core.Vec3
	Area       float64
	Centroid   core.Vec3
	Normal     core.Vec3

	Reflectance float64 // in [0, 1)

	// DirectIrradiance is the incident direct illuminance at the patch
	// centroid, computed before the solve.
	DirectIrradiance float64
	// Emission is the exitance seed: reflected direct light, rho * direct.
	Emission float64
	// Radiosity is the current total exitance during and after the solve.
	Radiosity float64
	// Irradiance is the gathered indirect irradiance.
	Irradiance float64
}

// TotalIrradiance is the patch's direct plus interreflected irradiance.
func (p *Patch) TotalIrradiance() float64 {
	return p.DirectIrradiance + p.Irradiance
}

// Subdivide splits every surface triangle into patches no larger than
// maxPatchArea by recursive midpoint subdivision (each split yields four
// similar triangles). maxPatchArea <= 0 disables subdivision, producing one
// patch per triangle.
func Subdivide(surfaces []*geometry.Surface, maxPatchArea float64) ([]*Patch, error) {
	var patches []*Patch
	for _, s := range surfaces {
		for _, tri := range s.Triangles {
			var err error
			patches, err = subdivideTriangle(patches, s, tri.V0, tri.V1, tri.V2, maxPatchArea)
			if err != nil {
				return nil, err
			}
		}
	}
	for i, p := range patches {
		p.Index = i
	}
	return patches, nil
}

func subdivideTriangle(patches []*Patch, s *geometry.Surface, v0, v1, v2 core.Vec3, maxArea float64) ([]*Patch, error) {
	e1 := v1.Subtract(v0)
	e2 := v2.Subtract(v0)
	cross := e1.Cross(e2)
	doubleArea := cross.Length()
	if doubleArea < 1e-12 {
		return nil, core.InvalidGeometryError("zero-area patch on surface %q", s.ID)
	}
	area := 0.5 * doubleArea

	if maxArea > 0 && area > maxArea {
		m01 := v0.Add(v1).Multiply(0.5)
		m12 := v1.Add(v2).Multiply(0.5)
		m20 := v2.Add(v0).Multiply(0.5)
		var err error
		for _, sub := range [][3]core.Vec3{
			{v0, m01, m20},
			{m01, v1, m12},
			{m20, m12, v2},
			{m01, m12, m20},
		} {
			patches, err = subdivideTriangle(patches, s, sub[0], sub[1], sub[2], maxArea)
			if err != nil {
				return nil, err
			}
		}
		return patches, nil
	}

	patches = append(patches, &Patch{
		SurfaceID:   s.ID,
		V0:          v0,
		V1:          v1,
		V2:          v2,
		Area:        area,
		Centroid:    v0.Add(v1).Add(v2).Multiply(1.0 / 3.0),
		Normal:      cross.Multiply(1.0 / doubleArea),
		Reflectance: s.Reflectance,
	})
	return patches, nil
}

// pointAt maps barycentric-style coordinates (u, v with u+v <= 1) to a point
// on the patch. Used by Monte Carlo form-factor sampling.
func (p *Patch) pointAt(u, v float64) core.Vec3 {
	if u+v > 1 {
		u = 1 - u
		v = 1 - v
	}
	return p.V0.
		Add(p.V1.Subtract(p.V0).Multiply(u)).
		Add(p.V2.Subtract(p.V0).Multiply(v))
}
