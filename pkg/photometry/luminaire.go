package photometry

import (
	"sort"

	"github.com/luxera/luxcalc/pkg/core"
)

// Luminaire is a placed luminaire instance: position, orientation, output
// scaling, and a content-hash reference to its distribution. Instances are
// created from project data at job start and are read-only during
// calculation; many instances may share one Distribution by reference.
type Luminaire struct {
	ID                string
	Position          core.Vec3
	Orientation       Orientation
	FluxMultiplier    float64
	MaintenanceFactor float64
	DistributionHash  string

	// LuminousArea is the area of the luminous surface in m², used by the
	// glare evaluator. Zero when unknown.
	LuminousArea float64
}

// NewLuminaire creates an instance with identity orientation and unit
// multipliers.
func NewLuminaire(id string, position core.Vec3, distributionHash string) *Luminaire {
	return &Luminaire{
		ID:                id,
		Position:          position,
		Orientation:       IdentityOrientation(),
		FluxMultiplier:    1.0,
		MaintenanceFactor: 1.0,
		DistributionHash:  distributionHash,
	}
}

// OutputScale returns the combined derating applied to sampled intensities.
func (l *Luminaire) OutputScale() float64 {
	return l.FluxMultiplier * l.MaintenanceFactor
}

// SampleToward samples the distribution in the direction from the luminaire
// toward the given world-space point, scaled by the flux multiplier and
// maintenance factor.
func (l *Luminaire) SampleToward(d *Distribution, target core.Vec3) (float64, error) {
	worldDir := target.Subtract(l.Position)
	local := l.Orientation.ToLocal(worldDir)
	cd, err := d.Sample(local)
	if err != nil {
		return 0, err
	}
	return cd * l.OutputScale(), nil
}

// OpticalAxis returns the world-space direction the luminaire emits toward
// (its photometric nadir).
func (l *Luminaire) OpticalAxis() core.Vec3 {
	return l.Orientation.Nadir()
}

// SortLuminaires orders luminaires ascending by ID in place. Calculation
// kernels accumulate contributions in this order so results are independent
// of evaluation or completion order.
func SortLuminaires(list []*Luminaire) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
