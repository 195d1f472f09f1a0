package photometry

import (
	"fmt"
	"math"

	"github.com/luxera/luxcalc/pkg/core"
)

// Orientation is a rotation from luminaire-local space to world space.
// Local convention: +Z up, photometric nadir is -Z, C=0 toward local +X,
// C=90 toward local +Y.
type Orientation struct {
	// Column-major basis vectors of the local frame expressed in world space.
	X, Y, Z core.Vec3
}

// IdentityOrientation returns the unrotated luminaire frame.
func IdentityOrientation() Orientation {
	return Orientation{
		X: core.NewVec3(1, 0, 0),
		Y: core.NewVec3(0, 1, 0),
		Z: core.NewVec3(0, 0, 1),
	}
}

// NewOrientationYPR composes yaw (about Z), pitch (about Y) and roll
// (about X), applied in that order, all in degrees.
func NewOrientationYPR(yawDeg, pitchDeg, rollDeg float64) Orientation {
	cy, sy := cosSinDeg(yawDeg)
	cp, sp := cosSinDeg(pitchDeg)
	cr, sr := cosSinDeg(rollDeg)

	// R = Rz(yaw) * Ry(pitch) * Rx(roll)
	return Orientation{
		X: core.NewVec3(cy*cp, sy*cp, -sp),
		Y: core.NewVec3(cy*sp*sr-sy*cr, sy*sp*sr+cy*cr, cp*sr),
		Z: core.NewVec3(cy*sp*cr+sy*sr, sy*sp*cr-cy*sr, cp*cr),
	}
}

// NewOrientationAim builds an orientation whose nadir (-Z) points along aim.
// up disambiguates the roll about the aim axis; it must not be parallel to
// aim. A zero-length aim vector yields ErrInvalidDirection.
func NewOrientationAim(aim, up core.Vec3) (Orientation, error) {
	if aim.LengthSquared() == 0 {
		return Orientation{}, fmt.Errorf("%w: zero-length aim vector", core.ErrInvalidDirection)
	}
	z := aim.Normalize().Negate() // local +Z is opposite the aim direction
	if up.LengthSquared() == 0 {
		up = core.NewVec3(0, 0, 1)
	}
	x := up.Cross(z)
	if x.LengthSquared() < 1e-12 {
		// up parallel to aim: pick an arbitrary perpendicular
		x = core.NewVec3(1, 0, 0).Cross(z)
		if x.LengthSquared() < 1e-12 {
			x = core.NewVec3(0, 1, 0).Cross(z)
		}
	}
	x = x.Normalize()
	y := z.Cross(x)
	return Orientation{X: x, Y: y, Z: z}, nil
}

// ToLocal transforms a world-space direction into the luminaire frame.
func (o Orientation) ToLocal(worldDir core.Vec3) core.Vec3 {
	return core.NewVec3(worldDir.Dot(o.X), worldDir.Dot(o.Y), worldDir.Dot(o.Z))
}

// ToWorld transforms a luminaire-local direction into world space.
func (o Orientation) ToWorld(localDir core.Vec3) core.Vec3 {
	return o.X.Multiply(localDir.X).
		Add(o.Y.Multiply(localDir.Y)).
		Add(o.Z.Multiply(localDir.Z))
}

// Nadir returns the world-space photometric nadir direction (local -Z).
func (o Orientation) Nadir() core.Vec3 {
	return o.Z.Negate()
}

func cosSinDeg(deg float64) (float64, float64) {
	rad := deg * math.Pi / 180.0
	return math.Cos(rad), math.Sin(rad)
}

// anglesTypeC maps a unit local direction to Type C photometric angles:
// gamma measured from nadir (-Z), C azimuth from +X toward +Y in [0, 360).
func anglesTypeC(localDir core.Vec3) (cDeg, gammaDeg float64) {
	cosGamma := math.Max(-1, math.Min(1, -localDir.Z))
	gammaDeg = math.Acos(cosGamma) * 180.0 / math.Pi
	cDeg = math.Atan2(localDir.Y, localDir.X) * 180.0 / math.Pi
	cDeg = math.Mod(cDeg+360.0, 360.0)
	return cDeg, gammaDeg
}

// anglesTypeAB maps a unit local direction to Type A or Type B photometric
// angles about the given polar axis: local +X (major) for Type A, local +Y
// (minor) for Type B. The photometric zero direction is nadir. When the
// vertical grid looks like an elevation grid (negative angles or max <= 90)
// the vertical angle is measured from the horizontal plane instead of from
// nadir.
func anglesTypeAB(localDir, polar core.Vec3, anglesV []float64) (hDeg, vDeg float64) {
	p := polar
	r := core.NewVec3(0, 0, -1) // photometric zero, straight down

	// Horizontal angle: rotation about the polar axis measured from the
	// reference plane containing p and r (clockwise per LM-63).
	u := localDir.Subtract(p.Multiply(p.Dot(localDir)))
	vDir := r
	if u.LengthSquared() >= 1e-24 {
		v := u.Normalize()
		ccw := math.Atan2(p.Dot(r.Cross(v)), r.Dot(v)) * 180.0 / math.Pi
		hDeg = math.Mod(-ccw+360.0, 360.0)
		vDir = rotateAboutAxis(r, p, ccw*math.Pi/180.0)
	}

	useElevation := false
	if len(anglesV) > 0 {
		if anglesV[0] < 0 || anglesV[len(anglesV)-1] <= 90 {
			useElevation = true
		}
	}

	if useElevation {
		horiz := math.Sqrt(localDir.X*localDir.X + localDir.Y*localDir.Y)
		vDeg = math.Atan2(localDir.Z, horiz) * 180.0 / math.Pi
		return hDeg, vDeg
	}

	// Angle from the rotated zero direction within the plane spanned by the
	// polar axis and vDir.
	n := p.Cross(vDir)
	if n.LengthSquared() < 1e-24 {
		n = p.Cross(core.NewVec3(0, 0, 1))
	}
	n = n.Normalize()
	dPlane := localDir.Subtract(n.Multiply(n.Dot(localDir)))
	if dPlane.LengthSquared() < 1e-24 {
		return hDeg, 0
	}
	dPlane = dPlane.Normalize()
	cosV := math.Max(-1, math.Min(1, dPlane.Dot(vDir)))
	vDeg = math.Acos(cosV) * 180.0 / math.Pi
	return hDeg, vDeg
}

// rotateAboutAxis rotates v about the unit axis by angle using Rodrigues'
// formula.
func rotateAboutAxis(v, axis core.Vec3, angleRad float64) core.Vec3 {
	a := axis.Normalize()
	cosA := math.Cos(angleRad)
	sinA := math.Sin(angleRad)
	term1 := v.Multiply(cosA)
	term2 := a.Cross(v).Multiply(sinA)
	term3 := a.Multiply(a.Dot(v) * (1.0 - cosA))
	return term1.Add(term2).Add(term3)
}
