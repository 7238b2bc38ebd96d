package mathx

import "math"

// Vec3 is a point or direction in world space. Y is up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Dist(o Vec3) float64 { return v.Sub(o).Norm() }

// Flat zeroes the Y component.
func (v Vec3) Flat() Vec3 { return Vec3{v.X, 0, v.Z} }

func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// RotateY rotates v around the Y axis by deg degrees (clockwise looking down
// the +Y axis, matching avatar yaw).
func (v Vec3) RotateY(deg float64) Vec3 {
	r := deg * math.Pi / 180
	s, c := math.Sin(r), math.Cos(r)
	return Vec3{
		X: v.X*c + v.Z*s,
		Y: v.Y,
		Z: -v.X*s + v.Z*c,
	}
}

// Yaw is the heading of the direction v in degrees, measured from +Z toward +X.
func (v Vec3) Yaw() float64 {
	return math.Atan2(v.X, v.Z) * 180 / math.Pi
}

// HeadingAngle is the signed angle in degrees from the forward direction to
// the target position as seen from origin, in the XZ plane. Positive when
// the target lies toward the avatar's right (the +X side when facing +Z).
func HeadingAngle(origin, forward, target Vec3) float64 {
	to := target.Sub(origin).Flat()
	if to.Norm() == 0 {
		return 0
	}
	a := to.Yaw() - forward.Flat().Yaw()
	return NormalizeDeg(a)
}

// NormalizeDeg maps an angle to (-180, 180].
func NormalizeDeg(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a <= -180 {
		a += 360
	}
	return a
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func AbsF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
