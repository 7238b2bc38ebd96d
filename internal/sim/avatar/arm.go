// Package avatar models the baby sticky-mitten avatar: its two arms, the
// joint chain geometry, and the per-tick settling of arm goals.
package avatar

import (
	"math"

	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
)

// Arm selects one of the avatar's arms.
type Arm string

const (
	ArmLeft  Arm = "left"
	ArmRight Arm = "right"
)

func (a Arm) IsLeft() bool { return a == ArmLeft }

// Other returns the opposite arm.
func Other(a Arm) Arm {
	if a == ArmLeft {
		return ArmRight
	}
	return ArmLeft
}

// JointAxis addresses one bendable degree of freedom.
type JointAxis struct {
	Joint string
	Axis  string
}

// JointsFor lists an arm's degrees of freedom in the order the build
// reports joint angles: shoulder pitch, shoulder yaw, elbow pitch.
func JointsFor(arm Arm) []JointAxis {
	s := "shoulder_" + string(arm)
	e := "elbow_" + string(arm)
	return []JointAxis{
		{Joint: s, Axis: "pitch"},
		{Joint: s, Axis: "yaw"},
		{Joint: e, Axis: "pitch"},
	}
}

// NumJoints is the length of a per-arm angle vector.
const NumJoints = 3

// Arm chain geometry, avatar-local meters. The shoulder sits above and to
// the side of the avatar origin; two rigid segments end at the mitten
// center.
const (
	upperArmLength = 0.235
	forearmLength  = 0.285

	shoulderOffsetX = 0.235
	shoulderOffsetY = 0.565
	shoulderOffsetZ = 0.075

	// Reach envelope measured from the avatar origin.
	MinReach = 0.2
	MaxReach = 0.9
)

func shoulder(arm Arm) mathx.Vec3 {
	x := shoulderOffsetX
	if arm.IsLeft() {
		x = -x
	}
	return mathx.Vec3{X: x, Y: shoulderOffsetY, Z: shoulderOffsetZ}
}

// MittenLocal is the forward kinematics of one arm: joint angles in degrees
// to the mitten center in avatar-local space.
func MittenLocal(arm Arm, angles []float64) mathx.Vec3 {
	pitch := angles[0] * math.Pi / 180
	yaw := angles[1]
	elbow := angles[2] * math.Pi / 180

	seg := func(p float64) mathx.Vec3 {
		// Pitch swings the segment from straight down toward forward,
		// then the shared yaw rotates the whole plane about Y.
		v := mathx.Vec3{Y: -math.Cos(p), Z: math.Sin(p)}
		return v.RotateY(yaw)
	}
	return shoulder(arm).
		Add(seg(pitch).Scale(upperArmLength)).
		Add(seg(pitch + elbow).Scale(forearmLength))
}

// SolveIK returns the joint angles that bend the mitten to a local-space
// target. Targets outside the annulus of the two segments are clamped to
// the nearest reachable radius, so the solver always yields a pose.
func SolveIK(arm Arm, target mathx.Vec3) []float64 {
	const eps = 1e-3
	t := target.Sub(shoulder(arm))

	h := math.Hypot(t.X, t.Z)
	yaw := 0.0
	if h > eps {
		yaw = math.Atan2(t.X, t.Z) * 180 / math.Pi
	}

	r := math.Sqrt(h*h + t.Y*t.Y)
	r = mathx.Clamp(r, math.Abs(upperArmLength-forearmLength)+eps, upperArmLength+forearmLength-eps)

	cosGamma := (upperArmLength*upperArmLength + forearmLength*forearmLength - r*r) /
		(2 * upperArmLength * forearmLength)
	gamma := math.Acos(mathx.Clamp(cosGamma, -1, 1))
	elbow := 180 - gamma*180/math.Pi

	beta := math.Atan2(h, -t.Y) * 180 / math.Pi
	cosAlpha := (upperArmLength*upperArmLength + r*r - forearmLength*forearmLength) /
		(2 * upperArmLength * r)
	alpha := math.Acos(mathx.Clamp(cosAlpha, -1, 1)) * 180 / math.Pi
	pitch := beta - alpha

	return []float64{pitch, yaw, elbow}
}

// CanReach classifies a local-space target against the reach envelope and
// the arm's own geometry, without touching the build. slack widens the
// arm's annulus, letting grasp preconditions count the capture range. ok
// is false when the target fails a precondition and term names which one.
func CanReach(arm Arm, target mathx.Vec3, slack float64) (term task.Terminal, ok bool) {
	d := target.Norm()
	if d < MinReach {
		return task.TermTooClose, false
	}
	if d > MaxReach {
		return task.TermTooFar, false
	}
	if target.Z < 0 {
		return task.TermBehind, false
	}
	// The mitten sweeps an annulus around the shoulder; outside it the
	// solver can only clamp and the mitten stops short.
	r := target.Sub(shoulder(arm)).Norm()
	if r < forearmLength-upperArmLength {
		return task.TermTooClose, false
	}
	if r > upperArmLength+forearmLength+slack {
		return task.TermTooFar, false
	}
	return "", true
}

// WorldFromLocal converts an avatar-local point to world space for the
// given avatar pose.
func WorldFromLocal(position, forward, local mathx.Vec3) mathx.Vec3 {
	return position.Add(local.RotateY(forward.Flat().Yaw()))
}

// LocalFromWorld converts a world point into avatar-local space.
func LocalFromWorld(position, forward, world mathx.Vec3) mathx.Vec3 {
	return world.Sub(position).RotateY(-forward.Flat().Yaw())
}
