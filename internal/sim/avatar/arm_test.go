package avatar

import (
	"testing"

	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
)

func TestSolveIKRoundTrip(t *testing.T) {
	// Every target CanReach approves must be hit exactly; targets outside
	// the arm's annulus are skipped here and covered by the clamp test.
	targets := []mathx.Vec3{
		{X: 0.2, Y: 0.4, Z: 0.3},
		{X: -0.1, Y: 0.5, Z: 0.35},
		{X: 0.3, Y: 0.6, Z: 0.2},
		{X: 0, Y: 0.2, Z: 0.4},
		{X: -0.3, Y: 0.45, Z: 0.25},
	}
	tested := 0
	for _, arm := range []Arm{ArmLeft, ArmRight} {
		for _, want := range targets {
			if _, ok := CanReach(arm, want, 0); !ok {
				continue
			}
			tested++
			angles := SolveIK(arm, want)
			got := MittenLocal(arm, angles)
			if got.Dist(want) > 0.01 {
				t.Errorf("%s arm: FK(IK(%v)) = %v, off by %v", arm, want, got, got.Dist(want))
			}
		}
	}
	if tested < len(targets) {
		t.Fatalf("only %d targets in reach, want at least %d", tested, len(targets))
	}
}

func TestSolveIKClampsUnreachableRadius(t *testing.T) {
	// Far beyond the segment lengths: the solver straightens the arm
	// toward the target instead of failing.
	far := mathx.Vec3{X: 0, Y: 0.565, Z: 2}
	angles := SolveIK(ArmRight, far)
	got := MittenLocal(ArmRight, angles)
	reach := got.Sub(shoulder(ArmRight)).Norm()
	max := upperArmLength + forearmLength
	if mathx.AbsF(reach-max) > 0.01 {
		t.Fatalf("clamped reach = %v, want ~%v", reach, max)
	}
}

func TestMittenLocalRestPose(t *testing.T) {
	// All joints at zero: the arm hangs straight down from the shoulder.
	got := MittenLocal(ArmLeft, []float64{0, 0, 0})
	want := shoulder(ArmLeft).Add(mathx.Vec3{Y: -(upperArmLength + forearmLength)})
	if got.Dist(want) > 1e-9 {
		t.Fatalf("rest pose = %v, want %v", got, want)
	}
}

func TestCanReach(t *testing.T) {
	cases := []struct {
		name   string
		target mathx.Vec3
		term   task.Terminal
		ok     bool
	}{
		{"origin", mathx.Vec3{}, task.TermTooClose, false},
		{"inside body", mathx.Vec3{X: 0.005, Y: 0.005, Z: 0.005}, task.TermTooClose, false},
		{"too far", mathx.Vec3{Z: 2}, task.TermTooFar, false},
		{"behind", mathx.Vec3{Y: 0.4, Z: -0.3}, task.TermBehind, false},
		{"reachable", mathx.Vec3{X: 0.2, Y: 0.4, Z: 0.3}, "", true},
	}
	for _, c := range cases {
		term, ok := CanReach(ArmRight, c.target, 0)
		if term != c.term || ok != c.ok {
			t.Errorf("%s: CanReach = (%q, %v), want (%q, %v)", c.name, term, ok, c.term, c.ok)
		}
	}
}

func TestCanReachArmAnnulus(t *testing.T) {
	// Inside the origin envelope but beyond the off arm's segments.
	target := mathx.Vec3{X: -0.3, Y: 0.45, Z: 0.25}
	if term, ok := CanReach(ArmRight, target, 0); ok || term != task.TermTooFar {
		t.Fatalf("right arm cross-body: (%q, %v), want too_far", term, ok)
	}
	if _, ok := CanReach(ArmLeft, target, 0); !ok {
		t.Fatal("left arm should reach its own side")
	}
	// Capture slack widens the annulus for grasp preconditions.
	if _, ok := CanReach(ArmRight, target, 0.2); !ok {
		t.Fatal("slack should admit the cross-body target")
	}
}

func TestWorldLocalRoundTrip(t *testing.T) {
	pos := mathx.Vec3{X: 1, Y: 0, Z: -2}
	fwd := mathx.Vec3{Z: 1}.RotateY(40)
	world := mathx.Vec3{X: 1.3, Y: 0.5, Z: -1.6}
	back := WorldFromLocal(pos, fwd, LocalFromWorld(pos, fwd, world))
	if back.Dist(world) > 1e-9 {
		t.Fatalf("round trip drifted: %v vs %v", back, world)
	}
	// A point straight ahead of the avatar has positive local Z.
	ahead := pos.Add(fwd.Scale(0.5))
	if local := LocalFromWorld(pos, fwd, ahead); local.Z < 0.49 || mathx.AbsF(local.X) > 1e-9 {
		t.Fatalf("ahead point in local space = %v", local)
	}
}
