package simtest

import (
	"testing"

	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/controller"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/tuning"
)

func TestTurnByConvergesWithinThreshold(t *testing.T) {
	h := New(t, nil)
	status, err := h.Ctrl.TurnBy(60, controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.Success)

	// Success must mean the measured heading error is inside the
	// stopping threshold.
	yaw := h.Ctrl.Frame().AvatarForward.Flat().Yaw()
	if e := mathx.AbsF(mathx.NormalizeDeg(yaw - 60)); e > 5 {
		t.Fatalf("heading error after success = %v", e)
	}
}

func TestTurnToFacesTarget(t *testing.T) {
	h := New(t, nil)
	status, err := h.Ctrl.TurnTo(controller.PosTarget(mathx.Vec3{X: -2, Z: 2}), controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.Success)

	f := h.Ctrl.Frame()
	e := mathx.HeadingAngle(f.AvatarPosition, f.AvatarForward, mathx.Vec3{X: -2, Z: 2})
	if mathx.AbsF(e) > 5 {
		t.Fatalf("heading error = %v", e)
	}
}

func TestTurnBudgetExhausted(t *testing.T) {
	h := New(t, func(_ *FakeBuild, tune *tuning.Tuning) {
		tune.NumAttempts = 5
	})
	status, err := h.Ctrl.TurnBy(170, controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.TooLong)
}

func TestTurnBudgetBoundsTotalSteps(t *testing.T) {
	// Long coasting must not stretch the action past num_attempts steps:
	// coast ticks and the final brake spend budget like torque bursts.
	h := New(t, func(f *FakeBuild, tune *tuning.Tuning) {
		f.TurnDecay = 0.9
		tune.NumAttempts = 10
	})
	before := h.Build.Steps
	status, err := h.Ctrl.TurnBy(170, controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.TooLong)
	if steps := h.Build.Steps - before; steps > 10 {
		t.Fatalf("turn took %d steps, budget is 10", steps)
	}
}

func TestGoToArrivesWithinThreshold(t *testing.T) {
	h := New(t, nil)
	target := mathx.Vec3{Z: 2}
	status, err := h.Ctrl.GoTo(controller.PosTarget(target), controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.Success)
	if d := h.Build.AvatarPosition().Flat().Dist(target); d > 0.35 {
		t.Fatalf("stopped %v from target", d)
	}
}

func TestGoToObjectTarget(t *testing.T) {
	h := New(t, nil)
	status, err := h.Ctrl.GoTo(controller.ObjectTarget(BallID), controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.Success)
}

func TestMoveForwardBy(t *testing.T) {
	h := New(t, nil)
	status, err := h.Ctrl.MoveForwardBy(1.5, controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.Success)
	if z := h.Build.AvatarPosition().Z; z < 1.15 || z > 1.85 {
		t.Fatalf("avatar z = %v after 1.5m move", z)
	}
}

func TestMoveOvershoots(t *testing.T) {
	// Bursts of 1.6m cannot land inside the 0.35m threshold of a 2m
	// target: the distance shrinks once, then grows.
	h := New(t, func(f *FakeBuild, _ *tuning.Tuning) {
		f.MoveRate = 0.02
	})
	status, err := h.Ctrl.MoveForwardBy(2, controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.Overshot)
}

func TestMoveBudgetBoundsTotalSteps(t *testing.T) {
	h := New(t, func(f *FakeBuild, tune *tuning.Tuning) {
		f.MoveDecay = 0.95
		tune.NumAttempts = 8
	})
	before := h.Build.Steps
	status, err := h.Ctrl.MoveForwardBy(5, controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.TooLong)
	if steps := h.Build.Steps - before; steps > 8 {
		t.Fatalf("move took %d steps, budget is 8", steps)
	}
}

func TestGoToAbortsOnHeavyCollision(t *testing.T) {
	h := New(t, func(f *FakeBuild, _ *tuning.Tuning) {
		f.AddObject(Object{
			ID: 9, Model: "sofa", Mass: 120,
			Position: mathx.Vec3{Y: 0.4, Z: 1.2},
			Extents:  mathx.Vec3{X: 0.5, Y: 0.4, Z: 0.5},
		})
	})
	target := mathx.Vec3{Z: 2.4}
	status, err := h.Ctrl.GoTo(controller.PosTarget(target), controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.CollidedHeavy)
	if d := h.Build.AvatarPosition().Flat().Dist(target); d <= 0.35 {
		t.Fatal("avatar reached the target despite the collision abort")
	}
}

func TestMoveIgnoresCollisionsWhenAsked(t *testing.T) {
	h := New(t, func(f *FakeBuild, _ *tuning.Tuning) {
		f.AddObject(Object{
			ID: 9, Model: "sofa", Mass: 120,
			Position: mathx.Vec3{Y: 0.4, Z: 1.2},
			Extents:  mathx.Vec3{X: 0.5, Y: 0.4, Z: 0.5},
		})
	})
	target := mathx.Vec3{Z: 2.4}
	status, err := h.Ctrl.GoTo(controller.PosTarget(target), controller.MoveOptions{IgnoreCollisions: true})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.Success)
	if d := h.Build.AvatarPosition().Flat().Dist(target); d > 0.35 {
		t.Fatalf("stopped %v from target", d)
	}
}

func TestMoveAbortsOnEnvironmentCollision(t *testing.T) {
	h := New(t, func(f *FakeBuild, _ *tuning.Tuning) {
		f.WallRadius = 2
	})
	status, err := h.Ctrl.MoveForwardBy(3, controller.MoveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	h.WantStatus(status, task.CollidedEnv)
}
