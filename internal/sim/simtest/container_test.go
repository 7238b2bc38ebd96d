package simtest

import (
	"testing"

	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/avatar"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/tuning"
)

func TestPutInContainerSucceeds(t *testing.T) {
	h := New(t, nil)
	res, err := h.Ctrl.PutInContainer(BallID, JugID, avatar.ArmRight)
	if err != nil {
		t.Fatal(err)
	}
	h.WantResult(res, task.Success)

	// The ledger records the containment and it is irreversible.
	if got := h.Ctrl.Static().ContainedIn(JugID); len(got) != 1 || got[0] != BallID {
		t.Fatalf("contained in jug = %v", got)
	}
	// The container ends up re-grasped by the off arm.
	if f := h.Ctrl.Frame(); len(f.HeldLeft) != 1 || f.HeldLeft[0] != JugID {
		t.Fatalf("held left = %v", f.HeldLeft)
	}
	// The ball was released into the jug, not kept on the mitten.
	if f := h.Ctrl.Frame(); len(f.HeldRight) != 0 {
		t.Fatalf("held right = %v", f.HeldRight)
	}
}

func TestPutInNotAContainer(t *testing.T) {
	h := New(t, func(f *FakeBuild, _ *tuning.Tuning) {
		f.AddObject(Object{ID: 3, Model: "cube", Mass: 0.5, Position: mathx.Vec3{X: -0.2, Y: 0.05, Z: 0.4}})
	})
	motions := h.Build.MotionCommands
	res, err := h.Ctrl.PutInContainer(BallID, 3, avatar.ArmRight)
	if err != nil {
		t.Fatal(err)
	}
	h.WantResult(res, task.NotAContainer)
	if h.Build.MotionCommands != motions {
		t.Fatal("rejection issued motion commands")
	}
}

func TestPutInFullContainer(t *testing.T) {
	h := New(t, func(f *FakeBuild, _ *tuning.Tuning) {
		// Three pebbles already inside the jug's interior volume.
		for i := 0; i < 3; i++ {
			f.AddObject(Object{
				ID: 20 + i, Model: "pebble", Mass: 0.1,
				Position: mathx.Vec3{X: 0.25, Y: 0.15, Z: 0.35},
			})
		}
	})
	motions := h.Build.MotionCommands
	res, err := h.Ctrl.PutInContainer(BallID, JugID, avatar.ArmRight)
	if err != nil {
		t.Fatal(err)
	}
	h.WantResult(res, task.FullContainer)
	if h.Build.MotionCommands != motions {
		t.Fatal("full-container rejection issued motion commands")
	}
}

func TestPutInContainerMissedDrop(t *testing.T) {
	h := New(t, func(f *FakeBuild, _ *tuning.Tuning) {
		f.DropMisses = true
	})
	res, err := h.Ctrl.PutInContainer(BallID, JugID, avatar.ArmRight)
	if err != nil {
		t.Fatal(err)
	}
	h.WantResult(res, task.NotInContainer)
	if got := h.Ctrl.Static().ContainedIn(JugID); len(got) != 0 {
		t.Fatalf("missed drop still recorded containment: %v", got)
	}
}

func TestPutInContainerPropagatesGraspFailure(t *testing.T) {
	h := New(t, func(f *FakeBuild, _ *tuning.Tuning) {
		f.RaycastObstructed = true
	})
	res, err := h.Ctrl.PutInContainer(BallID, JugID, avatar.ArmRight)
	if err != nil {
		t.Fatal(err)
	}
	// The inner grasp's status comes back verbatim.
	h.WantResult(res, task.BadRaycast)
}
