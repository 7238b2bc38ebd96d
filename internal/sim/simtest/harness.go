package simtest

import (
	"testing"

	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/controller"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/tuning"
)

// Standard room object ids.
const (
	BallID = 1
	JugID  = 2
)

// Harness wires a controller to a fake build seeded with a small standard
// room: a graspable ball in front of the avatar and a container jug beside
// it. The avatar starts at the origin facing +Z.
type Harness struct {
	T     *testing.T
	Build *FakeBuild
	Ctrl  *controller.Controller
}

// New builds the harness. cfg, when non-nil, may reshape the fake and the
// tuning before the scene initializes.
func New(t *testing.T, cfg func(*FakeBuild, *tuning.Tuning)) *Harness {
	t.Helper()
	fake := NewFakeBuild()
	fake.AddObject(Object{
		ID: BallID, Model: "octahedron", Mass: 0.25,
		Position: mathx.Vec3{Y: 0.05, Z: 0.45},
	})
	fake.AddObject(Object{
		ID: JugID, Model: "jug05", Mass: 1, Container: true,
		Position: mathx.Vec3{X: 0.25, Y: 0.1, Z: 0.35},
		Extents:  mathx.Vec3{X: 0.12, Y: 0.1, Z: 0.12},
	})

	tune := tuning.Defaults()
	// The fake turns in fixed-size bursts, so the threshold must exceed
	// the burst quantum for turns to converge.
	tune.TurnStoppingThreshold = 5
	if cfg != nil {
		cfg(fake, &tune)
	}

	ctrl := controller.New(fake, controller.Options{Tuning: &tune})
	if err := ctrl.InitScene("a", nil, mathx.Vec3{}); err != nil {
		t.Fatalf("init scene: %v", err)
	}
	return &Harness{T: t, Build: fake, Ctrl: ctrl}
}

// WantStatus fails the test when got differs from want.
func (h *Harness) WantStatus(got, want task.Status) {
	h.T.Helper()
	if got != want {
		h.T.Fatalf("status = %s, want %s", got, want)
	}
}

// WantResult fails the test when the result's status differs from want.
func (h *Harness) WantResult(res task.Result, want task.Status) {
	h.T.Helper()
	if res.Status != want {
		h.T.Fatalf("status = %s, want %s (arm=%s object=%d)", res.Status, want, res.Arm, res.ObjectID)
	}
}
