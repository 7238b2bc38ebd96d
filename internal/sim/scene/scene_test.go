package scene

import (
	"testing"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
)

func initFrame() protocol.StepResponse {
	return protocol.StepResponse{
		Frame: 1,
		StaticObjects: []protocol.StaticObject{
			{ID: 7, ModelName: "jug05", Container: true, Mass: 1},
			{ID: 12, ModelName: "octahedron", Mass: 0.25},
		},
		SegmentationColors: []protocol.ObjectColor{
			{ID: 7, Color: [3]uint8{10, 20, 30}},
			{ID: 12, Color: [3]uint8{40, 50, 60}},
		},
		AvatarBodyParts: []protocol.BodyPartStatic{
			{ID: 100, AvatarID: "a", Name: "avatar_base"},
			{ID: 101, AvatarID: "a", Name: "mitten_left"},
			{ID: 999, AvatarID: "other", Name: "avatar_base"},
		},
	}
}

func TestBuildStatic(t *testing.T) {
	s := BuildStatic("a", initFrame())

	o, ok := s.Object(7)
	if !ok || !o.Container || o.ModelName != "jug05" {
		t.Fatalf("object 7 = %+v ok=%v", o, ok)
	}
	if o.SegmentationColor != [3]uint8{10, 20, 30} {
		t.Fatalf("color = %v", o.SegmentationColor)
	}
	if id, ok := s.ObjectForColor([3]uint8{40, 50, 60}); !ok || id != 12 {
		t.Fatalf("color lookup = %d ok=%v", id, ok)
	}
	if id, ok := s.BodyPartID("mitten_left"); !ok || id != 101 {
		t.Fatalf("mitten_left = %d ok=%v", id, ok)
	}
	if _, ok := s.BodyPart(999); ok {
		t.Fatal("foreign avatar body part leaked into cache")
	}
	if got := s.ObjectIDs(); len(got) != 2 || got[0] != 7 || got[1] != 12 {
		t.Fatalf("object ids = %v", got)
	}
}

func TestContainmentIsIrreversible(t *testing.T) {
	s := BuildStatic("a", initFrame())
	s.MarkContained(12, 7)
	if c, ok := s.ContainerOf(12); !ok || c != 7 {
		t.Fatalf("container of 12 = %d ok=%v", c, ok)
	}
	if got := s.ContainedIn(7); len(got) != 1 || got[0] != 12 {
		t.Fatalf("contained in 7 = %v", got)
	}
}

func TestDynamicUpdateOverwritesWholesale(t *testing.T) {
	d := NewDynamic()
	d.Update("a", protocol.StepResponse{
		Frame: 2,
		Avatars: []protocol.AvatarState{{
			ID:       "a",
			Position: mathx.Vec3{Z: 1},
			HeldLeft: []int{12},
			BodyParts: []protocol.BodyPartState{
				{ID: 101, Position: mathx.Vec3{Y: 0.3}},
			},
		}},
		Transforms: []protocol.ObjectTransform{
			{ID: 7, Position: mathx.Vec3{X: 1}},
			{ID: 12, Position: mathx.Vec3{X: 2}},
		},
		Collisions: []protocol.Collision{{BodyPart: 100, ObjectID: 7, State: "enter"}},
	})

	if _, held := d.Holding(12); !held {
		t.Fatal("12 should be held")
	}
	if got := d.CollidingWith(100); len(got) != 1 || got[0] != 7 {
		t.Fatalf("collisions = %v", got)
	}

	// Next frame: no collisions, one transform section replacing both.
	d.Update("a", protocol.StepResponse{
		Frame: 3,
		Avatars: []protocol.AvatarState{{ID: "a", Position: mathx.Vec3{Z: 2}}},
		Transforms: []protocol.ObjectTransform{
			{ID: 7, Position: mathx.Vec3{X: 5}},
		},
	})
	if got := d.CollidingWith(100); len(got) != 0 {
		t.Fatalf("stale collisions survived: %v", got)
	}
	if _, held := d.Holding(12); held {
		t.Fatal("held set should have been overwritten")
	}
	if tr, ok := d.ObjectTransform(7); !ok || tr.Position.X != 5 {
		t.Fatalf("transform 7 = %+v ok=%v", tr, ok)
	}
	if _, ok := d.ObjectTransform(12); ok {
		t.Fatal("transform section not replaced wholesale")
	}
}

func TestDynamicCopyOnRead(t *testing.T) {
	d := NewDynamic()
	d.Update("a", protocol.StepResponse{
		Avatars: []protocol.AvatarState{{
			ID:         "a",
			HeldLeft:   []int{1, 2},
			AnglesLeft: []float64{10, 20, 30},
		}},
		Collisions: []protocol.Collision{{BodyPart: 100, ObjectID: 7}},
	})

	held := d.Held(true)
	held[0] = 99
	if got := d.Held(true); got[0] != 1 {
		t.Fatal("Held returned shared backing array")
	}
	angles := d.Angles(true)
	angles[0] = -1
	if got := d.Angles(true); got[0] != 10 {
		t.Fatal("Angles returned shared backing array")
	}
	cols := d.CollidingWith(100)
	cols[0] = 99
	if got := d.CollidingWith(100); got[0] != 7 {
		t.Fatal("CollidingWith returned shared backing array")
	}
}
