package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	// Round-trip the Go structs through JSON so the schemas check what we
	// actually put on the wire.
	roundTrip := func(v any) any {
		t.Helper()
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return out
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	stepSchema := compile("step.schema.json")
	frameSchema := compile("frame.schema.json")

	validate(helloSchema, roundTrip(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ControllerName:  "sma",
	}))

	validate(welcomeSchema, roundTrip(protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		BuildVersion:    "1.6.0",
		ScreenWidth:     256,
		ScreenHeight:    256,
	}))

	validate(stepSchema, roundTrip(protocol.StepMsg{
		Type: protocol.TypeStep,
		Commands: []protocol.Command{
			protocol.CreateAvatar("a"),
			protocol.TurnAvatarBy("a", 1000),
			protocol.BendArmJointTo("a", "shoulder_left", "pitch", 45),
			protocol.PickUpProximity("a", true, 0.1, 0.1, 1000, []int{7, 12}),
			protocol.SendOverlapBox(mathx.Vec3{Z: 0.4}, mathx.Vec3{X: 0.2, Y: 0.2, Z: 0.2}),
		},
	}))

	validate(frameSchema, roundTrip(protocol.FrameMsg{
		Type: protocol.TypeFrame,
		StepResponse: protocol.StepResponse{
			Frame: 42,
			Avatars: []protocol.AvatarState{{
				ID:          "a",
				Forward:     mathx.Vec3{Z: 1},
				AnglesLeft:  []float64{0, 0, 0},
				AnglesRight: []float64{10, 20, 30},
				HeldLeft:    []int{7},
			}},
			Transforms: []protocol.ObjectTransform{
				{ID: 7, Position: mathx.Vec3{X: 0.1, Y: 0.2, Z: 0.3}},
			},
			Collisions: []protocol.Collision{
				{BodyPart: 3, ObjectID: 7, State: "enter"},
			},
			Raycast: &protocol.RaycastHit{Hit: true, ObjectID: 7, Point: mathx.Vec3{Y: 0.2}},
			Overlap: []int{7, 12},
		},
	}))
}

func TestDecodeBase(t *testing.T) {
	m, err := protocol.DecodeBase([]byte(`{"type":"FRAME","frame":9}`))
	if err != nil {
		t.Fatal(err)
	}
	if m.Type != protocol.TypeFrame {
		t.Fatalf("type = %q, want FRAME", m.Type)
	}
}

func TestCommandArgs(t *testing.T) {
	c := protocol.PickUpProximity("a", true, 0.1, 0.1, 1000, []int{5})
	if c.Type() != "pick_up_proximity" {
		t.Fatalf("type = %q", c.Type())
	}
	if !c.BoolArg("is_left") || c.FloatArg("grip") != 1000 {
		t.Fatal("argument accessors disagree with constructor")
	}
	if ids := c.IntsArg("object_ids"); len(ids) != 1 || ids[0] != 5 {
		t.Fatalf("object_ids = %v", ids)
	}

	// A command decoded from JSON carries map/float values instead.
	b, _ := json.Marshal(protocol.TeleportObject(9, mathx.Vec3{X: 1, Y: 2, Z: 3}))
	var dec protocol.Command
	if err := json.Unmarshal(b, &dec); err != nil {
		t.Fatal(err)
	}
	if dec.IntArg("id") != 9 {
		t.Fatalf("id = %d", dec.IntArg("id"))
	}
	if got := dec.Vec3Arg("position"); got != (mathx.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("position = %v", got)
	}
}
