// Package simtest provides a scripted in-process build for black-box
// controller tests: command semantics are modeled just faithfully enough
// that the closed-loop actions behave like they do against the real thing.
package simtest

import (
	"fmt"
	"strings"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/avatar"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
)

// Body part ids handed out by the fake.
const (
	BaseID        = 100
	MittenLeftID  = 101
	MittenRightID = 102
)

// Object is one scripted scene object.
type Object struct {
	ID        int
	Model     string
	Mass      float64
	Container bool
	Position  mathx.Vec3
	Extents   mathx.Vec3 // half extents

	// NoGrasp makes pick_up_proximity never stick this object.
	NoGrasp bool
	// Contact makes the object report mitten collisions on proximity.
	Contact bool
}

// FakeBuild implements controller.Channel with instantaneous pseudo
// physics. Rates are per command application.
type FakeBuild struct {
	// TurnRate converts torque to degrees rotated per burst.
	TurnRate float64
	// MoveRate converts forward magnitude to meters per burst.
	MoveRate float64
	// JointRate is the per-tick joint speed in degrees.
	JointRate float64
	// JointLimit caps every joint angle's magnitude when nonzero.
	JointLimit float64
	// WallRadius bounds the walkable area when nonzero; pushing against
	// it reports an environment collision on the base.
	WallRadius float64
	// RaycastObstructed makes every raycast miss.
	RaycastObstructed bool
	// DropMisses makes released objects land beside containers instead
	// of inside them.
	DropMisses bool
	// TurnDecay and MoveDecay scale the velocities each tick; raising
	// them toward 1 makes the avatar coast longer.
	TurnDecay float64
	MoveDecay float64

	// Counters for test assertions.
	Steps          int
	MotionCommands int
	// Profile is the last sticky-mitten profile the build received.
	Profile string

	frame    uint64
	created  bool
	avatarID string
	pos      mathx.Vec3
	yaw      float64
	vel      mathx.Vec3
	angVel   float64

	angles map[avatar.Arm][]float64
	target map[avatar.Arm][]float64
	held   map[avatar.Arm][]int

	objects map[int]*Object

	sendAvatars, sendTransforms, sendRigidbodies, sendCollisions bool
	onceStatic, onceColors, onceBodyParts                        bool
	pendingBounds                                                []int
	pendingRaycast                                               *[2]mathx.Vec3
	pendingOverlap                                               *[2]mathx.Vec3

	collisions    []protocol.Collision
	envCollisions []protocol.EnvCollision
}

func NewFakeBuild() *FakeBuild {
	return &FakeBuild{
		TurnRate:  0.004,
		MoveRate:  0.004,
		JointRate: 12,
		TurnDecay: 0.05,
		MoveDecay: 0.05,
		angles: map[avatar.Arm][]float64{
			avatar.ArmLeft:  make([]float64, avatar.NumJoints),
			avatar.ArmRight: make([]float64, avatar.NumJoints),
		},
		target: map[avatar.Arm][]float64{
			avatar.ArmLeft:  make([]float64, avatar.NumJoints),
			avatar.ArmRight: make([]float64, avatar.NumJoints),
		},
		held:    map[avatar.Arm][]int{},
		objects: make(map[int]*Object),
	}
}

// AddObject seeds a scene object before InitScene runs.
func (f *FakeBuild) AddObject(o Object) {
	if o.Extents == (mathx.Vec3{}) {
		o.Extents = mathx.Vec3{X: 0.05, Y: 0.05, Z: 0.05}
	}
	cp := o
	f.objects[o.ID] = &cp
}

// ObjectPosition exposes an object's scripted position to assertions.
func (f *FakeBuild) ObjectPosition(id int) mathx.Vec3 { return f.objects[id].Position }

// AvatarPosition exposes the avatar's scripted position.
func (f *FakeBuild) AvatarPosition() mathx.Vec3 { return f.pos }

func (f *FakeBuild) forward() mathx.Vec3 { return mathx.Vec3{Z: 1}.RotateY(f.yaw) }

func (f *FakeBuild) mitten(arm avatar.Arm) mathx.Vec3 {
	local := avatar.MittenLocal(arm, f.angles[arm])
	return avatar.WorldFromLocal(f.pos, f.forward(), local)
}

func (f *FakeBuild) heldBy(id int) (avatar.Arm, bool) {
	for arm, ids := range f.held {
		for _, h := range ids {
			if h == id {
				return arm, true
			}
		}
	}
	return "", false
}

// Step applies the batch, advances one tick and reports the frame.
func (f *FakeBuild) Step(commands []protocol.Command) (protocol.StepResponse, error) {
	f.Steps++
	f.frame++
	for _, cmd := range commands {
		if err := f.apply(cmd); err != nil {
			return protocol.StepResponse{}, err
		}
	}
	f.integrate()
	f.collide()
	return f.respond(), nil
}

func (f *FakeBuild) apply(cmd protocol.Command) error {
	switch cmd.Type() {
	case "create_avatar":
		f.created = true
		f.avatarID = cmd.StringArg("avatar_id")
		f.onceBodyParts = true
	case "teleport_avatar_to":
		f.pos = cmd.Vec3Arg("position")
	case "turn_avatar_by":
		f.MotionCommands++
		f.angVel = cmd.FloatArg("torque") * f.TurnRate
	case "move_avatar_forward_by":
		f.MotionCommands++
		f.vel = f.forward().Scale(cmd.FloatArg("magnitude") * f.MoveRate)
	case "bend_arm_joint_to":
		f.MotionCommands++
		arm, idx, err := jointIndex(cmd.StringArg("joint"), cmd.StringArg("axis"))
		if err != nil {
			return err
		}
		f.target[arm][idx] = cmd.FloatArg("angle")
	case "stop_arm_joint":
		f.MotionCommands++
		arm, idx, err := jointIndex(cmd.StringArg("joint"), cmd.StringArg("axis"))
		if err != nil {
			return err
		}
		f.target[arm][idx] = f.angles[arm][idx]
	case "pick_up_proximity":
		f.MotionCommands++
		f.pickUp(cmd)
	case "put_down":
		f.MotionCommands++
		arm := avatar.ArmRight
		if cmd.BoolArg("is_left") {
			arm = avatar.ArmLeft
		}
		f.putDown(arm)
	case "teleport_object":
		if o, ok := f.objects[cmd.IntArg("id")]; ok {
			o.Position = cmd.Vec3Arg("position")
		}
	case "set_mass":
		if o, ok := f.objects[cmd.IntArg("id")]; ok {
			o.Mass = cmd.FloatArg("mass")
		}
	case "add_object":
		f.AddObject(Object{
			ID:       cmd.IntArg("id"),
			Model:    cmd.StringArg("name"),
			Mass:     cmd.FloatArg("mass"),
			Position: cmd.Vec3Arg("position"),
		})
	case "send_avatars":
		f.sendAvatars = true
	case "send_transforms":
		f.sendTransforms = true
	case "send_rigidbodies":
		f.sendRigidbodies = true
	case "send_collisions":
		f.sendCollisions = true
	case "send_static_objects":
		f.onceStatic = true
	case "send_segmentation_colors":
		f.onceColors = true
	case "send_avatar_segmentation_colors":
		f.onceBodyParts = true
	case "send_bounds":
		f.pendingBounds = cmd.IntsArg("ids")
	case "send_raycast":
		f.pendingRaycast = &[2]mathx.Vec3{cmd.Vec3Arg("origin"), cmd.Vec3Arg("destination")}
	case "send_overlap_box":
		f.pendingOverlap = &[2]mathx.Vec3{cmd.Vec3Arg("center"), cmd.Vec3Arg("half_extents")}
	case "set_sticky_mitten_profile":
		f.Profile = cmd.StringArg("profile")
	case "set_avatar_drag", "set_avatar_rigidbody_constraints",
		"set_stickiness", "rotate_object_to", "rotate_sensor_container_by",
		"reset_sensor_container_rotation", "send_images", "load_scene", "terminate":
		// accepted, no scripted effect
	case "":
		return fmt.Errorf("simtest: command without $type")
	default:
		return fmt.Errorf("simtest: unknown command %q", cmd.Type())
	}
	return nil
}

func jointIndex(joint, axis string) (avatar.Arm, int, error) {
	arm := avatar.ArmRight
	if strings.HasSuffix(joint, "_left") {
		arm = avatar.ArmLeft
	}
	for i, j := range avatar.JointsFor(arm) {
		if j.Joint == joint && j.Axis == axis {
			return arm, i, nil
		}
	}
	return arm, 0, fmt.Errorf("simtest: unknown joint %s/%s", joint, axis)
}

func (f *FakeBuild) pickUp(cmd protocol.Command) {
	arm := avatar.ArmRight
	if cmd.BoolArg("is_left") {
		arm = avatar.ArmLeft
	}
	reach := cmd.FloatArg("distance") + cmd.FloatArg("radius")
	m := f.mitten(arm)
	for _, id := range cmd.IntsArg("object_ids") {
		o, ok := f.objects[id]
		if !ok || o.NoGrasp {
			continue
		}
		if _, held := f.heldBy(id); held {
			continue
		}
		if m.Dist(o.Position) <= reach+o.Extents.Norm() {
			f.held[arm] = append(f.held[arm], id)
		}
	}
}

// putDown releases the arm's objects and resolves gravity instantly: into a
// container when over one, else onto the floor.
func (f *FakeBuild) putDown(arm avatar.Arm) {
	for _, id := range f.held[arm] {
		o := f.objects[id]
		landed := false
		if !f.DropMisses {
			for _, c := range f.objects {
				if !c.Container || c.ID == id {
					continue
				}
				if mathx.AbsF(o.Position.X-c.Position.X) <= c.Extents.X &&
					mathx.AbsF(o.Position.Z-c.Position.Z) <= c.Extents.Z {
					o.Position = mathx.Vec3{X: o.Position.X, Y: c.Position.Y + 0.02, Z: o.Position.Z}
					landed = true
					break
				}
			}
		}
		if !landed {
			o.Position = mathx.Vec3{X: o.Position.X + 0.3, Y: o.Extents.Y, Z: o.Position.Z}
		}
	}
	f.held[arm] = nil
}

func (f *FakeBuild) integrate() {
	f.yaw = mathx.NormalizeDeg(f.yaw + f.angVel)
	f.angVel *= f.TurnDecay
	if mathx.AbsF(f.angVel) < 0.1 {
		f.angVel = 0
	}

	f.pos = f.pos.Add(f.vel)
	f.vel = f.vel.Scale(f.MoveDecay)
	if f.vel.Norm() < 0.02 {
		f.vel = mathx.Vec3{}
	}

	f.envCollisions = nil
	if f.WallRadius > 0 {
		clamped := mathx.Vec3{
			X: mathx.Clamp(f.pos.X, -f.WallRadius, f.WallRadius),
			Y: f.pos.Y,
			Z: mathx.Clamp(f.pos.Z, -f.WallRadius, f.WallRadius),
		}
		if clamped != f.pos {
			f.pos = clamped
			f.envCollisions = append(f.envCollisions, protocol.EnvCollision{BodyPart: BaseID})
		}
	}

	for arm, angles := range f.angles {
		for i := range angles {
			angles[i] += mathx.Clamp(f.target[arm][i]-angles[i], -f.JointRate, f.JointRate)
			if f.JointLimit > 0 {
				angles[i] = mathx.Clamp(angles[i], -f.JointLimit, f.JointLimit)
			}
		}
	}

	// Held objects ride the mitten.
	for arm, ids := range f.held {
		m := f.mitten(arm)
		for _, id := range ids {
			f.objects[id].Position = m
		}
	}
}

func (f *FakeBuild) collide() {
	f.collisions = nil
	for _, o := range f.objects {
		if _, held := f.heldBy(o.ID); held {
			continue
		}
		baseRange := mathxHypot(o.Extents.X, o.Extents.Z) + 0.2
		if f.pos.Flat().Dist(o.Position.Flat()) <= baseRange {
			f.collisions = append(f.collisions, protocol.Collision{
				BodyPart: BaseID, ObjectID: o.ID, State: "stay",
			})
		}
		if o.Contact {
			for arm, mittenID := range map[avatar.Arm]int{avatar.ArmLeft: MittenLeftID, avatar.ArmRight: MittenRightID} {
				if f.mitten(arm).Dist(o.Position) <= o.Extents.Norm()+0.05 {
					f.collisions = append(f.collisions, protocol.Collision{
						BodyPart: mittenID, ObjectID: o.ID, State: "stay",
					})
				}
			}
		}
	}
}

func mathxHypot(a, b float64) float64 {
	v := mathx.Vec3{X: a, Z: b}
	return v.Norm()
}

func (f *FakeBuild) respond() protocol.StepResponse {
	resp := protocol.StepResponse{Frame: f.frame}

	if f.sendAvatars && f.created {
		resp.Avatars = []protocol.AvatarState{{
			ID:              f.avatarID,
			Position:        f.pos,
			Forward:         f.forward(),
			Velocity:        f.vel,
			AngularVelocity: mathx.Vec3{Y: f.angVel},
			BodyParts: []protocol.BodyPartState{
				{ID: BaseID, Position: f.pos},
				{ID: MittenLeftID, Position: f.mitten(avatar.ArmLeft)},
				{ID: MittenRightID, Position: f.mitten(avatar.ArmRight)},
			},
			AnglesLeft:  append([]float64(nil), f.angles[avatar.ArmLeft]...),
			AnglesRight: append([]float64(nil), f.angles[avatar.ArmRight]...),
			HeldLeft:    append([]int(nil), f.held[avatar.ArmLeft]...),
			HeldRight:   append([]int(nil), f.held[avatar.ArmRight]...),
		}}
	}
	if f.onceBodyParts && f.created {
		f.onceBodyParts = false
		resp.AvatarBodyParts = []protocol.BodyPartStatic{
			{ID: BaseID, AvatarID: f.avatarID, Name: "avatar_base"},
			{ID: MittenLeftID, AvatarID: f.avatarID, Name: "mitten_left"},
			{ID: MittenRightID, AvatarID: f.avatarID, Name: "mitten_right"},
		}
	}
	if f.onceStatic {
		f.onceStatic = false
		for _, o := range f.objects {
			resp.StaticObjects = append(resp.StaticObjects, protocol.StaticObject{
				ID: o.ID, ModelName: o.Model, Mass: o.Mass, Container: o.Container,
			})
		}
	}
	if f.onceColors {
		f.onceColors = false
		for _, o := range f.objects {
			resp.SegmentationColors = append(resp.SegmentationColors, protocol.ObjectColor{
				ID: o.ID, Color: [3]uint8{uint8(o.ID), uint8(o.ID >> 8), 7},
			})
		}
	}
	if f.sendTransforms {
		for _, o := range f.objects {
			resp.Transforms = append(resp.Transforms, protocol.ObjectTransform{
				ID: o.ID, Position: o.Position, Forward: mathx.Vec3{Z: 1},
			})
		}
	}
	if f.sendRigidbodies {
		for _, o := range f.objects {
			resp.Rigidbodies = append(resp.Rigidbodies, protocol.Rigidbody{
				ID: o.ID, Sleeping: true,
			})
		}
	}
	if f.sendCollisions {
		resp.Collisions = append(resp.Collisions, f.collisions...)
		resp.EnvCollisions = append(resp.EnvCollisions, f.envCollisions...)
	}

	if f.pendingBounds != nil {
		for _, id := range f.pendingBounds {
			if o, ok := f.objects[id]; ok {
				resp.Bounds = append(resp.Bounds, protocol.ObjectBounds{
					ID: id, Center: o.Position, Extents: o.Extents,
				})
			}
		}
		f.pendingBounds = nil
	}
	if f.pendingRaycast != nil {
		origin, dest := f.pendingRaycast[0], f.pendingRaycast[1]
		f.pendingRaycast = nil
		resp.Raycast = f.raycast(origin, dest)
	}
	if f.pendingOverlap != nil {
		center, half := f.pendingOverlap[0], f.pendingOverlap[1]
		f.pendingOverlap = nil
		for _, o := range f.objects {
			d := o.Position.Sub(center)
			if mathx.AbsF(d.X) <= half.X && mathx.AbsF(d.Y) <= half.Y && mathx.AbsF(d.Z) <= half.Z {
				resp.Overlap = append(resp.Overlap, o.ID)
			}
		}
	}
	return resp
}

func (f *FakeBuild) raycast(origin, dest mathx.Vec3) *protocol.RaycastHit {
	if f.RaycastObstructed {
		return &protocol.RaycastHit{Hit: false}
	}
	var best *Object
	bestDist := 0.25
	for _, o := range f.objects {
		if d := o.Position.Dist(dest); d < bestDist {
			best, bestDist = o, d
		}
	}
	if best == nil {
		return &protocol.RaycastHit{Hit: false}
	}
	toward := origin.Sub(best.Position)
	point := best.Position.Add(toward.Unit().Scale(minF(best.Extents.Norm(), toward.Norm())))
	return &protocol.RaycastHit{Hit: true, ObjectID: best.ID, Point: point}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
