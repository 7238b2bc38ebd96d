// Package scene caches what the build has reported: immutable static
// records captured at scene init, and a per-tick dynamic snapshot that each
// frame overwrites wholesale. Accessors hand out copies so callers can hold
// results across ticks.
package scene

import (
	"sort"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
)

// ObjectInfo is the static record of one scene object.
type ObjectInfo struct {
	ID                int
	ModelName         string
	Category          string
	Mass              float64
	Container         bool
	Kinematic         bool
	SegmentationColor [3]uint8
}

// BodyPart is the static record of one avatar body part.
type BodyPart struct {
	ID    int
	Name  string
	Color [3]uint8
}

// Static holds everything that never changes after scene init, plus the
// containment ledger. Containment is irreversible: once an object is marked
// inside a container it stays counted against that container's capacity.
type Static struct {
	AvatarID string

	objects    map[int]ObjectInfo
	bodyByID   map[int]BodyPart
	bodyByName map[string]int
	colorToID  map[[3]uint8]int
	contained  map[int]int
}

// BuildStatic captures the once-per-scene records out of the init frame.
func BuildStatic(avatarID string, resp protocol.StepResponse) *Static {
	s := &Static{
		AvatarID:   avatarID,
		objects:    make(map[int]ObjectInfo),
		bodyByID:   make(map[int]BodyPart),
		bodyByName: make(map[string]int),
		colorToID:  make(map[[3]uint8]int),
		contained:  make(map[int]int),
	}
	for _, o := range resp.StaticObjects {
		s.objects[o.ID] = ObjectInfo{
			ID:        o.ID,
			ModelName: o.ModelName,
			Category:  o.Category,
			Mass:      o.Mass,
			Container: o.Container,
			Kinematic: o.Kinematic,
		}
	}
	for _, c := range resp.SegmentationColors {
		if info, ok := s.objects[c.ID]; ok {
			info.SegmentationColor = c.Color
			s.objects[c.ID] = info
		}
		s.colorToID[c.Color] = c.ID
	}
	for _, bp := range resp.AvatarBodyParts {
		if bp.AvatarID != avatarID {
			continue
		}
		s.bodyByID[bp.ID] = BodyPart{ID: bp.ID, Name: bp.Name, Color: bp.Color}
		s.bodyByName[bp.Name] = bp.ID
	}
	return s
}

func (s *Static) Object(id int) (ObjectInfo, bool) {
	o, ok := s.objects[id]
	return o, ok
}

// ObjectIDs returns all scene object ids, sorted.
func (s *Static) ObjectIDs() []int {
	ids := make([]int, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Static) BodyPartID(name string) (int, bool) {
	id, ok := s.bodyByName[name]
	return id, ok
}

func (s *Static) BodyPart(id int) (BodyPart, bool) {
	bp, ok := s.bodyByID[id]
	return bp, ok
}

// ObjectForColor maps a segmentation color back to an object id.
func (s *Static) ObjectForColor(color [3]uint8) (int, bool) {
	id, ok := s.colorToID[color]
	return id, ok
}

// MarkContained records that object settled inside container.
func (s *Static) MarkContained(objectID, containerID int) {
	s.contained[objectID] = containerID
}

func (s *Static) ContainerOf(objectID int) (int, bool) {
	c, ok := s.contained[objectID]
	return c, ok
}

// ContainedIn lists the objects recorded inside container, sorted.
func (s *Static) ContainedIn(containerID int) []int {
	var ids []int
	for obj, c := range s.contained {
		if c == containerID {
			ids = append(ids, obj)
		}
	}
	sort.Ints(ids)
	return ids
}

// Transform is an object pose this tick.
type Transform struct {
	Position mathx.Vec3
	Forward  mathx.Vec3
}

// AvatarPose is the avatar's dynamic state this tick.
type AvatarPose struct {
	Position        mathx.Vec3
	Forward         mathx.Vec3
	Velocity        mathx.Vec3
	AngularVelocity mathx.Vec3
}

type bodyPose struct {
	position mathx.Vec3
	velocity mathx.Vec3
}

// Dynamic is the per-tick snapshot. Update replaces each section wholesale
// whenever the frame carries it; collisions are per-tick facts and reset
// every frame regardless.
type Dynamic struct {
	Frame  uint64
	Avatar AvatarPose

	bodyParts     map[int]bodyPose
	anglesLeft    []float64
	anglesRight   []float64
	heldLeft      []int
	heldRight     []int
	objects       map[int]Transform
	velocities    map[int]mathx.Vec3
	sleeping      map[int]bool
	collisions    map[int][]int
	envCollisions map[int]bool
}

func NewDynamic() *Dynamic {
	return &Dynamic{
		bodyParts:     make(map[int]bodyPose),
		objects:       make(map[int]Transform),
		velocities:    make(map[int]mathx.Vec3),
		sleeping:      make(map[int]bool),
		collisions:    make(map[int][]int),
		envCollisions: make(map[int]bool),
	}
}

// Update overwrites the snapshot from one frame.
func (d *Dynamic) Update(avatarID string, resp protocol.StepResponse) {
	d.Frame = resp.Frame

	for _, a := range resp.Avatars {
		if a.ID != avatarID {
			continue
		}
		d.Avatar = AvatarPose{
			Position:        a.Position,
			Forward:         a.Forward,
			Velocity:        a.Velocity,
			AngularVelocity: a.AngularVelocity,
		}
		d.bodyParts = make(map[int]bodyPose, len(a.BodyParts))
		for _, bp := range a.BodyParts {
			d.bodyParts[bp.ID] = bodyPose{position: bp.Position, velocity: bp.Velocity}
		}
		d.anglesLeft = append([]float64(nil), a.AnglesLeft...)
		d.anglesRight = append([]float64(nil), a.AnglesRight...)
		d.heldLeft = append([]int(nil), a.HeldLeft...)
		d.heldRight = append([]int(nil), a.HeldRight...)
	}

	if resp.Transforms != nil {
		d.objects = make(map[int]Transform, len(resp.Transforms))
		for _, tr := range resp.Transforms {
			d.objects[tr.ID] = Transform{Position: tr.Position, Forward: tr.Forward}
		}
	}
	if resp.Rigidbodies != nil {
		d.velocities = make(map[int]mathx.Vec3, len(resp.Rigidbodies))
		d.sleeping = make(map[int]bool, len(resp.Rigidbodies))
		for _, rb := range resp.Rigidbodies {
			d.velocities[rb.ID] = rb.Velocity
			d.sleeping[rb.ID] = rb.Sleeping
		}
	}

	d.collisions = make(map[int][]int)
	for _, c := range resp.Collisions {
		d.collisions[c.BodyPart] = append(d.collisions[c.BodyPart], c.ObjectID)
	}
	d.envCollisions = make(map[int]bool)
	for _, c := range resp.EnvCollisions {
		d.envCollisions[c.BodyPart] = true
	}
}

// Held returns the ids stuck to one mitten, as a copy.
func (d *Dynamic) Held(left bool) []int {
	if left {
		return append([]int(nil), d.heldLeft...)
	}
	return append([]int(nil), d.heldRight...)
}

func (d *Dynamic) Holding(objectID int) (left bool, held bool) {
	for _, id := range d.heldLeft {
		if id == objectID {
			return true, true
		}
	}
	for _, id := range d.heldRight {
		if id == objectID {
			return false, true
		}
	}
	return false, false
}

// Angles returns one arm's joint angles in degrees, as a copy.
func (d *Dynamic) Angles(left bool) []float64 {
	if left {
		return append([]float64(nil), d.anglesLeft...)
	}
	return append([]float64(nil), d.anglesRight...)
}

func (d *Dynamic) ObjectTransform(id int) (Transform, bool) {
	tr, ok := d.objects[id]
	return tr, ok
}

func (d *Dynamic) ObjectVelocity(id int) (mathx.Vec3, bool) {
	v, ok := d.velocities[id]
	return v, ok
}

func (d *Dynamic) Sleeping(id int) bool { return d.sleeping[id] }

func (d *Dynamic) BodyPartPosition(id int) (mathx.Vec3, bool) {
	bp, ok := d.bodyParts[id]
	return bp.position, ok
}

// CollidingWith returns the object ids touching one body part this tick.
func (d *Dynamic) CollidingWith(bodyPartID int) []int {
	return append([]int(nil), d.collisions[bodyPartID]...)
}

func (d *Dynamic) EnvCollision(bodyPartID int) bool { return d.envCollisions[bodyPartID] }

// ObjectTransforms returns a copy of all object poses this tick.
func (d *Dynamic) ObjectTransforms() map[int]Transform {
	out := make(map[int]Transform, len(d.objects))
	for id, tr := range d.objects {
		out[id] = tr
	}
	return out
}
