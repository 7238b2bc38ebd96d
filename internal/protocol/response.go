package protocol

import "github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"

// StepResponse is everything the build reports for one physics tick.
// Slices are present only if the matching send_* request is in flight.
type StepResponse struct {
	Frame              uint64            `json:"frame"`
	Avatars            []AvatarState     `json:"avatars,omitempty"`
	AvatarBodyParts    []BodyPartStatic  `json:"avatar_body_parts,omitempty"`
	Transforms         []ObjectTransform `json:"transforms,omitempty"`
	Rigidbodies        []Rigidbody       `json:"rigidbodies,omitempty"`
	Collisions         []Collision       `json:"collisions,omitempty"`
	EnvCollisions      []EnvCollision    `json:"env_collisions,omitempty"`
	Bounds             []ObjectBounds    `json:"bounds,omitempty"`
	Raycast            *RaycastHit       `json:"raycast,omitempty"`
	Overlap            []int             `json:"overlap,omitempty"`
	SegmentationColors []ObjectColor     `json:"segmentation_colors,omitempty"`
	StaticObjects      []StaticObject    `json:"static_objects,omitempty"`
	Images             []ImagePass       `json:"images,omitempty"`
}

// AvatarState is the per-tick dynamic state of one avatar.
type AvatarState struct {
	ID              string          `json:"id"`
	Position        mathx.Vec3      `json:"position"`
	Forward         mathx.Vec3      `json:"forward"`
	Velocity        mathx.Vec3      `json:"velocity"`
	AngularVelocity mathx.Vec3      `json:"angular_velocity"`
	BodyParts       []BodyPartState `json:"body_parts,omitempty"`
	AnglesLeft      []float64       `json:"angles_left,omitempty"`
	AnglesRight     []float64       `json:"angles_right,omitempty"`
	HeldLeft        []int           `json:"held_left,omitempty"`
	HeldRight       []int           `json:"held_right,omitempty"`
}

type BodyPartState struct {
	ID       int        `json:"id"`
	Position mathx.Vec3 `json:"position"`
	Velocity mathx.Vec3 `json:"velocity"`
}

// BodyPartStatic is reported once, at avatar creation.
type BodyPartStatic struct {
	ID       int      `json:"id"`
	AvatarID string   `json:"avatar_id"`
	Name     string   `json:"name"`
	Color    [3]uint8 `json:"color"`
}

type ObjectTransform struct {
	ID       int        `json:"id"`
	Position mathx.Vec3 `json:"position"`
	Forward  mathx.Vec3 `json:"forward"`
}

type Rigidbody struct {
	ID              int        `json:"id"`
	Velocity        mathx.Vec3 `json:"velocity"`
	AngularVelocity mathx.Vec3 `json:"angular_velocity"`
	Sleeping        bool       `json:"sleeping"`
}

// Collision is a body-part/object contact reported this tick.
type Collision struct {
	BodyPart int    `json:"body_part"`
	ObjectID int    `json:"object_id"`
	State    string `json:"state"`
}

// EnvCollision is a body-part contact with the static environment.
type EnvCollision struct {
	BodyPart int `json:"body_part"`
}

// ObjectBounds reports an object's axis-aligned half extents.
type ObjectBounds struct {
	ID      int        `json:"id"`
	Center  mathx.Vec3 `json:"center"`
	Extents mathx.Vec3 `json:"extents"`
}

type RaycastHit struct {
	Hit      bool       `json:"hit"`
	ObjectID int        `json:"object_id"`
	Point    mathx.Vec3 `json:"point"`
}

type ObjectColor struct {
	ID    int      `json:"id"`
	Color [3]uint8 `json:"color"`
}

// StaticObject is reported once per object, at scene init.
type StaticObject struct {
	ID        int     `json:"id"`
	ModelName string  `json:"model_name"`
	Category  string  `json:"category"`
	Mass      float64 `json:"mass"`
	Container bool    `json:"container"`
	Kinematic bool    `json:"kinematic"`
}

// ImagePass is one rendered pass (_img, _id, _depth) as an opaque blob.
type ImagePass struct {
	AvatarID string `json:"avatar_id"`
	Pass     string `json:"pass"`
	Data     []byte `json:"data"`
}
