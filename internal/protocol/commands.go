package protocol

import "github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"

// Command is a single build instruction. The "$type" key selects the
// handler; everything else is that command's arguments. Commands are plain
// maps so collaborator-supplied batches pass through untouched.
type Command map[string]any

// Type returns the command's "$type" tag, or "" if missing.
func (c Command) Type() string {
	t, _ := c["$type"].(string)
	return t
}

// Vec3Arg reads a vector argument, accepting both in-process mathx.Vec3
// values and decoded JSON objects.
func (c Command) Vec3Arg(key string) mathx.Vec3 {
	switch v := c[key].(type) {
	case mathx.Vec3:
		return v
	case map[string]any:
		f := func(k string) float64 {
			x, _ := v[k].(float64)
			return x
		}
		return mathx.Vec3{X: f("x"), Y: f("y"), Z: f("z")}
	}
	return mathx.Vec3{}
}

// FloatArg reads a numeric argument.
func (c Command) FloatArg(key string) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// IntArg reads an integer argument.
func (c Command) IntArg(key string) int {
	switch v := c[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// BoolArg reads a boolean argument.
func (c Command) BoolArg(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// StringArg reads a string argument.
func (c Command) StringArg(key string) string {
	s, _ := c[key].(string)
	return s
}

// IntsArg reads an integer-list argument.
func (c Command) IntsArg(key string) []int {
	switch v := c[key].(type) {
	case []int:
		return v
	case []any:
		out := make([]int, 0, len(v))
		for _, e := range v {
			if f, ok := e.(float64); ok {
				out = append(out, int(f))
			}
		}
		return out
	}
	return nil
}

// Avatar commands.

func CreateAvatar(avatarID string) Command {
	return Command{"$type": "create_avatar", "avatar_id": avatarID, "avatar_type": "baby"}
}

func DestroyAvatar(avatarID string) Command {
	return Command{"$type": "destroy_avatar", "avatar_id": avatarID}
}

func TeleportAvatarTo(avatarID string, position mathx.Vec3) Command {
	return Command{"$type": "teleport_avatar_to", "avatar_id": avatarID, "position": position}
}

func SetAvatarDrag(avatarID string, drag, angularDrag float64) Command {
	return Command{"$type": "set_avatar_drag", "avatar_id": avatarID,
		"drag": drag, "angular_drag": angularDrag}
}

// SetRigidbodyConstraints freezes or frees avatar rotation and translation
// so movement forces only act on the intended degrees of freedom.
func SetRigidbodyConstraints(avatarID string, rotate, translate bool) Command {
	return Command{"$type": "set_avatar_rigidbody_constraints", "avatar_id": avatarID,
		"rotate": rotate, "translate": translate}
}

func TurnAvatarBy(avatarID string, torque float64) Command {
	return Command{"$type": "turn_avatar_by", "avatar_id": avatarID, "torque": torque}
}

func MoveAvatarForwardBy(avatarID string, magnitude float64) Command {
	return Command{"$type": "move_avatar_forward_by", "avatar_id": avatarID, "magnitude": magnitude}
}

// SetMittenProfile switches the arm joint compliance/damping profile.
// Profiles are keyed by what the avatar is about to do.
func SetMittenProfile(avatarID, profile string) Command {
	return Command{"$type": "set_sticky_mitten_profile", "avatar_id": avatarID, "profile": profile}
}

func SetStickiness(avatarID string, isLeft, sticky bool) Command {
	return Command{"$type": "set_stickiness", "avatar_id": avatarID,
		"is_left": isLeft, "is_sticky": sticky}
}

func BendArmJointTo(avatarID, joint, axis string, angle float64) Command {
	return Command{"$type": "bend_arm_joint_to", "avatar_id": avatarID,
		"joint": joint, "axis": axis, "angle": angle}
}

func StopArmJoint(avatarID, joint, axis string) Command {
	return Command{"$type": "stop_arm_joint", "avatar_id": avatarID, "joint": joint, "axis": axis}
}

// PickUpProximity attempts to stick any of the listed objects to the mitten
// if they fall within distance+radius of the mitten center.
func PickUpProximity(avatarID string, isLeft bool, distance, radius, grip float64, objectIDs []int) Command {
	return Command{"$type": "pick_up_proximity", "avatar_id": avatarID, "is_left": isLeft,
		"distance": distance, "radius": radius, "grip": grip, "object_ids": objectIDs}
}

func PutDown(avatarID string, isLeft bool) Command {
	return Command{"$type": "put_down", "avatar_id": avatarID, "is_left": isLeft}
}

func RotateSensorContainerBy(avatarID, axis string, angle float64) Command {
	return Command{"$type": "rotate_sensor_container_by", "avatar_id": avatarID,
		"axis": axis, "angle": angle}
}

func ResetSensorContainerRotation(avatarID string) Command {
	return Command{"$type": "reset_sensor_container_rotation", "avatar_id": avatarID}
}

// Object commands.

func TeleportObject(objectID int, position mathx.Vec3) Command {
	return Command{"$type": "teleport_object", "id": objectID, "position": position}
}

func RotateObjectTo(objectID int, yaw float64) Command {
	return Command{"$type": "rotate_object_to", "id": objectID, "yaw": yaw}
}

func SetMass(objectID int, mass float64) Command {
	return Command{"$type": "set_mass", "id": objectID, "mass": mass}
}

// Output-data requests. Frequency is "once" or "always".

func SendAvatars(frequency string) Command {
	return Command{"$type": "send_avatars", "frequency": frequency}
}

func SendAvatarSegmentationColors() Command {
	return Command{"$type": "send_avatar_segmentation_colors", "frequency": "once"}
}

func SendTransforms(frequency string) Command {
	return Command{"$type": "send_transforms", "frequency": frequency}
}

func SendRigidbodies(frequency string) Command {
	return Command{"$type": "send_rigidbodies", "frequency": frequency}
}

func SendCollisions(frequency string) Command {
	return Command{"$type": "send_collisions", "frequency": frequency,
		"enter": true, "stay": true, "exit": false}
}

func SendSegmentationColors() Command {
	return Command{"$type": "send_segmentation_colors", "frequency": "once"}
}

func SendBounds(objectIDs []int) Command {
	return Command{"$type": "send_bounds", "ids": objectIDs, "frequency": "once"}
}

// SendOverlapBox asks for the ids of all objects intersecting an axis
// aligned box.
func SendOverlapBox(center, halfExtents mathx.Vec3) Command {
	return Command{"$type": "send_overlap_box", "center": center, "half_extents": halfExtents}
}

func SendRaycast(origin, destination mathx.Vec3) Command {
	return Command{"$type": "send_raycast", "origin": origin, "destination": destination}
}

func SendImages(avatarID, frequency string) Command {
	return Command{"$type": "send_images", "avatar_id": avatarID, "frequency": frequency}
}

func SendStaticObjects() Command {
	return Command{"$type": "send_static_objects", "frequency": "once"}
}

// Scene commands.

func LoadScene(name string) Command {
	return Command{"$type": "load_scene", "scene_name": name}
}

func AddObject(modelName string, objectID int, position mathx.Vec3, mass float64) Command {
	return Command{"$type": "add_object", "name": modelName, "id": objectID,
		"position": position, "mass": mass}
}

func Terminate() Command {
	return Command{"$type": "terminate"}
}
