package controller

import (
	"fmt"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/avatar"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
)

// Distances for the container set-down pose in front of the avatar.
const (
	setDownDistance = 0.34
	dropHeight      = 0.15
	jitterStep      = 0.02
)

// PutInContainer grasps the object, grasps the container with the other
// arm, sets the container down in front of the avatar (a deliberate
// non-physical teleport), holds the object above the opening and drops it,
// then verifies containment with an overlap query and re-grasps the
// container. Failing sub-actions propagate their status verbatim.
func (c *Controller) PutInContainer(objectID, containerID int, arm avatar.Arm) (task.Result, error) {
	info, ok := c.static.Object(containerID)
	if !ok {
		return task.Result{}, fmt.Errorf("put_in_container: unknown object %d", containerID)
	}
	if !info.Container {
		return c.finish(task.KindPutIn, task.TermNotAContainer, arm, containerID), nil
	}
	contents, err := c.objectsInContainer(containerID)
	if err != nil {
		return task.Result{}, err
	}
	if len(contents) >= c.tune.ContainerCapacity {
		return c.finish(task.KindPutIn, task.TermFullContainer, arm, containerID), nil
	}

	armHolding := arm
	if left, held := c.dyn.Holding(objectID); held {
		armHolding = avatar.ArmRight
		if left {
			armHolding = avatar.ArmLeft
		}
	} else {
		res, err := c.GraspObject(objectID, arm, GraspOptions{})
		if err != nil {
			return task.Result{}, err
		}
		if res.Status != task.Success {
			return res, nil
		}
		armHolding = avatar.Arm(res.Arm)
	}
	containerArm := avatar.Other(armHolding)

	if _, held := c.dyn.Holding(containerID); !held {
		res, err := c.GraspObject(containerID, containerArm, GraspOptions{})
		if err != nil {
			return task.Result{}, err
		}
		if res.Status != task.Success {
			return res, nil
		}
	}

	// Lift the object clear of the floor before moving the container.
	lift := mathx.Vec3{X: 0.2, Y: 0.55, Z: 0.3}
	if armHolding.IsLeft() {
		lift.X = -lift.X
	}
	if _, err := c.ReachForTarget(armHolding, lift, ReachOptions{NoCheck: true}); err != nil {
		return task.Result{}, err
	}

	// Set the container down in front of the avatar.
	c.enqueue(protocol.PutDown(c.av.ID, containerArm.IsLeft()))
	fwd := c.dyn.Avatar.Forward.Flat().Unit()
	setDown := c.dyn.Avatar.Position.Flat().Add(fwd.Scale(setDownDistance))
	// Keep the container at its current height so the teleport sets it on
	// whatever surface it already rests on.
	if tr, ok := c.dyn.ObjectTransform(containerID); ok {
		setDown.Y = tr.Position.Y
	}
	if _, err := c.step(
		protocol.TeleportObject(containerID, setDown),
		protocol.RotateObjectTo(containerID, fwd.Yaw()),
	); err != nil {
		return task.Result{}, err
	}
	if err := c.waitForObjectsToStop(containerID); err != nil {
		return task.Result{}, err
	}

	center, ext, err := c.containerBounds(containerID)
	if err != nil {
		return task.Result{}, err
	}
	top := center.Y + ext.Y

	// Hold the object above the opening, jittering the reach target until
	// the object is actually over it.
	over := false
	for i := 0; i < c.tune.NumAttempts && !over; i++ {
		above := mathx.Vec3{
			X: center.X + jitterStep*float64((i%3)-1),
			Y: top + dropHeight,
			Z: center.Z + jitterStep*float64((i/3%3)-1),
		}
		if _, err := c.ReachForTarget(armHolding, above, ReachOptions{Absolute: true, NoCheck: true}); err != nil {
			return task.Result{}, err
		}
		tr, ok := c.dyn.ObjectTransform(objectID)
		over = ok &&
			mathx.AbsF(tr.Position.X-center.X) <= ext.X &&
			mathx.AbsF(tr.Position.Z-center.Z) <= ext.Z &&
			tr.Position.Y > center.Y
	}

	c.enqueue(protocol.PutDown(c.av.ID, armHolding.IsLeft()))
	if _, err := c.step(); err != nil {
		return task.Result{}, err
	}
	if err := c.waitForObjectsToStop(objectID); err != nil {
		return task.Result{}, err
	}

	contents, err = c.objectsInContainer(containerID)
	if err != nil {
		return task.Result{}, err
	}
	contained := false
	for _, id := range contents {
		if id == objectID {
			contained = true
		}
	}
	if !contained {
		return c.finish(task.KindPutIn, task.TermNotContained, armHolding, objectID), nil
	}
	c.static.MarkContained(objectID, containerID)

	res, err := c.GraspObject(containerID, containerArm, GraspOptions{})
	if err != nil {
		return task.Result{}, err
	}
	if res.Status != task.Success {
		return res, nil
	}
	return c.finish(task.KindPutIn, task.TermContained, armHolding, objectID), nil
}

// TapObject reaches toward the object's surface point and succeeds on
// mitten contact instead of arrival.
func (c *Controller) TapObject(objectID int, arm avatar.Arm) (task.Result, error) {
	if _, ok := c.static.Object(objectID); !ok {
		return task.Result{}, fmt.Errorf("tap: unknown object %d", objectID)
	}
	point, ok, err := c.raycastPoint(objectID, arm)
	if err != nil {
		return task.Result{}, err
	}
	if !ok {
		return c.finish(task.KindTap, task.TermBadRaycast, arm, objectID), nil
	}
	local := avatar.LocalFromWorld(c.dyn.Avatar.Position, c.dyn.Avatar.Forward, point)
	if term, reachable := avatar.CanReach(arm, local, 0); !reachable {
		return c.finish(task.KindTap, term, arm, objectID), nil
	}

	c.enqueue(c.av.StartReach(arm, &avatar.Goal{
		TargetLocal: local,
		Precision:   c.tune.ReachPrecision,
		TapID:       objectID,
	})...)
	term, err := c.doJointMotion(arm)
	if err != nil {
		return task.Result{}, err
	}
	return c.finish(task.KindTap, term, arm, objectID), nil
}

// containerBounds returns the container's reported bounds, falling back to
// its transform with nominal extents.
func (c *Controller) containerBounds(id int) (center, extents mathx.Vec3, err error) {
	resp, err := c.step(protocol.SendBounds([]int{id}))
	if err != nil {
		return mathx.Vec3{}, mathx.Vec3{}, err
	}
	for _, b := range resp.Bounds {
		if b.ID == id {
			return b.Center, b.Extents, nil
		}
	}
	if tr, ok := c.dyn.ObjectTransform(id); ok {
		return tr.Position, mathx.Vec3{X: 0.1, Y: 0.15, Z: 0.1}, nil
	}
	return mathx.Vec3{}, mathx.Vec3{}, fmt.Errorf("bounds: no data for object %d", id)
}

// objectsInContainer queries an overlap box spanning the container's
// interior and returns the scene objects inside it.
func (c *Controller) objectsInContainer(containerID int) ([]int, error) {
	center, ext, err := c.containerBounds(containerID)
	if err != nil {
		return nil, err
	}
	resp, err := c.step(protocol.SendOverlapBox(
		center.Add(mathx.Vec3{Y: ext.Y}),
		mathx.Vec3{X: ext.X, Y: ext.Y * 1.5, Z: ext.Z},
	))
	if err != nil {
		return nil, err
	}
	var out []int
	for _, id := range resp.Overlap {
		if id == containerID {
			continue
		}
		if _, ok := c.static.Object(id); ok {
			out = append(out, id)
		}
	}
	return out, nil
}
