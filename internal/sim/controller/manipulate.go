package controller

import (
	"fmt"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/avatar"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
)

// ReachOptions tune a single reach. The zero value checks preconditions and
// uses the default precision.
type ReachOptions struct {
	// Absolute marks the target as world-space instead of avatar-local.
	Absolute bool
	// NoCheck skips the reach-envelope preconditions.
	NoCheck bool
	// StopOnMittenHit aborts when the mitten touches anything en route.
	StopOnMittenHit bool
	// Precision overrides the tuned arrival distance when nonzero.
	Precision float64
}

// ReachForTarget bends one arm until the mitten is within precision of the
// target. Precondition failures return immediately, without any simulation
// steps.
func (c *Controller) ReachForTarget(arm avatar.Arm, target mathx.Vec3, o ReachOptions) (task.Result, error) {
	local := target
	if o.Absolute {
		local = avatar.LocalFromWorld(c.dyn.Avatar.Position, c.dyn.Avatar.Forward, target)
	}
	if !o.NoCheck {
		if term, ok := avatar.CanReach(arm, local, 0); !ok {
			return c.finish(task.KindReach, term, arm, 0), nil
		}
	}
	prec := o.Precision
	if prec == 0 {
		prec = c.tune.ReachPrecision
	}
	c.enqueue(c.av.StartReach(arm, &avatar.Goal{
		TargetLocal:     local,
		Precision:       prec,
		StopOnMittenHit: o.StopOnMittenHit,
	})...)
	term, err := c.doJointMotion(arm)
	if err != nil {
		return task.Result{}, err
	}
	return c.finish(task.KindReach, term, arm, 0), nil
}

// GraspOptions tune a grasp. The zero value checks the reach envelope and
// aborts on stray mitten contact, matching the build's defaults.
type GraspOptions struct {
	// NoCheck skips the reach-envelope preconditions.
	NoCheck bool
	// NoMittenStop keeps bending through mitten contact with objects other
	// than the grasp target.
	NoMittenStop bool
}

// GraspObject reaches for the object's raycast point while trying to stick
// it to the mitten every tick. Grasping an object already held by either
// mitten is an immediate success.
func (c *Controller) GraspObject(objectID int, arm avatar.Arm, o GraspOptions) (task.Result, error) {
	if _, ok := c.static.Object(objectID); !ok {
		return task.Result{}, fmt.Errorf("grasp: unknown object %d", objectID)
	}
	if left, held := c.dyn.Holding(objectID); held {
		holder := avatar.ArmRight
		if left {
			holder = avatar.ArmLeft
		}
		return c.finish(task.KindGrasp, task.TermHeld, holder, objectID), nil
	}

	point, ok, err := c.raycastPoint(objectID, arm)
	if err != nil {
		return task.Result{}, err
	}
	if !ok {
		return c.finish(task.KindGrasp, task.TermBadRaycast, arm, objectID), nil
	}
	local := avatar.LocalFromWorld(c.dyn.Avatar.Position, c.dyn.Avatar.Forward, point)
	if !o.NoCheck {
		// The capture range extends the arm's own reach.
		slack := c.tune.CaptureDistance + c.tune.CaptureRadius
		if term, reachable := avatar.CanReach(arm, local, slack); !reachable {
			return c.finish(task.KindGrasp, term, arm, objectID), nil
		}
	}

	c.enqueue(c.av.StartReach(arm, &avatar.Goal{
		TargetLocal:     local,
		Precision:       c.tune.ReachPrecision,
		PickUpID:        objectID,
		StopOnMittenHit: !o.NoMittenStop,
		Capture: avatar.Capture{
			Distance: c.tune.CaptureDistance,
			Radius:   c.tune.CaptureRadius,
			Grip:     c.tune.Grip,
		},
	})...)
	// The first capture attempt goes out with the bend, so an object
	// already at the mitten attaches instead of trivially arriving.
	c.enqueue(protocol.PickUpProximity(c.av.ID, arm.IsLeft(),
		c.tune.CaptureDistance, c.tune.CaptureRadius, c.tune.Grip, []int{objectID}))
	term, err := c.doJointMotion(arm)
	if err != nil {
		return task.Result{}, err
	}
	return c.finish(task.KindGrasp, term, arm, objectID), nil
}

// Drop releases whatever the mitten holds. Dropping from an empty mitten is
// a success no-op.
func (c *Controller) Drop(arm avatar.Arm, resetArm bool) (task.Result, error) {
	c.enqueue(protocol.PutDown(c.av.ID, arm.IsLeft()))
	if resetArm {
		c.enqueue(c.av.StartReset(arm)...)
		if _, err := c.doJointMotion(arm); err != nil {
			return task.Result{}, err
		}
	} else if _, err := c.step(); err != nil {
		return task.Result{}, err
	}
	return c.finish(task.KindDrop, task.TermReleased, arm, 0), nil
}

// ResetArm bends every joint of one arm back to rest.
func (c *Controller) ResetArm(arm avatar.Arm) (task.Result, error) {
	c.enqueue(c.av.StartReset(arm)...)
	term, err := c.doJointMotion(arm)
	if err != nil {
		return task.Result{}, err
	}
	return c.finish(task.KindReset, term, arm, 0), nil
}

// doJointMotion steps the simulation until the arm's goal reports a
// terminal condition or the step budget runs out. The rest-profile revert
// is flushed on every exit path so it reaches the build even when this is
// the episode's last action.
func (c *Controller) doJointMotion(arm avatar.Arm) (task.Terminal, error) {
	for i := 0; i < c.tune.JointMotionMaxSteps; i++ {
		if _, err := c.step(); err != nil {
			return "", err
		}
		cmds, term := c.av.StepArm(arm, c.dyn)
		c.enqueue(cmds...)
		if term != "" {
			if _, err := c.step(protocol.SetMittenProfile(c.av.ID, avatar.ProfileRest)); err != nil {
				return "", err
			}
			return term, nil
		}
	}
	c.av.ClearGoal(arm)
	c.enqueue(c.av.StopArm(arm)...)
	if _, err := c.step(protocol.SetMittenProfile(c.av.ID, avatar.ProfileRest)); err != nil {
		return "", err
	}
	return task.TermBudget, nil
}

// raycastPoint casts from the mitten to the object's bounds center and
// returns the surface point, with ok=false when the ray is obstructed or
// misses.
func (c *Controller) raycastPoint(objectID int, arm avatar.Arm) (mathx.Vec3, bool, error) {
	resp, err := c.step(protocol.SendBounds([]int{objectID}))
	if err != nil {
		return mathx.Vec3{}, false, err
	}
	center := mathx.Vec3{}
	found := false
	for _, b := range resp.Bounds {
		if b.ID == objectID {
			center = b.Center
			found = true
		}
	}
	if !found {
		if tr, ok := c.dyn.ObjectTransform(objectID); ok {
			center = tr.Position
			found = true
		}
	}
	if !found {
		return mathx.Vec3{}, false, nil
	}

	origin := c.av.MittenPosition(arm, c.dyn)
	resp, err = c.step(protocol.SendRaycast(origin, center))
	if err != nil {
		return mathx.Vec3{}, false, err
	}
	hit := resp.Raycast
	if hit == nil || !hit.Hit || hit.ObjectID != objectID {
		return mathx.Vec3{}, false, nil
	}
	return hit.Point, true, nil
}

// waitForObjectsToStop steps until every listed object is sleeping or
// slower than the settle velocity, bounded by the settle budget.
func (c *Controller) waitForObjectsToStop(ids ...int) error {
	for i := 0; i < c.tune.ObjectSettleMaxSteps; i++ {
		moving := false
		for _, id := range ids {
			if c.dyn.Sleeping(id) {
				continue
			}
			if v, ok := c.dyn.ObjectVelocity(id); ok && v.Norm() >= c.tune.ObjectSettleVelocity {
				moving = true
			}
		}
		if !moving {
			return nil
		}
		if _, err := c.step(); err != nil {
			return err
		}
	}
	return nil
}
