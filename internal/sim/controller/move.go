package controller

import (
	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/avatar"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
)

// MoveOptions tune the movement actions. The zero value aborts on heavy
// and environment collisions, matching the build's defaults.
type MoveOptions struct {
	// IgnoreCollisions keeps the avatar moving through collisions instead
	// of aborting with a collision status.
	IgnoreCollisions bool
}

// TurnTo turns the avatar until it faces the target, re-measuring the
// heading error every tick. The target position is snapshotted at call
// time.
func (c *Controller) TurnTo(target Target, o MoveOptions) (task.Status, error) {
	pos, err := target.resolve(c)
	if err != nil {
		return "", err
	}
	term, err := c.turn(func() float64 {
		return mathx.HeadingAngle(c.dyn.Avatar.Position, c.dyn.Avatar.Forward, pos)
	}, !o.IgnoreCollisions)
	if err != nil {
		return "", err
	}
	return c.finish(task.KindTurn, term, "", 0).Status, nil
}

// TurnBy turns the avatar by a relative angle in degrees. Positive turns
// toward the avatar's right.
func (c *Controller) TurnBy(angle float64, o MoveOptions) (task.Status, error) {
	targetYaw := c.dyn.Avatar.Forward.Flat().Yaw() + angle
	term, err := c.turn(func() float64 {
		return mathx.NormalizeDeg(targetYaw - c.dyn.Avatar.Forward.Flat().Yaw())
	}, !o.IgnoreCollisions)
	if err != nil {
		return "", err
	}
	return c.finish(task.KindTurn, term, "", 0).Status, nil
}

// turn applies torque bursts, coasting between them, until the heading
// error falls inside the stopping threshold. Every simulation step counts
// against the attempt budget, the final brake step included.
func (c *Controller) turn(headingErr func() float64, stopOnCollision bool) (task.Terminal, error) {
	for i := 1; i < c.tune.NumAttempts; i++ {
		if mathx.AbsF(headingErr()) <= c.tune.TurnStoppingThreshold {
			return task.TermArrived, c.stopAvatar()
		}
		if stopOnCollision {
			if term := c.movementCollision(); term != "" {
				return term, c.stopAvatar()
			}
		}
		// Coast ticks spend budget like bursts do.
		if c.dyn.Avatar.AngularVelocity.Norm() > c.tune.CoastAngularVelocity {
			if _, err := c.step(); err != nil {
				return "", err
			}
			continue
		}
		torque := c.tune.TurnForce
		if headingErr() < 0 {
			torque = -torque
		}
		if _, err := c.step(
			protocol.SetRigidbodyConstraints(c.av.ID, true, false),
			protocol.SetAvatarDrag(c.av.ID, 0, 0.05),
			protocol.SetMittenProfile(c.av.ID, avatar.ProfileTurn),
			protocol.TurnAvatarBy(c.av.ID, torque),
		); err != nil {
			return "", err
		}
	}
	return task.TermBudget, c.stopAvatar()
}

// GoTo turns toward the target and then drives to it. A failed turn does
// not abort the move; the drive loop corrects heading by re-measuring
// distance every tick.
func (c *Controller) GoTo(target Target, o MoveOptions) (task.Status, error) {
	pos, err := target.resolve(c)
	if err != nil {
		return "", err
	}
	if _, err := c.TurnTo(PosTarget(pos), o); err != nil {
		return "", err
	}
	term, err := c.move(pos, !o.IgnoreCollisions)
	if err != nil {
		return "", err
	}
	return c.finish(task.KindMove, term, "", 0).Status, nil
}

// MoveForwardBy drives the avatar along its current forward direction.
func (c *Controller) MoveForwardBy(distance float64, o MoveOptions) (task.Status, error) {
	pos := c.dyn.Avatar.Position.Add(c.dyn.Avatar.Forward.Flat().Unit().Scale(distance))
	term, err := c.move(pos, !o.IgnoreCollisions)
	if err != nil {
		return "", err
	}
	return c.finish(task.KindMove, term, "", 0).Status, nil
}

// move applies forward force bursts until the avatar is within the stopping
// threshold of target. Overshoot aborts once the distance grows again after
// having shrunk. As in turn, every step spends attempt budget.
func (c *Controller) move(target mathx.Vec3, stopOnCollision bool) (task.Terminal, error) {
	dist := func() float64 {
		return c.dyn.Avatar.Position.Flat().Dist(target.Flat())
	}
	prev := dist()
	decreased := false
	for i := 1; i < c.tune.NumAttempts; i++ {
		d := dist()
		if d <= c.tune.MoveStoppingThreshold {
			return task.TermArrived, c.stopAvatar()
		}
		if stopOnCollision {
			if term := c.movementCollision(); term != "" {
				return term, c.stopAvatar()
			}
		}
		if decreased && d > prev+1e-6 {
			return task.TermOvershot, c.stopAvatar()
		}
		if d < prev-1e-6 {
			decreased = true
		}
		prev = d
		if c.dyn.Avatar.Velocity.Norm() > c.tune.CoastVelocity {
			if _, err := c.step(); err != nil {
				return "", err
			}
			continue
		}
		if _, err := c.step(
			protocol.SetRigidbodyConstraints(c.av.ID, false, true),
			protocol.SetAvatarDrag(c.av.ID, 0.1, 100),
			protocol.SetMittenProfile(c.av.ID, avatar.ProfileMove),
			protocol.MoveAvatarForwardBy(c.av.ID, c.tune.MoveForce),
		); err != nil {
			return "", err
		}
	}
	return task.TermBudget, c.stopAvatar()
}
