package controller

import (
	"fmt"

	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
)

// Target is where a movement action is headed: either a fixed position or
// an object. Object targets resolve to the object's position at call time;
// the action does not chase a moving object.
type Target struct {
	pos      mathx.Vec3
	objectID int
	byObject bool
}

func PosTarget(v mathx.Vec3) Target { return Target{pos: v} }

func ObjectTarget(id int) Target { return Target{objectID: id, byObject: true} }

func (t Target) resolve(c *Controller) (mathx.Vec3, error) {
	if !t.byObject {
		return t.pos, nil
	}
	tr, ok := c.dyn.ObjectTransform(t.objectID)
	if !ok {
		return mathx.Vec3{}, fmt.Errorf("target: no transform for object %d", t.objectID)
	}
	return tr.Position, nil
}
