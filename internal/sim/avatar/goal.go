package avatar

import (
	"fmt"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/scene"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
)

// Mitten joint compliance profiles, switched per action.
const (
	ProfileRest = "rest"
	ProfileBend = "bend"
	ProfileTurn = "turn"
	ProfileMove = "move"
)

// Per-joint settling. A joint counts as done once it has visibly moved and
// then stops, or never starts within the grace window.
const (
	settleEps     = 0.01
	graceTicks    = 5
	restTolerance = 5.0
)

// Capture are the pick_up_proximity parameters for a grasping goal.
type Capture struct {
	Distance float64
	Radius   float64
	Grip     float64
}

// Goal is one in-flight arm motion. Exactly one goal per arm at a time.
type Goal struct {
	// TargetLocal is where the mitten should end up, avatar-local.
	// Meaningless for reset goals.
	TargetLocal mathx.Vec3
	// Reset bends every joint back to rest instead of chasing a target.
	Reset bool

	Precision float64
	// PickUpID, when nonzero, makes every tick attempt to stick that
	// object to the mitten.
	PickUpID int
	Capture  Capture
	// StopOnMittenHit aborts if the mitten touches anything other than
	// the pick-up target.
	StopOnMittenHit bool
	// TapID, when nonzero, succeeds on mitten contact with that object.
	TapID int

	targetAngles []float64
	prevAngles   []float64
	movedOnce    []bool
	ticks        int
}

// Avatar tracks one avatar's identity, body-part ids and arm goals.
type Avatar struct {
	ID string

	BaseID        int
	MittenLeftID  int
	MittenRightID int

	goals map[Arm]*Goal
}

// New resolves the avatar's body parts out of the static cache.
func New(id string, st *scene.Static) (*Avatar, error) {
	a := &Avatar{ID: id, goals: make(map[Arm]*Goal)}
	var ok bool
	if a.BaseID, ok = st.BodyPartID("avatar_base"); !ok {
		return nil, fmt.Errorf("avatar %s: no avatar_base body part", id)
	}
	if a.MittenLeftID, ok = st.BodyPartID("mitten_left"); !ok {
		return nil, fmt.Errorf("avatar %s: no mitten_left body part", id)
	}
	if a.MittenRightID, ok = st.BodyPartID("mitten_right"); !ok {
		return nil, fmt.Errorf("avatar %s: no mitten_right body part", id)
	}
	return a, nil
}

func (a *Avatar) MittenID(arm Arm) int {
	if arm.IsLeft() {
		return a.MittenLeftID
	}
	return a.MittenRightID
}

func (a *Avatar) HasGoal(arm Arm) bool { return a.goals[arm] != nil }

func (a *Avatar) ClearGoal(arm Arm) { delete(a.goals, arm) }

// StartReach installs a reach goal and returns the commands that start the
// bend: the compliance profile plus one bend command per joint. The target
// angles come from the IK solver.
func (a *Avatar) StartReach(arm Arm, g *Goal) []protocol.Command {
	g.targetAngles = SolveIK(arm, g.TargetLocal)
	a.goals[arm] = g
	return a.bendCommands(arm, g.targetAngles)
}

// StartReset installs a rest goal bending every joint back to zero.
func (a *Avatar) StartReset(arm Arm) []protocol.Command {
	g := &Goal{Reset: true, targetAngles: make([]float64, NumJoints)}
	a.goals[arm] = g
	return a.bendCommands(arm, g.targetAngles)
}

func (a *Avatar) bendCommands(arm Arm, angles []float64) []protocol.Command {
	cmds := []protocol.Command{protocol.SetMittenProfile(a.ID, ProfileBend)}
	for i, j := range JointsFor(arm) {
		cmds = append(cmds, protocol.BendArmJointTo(a.ID, j.Joint, j.Axis, angles[i]))
	}
	return cmds
}

// StopArm halts every joint of one arm mid-motion.
func (a *Avatar) StopArm(arm Arm) []protocol.Command {
	var cmds []protocol.Command
	for _, j := range JointsFor(arm) {
		cmds = append(cmds, protocol.StopArmJoint(a.ID, j.Joint, j.Axis))
	}
	return cmds
}

// MittenPosition is the mitten's world position this tick, preferring the
// reported body part and falling back to forward kinematics.
func (a *Avatar) MittenPosition(arm Arm, d *scene.Dynamic) mathx.Vec3 {
	if p, ok := d.BodyPartPosition(a.MittenID(arm)); ok {
		return p
	}
	local := MittenLocal(arm, d.Angles(arm.IsLeft()))
	return WorldFromLocal(d.Avatar.Position, d.Avatar.Forward, local)
}

// StepArm advances one arm's goal by one tick. It returns the commands to
// enqueue for the next step and, when the goal just finished, the terminal
// condition. An empty terminal means the goal is still in flight; arms with
// no goal return ("", nil).
func (a *Avatar) StepArm(arm Arm, d *scene.Dynamic) ([]protocol.Command, task.Terminal) {
	g := a.goals[arm]
	if g == nil {
		return nil, ""
	}
	g.ticks++
	angles := d.Angles(arm.IsLeft())
	if len(angles) != NumJoints {
		angles = make([]float64, NumJoints)
	}

	if g.PickUpID != 0 {
		if _, held := d.Holding(g.PickUpID); held {
			a.ClearGoal(arm)
			return nil, task.TermAttached
		}
	}

	mittenID := a.MittenID(arm)
	if g.TapID != 0 {
		for _, id := range d.CollidingWith(mittenID) {
			if id == g.TapID {
				a.ClearGoal(arm)
				return a.StopArm(arm), task.TermContact
			}
		}
	}
	if g.StopOnMittenHit {
		for _, id := range d.CollidingWith(mittenID) {
			if id != g.PickUpID && id != g.TapID {
				a.ClearGoal(arm)
				return a.StopArm(arm), task.TermMittenHit
			}
		}
	}

	if g.Reset {
		atRest := true
		for _, v := range angles {
			if mathx.AbsF(v) > restTolerance {
				atRest = false
				break
			}
		}
		if atRest && g.ticks > 1 {
			a.ClearGoal(arm)
			return nil, task.TermReached
		}
	} else {
		target := WorldFromLocal(d.Avatar.Position, d.Avatar.Forward, g.TargetLocal)
		if a.MittenPosition(arm, d).Dist(target) <= g.Precision {
			a.ClearGoal(arm)
			return a.StopArm(arm), task.TermReached
		}
	}

	if a.settled(g, angles) {
		a.ClearGoal(arm)
		return nil, task.TermSettled
	}

	var cmds []protocol.Command
	if g.PickUpID != 0 {
		cmds = append(cmds, protocol.PickUpProximity(a.ID, arm.IsLeft(),
			g.Capture.Distance, g.Capture.Radius, g.Capture.Grip, []int{g.PickUpID}))
	}
	return cmds, ""
}

// settled drains the moving set: every joint either moved and stopped, or
// never started within the grace window.
func (a *Avatar) settled(g *Goal, angles []float64) bool {
	if g.prevAngles == nil {
		g.prevAngles = append([]float64(nil), angles...)
		g.movedOnce = make([]bool, len(angles))
		return false
	}
	done := true
	for i, v := range angles {
		delta := mathx.AbsF(v - g.prevAngles[i])
		if delta > settleEps {
			g.movedOnce[i] = true
			done = false
		} else if !g.movedOnce[i] && g.ticks <= graceTicks {
			done = false
		}
	}
	copy(g.prevAngles, angles)
	return done
}
