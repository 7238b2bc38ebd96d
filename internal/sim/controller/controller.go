// Package controller runs the avatar's closed-loop actions against the
// build: every public action issues command batches tick by tick, watches
// the reported state, and returns a task status. Action outcomes are never
// errors; errors mean the channel itself failed.
package controller

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/record"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/avatar"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/scene"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/task"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/tuning"
)

// Channel carries one command batch to the build and returns the frame the
// build produced after stepping physics exactly once.
type Channel interface {
	Step(commands []protocol.Command) (protocol.StepResponse, error)
}

// Options configures a Controller. Zero values are usable: default tuning,
// no logging, no recording.
type Options struct {
	Tuning   *tuning.Tuning
	Logger   *log.Logger
	Recorder *record.Store
}

// Controller drives exactly one avatar in one scene.
type Controller struct {
	ch   Channel
	tune tuning.Tuning
	log  *log.Logger
	rec  *record.Store

	episodeID int64
	static    *scene.Static
	dyn       *scene.Dynamic
	av        *avatar.Avatar
	frame     *FrameData

	pending    []protocol.Command
	lastImages []protocol.ImagePass
}

func New(ch Channel, opts Options) *Controller {
	t := tuning.Defaults()
	if opts.Tuning != nil {
		t = *opts.Tuning
	}
	return &Controller{
		ch:   ch,
		tune: t,
		log:  opts.Logger,
		rec:  opts.Recorder,
		dyn:  scene.NewDynamic(),
	}
}

// InitScene sends the collaborator-supplied scene commands, creates the
// avatar at position, switches on the per-frame output data the controller
// depends on, and captures the static records.
func (c *Controller) InitScene(avatarID string, sceneCommands []protocol.Command, position mathx.Vec3) error {
	if err := task.ValidateClassifier(); err != nil {
		return err
	}
	cmds := append([]protocol.Command{}, sceneCommands...)
	cmds = append(cmds,
		protocol.CreateAvatar(avatarID),
		protocol.TeleportAvatarTo(avatarID, position),
		protocol.SetStickiness(avatarID, true, true),
		protocol.SetStickiness(avatarID, false, true),
		protocol.SetMittenProfile(avatarID, avatar.ProfileRest),
		protocol.SendStaticObjects(),
		protocol.SendSegmentationColors(),
		protocol.SendAvatarSegmentationColors(),
		protocol.SendAvatars("always"),
		protocol.SendTransforms("always"),
		protocol.SendRigidbodies("always"),
		protocol.SendCollisions("always"),
	)
	resp, err := c.ch.Step(cmds)
	if err != nil {
		return fmt.Errorf("init scene: %w", err)
	}
	c.static = scene.BuildStatic(avatarID, resp)
	c.dyn.Update(avatarID, resp)
	if c.av, err = avatar.New(avatarID, c.static); err != nil {
		return err
	}
	c.frame = newFrameData(c.dyn, nil)
	if c.rec != nil {
		if c.episodeID, err = c.rec.BeginEpisode(avatarID); err != nil {
			return fmt.Errorf("init scene: %w", err)
		}
	}
	if c.log != nil {
		c.log.Printf("scene ready: avatar=%s objects=%d frame=%d",
			avatarID, len(c.static.ObjectIDs()), c.dyn.Frame)
	}
	return nil
}

// Static exposes the scene's static records.
func (c *Controller) Static() *scene.Static { return c.static }

// Frame is the frame data captured when the last action finished.
func (c *Controller) Frame() *FrameData { return c.frame }

// step flushes pending per-tick commands plus cmds through the channel and
// folds the frame into the dynamic snapshot.
func (c *Controller) step(cmds ...protocol.Command) (protocol.StepResponse, error) {
	batch := append(c.pending, cmds...)
	c.pending = nil
	resp, err := c.ch.Step(batch)
	if err != nil {
		return resp, fmt.Errorf("step: %w", err)
	}
	c.dyn.Update(c.av.ID, resp)
	if len(resp.Images) > 0 {
		c.lastImages = resp.Images
	}
	return resp, nil
}

// enqueue defers commands to the next step.
func (c *Controller) enqueue(cmds ...protocol.Command) {
	c.pending = append(c.pending, cmds...)
}

// endTask refreshes the frame data and records the completed action. It
// performs no simulation steps, so precondition-rejected actions stay free.
func (c *Controller) endTask(kind task.Kind, res task.Result) task.Result {
	c.frame = newFrameData(c.dyn, c.lastImages)
	if c.log != nil {
		c.log.Printf("%s: status=%s arm=%s object=%d frame=%d",
			kind, res.Status, res.Arm, res.ObjectID, c.dyn.Frame)
	}
	if c.rec != nil {
		payload, err := json.Marshal(c.frame)
		if err == nil {
			err = c.rec.RecordAction(c.episodeID, record.Action{
				Frame:    c.dyn.Frame,
				Kind:     string(kind),
				Status:   string(res.Status),
				Arm:      res.Arm,
				ObjectID: res.ObjectID,
				Payload:  payload,
			})
		}
		if err != nil && c.log != nil {
			c.log.Printf("record %s: %v", kind, err)
		}
	}
	return res
}

// finish classifies a terminal condition and closes out the action.
func (c *Controller) finish(kind task.Kind, term task.Terminal, arm avatar.Arm, objectID int) task.Result {
	res := task.Result{Status: task.Classify(kind, term), ObjectID: objectID}
	if arm != "" {
		res.Arm = string(arm)
	}
	return c.endTask(kind, res)
}

// stopAvatar slams the brakes: high drag, constraints freed, joints back on
// the rest profile.
func (c *Controller) stopAvatar() error {
	_, err := c.step(
		protocol.SetAvatarDrag(c.av.ID, c.tune.StopDrag, c.tune.StopDrag),
		protocol.SetRigidbodyConstraints(c.av.ID, false, false),
		protocol.SetMittenProfile(c.av.ID, avatar.ProfileRest),
	)
	return err
}

// movementCollision reports whether the avatar base hit something that must
// abort a movement action this tick.
func (c *Controller) movementCollision() task.Terminal {
	for _, id := range c.dyn.CollidingWith(c.av.BaseID) {
		if o, ok := c.static.Object(id); ok && o.Mass >= c.tune.HeavyMass {
			return task.TermHeavyHit
		}
	}
	if c.dyn.EnvCollision(c.av.BaseID) {
		return task.TermEnvHit
	}
	return ""
}
