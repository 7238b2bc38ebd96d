package controller

import (
	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/mathx"
	"github.com/alters-mit/sticky-mitten-avatar/internal/sim/scene"
)

// FrameData is the snapshot handed to policy code when an action finishes.
// It is a copy; holding it across actions is safe.
type FrameData struct {
	Frame uint64 `json:"frame"`

	AvatarPosition mathx.Vec3 `json:"avatar_position"`
	AvatarForward  mathx.Vec3 `json:"avatar_forward"`

	ObjectTransforms map[int]scene.Transform `json:"object_transforms"`
	HeldLeft         []int                   `json:"held_left"`
	HeldRight        []int                   `json:"held_right"`

	Images []protocol.ImagePass `json:"images,omitempty"`
}

func newFrameData(d *scene.Dynamic, images []protocol.ImagePass) *FrameData {
	return &FrameData{
		Frame:            d.Frame,
		AvatarPosition:   d.Avatar.Position,
		AvatarForward:    d.Avatar.Forward,
		ObjectTransforms: d.ObjectTransforms(),
		HeldLeft:         d.Held(true),
		HeldRight:        d.Held(false),
		Images:           images,
	}
}
