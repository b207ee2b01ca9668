package node

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/track"
)

// CameraNode animates a camera entity of the same name.
type CameraNode struct {
	*ParamNode
	entities movie.EntitySystem

	// Held by the director while it blends away from this camera.
	skipInterp bool
	interpPos  *mgl32.Vec3
	interpRot  *mgl32.Quat
}

// NewCameraNode creates a camera node bound to the entity named name.
func NewCameraNode(id int, name string, table *ParamTable, entities movie.EntitySystem) *CameraNode {
	if entities == nil {
		panic("node: nil entity system")
	}
	return &CameraNode{ParamNode: NewParamNode(id, name, table), entities: entities}
}

// Entity resolves the bound entity, or nil.
func (c *CameraNode) Entity() movie.Entity {
	return c.entities.FindByName(c.Name())
}

// FloatTrack returns the FOV or NearZ track, or nil.
func (c *CameraNode) FloatTrack(kind ir.ParamKind) *track.FloatTrack {
	t, _ := c.Track(ir.Param(kind)).(*track.FloatTrack)
	return t
}

// PositionTrack returns the local position track, or nil.
func (c *CameraNode) PositionTrack() *track.Vec3Track {
	t, _ := c.Track(ir.Param(ir.ParamPosition)).(*track.Vec3Track)
	return t
}

// RotationTrack returns the local rotation track, or nil.
func (c *CameraNode) RotationTrack() *track.QuatTrack {
	t, _ := c.Track(ir.Param(ir.ParamRotation)).(*track.QuatTrack)
	return t
}

// ParamFloat evaluates the FOV or NearZ track. ok is false when the track
// is missing or has no keys.
func (c *CameraNode) ParamFloat(kind ir.ParamKind, time float32) (float32, bool) {
	t := c.FloatTrack(kind)
	if t == nil {
		return 0, false
	}
	return track.EvalFloat(t, time)
}

// SetParamFloat keys v on the FOV or NearZ track. It reports false when
// the node has no such track.
func (c *CameraNode) SetParamFloat(kind ir.ParamKind, time, v float32) bool {
	t := c.FloatTrack(kind)
	if t == nil {
		return false
	}
	track.SetFloat(t, time, v)
	return true
}

// LocalPosition evaluates the position track.
func (c *CameraNode) LocalPosition(time float32) (mgl32.Vec3, bool) {
	t := c.PositionTrack()
	if t == nil {
		return mgl32.Vec3{}, false
	}
	return track.EvalVec3(t, time)
}

// LocalRotation evaluates the rotation track.
func (c *CameraNode) LocalRotation(time float32) (mgl32.Quat, bool) {
	t := c.RotationTrack()
	if t == nil {
		return mgl32.QuatIdent(), false
	}
	return track.EvalQuat(t, time)
}

// SetSkipInterpolation holds the node: while set, Animate applies the
// interpolation transform instead of the tracks' position and rotation.
func (c *CameraNode) SetSkipInterpolation(skip bool) {
	c.skipInterp = skip
	if !skip {
		c.interpPos, c.interpRot = nil, nil
	}
}

// SkipInterpolation reports whether the node is held.
func (c *CameraNode) SkipInterpolation() bool { return c.skipInterp }

// SetInterpolationPosition sets the local position applied while held.
func (c *CameraNode) SetInterpolationPosition(p mgl32.Vec3) { c.interpPos = &p }

// SetInterpolationRotation sets the local rotation applied while held.
func (c *CameraNode) SetInterpolationRotation(q mgl32.Quat) { c.interpRot = &q }

// Animate writes the evaluated tracks to the bound entity.
func (c *CameraNode) Animate(ctx movie.AnimContext) {
	if ctx.Resetting || c.Disabled() {
		return
	}
	e := c.Entity()
	if e == nil {
		return
	}
	cam, hasCam := e.Camera()
	c.ParamNode.Animate(ctx, func(t track.Track) {
		switch tt := t.(type) {
		case *track.FloatTrack:
			v, ok := track.EvalFloat(tt, ctx.Time)
			if !ok || !hasCam {
				return
			}
			switch tt.ParamType().Kind {
			case ir.ParamFOV:
				cam.SetFOV(v)
			case ir.ParamNearZ:
				cam.SetNearZ(v)
			}
		case *track.Vec3Track:
			if c.skipInterp && c.interpPos != nil {
				e.SetPosition(*c.interpPos)
				return
			}
			if v, ok := track.EvalVec3(tt, ctx.Time); ok {
				e.SetPosition(v)
			}
		case *track.QuatTrack:
			if c.skipInterp && c.interpRot != nil {
				e.SetRotation(*c.interpRot)
				return
			}
			if q, ok := track.EvalQuat(tt, ctx.Time); ok {
				e.SetRotation(q)
			}
		}
	})
}

// Reset releases any blend hold and drops track caches.
func (c *CameraNode) Reset() {
	c.SetSkipInterpolation(false)
	c.ResetTracks()
}

// Activate does nothing for camera nodes.
func (c *CameraNode) Activate(bool) {}

var _ Node = (*CameraNode)(nil)
