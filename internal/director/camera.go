package director

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/node"
	"github.com/roach88/trackview/internal/track"
)

// Lens values used for entities without a camera component.
const (
	DefaultFOV   float32 = 60 // degrees
	DefaultNearZ float32 = 0.25
)

// cameraStartState is the first camera's state captured at the start of a
// blend segment. Position and rotation are world space, FOV in degrees.
type cameraStartState struct {
	Pos   mgl32.Vec3
	Rot   mgl32.Quat
	FOV   float32
	NearZ float32
}

// sceneCamera is a per-call view of a camera entity. Every acquired
// sceneCamera must be released before the frame ends.
type sceneCamera struct {
	entity   movie.Entity
	cam      movie.Camera
	owner    *Node
	released bool
}

func (d *Node) acquireCamera(key track.SelectKey) *sceneCamera {
	var e movie.Entity
	switch {
	case key.EntityID.Valid():
		e = d.svc.Entities.FindByID(key.EntityID)
	case key.Selection != "":
		e = d.svc.Entities.FindByName(key.Selection)
	}
	if e == nil {
		return nil
	}
	c := &sceneCamera{entity: e, owner: d}
	if cam, ok := e.Camera(); ok {
		c.cam = cam
	}
	d.live++
	return c
}

// Release is safe on a nil or already released camera.
func (c *sceneCamera) Release() {
	if c == nil || c.released {
		return
	}
	c.released = true
	c.owner.live--
}

func (c *sceneCamera) FOV() float32 {
	if c.cam == nil {
		return DefaultFOV
	}
	return c.cam.FOV()
}

func (c *sceneCamera) NearZ() float32 {
	if c.cam == nil {
		return DefaultNearZ
	}
	return c.cam.NearZ()
}

// SetLens writes FOV (degrees) and near plane, skipping unchanged values.
func (c *sceneCamera) SetLens(fov, nearZ float32) {
	if c.cam == nil {
		return
	}
	if c.cam.FOV() != fov {
		c.cam.SetFOV(fov)
	}
	if c.cam.NearZ() != nearZ {
		c.cam.SetNearZ(nearZ)
	}
}

func (c *sceneCamera) World() (mgl32.Vec3, mgl32.Quat) {
	return movie.WorldTransform(c.entity)
}

func (c *sceneCamera) SetWorld(pos mgl32.Vec3, rot mgl32.Quat) {
	lp, lr := movie.WorldToLocal(c.entity, pos, rot)
	c.entity.SetPosition(lp)
	c.entity.SetRotation(lr)
}

// BlendFactor returns the eased weight of the next camera for a blend of
// length blend with remaining seconds left before the next key.
func BlendFactor(blend, remaining float32) float32 {
	t := 1 - remaining/blend
	t = min(max(t, 0), 1)
	return t * t * t * (t*(6*t-15) + 10)
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func (d *Node) findCameraNode(ctx movie.AnimContext, name string) *node.CameraNode {
	if name == "" {
		return nil
	}
	lookup, ok := ctx.Sequence.(NodeLookup)
	if !ok {
		return nil
	}
	cn, _ := lookup.FindNodeByName(name, d.ID()).(*node.CameraNode)
	return cn
}

// overrideCamera resolves the movie system's override camera. A decimal
// name is an entity id; anything else is looked up by name.
func (d *Node) overrideCamera() (ir.EntityID, string, bool) {
	name := d.svc.Movie.OverrideCameraName()
	if name == "" {
		return 0, "", false
	}
	if id, err := strconv.ParseUint(name, 10, 64); err == nil && id != 0 {
		return ir.EntityID(id), name, true
	}
	e := d.svc.Entities.FindByName(name)
	if e == nil {
		d.log.Debug("override camera not found", zap.String("camera", name))
		return 0, "", false
	}
	return e.ID(), name, true
}

// cameraState reads a camera's lens and world transform, preferring the
// keyed tracks of its camera node over the live entity.
func cameraState(time float32, cam *sceneCamera, cn *node.CameraNode) cameraStartState {
	pos, rot := cam.World()
	s := cameraStartState{Pos: pos, Rot: rot, FOV: cam.FOV(), NearZ: cam.NearZ()}
	if cn == nil {
		return s
	}
	if v, ok := cn.ParamFloat(ir.ParamFOV, time); ok {
		s.FOV = v
	}
	if v, ok := cn.ParamFloat(ir.ParamNearZ, time); ok {
		s.NearZ = v
	}
	lp, hasPos := cn.LocalPosition(time)
	lr, hasRot := cn.LocalRotation(time)
	if hasPos || hasRot {
		if !hasPos {
			lp = cam.entity.Position()
		}
		if !hasRot {
			lr = cam.entity.Rotation()
		}
		s.Pos, s.Rot = movie.LocalToWorld(cam.entity, lp, lr)
	}
	return s
}

// applyCameraKey publishes the camera of key, blending towards the next
// select key when it is close enough. sel is nil for override cameras.
func (d *Node) applyCameraKey(ctx movie.AnimContext, sel *track.SelectTrack, key track.SelectKey) {
	var next track.SelectKey
	blend := false
	if sel != nil {
		if ni := d.currentSelectKey + 1; ni < sel.NumKeys() {
			next = sel.Key(ni)
			remaining := next.Time - ctx.Time
			blend = key.BlendTime > 0 && remaining >= 0 && remaining <= key.BlendTime
		}
	}

	if !blend && d.held != nil {
		d.held.SetSkipInterpolation(false)
		d.held = nil
	}

	firstNode := d.findCameraNode(ctx, key.Selection)
	first := d.acquireCamera(key)
	defer first.Release()

	params := ir.CameraParams{JustActivated: sel == nil || d.currentSelectKey != d.lastCameraKey}
	switch {
	case key.EntityID.Valid():
		params.EntityID = key.EntityID
	case first != nil:
		params.EntityID = first.entity.ID()
	case key.Selection != "":
		d.log.Debug("camera entity not found", zap.String("camera", key.Selection))
	}

	fov, nearZ := DefaultFOV, DefaultNearZ
	if first != nil {
		fov, nearZ = first.FOV(), first.NearZ()
	}
	if firstNode != nil {
		if v, ok := firstNode.ParamFloat(ir.ParamFOV, ctx.Time); ok {
			fov = v
		}
		if v, ok := firstNode.ParamFloat(ir.ParamNearZ, ctx.Time); ok {
			nearZ = v
		}
	}
	if first != nil || firstNode != nil {
		params.FOV = mgl32.DegToRad(fov)
		params.NearZ = nearZ
	}

	if blend && first != nil {
		d.interpolate(ctx, &params, first, firstNode, key, next)
	}

	d.currentCamera = params.EntityID
	d.svc.Movie.SetCameraParams(params)

	if sel != nil && d.lastCameraKey >= 0 && d.lastCameraKey != d.currentSelectKey {
		d.restoreSegment(ctx, sel, d.lastCameraKey)
	}
}

// interpolate blends first towards the camera of next and stores the
// result in params.
func (d *Node) interpolate(ctx movie.AnimContext, params *ir.CameraParams, first *sceneCamera,
	firstNode *node.CameraNode, key, next track.SelectKey) {
	second := d.acquireCamera(next)
	if second == nil {
		d.log.Debug("blend target not found", zap.String("camera", next.Selection))
		return
	}
	defer second.Release()

	if firstNode != nil {
		firstNode.SetSkipInterpolation(true)
		d.held = firstNode
	}

	t := BlendFactor(key.BlendTime, next.Time-ctx.Time)

	start, ok := d.blendCache[d.currentSelectKey]
	if !ok {
		start = cameraState(ctx.Time, first, firstNode)
		d.blendCache[d.currentSelectKey] = start
	}
	target := cameraState(ctx.Time, second, d.findCameraNode(ctx, next.Selection))

	fov := lerp(start.FOV, target.FOV, t)
	nearZ := lerp(start.NearZ, target.NearZ, t)
	params.FOV = mgl32.DegToRad(fov)
	params.NearZ = nearZ
	if firstNode != nil {
		firstNode.SetParamFloat(ir.ParamFOV, ctx.Time, fov)
		firstNode.SetParamFloat(ir.ParamNearZ, ctx.Time, nearZ)
	}
	first.SetLens(fov, nearZ)

	pos := start.Pos.Add(target.Pos.Sub(start.Pos).Mul(t))
	rot := mgl32.QuatSlerp(start.Rot, target.Rot, t)
	first.SetWorld(pos, rot)
	if firstNode != nil {
		lp, lr := movie.WorldToLocal(first.entity, pos, rot)
		firstNode.SetInterpolationPosition(lp)
		firstNode.SetInterpolationRotation(lr)
	}

	if obs, ok := d.svc.Movie.(movie.BlendObserver); ok {
		obs.CameraBlend(key.Selection, next.Selection, t)
	}
}

// restoreSegment puts the camera of select key idx back into the state
// captured when its blend began, then forgets the segment.
func (d *Node) restoreSegment(ctx movie.AnimContext, sel *track.SelectTrack, idx int) {
	start, ok := d.blendCache[idx]
	if !ok {
		return
	}
	delete(d.blendCache, idx)
	if idx >= sel.NumKeys() {
		return
	}
	prev := sel.Key(idx)

	cam := d.acquireCamera(prev)
	defer cam.Release()
	if cam != nil {
		cam.SetWorld(start.Pos, start.Rot)
	}

	prevNode := d.findCameraNode(ctx, prev.Selection)
	if prevNode != nil && prevNode.FloatTrack(ir.ParamFOV) != nil {
		prevNode.SetParamFloat(ir.ParamFOV, ctx.Time, start.FOV)
	} else if cam != nil {
		cam.SetLens(start.FOV, start.NearZ)
	}

	if obs, ok := d.svc.Movie.(movie.BlendObserver); ok {
		obs.CameraRestore(prev.Selection)
	}
}
