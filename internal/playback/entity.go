package playback

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
)

// DefaultNearZ is the near plane of cameras declared without one.
const DefaultNearZ = 0.25

// Camera is an in-memory camera component. FOV is in degrees.
type Camera struct {
	fov, nearZ float32
}

// NewCamera creates a camera component.
func NewCamera(fov, nearZ float32) *Camera { return &Camera{fov: fov, nearZ: nearZ} }

func (c *Camera) FOV() float32       { return c.fov }
func (c *Camera) NearZ() float32     { return c.nearZ }
func (c *Camera) SetFOV(v float32)   { c.fov = v }
func (c *Camera) SetNearZ(v float32) { c.nearZ = v }

// Entity is an in-memory world entity.
type Entity struct {
	id     ir.EntityID
	name   string
	parent *Entity
	pos    mgl32.Vec3
	rot    mgl32.Quat
	cam    *Camera
}

// NewEntity creates an entity at the origin with identity rotation.
func NewEntity(id ir.EntityID, name string) *Entity {
	return &Entity{id: id, name: name, rot: mgl32.QuatIdent()}
}

// WithCamera attaches a camera component and returns e.
func (e *Entity) WithCamera(c *Camera) *Entity {
	e.cam = c
	return e
}

// SetParent attaches e below p. A nil p detaches it.
func (e *Entity) SetParent(p *Entity) { e.parent = p }

func (e *Entity) ID() ir.EntityID          { return e.id }
func (e *Entity) Name() string             { return e.name }
func (e *Entity) Position() mgl32.Vec3     { return e.pos }
func (e *Entity) SetPosition(p mgl32.Vec3) { e.pos = p }
func (e *Entity) Rotation() mgl32.Quat     { return e.rot }
func (e *Entity) SetRotation(q mgl32.Quat) { e.rot = q }

// Parent returns the parent entity. A detached entity returns a nil
// interface.
func (e *Entity) Parent() movie.Entity {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *Entity) Camera() (movie.Camera, bool) {
	if e.cam == nil {
		return nil, false
	}
	return e.cam, true
}

var _ movie.Entity = (*Entity)(nil)
