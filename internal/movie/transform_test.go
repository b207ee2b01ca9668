package movie

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/trackview/internal/ir"
)

type stubEntity struct {
	parent *stubEntity
	pos    mgl32.Vec3
	rot    mgl32.Quat
}

func (s *stubEntity) ID() ir.EntityID { return 1 }
func (s *stubEntity) Name() string    { return "stub" }

func (s *stubEntity) Parent() Entity {
	if s.parent == nil {
		return nil
	}
	return s.parent
}

func (s *stubEntity) Position() mgl32.Vec3     { return s.pos }
func (s *stubEntity) SetPosition(p mgl32.Vec3) { s.pos = p }
func (s *stubEntity) Rotation() mgl32.Quat     { return s.rot }
func (s *stubEntity) SetRotation(q mgl32.Quat) { s.rot = q }
func (s *stubEntity) Camera() (Camera, bool)   { return nil, false }

func TestWorldTransformWithoutParent(t *testing.T) {
	e := &stubEntity{pos: mgl32.Vec3{1, 2, 3}, rot: mgl32.QuatIdent()}
	pos, rot := WorldTransform(e)
	assert.Equal(t, e.pos, pos)
	assert.Equal(t, e.rot, rot)

	lp, lr := WorldToLocal(e, pos, rot)
	assert.Equal(t, pos, lp)
	assert.Equal(t, rot, lr)
}

func TestLocalWorldRoundTripWithParent(t *testing.T) {
	parent := &stubEntity{
		pos: mgl32.Vec3{10, 0, 0},
		rot: mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 0, 1}),
	}
	child := &stubEntity{parent: parent, pos: mgl32.Vec3{1, 0, 0}, rot: mgl32.QuatIdent()}

	pos, rot := WorldTransform(child)
	// +X rotated a quarter turn about Z is +Y.
	assert.True(t, pos.ApproxEqualThreshold(mgl32.Vec3{10, 1, 0}, 1e-5), "got %v", pos)
	assert.True(t, rot.ApproxEqualThreshold(parent.rot, 1e-5))

	lp, lr := WorldToLocal(child, pos, rot)
	assert.True(t, lp.ApproxEqualThreshold(child.pos, 1e-5), "got %v", lp)
	assert.True(t, lr.ApproxEqualThreshold(child.rot, 1e-5))

	wp, _ := LocalToWorld(child, child.pos, child.rot)
	assert.True(t, wp.ApproxEqualThreshold(pos, 1e-5))
}
