package track

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trackview/internal/ir"
)

func TestEvalFloat(t *testing.T) {
	tr := NewKeyed[FloatKey](ir.Param(ir.ParamFOV), ir.ValueFloat)
	_, ok := EvalFloat(tr, 0)
	assert.False(t, ok)

	SetFloat(tr, 1, 60)
	SetFloat(tr, 3, 90)

	tests := []struct {
		time float32
		want float32
	}{
		{0, 60},
		{1, 60},
		{2, 75},
		{3, 90},
		{10, 90},
	}
	for _, tt := range tests {
		v, ok := EvalFloat(tr, tt.time)
		require.True(t, ok)
		assert.InDelta(t, tt.want, v, 1e-4, "time %v", tt.time)
	}

	tr.SetMultiplier(2)
	v, _ := EvalFloat(tr, 1)
	assert.InDelta(t, 120, v, 1e-4)
}

func TestEvalDoesNotTouchActiveKeyCache(t *testing.T) {
	tr := NewKeyed[FloatKey](ir.Param(ir.ParamNearZ), ir.ValueFloat)
	SetFloat(tr, 0.5, 1)
	SetFloat(tr, 1, 2)
	tr.SetFlags(ir.TrackLoop)

	assert.Equal(t, 0, tr.ActiveKeyIndex(0.9))
	EvalFloat(tr, 0.1)
	// Still a wrap relative to 0.9, not to the sampled 0.1.
	assert.Equal(t, 1, tr.ActiveKeyIndex(1.2))
}

func TestEvalVec3(t *testing.T) {
	tr := NewKeyed[Vec3Key](ir.Param(ir.ParamPosition), ir.ValueVector)
	SetVec3(tr, 0, mgl32.Vec3{0, 0, 0})
	SetVec3(tr, 2, mgl32.Vec3{10, -4, 2})

	v, ok := EvalVec3(tr, 0.5)
	require.True(t, ok)
	assert.True(t, v.ApproxEqual(mgl32.Vec3{2.5, -1, 0.5}), "got %v", v)
}

func TestEvalQuat(t *testing.T) {
	tr := NewKeyed[QuatKey](ir.Param(ir.ParamRotation), ir.ValueQuat)
	q, ok := EvalQuat(tr, 0)
	assert.False(t, ok)
	assert.Equal(t, mgl32.QuatIdent(), q)

	axis := mgl32.Vec3{0, 0, 1}
	SetQuat(tr, 0, mgl32.QuatIdent())
	SetQuat(tr, 1, mgl32.QuatRotate(math.Pi/2, axis))

	mid, ok := EvalQuat(tr, 0.5)
	require.True(t, ok)
	assert.True(t, mid.ApproxEqualThreshold(mgl32.QuatRotate(math.Pi/4, axis), 1e-4), "got %v", mid)

	end, _ := EvalQuat(tr, 5)
	assert.True(t, end.ApproxEqualThreshold(mgl32.QuatRotate(math.Pi/2, axis), 1e-5))
}
