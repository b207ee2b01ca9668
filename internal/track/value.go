package track

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Value tracks (FOV, NearZ, Position, Rotation) are sampled rather than
// "activated": they interpolate between the surrounding keys and clamp to
// the first/last key outside the keyed range. Sampling uses a binary search
// and leaves the GetActiveKey cache untouched, so camera blending can read
// a camera's tracks at arbitrary times without disturbing its playback.

// segment locates the keys around time. It returns (i, i+1, alpha) where
// alpha in [0,1] is the position between them; j == i outside the range.
func segment[K Key[K]](t *KeyedTrack[K], time float32) (int, int, float32) {
	t.ensureSorted()
	n := len(t.keys)
	if t.flags.Wraps() {
		if end := t.EndTime(); end > 0 {
			time = float32(math.Mod(float64(time), float64(end)))
		}
	}
	// first key strictly after time
	after := sort.Search(n, func(i int) bool { return t.keys[i].Base().Time > time })
	switch {
	case after == 0:
		return 0, 0, 0
	case after == n:
		return n - 1, n - 1, 0
	}
	i, j := after-1, after
	t0, t1 := t.keys[i].Base().Time, t.keys[j].Base().Time
	if t1 <= t0 {
		return j, j, 0
	}
	return i, j, (time - t0) / (t1 - t0)
}

// EvalFloat samples a float track, scaled by its multiplier.
// ok is false for an empty track.
func EvalFloat(t *FloatTrack, time float32) (float32, bool) {
	if len(t.keys) == 0 {
		return 0, false
	}
	i, j, a := segment(t, time)
	v := t.keys[i].Value + (t.keys[j].Value-t.keys[i].Value)*a
	return v * t.multiplier, true
}

// EvalVec3 samples a vector track with linear interpolation.
func EvalVec3(t *Vec3Track, time float32) (mgl32.Vec3, bool) {
	if len(t.keys) == 0 {
		return mgl32.Vec3{}, false
	}
	i, j, a := segment(t, time)
	from, to := t.keys[i].Value, t.keys[j].Value
	return from.Add(to.Sub(from).Mul(a)), true
}

// EvalQuat samples a rotation track with spherical interpolation.
func EvalQuat(t *QuatTrack, time float32) (mgl32.Quat, bool) {
	if len(t.keys) == 0 {
		return mgl32.QuatIdent(), false
	}
	i, j, a := segment(t, time)
	if i == j {
		return t.keys[i].Value, true
	}
	return mgl32.QuatSlerp(t.keys[i].Value, t.keys[j].Value, a), true
}

// SetFloat stores v at time.
func SetFloat(t *FloatTrack, time, v float32) {
	t.SetKeyAtTime(time, FloatKey{Value: v})
}

// SetVec3 stores v at time.
func SetVec3(t *Vec3Track, time float32, v mgl32.Vec3) {
	t.SetKeyAtTime(time, Vec3Key{Value: v})
}

// SetQuat stores q at time.
func SetQuat(t *QuatTrack, time float32, q mgl32.Quat) {
	t.SetKeyAtTime(time, QuatKey{Value: q})
}
