package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trackview/internal/ir"
)

func gotoTrack(times ...float32) *GotoTrack {
	tr := NewKeyed[GotoKey](ir.Param(ir.ParamGoto), ir.ValueDiscreteFloat)
	for i, tm := range times {
		idx := tr.CreateKey(tm)
		k := tr.Key(idx)
		k.Value = float32(i)
		tr.SetKey(idx, k)
	}
	tr.SortKeys()
	return tr
}

func TestGetActiveKeyIntervals(t *testing.T) {
	tests := []struct {
		name string
		time float32
		want int
	}{
		{"before first", -0.5, -1},
		{"at first", 0, 0},
		{"inside first", 0.99, 0},
		{"at second", 1, 1},
		{"inside third", 2.5, 2},
		{"at last", 3, 3},
		{"after last", 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := gotoTrack(0, 1, 2, 3)
			idx, key := tr.GetActiveKey(tt.time)
			assert.Equal(t, tt.want, idx)
			if tt.want >= 0 {
				assert.Equal(t, float32(tt.want), key.Value)
			}
		})
	}
}

func TestGetActiveKeyEmptyTrack(t *testing.T) {
	tr := gotoTrack()
	idx, key := tr.GetActiveKey(1)
	assert.Equal(t, -1, idx)
	assert.Equal(t, GotoKey{}, key)
}

func TestGetActiveKeyBeforeFirstWithoutWrap(t *testing.T) {
	tr := gotoTrack(1, 2)
	idx, _ := tr.GetActiveKey(0.5)
	assert.Equal(t, -1, idx)
}

func TestGetActiveKeyMonotonicSweep(t *testing.T) {
	tr := gotoTrack(0, 0.5, 1.25, 2, 2.75)
	prev := -1
	for step := 0; step <= 400; step++ {
		idx := tr.ActiveKeyIndex(float32(step) * 0.01)
		require.GreaterOrEqual(t, idx, prev, "index decreased at step %d", step)
		prev = idx
	}
	assert.Equal(t, 4, prev)
}

func TestGetActiveKeyScrubBackward(t *testing.T) {
	tr := gotoTrack(0, 1, 2, 3)
	assert.Equal(t, 2, tr.ActiveKeyIndex(2.5))
	assert.Equal(t, 0, tr.ActiveKeyIndex(0.5), "backward jump rescans from the start")
	assert.Equal(t, 3, tr.ActiveKeyIndex(3.5))
}

func TestGetActiveKeyLoopWrapsModuloEnd(t *testing.T) {
	// endTime = 1.0 (goto keys have zero duration)
	a := gotoTrack(0.5, 1)
	a.SetFlags(ir.TrackLoop)
	b := gotoTrack(0.5, 1)
	b.SetFlags(ir.TrackLoop)

	ia := a.ActiveKeyIndex(1.6)
	ib := b.ActiveKeyIndex(0.6)
	assert.Equal(t, ib, ia)
	assert.Equal(t, 0, ia)
}

func TestGetActiveKeyWrapInstantSelectsLastKeyOnce(t *testing.T) {
	tr := gotoTrack(0.5, 1)
	tr.SetFlags(ir.TrackCycle)

	assert.Equal(t, 0, tr.ActiveKeyIndex(0.6))
	// 1.0 mod 1.0 = 0 < 0.6: wrap event, and 0 precedes the first key.
	assert.Equal(t, 1, tr.ActiveKeyIndex(1.0), "wrap instant yields the last key")
	// 1.1 wraps to ~0.1 which is not below the previous wrapped time (0).
	assert.Equal(t, -1, tr.ActiveKeyIndex(1.1))
	assert.Equal(t, 0, tr.ActiveKeyIndex(1.7))
}

func TestGetActiveKeyWrapBoundaryIsStrict(t *testing.T) {
	tr := gotoTrack(0.5, 1)
	tr.SetFlags(ir.TrackLoop)

	assert.Equal(t, -1, tr.ActiveKeyIndex(0.25))
	// Same wrapped time again: 0.25 < 0.25 is false, so no wrap event.
	assert.Equal(t, -1, tr.ActiveKeyIndex(1.25))
	assert.Equal(t, -1, tr.ActiveKeyIndex(0.25))
	// Strictly smaller wrapped time is a wrap event.
	assert.Equal(t, 1, tr.ActiveKeyIndex(2.125))
}

func TestGetActiveKeyWrapUsesLastKeyDuration(t *testing.T) {
	tr := NewKeyed[EventKey](ir.Param(ir.ParamEvent), ir.ValueEvent)
	tr.SetKey(tr.CreateKey(1), EventKey{KeyBase: KeyBase{Time: 1}, Event: "a"})
	i := tr.CreateKey(2)
	tr.SetKey(i, EventKey{KeyBase: KeyBase{Time: 2}, Event: "b", Length: 2})
	tr.SetFlags(ir.TrackLoop)

	assert.Equal(t, float32(4), tr.EndTime())
	idx, key := tr.GetActiveKey(5.5) // 5.5 mod 4 = 1.5
	assert.Equal(t, 0, idx)
	assert.Equal(t, "a", key.Event)
}

func TestGetActiveKeyZeroLengthLoopDoesNotWrap(t *testing.T) {
	tr := gotoTrack(0)
	tr.SetFlags(ir.TrackLoop)
	assert.Equal(t, 0, tr.ActiveKeyIndex(3))
	assert.Equal(t, 0, tr.ActiveKeyIndex(7))
}

func TestCreateKeyMarksDirtyAndReturnsPreSortIndex(t *testing.T) {
	tr := gotoTrack(1, 2)
	require.True(t, tr.IsSorted())

	idx := tr.CreateKey(0.5)
	assert.Equal(t, 2, idx)
	assert.False(t, tr.IsSorted())
	assert.Equal(t, 3, tr.NumKeys())

	assert.Equal(t, 0, tr.ActiveKeyIndex(0.6), "query sorts first")
	assert.True(t, tr.IsSorted())
	assert.Equal(t, float32(0.5), tr.KeyTime(0))
}

func TestCloneCopyRemoveKey(t *testing.T) {
	tr := gotoTrack(0, 1, 2)

	n := tr.NumKeys()
	c := tr.CloneKey(1)
	assert.Equal(t, n+1, tr.NumKeys())
	assert.Equal(t, tr.Key(1), tr.Key(c))

	other := gotoTrack(5)
	cp := tr.CopyKey(other, 0)
	assert.Equal(t, n+2, tr.NumKeys())
	assert.Equal(t, float32(5), tr.KeyTime(cp))

	tr.SortKeys()
	before := tr.Keys()
	tr.RemoveKey(0)
	assert.Equal(t, n+1, tr.NumKeys())
	assert.Equal(t, before[1:], tr.Keys())
	assert.False(t, tr.IsSorted())
}

func TestRemoveKeyOutOfRangePanics(t *testing.T) {
	tr := gotoTrack(0)
	assert.Panics(t, func() { tr.RemoveKey(1) })
	assert.Panics(t, func() { tr.RemoveKey(-1) })
}

func TestSortKeysIsStable(t *testing.T) {
	tr := NewKeyed[ConsoleKey](ir.Param(ir.ParamConsole), ir.ValueConsole)
	tr.SetKey(tr.CreateKey(1), ConsoleKey{KeyBase: KeyBase{Time: 1}, Command: "first"})
	tr.SetKey(tr.CreateKey(0), ConsoleKey{KeyBase: KeyBase{Time: 0}, Command: "zero"})
	tr.SetKey(tr.CreateKey(1), ConsoleKey{KeyBase: KeyBase{Time: 1}, Command: "second"})
	tr.SortKeys()

	assert.Equal(t, "zero", tr.Key(0).Command)
	assert.Equal(t, "first", tr.Key(1).Command)
	assert.Equal(t, "second", tr.Key(2).Command)
}

func TestSetKeyAtTime(t *testing.T) {
	tr := gotoTrack(0, 1)
	tr.SetKeyFlags(1, ir.KeySelected)

	i := tr.SetKeyAtTime(1.005, GotoKey{Value: 42})
	assert.Equal(t, 1, i)
	assert.Equal(t, 2, tr.NumKeys())
	assert.Equal(t, float32(42), tr.Key(1).Value)
	assert.True(t, tr.Key(1).Selected(), "replacing keeps the existing flags")

	i = tr.SetKeyAtTime(3, GotoKey{Value: 7})
	assert.Equal(t, 2, i)
	assert.Equal(t, 3, tr.NumKeys())
}

func TestFindKeyAndNextKey(t *testing.T) {
	tr := gotoTrack(0, 1, 2)
	assert.Equal(t, 1, tr.FindKey(1))
	assert.Equal(t, -1, tr.FindKey(1.5))
	assert.Equal(t, 2, tr.NextKey(1))
	assert.Equal(t, -1, tr.NextKey(2))
}

func TestResetActiveKey(t *testing.T) {
	tr := gotoTrack(0.5, 1)
	tr.SetFlags(ir.TrackLoop)
	tr.ActiveKeyIndex(0.9)

	tr.ResetActiveKey()
	// lastTime is back to -1, so a small wrapped time is not a wrap event.
	assert.Equal(t, -1, tr.ActiveKeyIndex(1.1))
}
