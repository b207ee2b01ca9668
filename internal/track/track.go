package track

import (
	"fmt"
	"math"
	"slices"

	"github.com/beevik/etree"

	"github.com/roach88/trackview/internal/ir"
)

// MinTimePrecision is the tolerance SetKeyAtTime uses to treat two key
// times as the same slot.
const MinTimePrecision = 0.01

// Color is an editor-only custom track color.
type Color struct {
	R, G, B, A uint8
}

// ABGR packs the color the way it is persisted.
func (c Color) ABGR() uint32 {
	return uint32(c.A)<<24 | uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R)
}

// ColorFromABGR unpacks a persisted color.
func ColorFromABGR(v uint32) Color {
	return Color{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: uint8(v >> 24)}
}

// KeyedTrack is an ordered container of keys of one payload type.
//
// Evaluation state (currKey, lastTime) lives on the track and is only
// touched by GetActiveKey and ResetActiveKey. A track is not safe for
// concurrent use; the owning sequence evaluates it from one goroutine.
type KeyedTrack[K Key[K]] struct {
	paramType ir.ParamType
	valueType ir.ValueType
	flags     ir.TrackFlags
	timeRange ir.Range

	keys  []K
	dirty bool

	currKey  int
	lastTime float32

	multiplier  float32
	customColor *Color
}

// NewKeyed creates an empty track for the given parameter slot.
func NewKeyed[K Key[K]](paramType ir.ParamType, valueType ir.ValueType) *KeyedTrack[K] {
	return &KeyedTrack[K]{
		paramType:  paramType,
		valueType:  valueType,
		currKey:    -1,
		lastTime:   -1,
		multiplier: 1,
	}
}

func (t *KeyedTrack[K]) ParamType() ir.ParamType     { return t.paramType }
func (t *KeyedTrack[K]) SetParamType(p ir.ParamType) { t.paramType = p }
func (t *KeyedTrack[K]) ValueType() ir.ValueType     { return t.valueType }
func (t *KeyedTrack[K]) Flags() ir.TrackFlags        { return t.flags }
func (t *KeyedTrack[K]) SetFlags(f ir.TrackFlags)    { t.flags = f }
func (t *KeyedTrack[K]) TimeRange() ir.Range         { return t.timeRange }
func (t *KeyedTrack[K]) SetTimeRange(r ir.Range)     { t.timeRange = r }
func (t *KeyedTrack[K]) Multiplier() float32         { return t.multiplier }
func (t *KeyedTrack[K]) SetMultiplier(m float32)     { t.multiplier = m }
func (t *KeyedTrack[K]) NumKeys() int                { return len(t.keys) }
func (t *KeyedTrack[K]) IsSorted() bool              { return !t.dirty }
func (t *KeyedTrack[K]) HasKeys() bool               { return len(t.keys) > 0 }

// CustomColor returns the editor color, if one was set.
func (t *KeyedTrack[K]) CustomColor() (Color, bool) {
	if t.customColor == nil {
		return Color{}, false
	}
	return *t.customColor, true
}

// SetCustomColor sets the editor color.
func (t *KeyedTrack[K]) SetCustomColor(c Color) { t.customColor = &c }

// ClearCustomColor removes the editor color.
func (t *KeyedTrack[K]) ClearCustomColor() { t.customColor = nil }

// Key returns key i. Panics if i is out of range.
func (t *KeyedTrack[K]) Key(i int) K {
	return t.keys[i]
}

// Keys returns a copy of the keys in their current (possibly unsorted) order.
func (t *KeyedTrack[K]) Keys() []K {
	return slices.Clone(t.keys)
}

// SetKey replaces key i and marks the track dirty.
func (t *KeyedTrack[K]) SetKey(i int, k K) {
	t.keys[i] = k
	t.dirty = true
}

func (t *KeyedTrack[K]) KeyTime(i int) float32 {
	return t.keys[i].Base().Time
}

func (t *KeyedTrack[K]) SetKeyTime(i int, time float32) {
	b := t.keys[i].Base()
	b.Time = time
	t.keys[i] = t.keys[i].WithBase(b)
	t.dirty = true
}

func (t *KeyedTrack[K]) KeyFlags(i int) ir.KeyFlags {
	return t.keys[i].Base().Flags
}

func (t *KeyedTrack[K]) SetKeyFlags(i int, flags ir.KeyFlags) {
	b := t.keys[i].Base()
	b.Flags = flags
	t.keys[i] = t.keys[i].WithBase(b)
	t.dirty = true
}

func (t *KeyedTrack[K]) KeyDuration(i int) float32 {
	return t.keys[i].Duration()
}

// CreateKey appends a default key at time and returns its pre-sort index.
func (t *KeyedTrack[K]) CreateKey(time float32) int {
	var k K
	t.keys = append(t.keys, k.WithBase(KeyBase{Time: time}))
	t.dirty = true
	return len(t.keys) - 1
}

// CloneKey appends a copy of key i and returns the new index.
func (t *KeyedTrack[K]) CloneKey(i int) int {
	t.keys = append(t.keys, t.keys[i])
	t.dirty = true
	return len(t.keys) - 1
}

// CopyKey appends a copy of key i of src and returns the new index.
func (t *KeyedTrack[K]) CopyKey(src *KeyedTrack[K], i int) int {
	t.keys = append(t.keys, src.keys[i])
	t.dirty = true
	return len(t.keys) - 1
}

// RemoveKey erases key i. Panics if i is out of range.
func (t *KeyedTrack[K]) RemoveKey(i int) {
	if i < 0 || i >= len(t.keys) {
		panic(fmt.Sprintf("track %s: RemoveKey(%d) out of range [0,%d)", t.paramType, i, len(t.keys)))
	}
	t.keys = slices.Delete(t.keys, i, i+1)
	t.dirty = true
}

// SortKeys stable-sorts keys by time and clears the dirty bit.
func (t *KeyedTrack[K]) SortKeys() {
	slices.SortStableFunc(t.keys, func(a, b K) int {
		at, bt := a.Base().Time, b.Base().Time
		switch {
		case at < bt:
			return -1
		case at > bt:
			return 1
		}
		return 0
	})
	t.dirty = false
}

func (t *KeyedTrack[K]) ensureSorted() {
	if t.dirty {
		t.SortKeys()
	}
}

// FindKey returns the index of the key at exactly time, or -1.
func (t *KeyedTrack[K]) FindKey(time float32) int {
	for i, k := range t.keys {
		if k.Base().Time == time {
			return i
		}
	}
	return -1
}

// SetKeyAtTime stores k at time. A key already within MinTimePrecision of
// time is replaced (keeping its flags); otherwise a new key is appended.
func (t *KeyedTrack[K]) SetKeyAtTime(time float32, k K) int {
	for i, existing := range t.keys {
		eb := existing.Base()
		if float32(math.Abs(float64(eb.Time-time))) < MinTimePrecision {
			t.SetKey(i, k.WithBase(KeyBase{Time: time, Flags: eb.Flags}))
			return i
		}
	}
	i := t.CreateKey(time)
	t.SetKey(i, k.WithBase(KeyBase{Time: time, Flags: k.Base().Flags}))
	return i
}

// EndTime is time(last key) + duration(last key), or 0 for an empty track.
func (t *KeyedTrack[K]) EndTime() float32 {
	t.ensureSorted()
	if len(t.keys) == 0 {
		return 0
	}
	last := t.keys[len(t.keys)-1]
	return last.Base().Time + last.Duration()
}

// NextKey returns the index following i in time order, or -1.
func (t *KeyedTrack[K]) NextKey(i int) int {
	t.ensureSorted()
	if i+1 < len(t.keys) {
		return i + 1
	}
	return -1
}

// ResetActiveKey drops the cached evaluation state.
func (t *KeyedTrack[K]) ResetActiveKey() {
	t.currKey = -1
	t.lastTime = -1
}

// GetActiveKey returns the index and value of the key active at time, or
// -1 and the zero key when none is.
func (t *KeyedTrack[K]) GetActiveKey(time float32) (int, K) {
	var zero K
	t.ensureSorted()

	n := len(t.keys)
	if n == 0 {
		t.lastTime = time
		t.currKey = -1
		return -1, zero
	}

	wrapped := false
	if t.flags.Wraps() {
		last := t.keys[n-1]
		end := last.Base().Time + last.Duration()
		// A zero-length timeline cannot be wrapped; fmod would yield NaN.
		if end > 0 {
			time = float32(math.Mod(float64(time), float64(end)))
			if time < t.lastTime {
				wrapped = true
			}
		}
	}
	t.lastTime = time

	if t.keys[0].Base().Time > time {
		if wrapped {
			t.currKey = n - 1
			return t.currKey, t.keys[t.currKey]
		}
		t.currKey = -1
		return -1, zero
	}

	if t.currKey < 0 {
		t.currKey = 0
	}
	if i, ok := t.scan(t.currKey, time); ok {
		t.currKey = i
		return i, t.keys[i]
	}
	if i, ok := t.scan(0, time); ok {
		t.currKey = i
		return i, t.keys[i]
	}
	t.currKey = -1
	return -1, zero
}

// scan walks forward from start looking for the interval containing time.
// It stops at the first key that lies after time.
func (t *KeyedTrack[K]) scan(start int, time float32) (int, bool) {
	n := len(t.keys)
	for i := start; i < n; i++ {
		if time < t.keys[i].Base().Time {
			return -1, false
		}
		if i == n-1 || time < t.keys[i+1].Base().Time {
			return i, true
		}
	}
	return -1, false
}

// Save writes the track attributes and every key under el.
func (t *KeyedTrack[K]) Save(el *etree.Element) {
	t.ensureSorted()
	el.CreateAttr("Flags", fmt.Sprintf("%d", uint32(t.flags)))
	setFloat(el, "StartTime", t.timeRange.Start)
	setFloat(el, "EndTime", t.timeRange.End)
	if t.customColor != nil {
		setBool(el, "HasCustomColor", true)
		setUint(el, "CustomColor", uint64(t.customColor.ABGR()))
	}
	for _, k := range t.keys {
		t.saveKey(el.CreateElement("Key"), k)
	}
}

func (t *KeyedTrack[K]) saveKey(keyEl *etree.Element, k K) {
	b := k.Base()
	setFloat(keyEl, "time", b.Time)
	if b.Flags != 0 {
		setUint(keyEl, "flags", uint64(b.Flags))
	}
	k.EncodeXML(keyEl)
}

// Load replaces the track contents from el.
//
// It returns false (and no error) when el has no keys and allowEmpty is
// false, so the caller can discard the track. Malformed attributes are
// reported as errors wrapping *FormatError.
func (t *KeyedTrack[K]) Load(el *etree.Element, allowEmpty bool) (bool, error) {
	flags, err := uintAttr(el, "Flags", uint64(t.flags))
	if err != nil {
		return false, fmt.Errorf("track %s: %w", t.paramType, err)
	}
	start, err := floatAttr(el, "StartTime", 0)
	if err != nil {
		return false, fmt.Errorf("track %s: %w", t.paramType, err)
	}
	end, err := floatAttr(el, "EndTime", 0)
	if err != nil {
		return false, fmt.Errorf("track %s: %w", t.paramType, err)
	}
	hasColor, err := boolAttr(el, "HasCustomColor", false)
	if err != nil {
		return false, fmt.Errorf("track %s: %w", t.paramType, err)
	}
	var color *Color
	if hasColor {
		abgr, err := uintAttr(el, "CustomColor", 0)
		if err != nil {
			return false, fmt.Errorf("track %s: %w", t.paramType, err)
		}
		c := ColorFromABGR(uint32(abgr))
		color = &c
	}

	children := el.ChildElements()
	keys := make([]K, 0, len(children))
	for i, keyEl := range children {
		k, err := t.loadKey(keyEl, 0)
		if err != nil {
			return false, fmt.Errorf("track %s: key %d: %w", t.paramType, i, err)
		}
		keys = append(keys, k)
	}

	// Nothing is assigned until the whole element parsed.
	t.flags = ir.TrackFlags(flags)
	t.timeRange = ir.Range{Start: start, End: end}
	t.customColor = color
	t.keys = keys
	t.dirty = true
	t.ResetActiveKey()

	if len(keys) == 0 && !allowEmpty {
		return false, nil
	}
	return true, nil
}

func (t *KeyedTrack[K]) loadKey(keyEl *etree.Element, offset float32) (K, error) {
	var zero K
	if keyEl.Tag != "Key" {
		return zero, &FormatError{Code: ErrCodeBadElement, Message: fmt.Sprintf("unexpected element <%s>", keyEl.Tag)}
	}
	time, err := floatAttr(keyEl, "time", 0)
	if err != nil {
		return zero, err
	}
	flags, err := uintAttr(keyEl, "flags", 0)
	if err != nil {
		return zero, err
	}
	k, err := zero.DecodeXML(keyEl)
	if err != nil {
		return zero, err
	}
	return k.WithBase(KeyBase{Time: time + offset, Flags: ir.KeyFlags(flags)}), nil
}

// SaveSelection writes keys for copy/paste. With selectedOnly, only keys
// carrying the selection flag are written.
func (t *KeyedTrack[K]) SaveSelection(el *etree.Element, selectedOnly bool) int {
	t.ensureSorted()
	el.CreateAttr("TrackType", t.valueType.String())
	n := 0
	for _, k := range t.keys {
		if selectedOnly && !k.Base().Selected() {
			continue
		}
		t.saveKey(el.CreateElement("Key"), k)
		n++
	}
	return n
}

// LoadSelection appends pasted keys shifted by offset. With markSelected
// the pasted keys get the selection flag. Returns the number pasted.
func (t *KeyedTrack[K]) LoadSelection(el *etree.Element, offset float32, markSelected bool) (int, error) {
	trackType := el.SelectAttrValue("TrackType", "")
	if trackType != t.valueType.String() {
		return 0, &FormatError{
			Code:    ErrCodeTypeMismatch,
			Attr:    "TrackType",
			Value:   trackType,
			Message: fmt.Sprintf("cannot paste into %s track", t.valueType),
		}
	}
	pasted := make([]K, 0, len(el.ChildElements()))
	for i, keyEl := range el.ChildElements() {
		k, err := t.loadKey(keyEl, offset)
		if err != nil {
			return 0, fmt.Errorf("paste key %d: %w", i, err)
		}
		if markSelected {
			b := k.Base()
			b.Flags |= ir.KeySelected
			k = k.WithBase(b)
		}
		pasted = append(pasted, k)
	}
	t.keys = append(t.keys, pasted...)
	t.SortKeys()
	return len(pasted), nil
}
