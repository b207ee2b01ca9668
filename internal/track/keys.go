package track

import (
	"github.com/beevik/etree"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/trackview/internal/ir"
)

// SelectKey picks the active camera.
type SelectKey struct {
	KeyBase
	Selection string
	EntityID  ir.EntityID
	BlendTime float32
	Length    float32
}

func (k SelectKey) WithBase(b KeyBase) SelectKey { k.KeyBase = b; return k }
func (k SelectKey) Duration() float32            { return k.Length }

func (k SelectKey) EncodeXML(el *etree.Element) {
	setString(el, "node", k.Selection)
	if k.EntityID.Valid() {
		setUint(el, "CameraEntityId", uint64(k.EntityID))
	}
	if k.BlendTime != 0 {
		setFloat(el, "BlendTime", k.BlendTime)
	}
	if k.Length != 0 {
		setFloat(el, "duration", k.Length)
	}
}

func (k SelectKey) DecodeXML(el *etree.Element) (SelectKey, error) {
	r := attrReader{el: el}
	k.Selection = r.str("node")
	k.EntityID = ir.EntityID(r.id("CameraEntityId", 0))
	k.BlendTime = r.num("BlendTime", 0)
	k.Length = r.num("duration", 0)
	return k, r.err
}

// EventKey fires a named event.
type EventKey struct {
	KeyBase
	Event                string
	Value                string
	Animation            string
	Length               float32
	NoTriggerInScrubbing bool
}

func (k EventKey) WithBase(b KeyBase) EventKey { k.KeyBase = b; return k }
func (k EventKey) Duration() float32           { return k.Length }

func (k EventKey) EncodeXML(el *etree.Element) {
	setString(el, "event", k.Event)
	setString(el, "eventValue", k.Value)
	setString(el, "anim", k.Animation)
	if k.Length != 0 {
		setFloat(el, "length", k.Length)
	}
	if k.NoTriggerInScrubbing {
		setBool(el, "noTriggerInScrubbing", true)
	}
}

func (k EventKey) DecodeXML(el *etree.Element) (EventKey, error) {
	r := attrReader{el: el}
	k.Event = r.str("event")
	k.Value = r.str("eventValue")
	k.Animation = r.str("anim")
	k.Length = r.num("length", 0)
	k.NoTriggerInScrubbing = r.flag("noTriggerInScrubbing", false)
	return k, r.err
}

// SequenceKey plays a nested sequence.
// Without OverrideTimes, Length is filled in from the nested sequence's
// range when the director activates.
type SequenceKey struct {
	KeyBase
	Selection     string
	OverrideTimes bool
	StartTime     float32
	EndTime       float32
	Length        float32
}

func (k SequenceKey) WithBase(b KeyBase) SequenceKey { k.KeyBase = b; return k }

func (k SequenceKey) Duration() float32 {
	if k.OverrideTimes {
		return max(k.EndTime-k.StartTime, 0)
	}
	return k.Length
}

func (k SequenceKey) EncodeXML(el *etree.Element) {
	setString(el, "node", k.Selection)
	if k.OverrideTimes {
		setBool(el, "overridetimes", true)
		setFloat(el, "starttime", k.StartTime)
		setFloat(el, "endtime", k.EndTime)
	}
}

func (k SequenceKey) DecodeXML(el *etree.Element) (SequenceKey, error) {
	r := attrReader{el: el}
	k.Selection = r.str("node")
	k.OverrideTimes = r.flag("overridetimes", false)
	if k.OverrideTimes {
		k.StartTime = r.num("starttime", 0)
		k.EndTime = r.num("endtime", 0)
	}
	return k, r.err
}

// ConsoleKey executes a console command.
type ConsoleKey struct {
	KeyBase
	Command string
}

func (k ConsoleKey) WithBase(b KeyBase) ConsoleKey { k.KeyBase = b; return k }
func (k ConsoleKey) Duration() float32             { return 0 }
func (k ConsoleKey) EncodeXML(el *etree.Element)   { setString(el, "command", k.Command) }

func (k ConsoleKey) DecodeXML(el *etree.Element) (ConsoleKey, error) {
	k.Command = el.SelectAttrValue("command", "")
	return k, nil
}

// MusicKey switches the music mood.
type MusicKey struct {
	KeyBase
	Mood   string
	Length float32
}

func (k MusicKey) WithBase(b KeyBase) MusicKey { k.KeyBase = b; return k }
func (k MusicKey) Duration() float32           { return k.Length }

func (k MusicKey) EncodeXML(el *etree.Element) {
	setString(el, "mood", k.Mood)
	if k.Length != 0 {
		setFloat(el, "length", k.Length)
	}
}

func (k MusicKey) DecodeXML(el *etree.Element) (MusicKey, error) {
	r := attrReader{el: el}
	k.Mood = r.str("mood")
	k.Length = r.num("length", 0)
	return k, r.err
}

// SoundKey starts an audio trigger and optionally stops it after Length.
type SoundKey struct {
	KeyBase
	StartTrigger string
	StopTrigger  string
	Length       float32
}

func (k SoundKey) WithBase(b KeyBase) SoundKey { k.KeyBase = b; return k }
func (k SoundKey) Duration() float32           { return k.Length }

func (k SoundKey) EncodeXML(el *etree.Element) {
	setString(el, "StartTrigger", k.StartTrigger)
	setString(el, "StopTrigger", k.StopTrigger)
	if k.Length != 0 {
		setFloat(el, "Duration", k.Length)
	}
}

func (k SoundKey) DecodeXML(el *etree.Element) (SoundKey, error) {
	r := attrReader{el: el}
	k.StartTrigger = r.str("StartTrigger")
	k.StopTrigger = r.str("StopTrigger")
	k.Length = r.num("Duration", 0)
	return k, r.err
}

// GotoKey is a discrete float: the frame time to jump to.
type GotoKey struct {
	KeyBase
	Value float32
}

func (k GotoKey) WithBase(b KeyBase) GotoKey  { k.KeyBase = b; return k }
func (k GotoKey) Duration() float32           { return 0 }
func (k GotoKey) EncodeXML(el *etree.Element) { setFloat(el, "value", k.Value) }

func (k GotoKey) DecodeXML(el *etree.Element) (GotoKey, error) {
	v, err := floatAttr(el, "value", -1)
	k.Value = v
	return k, err
}

// CaptureKey starts a frame capture session.
type CaptureKey struct {
	KeyBase
	Length          float32
	TimeStep        float32
	Folder          string
	Prefix          string
	Format          string
	BufferToCapture string
	Once            bool
}

func (k CaptureKey) WithBase(b KeyBase) CaptureKey { k.KeyBase = b; return k }
func (k CaptureKey) Duration() float32             { return k.Length }

func (k CaptureKey) EncodeXML(el *etree.Element) {
	setFloat(el, "duration", k.Length)
	setFloat(el, "timeStep", k.TimeStep)
	setString(el, "folder", k.Folder)
	setString(el, "prefix", k.Prefix)
	setString(el, "format", k.Format)
	setString(el, "bufferToCapture", k.BufferToCapture)
	setBool(el, "once", k.Once)
}

func (k CaptureKey) DecodeXML(el *etree.Element) (CaptureKey, error) {
	r := attrReader{el: el}
	k.Length = r.num("duration", 0)
	k.TimeStep = r.num("timeStep", 0)
	k.Folder = r.str("folder")
	k.Prefix = r.str("prefix")
	k.Format = r.str("format")
	k.BufferToCapture = r.str("bufferToCapture")
	k.Once = r.flag("once", false)
	return k, r.err
}

// FloatKey is a scalar value key.
type FloatKey struct {
	KeyBase
	Value float32
}

func (k FloatKey) WithBase(b KeyBase) FloatKey { k.KeyBase = b; return k }
func (k FloatKey) Duration() float32           { return 0 }
func (k FloatKey) EncodeXML(el *etree.Element) { setFloat(el, "value", k.Value) }

func (k FloatKey) DecodeXML(el *etree.Element) (FloatKey, error) {
	v, err := floatAttr(el, "value", 0)
	k.Value = v
	return k, err
}

// Vec3Key is a position key.
type Vec3Key struct {
	KeyBase
	Value mgl32.Vec3
}

func (k Vec3Key) WithBase(b KeyBase) Vec3Key  { k.KeyBase = b; return k }
func (k Vec3Key) Duration() float32           { return 0 }
func (k Vec3Key) EncodeXML(el *etree.Element) { setVec3(el, "value", k.Value) }

func (k Vec3Key) DecodeXML(el *etree.Element) (Vec3Key, error) {
	v, err := vec3Attr(el, "value", mgl32.Vec3{})
	k.Value = v
	return k, err
}

// QuatKey is a rotation key, stored as w,x,y,z.
type QuatKey struct {
	KeyBase
	Value mgl32.Quat
}

func (k QuatKey) WithBase(b KeyBase) QuatKey  { k.KeyBase = b; return k }
func (k QuatKey) Duration() float32           { return 0 }
func (k QuatKey) EncodeXML(el *etree.Element) { setQuat(el, "value", k.Value) }

func (k QuatKey) DecodeXML(el *etree.Element) (QuatKey, error) {
	v, err := quatAttr(el, "value", mgl32.QuatIdent())
	k.Value = v
	return k, err
}
