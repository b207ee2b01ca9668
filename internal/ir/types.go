package ir

import (
	"fmt"
	"strings"
)

// ParamKind identifies what an animation track drives.
type ParamKind int

const (
	ParamInvalid ParamKind = iota
	ParamCamera
	ParamEvent
	ParamSound
	ParamSequence
	ParamConsole
	ParamMusic
	ParamGoto
	ParamCapture
	ParamTimeWarp
	ParamFixedTimeStep
	ParamFOV
	ParamNearZ
	ParamPosition
	ParamRotation
)

var paramKindNames = map[ParamKind]string{
	ParamCamera:        "Camera",
	ParamEvent:         "Event",
	ParamSound:         "Sound",
	ParamSequence:      "Sequence",
	ParamConsole:       "Console",
	ParamMusic:         "Music",
	ParamGoto:          "GoTo",
	ParamCapture:       "Capture",
	ParamTimeWarp:      "Timewarp",
	ParamFixedTimeStep: "FixedTimeStep",
	ParamFOV:           "FOV",
	ParamNearZ:         "NearZ",
	ParamPosition:      "Position",
	ParamRotation:      "Rotation",
}

// String returns the XML name of the kind.
func (k ParamKind) String() string {
	if name, ok := paramKindNames[k]; ok {
		return name
	}
	return "Invalid"
}

// ParseParamKind resolves an XML name (case-insensitive) to a ParamKind.
func ParseParamKind(s string) (ParamKind, error) {
	for k, name := range paramKindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return ParamInvalid, fmt.Errorf("unknown param kind %q", s)
}

// ParamType addresses one track slot on a node.
// Index distinguishes repeatable kinds (several sound tracks); it is 0 for
// every kind that may only appear once.
type ParamType struct {
	Kind  ParamKind
	Index int
}

// Param is shorthand for ParamType{Kind: k}.
func Param(k ParamKind) ParamType {
	return ParamType{Kind: k}
}

func (p ParamType) String() string {
	if p.Index == 0 {
		return p.Kind.String()
	}
	return fmt.Sprintf("%s#%d", p.Kind, p.Index)
}

// ValueType tags the concrete key payload a track stores.
type ValueType int

const (
	ValueInvalid ValueType = iota
	ValueSelect
	ValueEvent
	ValueSound
	ValueSequence
	ValueConsole
	ValueMusic
	ValueDiscreteFloat
	ValueCapture
	ValueFloat
	ValueVector
	ValueQuat
)

var valueTypeNames = map[ValueType]string{
	ValueSelect:        "Select",
	ValueEvent:         "Event",
	ValueSound:         "Sound",
	ValueSequence:      "Sequence",
	ValueConsole:       "Console",
	ValueMusic:         "Music",
	ValueDiscreteFloat: "DiscreteFloat",
	ValueCapture:       "Capture",
	ValueFloat:         "Float",
	ValueVector:        "Vector",
	ValueQuat:          "Quat",
}

func (v ValueType) String() string {
	if name, ok := valueTypeNames[v]; ok {
		return name
	}
	return "Invalid"
}

// ParseValueType resolves an XML name to a ValueType.
func ParseValueType(s string) (ValueType, error) {
	for v, name := range valueTypeNames {
		if strings.EqualFold(name, s) {
			return v, nil
		}
	}
	return ValueInvalid, fmt.Errorf("unknown value type %q", s)
}

// TrackFlags is the persisted per-track flag set.
type TrackFlags uint32

const (
	TrackLinear   TrackFlags = 1 << 1
	TrackLoop     TrackFlags = 1 << 2
	TrackCycle    TrackFlags = 1 << 3
	TrackDisabled TrackFlags = 1 << 4
	TrackHidden   TrackFlags = 1 << 5
	TrackMuted    TrackFlags = 1 << 8
)

// Has reports whether every bit of f is set.
func (t TrackFlags) Has(f TrackFlags) bool { return t&f == f }

// Wraps reports whether time should wrap modulo the track length.
func (t TrackFlags) Wraps() bool { return t&(TrackLoop|TrackCycle) != 0 }

// KeyFlags is the per-key flag set.
type KeyFlags uint32

const (
	KeySelected KeyFlags = 1 << 0
)

// TrackMask selects track kinds to suppress during a frame.
type TrackMask uint32

const (
	MaskSound TrackMask = 1 << 11
	MaskMusic TrackMask = 1 << 12
)

// MaskFor returns the mask bit that suppresses tracks of kind k, or 0.
func MaskFor(k ParamKind) TrackMask {
	switch k {
	case ParamSound:
		return MaskSound
	case ParamMusic:
		return MaskMusic
	default:
		return 0
	}
}

// NodeKind identifies a node implementation.
type NodeKind string

const (
	NodeDirector NodeKind = "Director"
	NodeCamera   NodeKind = "Camera"
)

// NodeFlags is the persisted per-node flag set.
type NodeFlags uint32

const (
	NodeExpanded      NodeFlags = 1 << 0
	NodeSelected      NodeFlags = 1 << 1
	NodeCanChangeName NodeFlags = 1 << 2
	NodeDisabled      NodeFlags = 1 << 3
)

// SequenceFlags is the persisted per-sequence flag set.
type SequenceFlags uint32

const (
	SeqPlayOnReset        SequenceFlags = 1 << 0
	SeqOutOfRangeConstant SequenceFlags = 1 << 1
	SeqOutOfRangeLoop     SequenceFlags = 1 << 2
	SeqCutScene           SequenceFlags = 1 << 3
	SeqNoSeek             SequenceFlags = 1 << 10
	SeqNoAbort            SequenceFlags = 1 << 11
	SeqCanWarpInFixedTime SequenceFlags = 1 << 14
)

// Range is a closed timeline interval in seconds.
type Range struct {
	Start float32
	End   float32
}

// Length returns End-Start.
func (r Range) Length() float32 { return r.End - r.Start }

// Contains reports whether t lies within [Start, End].
func (r Range) Contains(t float32) bool { return t >= r.Start && t <= r.End }

// EntityID identifies a world entity. Zero is invalid.
type EntityID uint64

// Valid reports whether the id refers to an entity.
func (id EntityID) Valid() bool { return id != 0 }

// CameraParams is the active view published to the movie system.
// FOV is in radians; a zero EntityID means "no sequence camera".
type CameraParams struct {
	EntityID      EntityID
	FOV           float32
	NearZ         float32
	JustActivated bool
}
