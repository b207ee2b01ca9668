package track

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/roach88/trackview/internal/ir"
)

// Track is the payload-independent view of a KeyedTrack that nodes store.
// Code that needs the payload switches on ValueType and asserts to the
// concrete *KeyedTrack[K] (see the aliases below).
type Track interface {
	ParamType() ir.ParamType
	SetParamType(ir.ParamType)
	ValueType() ir.ValueType
	Flags() ir.TrackFlags
	SetFlags(ir.TrackFlags)
	TimeRange() ir.Range
	SetTimeRange(ir.Range)

	NumKeys() int
	KeyTime(i int) float32
	SetKeyTime(i int, time float32)
	KeyFlags(i int) ir.KeyFlags
	SetKeyFlags(i int, flags ir.KeyFlags)
	KeyDuration(i int) float32
	CreateKey(time float32) int
	CloneKey(i int) int
	RemoveKey(i int)
	SortKeys()
	IsSorted() bool
	FindKey(time float32) int
	EndTime() float32

	// ActiveKeyIndex is GetActiveKey without the payload.
	ActiveKeyIndex(time float32) int
	ResetActiveKey()

	Save(el *etree.Element)
	Load(el *etree.Element, allowEmpty bool) (bool, error)
	SaveSelection(el *etree.Element, selectedOnly bool) int
	LoadSelection(el *etree.Element, offset float32, markSelected bool) (int, error)
}

// ActiveKeyIndex resolves the active key and discards the payload.
func (t *KeyedTrack[K]) ActiveKeyIndex(time float32) int {
	i, _ := t.GetActiveKey(time)
	return i
}

// Concrete track types by value type.
type (
	SelectTrack   = KeyedTrack[SelectKey]
	EventTrack    = KeyedTrack[EventKey]
	SequenceTrack = KeyedTrack[SequenceKey]
	ConsoleTrack  = KeyedTrack[ConsoleKey]
	MusicTrack    = KeyedTrack[MusicKey]
	SoundTrack    = KeyedTrack[SoundKey]
	GotoTrack     = KeyedTrack[GotoKey]
	CaptureTrack  = KeyedTrack[CaptureKey]
	FloatTrack    = KeyedTrack[FloatKey]
	Vec3Track     = KeyedTrack[Vec3Key]
	QuatTrack     = KeyedTrack[QuatKey]
)

// New creates an empty track of the concrete type tagged by valueType.
func New(paramType ir.ParamType, valueType ir.ValueType) (Track, error) {
	switch valueType {
	case ir.ValueSelect:
		return NewKeyed[SelectKey](paramType, valueType), nil
	case ir.ValueEvent:
		return NewKeyed[EventKey](paramType, valueType), nil
	case ir.ValueSequence:
		return NewKeyed[SequenceKey](paramType, valueType), nil
	case ir.ValueConsole:
		return NewKeyed[ConsoleKey](paramType, valueType), nil
	case ir.ValueMusic:
		return NewKeyed[MusicKey](paramType, valueType), nil
	case ir.ValueSound:
		return NewKeyed[SoundKey](paramType, valueType), nil
	case ir.ValueDiscreteFloat:
		return NewKeyed[GotoKey](paramType, valueType), nil
	case ir.ValueCapture:
		return NewKeyed[CaptureKey](paramType, valueType), nil
	case ir.ValueFloat:
		return NewKeyed[FloatKey](paramType, valueType), nil
	case ir.ValueVector:
		return NewKeyed[Vec3Key](paramType, valueType), nil
	case ir.ValueQuat:
		return NewKeyed[QuatKey](paramType, valueType), nil
	default:
		return nil, &FormatError{
			Code:    ErrCodeUnknownType,
			Message: fmt.Sprintf("no track for value type %s (param %s)", valueType, paramType),
		}
	}
}

var (
	_ Track = (*SelectTrack)(nil)
	_ Track = (*QuatTrack)(nil)
)
