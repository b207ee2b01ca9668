package track

import (
	"github.com/beevik/etree"

	"github.com/roach88/trackview/internal/ir"
)

// KeyBase is the part every key shares: its timeline position and flags.
type KeyBase struct {
	Time  float32
	Flags ir.KeyFlags
}

// Base returns the shared key fields. Promoted to every key payload.
func (b KeyBase) Base() KeyBase { return b }

// Selected reports whether the editor selection flag is set.
func (b KeyBase) Selected() bool { return b.Flags&ir.KeySelected != 0 }

// Key is the constraint satisfied by every key payload type.
//
// Payloads are plain values. WithBase returns a copy with the shared fields
// replaced, DecodeXML returns a copy with the payload attributes parsed
// (time and flags are handled by the track).
type Key[K any] interface {
	Base() KeyBase
	WithBase(KeyBase) K
	Duration() float32
	EncodeXML(el *etree.Element)
	DecodeXML(el *etree.Element) (K, error)
}
