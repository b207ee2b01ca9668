package node

import (
	"slices"

	"github.com/roach88/trackview/internal/ir"
)

// ParamFlags describe how a parameter may be used on a node.
type ParamFlags uint32

const (
	// ParamMultipleTracks allows several tracks of the kind (sub-indexed).
	ParamMultipleTracks ParamFlags = 1 << 0

	// ParamDefault marks parameters created with a new node.
	ParamDefault ParamFlags = 1 << 1
)

// ParamInfo describes one parameter a node kind supports.
type ParamInfo struct {
	Name      string
	Kind      ir.ParamKind
	ValueType ir.ValueType
	Flags     ParamFlags
}

// Multiple reports whether the kind may have more than one track.
func (p ParamInfo) Multiple() bool { return p.Flags&ParamMultipleTracks != 0 }

// ParamTable is the immutable capability table for one node kind.
type ParamTable struct {
	kind    ir.NodeKind
	entries []ParamInfo
}

// NewParamTable builds a table. The entries are copied.
func NewParamTable(kind ir.NodeKind, entries ...ParamInfo) *ParamTable {
	return &ParamTable{kind: kind, entries: slices.Clone(entries)}
}

// NodeKind returns the node kind this table describes.
func (t *ParamTable) NodeKind() ir.NodeKind { return t.kind }

// Len returns the number of supported parameters.
func (t *ParamTable) Len() int { return len(t.entries) }

// Params returns a copy of the entries in declaration order.
func (t *ParamTable) Params() []ParamInfo { return slices.Clone(t.entries) }

// Lookup finds the entry for kind.
func (t *ParamTable) Lookup(kind ir.ParamKind) (ParamInfo, bool) {
	for _, e := range t.entries {
		if e.Kind == kind {
			return e, true
		}
	}
	return ParamInfo{}, false
}

// Tables holds the capability table of every node kind.
type Tables struct {
	Director *ParamTable
	Camera   *ParamTable
}

// For returns the table of kind, or nil.
func (t *Tables) For(kind ir.NodeKind) *ParamTable {
	switch kind {
	case ir.NodeDirector:
		return t.Director
	case ir.NodeCamera:
		return t.Camera
	default:
		return nil
	}
}

// NewTables builds the capability tables. Call once at startup and pass
// the result to node constructors.
func NewTables() *Tables {
	return &Tables{
		Director: NewParamTable(ir.NodeDirector,
			ParamInfo{Name: "Camera", Kind: ir.ParamCamera, ValueType: ir.ValueSelect, Flags: ParamDefault},
			ParamInfo{Name: "Event", Kind: ir.ParamEvent, ValueType: ir.ValueEvent},
			ParamInfo{Name: "Sound", Kind: ir.ParamSound, ValueType: ir.ValueSound, Flags: ParamMultipleTracks},
			ParamInfo{Name: "Sequence", Kind: ir.ParamSequence, ValueType: ir.ValueSequence},
			ParamInfo{Name: "Console", Kind: ir.ParamConsole, ValueType: ir.ValueConsole},
			ParamInfo{Name: "Music", Kind: ir.ParamMusic, ValueType: ir.ValueMusic},
			ParamInfo{Name: "GoTo", Kind: ir.ParamGoto, ValueType: ir.ValueDiscreteFloat},
			ParamInfo{Name: "Capture", Kind: ir.ParamCapture, ValueType: ir.ValueCapture},
			ParamInfo{Name: "Timewarp", Kind: ir.ParamTimeWarp, ValueType: ir.ValueFloat},
			ParamInfo{Name: "FixedTimeStep", Kind: ir.ParamFixedTimeStep, ValueType: ir.ValueFloat},
		),
		Camera: NewParamTable(ir.NodeCamera,
			ParamInfo{Name: "Position", Kind: ir.ParamPosition, ValueType: ir.ValueVector, Flags: ParamDefault},
			ParamInfo{Name: "Rotation", Kind: ir.ParamRotation, ValueType: ir.ValueQuat, Flags: ParamDefault},
			ParamInfo{Name: "FOV", Kind: ir.ParamFOV, ValueType: ir.ValueFloat, Flags: ParamDefault},
			ParamInfo{Name: "NearZ", Kind: ir.ParamNearZ, ValueType: ir.ValueFloat},
		),
	}
}
