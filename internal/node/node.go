package node

import (
	"fmt"
	"slices"
	"sync"

	"github.com/beevik/etree"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/track"
)

// Node is implemented by every node kind a sequence can hold.
type Node interface {
	ID() int
	Name() string
	Kind() ir.NodeKind

	// Params exposes the shared track container.
	Params() *ParamNode

	Animate(ctx movie.AnimContext)

	// Reset returns the node to a never-played state.
	Reset()

	// Activate is called when the owning sequence starts (true) or ends
	// (false) playing.
	Activate(active bool)

	Save(el *etree.Element)
	Load(el *etree.Element, allowEmpty bool) error
}

// ParamNode owns the tracks of one node.
type ParamNode struct {
	id       int
	name     string
	kind     ir.NodeKind
	flags    ir.NodeFlags
	parentID int
	table    *ParamTable
	tracks   []track.Track

	mu      sync.Mutex
	dynamic []ParamInfo
}

// NewParamNode creates an empty node. table must describe kind.
func NewParamNode(id int, name string, table *ParamTable) *ParamNode {
	if table == nil {
		panic("node: nil param table")
	}
	return &ParamNode{id: id, name: name, kind: table.NodeKind(), table: table}
}

func (n *ParamNode) ID() int                   { return n.id }
func (n *ParamNode) SetID(id int)              { n.id = id }
func (n *ParamNode) Name() string              { return n.name }
func (n *ParamNode) SetName(name string)       { n.name = name }
func (n *ParamNode) Kind() ir.NodeKind         { return n.kind }
func (n *ParamNode) Flags() ir.NodeFlags       { return n.flags }
func (n *ParamNode) SetFlags(f ir.NodeFlags)   { n.flags = f }
func (n *ParamNode) Table() *ParamTable        { return n.table }
func (n *ParamNode) Params() *ParamNode        { return n }
func (n *ParamNode) Disabled() bool            { return n.flags&ir.NodeDisabled != 0 }
func (n *ParamNode) NumTracks() int            { return len(n.tracks) }
func (n *ParamNode) TrackAt(i int) track.Track { return n.tracks[i] }

// ParentID returns the id of the parent node, or 0 for a root node.
func (n *ParamNode) ParentID() int { return n.parentID }

// SetParentID links the node under parent. Zero detaches it.
func (n *ParamNode) SetParentID(parent int) { n.parentID = parent }

// Tracks returns the tracks in insertion order.
func (n *ParamNode) Tracks() []track.Track { return slices.Clone(n.tracks) }

// Track returns the track at pt, or nil.
func (n *ParamNode) Track(pt ir.ParamType) track.Track {
	for _, t := range n.tracks {
		if t.ParamType() == pt {
			return t
		}
	}
	return nil
}

// TracksOfKind returns every track of kind, in insertion order.
func (n *ParamNode) TracksOfKind(kind ir.ParamKind) []track.Track {
	var out []track.Track
	for _, t := range n.tracks {
		if t.ParamType().Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// IsParamValid reports whether the node kind supports pt.
func (n *ParamNode) IsParamValid(pt ir.ParamType) bool {
	info, ok := n.table.Lookup(pt.Kind)
	if !ok {
		return false
	}
	return pt.Index == 0 || info.Multiple()
}

// CreateTrack creates and adds a track for kind. Repeatable kinds get the
// next free sub-index.
func (n *ParamNode) CreateTrack(kind ir.ParamKind) (track.Track, error) {
	info, ok := n.table.Lookup(kind)
	if !ok {
		return nil, &Error{Code: ErrCodeInvalidParam, Node: n.name,
			Message: fmt.Sprintf("%s nodes have no %s parameter", n.kind, kind)}
	}
	pt := ir.Param(kind)
	if info.Multiple() {
		for n.Track(pt) != nil {
			pt.Index++
		}
	}
	t, err := track.New(pt, info.ValueType)
	if err != nil {
		return nil, err
	}
	if err := n.AddTrack(t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddTrack adds an existing track. Its param type and value type must
// match the table, and the slot must be free.
func (n *ParamNode) AddTrack(t track.Track) error {
	pt := t.ParamType()
	if !n.IsParamValid(pt) {
		return &Error{Code: ErrCodeInvalidParam, Node: n.name,
			Message: fmt.Sprintf("%s nodes have no %s parameter", n.kind, pt)}
	}
	info, _ := n.table.Lookup(pt.Kind)
	if info.ValueType != t.ValueType() {
		return &Error{Code: ErrCodeInvalidParam, Node: n.name,
			Message: fmt.Sprintf("%s expects %s keys, got %s", pt, info.ValueType, t.ValueType())}
	}
	if n.Track(pt) != nil {
		return &Error{Code: ErrCodeDuplicateTrack, Node: n.name,
			Message: fmt.Sprintf("track %s already exists", pt)}
	}
	n.tracks = append(n.tracks, t)
	return nil
}

// RemoveTrack removes t. It reports whether t was found.
func (n *ParamNode) RemoveTrack(t track.Track) bool {
	i := slices.Index(n.tracks, t)
	if i < 0 {
		return false
	}
	n.tracks = slices.Delete(n.tracks, i, i+1)
	return true
}

// CreateDefaultTracks adds a track for every ParamDefault entry missing
// from the node.
func (n *ParamNode) CreateDefaultTracks() error {
	for _, info := range n.table.Params() {
		if info.Flags&ParamDefault == 0 || n.Track(ir.Param(info.Kind)) != nil {
			continue
		}
		if _, err := n.CreateTrack(info.Kind); err != nil {
			return err
		}
	}
	return nil
}

// IsTrackMasked reports whether mask suppresses t.
func IsTrackMasked(t track.Track, mask ir.TrackMask) bool {
	m := ir.MaskFor(t.ParamType().Kind)
	return m != 0 && mask&m != 0
}

// Animate calls fn for every track that is neither disabled nor masked by
// ctx.TrackMask.
func (n *ParamNode) Animate(ctx movie.AnimContext, fn func(track.Track)) {
	for _, t := range n.tracks {
		if t.Flags().Has(ir.TrackDisabled) || IsTrackMasked(t, ctx.TrackMask) {
			continue
		}
		fn(t)
	}
}

// ResetTracks drops the active-key cache of every track.
func (n *ParamNode) ResetTracks() {
	for _, t := range n.tracks {
		t.ResetActiveKey()
	}
}

// UpdateDynamicParams recomputes the parameters that can still be added:
// every repeatable kind plus every kind without a track.
func (n *ParamNode) UpdateDynamicParams() {
	var params []ParamInfo
	for _, info := range n.table.Params() {
		if info.Multiple() || n.Track(ir.Param(info.Kind)) == nil {
			params = append(params, info)
		}
	}
	n.mu.Lock()
	n.dynamic = params
	n.mu.Unlock()
}

// DynamicParams returns the list computed by the last UpdateDynamicParams.
func (n *ParamNode) DynamicParams() []ParamInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.dynamic)
}
