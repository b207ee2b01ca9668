package node

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/track"
)

// Save writes the node header attributes and one <Track> child per track
// into el.
func (n *ParamNode) Save(el *etree.Element) {
	el.CreateAttr("Id", strconv.Itoa(n.id))
	el.CreateAttr("Name", n.name)
	el.CreateAttr("Type", string(n.kind))
	el.CreateAttr("Flags", strconv.FormatUint(uint64(n.flags), 10))
	if n.parentID != 0 {
		el.CreateAttr("ParentId", strconv.Itoa(n.parentID))
	}
	for _, t := range n.tracks {
		tel := el.CreateElement("Track")
		pt := t.ParamType()
		tel.CreateAttr("ParamType", pt.Kind.String())
		if pt.Index != 0 {
			tel.CreateAttr("Index", strconv.Itoa(pt.Index))
		}
		tel.CreateAttr("ValueType", t.ValueType().String())
		t.Save(tel)
	}
}

// Load replaces the node's header and tracks with the contents of el.
// Tracks that declare no keys are dropped unless allowEmpty is set.
func (n *ParamNode) Load(el *etree.Element, allowEmpty bool) error {
	if kind := el.SelectAttrValue("Type", string(n.kind)); ir.NodeKind(kind) != n.kind {
		return n.bad("node type %q does not match %s", kind, n.kind)
	}
	id, err := intAttr(el, "Id", n.id)
	if err != nil {
		return n.bad("%v", err)
	}
	parent, err := intAttr(el, "ParentId", 0)
	if err != nil {
		return n.bad("%v", err)
	}
	flags, err := intAttr(el, "Flags", 0)
	if err != nil {
		return n.bad("%v", err)
	}

	// AddTrack validates against the node itself; roll back on error.
	oldID, oldName, oldParent, oldFlags, oldTracks := n.id, n.name, n.parentID, n.flags, n.tracks
	n.id = id
	n.name = el.SelectAttrValue("Name", n.name)
	n.parentID = parent
	n.flags = ir.NodeFlags(flags)
	n.tracks = nil
	if err := n.loadTracks(el, allowEmpty); err != nil {
		n.id, n.name, n.parentID, n.flags, n.tracks = oldID, oldName, oldParent, oldFlags, oldTracks
		return err
	}
	return nil
}

func (n *ParamNode) loadTracks(el *etree.Element, allowEmpty bool) error {
	for _, tel := range el.ChildElements() {
		if tel.Tag != "Track" {
			continue
		}
		t, err := n.loadTrack(tel, allowEmpty)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.name, err)
		}
		if t == nil {
			continue
		}
		if err := n.AddTrack(t); err != nil {
			return err
		}
	}
	return nil
}

func (n *ParamNode) loadTrack(tel *etree.Element, allowEmpty bool) (track.Track, error) {
	kind, err := ir.ParseParamKind(tel.SelectAttrValue("ParamType", ""))
	if err != nil {
		return nil, &Error{Code: ErrCodeBadNode, Node: n.name, Message: err.Error()}
	}
	info, ok := n.table.Lookup(kind)
	if !ok {
		return nil, &Error{Code: ErrCodeInvalidParam, Node: n.name,
			Message: fmt.Sprintf("%s nodes have no %s parameter", n.kind, kind)}
	}
	index, err := intAttr(tel, "Index", 0)
	if err != nil {
		return nil, &Error{Code: ErrCodeBadNode, Node: n.name, Message: err.Error()}
	}
	vt := info.ValueType
	if s := tel.SelectAttrValue("ValueType", ""); s != "" {
		if vt, err = ir.ParseValueType(s); err != nil {
			return nil, &Error{Code: ErrCodeBadNode, Node: n.name, Message: err.Error()}
		}
	}
	t, err := track.New(ir.ParamType{Kind: kind, Index: index}, vt)
	if err != nil {
		return nil, err
	}
	ok, err = t.Load(tel, allowEmpty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (n *ParamNode) bad(format string, args ...any) error {
	return &Error{Code: ErrCodeBadNode, Node: n.name, Message: fmt.Sprintf(format, args...)}
}

func intAttr(el *etree.Element, name string, dflt int) (int, error) {
	a := el.SelectAttr(name)
	if a == nil {
		return dflt, nil
	}
	v, err := strconv.Atoi(a.Value)
	if err != nil {
		return dflt, fmt.Errorf("attribute %s: %w", name, err)
	}
	return v, nil
}
