package sequence

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/node"
)

// Save writes the sequence header and every node into el.
func (s *Sequence) Save(el *etree.Element) {
	el.CreateAttr("Name", s.name)
	el.CreateAttr("Flags", strconv.FormatUint(uint64(s.flags), 10))
	el.CreateAttr("StartTime", formatFloat(s.rng.Start))
	el.CreateAttr("EndTime", formatFloat(s.rng.End))
	if s.fixed != 0 {
		el.CreateAttr("FixedTimeStep", formatFloat(s.fixed))
	}
	nodes := el.CreateElement("Nodes")
	for _, n := range s.nodes {
		n.Save(nodes.CreateElement("Node"))
	}
}

// Load replaces the sequence's header and nodes with the contents of el.
// Nodes are built through f. Tracks without keys are dropped.
func (s *Sequence) Load(el *etree.Element, f *Factory) error {
	if el.Tag != "Sequence" {
		return s.bad(nil, "root element is <%s>, want <Sequence>", el.Tag)
	}
	name := el.SelectAttrValue("Name", s.name)
	flags, err := strconv.ParseUint(el.SelectAttrValue("Flags", "0"), 10, 32)
	if err != nil {
		return s.bad(err, "attribute Flags")
	}
	start, err := floatAttr(el, "StartTime", 0)
	if err != nil {
		return s.bad(err, "attribute StartTime")
	}
	end, err := floatAttr(el, "EndTime", 10)
	if err != nil {
		return s.bad(err, "attribute EndTime")
	}
	fixed, err := floatAttr(el, "FixedTimeStep", 0)
	if err != nil {
		return s.bad(err, "attribute FixedTimeStep")
	}

	saved := *s
	s.name = name
	s.flags = ir.SequenceFlags(flags)
	s.rng = ir.Range{Start: start, End: end}
	s.SetFixedTimeStep(fixed)
	s.nodes = nil
	s.byID = make(map[int]node.Node)
	if err := s.loadNodes(el, f); err != nil {
		*s = saved
		return err
	}
	return nil
}

func (s *Sequence) loadNodes(el *etree.Element, f *Factory) error {
	nodes := el.SelectElement("Nodes")
	if nodes == nil {
		return nil
	}
	for _, nel := range nodes.SelectElements("Node") {
		kind := ir.NodeKind(nel.SelectAttrValue("Type", ""))
		id, err := strconv.Atoi(nel.SelectAttrValue("Id", "0"))
		if err != nil {
			return s.bad(err, "node attribute Id")
		}
		n, err := f.New(kind, id, nel.SelectAttrValue("Name", ""))
		if err != nil {
			return fmt.Errorf("sequence %s: %w", s.name, err)
		}
		if err := n.Load(nel, false); err != nil {
			return fmt.Errorf("sequence %s: %w", s.name, err)
		}
		if err := s.AddNode(n); err != nil {
			return err
		}
	}
	return nil
}

// Marshal renders s as an indented XML document.
func Marshal(s *Sequence) ([]byte, error) {
	doc := etree.NewDocument()
	s.Save(doc.CreateElement("Sequence"))
	doc.Indent(2)
	return doc.WriteToBytes()
}

// Parse builds a sequence from an XML document.
func Parse(data []byte, f *Factory, opts ...Option) (*Sequence, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &LoadError{Code: ErrCodeBadDocument, Message: "invalid XML", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &LoadError{Code: ErrCodeBadDocument, Message: "empty document"}
	}
	s := New("", opts...)
	if err := s.Load(root, f); err != nil {
		return nil, err
	}
	return s, nil
}

// Hash returns the content hash of the marshaled sequence.
func Hash(s *Sequence) (string, error) {
	data, err := Marshal(s)
	if err != nil {
		return "", fmt.Errorf("Hash: failed to marshal: %w", err)
	}
	return ir.SequenceHash(data), nil
}

func (s *Sequence) bad(err error, format string, args ...any) error {
	return &LoadError{
		Code:     ErrCodeBadDocument,
		Sequence: s.name,
		Message:  fmt.Sprintf(format, args...),
		Err:      err,
	}
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func floatAttr(el *etree.Element, name string, dflt float32) (float32, error) {
	a := el.SelectAttr(name)
	if a == nil {
		return dflt, nil
	}
	v, err := strconv.ParseFloat(a.Value, 32)
	if err != nil {
		return dflt, err
	}
	return float32(v), nil
}
