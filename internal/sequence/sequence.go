package sequence

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/trackview/internal/director"
	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/node"
)

// Option configures a Sequence.
type Option func(*Sequence)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sequence) {
		if l != nil {
			s.log = l
		}
	}
}

// Sequence owns a set of nodes and evaluates them in insertion order.
type Sequence struct {
	name  string
	flags ir.SequenceFlags
	rng   ir.Range
	fixed float32
	time  float32

	nodes []node.Node
	byID  map[int]node.Node

	active bool
	log    *zap.Logger
}

// New creates an empty sequence spanning [0, 10].
func New(name string, opts ...Option) *Sequence {
	s := &Sequence{
		name: name,
		rng:  ir.Range{Start: 0, End: 10},
		byID: make(map[int]node.Node),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequence) Name() string                  { return s.name }
func (s *Sequence) SetName(name string)           { s.name = name }
func (s *Sequence) Flags() ir.SequenceFlags       { return s.flags }
func (s *Sequence) SetFlags(f ir.SequenceFlags)   { s.flags = f }
func (s *Sequence) TimeRange() ir.Range           { return s.rng }
func (s *Sequence) SetTimeRange(r ir.Range)       { s.rng = r }
func (s *Sequence) FixedTimeStep() float32        { return s.fixed }
func (s *Sequence) SetFixedTimeStep(step float32) { s.fixed = max(step, 0) }
func (s *Sequence) Time() float32                 { return s.time }

// Active reports whether Activate(true) was the last activation call.
func (s *Sequence) Active() bool { return s.active }

// AddNode appends n. Ids must be unique within the sequence.
func (s *Sequence) AddNode(n node.Node) error {
	if _, ok := s.byID[n.ID()]; ok {
		return &LoadError{
			Code:     ErrCodeDuplicateNode,
			Sequence: s.name,
			Message:  fmt.Sprintf("node id %d already used", n.ID()),
		}
	}
	s.nodes = append(s.nodes, n)
	s.byID[n.ID()] = n
	return nil
}

// CreateNode builds a node of kind through f, gives it the next free id
// and its default tracks, and adds it.
func (s *Sequence) CreateNode(f *Factory, kind ir.NodeKind, name string) (node.Node, error) {
	n, err := f.New(kind, s.NextID(), name)
	if err != nil {
		return nil, err
	}
	if err := n.Params().CreateDefaultTracks(); err != nil {
		return nil, err
	}
	if err := s.AddNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// NextID returns one more than the largest node id in use.
func (s *Sequence) NextID() int {
	next := 1
	for id := range s.byID {
		next = max(next, id+1)
	}
	return next
}

// RemoveNode removes the node with id. Children keep existing and become
// top-level nodes.
func (s *Sequence) RemoveNode(id int) bool {
	n, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	s.nodes = slices.DeleteFunc(s.nodes, func(x node.Node) bool { return x == n })
	for _, c := range s.nodes {
		if c.Params().ParentID() == id {
			c.Params().SetParentID(0)
		}
	}
	return true
}

// Node returns the node with id, or nil.
func (s *Sequence) Node(id int) node.Node { return s.byID[id] }

// Nodes returns the nodes in evaluation order.
func (s *Sequence) Nodes() []node.Node { return slices.Clone(s.nodes) }

// NumNodes returns the number of nodes.
func (s *Sequence) NumNodes() int { return len(s.nodes) }

// Parent resolves the parent of n, or nil when it has none or the parent
// was removed.
func (s *Sequence) Parent(n node.Node) node.Node {
	if pid := n.Params().ParentID(); pid != 0 {
		return s.byID[pid]
	}
	return nil
}

// Children returns the nodes whose parent is id.
func (s *Sequence) Children(id int) []node.Node {
	var out []node.Node
	for _, n := range s.nodes {
		if n.Params().ParentID() == id {
			out = append(out, n)
		}
	}
	return out
}

// FindNodeByName returns the node called name. Children of parentID are
// searched first, then every node. Names compare after NFC normalization.
func (s *Sequence) FindNodeByName(name string, parentID int) node.Node {
	want := norm.NFC.String(name)
	var global node.Node
	for _, n := range s.nodes {
		if norm.NFC.String(n.Name()) != want {
			continue
		}
		if parentID != 0 && n.Params().ParentID() == parentID {
			return n
		}
		if global == nil {
			global = n
		}
	}
	return global
}

// Directors returns the director nodes.
func (s *Sequence) Directors() []*director.Node {
	var out []*director.Node
	for _, n := range s.nodes {
		if d, ok := n.(*director.Node); ok {
			out = append(out, d)
		}
	}
	return out
}

// Animate evaluates every enabled node at ctx.Time. ctx.Sequence is set to
// s for the nodes.
func (s *Sequence) Animate(ctx movie.AnimContext) {
	ctx.Sequence = s
	s.time = ctx.Time
	for _, n := range s.nodes {
		if n.Params().Disabled() {
			continue
		}
		n.Animate(ctx)
	}
}

// Reset returns every node to a never-played state.
func (s *Sequence) Reset() {
	s.log.Debug("reset sequence", zap.String("sequence", s.name))
	for _, n := range s.nodes {
		n.Reset()
	}
	s.time = s.rng.Start
}

// Activate notifies every node that playback starts or ends.
func (s *Sequence) Activate(active bool) {
	s.active = active
	for _, n := range s.nodes {
		n.Activate(active)
	}
}

type stopper interface {
	Stop()
}

// Stop stops the sounds started by the sequence's nodes.
func (s *Sequence) Stop() {
	for _, n := range s.nodes {
		if st, ok := n.(stopper); ok {
			st.Stop()
		}
	}
}

var (
	_ movie.Sequence      = (*Sequence)(nil)
	_ director.NodeLookup = (*Sequence)(nil)
)
