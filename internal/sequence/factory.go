package sequence

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/director"
	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/node"
)

// Constructor builds an empty node of one kind.
type Constructor func(id int, name string) node.Node

// Factory maps node kinds to constructors.
type Factory struct {
	tables *node.Tables
	ctors  map[ir.NodeKind]Constructor
}

// NewFactory registers the director and camera kinds. Both are bound to
// svc, which must be complete.
func NewFactory(tables *node.Tables, svc movie.Services, log *zap.Logger) *Factory {
	if tables == nil {
		panic("sequence: nil tables")
	}
	if log == nil {
		log = zap.NewNop()
	}
	f := &Factory{tables: tables, ctors: make(map[ir.NodeKind]Constructor)}
	f.Register(ir.NodeDirector, func(id int, name string) node.Node {
		return director.New(id, name, tables.Director, svc,
			director.WithLogger(log.With(zap.String("director", name))))
	})
	f.Register(ir.NodeCamera, func(id int, name string) node.Node {
		return node.NewCameraNode(id, name, tables.Camera, svc.Entities)
	})
	return f
}

// Register binds kind to ctor, replacing any previous constructor.
func (f *Factory) Register(kind ir.NodeKind, ctor Constructor) {
	f.ctors[kind] = ctor
}

// Tables returns the capability tables the factory was built with.
func (f *Factory) Tables() *node.Tables { return f.tables }

// Kinds lists the registered node kinds in name order.
func (f *Factory) Kinds() []ir.NodeKind {
	kinds := make([]ir.NodeKind, 0, len(f.ctors))
	for k := range f.ctors {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// New creates a node of kind.
func (f *Factory) New(kind ir.NodeKind, id int, name string) (node.Node, error) {
	ctor, ok := f.ctors[kind]
	if !ok {
		return nil, &LoadError{
			Code:    ErrCodeUnknownNodeType,
			Message: fmt.Sprintf("no constructor for node type %q", kind),
		}
	}
	return ctor(id, name), nil
}
