package sequence

import (
	"fmt"
	"os"
	"slices"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/trackview/internal/movie"
)

// Library holds loaded sequences by name and resolves nested sequence
// references.
type Library struct {
	byName map[string]*Sequence
	order  []string
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{byName: make(map[string]*Sequence)}
}

// Add registers s under its name.
func (l *Library) Add(s *Sequence) error {
	key := norm.NFC.String(s.Name())
	if _, ok := l.byName[key]; ok {
		return &LoadError{
			Code:     ErrCodeDuplicateSequence,
			Sequence: s.Name(),
			Message:  "sequence name already registered",
		}
	}
	l.byName[key] = s
	l.order = append(l.order, key)
	return nil
}

// Get returns the sequence called name, or nil.
func (l *Library) Get(name string) *Sequence {
	return l.byName[norm.NFC.String(name)]
}

// FindSequence implements nested-sequence lookup. A missing name returns a
// nil interface.
func (l *Library) FindSequence(name string) movie.Sequence {
	if s := l.Get(name); s != nil {
		return s
	}
	return nil
}

// Sequences returns every sequence in the order added.
func (l *Library) Sequences() []*Sequence {
	out := make([]*Sequence, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, l.byName[k])
	}
	return out
}

// Names returns the registered names, sorted.
func (l *Library) Names() []string {
	names := slices.Clone(l.order)
	slices.Sort(names)
	return names
}

// LoadFile parses the sequence at path and adds it.
func (l *Library) LoadFile(path string, f *Factory, opts ...Option) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	s, err := Parse(data, f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := l.Add(s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
