package harness

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/playback"
)

// WorldSpec is a standalone entity list. Commands that play sequences
// outside a scenario read their world from one.
type WorldSpec struct {
	Entities []EntitySpec `yaml:"entities"`
}

// LoadWorld reads and validates a world document.
func LoadWorld(path string) ([]EntitySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}
	var spec WorldSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to parse world YAML: %w", err)
	}
	if err := validateEntities(spec.Entities); err != nil {
		return nil, fmt.Errorf("invalid world: %w", err)
	}
	return spec.Entities, nil
}

// BuildEntities adds specs to w. Parents are linked once every entity
// exists, so declaration order does not matter.
func BuildEntities(w *playback.World, specs []EntitySpec) error {
	for _, spec := range specs {
		e := playback.NewEntity(ir.EntityID(spec.ID), spec.Name)
		if len(spec.Position) == 3 {
			e.SetPosition(mgl32.Vec3{spec.Position[0], spec.Position[1], spec.Position[2]})
		}
		if spec.Camera != nil {
			nearZ := spec.Camera.NearZ
			if nearZ == 0 {
				nearZ = playback.DefaultNearZ
			}
			e.WithCamera(playback.NewCamera(spec.Camera.FOV, nearZ))
		}
		if err := w.AddEntity(e); err != nil {
			return err
		}
	}
	for _, spec := range specs {
		if spec.Parent == "" {
			continue
		}
		parent := w.Entity(spec.Parent)
		if parent == nil {
			return fmt.Errorf("entity %q: unknown parent %q", spec.Name, spec.Parent)
		}
		w.Entity(spec.Name).SetParent(parent)
	}
	return nil
}

func validateEntities(specs []EntitySpec) error {
	names := make(map[string]bool, len(specs))
	for i, e := range specs {
		if e.ID == 0 {
			return fmt.Errorf("entities[%d]: id must be nonzero", i)
		}
		if e.Name == "" {
			return fmt.Errorf("entities[%d]: name is required", i)
		}
		if e.Position != nil && len(e.Position) != 3 {
			return fmt.Errorf("entities[%d]: position needs 3 components", i)
		}
		names[e.Name] = true
	}
	for i, e := range specs {
		if e.Parent != "" && !names[e.Parent] {
			return fmt.Errorf("entities[%d]: unknown parent %q", i, e.Parent)
		}
	}
	return nil
}
