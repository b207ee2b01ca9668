package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a playback test scenario.
// A scenario loads sequence documents, sets up a world of entities, drives
// a player through a list of steps and asserts on the recorded effects.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sequences lists sequence XML documents to load.
	// Paths are relative to the scenario file location.
	Sequences []string `yaml:"sequences"`

	// Play names the sequence the player drives. Other loaded sequences
	// are reachable as nested sequences.
	Play string `yaml:"play"`

	// FPS is the player frame rate. Zero means playback.DefaultFPS.
	FPS float32 `yaml:"fps,omitempty"`

	// Loop wraps playback at the end of the range.
	Loop bool `yaml:"loop,omitempty"`

	// TrackMask suppresses track kinds (see ir.TrackMask).
	TrackMask uint32 `yaml:"track_mask,omitempty"`

	// Editor and Editing set the world's editor flags; Batch enables batch
	// render mode.
	Editor  bool `yaml:"editor,omitempty"`
	Editing bool `yaml:"editing,omitempty"`
	Batch   bool `yaml:"batch,omitempty"`

	// Entities populates the world.
	Entities []EntitySpec `yaml:"entities,omitempty"`

	// Steps drive the player, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state, final_camera, final_time.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run id. If empty, defaults to
	// testutil.DefaultRunID so golden files stay byte-identical.
	RunID string `yaml:"run_id,omitempty"`
}

// EntitySpec declares a world entity.
type EntitySpec struct {
	ID       uint32      `yaml:"id"`
	Name     string      `yaml:"name"`
	Parent   string      `yaml:"parent,omitempty"`
	Position []float32   `yaml:"position,omitempty"`
	Camera   *CameraSpec `yaml:"camera,omitempty"`
}

// CameraSpec gives an entity a camera. FOV is in degrees.
type CameraSpec struct {
	FOV   float32 `yaml:"fov"`
	NearZ float32 `yaml:"near_z,omitempty"`
}

// Step is one player action.
type Step struct {
	// Action is one of the Step* constants.
	Action string `yaml:"action"`

	// Time is the start time for play and the sample time for scrub.
	Time float32 `yaml:"time,omitempty"`

	// Frames bounds tick (default 1) and run (default unbounded).
	Frames int `yaml:"frames,omitempty"`

	// Camera is the override camera name; empty clears the override.
	Camera string `yaml:"camera,omitempty"`
}

// Step actions.
const (
	StepPlay     = "play"
	StepTick     = "tick"
	StepRun      = "run"
	StepScrub    = "scrub"
	StepOverride = "override"
	StepStop     = "stop"
	StepReset    = "reset"
)

// EffectMatch selects recorded effects. Empty Target and Value match
// anything; At, when set, must equal the effect time in seconds.
type EffectMatch struct {
	Kind   string   `yaml:"kind,omitempty"`
	Target string   `yaml:"target,omitempty"`
	Value  string   `yaml:"value,omitempty"`
	At     *float32 `yaml:"at,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an effect matching the inline match exists
	// - "trace_order": the Effects matches appear in order
	// - "trace_count": the inline match matches exactly Count effects
	// - "final_state": query a store table and verify expected values
	// - "final_camera": the active camera after the last step
	// - "final_time": the player time after the last step
	Type string `yaml:"type"`

	EffectMatch `yaml:",inline"`

	// Count is the expected number of matches (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Effects is the expected order (used by trace_order).
	Effects []EffectMatch `yaml:"effects,omitempty"`

	// Table is the store table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Camera is the expected camera name (used by final_camera).
	Camera string `yaml:"camera,omitempty"`

	// Time is the expected player time (used by final_time).
	Time *float32 `yaml:"time,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertFinalCamera   = "final_camera"
	AssertFinalTime     = "final_time"
)

// LoadScenario reads, schema-checks and parses a scenario YAML file.
// Sequence paths are resolved relative to the file's directory.
// Returns an error if the file doesn't exist, violates the scenario
// schema, contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	if err := ValidateScenario(path, data); err != nil {
		return nil, err
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario decodes a scenario document, resolving relative sequence
// paths against basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve sequence paths relative to base path BEFORE validation
	for i, p := range scenario.Sequences {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Sequences[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Sequences) == 0 {
		return fmt.Errorf("sequences list is required and must be non-empty")
	}

	if s.Play == "" {
		return fmt.Errorf("play is required")
	}

	if s.FPS < 0 {
		return fmt.Errorf("fps must be positive")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range s.Sequences {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("sequence file not found: %s", p)
		}
	}

	if err := validateEntities(s.Entities); err != nil {
		return err
	}

	for i, step := range s.Steps {
		switch step.Action {
		case StepPlay, StepRun, StepStop, StepReset, StepOverride, StepScrub:
		case StepTick:
			if step.Frames < 0 {
				return fmt.Errorf("steps[%d]: frames must be non-negative", i)
			}
		case "":
			return fmt.Errorf("steps[%d]: action is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Effects) == 0 {
			return fmt.Errorf("assertions[%d]: effects list is required for trace_order", index)
		}
		for j, m := range a.Effects {
			if m.Kind == "" {
				return fmt.Errorf("assertions[%d].effects[%d]: kind is required", index, j)
			}
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertFinalCamera:
	case AssertFinalTime:
		if a.Time == nil {
			return fmt.Errorf("assertions[%d]: time is required for final_time", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
