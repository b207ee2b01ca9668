package director

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/node"
	"github.com/roach88/trackview/internal/track"
)

type fakeCamera struct{ fov, nearZ float32 }

func (c *fakeCamera) FOV() float32       { return c.fov }
func (c *fakeCamera) NearZ() float32     { return c.nearZ }
func (c *fakeCamera) SetFOV(v float32)   { c.fov = v }
func (c *fakeCamera) SetNearZ(v float32) { c.nearZ = v }

type fakeEntity struct {
	id   ir.EntityID
	name string
	pos  mgl32.Vec3
	rot  mgl32.Quat
	cam  *fakeCamera
}

func (e *fakeEntity) ID() ir.EntityID          { return e.id }
func (e *fakeEntity) Name() string             { return e.name }
func (e *fakeEntity) Parent() movie.Entity     { return nil }
func (e *fakeEntity) Position() mgl32.Vec3     { return e.pos }
func (e *fakeEntity) SetPosition(p mgl32.Vec3) { e.pos = p }
func (e *fakeEntity) Rotation() mgl32.Quat     { return e.rot }
func (e *fakeEntity) SetRotation(q mgl32.Quat) { e.rot = q }

func (e *fakeEntity) Camera() (movie.Camera, bool) {
	if e.cam == nil {
		return nil, false
	}
	return e.cam, true
}

type fakeSequence struct {
	name     string
	flags    ir.SequenceFlags
	rng      ir.Range
	fixed    float32
	time     float32
	animated []float32
	nodes    []node.Node
}

func (s *fakeSequence) Name() string            { return s.name }
func (s *fakeSequence) Flags() ir.SequenceFlags { return s.flags }
func (s *fakeSequence) TimeRange() ir.Range     { return s.rng }
func (s *fakeSequence) FixedTimeStep() float32  { return s.fixed }
func (s *fakeSequence) Time() float32           { return s.time }

func (s *fakeSequence) Animate(ctx movie.AnimContext) {
	s.time = ctx.Time
	s.animated = append(s.animated, ctx.Time)
}

func (s *fakeSequence) FindNodeByName(name string, _ int) node.Node {
	for _, n := range s.nodes {
		if n.Name() == name {
			return n
		}
	}
	return nil
}

// world implements every collaborator and records the calls it receives.
type world struct {
	calls    []string
	entities []*fakeEntity
	seqs     map[string]*fakeSequence
	playing  map[string]bool

	params    ir.CameraParams
	setParams int
	override  string

	editor, editing, batch bool

	timeScale float32
	fixedStep float32

	blends   []float32
	restores []string
}

func newWorld() *world {
	return &world{
		seqs:      make(map[string]*fakeSequence),
		playing:   make(map[string]bool),
		timeScale: 1,
	}
}

func (w *world) services() movie.Services {
	return movie.Services{Movie: w, Entities: w, Console: w, Events: w, Audio: w, Time: w}
}

func (w *world) addCamera(id ir.EntityID, name string, pos mgl32.Vec3, fov float32) *fakeEntity {
	e := &fakeEntity{id: id, name: name, pos: pos, rot: mgl32.QuatIdent(), cam: &fakeCamera{fov: fov, nearZ: 0.25}}
	w.entities = append(w.entities, e)
	return e
}

func (w *world) record(format string, args ...any) {
	w.calls = append(w.calls, fmt.Sprintf(format, args...))
}

func (w *world) FindSequence(name string) movie.Sequence {
	if s, ok := w.seqs[name]; ok {
		return s
	}
	return nil
}

func (w *world) IsPlaying(seq movie.Sequence) bool { return w.playing[seq.Name()] }

func (w *world) StopSequence(name string) bool {
	w.record("stop_sequence %s", name)
	return true
}

func (w *world) GoToFrame(seq string, t float32) { w.record("goto %s %g", seq, t) }

func (w *world) StartCapture(key track.CaptureKey) { w.record("capture_start %g", key.Time) }
func (w *world) EndCapture()                       { w.record("capture_end") }
func (w *world) IsInBatchRenderMode() bool         { return w.batch }
func (w *world) OverrideCameraName() string        { return w.override }
func (w *world) CameraParams() ir.CameraParams     { return w.params }

func (w *world) SetCameraParams(p ir.CameraParams) {
	w.params = p
	w.setParams++
}

func (w *world) IsEditor() bool  { return w.editor }
func (w *world) IsEditing() bool { return w.editing }

func (w *world) FindByName(name string) movie.Entity {
	for _, e := range w.entities {
		if e.name == name {
			return e
		}
	}
	return nil
}

func (w *world) FindByID(id ir.EntityID) movie.Entity {
	for _, e := range w.entities {
		if e.id == id {
			return e
		}
	}
	return nil
}

func (w *world) Execute(cmd string)            { w.record("console %s", cmd) }
func (w *world) Broadcast(event, value string) { w.record("event %s=%s", event, value) }
func (w *world) ExecuteTrigger(name string)    { w.record("trigger %s", name) }
func (w *world) StopTrigger(name string)       { w.record("stop_trigger %s", name) }
func (w *world) SetMusicMood(mood string)      { w.record("music %s", mood) }

func (w *world) SetTimeScale(s float32) { w.timeScale = s }
func (w *world) FixedStep() float32     { return w.fixedStep }
func (w *world) SetFixedStep(s float32) { w.fixedStep = s }

func (w *world) CameraBlend(_, _ string, t float32) { w.blends = append(w.blends, t) }
func (w *world) CameraRestore(name string)          { w.restores = append(w.restores, name) }
