package playback

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/track"
)

// SequenceFinder resolves sequence names. sequence.Library implements it.
type SequenceFinder interface {
	FindSequence(name string) movie.Sequence
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) WorldOption {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

// WithFinder sets the sequence finder used for nested sequences.
func WithFinder(f SequenceFinder) WorldOption {
	return func(w *World) { w.finder = f }
}

// World implements every movie collaborator and records their effects.
type World struct {
	rec    *Recorder
	log    *zap.Logger
	finder SequenceFinder

	entities []*Entity
	byID     map[ir.EntityID]*Entity
	byName   map[string]*Entity

	nested  map[string]*nestedSequence
	playing map[string]bool
	gotos   map[string]float32

	params   ir.CameraParams
	override string

	editor, editing, batch bool

	timeScale float32
	fixedStep float32
	mood      string
}

// NewWorld creates an empty world recording into rec.
func NewWorld(rec *Recorder, opts ...WorldOption) *World {
	if rec == nil {
		panic("playback: nil recorder")
	}
	w := &World{
		rec:       rec,
		log:       zap.NewNop(),
		byID:      make(map[ir.EntityID]*Entity),
		byName:    make(map[string]*Entity),
		nested:    make(map[string]*nestedSequence),
		playing:   make(map[string]bool),
		gotos:     make(map[string]float32),
		timeScale: 1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Services bundles w as every collaborator.
func (w *World) Services() movie.Services {
	return movie.Services{Movie: w, Entities: w, Console: w, Events: w, Audio: w, Time: w}
}

// Recorder returns the recorder effects go to.
func (w *World) Recorder() *Recorder { return w.rec }

// SetFinder replaces the sequence finder.
func (w *World) SetFinder(f SequenceFinder) { w.finder = f }

// AddEntity registers e. Ids must be valid and unique.
func (w *World) AddEntity(e *Entity) error {
	if !e.ID().Valid() {
		return fmt.Errorf("entity %q: id must be nonzero", e.Name())
	}
	if _, ok := w.byID[e.ID()]; ok {
		return fmt.Errorf("entity %q: id %d already used", e.Name(), e.ID())
	}
	w.entities = append(w.entities, e)
	w.byID[e.ID()] = e
	if _, ok := w.byName[e.Name()]; !ok {
		w.byName[e.Name()] = e
	}
	return nil
}

// Entity returns the registered entity called name, or nil.
func (w *World) Entity(name string) *Entity { return w.byName[name] }

func (w *World) FindByName(name string) movie.Entity {
	if e, ok := w.byName[name]; ok {
		return e
	}
	return nil
}

func (w *World) FindByID(id ir.EntityID) movie.Entity {
	if e, ok := w.byID[id]; ok {
		return e
	}
	return nil
}

// SetEditor sets the editor host flags.
func (w *World) SetEditor(editor, editing bool) { w.editor, w.editing = editor, editing }

// SetBatchRender toggles batch-render mode.
func (w *World) SetBatchRender(on bool) { w.batch = on }

// SetOverrideCamera forces a camera by name or decimal entity id. An
// empty string clears the override.
func (w *World) SetOverrideCamera(name string) { w.override = name }

// SetPlaying marks a sequence as played by the movie system.
func (w *World) SetPlaying(name string, playing bool) {
	if playing {
		w.playing[name] = true
	} else {
		delete(w.playing, name)
	}
}

// TakeGoto returns and clears a pending frame jump for seq.
func (w *World) TakeGoto(seq string) (float32, bool) {
	t, ok := w.gotos[seq]
	delete(w.gotos, seq)
	return t, ok
}

// FindSequence resolves name through the finder. The result records an
// effect every time the director animates it.
func (w *World) FindSequence(name string) movie.Sequence {
	if w.finder == nil {
		return nil
	}
	seq := w.finder.FindSequence(name)
	if seq == nil {
		return nil
	}
	ns, ok := w.nested[name]
	if !ok || ns.Sequence != seq {
		ns = &nestedSequence{Sequence: seq, rec: w.rec}
		w.nested[name] = ns
	}
	return ns
}

func (w *World) IsPlaying(seq movie.Sequence) bool { return w.playing[seq.Name()] }

func (w *World) StopSequence(name string) bool {
	w.rec.Record(ir.EffectSequenceStop, name, "")
	delete(w.playing, name)
	return w.finder != nil && w.finder.FindSequence(name) != nil
}

func (w *World) GoToFrame(seq string, t float32) {
	w.rec.Record(ir.EffectGoto, seq, ir.FormatScalar(t))
	w.gotos[seq] = t
}

func (w *World) StartCapture(key track.CaptureKey) {
	w.rec.Record(ir.EffectCaptureStart, key.Folder+"/"+key.Prefix, ir.FormatScalars(key.Length, key.TimeStep))
}

func (w *World) EndCapture() { w.rec.Record(ir.EffectCaptureEnd, "", "") }

func (w *World) IsInBatchRenderMode() bool     { return w.batch }
func (w *World) OverrideCameraName() string    { return w.override }
func (w *World) CameraParams() ir.CameraParams { return w.params }

// SetCameraParams publishes the active camera. Directors publish every
// frame, so only changes are recorded. The effect target is the entity
// name, "#<id>" for an unknown id, and empty for no camera. FOV is
// recorded in degrees.
func (w *World) SetCameraParams(p ir.CameraParams) {
	if p == w.params {
		return
	}
	w.params = p
	target := ""
	if p.EntityID.Valid() {
		if e, ok := w.byID[p.EntityID]; ok {
			target = e.Name()
		} else {
			target = "#" + strconv.FormatUint(uint64(p.EntityID), 10)
		}
	}
	value := ir.FormatScalars(mgl32.RadToDeg(p.FOV), p.NearZ)
	if p.JustActivated {
		value += ",cut"
	}
	w.rec.Record(ir.EffectCamera, target, value)
}

func (w *World) IsEditor() bool  { return w.editor }
func (w *World) IsEditing() bool { return w.editing }

func (w *World) Execute(command string) { w.rec.Record(ir.EffectConsole, command, "") }

func (w *World) Broadcast(event, value string) { w.rec.Record(ir.EffectEvent, event, value) }

func (w *World) ExecuteTrigger(name string) { w.rec.Record(ir.EffectSoundStart, name, "") }
func (w *World) StopTrigger(name string)    { w.rec.Record(ir.EffectSoundStop, name, "") }

func (w *World) SetMusicMood(mood string) {
	w.mood = mood
	w.rec.Record(ir.EffectMusic, mood, "")
}

// MusicMood returns the last mood set.
func (w *World) MusicMood() string { return w.mood }

// TimeScale returns the current time scale.
func (w *World) TimeScale() float32 { return w.timeScale }

// SetTimeScale records only changes. Warp tracks set the scale every
// frame.
func (w *World) SetTimeScale(s float32) {
	if s == w.timeScale {
		return
	}
	w.timeScale = s
	w.rec.Record(ir.EffectTimeScale, "", ir.FormatScalar(s))
}

func (w *World) FixedStep() float32 { return w.fixedStep }

func (w *World) SetFixedStep(s float32) {
	if s == w.fixedStep {
		return
	}
	w.fixedStep = s
	w.rec.Record(ir.EffectFixedStep, "", ir.FormatScalar(s))
}

func (w *World) CameraBlend(from, to string, t float32) {
	w.rec.Record(ir.EffectCameraBlend, from+">"+to, ir.FormatScalar(t))
}

func (w *World) CameraRestore(name string) { w.rec.Record(ir.EffectCameraRestore, name, "") }

// nestedSequence records every nested evaluation.
type nestedSequence struct {
	movie.Sequence
	rec *Recorder
}

func (n *nestedSequence) Animate(ctx movie.AnimContext) {
	n.rec.Record(ir.EffectSequence, n.Name(), ir.FormatScalar(ctx.Time))
	n.Sequence.Animate(ctx)
}

var (
	_ movie.MovieSystem   = (*World)(nil)
	_ movie.EntitySystem  = (*World)(nil)
	_ movie.Console       = (*World)(nil)
	_ movie.EventBus      = (*World)(nil)
	_ movie.Audio         = (*World)(nil)
	_ movie.TimeControl   = (*World)(nil)
	_ movie.BlendObserver = (*World)(nil)
)
