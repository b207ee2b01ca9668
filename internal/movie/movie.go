// Package movie declares the collaborators the animation engine talks to.
//
// The engine never reaches into a world, an audio mixer, or a console
// directly. Everything outside the timeline is reached through the
// interfaces below, bundled in Services and handed to nodes when a
// sequence is built. internal/playback provides recording implementations.
package movie

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/track"
)

// AnimContext is the per-frame evaluation context.
type AnimContext struct {
	// Time is the sequence-local time being evaluated.
	Time float32

	// StartTime is where playback of the sequence began.
	StartTime float32

	// Resetting is set while the sequence is being reset; nodes do nothing.
	Resetting bool

	// SingleFrame marks an editor scrub: one isolated evaluation.
	SingleFrame bool

	// TrackMask suppresses track kinds for this frame.
	TrackMask ir.TrackMask

	// Sequence is the sequence that owns the node being evaluated.
	Sequence Sequence
}

// Sequence is the view of an animation sequence the engine needs.
type Sequence interface {
	Name() string
	Flags() ir.SequenceFlags
	TimeRange() ir.Range
	FixedTimeStep() float32

	// Time is the time of the last Animate call.
	Time() float32
	Animate(ctx AnimContext)
}

// MovieSystem is the top-level playback manager.
type MovieSystem interface {
	FindSequence(name string) Sequence
	IsPlaying(seq Sequence) bool
	StopSequence(name string) bool
	GoToFrame(seqName string, time float32)

	StartCapture(key track.CaptureKey)
	EndCapture()
	IsInBatchRenderMode() bool

	// OverrideCameraName returns a camera forced from outside (console or
	// debug tools). A decimal string is an entity id, anything else a name.
	OverrideCameraName() string
	CameraParams() ir.CameraParams
	SetCameraParams(ir.CameraParams)

	// IsEditor reports an editor host; IsEditing that the editor is not
	// in game mode.
	IsEditor() bool
	IsEditing() bool
}

// BlendObserver may be implemented by a MovieSystem that wants to hear
// about camera blends. The director checks for it with a type assertion.
type BlendObserver interface {
	// CameraBlend reports one blended frame from camera from towards to,
	// with eased factor t in [0,1].
	CameraBlend(from, to string, t float32)

	// CameraRestore reports that name was put back to its pre-blend state.
	CameraRestore(name string)
}

// Entity is a world object with a transform. Position and Rotation are
// parent-relative; with no parent they are world space.
type Entity interface {
	ID() ir.EntityID
	Name() string
	Parent() Entity

	Position() mgl32.Vec3
	SetPosition(mgl32.Vec3)
	Rotation() mgl32.Quat
	SetRotation(mgl32.Quat)

	// Camera returns the entity's camera component, if it has one.
	Camera() (Camera, bool)
}

// Camera is a camera component. FOV is in degrees.
type Camera interface {
	FOV() float32
	NearZ() float32
	SetFOV(float32)
	SetNearZ(float32)
}

// EntitySystem looks entities up.
type EntitySystem interface {
	FindByName(name string) Entity
	FindByID(id ir.EntityID) Entity
}

// Console executes console commands.
type Console interface {
	Execute(command string)
}

// EventBus broadcasts track events to game code.
type EventBus interface {
	Broadcast(event, value string)
}

// Audio starts and stops audio triggers.
type Audio interface {
	ExecuteTrigger(name string)
	StopTrigger(name string)
	SetMusicMood(mood string)
}

// TimeControl is the game timer: variable time scale and fixed step.
type TimeControl interface {
	SetTimeScale(scale float32)
	FixedStep() float32
	SetFixedStep(step float32)
}

// Services bundles every collaborator. All fields are required.
type Services struct {
	Movie    MovieSystem
	Entities EntitySystem
	Console  Console
	Events   EventBus
	Audio    Audio
	Time     TimeControl
}
