package director

import (
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/node"
	"github.com/roach88/trackview/internal/track"
)

// NodeLookup is implemented by sequences that resolve node names. The
// director uses it to find animated camera nodes.
type NodeLookup interface {
	// FindNodeByName searches the children of parentID first, then every
	// node of the sequence.
	FindNodeByName(name string, parentID int) node.Node
}

// Option configures a Node.
type Option func(*Node)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *Node) {
		if l != nil {
			d.log = l
		}
	}
}

// Node is the director node.
type Node struct {
	*node.ParamNode
	svc movie.Services
	log *zap.Logger

	lastCameraKey   int
	lastEventKey    int
	lastConsoleKey  int
	lastMusicKey    int
	lastSequenceKey int
	lastGotoKey     int
	lastCaptureKey  int
	captureEnded    bool

	// Active select key index of the current frame.
	currentSelectKey int

	// Entity last published as the active camera.
	currentCamera ir.EntityID

	blendCache map[int]cameraStartState
	held       *node.CameraNode
	live       int // scene cameras acquired and not yet released

	sounds []soundState
}

// New creates a director node. Every field of svc must be set.
func New(id int, name string, table *node.ParamTable, svc movie.Services, opts ...Option) *Node {
	if svc.Movie == nil || svc.Entities == nil || svc.Console == nil ||
		svc.Events == nil || svc.Audio == nil || svc.Time == nil {
		panic("director: incomplete services")
	}
	d := &Node{
		ParamNode: node.NewParamNode(id, name, table),
		svc:       svc,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.clearState()
	return d
}

func (d *Node) clearState() {
	d.lastCameraKey = -1
	d.lastEventKey = -1
	d.lastConsoleKey = -1
	d.lastMusicKey = -1
	d.lastSequenceKey = -1
	d.lastGotoKey = -1
	d.lastCaptureKey = -1
	d.captureEnded = true
	d.currentSelectKey = -1
	d.currentCamera = 0
	d.blendCache = make(map[int]cameraStartState)
}

// LiveCameras returns the number of scene cameras currently acquired.
// It is zero between frames.
func (d *Node) LiveCameras() int { return d.live }

// BlendSegments returns the select key indices with a captured start
// state, in ascending order.
func (d *Node) BlendSegments() []int {
	out := make([]int, 0, len(d.blendCache))
	for k := range d.blendCache {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// CurrentCamera returns the entity last published by this director.
func (d *Node) CurrentCamera() ir.EntityID { return d.currentCamera }

// Animate evaluates one frame at ctx.Time.
func (d *Node) Animate(ctx movie.AnimContext) {
	if ctx.Resetting {
		return
	}

	var (
		cameraTrack   *track.SelectTrack
		eventTrack    *track.EventTrack
		sequenceTrack *track.SequenceTrack
		consoleTrack  *track.ConsoleTrack
		musicTrack    *track.MusicTrack
		gotoTrack     *track.GotoTrack
		captureTrack  *track.CaptureTrack
		soundSlot     int
	)

	d.ParamNode.Animate(ctx, func(t track.Track) {
		switch t.ParamType().Kind {
		case ir.ParamCamera:
			cameraTrack, _ = t.(*track.SelectTrack)
		case ir.ParamEvent:
			eventTrack, _ = t.(*track.EventTrack)
		case ir.ParamSequence:
			sequenceTrack, _ = t.(*track.SequenceTrack)
		case ir.ParamConsole:
			consoleTrack, _ = t.(*track.ConsoleTrack)
		case ir.ParamMusic:
			musicTrack, _ = t.(*track.MusicTrack)
		case ir.ParamGoto:
			gotoTrack, _ = t.(*track.GotoTrack)
		case ir.ParamCapture:
			captureTrack, _ = t.(*track.CaptureTrack)
		case ir.ParamSound:
			if st, ok := t.(*track.SoundTrack); ok {
				d.animateSound(ctx, st, soundSlot)
				soundSlot++
			}
		case ir.ParamTimeWarp:
			if ft, ok := t.(*track.FloatTrack); ok {
				d.applyTimeWarp(ctx, ft)
			}
		case ir.ParamFixedTimeStep:
			if ft, ok := t.(*track.FloatTrack); ok {
				d.applyFixedTimeStep(ctx, ft)
			}
		}
	})

	if id, name, ok := d.overrideCamera(); ok {
		if id != d.svc.Movie.CameraParams().EntityID {
			d.applyCameraKey(ctx, nil, track.SelectKey{Selection: name, EntityID: id})
		}
	} else if cameraTrack != nil {
		idx, key := cameraTrack.GetActiveKey(ctx.Time)
		d.currentSelectKey = idx
		d.applyCameraKey(ctx, cameraTrack, key)
		d.lastCameraKey = idx
	}

	if eventTrack != nil {
		d.animateEvent(ctx, eventTrack)
	}
	if consoleTrack != nil {
		d.animateConsole(ctx, consoleTrack)
	}
	if musicTrack != nil {
		d.animateMusic(ctx, musicTrack)
	}
	if sequenceTrack != nil {
		d.animateSequence(ctx, sequenceTrack)
	}
	if gotoTrack != nil {
		d.animateGoto(ctx, gotoTrack)
	}
	if captureTrack != nil && !d.svc.Movie.IsInBatchRenderMode() {
		d.animateCapture(ctx, captureTrack)
	}
}

var _ node.Node = (*Node)(nil)
