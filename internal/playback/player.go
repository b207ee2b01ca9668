package playback

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 30

// Playable is a sequence the player can drive. *sequence.Sequence
// implements it.
type Playable interface {
	movie.Sequence
	Reset()
	Activate(active bool)
	Stop()
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithFPS sets the frame rate. Non-positive values are ignored.
func WithFPS(fps float32) PlayerOption {
	return func(p *Player) {
		if fps > 0 {
			p.step = 1 / fps
		}
	}
}

// WithLoop makes playback wrap at the end of the range regardless of the
// sequence flags.
func WithLoop(loop bool) PlayerOption {
	return func(p *Player) { p.loop = loop }
}

// WithTrackMask suppresses track kinds during playback.
func WithTrackMask(m ir.TrackMask) PlayerOption {
	return func(p *Player) { p.mask = m }
}

// WithPlayerLogger sets the logger.
func WithPlayerLogger(l *zap.Logger) PlayerOption {
	return func(p *Player) {
		if l != nil {
			p.log = l
		}
	}
}

// Player advances one sequence frame by frame.
//
// Each Tick evaluates the current time and then advances by the frame
// step times the world's time scale, or by the world's fixed step when
// one is set. Times are snapped to whole microseconds so keys placed on
// frame boundaries are hit exactly.
type Player struct {
	seq   Playable
	world *World
	log   *zap.Logger

	step float32
	loop bool
	mask ir.TrackMask

	time    float32
	start   float32
	playing bool
	active  bool
	frames  int

	// time = base + n*dt since the last discontinuity
	base float64
	dt   float32
	n    int
}

// NewPlayer creates a stopped player positioned at the start of the
// sequence range.
func NewPlayer(seq Playable, w *World, opts ...PlayerOption) *Player {
	if seq == nil || w == nil {
		panic("playback: nil sequence or world")
	}
	p := &Player{
		seq:   seq,
		world: w,
		log:   zap.NewNop(),
		step:  1.0 / DefaultFPS,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.setTime(seq.TimeRange().Start)
	return p
}

func (p *Player) Time() float32 { return p.time }
func (p *Player) Playing() bool { return p.playing }
func (p *Player) Frames() int   { return p.frames }
func (p *Player) Step() float32 { return p.step }

// SetTrackMask changes the mask for subsequent frames.
func (p *Player) SetTrackMask(m ir.TrackMask) { p.mask = m }

// Play starts playback at from, clamped to the sequence range.
func (p *Player) Play(from float32) {
	r := p.seq.TimeRange()
	from = min(max(from, r.Start), r.End)
	p.activate()
	p.start = from
	p.setTime(from)
	p.playing = true
	p.world.SetPlaying(p.seq.Name(), true)
	p.log.Debug("play", zap.String("sequence", p.seq.Name()), zap.Float32("from", from))
}

// Tick evaluates one frame and advances time. It reports whether playback
// continues. A stopped player does nothing.
func (p *Player) Tick() bool {
	if !p.playing {
		return false
	}
	p.evaluate(p.time, false)
	p.frames++

	if t, ok := p.world.TakeGoto(p.seq.Name()); ok {
		r := p.seq.TimeRange()
		p.setTime(min(max(t, r.Start), r.End))
		return true
	}

	r := p.seq.TimeRange()
	next := p.advance()
	if next <= p.time {
		// A time scale of zero, or one too small to move a snapped
		// microsecond, freezes time. Nothing can unfreeze it.
		p.log.Warn("time stopped advancing",
			zap.String("sequence", p.seq.Name()), zap.Float32("time", p.time))
		p.Stop()
		return false
	}
	if next > r.End {
		switch {
		case p.loop || p.seq.Flags()&ir.SeqOutOfRangeLoop != 0:
			length := r.Length()
			if length <= 0 {
				p.Stop()
				return false
			}
			p.setTime(r.Start + float32(math.Mod(float64(next-r.Start), float64(length))))
			return true
		case p.time < r.End:
			// The end of the range is always evaluated once.
			p.setTime(r.End)
			return true
		default:
			p.Stop()
			return false
		}
	}
	p.time = next
	return true
}

// Run ticks until playback stops, ctx is done, or maxFrames frames were
// evaluated (maxFrames <= 0 means no limit). It returns the number of
// frames evaluated by this call.
func (p *Player) Run(ctx context.Context, maxFrames int) (int, error) {
	first := p.frames
	for maxFrames <= 0 || p.frames-first < maxFrames {
		if err := ctx.Err(); err != nil {
			return p.frames - first, err
		}
		if !p.Tick() {
			break
		}
	}
	return p.frames - first, nil
}

// Scrub evaluates a single isolated frame at t, as an editor does when the
// time slider moves. Playback state is unchanged.
func (p *Player) Scrub(t float32) {
	p.activate()
	p.setTime(t)
	p.evaluate(t, true)
}

// Stop ends playback and stops sounds started by the sequence.
func (p *Player) Stop() {
	if !p.playing {
		return
	}
	p.seq.Stop()
	p.seq.Activate(false)
	p.active = false
	p.playing = false
	p.world.SetPlaying(p.seq.Name(), false)
	p.log.Debug("stop", zap.String("sequence", p.seq.Name()), zap.Int("frames", p.frames))
}

// Reset returns the sequence to a never-played state and rewinds to the
// start of the range. A playing player keeps playing from there.
func (p *Player) Reset() {
	p.seq.Stop()
	p.seq.Reset()
	r := p.seq.TimeRange()
	p.start = r.Start
	p.setTime(r.Start)
}

func (p *Player) activate() {
	if !p.active {
		p.seq.Activate(true)
		p.active = true
	}
}

func (p *Player) evaluate(t float32, single bool) {
	p.world.Recorder().SetTime(t)
	p.seq.Animate(movie.AnimContext{
		Time:        t,
		StartTime:   p.start,
		SingleFrame: single,
		TrackMask:   p.mask,
		Sequence:    p.seq,
	})
}

func (p *Player) delta() float32 {
	if fixed := p.world.FixedStep(); fixed > 0 {
		return fixed
	}
	return p.step * p.world.TimeScale()
}

func (p *Player) advance() float32 {
	dt := p.delta()
	if dt != p.dt {
		p.base = float64(p.time)
		p.n = 0
		p.dt = dt
	}
	p.n++
	return snap(p.base + float64(p.n)*float64(dt))
}

func (p *Player) setTime(t float32) {
	p.time = t
	p.base = float64(t)
	p.n = 0
}

func snap(t float64) float32 {
	return float32(math.Round(t*1e6) / 1e6)
}
