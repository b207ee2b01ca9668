package director

import (
	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/track"
)

// scrubMatches reports whether a key may fire in this frame: always in
// normal playback, and only on an exact time match while scrubbing.
func scrubMatches(ctx movie.AnimContext, keyTime float32) bool {
	return !ctx.SingleFrame || keyTime == ctx.Time
}

func (d *Node) animateEvent(ctx movie.AnimContext, t *track.EventTrack) {
	idx, key := t.GetActiveKey(ctx.Time)
	if idx != d.lastEventKey && idx >= 0 {
		suppressed := key.NoTriggerInScrubbing && ctx.SingleFrame && key.Time != ctx.Time
		if !suppressed && key.Event != "" {
			d.svc.Events.Broadcast(key.Event, key.Value)
		}
	}
	d.lastEventKey = idx
}

func (d *Node) animateConsole(ctx movie.AnimContext, t *track.ConsoleTrack) {
	idx, key := t.GetActiveKey(ctx.Time)
	if idx != d.lastConsoleKey && idx >= 0 && scrubMatches(ctx, key.Time) && key.Command != "" {
		d.svc.Console.Execute(key.Command)
	}
	d.lastConsoleKey = idx
}

func (d *Node) animateMusic(ctx movie.AnimContext, t *track.MusicTrack) {
	if d.svc.Movie.IsEditor() && t.Flags().Has(ir.TrackMuted) {
		return
	}
	idx, key := t.GetActiveKey(ctx.Time)
	if idx != d.lastMusicKey && idx >= 0 && scrubMatches(ctx, key.Time) && key.Mood != "" {
		d.svc.Audio.SetMusicMood(key.Mood)
	}
	d.lastMusicKey = idx
}

func (d *Node) animateSequence(ctx movie.AnimContext, t *track.SequenceTrack) {
	idx, key := t.GetActiveKey(ctx.Time)
	if !d.svc.Movie.IsEditing() {
		var seq movie.Sequence
		if key.Selection != "" {
			seq = d.svc.Movie.FindSequence(key.Selection)
		}
		if idx != d.lastSequenceKey || seq == nil || !d.svc.Movie.IsPlaying(seq) {
			d.applySequenceKey(ctx, t, idx, key, seq)
		}
	}
	d.lastSequenceKey = idx
}

// applySequenceKey animates the nested sequence of key at the matching
// local time. The key's length is refreshed from the nested range.
func (d *Node) applySequenceKey(ctx movie.AnimContext, t *track.SequenceTrack, idx int, key track.SequenceKey, seq movie.Sequence) {
	if idx < 0 || key.Selection == "" {
		return
	}
	if seq == nil {
		d.log.Debug("nested sequence not found", zap.String("sequence", key.Selection))
		return
	}

	duration := seq.TimeRange().Length()
	if key.OverrideTimes {
		duration = max(key.EndTime-key.StartTime, 0)
	}
	if key.Length != duration {
		key.Length = duration
		t.SetKey(idx, key)
	}

	local := min(ctx.Time-key.Time+key.StartTime, duration+key.StartTime)
	if seq.Time() != local {
		nested := ctx
		nested.Time = local
		seq.Animate(nested)
	}
}

func (d *Node) animateGoto(ctx movie.AnimContext, t *track.GotoTrack) {
	idx, key := t.GetActiveKey(ctx.Time)
	if idx != d.lastGotoKey && idx >= 0 && !ctx.SingleFrame && key.Value >= 0 {
		if ctx.Sequence != nil {
			d.svc.Movie.GoToFrame(ctx.Sequence.Name(), key.Value)
		}
	}
	d.lastGotoKey = idx
}

func (d *Node) animateCapture(ctx movie.AnimContext, t *track.CaptureTrack) {
	idx, key := t.GetActiveKey(ctx.Time)
	justEnded := !d.captureEnded && key.Time+key.Length < ctx.Time

	if ctx.SingleFrame || (d.svc.Movie.IsEditor() && d.svc.Movie.IsEditing()) {
		return
	}
	switch {
	case idx != d.lastCaptureKey && idx >= 0:
		if !d.captureEnded {
			d.log.Warn("capture still open at next capture key", zap.Int("key", idx))
			d.svc.Movie.EndCapture()
			d.captureEnded = true
		}
		d.svc.Movie.StartCapture(key)
		if !key.Once {
			d.captureEnded = false
		}
		d.lastCaptureKey = idx
	case justEnded:
		d.svc.Movie.EndCapture()
		d.captureEnded = true
	}
}

func (d *Node) applyTimeWarp(ctx movie.AnimContext, t *track.FloatTrack) {
	scale, ok := track.EvalFloat(t, ctx.Time)
	if !ok {
		scale = 1
	}
	scale = max(scale, 0)

	var fixed float32
	if seq := ctx.Sequence; seq != nil && seq.Flags()&ir.SeqCanWarpInFixedTime != 0 {
		fixed = seq.FixedTimeStep()
	}
	if fixed == 0 {
		if d.svc.Time.FixedStep() != 0 {
			d.svc.Time.SetFixedStep(0)
		}
		d.svc.Time.SetTimeScale(scale)
		return
	}
	d.svc.Time.SetFixedStep(fixed * scale)
}

func (d *Node) applyFixedTimeStep(ctx movie.AnimContext, t *track.FloatTrack) {
	step, _ := track.EvalFloat(t, ctx.Time)
	d.svc.Time.SetFixedStep(max(step, 0))
}

// soundState follows one sound track across frames.
type soundState struct {
	key     int
	playing bool
	start   string
	stop    string
	end     float32
}

func (s *soundState) reset() { *s = soundState{key: -1} }

// animateSound runs the sound track in slot: the start trigger fires when
// a new key becomes active; the stop trigger when time leaves the key's
// length or another key takes over. Keys without a length are one-shots.
func (d *Node) animateSound(ctx movie.AnimContext, t *track.SoundTrack, slot int) {
	for len(d.sounds) <= slot {
		d.sounds = append(d.sounds, soundState{key: -1})
	}
	s := &d.sounds[slot]

	idx, key := t.GetActiveKey(ctx.Time)
	if s.playing && (idx != s.key || ctx.Time > s.end) {
		d.stopSound(s)
	}
	if idx != s.key && idx >= 0 && scrubMatches(ctx, key.Time) && key.StartTrigger != "" {
		d.svc.Audio.ExecuteTrigger(key.StartTrigger)
		if key.Length > 0 {
			s.playing = true
			s.start, s.stop = key.StartTrigger, key.StopTrigger
			s.end = key.Time + key.Length
		}
	}
	s.key = idx
}

func (d *Node) stopSound(s *soundState) {
	if s.stop != "" {
		d.svc.Audio.ExecuteTrigger(s.stop)
	} else {
		d.svc.Audio.StopTrigger(s.start)
	}
	s.playing = false
}
