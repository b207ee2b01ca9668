package director

import (
	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/track"
)

// Reset returns the director to a never-played state. It withdraws the
// camera it published, stops the last nested sequence, closes an open
// capture and restores the timer if this director drives it.
func (d *Node) Reset() {
	if cp := d.svc.Movie.CameraParams(); cp.EntityID.Valid() && cp.EntityID == d.currentCamera {
		d.svc.Movie.SetCameraParams(ir.CameraParams{JustActivated: true})
	}

	if d.lastSequenceKey >= 0 {
		for _, t := range d.TracksOfKind(ir.ParamSequence) {
			st, ok := t.(*track.SequenceTrack)
			if !ok || d.lastSequenceKey >= st.NumKeys() {
				continue
			}
			if name := st.Key(d.lastSequenceKey).Selection; name != "" {
				d.svc.Movie.StopSequence(name)
			}
		}
	}

	if !d.captureEnded {
		d.svc.Movie.EndCapture()
	}

	if d.held != nil {
		d.held.SetSkipInterpolation(false)
		d.held = nil
	}
	d.clearState()
	for i := range d.sounds {
		d.sounds[i].reset()
	}
	d.ResetTracks()

	if d.Track(ir.Param(ir.ParamTimeWarp)) != nil {
		d.svc.Time.SetTimeScale(1)
		d.svc.Time.SetFixedStep(0)
	}
	if d.Track(ir.Param(ir.ParamFixedTimeStep)) != nil {
		d.svc.Time.SetFixedStep(0)
	}
}

// Activate prepares nested sequence keys when the owning sequence starts:
// every key gets its length from the referenced sequence, so the track end
// time is defined before the first frame.
func (d *Node) Activate(active bool) {
	if !active {
		return
	}
	for _, t := range d.TracksOfKind(ir.ParamSequence) {
		st, ok := t.(*track.SequenceTrack)
		if !ok {
			continue
		}
		for i, key := range st.Keys() {
			if key.OverrideTimes {
				key.Length = max(key.EndTime-key.StartTime, 0)
			} else {
				seq := d.svc.Movie.FindSequence(key.Selection)
				if seq == nil {
					d.log.Debug("nested sequence not found", zap.String("sequence", key.Selection))
					continue
				}
				key.Length = seq.TimeRange().Length()
			}
			st.SetKey(i, key)
		}
	}
}

// Stop ends every sound this director started.
func (d *Node) Stop() {
	for i := range d.sounds {
		if d.sounds[i].playing {
			d.stopSound(&d.sounds[i])
		}
	}
}
