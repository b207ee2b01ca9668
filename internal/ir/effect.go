package ir

import (
	"math"
	"strconv"
	"strings"
)

// EffectKind names an observable side effect of evaluating a sequence.
type EffectKind string

const (
	EffectCamera        EffectKind = "camera"
	EffectCameraBlend   EffectKind = "camera_blend"
	EffectCameraRestore EffectKind = "camera_restore"
	EffectEvent         EffectKind = "event"
	EffectConsole       EffectKind = "console"
	EffectMusic         EffectKind = "music"
	EffectSoundStart    EffectKind = "sound_start"
	EffectSoundStop     EffectKind = "sound_stop"
	EffectSequence      EffectKind = "sequence"
	EffectSequenceStop  EffectKind = "sequence_stop"
	EffectGoto          EffectKind = "goto"
	EffectCaptureStart  EffectKind = "capture_start"
	EffectCaptureEnd    EffectKind = "capture_end"
	EffectTimeScale     EffectKind = "time_scale"
	EffectFixedStep     EffectKind = "fixed_step"
)

// Effect is one recorded side effect.
//
// Effects are the unit of trace comparison: golden files, replay checks and
// the run store all operate on ordered []Effect. Seq is a logical counter
// assigned by the recorder, never wall-clock time.
type Effect struct {
	Seq    int64      `json:"seq"`
	TimeUS int64      `json:"time_us"`
	Kind   EffectKind `json:"kind"`
	Target string     `json:"target,omitempty"`
	Value  string     `json:"value,omitempty"`
}

// Canonical returns the effect as a map accepted by MarshalCanonical.
func (e Effect) Canonical() map[string]any {
	m := map[string]any{
		"seq":     e.Seq,
		"time_us": e.TimeUS,
		"kind":    string(e.Kind),
	}
	if e.Target != "" {
		m["target"] = e.Target
	}
	if e.Value != "" {
		m["value"] = e.Value
	}
	return m
}

// Micros converts timeline seconds to integer microseconds (rounded).
func Micros(seconds float32) int64 {
	return int64(math.Round(float64(seconds) * 1e6))
}

// Seconds converts integer microseconds back to timeline seconds.
func Seconds(us int64) float32 {
	return float32(float64(us) / 1e6)
}

// FormatScalar renders a float with 4 fixed decimals for trace payloads.
// Negative zero is normalised so equal values always render identically.
func FormatScalar(v float32) string {
	if v == 0 {
		v = 0
	}
	s := strconv.FormatFloat(float64(v), 'f', 4, 32)
	if s == "-0.0000" {
		return "0.0000"
	}
	return s
}

// FormatScalars joins several scalars with commas.
func FormatScalars(vs ...float32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = FormatScalar(v)
	}
	return strings.Join(parts, ",")
}
