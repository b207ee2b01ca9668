// Package ir provides the foundation types shared by every trackview package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the foundational
// layer with no circular dependencies.
//
// Contents:
//   - Parameter identity: ParamKind, ParamType (kind + sub-index), ValueType
//   - Flag bitsets: TrackFlags, KeyFlags, NodeFlags, SequenceFlags, TrackMask
//   - Timeline primitives: Range, EntityID, CameraParams
//   - Trace records: Effect, produced by recording collaborators
//   - Canonical JSON and domain-separated hashing of traces
//
// Key design constraints:
//   - Engine values are float32 (timeline time, FOV, positions)
//   - Trace records carry NO floats: times are integer microseconds and
//     scalar payloads are fixed-precision strings, so traces hash stably
//   - All JSON tags use snake_case
package ir
