// Package harness runs playback test scenarios.
//
// A scenario loads sequence documents, builds a world of entities, drives a
// player through explicit steps, and checks the recorded effects. Each run
// is written to a fresh in-memory store so assertions can also query the
// stored run.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: camera_cut
//	description: "What this scenario validates"
//	sequences:
//	  - cutscene.xml
//	play: Cutscene
//	fps: 10
//	entities:
//	  - id: 1
//	    name: CamA
//	    camera: { fov: 60 }
//	steps:
//	  - action: play
//	  - action: run
//	assertions:
//	  - type: trace_contains
//	    kind: event
//	    target: door
//	    at: 1
//	  - type: final_state
//	    table: runs
//	    where: { sequence_name: Cutscene }
//	    expect: { frames: 81 }
//
// Documents are checked against an embedded CUE schema before decoding, so
// misspelled fields and out-of-range values are reported with a line and
// column.
//
// # Assertion Types
//
//   - trace_contains: some effect matches kind, target, value and time
//   - trace_order: the listed matches appear in order
//   - trace_count: exactly N effects match
//   - final_state: one row of a store table carries the expected values
//   - final_camera: the active camera after the last step
//   - final_time: the player time after the last step
//
// # Deterministic Testing
//
// The run id is fixed (scenario run_id, or testutil.DefaultRunID) and the
// player's frame times are derived from the frame count, so the same
// scenario produces a byte-identical trace on every run. Golden traces live
// in testdata/golden and are compared with goldie.
package harness
