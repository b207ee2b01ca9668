// Package director implements the director node: the node that turns the
// active keys of its tracks into side effects every frame.
//
// One track per parameter kind is resolved per frame (the last one wins
// when a kind appears twice). One-shot effects fire on active-key index
// transitions rather than on value changes, so two consecutive keys with
// the same payload still fire twice. Evaluation order within a frame:
//
//	sound, time warp and fixed step   (while walking the tracks)
//	camera                            (override, else the select track)
//	event, console, music, sequence, goto, capture
//
// # Camera blending
//
// When the next select key starts within the current key's BlendTime, the
// current camera is blended towards the next one with a quintic ease. The
// first camera's starting state is captured once per segment, keyed by the
// select key index, and every later frame of that segment blends from the
// captured state. When the active index moves on, the captured state is
// written back to the camera that was blended and the entry is dropped.
//
// Missing cameras, entities and nested sequences are logged and skipped.
package director
