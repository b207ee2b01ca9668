// Package playback drives sequences outside a game.
//
// World implements every collaborator of package movie in memory. Each
// observable side effect (camera change, event, console command, sound,
// capture, timer change) is appended to a Recorder as an ir.Effect, so a
// run can be compared, hashed and stored.
//
// Player advances a sequence on a fixed frame step. It supports play,
// single-frame scrubs, looping, stop and reset.
package playback
