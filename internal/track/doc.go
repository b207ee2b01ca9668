// Package track implements keyframe tracks.
//
// A KeyedTrack[K] stores keys of one payload type K ordered by time and
// answers "which key is active at time t" once per frame.
//
// ORDERING:
//
// Keys become time-ordered lazily. Every mutation (create, clone, copy,
// remove, set time, set key) marks the track dirty; the next query sorts
// first. CreateKey and friends therefore return the pre-sort index.
//
// ACTIVE KEY RESOLUTION:
//
// GetActiveKey keeps two pieces of evaluation state per track: the cached
// current index and the last (wrapped) query time. With monotonically
// increasing query times the scan resumes at the cached index, so the cost
// is amortized O(1). Moving backward (editor scrubbing) falls back to a
// linear scan from index 0 and never corrupts the cache.
//
// With the Cycle or Loop flag, time is wrapped modulo
// endTime = time(last key) + duration(last key). A query whose wrapped time
// is strictly less than the previous wrapped time is a wrap event; when the
// wrapped time precedes the first key, a wrap event yields the last key for
// that one frame instead of "no key". The comparison is a strict
// floating-point < and is preserved exactly, boundary equality included.
//
// SERIALIZATION:
//
// Tracks persist to XML through github.com/beevik/etree:
//
//	<Track Flags="8" StartTime="0" EndTime="10" HasCustomColor="1" CustomColor="4278190335">
//	  <Key time="0" node="CamA" BlendTime="2"/>
//	  <Key time="5" node="CamB"/>
//	</Track>
//
// Per-key attributes are written by the payload type (see keys.go).
package track
