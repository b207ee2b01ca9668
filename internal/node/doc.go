// Package node implements animation nodes: named owners of tracks.
//
// A ParamNode holds zero or more tracks addressed by ir.ParamType. Which
// parameters a node accepts, and with what value type, is decided by an
// immutable ParamTable built once by NewTables and shared by every node of
// that kind. Repeatable kinds (sound) get successive sub-indices.
//
// Per-frame evaluation visits tracks in insertion order and silently skips
// tracks that are disabled or masked for the frame. Nodes never own their
// parent: the parent is referenced by id and resolved by the owning
// sequence, which is the only owner of nodes.
//
// The node kinds implemented here are the CameraNode (FOV, near plane,
// position, rotation) and, in internal/director, the director node.
package node
