// Package sequence owns the nodes of one animation sequence.
//
// A Sequence is an arena: it holds every node by value of its id, and
// nodes refer to their parent by id only. Lookups by name go through
// FindNodeByName, which the director uses to reach animated camera nodes.
//
// Sequences are read from and written to XML with etree. Node
// construction is delegated to a Factory, which binds each node kind to
// its capability table and to the collaborators in movie.Services.
// A Library groups loaded sequences and resolves nested sequence names.
package sequence
