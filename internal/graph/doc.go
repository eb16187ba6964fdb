// Package graph is the in-memory model of a sequence engine's control-flow
// graph: nodes, their outgoing transitions, and the invariants a
// SequenceReader must establish before the scheduler will run against it.
//
// A Graph is built once by Build and is read-only for the remainder of
// the run; nothing in this package mutates a built Graph.
package graph
