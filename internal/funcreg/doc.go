// Package funcreg defines the two external collaborator interfaces the
// engine calls into — FunctionGrabber and WrapperGrabber (§1, §6) — and
// ships one concrete, in-process, map-backed implementation of both,
// grounded on the teacher's Registry: handlers self-register into it via a
// Module interface, and a duplicate name panics at startup rather than
// silently overwriting a mapping (a programmer error, not a runtime one).
package funcreg
