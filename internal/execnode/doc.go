// Package execnode implements the two node executors that invoke
// user-supplied code — Function and Variable — grounded on the teacher's
// executeStepNode/executeResourceNode two-phase pattern (decode arguments
// against an eval context, call the handler, capture output). Start, Stop,
// ParallelSplit, and ParallelSync involve no user code and are handled
// directly by the scheduler's main loop.
package execnode
