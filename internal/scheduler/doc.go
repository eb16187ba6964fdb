// Package scheduler runs a validated graph to completion: a single
// coordinator goroutine owns all scheduling state and the variable store's
// write path; a bounded worker pool only ever executes Function nodes,
// reporting back over a completion channel (§4.8, §5). Grounded on the
// teacher's dag.Executor.Run/worker split between a coordinating goroutine
// and a fixed-size pool draining a ready channel.
package scheduler
