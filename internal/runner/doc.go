// Package runner is the public API surface of the core engine (§4.9),
// grounded on the teacher's app.App/App.Run split: New assembles the
// read-only graph, function/wrapper registries, and constants into a
// runnable instance; Run blocks to completion; RunAsync hands back a
// Handle a caller can wait on or cancel.
package runner
