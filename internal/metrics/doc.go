// Package metrics exposes optional Prometheus instrumentation for the
// scheduler. A nil *Collector is always safe to call methods on: every
// method is a no-op guard over a possibly-nil receiver, so wiring metrics
// in is opt-in and never required by the scheduler's own correctness,
// keeping the core deterministic and testable on its own (§9).
package metrics
