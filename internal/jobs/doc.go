// Package jobs implements the download job lifecycle coordinator.
//
// The Registry is a thread-safe in-memory map from job id to mutable job
// state (progress, speed, ETA, terminal result). The Runner launches one
// goroutine per download, feeds the engine's progress callbacks into the
// registry, and finalizes each job exactly once with a success or failure
// result.
//
// Lifecycle: Create (status downloading) → 0..N UpdateProgress →
// Finalize (terminal, frozen) → removed by client cancel or evicted by
// the TTL janitor. Terminal entries remain queryable until then, so polls
// arriving after completion still observe the result.
//
// Cancellation is best-effort: it removes the registry entry but cannot
// interrupt the engine, so the worker runs to completion and its result
// is dropped.
package jobs
