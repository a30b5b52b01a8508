// Package tracing implements the lock-free job pipeline at the core of a
// tracing runtime: a fixed-capacity slot pool with lock-free acquire/release,
// a single-producer-friendly multi-consumer ring buffer carrying trace jobs
// behind one packed atomic state word, and a job processor that drains the
// ring, invokes a caller-supplied deallocator, and dispatches per-client
// completion callbacks.
//
// The package favors bounded-retry, non-blocking algorithms throughout:
// every operation either succeeds, reports a well-known recoverable
// condition (full, empty, contended), or fails fatally. Nothing in this
// package blocks a caller; callers that want to wait do so outside it.
package tracing
