package tracing

import "sync/atomic"

// CancelSignal is a one-shot, concurrency-safe stop flag. Unlike a full
// AbortController it carries no reason, no handler list, and cannot be
// reset — ProcessJobs and CleanPendingJobs only need to observe "stop
// requested" promptly from any goroutine, nothing richer (spec §8's
// cancellation-promptness scenario).
type CancelSignal struct {
	cancelled atomic.Bool
}

// NewCancelSignal returns a signal in the not-cancelled state.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{}
}

// Cancel requests a stop. Idempotent; safe to call from any goroutine,
// any number of times.
func (c *CancelSignal) Cancel() {
	c.cancelled.Store(true)
}

// IsSet reports whether Cancel has been called.
func (c *CancelSignal) IsSet() bool {
	return c.cancelled.Load()
}
