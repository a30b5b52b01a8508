package tracing

import "github.com/rs/zerolog"

// JobProcessor drains a JobRing of JobPayload, deallocating each finished
// job and, for shared-memory jobs, dispatching the owning client's
// completion callback (spec §4.5).
//
// ProcessJobs stops as soon as it finds a job whose daemon-reported
// "finished" context still matches the context the job was submitted
// under — that job is still in flight, and everything behind it in the
// ring is therefore also still in flight, since jobs are deallocated in
// submission order. CleanPendingJobs ignores that check entirely and
// drains unconditionally, for shutdown.
type JobProcessor struct {
	ring       *JobRing[JobPayload]
	callbacks  *CallbackRegistry
	clients    *ClientRegistry
	deallocate Deallocator
	cancel     *CancelSignal
	logger     zerolog.Logger
}

// NewJobProcessor constructs a processor draining ring, dispatching to
// callbacks, resolving the submitting client via clients, invoking
// deallocate on every finished job, and observing cancel for promptness. A
// nil deallocate is accepted at construction time: per spec §4.5/§7,
// KindNoDeallocatorCallbackRegistered is a runtime condition ProcessJobs and
// CleanPendingJobs report when they are actually called, not a
// construction-time one.
func NewJobProcessor(ring *JobRing[JobPayload], callbacks *CallbackRegistry, clients *ClientRegistry, deallocate Deallocator, cancel *CancelSignal, logger zerolog.Logger) *JobProcessor {
	return &JobProcessor{
		ring:       ring,
		callbacks:  callbacks,
		clients:    clients,
		deallocate: deallocate,
		cancel:     cancel,
		logger:     logger,
	}
}

// SaveCallback registers fn as clientID's completion callback, delegating
// to the processor's CallbackRegistry.
func (p *JobProcessor) SaveCallback(clientID TraceClientID, fn func(TraceContextID)) error {
	return p.callbacks.Save(clientID, fn)
}

// ProcessJobs drains ready jobs from the ring, stopping at the first job
// still in flight (its finished-context check has not yet advanced past
// the job's own submission context) or when cancel is set. Returns
// KindNoDeallocatorCallbackRegistered (fatal) if no deallocator is
// configured, or the first fatal deallocator error (spec §4.5/§7), or
// KindFailedToProcessJobs (fatal) if deallocation's bounded CAS retry loop
// is exhausted, which would indicate contention this package's
// bounded-retry design cannot explain away.
func (p *JobProcessor) ProcessJobs() error {
	if p.deallocate == nil {
		return NewError(KindNoDeallocatorCallbackRegistered, "job processor has no deallocator configured")
	}
	for {
		if p.cancel != nil && p.cancel.IsSet() {
			return nil
		}

		elem, err := p.ring.PeekReady()
		if err != nil {
			if KindOf(err) == KindAtomicRingBufferEmpty {
				return nil
			}
			// Max-retries on PeekReady just means the head producer hasn't
			// finished filling its slot yet; nothing more is ready to drain.
			return nil
		}

		job := *elem.Data()
		if !job.isStale() {
			// Head job is still in flight; everything behind it is too.
			return nil
		}

		if err := p.deallocateElement(elem, job); err != nil {
			return err
		}
	}
}

// CleanPendingJobs unconditionally drains and deallocates every ready job
// in the ring, ignoring the in-flight correlation check ProcessJobs
// applies. Intended for shutdown, where in-flight jobs can no longer be
// correlated against a live daemon.
func (p *JobProcessor) CleanPendingJobs() error {
	if p.deallocate == nil {
		return NewError(KindNoDeallocatorCallbackRegistered, "job processor has no deallocator configured")
	}
	for {
		elem, err := p.ring.PeekReady()
		if err != nil {
			return nil
		}
		job := *elem.Data()
		if err := p.deallocateElement(elem, job); err != nil {
			return err
		}
	}
}

// deallocateElement claims elem's ready flag exclusively (so exactly one
// concurrent caller performs this deallocation), invokes the deallocator,
// dispatches the completion callback for shared-memory jobs, and advances
// the ring head. Bounded-retries releasing the head against transient CAS
// contention. A fatal deallocator error stops processing immediately,
// before the completion callback fires or the head is released (spec
// §4.5 step 2, §7's DeallocFail case).
func (p *JobProcessor) deallocateElement(elem *ringElement[JobPayload], job JobPayload) error {
	if !elem.clearReady() {
		// Another consumer already claimed this element; nothing to do.
		return nil
	}

	if err := p.deallocate(job.Location, job.Kind); err != nil {
		return WrapError(KindFailedToProcessJobs, err, "deallocator failed for job kind %s", job.Kind)
	}

	if job.Kind == JobKindShared {
		p.dispatchCallback(job)
	}

	for attempt := 0; attempt < casMaxRetries; attempt++ {
		if p.ring.ReleaseHead() {
			return nil
		}
		if p.cancel != nil && p.cancel.IsSet() {
			return nil
		}
	}
	return NewError(KindFailedToProcessJobs, "failed to release ring head after deallocation")
}

// dispatchCallback resolves the submitting client's local id and invokes
// its registered completion callback, if any. Per spec §4.5, a missing
// client or missing callback is not an error worth surfacing here: the
// job has already been deallocated, and the client may simply have
// deregistered or never registered a callback.
func (p *JobProcessor) dispatchCallback(job JobPayload) {
	client, err := p.clients.ByRemote(job.OriginalContext.ClientID)
	if err != nil {
		p.logger.Debug().
			Uint8("remote_client_id", uint8(job.OriginalContext.ClientID)).
			Msg("tracing: no registered client for finished shared job, skipping callback")
		return
	}

	fn := p.callbacks.Find(client.LocalID)
	if fn == nil {
		return
	}
	fn(job.OriginalContext.ContextID)
}
