package tracing

// JobKind distinguishes a trace job that only touches process-local memory
// from one that references a chunk living in a shared-memory ring managed
// by the daemon. Only JobKindShared jobs dispatch a completion callback,
// per spec §4.5.
type JobKind int

const (
	// JobKindLocal jobs are deallocated but never trigger a registered
	// completion callback.
	JobKindLocal JobKind = iota
	// JobKindShared jobs reference a shared-memory chunk and, once
	// deallocated, trigger the originating client's completion callback.
	JobKindShared
)

func (k JobKind) String() string {
	switch k {
	case JobKindLocal:
		return "local"
	case JobKindShared:
		return "shared"
	default:
		return "unknown"
	}
}

// GlobalContextID identifies a single trace request across the whole
// runtime: the client that submitted it, plus a per-client context id.
type GlobalContextID struct {
	ClientID  TraceClientID
	ContextID TraceContextID
}

// Equal reports whether two ids name the same client and context.
func (g GlobalContextID) Equal(other GlobalContextID) bool {
	return g.ClientID == other.ClientID && g.ContextID == other.ContextID
}

// SharedMemLocation locates a chunk of trace data inside a shared-memory
// object, by handle and byte offset. JobProcessor passes it to the
// Deallocator for every job kind; the shared-memory object itself is out
// of scope for this package (spec Non-goals) and is only ever referenced
// here by handle.
type SharedMemLocation struct {
	Handle ShmObjectHandle
	Offset uint64
}

// FinishedContextRef is a pointer to wherever the runtime records the
// context id the daemon most recently finished writing for a given ring
// slot. JobProcessor compares a job's OriginalContext.ContextID against
// the value behind this reference to decide whether the job is stale (safe
// to deallocate) or still in flight (processing should stop, per spec
// §4.5's correlation check, which compares only the context id field, not
// the full client/context pair). It is a function rather than a struct
// field so JobPayload does not need to know how the backing store is
// represented.
type FinishedContextRef func() TraceContextID

// JobPayload is one element carried by a JobRing: everything the processor
// needs to deallocate a finished trace job and, for shared-memory jobs,
// notify the owning client.
type JobPayload struct {
	// OriginalContext is the id the job was submitted under.
	OriginalContext GlobalContextID
	// Finished reports the context id the daemon has most recently
	// completed for this slot. Nil for jobs with no external correlation
	// source (e.g. purely local jobs), in which case the job is always
	// treated as finished.
	Finished FinishedContextRef
	// Kind selects whether a completion callback fires on deallocation.
	Kind JobKind
	// Location is passed to the Deallocator, whatever the Kind.
	Location SharedMemLocation
}

// isStale reports whether the daemon has moved on to a different context
// than the one this job was submitted under — the signal that it is safe
// to deallocate. Jobs with no Finished ref are always stale (nothing to
// correlate against).
func (j JobPayload) isStale() bool {
	if j.Finished == nil {
		return true
	}
	return j.Finished() != j.OriginalContext.ContextID
}
