package tracing

// CallbackRecord associates a registered client with the function to
// invoke when one of its shared-memory trace jobs finishes.
type CallbackRecord struct {
	ClientID TraceClientID
	Callback func(TraceContextID)
}

// CallbackRegistry holds the small, fixed-size set of completion callbacks
// a JobProcessor may dispatch to. Sized much smaller than the job ring
// itself (DefaultCallbackPoolCapacity == 10 vs. DefaultRingCapacity == 500)
// because only one callback per client is ever registered at a time, per
// the original's callback_container_.
type CallbackRegistry struct {
	pool *SlotPool[CallbackRecord]
}

// NewCallbackRegistry constructs a registry with room for capacity
// simultaneously registered callbacks.
func NewCallbackRegistry(capacity int) *CallbackRegistry {
	return &CallbackRegistry{pool: NewSlotPool[CallbackRecord](capacity)}
}

// Save registers fn as clientID's completion callback. Returns
// KindInvalidArgument (fatal) if fn is nil, KindCallbackAlreadyRegistered
// if clientID already has one registered, or
// KindNoFreeSlotToSaveCallback if the registry is full.
func (r *CallbackRegistry) Save(clientID TraceClientID, fn func(TraceContextID)) error {
	if fn == nil {
		return NewError(KindInvalidArgument, "callback function must not be nil")
	}
	if r.pool.FindIf(func(c *CallbackRecord) bool { return c.ClientID == clientID }) != nil {
		return NewError(KindCallbackAlreadyRegistered, "client %d already has a callback registered", clientID)
	}
	rec := r.pool.Acquire()
	if rec == nil {
		return NewError(KindNoFreeSlotToSaveCallback, "callback registry is full")
	}
	rec.ClientID = clientID
	rec.Callback = fn
	return nil
}

// Find returns the callback registered for clientID, or nil if none is
// registered.
func (r *CallbackRegistry) Find(clientID TraceClientID) func(TraceContextID) {
	rec := r.pool.FindIf(func(c *CallbackRecord) bool { return c.ClientID == clientID })
	if rec == nil {
		return nil
	}
	return rec.Callback
}

// Remove releases clientID's registered callback, if any.
func (r *CallbackRegistry) Remove(clientID TraceClientID) {
	r.pool.Release(CallbackRecord{ClientID: clientID}, func(a, b CallbackRecord) bool { return a.ClientID == b.ClientID })
}

// Count returns the number of currently registered callbacks.
func (r *CallbackRegistry) Count() int {
	return r.pool.Capacity() - r.pool.EmptyCount()
}
