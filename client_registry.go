package tracing

import (
	"sync/atomic"

	"golang.org/x/exp/slices"
)

// ClientRecord is one registered trace client. LocalID is assigned once at
// registration and never changes; local id 0 is reserved to mean "invalid"
// (spec §3/§6), so ClientRegistry's id counter starts at 1. RemoteID is the
// daemon-assigned id and may be reassigned any number of times over the
// record's life — e.g. when the daemon connection drops and reconnects
// under a new remote id — so it is held behind an atomic rather than a
// plain field (spec §4.2). PendingError holds the most recent error
// associated with this client, if any, set and cleared explicitly by the
// owning binding rather than by the registry itself.
type ClientRecord struct {
	LocalID TraceClientID
	AppID   AppInstanceID
	Binding BindingKind

	remoteID     atomic.Uint32
	pendingError atomic.Pointer[Error]
}

// RemoteID returns the client's current daemon-assigned id.
func (c *ClientRecord) RemoteID() TraceClientID {
	return TraceClientID(c.remoteID.Load())
}

// SetRemoteID updates the daemon-assigned id, e.g. after a reconnect.
func (c *ClientRecord) SetRemoteID(remote TraceClientID) {
	c.remoteID.Store(uint32(remote))
}

// invalidateRemote marks the client as having no current daemon-assigned
// id, without touching its stable LocalID.
func (c *ClientRecord) invalidateRemote() {
	c.remoteID.Store(uint32(InvalidTraceClientID))
}

// PendingError returns the client's currently recorded error, or nil if
// none is pending.
func (c *ClientRecord) PendingError() *Error {
	return c.pendingError.Load()
}

// ClientRegistry tracks every trace client currently registered with this
// runtime, built on a SlotPool of ClientRecord. Lookup by local id is a
// linear scan, matching the original's GetLocalTraceClientId (spec §4.2).
type ClientRegistry struct {
	pool        *SlotPool[ClientRecord]
	nextLocalID atomic.Uint32
}

// NewClientRegistry constructs a registry with room for capacity
// simultaneously registered clients.
func NewClientRegistry(capacity int) *ClientRegistry {
	return &ClientRegistry{pool: NewSlotPool[ClientRecord](capacity)}
}

// RegisterLocal registers a new client with the given binding and 8-byte
// application identifier, assigning it a fresh local id from a counter
// starting at 1 (0 is reserved as invalid and is skipped when the 8-bit id
// wraps around). Returns
// KindInvalidAppInstanceID (fatal) if appID is the zero value, or
// KindNoMoreSpaceForNewClient (fatal) if the registry is full.
func (r *ClientRegistry) RegisterLocal(binding BindingKind, appID AppInstanceID) (*ClientRecord, error) {
	if appID == (AppInstanceID{}) {
		return nil, NewError(KindInvalidAppInstanceID, "app instance id must not be all-zero")
	}

	rec := r.pool.Acquire()
	if rec == nil {
		return nil, NewError(KindNoMoreSpaceForNewClient, "client registry is full")
	}
	id := TraceClientID(r.nextLocalID.Add(1))
	for id == InvalidTraceClientID {
		id = TraceClientID(r.nextLocalID.Add(1))
	}
	rec.LocalID = id
	rec.AppID = appID
	rec.Binding = binding
	rec.invalidateRemote()
	rec.pendingError.Store(nil)
	return rec, nil
}

// Deregister releases the slot held by the client with the given local id.
// A no-op if no such client is registered.
func (r *ClientRegistry) Deregister(local TraceClientID) {
	r.pool.Release(ClientRecord{LocalID: local}, func(a, b ClientRecord) bool { return a.LocalID == b.LocalID })
}

// ByLocal looks up a registered client by its stable local id. Returns
// KindClientNotFound if no such client is currently registered.
func (r *ClientRegistry) ByLocal(local TraceClientID) (*ClientRecord, error) {
	rec := r.pool.FindIf(func(c *ClientRecord) bool { return c.LocalID == local })
	if rec == nil {
		return nil, NewError(KindClientNotFound, "no client registered with local id %d", local)
	}
	return rec, nil
}

// ByRemote looks up a registered client by its current daemon-assigned
// remote id. Returns KindClientNotFound if no such client is currently
// registered (e.g. its remote id was invalidated by InvalidateAllRemote).
func (r *ClientRegistry) ByRemote(remote TraceClientID) (*ClientRecord, error) {
	rec := r.pool.FindIf(func(c *ClientRecord) bool { return c.RemoteID() == remote })
	if rec == nil {
		return nil, NewError(KindClientNotFound, "no client registered with remote id %d", remote)
	}
	return rec, nil
}

// SetPendingError records err against the client identified by local,
// replacing any previously pending error. Returns KindClientNotFound if no
// such client is currently registered.
func (r *ClientRegistry) SetPendingError(local TraceClientID, err *Error) error {
	rec, lookupErr := r.ByLocal(local)
	if lookupErr != nil {
		return lookupErr
	}
	rec.pendingError.Store(err)
	return nil
}

// ClearPendingError clears the pending error recorded against the client
// identified by local, if any. Returns KindClientNotFound if no such
// client is currently registered.
func (r *ClientRegistry) ClearPendingError(local TraceClientID) error {
	return r.SetPendingError(local, nil)
}

// InvalidateAllRemote clears the daemon-assigned remote id of every
// currently registered client, e.g. on daemon disconnect. Local ids, app
// ids, and bindings are untouched, so clients remain registered and may be
// re-bound to new remote ids via SetRemoteID once the daemon reconnects.
func (r *ClientRegistry) InvalidateAllRemote() {
	r.pool.ForEachOccupied(func(c *ClientRecord) { c.invalidateRemote() })
}

// Count returns the number of currently registered clients.
func (r *ClientRegistry) Count() int {
	return r.pool.Capacity() - r.pool.EmptyCount()
}

// LocalIDs returns the local ids of every currently registered client,
// sorted ascending, for diagnostics.
func (r *ClientRegistry) LocalIDs() []TraceClientID {
	var ids []TraceClientID
	r.pool.ForEachOccupied(func(c *ClientRecord) { ids = append(ids, c.LocalID) })
	slices.Sort(ids)
	return ids
}
