package tracing

import "sync/atomic"

// HandleRecord is one registered shared-memory object: a stable
// process-local handle, the file descriptor it was registered with, and
// the daemon-assigned remote handle, reassignable (e.g. across a daemon
// reconnect) and so held behind an atomic like ClientRecord.RemoteID
// (spec §3).
type HandleRecord struct {
	Local LocalShmHandle
	FD    int

	remote atomic.Int32
}

// Remote returns the handle's current daemon-assigned value.
func (h *HandleRecord) Remote() ShmObjectHandle {
	return ShmObjectHandle(h.remote.Load())
}

// SetRemote updates the daemon-assigned handle value.
func (h *HandleRecord) SetRemote(remote ShmObjectHandle) {
	h.remote.Store(int32(remote))
}

func (h *HandleRecord) invalidateRemote() {
	h.remote.Store(int32(InvalidShmObjectHandle))
}

// HandleRegistry tracks every shared-memory object handle currently
// registered with this runtime (spec §4.3), built on a SlotPool of
// HandleRecord, keyed by the registry-assigned local handle rather than by
// file descriptor, mirroring the original's
// shm_object_handle_container.h/.cpp.
type HandleRegistry struct {
	pool      *SlotPool[HandleRecord]
	nextLocal atomic.Int32
}

// NewHandleRegistry constructs a registry with room for capacity
// simultaneously registered handles.
func NewHandleRegistry(capacity int) *HandleRegistry {
	return &HandleRegistry{pool: NewSlotPool[HandleRecord](capacity)}
}

// RegisterLocal allocates a new local handle for fd (monotonic from 1) and
// registers it, writing (local=new, remote=INVALID, fd). fd is not checked
// for prior registration here — matching RegisterLocalShmObjectHandle in the original, which
// always allocates a fresh handle; IsRegistered is the separate query for
// callers that want to check first. Returns KindNoMoreSpaceForNewShmObject
// (fatal) if the registry is full.
func (r *HandleRegistry) RegisterLocal(fd int) (*HandleRecord, error) {
	rec := r.pool.Acquire()
	if rec == nil {
		return nil, NewError(KindNoMoreSpaceForNewShmObject, "shared memory handle registry is full")
	}
	rec.Local = LocalShmHandle(r.nextLocal.Add(1))
	rec.FD = fd
	rec.invalidateRemote()
	return rec, nil
}

// DeregisterLocal releases the record held by local, setting its local
// handle to invalid before releasing the slot, matching
// DeregisterLocalShmObject. A no-op if local is not registered.
func (r *HandleRegistry) DeregisterLocal(local LocalShmHandle) {
	rec := r.pool.FindIf(func(h *HandleRecord) bool { return h.Local == local })
	if rec == nil {
		return
	}
	rec.Local = InvalidLocalShmHandle
	r.pool.ReleaseIndex(r.pool.IndexOf(rec))
}

// IsRegistered reports whether any currently registered handle (local !=
// invalid) was registered for fd.
func (r *HandleRegistry) IsRegistered(fd int) bool {
	return r.pool.FindIf(func(h *HandleRecord) bool {
		return h.Local != InvalidLocalShmHandle && h.FD == fd
	}) != nil
}

// RemoteFor returns the daemon-assigned handle value for local. Returns
// KindInvalidShmObjectHandle (fatal) if local is not registered or its
// remote handle is currently invalid.
func (r *HandleRegistry) RemoteFor(local LocalShmHandle) (ShmObjectHandle, error) {
	rec := r.pool.FindIf(func(h *HandleRecord) bool {
		return h.Local == local && h.Remote() != InvalidShmObjectHandle
	})
	if rec == nil {
		return InvalidShmObjectHandle, NewError(KindInvalidShmObjectHandle, "local handle %d is not registered or has no remote handle", local)
	}
	return rec.Remote(), nil
}

// InvalidateAllRemote clears the daemon-assigned value of every currently
// registered handle, without deregistering the underlying local handles.
func (r *HandleRegistry) InvalidateAllRemote() {
	r.pool.ForEachOccupied(func(h *HandleRecord) {
		if h.Local != InvalidLocalShmHandle {
			h.invalidateRemote()
		}
	})
}

// Count returns the number of currently registered handles.
func (r *HandleRegistry) Count() int {
	return r.pool.Capacity() - r.pool.EmptyCount()
}
