package tracing

import "github.com/rs/zerolog"

// Runtime wires together a JobRing, the three SlotPool-backed registries,
// and a JobProcessor into the external surface a daemon-facing tracing
// binding actually calls (spec §6). It owns no shared-memory backing
// object and performs no daemon I/O itself: callers supply a
// MemoryClassifier and Deallocator, and are responsible for actually
// talking to the daemon.
type Runtime struct {
	cfg       Config
	ring      *JobRing[JobPayload]
	clients   *ClientRegistry
	handles   *HandleRegistry
	callbacks *CallbackRegistry
	processor *JobProcessor
	cancel    *CancelSignal
	logger    zerolog.Logger
}

// New constructs a Runtime. A nil Deallocator (the zero value of Config,
// absent a WithDeallocator Option) is accepted here: per spec §4.5/§7,
// KindNoDeallocatorCallbackRegistered is reported at ProcessJobs/
// CleanPendingJobs call time, not construction time.
func New(opts ...Option) *Runtime {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ring := NewJobRing[JobPayload](cfg.ringCapacity)
	clients := NewClientRegistry(cfg.clientPoolCapacity)
	handles := NewHandleRegistry(cfg.handlePoolCapacity)
	callbacks := NewCallbackRegistry(cfg.callbackPoolCapacity)
	cancel := NewCancelSignal()
	processor := NewJobProcessor(ring, callbacks, clients, cfg.deallocator, cancel, cfg.logger)

	return &Runtime{
		cfg:       cfg,
		ring:      ring,
		clients:   clients,
		handles:   handles,
		callbacks: callbacks,
		processor: processor,
		cancel:    cancel,
		logger:    cfg.logger,
	}
}

// RegisterClient registers a new local trace client, see ClientRegistry.RegisterLocal.
func (r *Runtime) RegisterClient(binding BindingKind, appID AppInstanceID) (*ClientRecord, error) {
	rec, err := r.clients.RegisterLocal(binding, appID)
	if err != nil {
		r.logger.Debug().Err(err).Msg("tracing: client registration failed")
		return nil, err
	}
	return rec, nil
}

// RegisterShmObject registers fd as a shared-memory object handle, and, if
// a MemoryClassifier is configured, verifies fd is recognized as typed
// shared memory first. Returns KindBadFileDescriptor (fatal) if the
// classifier rejects fd or errors classifying it, and otherwise the
// process-local handle the caller uses to refer to this registration from
// then on (spec §6: register_shm_object(fd) -> Result<LocalShmHandle, Kind>).
func (r *Runtime) RegisterShmObject(fd int) (LocalShmHandle, error) {
	if r.cfg.classifier != nil {
		ok, err := r.cfg.classifier.IsTypedMemory(fd)
		if err != nil {
			return InvalidLocalShmHandle, WrapError(KindBadFileDescriptor, err, "classifying fd %d", fd)
		}
		if !ok {
			return InvalidLocalShmHandle, NewError(KindBadFileDescriptor, "fd %d is not typed shared memory", fd)
		}
	}
	rec, err := r.handles.RegisterLocal(fd)
	if err != nil {
		return InvalidLocalShmHandle, err
	}
	return rec.Local, nil
}

// DeregisterShmObject releases the registration held by handle, if any.
func (r *Runtime) DeregisterShmObject(handle LocalShmHandle) {
	r.handles.DeregisterLocal(handle)
}

// RegisterTraceDoneCallback registers fn as clientID's completion
// callback, see CallbackRegistry.Save.
func (r *Runtime) RegisterTraceDoneCallback(clientID TraceClientID, fn func(TraceContextID)) error {
	return r.processor.SaveCallback(clientID, fn)
}

// SubmitJob reserves a ring slot for job and marks it ready for the
// processor to pick up. Returns KindAtomicRingBufferFull or
// KindAtomicRingBufferMaxRetries if no slot could be reserved.
func (r *Runtime) SubmitJob(job JobPayload) error {
	elem, err := r.ring.ReserveEmpty()
	if err != nil {
		return err
	}
	*elem.Data() = job
	elem.MarkReady()
	return nil
}

// ProcessJobs drains finished jobs from the ring, see JobProcessor.ProcessJobs.
func (r *Runtime) ProcessJobs() error {
	return r.processor.ProcessJobs()
}

// CleanPendingJobs unconditionally drains the ring, see JobProcessor.CleanPendingJobs.
func (r *Runtime) CleanPendingJobs() error {
	return r.processor.CleanPendingJobs()
}

// Shutdown requests that any in-progress or future ProcessJobs call return
// promptly, then drains whatever remains in the ring unconditionally.
func (r *Runtime) Shutdown() error {
	r.cancel.Cancel()
	return r.CleanPendingJobs()
}

// InvalidateRemoteRegistrations clears the daemon-assigned remote id of
// every registered client and shared-memory handle, e.g. on daemon
// disconnect, without deregistering any of them locally.
func (r *Runtime) InvalidateRemoteRegistrations() {
	r.clients.InvalidateAllRemote()
	r.handles.InvalidateAllRemote()
}

// PoolStats reports the capacity and free-slot count of one SlotPool- or
// JobRing-backed component, for diagnostics.
type PoolStats struct {
	Capacity int
	Free     int
}

// RuntimeStats is a snapshot of every pool/ring's occupancy, the closest
// analog this package has to the original's dropped TmdStatistics
// structure (spec Non-goals exclude the JSON/logging subsystem that
// consumed it, but the underlying counts remain useful for diagnostics).
type RuntimeStats struct {
	Ring      PoolStats
	Clients   PoolStats
	Handles   PoolStats
	Callbacks PoolStats
}

// Stats returns a point-in-time snapshot of occupancy across every pool
// and the job ring.
func (r *Runtime) Stats() RuntimeStats {
	return RuntimeStats{
		Ring:      PoolStats{Capacity: r.ring.Capacity(), Free: r.ring.EmptyCount()},
		Clients:   PoolStats{Capacity: r.cfg.clientPoolCapacity, Free: r.cfg.clientPoolCapacity - r.clients.Count()},
		Handles:   PoolStats{Capacity: r.cfg.handlePoolCapacity, Free: r.cfg.handlePoolCapacity - r.handles.Count()},
		Callbacks: PoolStats{Capacity: r.cfg.callbackPoolCapacity, Free: r.cfg.callbackPoolCapacity - r.callbacks.Count()},
	}
}
