package tracing

// TraceClientID identifies a registered trace client, either the stable
// local id assigned by this process or the daemon-assigned remote id,
// depending on context (spec §4.2).
type TraceClientID uint8

// TraceContextID identifies a single trace request within a client.
type TraceContextID uint32

// ShmObjectHandle identifies a shared-memory object registered with the
// daemon. InvalidShmObjectHandle marks "not registered" / "not yet known".
type ShmObjectHandle int32

// InvalidShmObjectHandle is the sentinel handle value meaning "none",
// matching the original's kInvalidSharedObjectIndex.
const InvalidShmObjectHandle ShmObjectHandle = -1

// LocalShmHandle is the process-local handle a HandleRegistry assigns a
// registered shared-memory object, distinct from the daemon-assigned
// ShmObjectHandle it may later be bound to (spec §3/§4.3, mirroring the
// original's local_handle_/next_shm_object_handle_ in
// shm_object_handle_container.h).
type LocalShmHandle int32

// InvalidLocalShmHandle is the sentinel local handle value meaning "none".
const InvalidLocalShmHandle LocalShmHandle = -1

// InvalidTraceClientID is the sentinel client id meaning "none" or
// "not yet assigned". Local id 0 is reserved for this purpose (spec §3/§6:
// "local id 0 is reserved as invalid", "INVALID_CLIENT_ID = 0"), so
// ClientRegistry's monotonic local id counter starts at 1.
const InvalidTraceClientID TraceClientID = 0

// BindingKind identifies the transport a registered client uses to reach
// the daemon.
type BindingKind int

const (
	BindingLoLa BindingKind = iota
	BindingVector
	BindingVectorZeroCopy
	BindingUndefined
)

func (b BindingKind) String() string {
	switch b {
	case BindingLoLa:
		return "lola"
	case BindingVector:
		return "vector"
	case BindingVectorZeroCopy:
		return "vector-zero-copy"
	default:
		return "undefined"
	}
}

// AppInstanceID is the fixed-length application identifier exchanged with
// the daemon during client registration (spec §6,
// kApplicationIdentifierLength == 8 in the original).
type AppInstanceID [DefaultAppIDLength]byte
