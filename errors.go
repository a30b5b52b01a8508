package tracing

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the taxonomy of conditions the tracing pipeline can
// report, mirroring the Recoverable/Fatal split of the original error_code.h.
// Recoverable means the caller may retry or ignore the failed attempt; Fatal
// means the caller must abort the current operation (and usually the
// subsystem around it).
type ErrorKind int

const (
	// KindNone is the zero value; never returned as a real error.
	KindNone ErrorKind = iota

	// Recoverable kinds.
	KindAtomicRingBufferFull
	KindAtomicRingBufferEmpty
	KindAtomicRingBufferMaxRetries
	KindModuleNotInitialized
	KindModuleInitialized
	KindCallbackAlreadyRegistered
	KindNoFreeSlotToSaveCallback
	KindClientNotFound
	KindSharedMemoryObjectAlreadyRegistered
	KindIndexOutOfBoundsInSharedList
	KindMessageSendFailed
	KindWrongMessageID
	KindWrongClientID
	KindClientNameAlreadyUsed
	KindDispatchDestroyFailed
	KindWrongHandle
	KindNoSpaceLeftForAllocation

	// Fatal kinds.
	KindDaemonNotConnected
	KindInvalidArgument
	KindInvalidAppInstanceID
	KindInvalidBindingType
	KindNoDeallocatorCallbackRegistered
	KindSharedMemoryObjectRegistrationFailed
	KindInvalidShmObjectHandle
	KindNoMoreSpaceForNewClient
	KindNoMoreSpaceForNewShmObject
	KindBadFileDescriptor
	KindDaemonConnectionFailed
	KindTraceJobAllocatorInitializationFailed
	KindFailedToProcessJobs
	KindTerminal
)

// fatalKinds is the set of ErrorKind values that are Fatal. Every kind not
// present here is Recoverable.
var fatalKinds = map[ErrorKind]bool{
	KindDaemonNotConnected:                     true,
	KindInvalidArgument:                        true,
	KindInvalidAppInstanceID:                   true,
	KindInvalidBindingType:                     true,
	KindNoDeallocatorCallbackRegistered:        true,
	KindSharedMemoryObjectRegistrationFailed:   true,
	KindInvalidShmObjectHandle:                 true,
	KindNoMoreSpaceForNewClient:                true,
	KindNoMoreSpaceForNewShmObject:             true,
	KindBadFileDescriptor:                      true,
	KindDaemonConnectionFailed:                 true,
	KindTraceJobAllocatorInitializationFailed:  true,
	KindFailedToProcessJobs:                    true,
	KindTerminal:                               true,
}

var kindNames = map[ErrorKind]string{
	KindNone:                                   "none",
	KindAtomicRingBufferFull:                   "atomic_ring_buffer_full",
	KindAtomicRingBufferEmpty:                  "atomic_ring_buffer_empty",
	KindAtomicRingBufferMaxRetries:             "atomic_ring_buffer_max_retries",
	KindModuleNotInitialized:                   "module_not_initialized",
	KindModuleInitialized:                      "module_initialized",
	KindCallbackAlreadyRegistered:              "callback_already_registered",
	KindNoFreeSlotToSaveCallback:               "no_free_slot_to_save_callback",
	KindClientNotFound:                         "client_not_found",
	KindSharedMemoryObjectAlreadyRegistered:    "shared_memory_object_already_registered",
	KindIndexOutOfBoundsInSharedList:           "index_out_of_bounds_in_shared_list",
	KindMessageSendFailed:                      "message_send_failed",
	KindWrongMessageID:                         "wrong_message_id",
	KindWrongClientID:                          "wrong_client_id",
	KindClientNameAlreadyUsed:                  "client_name_already_used",
	KindDispatchDestroyFailed:                  "dispatch_destroy_failed",
	KindWrongHandle:                            "wrong_handle",
	KindNoSpaceLeftForAllocation:               "no_space_left_for_allocation",
	KindDaemonNotConnected:                     "daemon_not_connected",
	KindInvalidArgument:                        "invalid_argument",
	KindInvalidAppInstanceID:                   "invalid_app_instance_id",
	KindInvalidBindingType:                     "invalid_binding_type",
	KindNoDeallocatorCallbackRegistered:        "no_deallocator_callback_registered",
	KindSharedMemoryObjectRegistrationFailed:   "shared_memory_object_registration_failed",
	KindInvalidShmObjectHandle:                 "invalid_shm_object_handle",
	KindNoMoreSpaceForNewClient:                "no_more_space_for_new_client",
	KindNoMoreSpaceForNewShmObject:             "no_more_space_for_new_shm_object",
	KindBadFileDescriptor:                      "bad_file_descriptor",
	KindDaemonConnectionFailed:                 "daemon_connection_failed",
	KindTraceJobAllocatorInitializationFailed:  "trace_job_allocator_initialization_failed",
	KindFailedToProcessJobs:                    "failed_to_process_jobs",
	KindTerminal:                               "terminal",
}

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown_error_kind(%d)", int(k))
}

// IsRecoverable reports whether kind is Recoverable (as opposed to Fatal).
// This is the public equivalent of the source's is_recoverable helper.
func (k ErrorKind) IsRecoverable() bool {
	return !fatalKinds[k]
}

// Error is the concrete error type returned throughout this package. It
// always carries a Kind, and optionally wraps an underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// NewError builds an *Error for kind with an optional formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an *Error for kind that wraps cause.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is / errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is lets two *Error values with the same Kind compare equal via errors.Is,
// regardless of message or cause, which is convenient in tests. A bare
// ErrorKind is not an error and cannot be passed to errors.Is; use KindOf
// to compare against one.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// KindOf extracts the ErrorKind from err, returning KindNone if err is nil
// or not a *Error (or does not wrap one).
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

// IsRecoverable reports whether err (if it is, or wraps, a *Error) carries a
// Recoverable kind. A nil error, or an error that is not a *Error, is
// treated as Recoverable since it carries no fatality information.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.IsRecoverable()
	}
	return true
}
