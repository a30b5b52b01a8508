package tracing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_IsRecoverable(t *testing.T) {
	assert.True(t, KindAtomicRingBufferFull.IsRecoverable())
	assert.True(t, KindClientNotFound.IsRecoverable())
	assert.False(t, KindNoMoreSpaceForNewClient.IsRecoverable())
	assert.False(t, KindTerminal.IsRecoverable())
}

func TestError_Error(t *testing.T) {
	e := NewError(KindClientNotFound, "local id %d", 7)
	assert.Equal(t, "client_not_found: local id 7", e.Error())

	wrapped := WrapError(KindFailedToProcessJobs, fmt.Errorf("boom"), "deallocate")
	assert.Equal(t, "failed_to_process_jobs: deallocate: boom", wrapped.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindNone, KindOf(fmt.Errorf("plain")))
	assert.Equal(t, KindClientNotFound, KindOf(NewError(KindClientNotFound, "")))

	wrapped := fmt.Errorf("context: %w", NewError(KindWrongHandle, "bad handle"))
	assert.Equal(t, KindWrongHandle, KindOf(wrapped))
}

func TestIsRecoverable_Package(t *testing.T) {
	assert.True(t, IsRecoverable(nil))
	assert.True(t, IsRecoverable(fmt.Errorf("plain error, no kind")))
	assert.True(t, IsRecoverable(NewError(KindAtomicRingBufferEmpty, "")))
	assert.False(t, IsRecoverable(NewError(KindInvalidArgument, "")))
}

func TestError_ErrorsIs(t *testing.T) {
	base := NewError(KindCallbackAlreadyRegistered, "client 3")
	wrapped := fmt.Errorf("save callback: %w", base)
	assert.True(t, errors.Is(wrapped, NewError(KindCallbackAlreadyRegistered, "")))
	assert.False(t, errors.Is(wrapped, NewError(KindClientNotFound, "")))
}
