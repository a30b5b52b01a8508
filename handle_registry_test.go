package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRegistry_RegisterAndLookup(t *testing.T) {
	r := NewHandleRegistry(4)
	rec, err := r.RegisterLocal(5)
	require.NoError(t, err)
	assert.Equal(t, LocalShmHandle(1), rec.Local)
	assert.Equal(t, InvalidShmObjectHandle, rec.Remote())

	rec.SetRemote(42)
	remote, err := r.RemoteFor(rec.Local)
	require.NoError(t, err)
	assert.Equal(t, ShmObjectHandle(42), remote)
}

func TestHandleRegistry_RegisterLocal_AllowsDuplicateFD(t *testing.T) {
	r := NewHandleRegistry(4)
	a, err := r.RegisterLocal(1)
	require.NoError(t, err)
	b, err := r.RegisterLocal(1)
	require.NoError(t, err)
	assert.NotEqual(t, a.Local, b.Local)
	assert.True(t, r.IsRegistered(1))
}

func TestHandleRegistry_LocalHandlesMonotonic(t *testing.T) {
	r := NewHandleRegistry(4)
	a, err := r.RegisterLocal(1)
	require.NoError(t, err)
	b, err := r.RegisterLocal(2)
	require.NoError(t, err)
	assert.Less(t, a.Local, b.Local)
}

func TestHandleRegistry_FullReturnsFatal(t *testing.T) {
	r := NewHandleRegistry(1)
	_, err := r.RegisterLocal(1)
	require.NoError(t, err)

	_, err = r.RegisterLocal(2)
	require.Error(t, err)
	assert.Equal(t, KindNoMoreSpaceForNewShmObject, KindOf(err))
	assert.False(t, IsRecoverable(err))
}

func TestHandleRegistry_DeregisterLocal(t *testing.T) {
	r := NewHandleRegistry(2)
	rec, err := r.RegisterLocal(3)
	require.NoError(t, err)
	assert.True(t, r.IsRegistered(3))

	r.DeregisterLocal(rec.Local)
	assert.False(t, r.IsRegistered(3))

	_, err = r.RemoteFor(rec.Local)
	require.Error(t, err)
	assert.Equal(t, KindInvalidShmObjectHandle, KindOf(err))
}

func TestHandleRegistry_RemoteFor_NotRegistered(t *testing.T) {
	r := NewHandleRegistry(2)
	_, err := r.RemoteFor(99)
	require.Error(t, err)
	assert.Equal(t, KindInvalidShmObjectHandle, KindOf(err))
	assert.False(t, IsRecoverable(err))
}

func TestHandleRegistry_RemoteFor_InvalidRemoteIsFatal(t *testing.T) {
	r := NewHandleRegistry(2)
	rec, err := r.RegisterLocal(1)
	require.NoError(t, err)

	_, err = r.RemoteFor(rec.Local)
	require.Error(t, err)
	assert.Equal(t, KindInvalidShmObjectHandle, KindOf(err))
}

func TestHandleRegistry_InvalidateAllRemote(t *testing.T) {
	r := NewHandleRegistry(4)
	a, err := r.RegisterLocal(1)
	require.NoError(t, err)
	b, err := r.RegisterLocal(2)
	require.NoError(t, err)
	a.SetRemote(10)
	b.SetRemote(20)

	r.InvalidateAllRemote()
	assert.Equal(t, InvalidShmObjectHandle, a.Remote())
	assert.Equal(t, InvalidShmObjectHandle, b.Remote())
	assert.True(t, r.IsRegistered(1))
	assert.True(t, r.IsRegistered(2))
}
