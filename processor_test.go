package tracing

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, ringCapacity int) (*JobProcessor, *JobRing[JobPayload], *ClientRegistry, *[]JobPayload) {
	t.Helper()
	ring := NewJobRing[JobPayload](ringCapacity)
	clients := NewClientRegistry(4)
	callbacks := NewCallbackRegistry(4)
	var deallocated []JobPayload
	deallocator := func(loc SharedMemLocation, kind JobKind) error {
		deallocated = append(deallocated, JobPayload{Location: loc, Kind: kind})
		return nil
	}
	p := NewJobProcessor(ring, callbacks, clients, deallocator, NewCancelSignal(), zerolog.Nop())
	return p, ring, clients, &deallocated
}

func submit(t *testing.T, ring *JobRing[JobPayload], job JobPayload) {
	t.Helper()
	elem, err := ring.ReserveEmpty()
	require.NoError(t, err)
	*elem.Data() = job
	elem.MarkReady()
}

func TestJobProcessor_ProcessJobs_StaleLocalJobDeallocated(t *testing.T) {
	p, ring, _, deallocated := newTestProcessor(t, 4)

	job := JobPayload{
		OriginalContext: GlobalContextID{ClientID: 1, ContextID: 10},
		Kind:            JobKindLocal,
		Finished:        nil, // no correlation source: always stale
	}
	submit(t, ring, job)

	require.NoError(t, p.ProcessJobs())
	require.Len(t, *deallocated, 1)
	assert.Equal(t, job.Kind, (*deallocated)[0].Kind)
	assert.Equal(t, 4, ring.EmptyCount())
}

func TestJobProcessor_ProcessJobs_StopsAtInFlightJob(t *testing.T) {
	p, ring, _, deallocated := newTestProcessor(t, 4)

	inFlight := GlobalContextID{ClientID: 1, ContextID: 5}
	job := JobPayload{
		OriginalContext: inFlight,
		Kind:            JobKindLocal,
		Finished:        func() TraceContextID { return inFlight.ContextID }, // matches: still in flight
	}
	submit(t, ring, job)

	require.NoError(t, p.ProcessJobs())
	assert.Empty(t, *deallocated)
	assert.Equal(t, 3, ring.EmptyCount()) // reserved but not released
}

func TestJobProcessor_ProcessJobs_SharedJobDispatchesCallback(t *testing.T) {
	p, ring, clients, _ := newTestProcessor(t, 4)

	rec, err := clients.RegisterLocal(BindingLoLa, appID("client-a"))
	require.NoError(t, err)
	rec.SetRemoteID(9)

	var gotContext TraceContextID
	require.NoError(t, p.SaveCallback(rec.LocalID, func(ctx TraceContextID) { gotContext = ctx }))

	job := JobPayload{
		OriginalContext: GlobalContextID{ClientID: 9, ContextID: 123},
		Kind:            JobKindShared,
		Finished:        nil,
	}
	submit(t, ring, job)

	require.NoError(t, p.ProcessJobs())
	assert.Equal(t, TraceContextID(123), gotContext)
}

func TestJobProcessor_ProcessJobs_LocalJobDoesNotDispatchCallback(t *testing.T) {
	p, ring, clients, _ := newTestProcessor(t, 4)

	rec, err := clients.RegisterLocal(BindingLoLa, appID("client-a"))
	require.NoError(t, err)
	rec.SetRemoteID(9)

	called := false
	require.NoError(t, p.SaveCallback(rec.LocalID, func(TraceContextID) { called = true }))

	job := JobPayload{
		OriginalContext: GlobalContextID{ClientID: 9, ContextID: 1},
		Kind:            JobKindLocal,
	}
	submit(t, ring, job)

	require.NoError(t, p.ProcessJobs())
	assert.False(t, called)
}

func TestJobProcessor_ProcessJobs_EmptyRingIsNoop(t *testing.T) {
	p, _, _, deallocated := newTestProcessor(t, 4)
	require.NoError(t, p.ProcessJobs())
	assert.Empty(t, *deallocated)
}

func TestJobProcessor_CleanPendingJobs_IgnoresCorrelation(t *testing.T) {
	p, ring, _, deallocated := newTestProcessor(t, 4)

	inFlight := GlobalContextID{ClientID: 1, ContextID: 5}
	job := JobPayload{
		OriginalContext: inFlight,
		Kind:            JobKindLocal,
		Finished:        func() TraceContextID { return inFlight.ContextID },
	}
	submit(t, ring, job)

	require.NoError(t, p.CleanPendingJobs())
	require.Len(t, *deallocated, 1)
	assert.Equal(t, 4, ring.EmptyCount())
}

func TestJobProcessor_ProcessJobs_CancelStopsPromptly(t *testing.T) {
	ring := NewJobRing[JobPayload](4)
	clients := NewClientRegistry(4)
	callbacks := NewCallbackRegistry(4)
	var deallocated []JobPayload
	cancel := NewCancelSignal()
	cancel.Cancel()

	p := NewJobProcessor(ring, callbacks, clients, func(loc SharedMemLocation, kind JobKind) error {
		deallocated = append(deallocated, JobPayload{Location: loc, Kind: kind})
		return nil
	}, cancel, zerolog.Nop())

	submit(t, ring, JobPayload{OriginalContext: GlobalContextID{ClientID: 1, ContextID: 1}, Kind: JobKindLocal})

	require.NoError(t, p.ProcessJobs())
	assert.Empty(t, deallocated)
}

// TestJobProcessor_ProcessJobs_NoDeallocatorConfigured covers spec
// §4.5/§7's runtime KindNoDeallocatorCallbackRegistered contract: a
// processor constructed with a nil deallocator does not panic, but
// reports the condition the moment ProcessJobs is actually called.
func TestJobProcessor_ProcessJobs_NoDeallocatorConfigured(t *testing.T) {
	ring := NewJobRing[JobPayload](2)
	clients := NewClientRegistry(2)
	callbacks := NewCallbackRegistry(2)
	p := NewJobProcessor(ring, callbacks, clients, nil, NewCancelSignal(), zerolog.Nop())

	err := p.ProcessJobs()
	require.Error(t, err)
	assert.Equal(t, KindNoDeallocatorCallbackRegistered, KindOf(err))
	assert.False(t, IsRecoverable(err))

	err = p.CleanPendingJobs()
	require.Error(t, err)
	assert.Equal(t, KindNoDeallocatorCallbackRegistered, KindOf(err))
}

// TestJobProcessor_ProcessJobs_DeallocatorErrorStopsProcessing covers spec
// §4.5 step 2 / §7's DeallocFail case: a fatal deallocator error is
// surfaced immediately, the completion callback for that job never fires,
// and the ring head is not released.
func TestJobProcessor_ProcessJobs_DeallocatorErrorStopsProcessing(t *testing.T) {
	ring := NewJobRing[JobPayload](4)
	clients := NewClientRegistry(4)
	callbacks := NewCallbackRegistry(4)

	rec, err := clients.RegisterLocal(BindingLoLa, appID("client-a"))
	require.NoError(t, err)
	rec.SetRemoteID(9)

	called := false
	failure := NewError(KindBadFileDescriptor, "boom")
	p := NewJobProcessor(ring, callbacks, clients, func(SharedMemLocation, JobKind) error {
		return failure
	}, NewCancelSignal(), zerolog.Nop())
	require.NoError(t, p.SaveCallback(rec.LocalID, func(TraceContextID) { called = true }))

	submit(t, ring, JobPayload{
		OriginalContext: GlobalContextID{ClientID: 9, ContextID: 1},
		Kind:            JobKindShared,
	})

	err = p.ProcessJobs()
	require.Error(t, err)
	assert.Equal(t, KindFailedToProcessJobs, KindOf(err))
	assert.ErrorIs(t, err, failure)
	assert.False(t, called)
	assert.Equal(t, 3, ring.EmptyCount()) // head not released after a fatal deallocator error
}
