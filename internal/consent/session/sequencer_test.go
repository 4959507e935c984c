package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "consentmgr/pkg/domain"
)

// queuedBehind reports whether a writer other than prev now owns the tail for
// purposeID, meaning it has queued behind prev.
func (s *writeSequencer) queuedBehind(purposeID id.PurposeID, prev chan struct{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tail, ok := s.tails[purposeID]
	return ok && tail != prev
}

func (s *writeSequencer) tail(purposeID id.PurposeID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tails[purposeID]
}

func TestSequencerOrdersWritesPerPurpose(t *testing.T) {
	seq := newWriteSequencer()
	ctx := context.Background()

	releaseA, err := seq.acquire(ctx, 1)
	require.NoError(t, err)
	tailA := seq.tail(1)

	order := make(chan string, 2)
	releaseB := make(chan func(), 1)
	go func() {
		rel, err := seq.acquire(ctx, 1)
		assert.NoError(t, err)
		order <- "B"
		releaseB <- rel
	}()
	require.Eventually(t, func() bool { return seq.queuedBehind(1, tailA) }, time.Second, time.Millisecond)
	tailB := seq.tail(1)

	go func() {
		rel, err := seq.acquire(ctx, 1)
		assert.NoError(t, err)
		order <- "C"
		rel()
	}()
	require.Eventually(t, func() bool { return seq.queuedBehind(1, tailB) }, time.Second, time.Millisecond)

	select {
	case got := <-order:
		t.Fatalf("%s acquired while A held the purpose", got)
	case <-time.After(20 * time.Millisecond):
	}

	releaseA()
	assert.Equal(t, "B", <-order)
	(<-releaseB)()
	assert.Equal(t, "C", <-order)
}

func TestSequencerIndependentPurposesDoNotBlock(t *testing.T) {
	seq := newWriteSequencer()
	ctx := context.Background()

	release1, err := seq.acquire(ctx, 1)
	require.NoError(t, err)
	defer release1()

	done := make(chan struct{})
	go func() {
		rel, err := seq.acquire(ctx, 2)
		assert.NoError(t, err)
		rel()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purpose 2 blocked behind purpose 1")
	}
}

func TestSequencerBulkWaitsForEarlierAndBlocksLater(t *testing.T) {
	seq := newWriteSequencer()
	ctx := context.Background()

	release1, err := seq.acquire(ctx, 1)
	require.NoError(t, err)

	bulkAcquired := make(chan func(), 1)
	go func() {
		rel, err := seq.acquireAll(ctx)
		assert.NoError(t, err)
		bulkAcquired <- rel
	}()
	require.Eventually(t, func() bool {
		seq.mu.Lock()
		defer seq.mu.Unlock()
		return seq.bulk != nil
	}, time.Second, time.Millisecond)

	laterAcquired := make(chan struct{})
	go func() {
		rel, err := seq.acquire(ctx, 2)
		assert.NoError(t, err)
		close(laterAcquired)
		rel()
	}()

	select {
	case <-bulkAcquired:
		t.Fatal("bulk acquired while an earlier write was in flight")
	case <-laterAcquired:
		t.Fatal("later write overtook the bulk write")
	case <-time.After(20 * time.Millisecond):
	}

	release1()
	releaseBulk := <-bulkAcquired
	select {
	case <-laterAcquired:
		t.Fatal("later write ran during the bulk write")
	case <-time.After(20 * time.Millisecond):
	}
	releaseBulk()
	<-laterAcquired
}

func TestSequencerCancelledWaiterKeepsOrder(t *testing.T) {
	seq := newWriteSequencer()

	releaseA, err := seq.acquire(context.Background(), 1)
	require.NoError(t, err)
	tailA := seq.tail(1)

	ctx, cancel := context.WithCancel(context.Background())
	errB := make(chan error, 1)
	go func() {
		_, err := seq.acquire(ctx, 1)
		errB <- err
	}()
	require.Eventually(t, func() bool { return seq.queuedBehind(1, tailA) }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errB, context.Canceled)

	acquiredC := make(chan struct{})
	go func() {
		rel, err := seq.acquire(context.Background(), 1)
		assert.NoError(t, err)
		close(acquiredC)
		rel()
	}()
	select {
	case <-acquiredC:
		t.Fatal("C overtook A after B was cancelled")
	case <-time.After(20 * time.Millisecond):
	}
	releaseA()
	<-acquiredC
}
