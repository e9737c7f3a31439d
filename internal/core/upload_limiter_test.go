package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadLimiterSlots(t *testing.T) {
	l := NewUploadLimiter(2, time.Second)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
	assert.Equal(t, UploadLimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}, l.Status())

	l.Release()
	l.Release()
	assert.Equal(t, 0, l.ActiveCount())
	assert.Equal(t, 2, l.Available())
}

func TestUploadLimiterDefaults(t *testing.T) {
	l := NewUploadLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentUploads, l.MaxConcurrent())
	assert.Equal(t, DefaultMaxWaitTime, l.maxWait)
}

func TestUploadLimiterTimesOut(t *testing.T) {
	l := NewUploadLimiter(1, 30*time.Millisecond)
	require.True(t, l.TryAcquire())
	defer l.Release()

	start := time.Now()
	err := l.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrTooManyUploads)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, 0, l.Status().Waiting)
}

func TestUploadLimiterCallerCancel(t *testing.T) {
	l := NewUploadLimiter(1, time.Minute)
	require.True(t, l.TryAcquire())
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)
}

func TestUploadLimiterQueuedCallerGetsFreedSlot(t *testing.T) {
	l := NewUploadLimiter(1, time.Second)
	require.True(t, l.TryAcquire())

	acquired := make(chan error, 1)
	go func() { acquired <- l.Acquire(context.Background()) }()

	require.Eventually(t, func() bool { return l.Status().Waiting == 1 }, time.Second, 5*time.Millisecond)
	l.Release()

	require.NoError(t, <-acquired)
	assert.Equal(t, 1, l.ActiveCount())
	l.Release()
}

func TestUploadLimiterWaitForDrain(t *testing.T) {
	l := NewUploadLimiter(3, time.Second)
	for i := 0; i < 3; i++ {
		require.True(t, l.TryAcquire())
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(time.Duration(10*(i+1)) * time.Millisecond)
			l.Release()
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.WaitForDrain(ctx))
	assert.Equal(t, 0, l.ActiveCount())
	wg.Wait()

	// Slots are usable again after draining.
	assert.True(t, l.TryAcquire())
	l.Release()
}

func TestUploadLimiterWaitForDrainTimeout(t *testing.T) {
	l := NewUploadLimiter(1, time.Second)
	require.True(t, l.TryAcquire())
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.WaitForDrain(ctx), context.DeadlineExceeded)
}
