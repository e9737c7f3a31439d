package core

// upload_limiter.go bounds how many ingestions run at once.
//
// Ingestions and previews hold one slot of a weighted semaphore each.
// Callers queue in FIFO order for at most maxWait and then fail with
// ErrTooManyUploads. Drain takes every slot at once, so it returns only
// after in-flight work finishes and it holds back new work meanwhile.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyUploads is returned when no upload slot frees up within the
// wait timeout. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

const (
	// DefaultMaxConcurrentUploads is the default limit for parallel ingestions.
	DefaultMaxConcurrentUploads = 5

	// DefaultMaxWaitTime is how long a caller queues for a slot.
	DefaultMaxWaitTime = 30 * time.Second
)

// UploadLimiter is a FIFO slot pool for ingestion work.
type UploadLimiter struct {
	sem     *semaphore.Weighted
	slots   int
	maxWait time.Duration

	active  atomic.Int64
	waiting atomic.Int64
}

// NewUploadLimiter allows slots concurrent holders. Non-positive arguments
// fall back to the defaults.
func NewUploadLimiter(slots int, maxWait time.Duration) *UploadLimiter {
	if slots <= 0 {
		slots = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &UploadLimiter{
		sem:     semaphore.NewWeighted(int64(slots)),
		slots:   slots,
		maxWait: maxWait,
	}
}

// Acquire takes a slot, queueing for up to maxWait. A cancelled ctx wins
// over the wait timeout. Every successful Acquire needs one Release.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	if l.sem.TryAcquire(1) {
		l.active.Add(1)
		return nil
	}

	l.waiting.Add(1)
	defer l.waiting.Add(-1)

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyUploads
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes a slot only if one is free right now.
func (l *UploadLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *UploadLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of in-flight ingestions.
func (l *UploadLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *UploadLimiter) MaxConcurrent() int {
	return l.slots
}

// Available returns the number of free slots.
func (l *UploadLimiter) Available() int {
	return l.slots - l.ActiveCount()
}

// WaitForDrain blocks until every slot is free or ctx is done. Callers
// queued behind it wait until it returns.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, int64(l.slots)); err != nil {
		return err
	}
	l.sem.Release(int64(l.slots))
	return nil
}

// UploadLimiterStatus is a snapshot of the limiter's state.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Waiting       int `json:"waiting"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for health checks.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	active := l.ActiveCount()
	return UploadLimiterStatus{
		Active:        active,
		Waiting:       int(l.waiting.Load()),
		Available:     l.slots - active,
		MaxConcurrent: l.slots,
	}
}
