package core

// limiter.go bounds how many spreadsheets are decoded at once.
//
// Decoding an .xlsx holds the whole workbook in memory, so the server caps
// parallel decodes. A request that cannot get a slot within maxWait fails
// with ErrTooManyUploads. WaitForDrain lets shutdown wait for in-flight
// decodes.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyUploads is returned when every decode slot stays busy for the
// whole wait period. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many uploads in progress, please try again later")

const (
	DefaultMaxConcurrentUploads = 5
	DefaultMaxWaitTime          = 30 * time.Second
)

// IngestLimiter is a counting semaphore with a drain signal.
type IngestLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// LimiterStatus is a point-in-time view of an IngestLimiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// NewIngestLimiter allows maxConcurrent decodes; waiters give up after maxWait.
// Non-positive arguments select the defaults.
func NewIngestLimiter(maxConcurrent int, maxWait time.Duration) *IngestLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	idle := make(chan struct{})
	close(idle)
	return &IngestLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire takes a slot. It returns ErrTooManyUploads after maxWait, or the
// context error if ctx ends first. Every successful Acquire must be paired
// with Release.
func (l *IngestLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.enter()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyUploads
	}
}

// Release returns a slot taken by Acquire.
func (l *IngestLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()
	<-l.slots
}

func (l *IngestLimiter) enter() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// ActiveCount returns the number of held slots.
func (l *IngestLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *IngestLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *IngestLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no slot is held or ctx ends.
func (l *IngestLimiter) WaitForDrain(ctx context.Context) error {
	for {
		l.mu.Lock()
		idle, active := l.idle, l.active
		l.mu.Unlock()
		if active == 0 {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Status reports the limiter state for the health endpoint.
func (l *IngestLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
