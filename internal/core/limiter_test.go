package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func mustAcquire(t *testing.T, l *IngestLimiter) {
	t.Helper()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
}

func TestIngestLimiter_AcquireRelease(t *testing.T) {
	l := NewIngestLimiter(2, time.Second)
	ctx := context.Background()

	if got := l.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}
	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
	}
	if got := l.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := l.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	l.Release()
	l.Release()
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestIngestLimiter_BusyAfterMaxWait(t *testing.T) {
	l := NewIngestLimiter(1, 50*time.Millisecond)
	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer l.Release()

	start := time.Now()
	err := l.Acquire(ctx)
	if !errors.Is(err, ErrTooManyUploads) {
		t.Errorf("Acquire() = %v, want ErrTooManyUploads", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("gave up after %v, want about 50ms", elapsed)
	}
}

func TestIngestLimiter_ContextCancellation(t *testing.T) {
	l := NewIngestLimiter(1, 5*time.Second)
	mustAcquire(t, l)
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestIngestLimiter_NeverExceedsMax(t *testing.T) {
	const max = 3
	l := NewIngestLimiter(max, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	peak := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer l.Release()
			mu.Lock()
			if n := l.ActiveCount(); n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if peak > max {
		t.Errorf("peak active = %d, want <= %d", peak, max)
	}
}

func TestIngestLimiter_WaitForDrain(t *testing.T) {
	l := NewIngestLimiter(2, time.Second)
	mustAcquire(t, l)
	mustAcquire(t, l)

	done := make(chan error, 1)
	go func() { done <- l.WaitForDrain(context.Background()) }()

	l.Release()
	select {
	case <-done:
		t.Fatal("WaitForDrain returned with one slot held")
	case <-time.After(30 * time.Millisecond):
	}

	l.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForDrain did not return after all slots were released")
	}
}

func TestIngestLimiter_WaitForDrainCancelled(t *testing.T) {
	l := NewIngestLimiter(1, time.Second)
	mustAcquire(t, l)
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain() = %v, want DeadlineExceeded", err)
	}
}

func TestIngestLimiter_Defaults(t *testing.T) {
	l := NewIngestLimiter(0, 0)
	if got := l.MaxConcurrent(); got != DefaultMaxConcurrentUploads {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentUploads)
	}
	if st := l.Status(); st.Available != DefaultMaxConcurrentUploads || st.Active != 0 {
		t.Errorf("Status() = %+v", st)
	}
}
