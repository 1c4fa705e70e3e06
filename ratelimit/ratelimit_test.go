package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(false, 1, time.Second)

	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("disabled limiter should never wait")
	}
}

func TestLimiter_WithinWindow(t *testing.T) {
	l := NewLimiter(true, 3, time.Second)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("requests within the window should not wait")
	}
	if got := l.Pending(); got != 3 {
		t.Errorf("expected 3 recorded timestamps, got %d", got)
	}
}

func TestLimiter_ExtraRequestDelays(t *testing.T) {
	// Window of 2 per 500ms: the 3rd request must wait for the oldest
	// timestamp to age out.
	l := NewLimiter(true, 2, 500*time.Millisecond)

	l.Acquire(context.Background())
	l.Acquire(context.Background())

	start := time.Now()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 400*time.Millisecond {
		t.Errorf("third request should wait ~500ms, waited %v", elapsed)
	}
}

func TestLimiter_WindowSlides(t *testing.T) {
	l := NewLimiter(true, 2, 300*time.Millisecond)

	l.Acquire(context.Background())
	l.Acquire(context.Background())
	time.Sleep(350 * time.Millisecond)

	start := time.Now()
	l.Acquire(context.Background())
	l.Acquire(context.Background())
	if time.Since(start) > 100*time.Millisecond {
		t.Error("requests after the window slid should not wait")
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	l := NewLimiter(true, 1, 5*time.Second)
	l.Acquire(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestLimiter_NoCallerStarves(t *testing.T) {
	// 20 concurrent callers against a 5-per-100ms window: everyone must get
	// through eventually.
	l := NewLimiter(true, 5, 100*time.Millisecond)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.Acquire(context.Background())
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("callers starved waiting for the limiter")
	}
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
}

func TestRegistry_PerSource(t *testing.T) {
	r := NewRegistry()
	r.Register("musicbrainz", 1, 200*time.Millisecond)

	// Unregistered source is never limited.
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := r.Acquire(context.Background(), "tidal"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("unregistered source should not be limited")
	}

	// Registered source enforces its window.
	r.Acquire(context.Background(), "musicbrainz")
	start = time.Now()
	r.Acquire(context.Background(), "musicbrainz")
	if time.Since(start) < 150*time.Millisecond {
		t.Error("registered source should enforce its window")
	}
}
