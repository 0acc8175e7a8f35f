package app

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerTicksThenExpires(t *testing.T) {
	timer := NewTimerWithInterval(time.Millisecond)

	ticks := make(chan int, 10)
	expired := make(chan struct{}, 2)

	timer.Start(5, func(remaining int) { ticks <- remaining }, func() { expired <- struct{}{} })

	want := []int{4, 3, 2, 1, 0}
	for i, expect := range want {
		select {
		case got := <-ticks:
			if got != expect {
				t.Fatalf("tick %d: got %d, want %d", i, got, expect)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for tick %d", i)
		}
	}

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatalf("expected expiry after final tick")
	}

	// No further ticks or expiries.
	select {
	case got := <-ticks:
		t.Fatalf("unexpected extra tick %d", got)
	case <-expired:
		t.Fatalf("expiry fired twice")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestTimerCancelSuppressesExpiry(t *testing.T) {
	timer := NewTimerWithInterval(10 * time.Millisecond)

	var expirations int32
	timer.Start(100, nil, func() { atomic.AddInt32(&expirations, 1) })
	timer.Cancel()
	timer.Cancel() // idempotent

	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&expirations); n != 0 {
		t.Fatalf("expected no expiry after cancel, got %d", n)
	}
}

func TestTimerRestartCancelsPreviousRun(t *testing.T) {
	timer := NewTimerWithInterval(time.Millisecond)

	var firstExpired int32
	timer.Start(1000, nil, func() { atomic.AddInt32(&firstExpired, 1) })

	expired := make(chan struct{}, 1)
	timer.Start(2, nil, func() { expired <- struct{}{} })

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatalf("second run never expired")
	}
	if n := atomic.LoadInt32(&firstExpired); n != 0 {
		t.Fatalf("first run should have been cancelled, expired %d times", n)
	}
}

func TestTimerZeroDurationExpiresImmediately(t *testing.T) {
	timer := NewTimerWithInterval(time.Millisecond)

	expired := make(chan struct{}, 1)
	timer.Start(0, nil, func() { expired <- struct{}{} })

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatalf("expected immediate expiry for zero duration")
	}
}
