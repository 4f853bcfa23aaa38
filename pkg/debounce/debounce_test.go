package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerCoalescesBurst(t *testing.T) {
	d := New(50 * time.Millisecond)

	var calls int32
	var last int32
	done := make(chan struct{}, 1)
	for i := int32(1); i <= 5; i++ {
		value := i
		d.Trigger(func() {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&last, value)
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
	if got := atomic.LoadInt32(&last); got != 5 {
		t.Errorf("expected last trigger to win, got %d", got)
	}
}

func TestFlushRunsPendingImmediately(t *testing.T) {
	d := New(time.Hour)

	ran := false
	d.Trigger(func() { ran = true })
	if !d.Flush() {
		t.Fatal("Flush() = false, expected true")
	}
	if !ran {
		t.Error("Flush() did not run the pending call")
	}
	if d.Flush() {
		t.Error("second Flush() ran a call")
	}
}

func TestStopCancelsPending(t *testing.T) {
	d := New(20 * time.Millisecond)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Stop()

	time.Sleep(80 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("expected no calls after Stop, got %d", got)
	}
	if d.Flush() {
		t.Error("Flush() ran a call after Stop")
	}
}
