package frame_sync

import (
	"testing"
	"time"
)

func TestSoftFenceCompletesWaiters(t *testing.T) {
	f := NewSoftFence(0)
	early, late := NewEvent(), NewEvent()

	if err := f.SetEventOnCompletion(1, early); err != nil {
		t.Fatal(err)
	}
	if err := f.SetEventOnCompletion(3, late); err != nil {
		t.Fatal(err)
	}

	f.Complete(2)
	if !early.Signaled() {
		t.Fatal("waiter for 1 not signaled at 2")
	}
	if late.Signaled() {
		t.Fatal("waiter for 3 signaled at 2")
	}
	if f.Pending() != 1 {
		t.Fatalf("pending = %d", f.Pending())
	}

	f.Complete(1)
	if f.CompletedValue() != 2 {
		t.Fatalf("completed value went backwards: %d", f.CompletedValue())
	}

	f.Complete(3)
	if !late.Signaled() || f.Pending() != 0 {
		t.Fatal("waiter for 3 not signaled")
	}
}

func TestSoftFenceAlreadyCompleted(t *testing.T) {
	f := NewSoftFence(5)
	ev := NewEvent()
	if err := f.SetEventOnCompletion(4, ev); err != nil {
		t.Fatal(err)
	}
	if !ev.Signaled() {
		t.Fatal("event not set for a value already reached")
	}
	if err := f.SetEventOnCompletion(1, nil); err == nil {
		t.Fatal("nil event accepted")
	}
}

func TestSoftFenceReleaseWakesWaiters(t *testing.T) {
	f := NewSoftFence(0)
	ev := NewEvent()
	if err := f.SetEventOnCompletion(10, ev); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		ev.Wait()
		close(done)
	}()

	f.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter still blocked after Release")
	}
	if err := f.SetEventOnCompletion(11, NewEvent()); err == nil {
		t.Fatal("released fence accepted a waiter")
	}
}

func TestEventAutoReset(t *testing.T) {
	ev := NewEvent()
	ev.Set()
	ev.Set()
	ev.Wait()
	if ev.Signaled() {
		t.Fatal("signals accumulated beyond one")
	}

	ev.Close()
	ev.Set()
	if ev.Signaled() || !ev.Closed() {
		t.Fatal("closed event accepted a Set")
	}
}

func TestFrameContextRetirement(t *testing.T) {
	fc := NewFrameContext(1)
	if !fc.CanReuse(1, 0) {
		t.Fatal("unused buffer not reusable")
	}
	fc.retired[1] = 4
	if fc.CanReuse(1, 3) {
		t.Fatal("buffer reusable before its retire value")
	}
	if !fc.CanReuse(1, 4) {
		t.Fatal("buffer not reusable at its retire value")
	}
	if fc.CanReuse(MaxBackBuffers, 100) {
		t.Fatal("out of range index reusable")
	}

	fc.Index = MaxBackBuffers
	if err := fc.BeginRecording(); err == nil {
		t.Fatal("out of range index accepted")
	}
}
