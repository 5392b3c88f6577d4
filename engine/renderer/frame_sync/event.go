package frame_sync

import "sync"

// Event is an auto-reset wait primitive. Set releases exactly one pending or future Wait;
// signals do not accumulate beyond one.
type Event struct {
	mu     *sync.Mutex
	ch     chan struct{}
	closed bool
}

// NewEvent creates an unsignaled Event.
//
// Returns:
//   - *Event: the new event
func NewEvent() *Event {
	return &Event{
		mu: &sync.Mutex{},
		ch: make(chan struct{}, 1),
	}
}

// Set signals the event. Setting an already signaled or closed event is a no-op.
func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the event is signaled and resets it. There is no timeout.
func (e *Event) Wait() {
	<-e.ch
}

// Signaled reports whether a Set is pending without consuming it.
func (e *Event) Signaled() bool {
	return len(e.ch) > 0
}

// Close releases the event. Further Sets are ignored. Close is idempotent.
func (e *Event) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// Closed reports whether Close has been called.
func (e *Event) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
