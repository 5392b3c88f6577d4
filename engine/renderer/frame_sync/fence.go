package frame_sync

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
)

// Fence is a monotonically increasing GPU progress counter observable from the CPU.
type Fence interface {
	// CompletedValue returns the highest value the GPU has signaled so far.
	//
	// Returns:
	//   - uint64: the last completed value
	CompletedValue() uint64

	// SetEventOnCompletion arranges for ev to be Set once the completed value reaches value.
	// If it already has, ev is Set immediately.
	//
	// Parameters:
	//   - value: the fence value to wait for
	//   - ev: the event to signal
	//
	// Returns:
	//   - error: a sync error if the fence was released or ev is nil
	SetEventOnCompletion(value uint64, ev *Event) error

	// Release frees the fence. Pending events are Set so no waiter blocks forever.
	Release()
}

// Queue is the submission side of a GPU queue.
type Queue interface {
	// ExecuteCommandList submits a closed command list.
	//
	// Parameters:
	//   - list: the closed command list to submit
	//
	// Returns:
	//   - error: an error if submission fails
	ExecuteCommandList(list *command.List) error

	// Signal enqueues a fence update to value that completes after all previously submitted work.
	//
	// Parameters:
	//   - f: the fence to signal
	//   - value: the value to signal
	//
	// Returns:
	//   - error: an error if the signal could not be enqueued
	Signal(f Fence, value uint64) error
}

// Presenter is the presentation side of a swap chain.
type Presenter interface {
	// Present queues the current back buffer for display.
	//
	// Returns:
	//   - error: an error if presentation fails
	Present() error

	// AcquireBackBuffer acquires the next back buffer and returns its index. The index is chosen by the
	// presentation engine; callers must not assume it advances cyclically.
	//
	// Returns:
	//   - uint32: the back buffer index
	//   - error: an error if no image could be acquired
	AcquireBackBuffer() (uint32, error)
}

type fenceWaiter struct {
	value uint64
	event *Event
}

// SoftFence is a CPU-side Fence. Values are completed explicitly via Complete, which makes it
// the building block for backends whose queues report completion through callbacks.
type SoftFence struct {
	mu        *sync.Mutex
	completed uint64
	waiters   []fenceWaiter
	released  bool
}

var _ Fence = &SoftFence{}

// NewSoftFence creates a SoftFence whose completed value starts at initial.
//
// Parameters:
//   - initial: the starting completed value
//
// Returns:
//   - *SoftFence: the new fence
func NewSoftFence(initial uint64) *SoftFence {
	return &SoftFence{
		mu:        &sync.Mutex{},
		completed: initial,
	}
}

func (f *SoftFence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

func (f *SoftFence) SetEventOnCompletion(value uint64, ev *Event) error {
	if ev == nil {
		return common.Errorf(common.KindSync, "fence.SetEventOnCompletion", "nil event")
	}

	f.mu.Lock()
	if f.released {
		f.mu.Unlock()
		return common.Errorf(common.KindSync, "fence.SetEventOnCompletion", "fence released")
	}
	if f.completed >= value {
		f.mu.Unlock()
		ev.Set()
		return nil
	}
	f.waiters = append(f.waiters, fenceWaiter{value: value, event: ev})
	f.mu.Unlock()
	return nil
}

// Complete advances the completed value to value and signals every waiter it satisfies.
// Values lower than the current completed value are ignored.
//
// Parameters:
//   - value: the newly completed fence value
func (f *SoftFence) Complete(value uint64) {
	f.mu.Lock()
	if value <= f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = value

	var ready []*Event
	pending := f.waiters[:0]
	for _, w := range f.waiters {
		if w.value <= value {
			ready = append(ready, w.event)
			continue
		}
		pending = append(pending, w)
	}
	f.waiters = pending
	f.mu.Unlock()

	for _, ev := range ready {
		ev.Set()
	}
}

// Pending returns the number of registered waiters not yet signaled.
func (f *SoftFence) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// Released reports whether Release has been called.
func (f *SoftFence) Released() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

func (f *SoftFence) Release() {
	f.mu.Lock()
	f.released = true
	waiters := f.waiters
	f.waiters = nil
	f.mu.Unlock()

	for _, w := range waiters {
		w.event.Set()
	}
}
