package frame_sync

import (
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
	"github.com/loov/hrtime"
)

// Synchronizer serializes CPU and GPU work one frame at a time. Each frame is submitted, presented
// and fenced, and the CPU blocks until the GPU reaches the fence before the next frame is recorded.
type Synchronizer struct {
	queue     Queue
	presenter Presenter
	fence     Fence
	event     *Event
	closed    bool

	onWait func(d time.Duration)
}

// SynchronizerOption is a functional option applied to a Synchronizer during construction.
type SynchronizerOption func(*Synchronizer)

// WithWaitObserver registers a callback receiving the duration of every blocking fence wait.
//
// Parameters:
//   - fn: the observer, called on the waiting goroutine
//
// Returns:
//   - SynchronizerOption: a function that applies the observer to a Synchronizer
func WithWaitObserver(fn func(d time.Duration)) SynchronizerOption {
	return func(s *Synchronizer) {
		s.onWait = fn
	}
}

// NewSynchronizer creates a Synchronizer and its wait event.
//
// Parameters:
//   - queue: the queue frames are submitted to
//   - presenter: the swap chain frames are presented to
//   - fence: the fence signaled after each frame
//   - options: variadic list of SynchronizerOption functions
//
// Returns:
//   - *Synchronizer: the new synchronizer
//   - error: a sync error if any collaborator is nil
func NewSynchronizer(queue Queue, presenter Presenter, fence Fence, options ...SynchronizerOption) (*Synchronizer, error) {
	if queue == nil || presenter == nil || fence == nil {
		return nil, common.Errorf(common.KindSync, "frame_sync.NewSynchronizer", "queue, presenter and fence are required")
	}
	s := &Synchronizer{
		queue:     queue,
		presenter: presenter,
		fence:     fence,
		event:     NewEvent(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Fence returns the fence the synchronizer signals.
func (s *Synchronizer) Fence() Fence {
	return s.fence
}

// SubmitAndPresent submits the closed list, presents the current back buffer and signals the fence
// with the next value. The frame moves from recording to submitted.
//
// Parameters:
//   - fc: the frame context, which must be recording
//   - list: the closed command list for the frame
//
// Returns:
//   - error: a submit error if execution or presentation fails, a sync error for an illegal state or a failed signal
func (s *Synchronizer) SubmitAndPresent(fc *FrameContext, list *command.List) error {
	const op = "frame_sync.SubmitAndPresent"
	if s.closed {
		return common.Errorf(common.KindSync, op, "synchronizer closed")
	}
	if fc.State != FrameRecording {
		return common.Errorf(common.KindSync, op, "frame is %s, want %s", fc.State, FrameRecording)
	}
	if list == nil || !list.Closed() {
		return common.Errorf(common.KindSubmit, op, "command list is not closed")
	}

	if err := s.queue.ExecuteCommandList(list); err != nil {
		return common.NewError(common.KindSubmit, op, err)
	}
	if err := s.presenter.Present(); err != nil {
		return common.NewError(common.KindSubmit, op, err)
	}

	next := fc.FenceValue + 1
	if err := s.queue.Signal(s.fence, next); err != nil {
		return common.NewError(common.KindSync, op, err)
	}

	fc.FenceValue = next
	fc.retired[fc.Index] = next
	fc.State = FrameSubmitted
	fc.Frame++
	return nil
}

// WaitForGPU blocks until the fence reaches the frame's signaled value, then re-queries the swap
// chain for the next back buffer. The frame moves from submitted to ready. Waiting on a frame that
// is already ready only re-checks the fence.
//
// Parameters:
//   - fc: the frame context, which must not be recording
//
// Returns:
//   - error: a sync error for an illegal state or a failed wait, a submit error if no back buffer could be acquired
func (s *Synchronizer) WaitForGPU(fc *FrameContext) error {
	const op = "frame_sync.WaitForGPU"
	if s.closed {
		return common.Errorf(common.KindSync, op, "synchronizer closed")
	}
	if fc.State == FrameRecording {
		return common.Errorf(common.KindSync, op, "frame is still recording")
	}

	if err := s.waitFor(fc.FenceValue); err != nil {
		return err
	}
	if fc.State != FrameSubmitted {
		return nil
	}

	index, err := s.presenter.AcquireBackBuffer()
	if err != nil {
		return common.NewError(common.KindSubmit, op, err)
	}
	if !fc.CanReuse(index, s.fence.CompletedValue()) {
		return common.Errorf(common.KindSync, op, "back buffer %d still in flight (retired at %d, completed %d)",
			index, fc.RetireValue(index), s.fence.CompletedValue())
	}

	fc.Index = index
	fc.State = FrameReady
	return nil
}

// Close forces a final wait for all submitted work and releases the wait event. Close is idempotent.
//
// Parameters:
//   - fc: the frame context of the last frame, may be nil if nothing was submitted
//
// Returns:
//   - error: a sync error if the final wait fails
func (s *Synchronizer) Close(fc *FrameContext) error {
	if s.closed {
		return nil
	}
	var err error
	if fc != nil {
		err = s.waitFor(fc.FenceValue)
		if err == nil && fc.State == FrameSubmitted {
			fc.State = FrameReady
		}
	}
	s.event.Close()
	s.closed = true
	return err
}

// Closed reports whether Close has been called.
func (s *Synchronizer) Closed() bool {
	return s.closed
}

func (s *Synchronizer) waitFor(value uint64) error {
	if s.fence.CompletedValue() >= value {
		return nil
	}

	start := hrtime.Now()
	if err := s.fence.SetEventOnCompletion(value, s.event); err != nil {
		return common.NewError(common.KindSync, "frame_sync.wait", err)
	}
	s.event.Wait()

	if s.fence.CompletedValue() < value {
		return common.Errorf(common.KindSync, "frame_sync.wait", "woken before fence reached %d", value)
	}
	if s.onWait != nil {
		s.onWait(hrtime.Since(start))
	}
	return nil
}
