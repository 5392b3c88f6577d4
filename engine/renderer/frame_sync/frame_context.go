package frame_sync

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// MaxBackBuffers is the largest swap chain supported.
const MaxBackBuffers = 3

// FrameState is the position of a frame in its RECORDING -> SUBMITTED -> READY cycle.
type FrameState int

const (
	// FrameReady means the GPU has finished all submitted work and per-frame resources may be written.
	FrameReady FrameState = iota

	// FrameRecording means a command list is being recorded for the current back buffer.
	FrameRecording

	// FrameSubmitted means work has been submitted and presented and the fence has been signaled.
	FrameSubmitted
)

func (s FrameState) String() string {
	switch s {
	case FrameReady:
		return "ready"
	case FrameRecording:
		return "recording"
	case FrameSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("FrameState(%d)", int(s))
	}
}

// FrameContext is the synchronization state threaded from submit to wait.
type FrameContext struct {
	// Index is the current back buffer index as last reported by the swap chain.
	Index uint32
	// FenceValue is the last value signaled on the fence.
	FenceValue uint64
	// State is the current frame state.
	State FrameState
	// Frame counts submitted frames.
	Frame uint64

	// retired holds, per back buffer, the fence value signaled after its last use.
	retired [MaxBackBuffers]uint64
}

// NewFrameContext creates a FrameContext in the ready state for the given first back buffer.
//
// Parameters:
//   - index: the back buffer index acquired at initialization
//
// Returns:
//   - *FrameContext: the new frame context
func NewFrameContext(index uint32) *FrameContext {
	return &FrameContext{Index: index}
}

// BeginRecording moves the frame from ready to recording.
//
// Returns:
//   - error: a sync error if the frame is not ready
func (fc *FrameContext) BeginRecording() error {
	if fc.State != FrameReady {
		return common.Errorf(common.KindSync, "frame.BeginRecording", "frame is %s", fc.State)
	}
	if fc.Index >= MaxBackBuffers {
		return common.Errorf(common.KindSync, "frame.BeginRecording", "back buffer index %d out of range", fc.Index)
	}
	fc.State = FrameRecording
	return nil
}

// Writable reports whether the CPU may write resources read by the GPU. It is false while
// submitted work has not been waited on.
func (fc *FrameContext) Writable() bool {
	return fc.State != FrameSubmitted
}

// RetireValue returns the fence value that retires the last use of back buffer index.
//
// Parameters:
//   - index: the back buffer index
//
// Returns:
//   - uint64: the retiring fence value, 0 if the buffer was never used
func (fc *FrameContext) RetireValue(index uint32) uint64 {
	if index >= MaxBackBuffers {
		return 0
	}
	return fc.retired[index]
}

// CanReuse reports whether back buffer index is no longer referenced by in-flight GPU work.
//
// Parameters:
//   - index: the back buffer index
//   - completed: the fence's completed value
//
// Returns:
//   - bool: true if completed has reached the buffer's retire value
func (fc *FrameContext) CanReuse(index uint32, completed uint64) bool {
	if index >= MaxBackBuffers {
		return false
	}
	return completed >= fc.retired[index]
}
