package renderer

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/frame_sync"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuFence completes values through Queue.OnSubmittedWorkDone callbacks. wgpu only runs those
// callbacks while the device is polled, so a wait polls the device until the queue drains.
type wgpuFence struct {
	*frame_sync.SoftFence

	device   *wgpu.Device
	signaled uint64
}

var _ frame_sync.Fence = &wgpuFence{}

func newWGPUFence(device *wgpu.Device, initial uint64) *wgpuFence {
	return &wgpuFence{
		SoftFence: frame_sync.NewSoftFence(initial),
		device:    device,
		signaled:  initial,
	}
}

// signal registers the completion callback for value on queue.
func (f *wgpuFence) signal(queue *wgpu.Queue, value uint64) error {
	if value <= f.signaled {
		return common.Errorf(common.KindSync, "wgpuFence.signal", "value %d does not advance past %d", value, f.signaled)
	}
	f.signaled = value
	queue.OnSubmittedWorkDone(func(wgpu.QueueWorkDoneStatus) {
		f.Complete(value)
	})
	return nil
}

func (f *wgpuFence) SetEventOnCompletion(value uint64, ev *frame_sync.Event) error {
	if value > f.signaled {
		return common.Errorf(common.KindSync, "wgpuFence.SetEventOnCompletion", "value %d was never signaled (last %d)", value, f.signaled)
	}
	if f.CompletedValue() < value && !f.Released() {
		f.device.Poll(true, nil)
		// A blocking poll returns once the queue is empty, which retires everything signaled so far.
		f.Complete(f.signaled)
	}
	return f.SoftFence.SetEventOnCompletion(value, ev)
}
