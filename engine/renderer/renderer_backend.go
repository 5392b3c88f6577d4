package renderer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/frame_sync"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// BufferUsage selects how an upload buffer is read by the GPU.
type BufferUsage int

const (
	// BufferUsageVertex is a vertex buffer, written once.
	BufferUsageVertex BufferUsage = iota

	// BufferUsageConstant is a uniform buffer, rewritten every frame. Its size is aligned up to
	// common.ConstantBufferAlignment.
	BufferUsageConstant
)

func (u BufferUsage) String() string {
	switch u {
	case BufferUsageVertex:
		return "vertex"
	case BufferUsageConstant:
		return "constant"
	default:
		return "unknown"
	}
}

const (
	// MinBufferCount is the smallest supported swap chain.
	MinBufferCount = 2

	// MaxBufferCount is the largest supported swap chain.
	MaxBufferCount = frame_sync.MaxBackBuffers
)

// RendererBackend is a GPU API implementation: the device and its queue, the swap chain and the
// arenas holding every GPU object. All handles it returns index into those arenas.
type RendererBackend interface {
	frame_sync.Queue
	frame_sync.Presenter
	pipeline.Compiler

	// SurfaceSize returns the dimensions the swap chain was created with.
	//
	// Returns:
	//   - int: the width in pixels
	//   - int: the height in pixels
	SurfaceSize() (int, int)

	// BufferCount returns the number of swap chain images.
	//
	// Returns:
	//   - int: the back buffer count
	BufferCount() int

	// CurrentBackBuffer returns the index of the back buffer acquired last.
	//
	// Returns:
	//   - uint32: the back buffer index
	CurrentBackBuffer() uint32

	// CreateBuffer allocates a CPU-writable, GPU-readable buffer.
	//
	// Parameters:
	//   - label: debug label
	//   - size: size in bytes, already aligned by the caller
	//   - usage: how the GPU reads the buffer
	//
	// Returns:
	//   - command.BufferHandle: the buffer handle
	//   - error: an error if allocation fails
	CreateBuffer(label string, size uint64, usage BufferUsage) (command.BufferHandle, error)

	// WriteBuffer copies data into the buffer at offset.
	//
	// Parameters:
	//   - h: the buffer handle
	//   - offset: destination offset in bytes
	//   - data: the bytes to copy
	//
	// Returns:
	//   - error: an error if the handle is unknown or the write is out of bounds
	WriteBuffer(h command.BufferHandle, offset uint64, data []byte) error

	// ReleaseBuffer frees the buffer behind h. The handle is invalid afterwards.
	//
	// Parameters:
	//   - h: the buffer handle
	//
	// Returns:
	//   - error: an error if the handle is unknown or already released
	ReleaseBuffer(h command.BufferHandle) error

	// CreateFence creates a fence whose completed value starts at initial.
	//
	// Parameters:
	//   - initial: the starting completed value
	//
	// Returns:
	//   - frame_sync.Fence: the fence
	//   - error: an error if the fence cannot be created
	CreateFence(initial uint64) (frame_sync.Fence, error)

	// Release frees every GPU object in reverse order of creation. Callers must ensure the GPU is idle.
	Release()
}
