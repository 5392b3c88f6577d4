package renderer

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/frame_sync"
	"github.com/go-gl/mathgl/mgl32"
)

// bufferBackend is the part of a RendererBackend the uploader needs.
type bufferBackend interface {
	CreateBuffer(label string, size uint64, usage BufferUsage) (command.BufferHandle, error)
	WriteBuffer(h command.BufferHandle, offset uint64, data []byte) error
	ReleaseBuffer(h command.BufferHandle) error
}

type uploadBuffer struct {
	label   string
	size    uint64
	usage   BufferUsage
	written bool
}

// ResourceUploader creates upload buffers and copies CPU data into them. Vertex buffers are written
// exactly once; constant buffers are rewritten every frame, but only while no GPU work is in flight.
type ResourceUploader struct {
	backend bufferBackend
	buffers map[command.BufferHandle]*uploadBuffer
}

// NewResourceUploader creates a ResourceUploader on top of a backend.
//
// Parameters:
//   - backend: the backend allocating and writing buffers
//
// Returns:
//   - *ResourceUploader: the new uploader
func NewResourceUploader(backend bufferBackend) *ResourceUploader {
	return &ResourceUploader{
		backend: backend,
		buffers: make(map[command.BufferHandle]*uploadBuffer),
	}
}

// CreateUploadBuffer allocates a buffer. Constant buffers are rounded up to a multiple of
// common.ConstantBufferAlignment.
//
// Parameters:
//   - label: debug label
//   - size: requested size in bytes
//   - usage: how the GPU reads the buffer
//
// Returns:
//   - command.BufferHandle: the buffer handle
//   - error: a device init error if the size is zero or allocation fails
func (u *ResourceUploader) CreateUploadBuffer(label string, size uint64, usage BufferUsage) (command.BufferHandle, error) {
	const op = "uploader.CreateUploadBuffer"
	if size == 0 {
		return 0, common.Errorf(common.KindDeviceInit, op, "%s: zero sized buffer", label)
	}
	if usage == BufferUsageConstant {
		size = common.AlignUp(size, common.ConstantBufferAlignment)
	}

	h, err := u.backend.CreateBuffer(label, size, usage)
	if err != nil {
		return 0, common.NewError(common.KindDeviceInit, op, err)
	}
	u.buffers[h] = &uploadBuffer{label: label, size: size, usage: usage}
	return h, nil
}

// Size returns the allocated size of a buffer, 0 if the handle is unknown.
func (u *ResourceUploader) Size(h command.BufferHandle) uint64 {
	if b, ok := u.buffers[h]; ok {
		return b.size
	}
	return 0
}

// ReleaseBuffer frees a buffer created by CreateUploadBuffer and forgets its handle.
//
// Parameters:
//   - h: the buffer handle
//
// Returns:
//   - error: an error if the handle is unknown or the backend fails to release it
func (u *ResourceUploader) ReleaseBuffer(h command.BufferHandle) error {
	if _, ok := u.buffers[h]; !ok {
		return common.Errorf(common.KindSubmit, "uploader.ReleaseBuffer", "unknown buffer %d", h)
	}
	delete(u.buffers, h)
	if err := u.backend.ReleaseBuffer(h); err != nil {
		return common.NewError(common.KindSubmit, "uploader.ReleaseBuffer", err)
	}
	return nil
}

// WriteVertexData copies the vertices into a vertex buffer. Vertex data is immutable once uploaded.
//
// Parameters:
//   - h: a vertex buffer handle
//   - vertices: the vertices to copy
//
// Returns:
//   - error: an asset load error if the buffer is unknown, already written or too small
func (u *ResourceUploader) WriteVertexData(h command.BufferHandle, vertices []common.Vertex) error {
	const op = "uploader.WriteVertexData"
	b, ok := u.buffers[h]
	if !ok || b.usage != BufferUsageVertex {
		return common.Errorf(common.KindAssetLoad, op, "buffer %d is not a vertex buffer", h)
	}
	if b.written {
		return common.Errorf(common.KindAssetLoad, op, "%s: vertex data already uploaded", b.label)
	}

	data := common.SliceToBytes(vertices)
	if uint64(len(data)) > b.size {
		return common.Errorf(common.KindAssetLoad, op, "%s: %d bytes exceed buffer size %d", b.label, len(data), b.size)
	}
	if err := u.backend.WriteBuffer(h, 0, data); err != nil {
		return common.NewError(common.KindAssetLoad, op, err)
	}
	b.written = true
	return nil
}

// WriteConstant copies the matrix into a constant buffer. The write is refused while fc reports
// submitted work that has not been waited on.
//
// Parameters:
//   - fc: the frame context
//   - h: a constant buffer handle
//   - m: the matrix to write
//
// Returns:
//   - error: a sync error if GPU work is in flight, a submit error if the handle is not a constant buffer or the write fails
func (u *ResourceUploader) WriteConstant(fc *frame_sync.FrameContext, h command.BufferHandle, m mgl32.Mat4) error {
	const op = "uploader.WriteConstant"
	if fc == nil || !fc.Writable() {
		return common.Errorf(common.KindSync, op, "constant buffer %d is still read by in-flight work", h)
	}
	b, ok := u.buffers[h]
	if !ok || b.usage != BufferUsageConstant {
		return common.Errorf(common.KindSubmit, op, "buffer %d is not a constant buffer", h)
	}
	if err := u.backend.WriteBuffer(h, 0, common.StructToBytes(&m)); err != nil {
		return common.NewError(common.KindSubmit, op, err)
	}
	return nil
}
