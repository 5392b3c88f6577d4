package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// buffer is the GPU buffer owned by this provider, nil until set by the backend.
	buffer *wgpu.Buffer
	// size is the allocated size of buffer in bytes.
	size uint64
	// usage is the usage the buffer was created with.
	usage wgpu.BufferUsage

	// bindGroups caches the bind group binding buffer at binding 0, keyed by the layout it was created for.
	bindGroups map[*wgpu.BindGroupLayout]*wgpu.BindGroup
}

// BindGroupProvider owns one GPU buffer created by the wgpu backend along with the bind groups that
// expose it to a pipeline. Vertex buffers never get a bind group; constant buffers get one per
// binding layout they are bound with, created on first use.
type BindGroupProvider interface {
	// Release releases the bind groups and the buffer.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Buffer returns the GPU buffer, or nil if it was never set or has been released.
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer() *wgpu.Buffer

	// Size returns the allocated size of the buffer in bytes.
	//
	// Returns:
	//   - uint64: the buffer size
	Size() uint64

	// Usage returns the usage flags the buffer was created with.
	//
	// Returns:
	//   - wgpu.BufferUsage: the usage flags
	Usage() wgpu.BufferUsage

	// BindGroup returns the bind group created for layout, or nil if none has been created yet.
	//
	// Parameters:
	//   - layout: the bind group layout the group was created against
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup(layout *wgpu.BindGroupLayout) *wgpu.BindGroup

	// SetBindGroup stores the bind group created for layout.
	//
	// Parameters:
	//   - layout: the bind group layout the group was created against
	//   - bg: the created bind group
	SetBindGroup(layout *wgpu.BindGroupLayout, bg *wgpu.BindGroup)

	// SetBuffer stores the GPU buffer after creation.
	//
	// Parameters:
	//   - buf: the created buffer
	//   - size: its size in bytes
	//   - usage: the usage flags it was created with
	SetBuffer(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:      label,
		bindGroups: make(map[*wgpu.BindGroupLayout]*wgpu.BindGroup),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Buffer() *wgpu.Buffer {
	return p.buffer
}

func (p *bindGroupProvider) Size() uint64 {
	return p.size
}

func (p *bindGroupProvider) Usage() wgpu.BufferUsage {
	return p.usage
}

func (p *bindGroupProvider) BindGroup(layout *wgpu.BindGroupLayout) *wgpu.BindGroup {
	return p.bindGroups[layout]
}

func (p *bindGroupProvider) SetBindGroup(layout *wgpu.BindGroupLayout, bg *wgpu.BindGroup) {
	if old := p.bindGroups[layout]; old != nil && old != bg {
		old.Release()
	}
	p.bindGroups[layout] = bg
}

func (p *bindGroupProvider) SetBuffer(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.buffer = buf
	p.size = size
	p.usage = usage
}

func (p *bindGroupProvider) Release() {
	for layout, bg := range p.bindGroups {
		if bg != nil {
			bg.Release()
		}
		delete(p.bindGroups, layout)
	}
	if p.buffer != nil {
		p.buffer.Release()
		p.buffer = nil
	}
}
