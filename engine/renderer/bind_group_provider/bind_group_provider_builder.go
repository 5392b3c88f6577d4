package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer sets the GPU buffer owned by this provider.
//
// Parameters:
//   - buf: the buffer
//   - size: its size in bytes
//   - usage: the usage flags it was created with
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for this provider
func WithBuffer(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffer = buf
		p.size = size
		p.usage = usage
	}
}
