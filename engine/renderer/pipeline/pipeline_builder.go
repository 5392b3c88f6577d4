package pipeline

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex stage.
//
// Parameters:
//   - s: the vertex shader
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex shader for this pipeline
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment stage.
//
// Parameters:
//   - s: the fragment shader
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment shader for this pipeline
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithInputLayout replaces the default vertex input layout.
//
// Parameters:
//   - layout: the vertex input layout
//
// Returns:
//   - PipelineBuilderOption: a function that sets the input layout for this pipeline
func WithInputLayout(layout InputLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.inputLayout = layout
	}
}

// WithBindingLayout replaces the default binding layout.
//
// Parameters:
//   - layout: the binding layout
//
// Returns:
//   - PipelineBuilderOption: a function that sets the binding layout for this pipeline
func WithBindingLayout(layout BindingLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.bindingLayout = layout
	}
}

// WithDepthClip sets whether primitives are clipped against the depth range.
//
// Parameters:
//   - enabled: true to clip, false to let depth values outside [0, 1] through
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth clip state for this pipeline
func WithDepthClip(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthClip = enabled
	}
}

// WithCullMode sets the cull mode.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithFrontFace sets the front face winding order.
//
// Parameters:
//   - frontFace: the winding order
//
// Returns:
//   - PipelineBuilderOption: a function that sets the front face for this pipeline
func WithFrontFace(frontFace FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}
