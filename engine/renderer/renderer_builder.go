package renderer

import (
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipeline queues a Pipeline to be compiled and registered once the backend exists. The last
// pipeline given becomes the active one.
//
// Parameters:
//   - p: the Pipeline to register
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline option to a renderer
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPipelines = append(r.pendingPipelines, p)
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithBufferCount sets the number of swap chain images. Valid values are MinBufferCount to
// MaxBufferCount; the default is 2.
//
// Parameters:
//   - count: the back buffer count
//
// Returns:
//   - RendererBuilderOption: a function that applies the buffer count option to a renderer
func WithBufferCount(count int) RendererBuilderOption {
	return func(r *renderer) {
		r.bufferCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithClearColor overrides the color the back buffer is cleared to each frame.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(c command.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = &c
	}
}

// WithWaitObserver registers a callback receiving the duration of every blocking GPU wait.
//
// Parameters:
//   - fn: the observer
//
// Returns:
//   - RendererBuilderOption: a function that applies the observer to a renderer
func WithWaitObserver(fn func(d time.Duration)) RendererBuilderOption {
	return func(r *renderer) {
		r.waitObserver = fn
	}
}
