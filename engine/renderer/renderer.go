package renderer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/frame_sync"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// transformSize is the byte size of the MVP matrix written to the constant buffer.
const transformSize = uint64(4 * 4 * 4)

// Surface is the presentation target a renderer draws into.
type Surface interface {
	// SurfaceDescriptor returns the platform-specific descriptor used to create the GPU surface.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	// Width returns the surface width in pixels.
	Width() int
	// Height returns the surface height in pixels.
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	compiled      map[string]compiledPipeline
	active        string

	backendType RendererBackendType
	backend     RendererBackend
	uploader    *ResourceUploader
	recorder    *command.Recorder
	sync        *frame_sync.Synchronizer
	fc          *frame_sync.FrameContext

	allocator *command.Allocator
	list      *command.List

	constant     command.BufferHandle
	vertexBuffer command.BufferHandle
	vertices     []common.Vertex

	width, height int
	destroyed     bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	bufferCount          int
	clearColor           *command.Color
	waitObserver         func(time.Duration)
	pendingPipelines     []pipeline.Pipeline
}

type compiledPipeline struct {
	pipeline command.PipelineHandle
	layout   command.LayoutHandle
}

// Renderer draws a single immutable mesh with a single pipeline, one frame at a time.
//
// Each Render records the frame's command list, submits and presents it, then blocks until the GPU
// has finished before returning. Update writes the transform for the next Render.
type Renderer interface {
	// Pipeline retrieves the registered Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipeline compiles p through the backend, caches it by PipelineKey and makes it the
	// pipeline used by Render. A key that is already registered is only re-activated.
	//
	// Parameters:
	//   - p: the Pipeline to register
	//
	// Returns:
	//   - error: a pipeline compile error if validation or compilation fails
	RegisterPipeline(p pipeline.Pipeline) error

	// LoadMesh uploads the vertices into a new vertex buffer. The mesh is immutable once loaded.
	//
	// Parameters:
	//   - vertices: the expanded vertex records
	//
	// Returns:
	//   - error: an asset load error if the mesh is empty, already loaded or the upload fails
	LoadMesh(vertices []common.Vertex) error

	// Update writes the transform read by the next Render.
	//
	// Parameters:
	//   - mvp: the model-view-projection matrix
	//
	// Returns:
	//   - error: a sync error if GPU work is still in flight
	Update(mvp mgl32.Mat4) error

	// Render records, submits and presents one frame and waits for the GPU to finish it.
	//
	// Returns:
	//   - error: a submit or sync error; any error is fatal for the frame loop
	Render() error

	// Resize reports whether the surface can take the given size. Only the initial size is supported.
	//
	// Parameters:
	//   - width: the requested width in pixels
	//   - height: the requested height in pixels
	//
	// Returns:
	//   - error: ErrResizeUnsupported if the size differs from the initial size
	Resize(width, height int) error

	// CheckSurface validates a surface size before it is used.
	//
	// Parameters:
	//   - width: the observed width in pixels
	//   - height: the observed height in pixels
	//
	// Returns:
	//   - error: ErrResizeUnsupported if the size differs from the initial size
	CheckSurface(width, height int) error

	// FrameContext returns the synchronization state of the current frame.
	//
	// Returns:
	//   - *frame_sync.FrameContext: the frame context
	FrameContext() *frame_sync.FrameContext

	// Vertices returns the loaded mesh.
	//
	// Returns:
	//   - []common.Vertex: the vertices, nil before LoadMesh
	Vertices() []common.Vertex

	// VertexCount returns the number of loaded vertices.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Aspect returns the surface aspect ratio.
	//
	// Returns:
	//   - float32: width divided by height
	Aspect() float32

	// Destroy waits for the GPU and releases every GPU object. Destroy is idempotent.
	//
	// Returns:
	//   - error: a sync error if the final wait fails
	Destroy() error
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer and its backend for the given surface.
//
// Parameters:
//   - backendType: the backend implementation to use
//   - surface: the presentation surface
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the new renderer
//   - error: a device init error if the backend or any frame resource cannot be created
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(backendType, options...)
	if surface == nil {
		return nil, common.Errorf(common.KindDeviceInit, "renderer.NewRenderer", "nil surface")
	}

	var backend RendererBackend
	switch backendType {
	case BackendTypeWGPU:
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), wgpuBackendConfig{
			width:                surface.Width(),
			height:               surface.Height(),
			bufferCount:          r.bufferCount,
			presentMode:          r.presentMode,
			forceFallbackAdapter: r.forceFallbackAdapter,
		})
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		return nil, common.Errorf(common.KindDeviceInit, "renderer.NewRenderer", "unknown backend type %d", backendType)
	}

	if err := r.init(backend); err != nil {
		backend.Release()
		return nil, err
	}
	return r, nil
}

// NewRendererWithBackend creates a Renderer on top of an already initialized backend.
//
// Parameters:
//   - backend: the backend to render with
//   - options: variadic list of RendererBuilderOption functions; surface options are ignored
//
// Returns:
//   - Renderer: the new renderer
//   - error: a device init error if any frame resource cannot be created
func NewRendererWithBackend(backend RendererBackend, options ...RendererBuilderOption) (Renderer, error) {
	if backend == nil {
		return nil, common.Errorf(common.KindDeviceInit, "renderer.NewRendererWithBackend", "nil backend")
	}
	r := newRenderer(BackendTypeWGPU, options...)
	if err := r.init(backend); err != nil {
		return nil, err
	}
	return r, nil
}

func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		compiled:      make(map[string]compiledPipeline),
		backendType:   backendType,
		bufferCount:   MinBufferCount,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// init creates the per-renderer frame resources: the constant buffer, the fence and synchronizer,
// the command list and its allocator. The first back buffer is already acquired by the backend.
func (r *renderer) init(backend RendererBackend) error {
	const op = "renderer.init"
	r.backend = backend
	r.width, r.height = backend.SurfaceSize()
	r.uploader = NewResourceUploader(backend)

	var recorderOpts []command.RecorderOption
	if r.clearColor != nil {
		recorderOpts = append(recorderOpts, command.WithClearColor(*r.clearColor))
	}
	r.recorder = command.NewRecorder(recorderOpts...)

	constant, err := r.uploader.CreateUploadBuffer("Transform Constant Buffer", transformSize, BufferUsageConstant)
	if err != nil {
		return err
	}
	r.constant = constant

	fence, err := backend.CreateFence(0)
	if err != nil {
		return common.NewError(common.KindDeviceInit, op, err)
	}
	var syncOpts []frame_sync.SynchronizerOption
	if r.waitObserver != nil {
		syncOpts = append(syncOpts, frame_sync.WithWaitObserver(r.waitObserver))
	}
	r.sync, err = frame_sync.NewSynchronizer(backend, backend, fence, syncOpts...)
	if err != nil {
		return common.NewError(common.KindDeviceInit, op, err)
	}

	r.fc = frame_sync.NewFrameContext(backend.CurrentBackBuffer())
	r.allocator = command.NewAllocator("Frame Allocator", 16)
	r.list = command.NewList("Frame Command List")

	for _, p := range r.pendingPipelines {
		if err := r.RegisterPipeline(p); err != nil {
			return err
		}
	}
	r.pendingPipelines = nil

	slog.Debug("renderer initialized",
		"width", r.width,
		"height", r.height,
		"buffers", backend.BufferCount(),
		"constantSize", r.uploader.Size(r.constant))
	return nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipeline(p pipeline.Pipeline) error {
	if p == nil {
		return common.Errorf(common.KindPipelineCompile, "renderer.RegisterPipeline", "nil pipeline")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.PipelineKey()
	if _, ok := r.compiled[key]; !ok {
		ph, lh, err := p.Build(r.backend)
		if err != nil {
			return err
		}
		r.compiled[key] = compiledPipeline{pipeline: ph, layout: lh}
		r.pipelineCache[key] = p
	}
	r.active = key
	return nil
}

func (r *renderer) LoadMesh(vertices []common.Vertex) error {
	const op = "renderer.LoadMesh"
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(vertices) == 0 {
		return common.Errorf(common.KindAssetLoad, op, "mesh has no vertices")
	}
	if r.vertexBuffer != 0 {
		return common.Errorf(common.KindAssetLoad, op, "mesh already loaded")
	}

	h, err := r.uploader.CreateUploadBuffer("Mesh Vertex Buffer", uint64(len(vertices))*common.VertexStride, BufferUsageVertex)
	if err != nil {
		return common.NewError(common.KindAssetLoad, op, err)
	}
	if err := r.uploader.WriteVertexData(h, vertices); err != nil {
		if rerr := r.uploader.ReleaseBuffer(h); rerr != nil {
			slog.Warn("failed to release vertex buffer after a failed upload", "error", rerr)
		}
		return err
	}

	r.vertexBuffer = h
	r.vertices = append([]common.Vertex(nil), vertices...)
	return nil
}

func (r *renderer) Update(mvp mgl32.Mat4) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uploader.WriteConstant(r.fc, r.constant, mvp)
}

func (r *renderer) Render() error {
	const op = "renderer.Render"
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return common.Errorf(common.KindSubmit, op, "renderer destroyed")
	}
	compiled, ok := r.compiled[r.active]
	if !ok {
		return common.Errorf(common.KindSubmit, op, "no pipeline registered")
	}
	if r.vertexBuffer == 0 {
		return common.Errorf(common.KindSubmit, op, "no mesh loaded")
	}

	if err := r.fc.BeginRecording(); err != nil {
		return err
	}
	err := r.recorder.Record(r.list, command.FrameInputs{
		Allocator:    r.allocator,
		Pipeline:     compiled.pipeline,
		Layout:       compiled.layout,
		Constant:     r.constant,
		ConstantSlot: 0,
		Target:       command.TargetHandle(r.fc.Index),
		Width:        uint32(r.width),
		Height:       uint32(r.height),
		VertexBuffer: r.vertexBuffer,
		VertexStride: common.VertexStride,
		VertexCount:  uint32(len(r.vertices)),
	})
	if err != nil {
		return common.NewError(common.KindSubmit, op, err)
	}

	if err := r.sync.SubmitAndPresent(r.fc, r.list); err != nil {
		return err
	}
	return r.sync.WaitForGPU(r.fc)
}

func (r *renderer) Resize(width, height int) error {
	return r.CheckSurface(width, height)
}

func (r *renderer) CheckSurface(width, height int) error {
	if width == r.width && height == r.height {
		return nil
	}
	return common.NewError(common.KindResizeUnsupported, "renderer.CheckSurface",
		fmt.Errorf("surface is %dx%d, requested %dx%d", r.width, r.height, width, height))
}

func (r *renderer) FrameContext() *frame_sync.FrameContext {
	return r.fc
}

func (r *renderer) Vertices() []common.Vertex {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vertices
}

func (r *renderer) VertexCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vertices)
}

func (r *renderer) Aspect() float32 {
	if r.height == 0 {
		return 1
	}
	return float32(r.width) / float32(r.height)
}

func (r *renderer) Destroy() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return nil
	}
	r.destroyed = true

	err := r.sync.Close(r.fc)
	r.backend.Release()
	if err != nil {
		slog.Error("final GPU wait failed", "error", err)
	}
	return err
}
