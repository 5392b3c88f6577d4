package renderer

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/frame_sync"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// wgpuBackendConfig is the construction-time configuration of the wgpu backend.
type wgpuBackendConfig struct {
	width, height        int
	bufferCount          int
	presentMode          PresentMode
	forceFallbackAdapter bool
}

// wgpuFrame is the swap chain image currently held for back buffer index i.
type wgpuFrame struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	state   command.ResourceState
}

type wgpuPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   command.LayoutHandle
	topology command.Topology
}

type wgpuLayout struct {
	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
}

// wgpuRendererBackendImpl is the WebGPU RendererBackend. Buffers, layouts and pipelines live in
// arenas; a handle is the arena index plus one.
type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	width, height int
	bufferCount   int

	buffers   []bind_group_provider.BindGroupProvider
	layouts   []wgpuLayout
	pipelines []wgpuPipeline
	modules   []*wgpu.ShaderModule
	fences    []*wgpuFence

	frames   [frame_sync.MaxBackBuffers]wgpuFrame
	current  uint32
	acquired bool
	acquires uint64

	released bool
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the instance, surface, adapter, device and queue, configures the
// swap chain and acquires the first back buffer.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor of the window
//   - cfg: the backend configuration
//
// Returns:
//   - *wgpuRendererBackendImpl: the initialized backend
//   - error: a device init error if any step fails
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, cfg wgpuBackendConfig) (b *wgpuRendererBackendImpl, err error) {
	const op = "renderer.newWGPURendererBackend"
	if surfaceDescriptor == nil {
		return nil, common.Errorf(common.KindDeviceInit, op, "nil surface descriptor")
	}
	if cfg.width <= 0 || cfg.height <= 0 {
		return nil, common.Errorf(common.KindDeviceInit, op, "invalid surface size %dx%d", cfg.width, cfg.height)
	}
	if cfg.bufferCount < MinBufferCount || cfg.bufferCount > MaxBufferCount {
		return nil, common.Errorf(common.KindDeviceInit, op, "buffer count %d outside [%d, %d]", cfg.bufferCount, MinBufferCount, MaxBufferCount)
	}

	runtime.LockOSThread()
	b = &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		width:       cfg.width,
		height:      cfg.height,
		bufferCount: cfg.bufferCount,
	}
	if cfg.presentMode == PresentModeUncapped {
		b.presentMode = wgpu.PresentModeImmediate
	}
	defer func() {
		if err != nil {
			b.Release()
			b = nil
		}
	}()

	b.surface = b.instance.CreateSurface(surfaceDescriptor)
	if b.surface == nil {
		return b, common.Errorf(common.KindDeviceInit, op, "surface creation failed")
	}

	b.adapter, err = b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return b, common.NewError(common.KindDeviceInit, op, errors.Wrap(err, "request adapter"))
	}

	b.device, err = b.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return b, common.NewError(common.KindDeviceInit, op, errors.Wrap(err, "request device"))
	}
	b.queue = b.device.GetQueue()

	if err = b.configureSurface(); err != nil {
		return b, common.NewError(common.KindDeviceInit, op, err)
	}
	if _, err = b.AcquireBackBuffer(); err != nil {
		return b, common.NewError(common.KindDeviceInit, op, err)
	}

	slog.Info("wgpu backend initialized",
		"width", b.width,
		"height", b.height,
		"buffers", b.bufferCount,
		"format", b.surfaceFormat,
		"fallback", cfg.forceFallbackAdapter)
	return b, nil
}

// configureSurface picks an 8-bit unorm format from the surface capabilities and configures the
// swap chain at the fixed initial size.
func (b *wgpuRendererBackendImpl) configureSurface() error {
	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return errors.New("surface reports no formats")
	}

	b.surfaceFormat = capabilities.Formats[0]
	for _, f := range capabilities.Formats {
		if f == wgpu.TextureFormatRGBA8Unorm || f == wgpu.TextureFormatBGRA8Unorm {
			b.surfaceFormat = f
			break
		}
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(b.width),
		Height:      uint32(b.height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	return nil
}

func (b *wgpuRendererBackendImpl) SurfaceSize() (int, int) {
	return b.width, b.height
}

func (b *wgpuRendererBackendImpl) BufferCount() int {
	return b.bufferCount
}

func (b *wgpuRendererBackendImpl) CurrentBackBuffer() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// AcquireBackBuffer takes the next swap chain image. wgpu does not expose the image index, so
// indices are assigned round robin over the configured buffer count.
func (b *wgpuRendererBackendImpl) AcquireBackBuffer() (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.acquired {
		return 0, fmt.Errorf("back buffer %d is still acquired", b.current)
	}

	texture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return 0, errors.Wrap(err, "get current texture")
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return 0, errors.Wrap(err, "create back buffer view")
	}

	index := uint32(b.acquires % uint64(b.bufferCount))
	b.acquires++
	b.frames[index] = wgpuFrame{texture: texture, view: view, state: command.StatePresent}
	b.current = index
	b.acquired = true
	return index, nil
}

func (b *wgpuRendererBackendImpl) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.acquired {
		return errors.New("present without an acquired back buffer")
	}
	frame := &b.frames[b.current]
	if frame.state != command.StatePresent {
		return fmt.Errorf("back buffer %d is in %s state, want %s", b.current, frame.state, command.StatePresent)
	}

	b.surface.Present()
	b.releaseFrame(frame)
	b.acquired = false
	return nil
}

func (b *wgpuRendererBackendImpl) releaseFrame(frame *wgpuFrame) {
	if frame.view != nil {
		frame.view.Release()
		frame.view = nil
	}
	if frame.texture != nil {
		frame.texture.Release()
		frame.texture = nil
	}
}

func (b *wgpuRendererBackendImpl) CreateBuffer(label string, size uint64, usage BufferUsage) (command.BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var wgpuUsage wgpu.BufferUsage
	switch usage {
	case BufferUsageVertex:
		wgpuUsage = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case BufferUsageConstant:
		wgpuUsage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	default:
		return 0, fmt.Errorf("unknown buffer usage %d", usage)
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            wgpuUsage,
		MappedAtCreation: false,
	})
	if err != nil {
		return 0, errors.Wrapf(err, "create %s buffer %s", usage, label)
	}

	b.buffers = append(b.buffers, bind_group_provider.NewBindGroupProvider(label,
		bind_group_provider.WithBuffer(buf, size, wgpuUsage)))
	return command.BufferHandle(len(b.buffers)), nil
}

func (b *wgpuRendererBackendImpl) buffer(h command.BufferHandle) (bind_group_provider.BindGroupProvider, error) {
	if h == 0 || int(h) > len(b.buffers) || b.buffers[h-1].Buffer() == nil {
		return nil, fmt.Errorf("unknown buffer handle %d", h)
	}
	return b.buffers[h-1], nil
}

func (b *wgpuRendererBackendImpl) ReleaseBuffer(h command.BufferHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.buffer(h)
	if err != nil {
		return err
	}
	p.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(h command.BufferHandle, offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.buffer(h)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > p.Size() {
		return fmt.Errorf("write of %d bytes at %d overflows %s (%d bytes)", len(data), offset, p.Label(), p.Size())
	}
	if err := b.queue.WriteBuffer(p.Buffer(), offset, data); err != nil {
		return errors.Wrapf(err, "write %s", p.Label())
	}
	return nil
}

func (b *wgpuRendererBackendImpl) CreateFence(initial uint64) (frame_sync.Fence, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return nil, errors.New("create fence: no device")
	}
	f := newWGPUFence(b.device, initial)
	b.fences = append(b.fences, f)
	return f, nil
}

func (b *wgpuRendererBackendImpl) Signal(f frame_sync.Fence, value uint64) error {
	wf, ok := f.(*wgpuFence)
	if !ok {
		return fmt.Errorf("signal: fence %T was not created by this backend", f)
	}
	return wf.signal(b.queue, value)
}

// CompilePipeline creates the shader modules, the group 0 bind group layout, the pipeline layout and
// the render pipeline for p.
func (b *wgpuRendererBackendImpl) CompilePipeline(p pipeline.Pipeline) (command.PipelineHandle, command.LayoutHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return 0, 0, errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	vs, err := b.createShaderModule(vertexShader)
	if err != nil {
		return 0, 0, err
	}
	fs, err := b.createShaderModule(fragmentShader)
	if err != nil {
		return 0, 0, err
	}

	layoutHandle, err := b.createLayout(p.PipelineKey(), p.BindingLayout())
	if err != nil {
		return 0, 0, err
	}

	vertexLayout, err := toWGPUVertexLayout(p.InputLayout())
	if err != nil {
		return 0, 0, err
	}

	if !p.DepthClip() {
		slog.Warn("depth clip control is not available on wgpu, keeping clipping enabled", "pipeline", p.PipelineKey())
	}
	if p.Topology() != command.TopologyTriangleList {
		return 0, 0, fmt.Errorf("unsupported topology %d", p.Topology())
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: b.layouts[layoutHandle-1].pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: toWGPUFrontFace(p.FrontFace()),
			CullMode:  toWGPUCullMode(p.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return 0, 0, errors.Wrapf(err, "create render pipeline %s", p.PipelineKey())
	}

	b.pipelines = append(b.pipelines, wgpuPipeline{
		pipeline: created,
		layout:   layoutHandle,
		topology: p.Topology(),
	})
	return command.PipelineHandle(len(b.pipelines)), layoutHandle, nil
}

func (b *wgpuRendererBackendImpl) createShaderModule(s shader.Shader) (*wgpu.ShaderModule, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module %s", s.Key())
	}
	b.modules = append(b.modules, module)
	return module, nil
}

func (b *wgpuRendererBackendImpl) createLayout(key string, layout pipeline.BindingLayout) (command.LayoutHandle, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(layout.Entries))
	for _, e := range layout.Entries {
		if e.Group != 0 {
			return 0, fmt.Errorf("binding %d/%d: only bind group 0 is supported", e.Group, e.Binding)
		}
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: toWGPUVisibility(e.Visibility),
		}
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = e.MinSize
		entries = append(entries, entry)
	}

	bgl, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   key + " Bind Group Layout",
		Entries: entries,
	})
	if err != nil {
		return 0, errors.Wrapf(err, "create bind group layout %s", key)
	}
	pl, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            key,
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		bgl.Release()
		return 0, errors.Wrapf(err, "create pipeline layout %s", key)
	}

	b.layouts = append(b.layouts, wgpuLayout{bindGroupLayout: bgl, pipelineLayout: pl})
	return command.LayoutHandle(len(b.layouts)), nil
}

// bindGroup returns the bind group exposing buffer h at binding slot under layout, creating and
// caching it on the buffer's provider on first use.
func (b *wgpuRendererBackendImpl) bindGroup(h command.BufferHandle, slot uint32, layout command.LayoutHandle) (*wgpu.BindGroup, error) {
	if layout == 0 || int(layout) > len(b.layouts) {
		return nil, fmt.Errorf("unknown layout handle %d", layout)
	}
	p, err := b.buffer(h)
	if err != nil {
		return nil, err
	}

	bgl := b.layouts[layout-1].bindGroupLayout
	if bg := p.BindGroup(bgl); bg != nil {
		return bg, nil
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  p.Label() + " Bind Group",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: slot,
				Buffer:  p.Buffer(),
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create bind group for %s", p.Label())
	}
	p.SetBindGroup(bgl, bg)
	return bg, nil
}

// passState is the state recorded ahead of the render pass. wgpu binds state on a pass, so it is
// held until the clear begins the pass and applied directly afterwards.
type passState struct {
	pipeline     command.PipelineHandle
	layout       command.LayoutHandle
	constant     command.BufferHandle
	constantSlot uint32
	viewport     *command.Viewport
	scissor      *command.Rect
	vertexBuffer command.BufferHandle
	vertexSize   uint64
	target       command.TargetHandle
	hasTarget    bool
}

// ExecuteCommandList encodes the closed list into one command buffer and submits it.
func (b *wgpuRendererBackendImpl) ExecuteCommandList(list *command.List) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if list == nil || !list.Closed() {
		return errors.New("execute: command list is not closed")
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return errors.Wrap(err, "create command encoder")
	}
	defer encoder.Release()

	var (
		st   passState
		pass *wgpu.RenderPassEncoder
	)
	defer func() {
		if pass != nil {
			pass.Release()
		}
	}()

	for i, c := range list.Commands() {
		if err := b.encode(encoder, &pass, &st, c); err != nil {
			return fmt.Errorf("%s: command %d (%s): %w", list.Label(), i, c.Op, err)
		}
	}
	if pass != nil {
		return fmt.Errorf("%s: render pass left open, back buffer not transitioned to %s", list.Label(), command.StatePresent)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return errors.Wrap(err, "finish command encoder")
	}
	defer cmd.Release()
	b.queue.Submit(cmd)
	return nil
}

func (b *wgpuRendererBackendImpl) encode(encoder *wgpu.CommandEncoder, pass **wgpu.RenderPassEncoder, st *passState, c command.Command) error {
	switch c.Op {
	case command.OpSetPipeline:
		if c.Pipeline == 0 || int(c.Pipeline) > len(b.pipelines) {
			return fmt.Errorf("unknown pipeline handle %d", c.Pipeline)
		}
		st.pipeline = c.Pipeline
		if *pass != nil {
			(*pass).SetPipeline(b.pipelines[c.Pipeline-1].pipeline)
		}

	case command.OpSetBindingLayout:
		if st.pipeline != 0 && b.pipelines[st.pipeline-1].layout != c.Layout {
			return fmt.Errorf("layout %d does not belong to pipeline %d", c.Layout, st.pipeline)
		}
		st.layout = c.Layout

	case command.OpSetConstantBuffer:
		st.constant = c.Buffer
		st.constantSlot = c.Slot
		if *pass != nil {
			return b.bindConstant(*pass, st)
		}

	case command.OpSetViewport:
		v := c.Viewport
		st.viewport = &v
		if *pass != nil {
			(*pass).SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
		}

	case command.OpSetScissor:
		r := c.Scissor
		st.scissor = &r
		if *pass != nil {
			(*pass).SetScissorRect(r.X, r.Y, r.Width, r.Height)
		}

	case command.OpTransition:
		frame, err := b.frame(c.Target)
		if err != nil {
			return err
		}
		if frame.state != c.Before {
			return fmt.Errorf("back buffer %d is %s, transition expects %s", c.Target, frame.state, c.Before)
		}
		if c.After == command.StatePresent && *pass != nil {
			(*pass).End()
			(*pass).Release()
			*pass = nil
		}
		frame.state = c.After

	case command.OpSetRenderTarget:
		if _, err := b.frame(c.Target); err != nil {
			return err
		}
		st.target = c.Target
		st.hasTarget = true

	case command.OpClearRenderTarget:
		if *pass != nil {
			return errors.New("render target cleared twice")
		}
		if !st.hasTarget || st.target != c.Target {
			return fmt.Errorf("back buffer %d is not the bound render target", c.Target)
		}
		frame, err := b.frame(c.Target)
		if err != nil {
			return err
		}
		if frame.state != command.StateRenderTarget {
			return fmt.Errorf("back buffer %d is %s, clear requires %s", c.Target, frame.state, command.StateRenderTarget)
		}
		*pass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:       frame.view,
					LoadOp:     wgpu.LoadOpClear,
					StoreOp:    wgpu.StoreOpStore,
					ClearValue: wgpu.Color{R: c.Color.R, G: c.Color.G, B: c.Color.B, A: c.Color.A},
				},
			},
		})
		return b.applyDeferred(*pass, st)

	case command.OpSetTopology:
		if st.pipeline != 0 && b.pipelines[st.pipeline-1].topology != c.Topology {
			return fmt.Errorf("topology %d does not match pipeline %d", c.Topology, st.pipeline)
		}

	case command.OpSetVertexBuffer:
		p, err := b.buffer(c.Buffer)
		if err != nil {
			return err
		}
		if c.Size > p.Size() {
			return fmt.Errorf("vertex view of %d bytes exceeds %s (%d bytes)", c.Size, p.Label(), p.Size())
		}
		st.vertexBuffer = c.Buffer
		st.vertexSize = c.Size
		if *pass != nil {
			(*pass).SetVertexBuffer(c.Slot, p.Buffer(), 0, c.Size)
		}

	case command.OpDraw:
		if *pass == nil {
			return errors.New("draw outside of a render pass")
		}
		if st.pipeline == 0 || st.vertexBuffer == 0 {
			return errors.New("draw without pipeline or vertex buffer")
		}
		(*pass).Draw(c.VertexCount, c.InstanceCount, c.FirstVertex, c.FirstInstance)

	default:
		return fmt.Errorf("unsupported command %s", c.Op)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) applyDeferred(pass *wgpu.RenderPassEncoder, st *passState) error {
	if st.pipeline != 0 {
		pass.SetPipeline(b.pipelines[st.pipeline-1].pipeline)
	}
	if st.constant != 0 {
		if err := b.bindConstant(pass, st); err != nil {
			return err
		}
	}
	if v := st.viewport; v != nil {
		pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
	if r := st.scissor; r != nil {
		pass.SetScissorRect(r.X, r.Y, r.Width, r.Height)
	}
	if st.vertexBuffer != 0 {
		p, err := b.buffer(st.vertexBuffer)
		if err != nil {
			return err
		}
		pass.SetVertexBuffer(0, p.Buffer(), 0, st.vertexSize)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) bindConstant(pass *wgpu.RenderPassEncoder, st *passState) error {
	layout := st.layout
	if layout == 0 && st.pipeline != 0 {
		layout = b.pipelines[st.pipeline-1].layout
	}
	bg, err := b.bindGroup(st.constant, st.constantSlot, layout)
	if err != nil {
		return err
	}
	pass.SetBindGroup(0, bg, nil)
	return nil
}

func (b *wgpuRendererBackendImpl) frame(t command.TargetHandle) (*wgpuFrame, error) {
	if uint32(t) != b.current || !b.acquired {
		return nil, fmt.Errorf("back buffer %d is not the acquired image (current %d)", t, b.current)
	}
	return &b.frames[t], nil
}

// Release frees the list-independent GPU objects in reverse order of creation: buffers, pipelines,
// layouts, shader modules, fences, the held swap chain image, then the device and instance.
func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return
	}
	b.released = true

	for _, p := range b.buffers {
		p.Release()
	}
	b.buffers = nil

	for _, p := range b.pipelines {
		p.pipeline.Release()
	}
	b.pipelines = nil

	for _, l := range b.layouts {
		l.pipelineLayout.Release()
		l.bindGroupLayout.Release()
	}
	b.layouts = nil

	for _, m := range b.modules {
		m.Release()
	}
	b.modules = nil

	for _, f := range b.fences {
		f.Release()
	}
	b.fences = nil

	for i := range b.frames {
		b.releaseFrame(&b.frames[i])
	}
	b.acquired = false

	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func toWGPUVertexLayout(layout pipeline.InputLayout) (wgpu.VertexBufferLayout, error) {
	attrs := make([]wgpu.VertexAttribute, 0, len(layout.Attributes))
	for _, a := range layout.Attributes {
		format, ok := wgpuVertexFormats[a.Format]
		if !ok {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("attribute %s: unsupported format %s", a.Semantic, a.Format)
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: layout.Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}

var wgpuVertexFormats = map[shader.VertexFormat]wgpu.VertexFormat{
	shader.VertexFormatFloat32:   wgpu.VertexFormatFloat32,
	shader.VertexFormatFloat32x2: wgpu.VertexFormatFloat32x2,
	shader.VertexFormatFloat32x3: wgpu.VertexFormatFloat32x3,
	shader.VertexFormatFloat32x4: wgpu.VertexFormatFloat32x4,
	shader.VertexFormatSint32:    wgpu.VertexFormatSint32,
	shader.VertexFormatSint32x2:  wgpu.VertexFormatSint32x2,
	shader.VertexFormatSint32x3:  wgpu.VertexFormatSint32x3,
	shader.VertexFormatSint32x4:  wgpu.VertexFormatSint32x4,
	shader.VertexFormatUint32:    wgpu.VertexFormatUint32,
	shader.VertexFormatUint32x2:  wgpu.VertexFormatUint32x2,
	shader.VertexFormatUint32x3:  wgpu.VertexFormatUint32x3,
	shader.VertexFormatUint32x4:  wgpu.VertexFormatUint32x4,
}

func toWGPUCullMode(m pipeline.CullMode) wgpu.CullMode {
	switch m {
	case pipeline.CullModeFront:
		return wgpu.CullModeFront
	case pipeline.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func toWGPUFrontFace(f pipeline.FrontFace) wgpu.FrontFace {
	if f == pipeline.FrontFaceCCW {
		return wgpu.FrontFaceCCW
	}
	return wgpu.FrontFaceCW
}

func toWGPUVisibility(v pipeline.Visibility) wgpu.ShaderStage {
	var stage wgpu.ShaderStage
	if v&pipeline.VisibilityVertex != 0 {
		stage |= wgpu.ShaderStageVertex
	}
	if v&pipeline.VisibilityFragment != 0 {
		stage |= wgpu.ShaderStageFragment
	}
	return stage
}
