package pipeline

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
)

// CullMode selects which triangles are discarded by the rasterizer.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// FrontFace is the winding order that marks a triangle as front facing.
type FrontFace int

const (
	FrontFaceCW FrontFace = iota
	FrontFaceCCW
)

// Visibility is a bit set of the shader stages a binding is visible to.
type Visibility uint32

const (
	VisibilityVertex Visibility = 1 << iota
	VisibilityFragment
)

// VertexAttribute describes one attribute of the vertex buffer.
type VertexAttribute struct {
	// Semantic is a descriptive name, e.g. "POSITION".
	Semantic string
	Format   shader.VertexFormat
	Offset   uint64
	Location uint32
}

// InputLayout describes the layout of a single interleaved vertex buffer.
type InputLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// BindingEntry describes a single uniform buffer binding.
type BindingEntry struct {
	Group      uint32
	Binding    uint32
	Visibility Visibility
	// MinSize is the minimum byte size of the bound buffer.
	MinSize uint64
}

// BindingLayout describes the resources a pipeline reads.
type BindingLayout struct {
	Entries []BindingEntry
}

// Compiler turns a validated pipeline description into backend objects.
type Compiler interface {
	// CompilePipeline creates the backend pipeline and binding layout for p.
	//
	// Parameters:
	//   - p: the validated pipeline description
	//
	// Returns:
	//   - command.PipelineHandle: the handle of the compiled pipeline
	//   - command.LayoutHandle: the handle of its binding layout
	//   - error: an error if the backend rejected the description
	CompilePipeline(p Pipeline) (command.PipelineHandle, command.LayoutHandle, error)
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	inputLayout   InputLayout
	bindingLayout BindingLayout

	cullMode  CullMode
	frontFace FrontFace
	depthClip bool
	topology  command.Topology
}

// Pipeline is a render pipeline description: the two shader stages, the vertex input layout, the
// binding layout and the fixed rasterizer state. The same description is compiled by any backend.
type Pipeline interface {
	// PipelineKey returns the unique key of the pipeline.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Shader retrieves the shader bound to the given stage.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// InputLayout returns the vertex input layout.
	//
	// Returns:
	//   - InputLayout: the input layout
	InputLayout() InputLayout

	// BindingLayout returns the binding layout.
	//
	// Returns:
	//   - BindingLayout: the binding layout
	BindingLayout() BindingLayout

	// CullMode returns the cull mode.
	//
	// Returns:
	//   - CullMode: the cull mode
	CullMode() CullMode

	// FrontFace returns the front face winding order.
	//
	// Returns:
	//   - FrontFace: the winding order
	FrontFace() FrontFace

	// DepthClip reports whether primitives are clipped against the depth range.
	//
	// Returns:
	//   - bool: true if depth clipping is enabled
	DepthClip() bool

	// Topology returns the primitive topology.
	//
	// Returns:
	//   - command.Topology: the topology
	Topology() command.Topology

	// Validate checks that the shader stages, input layout and binding layout agree.
	//
	// Returns:
	//   - error: a pipeline compile error describing the first mismatch
	Validate() error

	// Build validates the pipeline and compiles it with c.
	//
	// Parameters:
	//   - c: the backend compiler
	//
	// Returns:
	//   - command.PipelineHandle: the compiled pipeline
	//   - command.LayoutHandle: the compiled binding layout
	//   - error: a pipeline compile error if validation or compilation fails
	Build(c Compiler) (command.PipelineHandle, command.LayoutHandle, error)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline description with the default mesh input and binding layouts,
// back-face culling of clockwise-front triangles, depth clipping and a triangle list topology.
//
// Parameters:
//   - pipelineKey: the unique key of the pipeline
//   - opts: a variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the new pipeline description
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:   pipelineKey,
		inputLayout:   DefaultInputLayout(),
		bindingLayout: DefaultBindingLayout(),
		cullMode:      CullModeBack,
		frontFace:     FrontFaceCW,
		depthClip:     true,
		topology:      command.TopologyTriangleList,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultInputLayout returns the layout of common.Vertex: a float32x3 position at location 0 and
// a float32x4 color at location 1.
func DefaultInputLayout() InputLayout {
	return InputLayout{
		Stride: common.VertexStride,
		Attributes: []VertexAttribute{
			{Semantic: "POSITION", Format: shader.VertexFormatFloat32x3, Offset: common.VertexPositionOffset, Location: 0},
			{Semantic: "COLOR", Format: shader.VertexFormatFloat32x4, Offset: common.VertexColorOffset, Location: 1},
		},
	}
}

// DefaultBindingLayout returns a single vertex-stage uniform at group 0, binding 0, sized for one
// aligned constant buffer.
func DefaultBindingLayout() BindingLayout {
	return BindingLayout{
		Entries: []BindingEntry{
			{Group: 0, Binding: 0, Visibility: VisibilityVertex, MinSize: common.ConstantBufferAlignment},
		},
	}
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) InputLayout() InputLayout {
	return p.inputLayout
}

func (p *pipeline) BindingLayout() BindingLayout {
	return p.bindingLayout
}

func (p *pipeline) CullMode() CullMode {
	return p.cullMode
}

func (p *pipeline) FrontFace() FrontFace {
	return p.frontFace
}

func (p *pipeline) DepthClip() bool {
	return p.depthClip
}

func (p *pipeline) Topology() command.Topology {
	return p.topology
}

func (p *pipeline) Build(c Compiler) (command.PipelineHandle, command.LayoutHandle, error) {
	if err := p.Validate(); err != nil {
		return 0, 0, err
	}
	if c == nil {
		return 0, 0, common.Errorf(common.KindPipelineCompile, "pipeline.Build", "%s: nil compiler", p.pipelineKey)
	}

	ph, lh, err := c.CompilePipeline(p)
	if err != nil {
		if common.KindOf(err) != 0 {
			return 0, 0, err
		}
		return 0, 0, common.NewError(common.KindPipelineCompile, "pipeline.Build", err)
	}
	return ph, lh, nil
}
