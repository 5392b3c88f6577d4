package command

import "fmt"

// BufferHandle identifies a GPU buffer owned by the renderer backend. The zero value is never a valid handle.
type BufferHandle uint32

// PipelineHandle identifies a compiled pipeline owned by the renderer backend. The zero value is never a valid handle.
type PipelineHandle uint32

// LayoutHandle identifies a resource binding layout owned by the renderer backend. The zero value is never a valid handle.
type LayoutHandle uint32

// TargetHandle identifies a swap chain image by its back buffer index.
type TargetHandle uint32

// ResourceState is the usage state of a swap chain image as tracked by transitions.
type ResourceState int

const (
	// StatePresent is the state of an image owned by the presentation engine.
	StatePresent ResourceState = iota

	// StateRenderTarget is the state of an image that may be written as a color target.
	StateRenderTarget
)

func (s ResourceState) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateRenderTarget:
		return "render-target"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Topology is the primitive topology used to assemble vertices.
type Topology int

const (
	// TopologyUndefined is the zero value and is rejected by backends.
	TopologyUndefined Topology = iota

	// TopologyTriangleList assembles every three vertices into an independent triangle.
	TopologyTriangleList
)

// Viewport maps normalized device coordinates onto the render target.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Rect is a scissor rectangle in pixels.
type Rect struct {
	X, Y, Width, Height uint32
}

// Color is an RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// Op is the kind of a recorded command.
type Op int

const (
	OpSetPipeline Op = iota + 1
	OpSetBindingLayout
	OpSetConstantBuffer
	OpSetViewport
	OpSetScissor
	OpTransition
	OpSetRenderTarget
	OpClearRenderTarget
	OpSetTopology
	OpSetVertexBuffer
	OpDraw
)

var opNames = map[Op]string{
	OpSetPipeline:       "SetPipeline",
	OpSetBindingLayout:  "SetBindingLayout",
	OpSetConstantBuffer: "SetConstantBuffer",
	OpSetViewport:       "SetViewport",
	OpSetScissor:        "SetScissor",
	OpTransition:        "Transition",
	OpSetRenderTarget:   "SetRenderTarget",
	OpClearRenderTarget: "ClearRenderTarget",
	OpSetTopology:       "SetTopology",
	OpSetVertexBuffer:   "SetVertexBuffer",
	OpDraw:              "Draw",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Command is one recorded GPU operation. Only the fields relevant to Op are set.
type Command struct {
	Op Op

	Pipeline PipelineHandle
	Layout   LayoutHandle
	Buffer   BufferHandle
	Target   TargetHandle

	// Slot is the constant buffer root slot or the vertex buffer input slot.
	Slot uint32

	Viewport Viewport
	Scissor  Rect

	Before, After ResourceState

	Color    Color
	Topology Topology

	// Stride and Size describe the bound vertex buffer view.
	Stride, Size uint64

	VertexCount, InstanceCount, FirstVertex, FirstInstance uint32
}
