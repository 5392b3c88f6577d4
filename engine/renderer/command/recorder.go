package command

import (
	"errors"
	"fmt"
)

// FrameInputs holds everything the Recorder references for one frame.
type FrameInputs struct {
	Allocator *Allocator

	Pipeline PipelineHandle
	Layout   LayoutHandle

	// Constant is the transform constant buffer bound at ConstantSlot.
	Constant     BufferHandle
	ConstantSlot uint32

	// Target is the current back buffer.
	Target        TargetHandle
	Width, Height uint32

	VertexBuffer BufferHandle
	VertexStride uint64
	VertexCount  uint32
}

// Recorder records the fixed per-frame command sequence.
type Recorder struct {
	clearColor Color
}

// RecorderOption is a functional option applied to a Recorder during construction via NewRecorder.
type RecorderOption func(*Recorder)

// WithClearColor overrides the background color the render target is cleared to.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RecorderOption: a function that applies the clear color to a Recorder
func WithClearColor(c Color) RecorderOption {
	return func(r *Recorder) {
		r.clearColor = c
	}
}

// NewRecorder creates a Recorder that clears to opaque black unless configured otherwise.
//
// Parameters:
//   - options: variadic list of RecorderOption functions
//
// Returns:
//   - *Recorder: the new recorder
func NewRecorder(options ...RecorderOption) *Recorder {
	r := &Recorder{
		clearColor: Color{R: 0, G: 0, B: 0, A: 1},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// ClearColor returns the configured clear color.
func (r *Recorder) ClearColor() Color {
	return r.clearColor
}

// Record resets list into in.Allocator and records one frame: pipeline and binding state, full-target
// viewport and scissor, the present to render-target transition, clear, one non-indexed draw over
// the whole vertex buffer and the transition back to present. The list is closed on return.
//
// Parameters:
//   - list: the command list to record into; it must be closed
//   - in: the resources referenced by the frame
//
// Returns:
//   - error: an error if the inputs are incomplete or the list could not be reset or closed
func (r *Recorder) Record(list *List, in FrameInputs) error {
	if list == nil {
		return errors.New("record: nil command list")
	}
	if in.Pipeline == 0 || in.Layout == 0 {
		return errors.New("record: pipeline and binding layout are required")
	}
	if in.Constant == 0 || in.VertexBuffer == 0 {
		return errors.New("record: constant and vertex buffers are required")
	}
	if in.Width == 0 || in.Height == 0 {
		return fmt.Errorf("record: invalid target size %dx%d", in.Width, in.Height)
	}

	if err := list.Reset(in.Allocator, in.Pipeline); err != nil {
		return err
	}

	list.SetBindingLayout(in.Layout)
	list.SetConstantBuffer(in.ConstantSlot, in.Constant)

	list.SetViewport(Viewport{
		Width:    float32(in.Width),
		Height:   float32(in.Height),
		MaxDepth: 1,
	})
	list.SetScissor(Rect{Width: in.Width, Height: in.Height})

	list.Transition(in.Target, StatePresent, StateRenderTarget)
	list.SetRenderTarget(in.Target)
	list.ClearRenderTarget(in.Target, r.clearColor)

	list.SetTopology(TopologyTriangleList)
	list.SetVertexBuffer(0, in.VertexBuffer, in.VertexStride, in.VertexStride*uint64(in.VertexCount))
	list.Draw(in.VertexCount, 1, 0, 0)

	list.Transition(in.Target, StateRenderTarget, StatePresent)

	return list.Close()
}
