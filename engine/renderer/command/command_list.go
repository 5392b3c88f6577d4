package command

import (
	"errors"
	"fmt"
)

var (
	// ErrListClosed is reported by Close when commands were recorded into a closed list.
	ErrListClosed = errors.New("command list is closed")

	// ErrListOpen is returned when resetting a list that is still recording.
	ErrListOpen = errors.New("command list is still recording")
)

// Allocator is the backing storage for recorded commands. Its contents are discarded by List.Reset,
// so it must only be reset once the GPU has finished executing the commands it holds.
type Allocator struct {
	label    string
	commands []Command
}

// NewAllocator creates an empty Allocator.
//
// Parameters:
//   - label: debug label
//   - capacity: initial command capacity
//
// Returns:
//   - *Allocator: the new allocator
func NewAllocator(label string, capacity int) *Allocator {
	return &Allocator{
		label:    label,
		commands: make([]Command, 0, capacity),
	}
}

// Label returns the debug label of the allocator.
func (a *Allocator) Label() string {
	return a.label
}

// Len returns the number of commands currently held.
func (a *Allocator) Len() int {
	return len(a.commands)
}

func (a *Allocator) reset() {
	a.commands = a.commands[:0]
}

// List records commands in order into an Allocator. A List is created closed; Reset opens it for
// recording and Close finalizes it for submission.
type List struct {
	label string
	alloc *Allocator
	open  bool
	err   error
}

// NewList creates a closed command list.
//
// Parameters:
//   - label: debug label
//
// Returns:
//   - *List: the new list
func NewList(label string) *List {
	return &List{label: label}
}

// Label returns the debug label of the list.
func (l *List) Label() string {
	return l.label
}

// Closed reports whether the list is finalized and ready for submission.
func (l *List) Closed() bool {
	return !l.open
}

// Commands returns the recorded commands. The slice is owned by the list's allocator and is only
// valid until the next Reset.
func (l *List) Commands() []Command {
	if l.alloc == nil {
		return nil
	}
	return l.alloc.commands
}

// Reset discards the allocator's contents and opens the list for recording. A non-zero initial
// pipeline is bound as the first recorded command.
//
// Parameters:
//   - alloc: the allocator to record into
//   - initial: the pipeline to bind first, or 0 for none
//
// Returns:
//   - error: ErrListOpen if the list is still recording, or an error if alloc is nil
func (l *List) Reset(alloc *Allocator, initial PipelineHandle) error {
	if l.open {
		return fmt.Errorf("reset %s: %w", l.label, ErrListOpen)
	}
	if alloc == nil {
		return fmt.Errorf("reset %s: nil allocator", l.label)
	}

	alloc.reset()
	l.alloc = alloc
	l.open = true
	l.err = nil

	if initial != 0 {
		l.record(Command{Op: OpSetPipeline, Pipeline: initial})
	}
	return nil
}

// Close finalizes the list. Any recording error since the last Reset is returned here.
//
// Returns:
//   - error: ErrListClosed if the list was not recording or commands were recorded while closed
func (l *List) Close() error {
	if !l.open {
		if l.err != nil {
			return fmt.Errorf("close %s: %w", l.label, l.err)
		}
		return fmt.Errorf("close %s: %w", l.label, ErrListClosed)
	}
	l.open = false
	if l.err != nil {
		return fmt.Errorf("close %s: %w", l.label, l.err)
	}
	return nil
}

func (l *List) record(c Command) {
	if !l.open {
		if l.err == nil {
			l.err = fmt.Errorf("%s recorded: %w", c.Op, ErrListClosed)
		}
		return
	}
	l.alloc.commands = append(l.alloc.commands, c)
}

func (l *List) SetPipeline(p PipelineHandle) {
	l.record(Command{Op: OpSetPipeline, Pipeline: p})
}

func (l *List) SetBindingLayout(layout LayoutHandle) {
	l.record(Command{Op: OpSetBindingLayout, Layout: layout})
}

func (l *List) SetConstantBuffer(slot uint32, buf BufferHandle) {
	l.record(Command{Op: OpSetConstantBuffer, Slot: slot, Buffer: buf})
}

func (l *List) SetViewport(v Viewport) {
	l.record(Command{Op: OpSetViewport, Viewport: v})
}

func (l *List) SetScissor(r Rect) {
	l.record(Command{Op: OpSetScissor, Scissor: r})
}

// Transition records a state change of a swap chain image.
func (l *List) Transition(target TargetHandle, before, after ResourceState) {
	l.record(Command{Op: OpTransition, Target: target, Before: before, After: after})
}

func (l *List) SetRenderTarget(target TargetHandle) {
	l.record(Command{Op: OpSetRenderTarget, Target: target})
}

func (l *List) ClearRenderTarget(target TargetHandle, c Color) {
	l.record(Command{Op: OpClearRenderTarget, Target: target, Color: c})
}

func (l *List) SetTopology(t Topology) {
	l.record(Command{Op: OpSetTopology, Topology: t})
}

func (l *List) SetVertexBuffer(slot uint32, buf BufferHandle, stride, size uint64) {
	l.record(Command{Op: OpSetVertexBuffer, Slot: slot, Buffer: buf, Stride: stride, Size: size})
}

// Draw records a non-indexed draw.
func (l *List) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	l.record(Command{
		Op:            OpDraw,
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		FirstVertex:   firstVertex,
		FirstInstance: firstInstance,
	})
}
