package pipeline

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
)

const validateOp = "pipeline.Validate"

func (p *pipeline) Validate() error {
	if err := p.validateStage(p.vertexShader, shader.ShaderTypeVertex); err != nil {
		return err
	}
	if err := p.validateStage(p.fragmentShader, shader.ShaderTypeFragment); err != nil {
		return err
	}
	if err := p.validateInputLayout(); err != nil {
		return err
	}
	if err := p.validateBindingLayout(); err != nil {
		return err
	}
	return nil
}

func (p *pipeline) validateStage(s shader.Shader, want shader.ShaderType) error {
	if s == nil {
		return common.Errorf(common.KindPipelineCompile, validateOp, "%s: missing %s shader", p.pipelineKey, want)
	}
	if s.ShaderType() != want {
		return common.Errorf(common.KindPipelineCompile, validateOp, "%s: %s bound as %s shader", p.pipelineKey, s.Key(), want)
	}
	if s.EntryPoint() == "" {
		return common.Errorf(common.KindPipelineCompile, validateOp, "%s: %s has no %s entry point", p.pipelineKey, s.Key(), want)
	}
	return nil
}

// validateInputLayout checks every attribute fits the stride without overlapping another, and
// that every vertex input of the shader is fed by an attribute of the same format.
func (p *pipeline) validateInputLayout() error {
	layout := p.inputLayout
	if layout.Stride == 0 || len(layout.Attributes) == 0 {
		return common.Errorf(common.KindPipelineCompile, validateOp, "%s: empty input layout", p.pipelineKey)
	}

	attrs := append([]VertexAttribute(nil), layout.Attributes...)
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].Offset < attrs[j].Offset
	})

	byLocation := make(map[uint32]VertexAttribute, len(attrs))
	var end uint64
	for i, a := range attrs {
		size := a.Format.Size()
		if size == 0 {
			return common.Errorf(common.KindPipelineCompile, validateOp, "%s: attribute %s has no format", p.pipelineKey, a.Semantic)
		}
		if a.Offset+size > layout.Stride {
			return common.Errorf(common.KindPipelineCompile, validateOp, "%s: attribute %s ends at %d past stride %d",
				p.pipelineKey, a.Semantic, a.Offset+size, layout.Stride)
		}
		if i > 0 && a.Offset < end {
			return common.Errorf(common.KindPipelineCompile, validateOp, "%s: attribute %s overlaps %s",
				p.pipelineKey, a.Semantic, attrs[i-1].Semantic)
		}
		if _, dup := byLocation[a.Location]; dup {
			return common.Errorf(common.KindPipelineCompile, validateOp, "%s: location %d used twice", p.pipelineKey, a.Location)
		}
		byLocation[a.Location] = a
		end = a.Offset + size
	}

	for _, in := range p.vertexShader.VertexInputs() {
		a, ok := byLocation[in.Location]
		if !ok {
			return common.Errorf(common.KindPipelineCompile, validateOp, "%s: shader input %s at location %d has no attribute",
				p.pipelineKey, in.Name, in.Location)
		}
		if a.Format != in.Format {
			return common.Errorf(common.KindPipelineCompile, validateOp, "%s: shader input %s is %s, attribute %s is %s",
				p.pipelineKey, in.Name, in.Format, a.Semantic, a.Format)
		}
	}
	return nil
}

// validateBindingLayout checks the layout only exposes vertex-stage uniforms and provides every
// binding either shader stage declares.
func (p *pipeline) validateBindingLayout() error {
	type slot struct{ group, binding uint32 }
	entries := make(map[slot]BindingEntry, len(p.bindingLayout.Entries))
	for _, e := range p.bindingLayout.Entries {
		if e.Visibility != VisibilityVertex {
			return common.Errorf(common.KindPipelineCompile, validateOp, "%s: binding %d/%d must be visible to the vertex stage only",
				p.pipelineKey, e.Group, e.Binding)
		}
		entries[slot{e.Group, e.Binding}] = e
	}

	for _, s := range []shader.Shader{p.vertexShader, p.fragmentShader} {
		for _, b := range s.Bindings() {
			e, ok := entries[slot{b.Group, b.Binding}]
			if !ok {
				return common.Errorf(common.KindPipelineCompile, validateOp, "%s: %s declares %s at %d/%d, not in the binding layout",
					p.pipelineKey, s.Key(), b.Name, b.Group, b.Binding)
			}
			if b.AddressSpace != "uniform" {
				return common.Errorf(common.KindPipelineCompile, validateOp, "%s: %s binds %s as %q, want uniform",
					p.pipelineKey, s.Key(), b.Name, b.AddressSpace)
			}
			if b.Size > e.MinSize {
				return common.Errorf(common.KindPipelineCompile, validateOp, "%s: %s needs %d bytes at %d/%d, layout provides %d",
					p.pipelineKey, s.Key(), b.Size, b.Group, b.Binding, e.MinSize)
			}
		}
	}
	return nil
}
