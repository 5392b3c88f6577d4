package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
)

type fakeCompiler struct {
	compiled []Pipeline
	err      error
}

func (c *fakeCompiler) CompilePipeline(p Pipeline) (command.PipelineHandle, command.LayoutHandle, error) {
	if c.err != nil {
		return 0, 0, c.err
	}
	c.compiled = append(c.compiled, p)
	return command.PipelineHandle(len(c.compiled)), 1, nil
}

func defaultStages(t *testing.T) (shader.Shader, shader.Shader) {
	t.Helper()
	vs, fs, err := shader.Default()
	if err != nil {
		t.Fatal(err)
	}
	return vs, fs
}

func TestBuildDefaultPipeline(t *testing.T) {
	vs, fs := defaultStages(t)
	p := NewPipeline("mesh", WithVertexShader(vs), WithFragmentShader(fs), WithDepthClip(false))

	if p.CullMode() != CullModeBack || p.FrontFace() != FrontFaceCW || p.Topology() != command.TopologyTriangleList {
		t.Fatalf("unexpected raster defaults: cull %v front %v topology %v", p.CullMode(), p.FrontFace(), p.Topology())
	}
	if p.DepthClip() {
		t.Fatal("depth clip option ignored")
	}

	c := &fakeCompiler{}
	ph, lh, err := p.Build(c)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ph != 1 || lh != 1 || len(c.compiled) != 1 {
		t.Fatalf("handles %d/%d after %d compiles", ph, lh, len(c.compiled))
	}
}

func TestDefaultLayoutsMatchVertex(t *testing.T) {
	in := DefaultInputLayout()
	if in.Stride != 28 {
		t.Fatalf("stride = %d", in.Stride)
	}
	if in.Attributes[0].Offset != 0 || in.Attributes[1].Offset != 12 {
		t.Fatalf("offsets = %d, %d", in.Attributes[0].Offset, in.Attributes[1].Offset)
	}
	b := DefaultBindingLayout()
	if len(b.Entries) != 1 || b.Entries[0].Visibility != VisibilityVertex || b.Entries[0].MinSize != 256 {
		t.Fatalf("binding layout = %+v", b)
	}
}

func TestValidateRejects(t *testing.T) {
	vs, fs := defaultStages(t)
	noEntry, err := shader.NewShader("noentry", shader.ShaderTypeFragment, "fn helper() {}")
	if err != nil {
		t.Fatal(err)
	}
	fragUniform, err := shader.NewShader("fraguniform", shader.ShaderTypeFragment, `
@group(0) @binding(3) var<uniform> tint: vec4<f32>;
@fragment fn fs_main() -> @location(0) vec4<f32> { return tint; }
`)
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string][]PipelineBuilderOption{
		"missing vertex":   {WithFragmentShader(fs)},
		"missing fragment": {WithVertexShader(vs)},
		"swapped stages":   {WithVertexShader(fs), WithFragmentShader(vs)},
		"no entry point":   {WithVertexShader(vs), WithFragmentShader(noEntry)},
		"overlap": {WithVertexShader(vs), WithFragmentShader(fs), WithInputLayout(InputLayout{
			Stride: 28,
			Attributes: []VertexAttribute{
				{Semantic: "POSITION", Format: shader.VertexFormatFloat32x3, Offset: 0, Location: 0},
				{Semantic: "COLOR", Format: shader.VertexFormatFloat32x4, Offset: 8, Location: 1},
			},
		})},
		"past stride": {WithVertexShader(vs), WithFragmentShader(fs), WithInputLayout(InputLayout{
			Stride: 24,
			Attributes: []VertexAttribute{
				{Semantic: "POSITION", Format: shader.VertexFormatFloat32x3, Offset: 0, Location: 0},
				{Semantic: "COLOR", Format: shader.VertexFormatFloat32x4, Offset: 12, Location: 1},
			},
		})},
		"unfed location": {WithVertexShader(vs), WithFragmentShader(fs), WithInputLayout(InputLayout{
			Stride: 12,
			Attributes: []VertexAttribute{
				{Semantic: "POSITION", Format: shader.VertexFormatFloat32x3, Offset: 0, Location: 0},
			},
		})},
		"format mismatch": {WithVertexShader(vs), WithFragmentShader(fs), WithInputLayout(InputLayout{
			Stride: 28,
			Attributes: []VertexAttribute{
				{Semantic: "POSITION", Format: shader.VertexFormatFloat32x3, Offset: 0, Location: 0},
				{Semantic: "COLOR", Format: shader.VertexFormatUint32x4, Offset: 12, Location: 1},
			},
		})},
		"fragment visibility": {WithVertexShader(vs), WithFragmentShader(fs), WithBindingLayout(BindingLayout{
			Entries: []BindingEntry{{Visibility: VisibilityVertex | VisibilityFragment, MinSize: 256}},
		})},
		"undeclared binding": {WithVertexShader(vs), WithFragmentShader(fragUniform)},
		"layout too small": {WithVertexShader(vs), WithFragmentShader(fs), WithBindingLayout(BindingLayout{
			Entries: []BindingEntry{{Visibility: VisibilityVertex, MinSize: 16}},
		})},
	}

	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			c := &fakeCompiler{}
			_, _, err := NewPipeline(name, opts...).Build(c)
			if !errors.Is(err, common.ErrPipelineCompile) {
				t.Fatalf("Build = %v, want pipeline compile error", err)
			}
			if len(c.compiled) != 0 {
				t.Fatal("invalid pipeline reached the compiler")
			}
		})
	}
}

func TestBuildWrapsCompilerErrors(t *testing.T) {
	vs, fs := defaultStages(t)
	boom := errors.New("backend rejected pipeline")

	_, _, err := NewPipeline("mesh", WithVertexShader(vs), WithFragmentShader(fs)).Build(&fakeCompiler{err: boom})
	if !errors.Is(err, common.ErrPipelineCompile) || !errors.Is(err, boom) {
		t.Fatalf("Build = %v", err)
	}
}
