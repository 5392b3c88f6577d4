package shader

import (
	_ "embed"
	"os"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/pkg/errors"
)

// defaultSource is the built-in mesh shader: the vertex stage transforms positions by the MVP
// uniform and passes the color through, the fragment stage outputs the interpolated color.
//
//go:embed assets/mesh.wgsl
var defaultSource string

// ShaderType identifies the pipeline stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex ShaderType = iota + 1

	// ShaderTypeFragment is the fragment stage.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// VertexInput is a single @location input of a vertex entry point.
type VertexInput struct {
	Name     string
	Location uint32
	Format   VertexFormat
}

// Binding is a single @group/@binding resource declaration.
type Binding struct {
	Group   uint32
	Binding uint32
	Name    string
	// AddressSpace is the var<...> qualifier, e.g. "uniform". Empty for handle types.
	AddressSpace string
	TypeName     string
	// Size is the byte size of the bound type, 0 if it could not be resolved.
	Size uint64
}

// shader is the implementation of the Shader interface.
type shader struct {
	key          string
	source       string
	shaderType   ShaderType
	entryPoint   string
	vertexInputs []VertexInput
	bindings     []Binding
}

// Shader is a parsed WGSL source bound to one stage. The metadata it exposes is what the pipeline
// builder validates against its input and binding layouts.
type Shader interface {
	// Key retrieves the unique identifier for this shader.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// ShaderType returns the stage this shader is used for.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the name of the entry point function for the shader's stage.
	//
	// Returns:
	//   - string: the entry point name, or an empty string if the source declares none
	EntryPoint() string

	// VertexInputs returns the @location inputs of the vertex entry point, sorted by location.
	// Fragment shaders return nil.
	//
	// Returns:
	//   - []VertexInput: the vertex inputs
	VertexInputs() []VertexInput

	// Bindings returns every resource declaration in the source, sorted by group then binding.
	//
	// Returns:
	//   - []Binding: the declared bindings
	Bindings() []Binding
}

var _ Shader = &shader{}

// NewShader parses source for the given stage.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the shader is used for
//   - source: the WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: a pipeline compile error if the source is empty or the stage is unknown
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	if source == "" {
		return nil, common.Errorf(common.KindPipelineCompile, "shader.NewShader", "%s: empty source", key)
	}
	if shaderType != ShaderTypeVertex && shaderType != ShaderTypeFragment {
		return nil, common.Errorf(common.KindPipelineCompile, "shader.NewShader", "%s: unknown shader type %d", key, shaderType)
	}

	cleaned := stripComments(source)
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: parseEntryPoint(cleaned, shaderType),
		bindings:   parseBindings(cleaned),
	}
	if shaderType == ShaderTypeVertex && s.entryPoint != "" {
		s.vertexInputs = parseVertexInputs(cleaned, s.entryPoint)
	}
	return s, nil
}

// NewStages parses a single source holding both a vertex and a fragment entry point.
//
// Parameters:
//   - key: the key prefix; the stages are keyed "<key>.vs" and "<key>.fs"
//   - source: the WGSL source
//
// Returns:
//   - Shader: the vertex stage
//   - Shader: the fragment stage
//   - error: a pipeline compile error if the source is empty
func NewStages(key, source string) (Shader, Shader, error) {
	vs, err := NewShader(key+".vs", ShaderTypeVertex, source)
	if err != nil {
		return nil, nil, err
	}
	fs, err := NewShader(key+".fs", ShaderTypeFragment, source)
	if err != nil {
		return nil, nil, err
	}
	return vs, fs, nil
}

// LoadFile reads a WGSL file and parses both of its stages.
//
// Parameters:
//   - path: the WGSL file path
//
// Returns:
//   - Shader: the vertex stage
//   - Shader: the fragment stage
//   - error: an asset load error if the file cannot be read
func LoadFile(path string) (Shader, Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, common.NewError(common.KindAssetLoad, "shader.LoadFile", errors.Wrapf(err, "read %s", path))
	}
	return NewStages(path, string(data))
}

// Default returns both stages of the built-in mesh shader.
//
// Returns:
//   - Shader: the vertex stage
//   - Shader: the fragment stage
//   - error: always nil for the embedded source
func Default() (Shader, Shader, error) {
	return NewStages("mesh", defaultSource)
}

// DefaultSource returns the WGSL of the built-in mesh shader.
func DefaultSource() string {
	return defaultSource
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexInputs() []VertexInput {
	return s.vertexInputs
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}
