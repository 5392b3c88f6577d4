package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// model is the implementation of the Model interface.
type model struct {
	name      string
	source    string
	vertices  []common.Vertex
	materials []string
	min, max  mgl32.Vec3
}

// Model defines the interface for a loaded triangle mesh.
// A Model is produced by the Loader after expanding an OBJ file (or from the built-in triangle)
// and is handed to the Renderer as a flat, non-indexed vertex list. Once built it never changes.
type Model interface {
	// Name retrieves the model identifier, usually the cache key it was loaded under.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Source returns the file path the model was read from, or an empty string for generated models.
	Source() string

	// Vertices retrieves a copy of the expanded vertex list. Every three consecutive vertices form
	// one triangle.
	//
	// Returns:
	//   - []common.Vertex: the vertices
	Vertices() []common.Vertex

	// VertexCount returns the number of vertices, always a multiple of three.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// TriangleCount returns VertexCount() / 3.
	TriangleCount() int

	// Materials returns the names of the materials referenced by the mesh, in first-use order.
	Materials() []string

	// Bounds returns the axis-aligned bounding box of all vertex positions.
	// Both corners are zero for an empty model.
	//
	// Returns:
	//   - mgl32.Vec3: the minimum corner
	//   - mgl32.Vec3: the maximum corner
	Bounds() (mgl32.Vec3, mgl32.Vec3)
}

var _ Model = &model{}

// NewModel creates a new Model with the given options applied. The bounding box is computed from
// the final vertex list.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: the newly created model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, option := range options {
		option(m)
	}
	m.computeBounds()
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Source() string {
	return m.source
}

func (m *model) Vertices() []common.Vertex {
	out := make([]common.Vertex, len(m.vertices))
	copy(out, m.vertices)
	return out
}

func (m *model) VertexCount() int {
	return len(m.vertices)
}

func (m *model) TriangleCount() int {
	return len(m.vertices) / 3
}

func (m *model) Materials() []string {
	out := make([]string, len(m.materials))
	copy(out, m.materials)
	return out
}

func (m *model) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	return m.min, m.max
}

func (m *model) computeBounds() {
	if len(m.vertices) == 0 {
		return
	}
	m.min = m.vertices[0].Position
	m.max = m.vertices[0].Position
	for _, v := range m.vertices[1:] {
		for i := range 3 {
			m.min[i] = min(m.min[i], v.Position[i])
			m.max[i] = max(m.max[i], v.Position[i])
		}
	}
}
