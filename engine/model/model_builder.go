package model

import "github.com/Carmen-Shannon/oxy-viewer/common"

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithSource sets the file the Model was read from.
func WithSource(path string) ModelBuilderOption {
	return func(m *model) {
		m.source = path
	}
}

// WithVertices is an option builder that sets the vertex list of the Model.
// The slice is copied, later changes by the caller are not observed.
//
// Parameters:
//   - vertices: the expanded vertices, three per triangle
//
// Returns:
//   - ModelBuilderOption: a function that applies the vertices option to a model
func WithVertices(vertices []common.Vertex) ModelBuilderOption {
	return func(m *model) {
		m.vertices = make([]common.Vertex, len(vertices))
		copy(m.vertices, vertices)
	}
}

// WithMaterials sets the material names referenced by the Model.
func WithMaterials(names []string) ModelBuilderOption {
	return func(m *model) {
		m.materials = append([]string(nil), names...)
	}
}
