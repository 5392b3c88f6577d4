// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "unsafe"

// Vertex is a single mesh vertex as laid out in the GPU vertex buffer.
type Vertex struct {
	// Position is the object-space position.
	Position [3]float32
	// Color is the RGBA vertex color. Loaded meshes always carry an alpha of 1.
	Color [4]float32
}

const (
	// VertexStride is the size in bytes of one Vertex in the vertex buffer.
	VertexStride = uint64(unsafe.Sizeof(Vertex{}))

	// VertexPositionOffset is the byte offset of Vertex.Position.
	VertexPositionOffset = uint64(unsafe.Offsetof(Vertex{}.Position))

	// VertexColorOffset is the byte offset of Vertex.Color.
	VertexColorOffset = uint64(unsafe.Offsetof(Vertex{}.Color))
)
