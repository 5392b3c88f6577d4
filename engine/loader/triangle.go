package loader

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
)

// TriangleName is the cache key and model name of the built-in triangle.
const TriangleName = "triangle"

// Triangle builds the built-in test mesh: one triangle with a red top corner, a green right corner
// and a blue left corner, stretched vertically by aspect so it looks equilateral on screen.
//
// Parameters:
//   - aspect: the surface width / height
//
// Returns:
//   - model.Model: the triangle
func Triangle(aspect float32) model.Model {
	half := float32(0.25 * math.Sqrt2)
	return model.NewModel(
		model.WithName(TriangleName),
		model.WithVertices([]common.Vertex{
			{Position: [3]float32{0, 0.25 * aspect, 0}, Color: [4]float32{1, 0, 0, 1}},
			{Position: [3]float32{half, -0.25 * aspect, 0}, Color: [4]float32{0, 1, 0, 1}},
			{Position: [3]float32{-half, -0.25 * aspect, 0}, Color: [4]float32{0, 0, 1, 1}},
		}),
	)
}
