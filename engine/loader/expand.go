package loader

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/g3n/engine/loader/obj"
	"github.com/pkg/errors"
)

// DefaultColor is the vertex color of faces that reference no material.
var DefaultColor = [4]float32{1, 1, 1, 1}

// noMaterial is the material name the OBJ decoder gives faces that follow no usemtl line.
const noMaterial = "internal default"

// shapeResult is the output slot of one shape's expansion.
type shapeResult struct {
	vertices  []common.Vertex
	materials []string
	err       error
}

// Expand flattens every face of dec into non-indexed vertices, three per triangle, colored with the
// diffuse color of the face's material and an alpha of 1. Faces with more than three corners are
// fan triangulated around their first corner.
//
// Shapes are expanded concurrently on pool, one task per shape, each writing into its own slot. The
// slots are concatenated in shape order after all tasks finish, so the output does not depend on
// scheduling. A nil pool expands on the calling goroutine.
//
// Parameters:
//   - dec: the decoded mesh
//   - pool: the worker pool, may be nil
//
// Returns:
//   - []common.Vertex: the expanded vertices
//   - []string: the referenced material names in first-use order
//   - error: an AssetLoad error for an unknown material or an out-of-range index
func Expand(dec *obj.Decoder, pool worker.DynamicWorkerPool) ([]common.Vertex, []string, error) {
	if dec == nil {
		return nil, nil, common.Errorf(common.KindAssetLoad, "loader.Expand", "nil decoder")
	}

	results := make([]shapeResult, len(dec.Objects))
	if pool == nil {
		for i := range dec.Objects {
			results[i] = expandShape(dec, &dec.Objects[i])
		}
	} else {
		var wg sync.WaitGroup
		wg.Add(len(dec.Objects))
		for i := range dec.Objects {
			pool.SubmitTask(worker.Task{
				ID: i,
				Do: func() (any, error) {
					defer wg.Done()
					results[i] = expandShape(dec, &dec.Objects[i])
					return nil, results[i].err
				},
			})
		}
		wg.Wait()
	}

	total := 0
	for _, r := range results {
		if r.err != nil {
			return nil, nil, common.NewError(common.KindAssetLoad, "loader.Expand", r.err)
		}
		total += len(r.vertices)
	}

	vertices := make([]common.Vertex, 0, total)
	var materials []string
	seen := make(map[string]struct{})
	for _, r := range results {
		vertices = append(vertices, r.vertices...)
		for _, name := range r.materials {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				materials = append(materials, name)
			}
		}
	}
	return vertices, materials, nil
}

// expandShape expands the faces of a single shape.
func expandShape(dec *obj.Decoder, shape *obj.Object) shapeResult {
	var res shapeResult
	colors := make(map[string][4]float32)
	positions := len(dec.Vertices) / 3

	for f, face := range shape.Faces {
		if len(face.Vertices) < 3 {
			res.err = errors.Errorf("shape %q face %d has %d corners", shape.Name, f, len(face.Vertices))
			return res
		}

		color, ok := colors[face.Material]
		if !ok {
			c, err := materialColor(dec, face.Material)
			if err != nil {
				res.err = errors.Wrapf(err, "shape %q face %d", shape.Name, f)
				return res
			}
			color = c
			colors[face.Material] = c
			if !isDefaultMaterial(face.Material) {
				res.materials = append(res.materials, face.Material)
			}
		}

		for _, idx := range face.Vertices {
			if idx < 0 || idx >= positions {
				res.err = errors.Errorf("shape %q face %d references position %d of %d", shape.Name, f, idx, positions)
				return res
			}
		}

		for i := 2; i < len(face.Vertices); i++ {
			for _, idx := range [3]int{face.Vertices[0], face.Vertices[i-1], face.Vertices[i]} {
				res.vertices = append(res.vertices, common.Vertex{
					Position: [3]float32{dec.Vertices[idx*3], dec.Vertices[idx*3+1], dec.Vertices[idx*3+2]},
					Color:    color,
				})
			}
		}
	}
	return res
}

// materialColor returns the diffuse color of the named material with alpha forced to 1.
func materialColor(dec *obj.Decoder, name string) ([4]float32, error) {
	if isDefaultMaterial(name) {
		return DefaultColor, nil
	}
	mat, ok := dec.Materials[name]
	if !ok || mat == nil {
		return [4]float32{}, fmt.Errorf("unknown material %q", name)
	}
	return [4]float32{mat.Diffuse.R, mat.Diffuse.G, mat.Diffuse.B, 1}, nil
}

func isDefaultMaterial(name string) bool {
	return name == "" || name == noMaterial
}
