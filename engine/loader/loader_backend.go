package loader

import (
	"io"

	"github.com/g3n/engine/loader/obj"
)

// loaderBackend defines the generic interface for decoding mesh files from disk or streams.
// Concrete implementations (e.g., objLoaderBackendImpl) handle format-specific details and hand back
// the parsed shapes, positions and material table for expansion.
type loaderBackend interface {
	// Load decodes a mesh file and its material library.
	//
	// Parameters:
	//   - path: the mesh file path
	//   - mtlPath: the material library path, empty to use the library named by the mesh file
	//
	// Returns:
	//   - *obj.Decoder: the decoded shapes, positions and materials
	//   - error: error if a file is missing or fails to parse
	Load(path, mtlPath string) (*obj.Decoder, error)

	// LoadReader decodes a mesh and its material library from reader streams.
	//
	// Parameters:
	//   - r: the reader providing the mesh data
	//   - mtl: the reader providing the material library, may be nil
	//
	// Returns:
	//   - *obj.Decoder: the decoded shapes, positions and materials
	//   - error: error if the data fails to parse
	LoadReader(r, mtl io.Reader) (*obj.Decoder, error)
}
