package loader

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/g3n/engine/loader/obj"
	"github.com/pkg/errors"
)

// mtlFallbackWarning is the prefix of the warning g3n records when it could not parse the material
// stream and painted every material with its gray default instead.
const mtlFallbackWarning = "unable to parse a material file"

// objLoaderBackendImpl is the implementation of objLoaderBackend.
type objLoaderBackendImpl struct{}

// objLoaderBackend is a loaderBackend implementation for Wavefront OBJ/MTL files.
// It delegates parsing to the g3n OBJ decoder. The material library is always resolved here and
// handed to the decoder as a stream, so the decoder's own file lookups and gray fallback never run.
type objLoaderBackend interface {
	loaderBackend
}

var _ objLoaderBackend = &objLoaderBackendImpl{}

// newOBJLoaderBackend creates a new OBJ loader backend.
//
// Returns:
//   - objLoaderBackend: the loader backend for OBJ files
func newOBJLoaderBackend() objLoaderBackend {
	return &objLoaderBackendImpl{}
}

// Load reads the mesh file and its material library. With an empty mtlPath the library named by the
// mesh's mtllib line is used, relative to the mesh file. A mesh without an mtllib line has no
// materials.
func (b *objLoaderBackendImpl) Load(path, mtlPath string) (*obj.Decoder, error) {
	objData, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if mtlPath == "" {
		if lib := matlib(objData); lib != "" {
			mtlPath = filepath.Join(filepath.Dir(path), lib)
		}
	}

	var mtlData []byte
	if mtlPath != "" {
		mtlData, err = os.ReadFile(mtlPath)
		if err != nil {
			return nil, errors.Wrap(err, "material library")
		}
	}
	return decode(objData, mtlData)
}

// LoadReader decodes a mesh from streams. A nil mtl means the mesh has no material library.
func (b *objLoaderBackendImpl) LoadReader(r, mtl io.Reader) (*obj.Decoder, error) {
	if r == nil {
		return nil, errors.New("nil mesh reader")
	}
	objData, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh")
	}
	var mtlData []byte
	if mtl != nil {
		if mtlData, err = io.ReadAll(mtl); err != nil {
			return nil, errors.Wrap(err, "read material library")
		}
	}
	return decode(objData, mtlData)
}

// decode runs the g3n decoder over in-memory streams and drops every material the library does not
// define with newmtl, so faces naming them fail in Expand instead of rendering black.
func decode(objData, mtlData []byte) (*obj.Decoder, error) {
	dec, err := obj.DecodeReader(bytes.NewReader(objData), bytes.NewReader(mtlData))
	if err != nil {
		return nil, errors.Wrap(err, "obj decode")
	}
	for _, w := range dec.Warnings {
		if strings.Contains(w, mtlFallbackWarning) {
			return nil, errors.Errorf("material library: %s", w)
		}
	}

	defined := materialNames(mtlData)
	for name := range dec.Materials {
		if _, ok := defined[name]; !ok {
			delete(dec.Materials, name)
		}
	}
	return dec, nil
}

// matlib returns the library named by the first mtllib line of an OBJ stream, or "".
func matlib(objData []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(objData))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[0] == "mtllib" {
			return fields[1]
		}
	}
	return ""
}

// materialNames returns the set of names declared by newmtl lines of an MTL stream.
func materialNames(mtlData []byte) map[string]struct{} {
	names := make(map[string]struct{})
	sc := bufio.NewScanner(bytes.NewReader(mtlData))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[0] == "newmtl" {
			names[fields[1]] = struct{}{}
		}
	}
	return names
}
