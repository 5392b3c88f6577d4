package loader

import (
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/g3n/engine/loader/obj"
	"github.com/pkg/errors"
)

// LoaderBackendType identifies the mesh file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeOBJ selects the Wavefront OBJ/MTL loader backend.
	BackendTypeOBJ LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]model.Model

	backend loaderBackend

	workers  int
	pool     worker.DynamicWorkerPool
	ownsPool bool
}

// Loader defines the public-facing interface for loading and caching meshes.
// It abstracts the file format behind a backend, expands the decoded shapes into flat vertex lists
// on a worker pool, and caches the results by name.
type Loader interface {
	// Load decodes an OBJ file and its material library, expands it and caches the result under path.
	// If the model is already cached, the cached version is returned.
	//
	// Parameters:
	//   - path: the mesh file path
	//   - mtlPath: the material library path, empty to use the library named by the mesh file
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: an AssetLoad error if a file is missing, fails to parse or yields no triangles
	Load(path, mtlPath string) (model.Model, error)

	// LoadReader decodes a mesh from reader streams and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing the mesh data
	//   - mtl: the reader providing the material library, nil when the mesh has none
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: an AssetLoad error if the data fails to parse or yields no triangles
	LoadReader(name string, r, mtl io.Reader) (model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	Models() map[string]model.Model

	// Close stops the worker pool if the Loader created it.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
// Unless a pool is supplied, a worker pool with one worker per spare CPU is created.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeOBJ)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		modelCache: make(map[string]model.Model),
		workers:    max(runtime.NumCPU()-1, 1),
		ownsPool:   true,
	}

	switch backendType {
	case BackendTypeOBJ:
		l.backend = newOBJLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	if l.pool == nil {
		l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
		l.ownsPool = true
	}
	return l
}

func (l *loader) Load(path, mtlPath string) (model.Model, error) {
	const op = "loader.Load"

	if cached := l.Get(path); cached != nil {
		return cached, nil
	}
	if l.backend == nil {
		return nil, common.Errorf(common.KindAssetLoad, op, "no loader backend")
	}

	dec, err := l.backend.Load(path, mtlPath)
	if err != nil {
		return nil, common.NewError(common.KindAssetLoad, op, errors.Wrapf(err, "failed to load %s", path))
	}

	m, err := l.build(op, path, path, dec)
	if err != nil {
		return nil, err
	}
	return l.store(path, m), nil
}

func (l *loader) LoadReader(name string, r, mtl io.Reader) (model.Model, error) {
	const op = "loader.LoadReader"

	if cached := l.Get(name); cached != nil {
		return cached, nil
	}
	if l.backend == nil {
		return nil, common.Errorf(common.KindAssetLoad, op, "no loader backend")
	}

	dec, err := l.backend.LoadReader(r, mtl)
	if err != nil {
		return nil, common.NewError(common.KindAssetLoad, op, errors.Wrapf(err, "failed to load from reader %q", name))
	}

	m, err := l.build(op, name, "", dec)
	if err != nil {
		return nil, err
	}
	return l.store(name, m), nil
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Close() {
	if l.ownsPool && l.pool != nil {
		l.pool.Stop()
		l.pool = nil
	}
}

// build logs the decoder's warnings and expands the decoded shapes into a Model.
func (l *loader) build(op, name, source string, dec *obj.Decoder) (model.Model, error) {
	for _, w := range dec.Warnings {
		slog.Warn("obj decoder warning", "model", name, "warning", w)
	}

	vertices, materials, err := Expand(dec, l.pool)
	if err != nil {
		return nil, common.NewError(common.KindAssetLoad, op, errors.Wrapf(err, "failed to expand %s", name))
	}
	if len(vertices) == 0 {
		return nil, common.Errorf(common.KindAssetLoad, op, "%s contains no triangles", name)
	}

	slog.Debug("mesh loaded",
		"model", name,
		"shapes", len(dec.Objects),
		"vertices", len(vertices),
		"materials", len(materials),
	)

	return model.NewModel(
		model.WithName(name),
		model.WithSource(source),
		model.WithVertices(vertices),
		model.WithMaterials(materials),
	), nil
}

// store caches m under name unless another goroutine got there first, and returns the cached model.
func (l *loader) store(name string, m model.Model) model.Model {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.modelCache[name]; ok {
		return cached
	}
	l.modelCache[name] = m
	return m
}
