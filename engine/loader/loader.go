package loader

import (
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/config"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnsupportedFormat is returned for paths whose extension has no backend.
	ErrUnsupportedFormat = errors.New("unsupported model format")

	// ErrClosed resolves asynchronous loads that were still pending when the loader was closed,
	// and every LoadAsync started afterwards.
	ErrClosed = errors.New("loader closed")
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cfg    config.Config
	logger logrus.FieldLogger

	modelCache map[string]model.Model
	pending    map[string]*PendingModel
	closed     bool

	backend loaderBackend

	poolMu sync.Mutex
	pool   worker.DynamicWorkerPool
	taskID int
}

// Loader defines the public-facing interface for loading and caching skinned models.
// It abstracts the file format (glTF, GLB, etc.) behind a generic backend and
// manages a cache of previously loaded models.
//
// Every model gets its own bone weight table, sized by the config's MaxBones. Mesh bones are
// registered first, in mesh and skin order, so a model's vertex bindings keep their indices
// regardless of which clips are built afterwards.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the model is already cached (by file path), the cached version is returned.
	// The backend is selected based on the file extension (.gltf/.glb → glTF backend).
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: error if loading fails; import failures wrap skeleton.ErrImport or skeleton.ErrCapacity
	Load(path string) (model.Model, error)

	// LoadReader imports a glTF JSON or GLB stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (model.Model, error)

	// LoadAsync starts Load on the loader's worker pool and returns immediately.
	// Concurrent calls for the same path share one import. May block while the pool's
	// task queue is full.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *PendingModel: a handle that resolves once the model is fully built
	LoadAsync(path string) *PendingModel

	// Import builds a model from already imported data and caches it by name.
	//
	// Parameters:
	//   - name: the cache key for the model
	//   - imported: the format-neutral import result
	//
	// Returns:
	//   - model.Model: the built model
	//   - error: error if a mesh or clip is malformed or the bone table overflows
	Import(name string, imported *common.ImportedModel) (model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model

	// Close stops the async import pool and resolves every pending LoadAsync handle with
	// ErrClosed. Later LoadAsync calls return handles already resolved with ErrClosed;
	// synchronous loads keep working.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		cfg:        config.Default(),
		logger:     logrus.StandardLogger(),
		modelCache: make(map[string]model.Model),
		pending:    make(map[string]*PendingModel),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	imported, err := backend.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}

	return l.Import(path, imported)
}

func (l *loader) LoadReader(name string, r io.Reader) (model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	imported, err := l.backend.LoadReader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load from reader %q", name)
	}

	return l.Import(name, imported)
}

func (l *loader) LoadAsync(path string) *PendingModel {
	l.mu.Lock()
	if cached, ok := l.modelCache[path]; ok {
		l.mu.Unlock()
		return newResolvedModel(path, cached, nil)
	}
	if l.closed {
		l.mu.Unlock()
		return newResolvedModel(path, nil, errors.Wrapf(ErrClosed, "load %s", path))
	}
	if p, ok := l.pending[path]; ok {
		l.mu.Unlock()
		return p
	}
	p := newPendingModel(path)
	l.pending[path] = p
	l.mu.Unlock()

	pool, id := l.workerPool()
	pool.SubmitTask(worker.Task{
		ID:      id,
		Payload: path,
		Do: func() (any, error) {
			m, err := l.Load(path)
			if err != nil {
				l.logger.WithError(err).WithField("path", path).Error("async model load failed")
			}

			l.mu.Lock()
			if l.pending[path] == p {
				delete(l.pending, path)
			}
			l.mu.Unlock()

			p.resolve(m, err)
			return m, err
		},
	})
	return p
}

func (l *loader) Import(name string, imported *common.ImportedModel) (model.Model, error) {
	m, err := l.importedToModel(name, imported)
	if err != nil {
		return nil, errors.Wrapf(err, "model %q", name)
	}

	l.mu.Lock()
	if cached, ok := l.modelCache[name]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.modelCache[name] = m
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"model":  name,
		"bones":  m.BoneWeights().Count(),
		"clips":  m.AnimationCount(),
		"meshes": len(m.Meshes()),
	}).Info("model loaded")
	return m, nil
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
	l.mu.Lock()
	l.closed = true
	pending := l.pending
	l.pending = make(map[string]*PendingModel)
	l.mu.Unlock()

	l.poolMu.Lock()
	if l.pool != nil {
		l.pool.Stop()
		l.pool = nil
	}
	l.poolMu.Unlock()

	for path, p := range pending {
		p.resolve(nil, errors.Wrapf(ErrClosed, "load %s", path))
	}
	if len(pending) > 0 {
		l.logger.WithField("pending", len(pending)).Warn("loader closed with loads still pending")
	}
}

// workerPool returns the async import pool, creating it on first use, and a fresh task id.
func (l *loader) workerPool() (worker.DynamicWorkerPool, int) {
	l.poolMu.Lock()
	defer l.poolMu.Unlock()
	if l.pool == nil {
		l.pool = worker.NewDynamicWorkerPool(l.cfg.ImportWorkers, l.cfg.ImportQueueSize, l.cfg.WorkerIdleTimeout)
	}
	l.taskID++
	return l.pool, l.taskID
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
}

// importedToModel converts an ImportedModel into an engine-ready Model.
// It allocates the model's bone weight table, binds every mesh's vertex weights into it,
// then builds one clip per animation against the scene tree and the same table.
//
// Parameters:
//   - name: the model name used in errors and logs
//   - imported: the format-neutral import result
//
// Returns:
//   - model.Model: the engine-ready Model
//   - error: error wrapping skeleton.ErrImport or skeleton.ErrCapacity
func (l *loader) importedToModel(name string, imported *common.ImportedModel) (model.Model, error) {
	if imported == nil {
		return nil, errors.Wrap(skeleton.ErrImport, "nothing imported")
	}
	log := l.logger.WithField("model", name)
	table := skeleton.NewBoneWeightTable(l.cfg.MaxBones)

	meshes := make([]model.MeshSkin, len(imported.Meshes))
	for i := range imported.Meshes {
		src := &imported.Meshes[i]
		skin := model.MeshSkin{
			Name:     src.Name,
			Bindings: skeleton.NewVertexBoneBindings(src.VertexCount),
		}
		dropped, err := skeleton.BindMeshWeights(skin.Bindings, table, src.Bones)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %q", src.Name)
		}
		if dropped > 0 {
			log.WithFields(logrus.Fields{
				"mesh":    src.Name,
				"dropped": dropped,
			}).Warn("vertices with more than four influences lost their extra weights")
		}
		skin.DroppedInfluences = dropped
		meshes[i] = skin
	}

	clips := make([]*animation.AnimationClip, 0, len(imported.Animations))
	for _, src := range imported.Animations {
		if imported.Root == nil {
			return nil, errors.Wrapf(skeleton.ErrImport, "animation %q has no scene to play on", src.Name)
		}
		clip, err := animation.NewAnimationClip(src, imported.Root, table,
			animation.WithLogger(log),
			animation.WithDefaultTicksPerSecond(l.cfg.DefaultTicksPerSecond),
		)
		if err != nil {
			log.WithField("clip", src.Name).WithError(err).Error("animation rejected")
			return nil, err
		}
		clips = append(clips, clip)
	}

	return model.NewModel(
		model.WithName(common.Coalesce(imported.Name, name)),
		model.WithBoneWeights(table),
		model.WithAnimations(clips...),
		model.WithMeshes(meshes...),
	), nil
}
