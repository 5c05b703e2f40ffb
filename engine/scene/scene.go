package scene

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-skin/engine/game_object"
	"github.com/Carmen-Shannon/oxy-skin/engine/profiler"
	"github.com/Carmen-Shannon/oxy-skin/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-skin/engine/renderer/bind_group_provider"
	"github.com/sirupsen/logrus"
)

// DefaultPaletteBinding is the binding index the bone palette buffer occupies on each
// animator's bind group provider unless WithPaletteBinding says otherwise.
const DefaultPaletteBinding = 0

// Scene manages a registry of GameObjects and drives their Animators once per frame.
// Scenes can be hot-swapped via the Active flag to switch between different views or levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active.
	Active() bool

	// SetActive sets whether this scene is active. Update is a no-op on inactive scenes.
	SetActive(active bool)

	// Count returns the number of GameObjects in the scene's registry.
	//
	// Returns:
	//   - int: count of registered GameObjects
	Count() int

	// Add registers a GameObject, assigning it a new ID if it has none.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves a GameObject by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Objects returns the registered GameObjects ordered by ID.
	//
	// Returns:
	//   - []game_object.GameObject: the objects
	Objects() []game_object.GameObject

	// Remove removes a GameObject from the registry by ID.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Clear removes all objects from the scene.
	Clear()

	// Update advances the scene by one frame in two phases.
	// Phase 1 updates every distinct Animator of the enabled objects in parallel on the scene's
	// worker pool, so an Animator shared by several objects still advances once.
	// Phase 2 stages each of those Animators' palettes as one buffer write, in object ID order,
	// and hands the coalesced slice to the scene's BufferWriter when one is set.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the staged writes, valid until the next Update
	Update(deltaTime float32) []bind_group_provider.BufferWrite

	// Close stops the scene's worker pool. The scene must not be updated afterwards.
	Close()
}

type scene struct {
	mu     *sync.RWMutex
	name   string
	active bool

	registry map[uint64]game_object.GameObject
	nextID   uint64

	writer         bind_group_provider.BufferWriter
	paletteBinding int
	logger         logrus.FieldLogger
	profiler       *profiler.Profiler

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	writePool    []bind_group_provider.BufferWrite
	animatorPool []animator.Animator

	// computePool runs the parallel animator updates. Workers persist across frames.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given name and options applied.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		registry:       make(map[uint64]game_object.GameObject),
		nextID:         1,
		paletteBinding: DefaultPaletteBinding,
		logger:         logrus.StandardLogger(),
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the compute pool after options so WithComputeWorkers can override the default.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	s.logger = s.logger.WithField("scene", name)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

// add registers obj. Caller must hold s.mu write lock.
func (s *scene) add(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	} else if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	s.registry[obj.ID()] = obj
	s.logger.WithFields(logrus.Fields{"object": obj.ID(), "name": obj.Name()}).Debug("object added")
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedObjects()
}

// sortedObjects returns the registry ordered by ID. Caller must hold s.mu.
func (s *scene) sortedObjects() []game_object.GameObject {
	objects := make([]game_object.GameObject, 0, len(s.registry))
	for _, obj := range s.registry {
		objects = append(objects, obj)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].ID() < objects[j].ID() })
	return objects
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registry, id)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]game_object.GameObject)
}

func (s *scene) Update(deltaTime float32) []bind_group_provider.BufferWrite {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	start := time.Now()

	// Collect each animator once, in object ID order.
	animators := s.animatorPool[:0]
	seen := make(map[animator.Animator]bool, len(s.registry))
	for _, obj := range s.sortedObjects() {
		a := obj.Animator()
		if a == nil || !obj.Enabled() || seen[a] {
			continue
		}
		seen[a] = true
		animators = append(animators, a)
	}
	s.animatorPool = animators

	// Phase 1: parallel animator updates. A WaitGroup provides the per-frame barrier since
	// pool.Wait() blocks until workers idle-exit which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	for id, a := range animators {
		if !a.Playing() {
			continue
		}
		wg.Add(1)
		aCap := a
		s.computePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				aCap.Update(deltaTime)
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 2: coalesce every palette into a single slice of writes.
	allWrites := s.writePool[:0]
	for _, a := range animators {
		allWrites = append(allWrites, a.StageBoneMatrices(s.paletteBinding))
	}
	s.writePool = allWrites

	if s.writer != nil && len(allWrites) > 0 {
		s.writer.WriteBuffers(allWrites)
	}

	if s.profiler != nil {
		s.profiler.Observe(time.Since(start))
		s.profiler.Tick()
	}
	return allWrites
}

func (s *scene) Close() {
	s.computePool.Stop()
}
