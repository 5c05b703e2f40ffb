package scene

import (
	"github.com/Carmen-Shannon/oxy-skin/engine/game_object"
	"github.com/Carmen-Shannon/oxy-skin/engine/profiler"
	"github.com/Carmen-Shannon/oxy-skin/engine/renderer/bind_group_provider"
	"github.com/sirupsen/logrus"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.add(obj)
		}
	}
}

// WithComputeWorkers sets the number of worker goroutines used for the parallel animator
// updates of Update. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}

// WithBufferWriter sets where Update submits the coalesced palette writes.
//
// Parameters:
//   - w: the writer, typically bind_group_provider.NewQueueWriter
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBufferWriter(w bind_group_provider.BufferWriter) SceneBuilderOption {
	return func(s *scene) {
		s.writer = w
	}
}

// WithPaletteBinding sets the binding index of the bone palette buffer on animator providers.
//
// Parameters:
//   - binding: the binding index
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPaletteBinding(binding int) SceneBuilderOption {
	return func(s *scene) {
		s.paletteBinding = binding
	}
}

// WithLogger sets the scene's logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger logrus.FieldLogger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProfiler makes Update report its duration and tick the profiler once per frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) SceneBuilderOption {
	return func(s *scene) {
		s.profiler = p
	}
}
