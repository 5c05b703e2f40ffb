package loader

import (
	"github.com/Carmen-Shannon/oxy-skin/engine/config"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/sirupsen/logrus"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithConfig is an option builder that sets the import settings: bone table capacity,
// default tick rate, and the size of the async import pool.
//
// Parameters:
//   - cfg: the resolved config
//
// Returns:
//   - LoaderBuilderOption: a function that applies the config option to a loader
func WithConfig(cfg config.Config) LoaderBuilderOption {
	return func(l *loader) {
		l.cfg = cfg
	}
}

// WithLogger is an option builder that sets the logger of the Loader and of the clips it builds.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger logrus.FieldLogger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}

// withBackend replaces the format backend.
func withBackend(backend loaderBackend) LoaderBuilderOption {
	return func(l *loader) {
		l.backend = backend
	}
}
