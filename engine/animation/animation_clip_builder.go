package animation

import "github.com/sirupsen/logrus"

// clipBuilder collects the optional settings of NewAnimationClip.
type clipBuilder struct {
	logger                logrus.FieldLogger
	defaultTicksPerSecond float32
}

// ClipBuilderOption is a functional option for configuring NewAnimationClip.
type ClipBuilderOption func(*clipBuilder)

// WithLogger is an option builder that sets the logger used for import warnings.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ClipBuilderOption: a function that applies the logger option
func WithLogger(logger logrus.FieldLogger) ClipBuilderOption {
	return func(b *clipBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithDefaultTicksPerSecond is an option builder that sets the tick rate used when the
// source reports none. Non-positive values are ignored.
//
// Parameters:
//   - tps: the fallback ticks per second
//
// Returns:
//   - ClipBuilderOption: a function that applies the tick rate option
func WithDefaultTicksPerSecond(tps float32) ClipBuilderOption {
	return func(b *clipBuilder) {
		if tps > 0 {
			b.defaultTicksPerSecond = tps
		}
	}
}
