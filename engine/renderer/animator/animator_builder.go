package animator

import (
	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/Carmen-Shannon/oxy-skin/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/sirupsen/logrus"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithModel is an option builder that assigns a Model to the Animator during construction.
// Unless WithBoneWeights is also given, the model's bone weight table is used.
//
// Parameters:
//   - m: the Model to associate with this animator
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the model option to an animator
func WithModel(m model.Model) AnimatorBuilderOption {
	return func(a *animator) {
		a.model = m
	}
}

// WithBoneWeights is an option builder that sets the bone weight table the Animator places joints with.
//
// Parameters:
//   - table: the bone weight table shared by the clips this animator will play
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the bone weights option to an animator
func WithBoneWeights(table *skeleton.BoneWeightTable) AnimatorBuilderOption {
	return func(a *animator) {
		a.table = table
	}
}

// WithClip is an option builder that starts playback of clip once construction completes.
//
// Parameters:
//   - clip: the clip to play
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the clip option to an animator
func WithClip(clip *animation.AnimationClip) AnimatorBuilderOption {
	return func(a *animator) {
		a.initialClip = clip
	}
}

// WithBindGroupProvider is an option builder that sets the provider holding the GPU palette buffer.
//
// Parameters:
//   - provider: the provider to stage palette writes against
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the provider option to an animator
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) AnimatorBuilderOption {
	return func(a *animator) {
		a.provider = provider
	}
}

// WithLogger is an option builder that sets the logger of the Animator.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the logger option to an animator
func WithLogger(logger logrus.FieldLogger) AnimatorBuilderOption {
	return func(a *animator) {
		if logger != nil {
			a.logger = logger
		}
	}
}
