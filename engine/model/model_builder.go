package model

import (
	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithBoneWeights is an option builder that sets the bone weight table of the Model.
//
// Parameters:
//   - table: the bone weight table every clip of the model was imported against
//
// Returns:
//   - ModelBuilderOption: a function that applies the bone weights option to a model
func WithBoneWeights(table *skeleton.BoneWeightTable) ModelBuilderOption {
	return func(m *model) {
		m.boneWeights = table
	}
}

// WithAnimations is an option builder that sets the animation clips of the Model.
//
// Parameters:
//   - animations: the animation clips to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the animations option to a model
func WithAnimations(animations ...*animation.AnimationClip) ModelBuilderOption {
	return func(m *model) {
		m.animations = animations
	}
}

// WithMeshes is an option builder that sets the per-mesh bone bindings of the Model.
//
// Parameters:
//   - meshes: the mesh skins to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes ...MeshSkin) ModelBuilderOption {
	return func(m *model) {
		m.meshes = meshes
	}
}
