package model

import (
	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
)

// model is the implementation of the Model interface.
type model struct {
	name        string
	boneWeights *skeleton.BoneWeightTable
	animations  []*animation.AnimationClip
	meshes      []MeshSkin
}

// Model defines the interface for a loaded skinned model.
// A Model is a read-only container holding the model's bone weight table, the per-vertex
// bone bindings of each mesh, and every animation clip imported against that table.
// It is produced by the Loader and may be shared between any number of animators.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Skinned reports whether this model has any bones.
	//
	// Returns:
	//   - bool: true if the bone weight table holds at least one bone
	Skinned() bool

	// BoneWeights retrieves the joint-name to bone-index table shared by all of the model's clips.
	//
	// Returns:
	//   - *skeleton.BoneWeightTable: the table, never nil
	BoneWeights() *skeleton.BoneWeightTable

	// Animations retrieves all animation clips bundled with this model.
	//
	// Returns:
	//   - []*animation.AnimationClip: the animation clips
	Animations() []*animation.AnimationClip

	// Animation retrieves the clip at index i, or nil if i is out of range.
	//
	// Parameters:
	//   - i: the clip index
	//
	// Returns:
	//   - *animation.AnimationClip: the clip or nil
	Animation(i int) *animation.AnimationClip

	// AnimationCount returns the number of available animation clips.
	//
	// Returns:
	//   - int: the animation count
	AnimationCount() int

	// AnimationNames returns the names of all animation clips.
	//
	// Returns:
	//   - []string: the animation clip names
	AnimationNames() []string

	// GetAnimationIndex returns the index of an animation by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the animation clip name to search for
	//
	// Returns:
	//   - int: the animation index, or -1 if not found
	GetAnimationIndex(name string) int

	// Meshes retrieves the per-vertex bone bindings of every mesh.
	//
	// Returns:
	//   - []MeshSkin: the mesh skins in import order
	Meshes() []MeshSkin
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
// A model built without WithBoneWeights gets an empty table.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.boneWeights == nil {
		m.boneWeights = skeleton.NewBoneWeightTable(0)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Skinned() bool {
	return m.boneWeights.Count() > 0
}

func (m *model) BoneWeights() *skeleton.BoneWeightTable {
	return m.boneWeights
}

func (m *model) Animations() []*animation.AnimationClip {
	return m.animations
}

func (m *model) Animation(i int) *animation.AnimationClip {
	if i < 0 || i >= len(m.animations) {
		return nil
	}
	return m.animations[i]
}

func (m *model) AnimationCount() int {
	return len(m.animations)
}

func (m *model) AnimationNames() []string {
	names := make([]string, len(m.animations))
	for i, anim := range m.animations {
		names[i] = anim.Name()
	}
	return names
}

func (m *model) GetAnimationIndex(name string) int {
	for i, anim := range m.animations {
		if anim.Name() == name {
			return i
		}
	}
	return -1
}

func (m *model) Meshes() []MeshSkin {
	return m.meshes
}
