package game_object

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/Carmen-Shannon/oxy-skin/engine/renderer/animator"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	id       uint64
	name     string
	enabled  atomic.Bool
	mdl      model.Model
	animator animator.Animator

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3
}

// GameObject defines the interface for a scene entity that may carry a skinned Model and the
// Animator that poses it. Update forwards to the Animator, so a scene can drive every skinned
// object through one call per frame.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Name returns the object's display name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Enabled returns whether this object is updated by its scene.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Model returns the Model associated with this object, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// Animator returns the Animator associated with this object.
	//
	// Returns:
	//   - animator.Animator: the associated Animator, or nil
	Animator() animator.Animator

	// Position returns the object's world position.
	Position() mgl32.Vec3

	// Rotation returns the object's world rotation.
	Rotation() mgl32.Quat

	// Scale returns the object's world scale.
	Scale() mgl32.Vec3

	// WorldTransform composes position, rotation and scale into the object's model matrix.
	//
	// Returns:
	//   - mgl32.Mat4: translation * rotation * scale
	WorldTransform() mgl32.Mat4

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object is updated by its scene.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetModel assigns a Model to this object. The Animator is left as is.
	//
	// Parameters:
	//   - m: the Model to associate
	SetModel(m model.Model)

	// SetAnimator sets the Animator associated with this object.
	//
	// Parameters:
	//   - anim: the Animator to associate, or nil to detach
	SetAnimator(anim animator.Animator)

	// SetPosition sets the object's world position.
	SetPosition(p mgl32.Vec3)

	// SetRotation sets the object's world rotation. The quaternion is normalized.
	SetRotation(r mgl32.Quat)

	// SetScale sets the object's world scale.
	SetScale(s mgl32.Vec3)

	// Update advances the object's Animator by deltaTime seconds. No-op when the object is
	// disabled or has no Animator.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last update in seconds
	Update(deltaTime float32)

	// FinalBoneMatrices returns the Animator's palette, or nil without an Animator.
	//
	// Returns:
	//   - []mgl32.Mat4: the final bone matrices
	FinalBoneMatrices() []mgl32.Mat4
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new enabled GameObject configured with the given options.
// A skinned model given without an Animator gets one built for it.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	if obj.animator == nil && obj.mdl != nil && obj.mdl.Skinned() {
		obj.animator = animator.NewAnimator(animator.WithModel(obj.mdl))
	}
	if obj.name == "" && obj.mdl != nil {
		obj.name = obj.mdl.Name()
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Model() model.Model {
	return g.mdl
}

func (g *gameObject) Animator() animator.Animator {
	return g.animator
}

func (g *gameObject) Position() mgl32.Vec3 {
	return g.position
}

func (g *gameObject) Rotation() mgl32.Quat {
	return g.rotation
}

func (g *gameObject) Scale() mgl32.Vec3 {
	return g.scale
}

func (g *gameObject) WorldTransform() mgl32.Mat4 {
	return common.ComposeTRS(g.position, g.rotation, g.scale)
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetModel(m model.Model) {
	g.mdl = m
}

func (g *gameObject) SetAnimator(anim animator.Animator) {
	g.animator = anim
}

func (g *gameObject) SetPosition(p mgl32.Vec3) {
	g.position = p
}

func (g *gameObject) SetRotation(r mgl32.Quat) {
	g.rotation = r.Normalize()
}

func (g *gameObject) SetScale(s mgl32.Vec3) {
	g.scale = s
}

func (g *gameObject) Update(deltaTime float32) {
	if g.animator == nil || !g.enabled.Load() {
		return
	}
	g.animator.Update(deltaTime)
}

func (g *gameObject) FinalBoneMatrices() []mgl32.Mat4 {
	if g.animator == nil {
		return nil
	}
	return g.animator.FinalBoneMatrices()
}
