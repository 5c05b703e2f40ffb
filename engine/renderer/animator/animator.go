package animator

import (
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/Carmen-Shannon/oxy-skin/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoModel is returned by PlayIndex and PlayNamed on an animator built without a model.
	ErrNoModel = errors.New("animator has no model")

	// ErrUnknownClip is returned when a clip index or name does not exist on the model.
	ErrUnknownClip = errors.New("unknown animation clip")

	// ErrBoneWeightsMismatch is returned by Play when a clip was imported against a different
	// bone weight table than the one the animator places joints with.
	ErrBoneWeightsMismatch = errors.New("clip bone weight table does not match animator")
)

// boneSlot caches the palette slot and inverse bind offset of one hierarchy node.
// index is -1 for nodes that are not bones.
type boneSlot struct {
	index  int
	offset mgl32.Mat4
}

// animator is the implementation of the Animator interface.
type animator struct {
	id       uuid.UUID
	model    model.Model
	table    *skeleton.BoneWeightTable
	bound    bool
	provider bind_group_provider.BindGroupProvider
	logger   logrus.FieldLogger

	clip     *animation.AnimationClip
	playTime float32
	slots    []boneSlot
	globals  []mgl32.Mat4

	final [common.MaxBones]mgl32.Mat4

	initialClip *animation.AnimationClip
}

// Animator defines the public interface for skeletal playback of a single skinned instance.
//
// An Animator owns one current clip and its play time. Each Update advances the play time,
// walks the clip's hierarchy once, and refreshes a fixed palette of common.MaxBones final
// bone matrices (global transform times inverse bind offset) for the skinning shader.
// With no clip the palette is left as is, which is all-identity for a new animator.
//
// An Animator is not safe for concurrent use. Clips and bone weight tables it reads are
// shared read-only with other animators.
type Animator interface {
	// ID returns the unique instance identifier of this animator.
	//
	// Returns:
	//   - uuid.UUID: the identifier
	ID() uuid.UUID

	// Model retrieves the Model associated with this animator, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// BoneWeights retrieves the bone weight table used to place joints in the palette.
	//
	// Returns:
	//   - *skeleton.BoneWeightTable: the table, never nil; empty until a clip is played when
	//     the animator was built without a table or model
	BoneWeights() *skeleton.BoneWeightTable

	// Play starts clip from time zero, replacing any current clip without blending.
	// Passing nil stops playback and leaves the palette untouched.
	// An animator built without a table or model adopts the table of the first clip it plays.
	// Afterwards only clips imported against that same table are accepted; any other clip
	// is refused and the current playback is left as it was.
	//
	// Parameters:
	//   - clip: the clip to play, or nil
	//
	// Returns:
	//   - error: ErrBoneWeightsMismatch, or skeleton.ErrCapacity when the clip's table exceeds the palette
	Play(clip *animation.AnimationClip) error

	// PlayIndex plays the model's clip at index i.
	//
	// Parameters:
	//   - i: the clip index on the model
	//
	// Returns:
	//   - error: ErrNoModel, ErrUnknownClip or an error from Play
	PlayIndex(i int) error

	// PlayNamed plays the model's clip called name.
	//
	// Parameters:
	//   - name: the clip name on the model
	//
	// Returns:
	//   - error: ErrNoModel, ErrUnknownClip or an error from Play
	PlayNamed(name string) error

	// Stop returns the animator to idle. Equivalent to Play(nil).
	Stop()

	// Playing reports whether a clip is assigned.
	//
	// Returns:
	//   - bool: true while playing
	Playing() bool

	// CurrentClip returns the clip being played, or nil when idle.
	//
	// Returns:
	//   - *animation.AnimationClip: the current clip or nil
	CurrentClip() *animation.AnimationClip

	// PlayTime returns the current play time in ticks, always in [0, duration).
	//
	// Returns:
	//   - float32: the play time
	PlayTime() float32

	// SetPlayTime moves the play head to t ticks, wrapped into the clip's range, and
	// re-evaluates the palette. No-op when idle.
	//
	// Parameters:
	//   - t: the new play time in ticks
	SetPlayTime(t float32)

	// Update advances the play time by deltaTime seconds scaled by the clip's tick rate,
	// wraps it by the clip duration, and refreshes the final bone matrices.
	// Palette slots of bones absent from the current hierarchy keep their previous values.
	// No-op when idle.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last update in seconds
	Update(deltaTime float32)

	// FinalBoneMatrices returns the palette, always common.MaxBones long.
	// The slice aliases internal storage and is overwritten by the next Update.
	//
	// Returns:
	//   - []mgl32.Mat4: the final bone matrices indexed by bone index
	FinalBoneMatrices() []mgl32.Mat4

	// FinalBoneMatrix returns the palette entry for bone index i.
	//
	// Parameters:
	//   - i: the bone index
	//
	// Returns:
	//   - mgl32.Mat4: the final matrix, or identity if i is out of range
	FinalBoneMatrix(i int) mgl32.Mat4

	// Reset sets every palette entry back to identity.
	Reset()

	// BindGroupProvider returns the provider that holds the GPU palette buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// StageBoneMatrices serializes the palette into a buffer write targeting binding on
	// the animator's provider.
	//
	// Parameters:
	//   - binding: the bind group binding index of the palette buffer
	//
	// Returns:
	//   - bind_group_provider.BufferWrite: the staged write
	StageBoneMatrices(binding int) bind_group_provider.BufferWrite
}

var _ Animator = &animator{}

// NewAnimator creates a new idle Animator with an all-identity palette, then applies options.
// The bone weight table comes from WithBoneWeights, then from the model's table, and is
// otherwise taken from the first clip played. WithClip starts playback once every option
// has been applied and panics if the clip does not match the table.
//
// Parameters:
//   - options: variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: a new instance of Animator configured with the provided options
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		id:     uuid.New(),
		logger: logrus.StandardLogger(),
	}
	a.Reset()
	for _, opt := range options {
		opt(a)
	}

	if a.table == nil && a.model != nil {
		a.table = a.model.BoneWeights()
	}
	a.bound = a.table != nil
	if a.table == nil {
		a.table = skeleton.NewBoneWeightTable(0)
	}
	if err := a.checkCapacity(a.table); err != nil {
		panic(errors.Wrap(err, "animator"))
	}
	if a.provider == nil {
		a.provider = bind_group_provider.NewBindGroupProvider("animator " + a.id.String())
	}
	a.logger = a.logger.WithField("animator", a.id.String())

	if a.initialClip != nil {
		if err := a.Play(a.initialClip); err != nil {
			panic(errors.Wrap(err, "animator"))
		}
		a.initialClip = nil
	}
	return a
}

func (a *animator) ID() uuid.UUID {
	return a.id
}

func (a *animator) Model() model.Model {
	return a.model
}

func (a *animator) BoneWeights() *skeleton.BoneWeightTable {
	return a.table
}

func (a *animator) Play(clip *animation.AnimationClip) error {
	if clip == nil {
		a.clip = nil
		a.playTime = 0
		a.slots = a.slots[:0]
		a.logger.Debug("animator stopped")
		return nil
	}

	if table := clip.BoneWeights(); table != a.table {
		if a.bound || table == nil {
			err := errors.Wrapf(ErrBoneWeightsMismatch, "clip %q", clip.Name())
			a.logger.WithField("clip", clip.Name()).WithError(err).Error("refusing clip")
			return err
		}
		if err := a.checkCapacity(table); err != nil {
			return errors.Wrapf(err, "clip %q", clip.Name())
		}
		a.table = table
	}
	a.bound = true
	a.clip = clip
	a.playTime = 0

	h := clip.Hierarchy()
	if cap(a.slots) < h.Len() {
		a.slots = make([]boneSlot, h.Len())
	}
	a.slots = a.slots[:h.Len()]
	for i := range a.slots {
		a.slots[i] = boneSlot{index: -1}
		if info, ok := a.table.Lookup(h.Node(i).Name); ok {
			a.slots[i] = boneSlot{index: info.Index, offset: info.Offset}
		}
	}
	a.logger.WithField("clip", clip.Name()).Debug("playing clip")
	return nil
}

// checkCapacity rejects tables that could hand out indices past the end of the palette.
func (a *animator) checkCapacity(table *skeleton.BoneWeightTable) error {
	if table.Capacity() > len(a.final) {
		return errors.Wrapf(skeleton.ErrCapacity, "bone weight table capacity %d exceeds palette size %d", table.Capacity(), len(a.final))
	}
	return nil
}

func (a *animator) PlayIndex(i int) error {
	if a.model == nil {
		return ErrNoModel
	}
	clip := a.model.Animation(i)
	if clip == nil {
		return errors.Wrapf(ErrUnknownClip, "index %d of %d on model %q", i, a.model.AnimationCount(), a.model.Name())
	}
	return a.Play(clip)
}

func (a *animator) PlayNamed(name string) error {
	if a.model == nil {
		return ErrNoModel
	}
	i := a.model.GetAnimationIndex(name)
	if i < 0 {
		return errors.Wrapf(ErrUnknownClip, "%q on model %q", name, a.model.Name())
	}
	return a.PlayIndex(i)
}

func (a *animator) Stop() {
	a.Play(nil)
}

func (a *animator) Playing() bool {
	return a.clip != nil
}

func (a *animator) CurrentClip() *animation.AnimationClip {
	return a.clip
}

func (a *animator) PlayTime() float32 {
	return a.playTime
}

func (a *animator) SetPlayTime(t float32) {
	if a.clip == nil {
		return
	}
	a.playTime = common.NonNegativeMod(t, a.clip.Duration())
	a.evaluate()
}

func (a *animator) Update(deltaTime float32) {
	if a.clip == nil {
		return
	}
	a.playTime = common.NonNegativeMod(a.playTime+a.clip.TicksPerSecond()*deltaTime, a.clip.Duration())
	a.evaluate()
}

func (a *animator) FinalBoneMatrices() []mgl32.Mat4 {
	return a.final[:]
}

func (a *animator) FinalBoneMatrix(i int) mgl32.Mat4 {
	if i < 0 || i >= len(a.final) {
		return mgl32.Ident4()
	}
	return a.final[i]
}

func (a *animator) Reset() {
	for i := range a.final {
		a.final[i] = mgl32.Ident4()
	}
}

func (a *animator) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return a.provider
}

func (a *animator) StageBoneMatrices(binding int) bind_group_provider.BufferWrite {
	return bind_group_provider.BufferWrite{
		Provider: a.provider,
		Binding:  binding,
		Offset:   0,
		Data:     marshalMatrices(a.final[:]),
	}
}
