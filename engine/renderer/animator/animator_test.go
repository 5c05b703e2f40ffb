package animator

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constChannel(name string, pos mgl32.Vec3) common.ImportedChannel {
	return common.ImportedChannel{
		JointName:    name,
		PositionKeys: []common.VectorKeyframe{{Time: 0, Value: pos}},
		RotationKeys: []common.QuaternionKeyframe{{Time: 0, Value: mgl32.QuatIdent()}},
		ScaleKeys:    []common.VectorKeyframe{{Time: 0, Value: mgl32.Vec3{1, 1, 1}}},
	}
}

// spineClip builds Root -> Spine with Spine moving from (0,0,0) to (0,10,0) over 10 ticks at 1 tick/s.
func spineClip(t *testing.T, table *skeleton.BoneWeightTable) *animation.AnimationClip {
	t.Helper()
	spine := constChannel("Spine", mgl32.Vec3{})
	spine.PositionKeys = []common.VectorKeyframe{
		{Time: 0, Value: mgl32.Vec3{0, 0, 0}},
		{Time: 10, Value: mgl32.Vec3{0, 10, 0}},
	}
	root := &common.ImportedNode{Name: "Root", Transform: mgl32.Ident4(), Children: []*common.ImportedNode{
		{Name: "Spine", Transform: mgl32.Ident4()},
	}}
	clip, err := animation.NewAnimationClip(common.ImportedAnimation{
		Name:           "rise",
		Duration:       10,
		TicksPerSecond: 1,
		Channels:       []common.ImportedChannel{spine},
	}, root, table)
	require.NoError(t, err)
	return clip
}

func TestIdleAnimatorIsIdentity(t *testing.T) {
	a := NewAnimator()
	assert.False(t, a.Playing())
	a.Update(1)
	require.Len(t, a.FinalBoneMatrices(), common.MaxBones)
	for i, m := range a.FinalBoneMatrices() {
		assert.Equal(t, mgl32.Ident4(), m, "bone %d", i)
	}
	assert.Equal(t, mgl32.Ident4(), a.FinalBoneMatrix(-1))
	assert.Equal(t, mgl32.Ident4(), a.FinalBoneMatrix(common.MaxBones))
}

func TestSpineEndToEnd(t *testing.T) {
	table := skeleton.NewBoneWeightTable(0)
	clip := spineClip(t, table)
	a := NewAnimator(WithBoneWeights(table))

	require.NoError(t, a.Play(clip))
	require.True(t, a.Playing())
	assert.Same(t, clip, a.CurrentClip())
	a.Update(5)

	assert.Equal(t, float32(5), a.PlayTime())
	spine, ok := table.Lookup("Spine")
	require.True(t, ok)
	assert.Equal(t, mgl32.Translate3D(0, 5, 0), a.FinalBoneMatrix(spine.Index))
	assert.Equal(t, mgl32.Vec3{0, 5, 0}, a.FinalBoneMatrix(spine.Index).Col(3).Vec3())
}

func TestUpdatesSummingToDurationWrap(t *testing.T) {
	table := skeleton.NewBoneWeightTable(0)
	a := NewAnimator(WithBoneWeights(table), WithClip(spineClip(t, table)))
	a.SetPlayTime(2.5)
	start := a.PlayTime()

	for i := 0; i < 40; i++ {
		a.Update(0.25)
	}
	assert.InDelta(t, start, a.PlayTime(), 1e-4)

	a.Update(-3)
	assert.InDelta(t, 9.5, a.PlayTime(), 1e-4)
}

func TestHierarchyComposition(t *testing.T) {
	table := skeleton.NewBoneWeightTable(0)
	aLocal := mgl32.Translate3D(1, 2, 0).Mul4(mgl32.HomogRotate3DZ(0.3))
	rootLocal := mgl32.Translate3D(0, 0, 4)
	root := &common.ImportedNode{Name: "Root", Transform: rootLocal, Children: []*common.ImportedNode{
		{Name: "A", Transform: aLocal, Children: []*common.ImportedNode{
			{Name: "B", Transform: mgl32.Ident4()},
		}},
	}}
	// only Root is animated, and held at its bind pose
	clip, err := animation.NewAnimationClip(common.ImportedAnimation{
		Name: "pose", Duration: 1, TicksPerSecond: 1,
		Channels: []common.ImportedChannel{constChannel("Root", mgl32.Vec3{0, 0, 4})},
	}, root, table)
	require.NoError(t, err)
	offset := mgl32.Translate3D(0, -1, 0)
	_, err = table.Register("B", offset)
	require.NoError(t, err)

	a := NewAnimator(WithBoneWeights(table), WithClip(clip))
	a.Update(0)

	b, _ := table.Lookup("B")
	want := rootLocal.Mul4(aLocal).Mul4(mgl32.Ident4()).Mul4(offset)
	assert.True(t, a.FinalBoneMatrix(b.Index).ApproxEqualThreshold(want, 1e-5))

	// A is not a bone, so nothing was written for it
	_, isBone := table.Lookup("A")
	assert.False(t, isBone)
}

func TestPlayNilLeavesPaletteUntouched(t *testing.T) {
	table := skeleton.NewBoneWeightTable(0)
	a := NewAnimator(WithBoneWeights(table), WithClip(spineClip(t, table)))
	a.Update(3)
	before := append([]mgl32.Mat4(nil), a.FinalBoneMatrices()...)

	a.Stop()
	assert.False(t, a.Playing())
	assert.Nil(t, a.CurrentClip())
	a.Update(2)
	assert.Equal(t, before, a.FinalBoneMatrices())

	a.Reset()
	for _, m := range a.FinalBoneMatrices() {
		assert.Equal(t, mgl32.Ident4(), m)
	}
}

func TestBonesAbsentFromHierarchyKeepPreviousValue(t *testing.T) {
	table := skeleton.NewBoneWeightTable(0)
	ghostRoot := &common.ImportedNode{Name: "Root", Transform: mgl32.Ident4(), Children: []*common.ImportedNode{
		{Name: "Ghost", Transform: mgl32.Ident4()},
	}}
	ghostClip, err := animation.NewAnimationClip(common.ImportedAnimation{
		Name: "ghost", Duration: 1, TicksPerSecond: 1,
		Channels: []common.ImportedChannel{constChannel("Ghost", mgl32.Vec3{7, 0, 0})},
	}, ghostRoot, table)
	require.NoError(t, err)
	spine := spineClip(t, table)

	a := NewAnimator(WithBoneWeights(table), WithClip(ghostClip))
	a.Update(0)
	ghost, _ := table.Lookup("Ghost")
	want := mgl32.Translate3D(7, 0, 0)
	assert.Equal(t, want, a.FinalBoneMatrix(ghost.Index))

	require.NoError(t, a.Play(spine))
	a.Update(1)
	assert.Equal(t, want, a.FinalBoneMatrix(ghost.Index))
}

func TestPlayByIndexAndName(t *testing.T) {
	table := skeleton.NewBoneWeightTable(0)
	clip := spineClip(t, table)
	m := model.NewModel(model.WithName("tower"), model.WithBoneWeights(table), model.WithAnimations(clip))

	a := NewAnimator(WithModel(m))
	assert.Same(t, table, a.BoneWeights())

	require.NoError(t, a.PlayNamed("rise"))
	assert.Same(t, clip, a.CurrentClip())
	require.NoError(t, a.PlayIndex(0))

	assert.ErrorIs(t, a.PlayIndex(3), ErrUnknownClip)
	assert.ErrorIs(t, a.PlayNamed("fall"), ErrUnknownClip)
	assert.ErrorIs(t, NewAnimator().PlayIndex(0), ErrNoModel)
}

func TestPlayRestartsFromZero(t *testing.T) {
	table := skeleton.NewBoneWeightTable(0)
	clip := spineClip(t, table)
	a := NewAnimator(WithBoneWeights(table), WithClip(clip))
	a.Update(4)
	require.NoError(t, a.Play(clip))
	assert.Equal(t, float32(0), a.PlayTime())
}

func TestStageBoneMatrices(t *testing.T) {
	table := skeleton.NewBoneWeightTable(0)
	a := NewAnimator(WithBoneWeights(table), WithClip(spineClip(t, table)))
	a.Update(5)

	w := a.StageBoneMatrices(2)
	assert.Same(t, a.BindGroupProvider(), w.Provider)
	assert.Equal(t, 2, w.Binding)
	assert.Equal(t, uint64(0), w.Offset)
	require.Len(t, w.Data, common.MaxBones*64)

	var palette GPUBonePalette
	assert.Equal(t, len(w.Data), palette.Size())

	spine, _ := table.Lookup("Spine")
	base := spine.Index * 64
	// column-major: translation y is element 13
	ty := math.Float32frombits(binary.LittleEndian.Uint32(w.Data[base+13*4:]))
	assert.Equal(t, float32(5), ty)
	assert.NotEmpty(t, GPUBonePaletteSource)
}

func TestUnboundAnimatorAdoptsClipTable(t *testing.T) {
	table := skeleton.NewBoneWeightTable(0)
	clip := spineClip(t, table)
	a := NewAnimator()

	require.NoError(t, a.Play(clip))
	assert.Same(t, table, a.BoneWeights())
	a.Update(5)

	spine, ok := table.Lookup("Spine")
	require.True(t, ok)
	assert.Equal(t, mgl32.Translate3D(0, 5, 0), a.FinalBoneMatrix(spine.Index))
}

func TestPlayRefusesClipFromOtherTable(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	ours := skeleton.NewBoneWeightTable(0)
	theirs := skeleton.NewBoneWeightTable(0)
	_, err := theirs.Register("Other", mgl32.Ident4())
	require.NoError(t, err)
	ownClip := spineClip(t, ours)
	foreign := spineClip(t, theirs)

	tests := []struct {
		name    string
		options []AnimatorBuilderOption
	}{
		{name: "explicit table", options: []AnimatorBuilderOption{WithBoneWeights(ours)}},
		{name: "model table", options: []AnimatorBuilderOption{WithModel(model.NewModel(model.WithBoneWeights(ours)))}},
		{name: "adopted table", options: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			a := NewAnimator(append(tt.options, WithLogger(logger))...)
			require.NoError(t, a.Play(ownClip))
			a.Update(5)
			before := append([]mgl32.Mat4(nil), a.FinalBoneMatrices()...)

			assert.ErrorIs(t, a.Play(foreign), ErrBoneWeightsMismatch)
			assert.Same(t, ownClip, a.CurrentClip())
			assert.Same(t, ours, a.BoneWeights())
			assert.Equal(t, float32(5), a.PlayTime())
			assert.Equal(t, before, a.FinalBoneMatrices())

			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
			assert.Equal(t, "rise", hook.LastEntry().Data["clip"])
		})
	}
}

func TestWithClipFromOtherTablePanics(t *testing.T) {
	clip := spineClip(t, skeleton.NewBoneWeightTable(0))
	assert.Panics(t, func() {
		NewAnimator(WithBoneWeights(skeleton.NewBoneWeightTable(0)), WithClip(clip))
	})
}
