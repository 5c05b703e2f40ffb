package skeleton

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoneWeightTableResolveIsIdempotent(t *testing.T) {
	table := NewBoneWeightTable(0)

	a, err := table.Resolve("Hips")
	require.NoError(t, err)
	b, err := table.Resolve("Spine")
	require.NoError(t, err)
	again, err := table.Resolve("Hips")
	require.NoError(t, err)

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, a, again)
	assert.Equal(t, 2, table.Count())
	assert.Equal(t, []string{"Hips", "Spine"}, table.Names())
	assert.Equal(t, mgl32.Ident4(), table.Offset("Hips"))
}

func TestBoneWeightTableRegisterKeepsFirstOffset(t *testing.T) {
	table := NewBoneWeightTable(4)
	first := mgl32.Translate3D(1, 2, 3)

	idx, err := table.Register("Arm", first)
	require.NoError(t, err)
	idx2, err := table.Register("Arm", mgl32.Translate3D(9, 9, 9))
	require.NoError(t, err)

	assert.Equal(t, idx, idx2)
	info, ok := table.Lookup("Arm")
	require.True(t, ok)
	assert.Equal(t, first, info.Offset)

	_, ok = table.Lookup("Leg")
	assert.False(t, ok)
	assert.Equal(t, mgl32.Ident4(), table.Offset("Leg"))
}

func TestBoneWeightTableCapacity(t *testing.T) {
	table := NewBoneWeightTable(common.MaxBones)
	for i := 0; i < common.MaxBones; i++ {
		idx, err := table.Resolve(fmt.Sprintf("bone_%d", i))
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}

	_, err := table.Resolve("one_too_many")
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, common.MaxBones, table.Count())

	// known names still resolve once full
	idx, err := table.Resolve("bone_7")
	require.NoError(t, err)
	assert.Equal(t, 7, idx)
}

func TestVertexBoneBindingDefaults(t *testing.T) {
	b := NewVertexBoneBinding()
	for i := 0; i < common.MaxBoneInfluence; i++ {
		assert.Equal(t, int32(-1), b.BoneIDs[i])
		assert.Equal(t, float32(0), b.Weights[i])
	}
	assert.Equal(t, 0, b.InfluenceCount())
}

func TestVertexBoneBindingDropsFifthInfluence(t *testing.T) {
	b := NewVertexBoneBinding()
	weights := []float32{0.1, 0.2, 0.3, 0.25, 0.15}
	for i, w := range weights {
		ok := b.AddInfluence(i+10, w)
		assert.Equal(t, i < 4, ok, "influence %d", i)
	}

	assert.Equal(t, [4]int32{10, 11, 12, 13}, b.BoneIDs)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 0.25}, b.Weights)
	// no renormalization after the drop
	assert.InDelta(t, 0.85, b.WeightSum(), 1e-6)
}

func TestBindMeshWeights(t *testing.T) {
	table := NewBoneWeightTable(0)
	bindings := NewVertexBoneBindings(3)
	offset := mgl32.Translate3D(0, -1, 0)

	bones := []common.ImportedBone{
		{Name: "Root", Offset: mgl32.Ident4(), Weights: []common.VertexWeight{{VertexID: 0, Weight: 1}, {VertexID: 1, Weight: 0.5}}},
		{Name: "Spine", Offset: offset, Weights: []common.VertexWeight{{VertexID: 1, Weight: 0.5}}},
	}
	dropped, err := BindMeshWeights(bindings, table, bones)
	require.NoError(t, err)
	assert.Zero(t, dropped)

	assert.Equal(t, [4]int32{0, -1, -1, -1}, bindings[0].BoneIDs)
	assert.Equal(t, [4]int32{0, 1, -1, -1}, bindings[1].BoneIDs)
	assert.Equal(t, [4]float32{0.5, 0.5, 0, 0}, bindings[1].Weights)
	assert.Equal(t, 0, bindings[2].InfluenceCount())
	assert.Equal(t, offset, table.Offset("Spine"))
}

func TestBindMeshWeightsRejectsOutOfRangeVertex(t *testing.T) {
	table := NewBoneWeightTable(0)
	bindings := NewVertexBoneBindings(1)
	_, err := BindMeshWeights(bindings, table, []common.ImportedBone{
		{Name: "Root", Offset: mgl32.Ident4(), Weights: []common.VertexWeight{{VertexID: 5, Weight: 1}}},
	})
	assert.ErrorIs(t, err, ErrImport)
}

func TestNewHierarchyPreservesOrder(t *testing.T) {
	root := &common.ImportedNode{Name: "Root", Transform: mgl32.Ident4(), Children: []*common.ImportedNode{
		{Name: "A", Transform: mgl32.Translate3D(1, 0, 0), Children: []*common.ImportedNode{
			{Name: "A1", Transform: mgl32.Ident4()},
		}},
		{Name: "B", Transform: mgl32.Translate3D(0, 1, 0)},
	}}

	h, err := NewHierarchy(root)
	require.NoError(t, err)
	require.Equal(t, 4, h.Len())

	assert.Equal(t, "Root", h.Root().Name)
	assert.Equal(t, -1, h.Root().Parent)

	var order []string
	h.Walk(nil, func(i int) mgl32.Mat4 { return h.Node(i).BindLocal }, func(i int, _ mgl32.Mat4) {
		order = append(order, h.Node(i).Name)
	})
	assert.Equal(t, []string{"Root", "A", "A1", "B"}, order)

	a, ok := h.Index("A")
	require.True(t, ok)
	assert.Len(t, h.Node(a).Children, 1)
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), h.Node(a).BindLocal)

	a1, _ := h.Index("A1")
	assert.True(t, h.GlobalBindTransform(a1).ApproxEqualThreshold(mgl32.Translate3D(1, 0, 0), 1e-6))
}

func TestNewHierarchyErrors(t *testing.T) {
	_, err := NewHierarchy(nil)
	assert.ErrorIs(t, err, ErrImport)

	dup := &common.ImportedNode{Name: "Root", Children: []*common.ImportedNode{{Name: "X"}, {Name: "X"}}}
	_, err = NewHierarchy(dup)
	assert.ErrorIs(t, err, ErrImport)

	cyclic := &common.ImportedNode{Name: "Root"}
	cyclic.Children = []*common.ImportedNode{cyclic}
	_, err = NewHierarchy(cyclic)
	assert.ErrorIs(t, err, ErrImport)
}

func TestWalkComposesParentFirst(t *testing.T) {
	rootT := mgl32.Translate3D(0, 0, 2)
	aT := mgl32.HomogRotate3DZ(0.5)
	root := &common.ImportedNode{Name: "Root", Transform: rootT, Children: []*common.ImportedNode{
		{Name: "A", Transform: aT, Children: []*common.ImportedNode{
			{Name: "B", Transform: mgl32.Ident4()},
		}},
	}}
	h, err := NewHierarchy(root)
	require.NoError(t, err)

	globals := map[string]mgl32.Mat4{}
	scratch := h.Walk(nil, func(i int) mgl32.Mat4 { return h.Node(i).BindLocal }, func(i int, g mgl32.Mat4) {
		globals[h.Node(i).Name] = g
	})
	assert.True(t, globals["B"].ApproxEqualThreshold(rootT.Mul4(aT), 1e-6))
	require.Len(t, scratch, h.Len())

	b, _ := h.Index("B")
	assert.True(t, h.GlobalBindTransform(b).ApproxEqualThreshold(globals["B"], 1e-6))

	// a reused buffer is not reallocated
	again := h.Walk(scratch, func(i int) mgl32.Mat4 { return mgl32.Ident4() }, func(int, mgl32.Mat4) {})
	assert.Same(t, &scratch[0], &again[0])
	assert.Equal(t, mgl32.Ident4(), again[b])
}
