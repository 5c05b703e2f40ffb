package skeleton

import (
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/pkg/errors"
)

// VertexBoneBinding holds up to common.MaxBoneInfluence bone influences for one vertex.
// Unused slots hold bone index -1 and weight 0.
type VertexBoneBinding struct {
	BoneIDs [common.MaxBoneInfluence]int32
	Weights [common.MaxBoneInfluence]float32
}

// NewVertexBoneBinding returns a binding with every slot unused.
func NewVertexBoneBinding() VertexBoneBinding {
	var b VertexBoneBinding
	b.Reset()
	return b
}

// NewVertexBoneBindings returns count bindings with every slot unused.
func NewVertexBoneBindings(count int) []VertexBoneBinding {
	out := make([]VertexBoneBinding, count)
	for i := range out {
		out[i].Reset()
	}
	return out
}

// Reset marks every slot unused.
func (b *VertexBoneBinding) Reset() {
	for i := range b.BoneIDs {
		b.BoneIDs[i] = -1
		b.Weights[i] = 0
	}
}

// AddInfluence writes (boneIndex, weight) into the first unused slot.
// When all slots are taken the influence is dropped and the existing weights are left
// as they are.
//
// Parameters:
//   - boneIndex: the bone index of the influence
//   - weight: the influence weight
//
// Returns:
//   - bool: false if the influence was dropped
func (b *VertexBoneBinding) AddInfluence(boneIndex int, weight float32) bool {
	for i := range b.BoneIDs {
		if b.BoneIDs[i] < 0 {
			b.BoneIDs[i] = int32(boneIndex)
			b.Weights[i] = weight
			return true
		}
	}
	return false
}

// InfluenceCount returns the number of used slots.
func (b *VertexBoneBinding) InfluenceCount() int {
	n := 0
	for _, id := range b.BoneIDs {
		if id >= 0 {
			n++
		}
	}
	return n
}

// WeightSum returns the sum of the used slot weights.
func (b *VertexBoneBinding) WeightSum() float32 {
	var sum float32
	for i, id := range b.BoneIDs {
		if id >= 0 {
			sum += b.Weights[i]
		}
	}
	return sum
}

// BindMeshWeights registers every bone of a mesh in the table and distributes the bones'
// vertex weights into bindings, in bone order and then weight order.
//
// Parameters:
//   - bindings: one binding per mesh vertex, normally from NewVertexBoneBindings
//   - table: the model's bone weight table
//   - bones: the mesh's bones
//
// Returns:
//   - int: the number of influences dropped because a vertex already had all slots in use
//   - error: an error wrapping ErrCapacity or ErrImport
func BindMeshWeights(bindings []VertexBoneBinding, table *BoneWeightTable, bones []common.ImportedBone) (int, error) {
	dropped := 0
	for _, bone := range bones {
		index, err := table.Register(bone.Name, bone.Offset)
		if err != nil {
			return dropped, err
		}
		for _, w := range bone.Weights {
			if int(w.VertexID) >= len(bindings) {
				return dropped, errors.Wrapf(ErrImport, "bone %q references vertex %d of %d", bone.Name, w.VertexID, len(bindings))
			}
			if !bindings[w.VertexID].AddInfluence(index, w.Weight) {
				dropped++
			}
		}
	}
	return dropped, nil
}
