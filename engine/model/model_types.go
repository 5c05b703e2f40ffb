package model

import "github.com/Carmen-Shannon/oxy-skin/engine/skeleton"

// MeshSkin holds the per-vertex bone bindings of a single mesh.
type MeshSkin struct {
	// Name is the mesh identifier.
	Name string

	// Bindings holds one VertexBoneBinding per mesh vertex.
	Bindings []skeleton.VertexBoneBinding

	// DroppedInfluences counts influences discarded because a vertex already had every slot in use.
	DroppedInfluences int
}

// GPUVertexBoneData returns the mesh's bindings in their GPU vertex layout.
//
// Returns:
//   - []GPUVertexBoneData: one entry per vertex
func (s *MeshSkin) GPUVertexBoneData() []GPUVertexBoneData {
	out := make([]GPUVertexBoneData, len(s.Bindings))
	for i := range s.Bindings {
		out[i] = GPUVertexBoneData{
			BoneIndices: s.Bindings[i].BoneIDs,
			BoneWeights: s.Bindings[i].Weights,
		}
	}
	return out
}
