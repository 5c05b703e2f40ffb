// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types, chiefly the format-neutral output of the import collaborators.
package common

import "github.com/go-gl/mathgl/mgl32"

// MaxBones is the fixed capacity of a final bone matrix palette and of a bone weight table.
const MaxBones = 128

// MaxBoneInfluence is the number of bone influence slots carried by each skinned vertex.
const MaxBoneInfluence = 4

// VectorKeyframe is a single time-stamped Vec3 sample used for position and scale channels.
type VectorKeyframe struct {
	// Time is the key time in ticks.
	Time float32
	// Value is the sampled vector.
	Value mgl32.Vec3
}

// QuaternionKeyframe is a single time-stamped rotation sample.
type QuaternionKeyframe struct {
	// Time is the key time in ticks.
	Time float32
	// Value is the sampled rotation. It does not need to be normalized.
	Value mgl32.Quat
}

// ImportedNode is one node of the imported scene tree.
type ImportedNode struct {
	// Name identifies the node. Animation channels and mesh bones refer to nodes by name.
	Name string

	// Transform is the node's bind-local transform relative to its parent (column-major).
	Transform mgl32.Mat4

	// Children are the node's child nodes in source order.
	Children []*ImportedNode
}

// ImportedChannel carries the three keyed channels of a single animated joint.
type ImportedChannel struct {
	// JointName is the name of the scene node this channel animates.
	JointName string

	PositionKeys []VectorKeyframe
	RotationKeys []QuaternionKeyframe
	ScaleKeys    []VectorKeyframe
}

// ImportedAnimation represents one keyframed clip extracted from a model file.
type ImportedAnimation struct {
	// Name is the clip identifier.
	Name string

	// Duration is the clip length in ticks.
	Duration float32

	// TicksPerSecond is the playback rate. Zero means the source did not specify one.
	TicksPerSecond float32

	// Channels holds one entry per animated joint.
	Channels []ImportedChannel
}

// VertexWeight is a single (vertex, weight) influence of a bone on a mesh.
type VertexWeight struct {
	VertexID uint32
	Weight   float32
}

// ImportedBone is a skinning joint as seen from one mesh.
type ImportedBone struct {
	// Name is the joint's node name.
	Name string

	// Offset is the inverse bind-pose matrix, mapping mesh space into the joint's bind space.
	Offset mgl32.Mat4

	// Weights lists the vertices this joint influences.
	Weights []VertexWeight
}

// ImportedMesh represents the skinning-relevant part of an imported mesh.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// VertexCount is the number of vertices in the mesh.
	VertexCount int

	// Bones lists the joints that influence this mesh.
	Bones []ImportedBone
}

// ImportedModel is the complete, format-neutral result of an import.
type ImportedModel struct {
	// Name is the model identifier, usually the source file's base name.
	Name string

	// Root is the root of the scene node tree. Nil when the source had no scene.
	Root *ImportedNode

	// Meshes holds every mesh in the source.
	Meshes []ImportedMesh

	// Animations holds every keyframed clip in the source.
	Animations []ImportedAnimation
}

// NodeCount returns the number of nodes reachable from n, including n itself.
func (n *ImportedNode) NodeCount() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, c := range n.Children {
		count += c.NodeCount()
	}
	return count
}

// Skinned reports whether any mesh of the model carries bones.
func (m *ImportedModel) Skinned() bool {
	for i := range m.Meshes {
		if len(m.Meshes[i].Bones) > 0 {
			return true
		}
	}
	return false
}
