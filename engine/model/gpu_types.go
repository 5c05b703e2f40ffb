package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexBoneDataSource is the canonical WGSL definition of the per-vertex skinning attributes.
// Matches GPUVertexBoneData layout exactly (32 bytes, std430 aligned). Unused slots carry
// bone index -1 and weight 0, so shaders skip indices below zero.
//
//go:embed assets/vertex_bone_data.wgsl
var GPUVertexBoneDataSource string

// GPUVertexBoneData is the GPU-aligned representation of the bone influences of one skinned vertex.
// Matches the WGSL VertexBoneData struct layout exactly (see GPUVertexBoneDataSource).
// Size: 32 bytes (std430 aligned, no padding required).
type GPUVertexBoneData struct {
	BoneIndices [4]int32   // offset  0: indices of up to 4 influencing bones, -1 when unused (16 bytes)
	BoneWeights [4]float32 // offset 16: blend weight for each bone, not renormalized (16 bytes)
}

// Size returns the size of the GPUVertexBoneData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertexBoneData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertexBoneData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUVertexBoneData) Marshal() []byte {
	buf := make([]byte, 32)
	g.marshalInto(buf)
	return buf
}

func (g *GPUVertexBoneData) marshalInto(buf []byte) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], uint32(g.BoneIndices[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:16+(i+1)*4], math.Float32bits(g.BoneWeights[i]))
	}
}

// MarshalVertexBoneData serializes a slice of GPUVertexBoneData into one contiguous buffer.
//
// Parameters:
//   - data: the per-vertex bone data
//
// Returns:
//   - []byte: len(data)*32 bytes ready for GPU upload
func MarshalVertexBoneData(data []GPUVertexBoneData) []byte {
	buf := make([]byte, len(data)*32)
	for i := range data {
		data[i].marshalInto(buf[i*32 : (i+1)*32])
	}
	return buf
}
