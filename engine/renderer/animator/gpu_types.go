package animator

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUBonePaletteSource is the canonical WGSL definition of the BonePalette struct.
// Matches GPUBonePalette layout exactly (8192 bytes, std430 aligned).
//
//go:embed assets/bone_palette.wgsl
var GPUBonePaletteSource string

// GPUBonePalette is the GPU-aligned representation of the final bone matrix palette.
// Matches the WGSL BonePalette struct layout exactly (see GPUBonePaletteSource).
// Size: 8192 bytes (128 × mat4x4<f32>, std430 aligned, no padding required).
type GPUBonePalette struct {
	Matrices [common.MaxBones]mgl32.Mat4 // offset 0: one column-major matrix per bone index
}

// Size returns the size of the GPUBonePalette struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUBonePalette) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBonePalette struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 8192-byte buffer ready for GPU upload.
func (g *GPUBonePalette) Marshal() []byte {
	return marshalMatrices(g.Matrices[:])
}

// marshalMatrices writes each matrix as 16 little-endian float32 values in column-major order.
func marshalMatrices(matrices []mgl32.Mat4) []byte {
	buf := make([]byte, len(matrices)*64)
	for m := range matrices {
		base := m * 64
		for i := range 16 {
			binary.LittleEndian.PutUint32(buf[base+i*4:base+(i+1)*4], math.Float32bits(matrices[m][i]))
		}
	}
	return buf
}
