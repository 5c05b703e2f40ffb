package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// BonePaletteMatrixSize is the byte size of one mat4x4<f32> in the bone palette.
const BonePaletteMatrixSize = 64

// BonePaletteSize returns the byte size of a palette holding boneCount matrices.
func BonePaletteSize(boneCount int) uint64 {
	return uint64(boneCount) * BonePaletteMatrixSize
}

// BonePaletteBufferDescriptor describes the storage buffer that receives a final bone matrix palette.
//
// Parameters:
//   - label: the debug label of the buffer
//   - boneCount: the number of matrices in the palette, normally common.MaxBones
//
// Returns:
//   - wgpu.BufferDescriptor: the buffer descriptor
func BonePaletteBufferDescriptor(label string, boneCount int) wgpu.BufferDescriptor {
	return wgpu.BufferDescriptor{
		Label:            label + " Bone Palette",
		Size:             BonePaletteSize(boneCount),
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	}
}

// BonePaletteLayoutEntry describes the bone palette binding as a read-only storage buffer
// visible to the vertex and compute stages.
//
// Parameters:
//   - binding: the binding index inside the bind group
//   - boneCount: the number of matrices in the palette
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the layout entry
func BonePaletteLayoutEntry(binding uint32, boneCount int) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageCompute,
	}
	entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	entry.Buffer.MinBindingSize = BonePaletteSize(boneCount)
	return entry
}

// CreateBonePaletteBuffer allocates the bone palette buffer on device and stores it on the
// provider at binding.
//
// Parameters:
//   - device: the GPU device owned by the render collaborator
//   - provider: the provider that receives the buffer
//   - binding: the binding index of the palette
//
// Returns:
//   - error: an error if buffer creation fails
func CreateBonePaletteBuffer(device *wgpu.Device, provider BindGroupProvider, binding int) error {
	desc := BonePaletteBufferDescriptor(provider.Label(), common.MaxBones)
	buf, err := device.CreateBuffer(&desc)
	if err != nil {
		return errors.Wrapf(err, "create bone palette buffer for %q", provider.Label())
	}
	provider.SetBuffer(binding, buf)
	return nil
}
