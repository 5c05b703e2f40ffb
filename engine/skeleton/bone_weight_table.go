// Package skeleton holds the per-mesh skinning structures shared by every clip of a model:
// the joint-name to bone-index table, the per-vertex bone bindings, and the bind hierarchy.
package skeleton

import (
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// BoneInfo is the table entry for a single joint.
type BoneInfo struct {
	// Index is the bone's slot in the final bone matrix palette.
	Index int
	// Offset is the inverse bind-pose matrix of the joint.
	Offset mgl32.Mat4
}

// BoneWeightTable maps joint names to stable bone indices and inverse bind offsets.
//
// Indices are assigned in first-seen order starting at 0 and are never reassigned, so every
// clip imported against the same table agrees on the index of a joint. The table is
// append-only while a model is being imported and read-only afterwards; it carries no lock
// and must not be written concurrently.
type BoneWeightTable struct {
	capacity int
	bones    map[string]BoneInfo
	names    []string
}

// NewBoneWeightTable creates an empty table that refuses to allocate index capacity or above.
// A non-positive or oversized capacity is clamped to common.MaxBones.
//
// Parameters:
//   - capacity: the maximum number of bones
//
// Returns:
//   - *BoneWeightTable: the new table
func NewBoneWeightTable(capacity int) *BoneWeightTable {
	if capacity <= 0 || capacity > common.MaxBones {
		capacity = common.MaxBones
	}
	return &BoneWeightTable{
		capacity: capacity,
		bones:    make(map[string]BoneInfo),
	}
}

// Register returns the bone index for name, allocating the next index with the given
// offset if the name is new. An existing entry keeps its original offset.
//
// Parameters:
//   - name: the joint name
//   - offset: the inverse bind-pose matrix used when the joint is new
//
// Returns:
//   - int: the joint's bone index
//   - error: an error wrapping ErrCapacity if the table is full
func (t *BoneWeightTable) Register(name string, offset mgl32.Mat4) (int, error) {
	if info, ok := t.bones[name]; ok {
		return info.Index, nil
	}
	index := len(t.names)
	if index >= t.capacity {
		return -1, errors.Wrapf(ErrCapacity, "bone %q would take index %d, capacity is %d", name, index, t.capacity)
	}
	t.bones[name] = BoneInfo{Index: index, Offset: offset}
	t.names = append(t.names, name)
	return index, nil
}

// Resolve returns the bone index for name, allocating one with an identity offset if the
// joint has not been seen. Calling Resolve repeatedly with the same name returns the same index.
//
// Parameters:
//   - name: the joint name
//
// Returns:
//   - int: the joint's bone index
//   - error: an error wrapping ErrCapacity if the table is full
func (t *BoneWeightTable) Resolve(name string) (int, error) {
	return t.Register(name, mgl32.Ident4())
}

// Lookup returns the entry for name.
func (t *BoneWeightTable) Lookup(name string) (BoneInfo, bool) {
	info, ok := t.bones[name]
	return info, ok
}

// Offset returns the inverse bind offset for name, or identity if name is unknown.
func (t *BoneWeightTable) Offset(name string) mgl32.Mat4 {
	if info, ok := t.bones[name]; ok {
		return info.Offset
	}
	return mgl32.Ident4()
}

// Count returns the number of allocated bones.
func (t *BoneWeightTable) Count() int {
	return len(t.names)
}

// Capacity returns the maximum number of bones the table will allocate.
func (t *BoneWeightTable) Capacity() int {
	return t.capacity
}

// Names returns the joint names in index order.
func (t *BoneWeightTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
