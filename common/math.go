package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NonNegativeMod returns x wrapped into [0, m). Negative inputs wrap from the top of the range.
// A non-positive or non-finite modulus pins the result to 0.
//
// Parameters:
//   - x: the value to wrap
//   - m: the modulus (range length)
//
// Returns:
//   - float32: the wrapped value in [0, m)
func NonNegativeMod(x, m float32) float32 {
	if !(m > 0) || math.IsInf(float64(m), 0) || !IsFinite(x) {
		return 0
	}
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	// float rounding on r+m can land exactly on m
	if r >= m {
		r = 0
	}
	return r
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsFiniteVec3 reports whether every component of v is finite.
func IsFiniteVec3(v mgl32.Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

// IsFiniteQuat reports whether every component of q is finite.
func IsFiniteQuat(q mgl32.Quat) bool {
	return IsFinite(q.W) && IsFiniteVec3(q.V)
}

// LerpVec3 linearly interpolates between a and b.
//
// Parameters:
//   - a: the value at f = 0
//   - b: the value at f = 1
//   - f: the interpolation factor
//
// Returns:
//   - mgl32.Vec3: a + (b - a) * f
func LerpVec3(a, b mgl32.Vec3, f float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(f))
}

// ComposeTRS builds a local transform matrix as Translate * Rotate * Scale.
// The rotation is used as given; callers normalize it beforehand.
//
// Parameters:
//   - t: the translation
//   - r: the rotation quaternion
//   - s: the per-axis scale
//
// Returns:
//   - mgl32.Mat4: the composed column-major matrix
func ComposeTRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// DecomposeTRS splits an affine matrix into translation, rotation, and scale.
// Scale is the length of each basis column; the rotation is extracted from the
// scale-normalized upper 3x3. Shear is discarded.
//
// Parameters:
//   - m: the column-major matrix to decompose
//
// Returns:
//   - mgl32.Vec3: translation
//   - mgl32.Quat: unit rotation
//   - mgl32.Vec3: scale
func DecomposeTRS(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	t := m.Col(3).Vec3()

	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	s := mgl32.Vec3{sx, sy, sz}

	var rot mgl32.Mat4
	for c, sc := range [3]float32{sx, sy, sz} {
		col := m.Col(c).Vec3()
		if sc != 0 {
			col = col.Mul(1 / sc)
		}
		rot.SetCol(c, col.Vec4(0))
	}
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})

	return t, mgl32.Mat4ToQuat(rot).Normalize(), s
}
