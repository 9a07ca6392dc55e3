package scenegraph

import "github.com/go-gl/mathgl/mgl64"

// Identity returns the row-major 4x4 identity matrix.
//
// Returns:
//   - [4][4]float64: the identity matrix
func Identity() [4][4]float64 {
	return [4][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// IsIdentity reports whether a row-major matrix is exactly the identity.
//
// Parameters:
//   - m: the matrix to test
//
// Returns:
//   - bool: true when m is the identity matrix
func IsIdentity(m [4][4]float64) bool {
	for r := range 4 {
		for c := range 4 {
			want := 0.0
			if r == c {
				want = 1.0
			}
			if m[r][c] != want {
				return false
			}
		}
	}
	return true
}

// ColumnMajor flattens a row-major matrix into the 16-element column-major
// layout glTF stores transforms in.
//
// Parameters:
//   - m: the row-major matrix
//
// Returns:
//   - [16]float64: the column-major flat matrix
func ColumnMajor(m [4][4]float64) [16]float64 {
	var flat [16]float64
	for c := range 4 {
		for r := range 4 {
			flat[c*4+r] = m[r][c]
		}
	}
	return flat
}

// FromColumnMajor expands a 16-element column-major flat matrix into the
// row-major form used throughout the transform graph.
//
// Parameters:
//   - flat: the column-major flat matrix
//
// Returns:
//   - [4][4]float64: the row-major matrix
func FromColumnMajor(flat [16]float64) [4][4]float64 {
	var m [4][4]float64
	for c := range 4 {
		for r := range 4 {
			m[r][c] = flat[c*4+r]
		}
	}
	return m
}

// Compose builds a row-major transform from translation, rotation and scale,
// applied in that order (scale first, translation last).
//
// Parameters:
//   - translation: xyz translation
//   - rotation: unit quaternion as xyzw
//   - scale: xyz scale factors
//
// Returns:
//   - [4][4]float64: the composed row-major matrix
func Compose(translation [3]float64, rotation [4]float64, scale [3]float64) [4][4]float64 {
	t := mgl64.Translate3D(translation[0], translation[1], translation[2])
	q := mgl64.Quat{
		W: rotation[3],
		V: mgl64.Vec3{rotation[0], rotation[1], rotation[2]},
	}
	r := q.Normalize().Mat4()
	s := mgl64.Scale3D(scale[0], scale[1], scale[2])
	return rowMajor(t.Mul4(r).Mul4(s))
}

// rowMajor converts an mgl64 matrix (column-major storage) to the row-major
// nested form.
func rowMajor(m mgl64.Mat4) [4][4]float64 {
	var out [4][4]float64
	for r := range 4 {
		for c := range 4 {
			out[r][c] = m.At(r, c)
		}
	}
	return out
}
