// package geometry contains the drawable payload types the codec converts to and
// from glTF primitives: indexed triangle meshes and line-set paths. The types are
// plain CPU-side containers; they carry no GPU or file-format state.
package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Geometry is implemented by every drawable payload a scene can hold.
type Geometry interface {
	// Bounds returns the axis-aligned bounding box of the payload's vertices.
	//
	// Returns:
	//   - min: the per-axis minimum corner
	//   - max: the per-axis maximum corner
	Bounds() (min, max r3.Vec)

	// UnitLength returns the unit-of-length string for the payload ("m", "mm", ...)
	// or "" when no unit is declared. Units are pass-through metadata; nothing in
	// the codec interprets them.
	UnitLength() string
}

// vecBounds computes the axis-aligned bounding box of a vertex slice.
func vecBounds(vertices []r3.Vec) (r3.Vec, r3.Vec) {
	if len(vertices) == 0 {
		return r3.Vec{}, r3.Vec{}
	}

	bmin, bmax := vertices[0], vertices[0]
	for _, v := range vertices[1:] {
		if v.X < bmin.X {
			bmin.X = v.X
		}
		if v.Y < bmin.Y {
			bmin.Y = v.Y
		}
		if v.Z < bmin.Z {
			bmin.Z = v.Z
		}
		if v.X > bmax.X {
			bmax.X = v.X
		}
		if v.Y > bmax.Y {
			bmax.Y = v.Y
		}
		if v.Z > bmax.Z {
			bmax.Z = v.Z
		}
	}
	return bmin, bmax
}
