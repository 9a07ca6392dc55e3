package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Path is a set of 3D polylines. Paths export as GL_LINES primitives; they carry
// no per-vertex visual attributes.
type Path struct {
	// Lines are the polylines; each entry is an ordered run of at least two points.
	Lines [][]r3.Vec

	// Units is the optional unit-of-length declaration.
	Units string
}

var _ Geometry = &Path{}

func (p *Path) Bounds() (r3.Vec, r3.Vec) {
	return vecBounds(p.vertices())
}

func (p *Path) UnitLength() string {
	return p.Units
}

// vertices flattens all polyline points into a single slice.
func (p *Path) vertices() []r3.Vec {
	var all []r3.Vec
	for _, line := range p.Lines {
		all = append(all, line...)
	}
	return all
}

// LineList expands the polylines into a GL_LINES vertex list: every consecutive
// point pair in a polyline becomes an independent segment, so a run of n points
// yields 2*(n-1) list entries.
//
// Returns:
//   - count: the number of vertex entries in the list
//   - flat: the entries as packed xyz float32 triples, count*3 long
func (p *Path) LineList() (int, []float32) {
	count := 0
	for _, line := range p.Lines {
		if len(line) >= 2 {
			count += 2 * (len(line) - 1)
		}
	}

	flat := make([]float32, 0, count*3)
	put := func(v r3.Vec) {
		flat = append(flat, float32(v.X), float32(v.Y), float32(v.Z))
	}
	for _, line := range p.Lines {
		for i := 0; i+1 < len(line); i++ {
			put(line[i])
			put(line[i+1])
		}
	}
	return count, flat
}
