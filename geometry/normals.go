package geometry

import "gonum.org/v1/gonum/spatial/r3"

// VertexNormals returns per-vertex normals for the mesh. Declared normals are
// returned as-is; otherwise smooth normals are generated from the triangle
// topology: each face normal (the cross product of two edges, with length
// proportional to the triangle area) is accumulated onto its three vertices and
// the accumulated vectors are normalized at the end, producing smooth shading
// across shared vertices.
//
// Returns:
//   - []r3.Vec: one unit normal per vertex
func (m *TriangleMesh) VertexNormals() []r3.Vec {
	if len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0 {
		return m.Normals
	}

	n := len(m.Vertices)
	accum := make([]r3.Vec, n)

	for _, f := range m.Faces {
		i0, i1, i2 := int(f[0]), int(f[1]), int(f[2])
		if i0 >= n || i1 >= n || i2 >= n {
			continue
		}

		edge1 := r3.Sub(m.Vertices[i1], m.Vertices[i0])
		edge2 := r3.Sub(m.Vertices[i2], m.Vertices[i0])
		faceNormal := r3.Cross(edge1, edge2)

		for _, idx := range []int{i0, i1, i2} {
			accum[idx] = r3.Add(accum[idx], faceNormal)
		}
	}

	result := make([]r3.Vec, n)
	for i := range accum {
		if r3.Norm(accum[i]) < 1e-12 {
			// Degenerate: default to up vector
			result[i] = r3.Vec{Y: 1}
			continue
		}
		result[i] = r3.Unit(accum[i])
	}
	return result
}
