package geometry

import (
	"fmt"

	"github.com/kiln3d/kiln/material"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultColor is the RGBA color assumed for meshes that carry no visual data.
var DefaultColor = [4]uint8{102, 102, 102, 255}

// TriangleMesh is an indexed triangle mesh. Vertices are shared between faces;
// faces index into the vertex slice. All per-vertex attribute slices are either
// empty or exactly len(Vertices) long.
type TriangleMesh struct {
	// Vertices are the mesh vertex positions.
	Vertices []r3.Vec

	// Faces are vertex-index triples, one per triangle.
	Faces [][3]uint32

	// Colors are optional per-vertex RGBA colors.
	Colors [][4]uint8

	// Normals are optional per-vertex normals. VertexNormals generates them
	// from the face topology when absent.
	Normals []r3.Vec

	// UV are optional per-vertex texture coordinates with a bottom-left origin.
	UV [][2]float64

	// Material is the optional surface material, populated on import when the
	// mesh carries texture coordinates.
	Material *material.PBRMaterial

	// Units is the optional unit-of-length declaration ("m", "mm", ...).
	Units string
}

var _ Geometry = &TriangleMesh{}

func (m *TriangleMesh) Bounds() (r3.Vec, r3.Vec) {
	return vecBounds(m.Vertices)
}

func (m *TriangleMesh) UnitLength() string {
	return m.Units
}

// HasVertexColors reports whether the mesh carries a per-vertex color attribute.
func (m *TriangleMesh) HasVertexColors() bool {
	return len(m.Colors) > 0
}

// DominantColor returns the most commonly occurring vertex color, or DefaultColor
// when the mesh has no color attribute. Ties resolve to the color first reached
// by vertex order.
func (m *TriangleMesh) DominantColor() [4]uint8 {
	if !m.HasVertexColors() {
		return DefaultColor
	}

	counts := make(map[[4]uint8]int, len(m.Colors))
	best := m.Colors[0]
	bestCount := 0
	for _, c := range m.Colors {
		counts[c]++
		if counts[c] > bestCount {
			best = c
			bestCount = counts[c]
		}
	}
	return best
}

// MaxFaceIndex returns the largest vertex index referenced by any face.
// Returns 0 for a mesh with no faces.
func (m *TriangleMesh) MaxFaceIndex() uint32 {
	var maxIdx uint32
	for _, f := range m.Faces {
		for _, idx := range f {
			if idx > maxIdx {
				maxIdx = idx
			}
		}
	}
	return maxIdx
}

// Validate checks the structural invariants of the mesh: face indices in range
// and attribute slices matching the vertex count.
//
// Returns:
//   - error: the first violated invariant, or nil
func (m *TriangleMesh) Validate() error {
	if len(m.Vertices) == 0 {
		return fmt.Errorf("mesh has no vertices")
	}
	if len(m.Faces) == 0 {
		return fmt.Errorf("mesh has no faces")
	}
	n := uint32(len(m.Vertices))
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx >= n {
				return fmt.Errorf("face %d references vertex %d of %d", i, idx, n)
			}
		}
	}
	if len(m.Colors) > 0 && len(m.Colors) != len(m.Vertices) {
		return fmt.Errorf("vertex color count %d does not match vertex count %d", len(m.Colors), len(m.Vertices))
	}
	if len(m.Normals) > 0 && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("normal count %d does not match vertex count %d", len(m.Normals), len(m.Vertices))
	}
	if len(m.UV) > 0 && len(m.UV) != len(m.Vertices) {
		return fmt.Errorf("uv count %d does not match vertex count %d", len(m.UV), len(m.Vertices))
	}
	return nil
}
