package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func quadMesh() *TriangleMesh {
	return &TriangleMesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 1, Y: 1, Z: 0},
			{X: 0, Y: 1, Z: 0},
		},
		Faces: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
	}
}

func TestMeshBounds(t *testing.T) {
	m := quadMesh()
	m.Vertices = append(m.Vertices, r3.Vec{X: -2, Y: 0.5, Z: 3})

	lo, hi := m.Bounds()
	assert.Equal(t, r3.Vec{X: -2, Y: 0, Z: 0}, lo)
	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 3}, hi)
}

func TestMeshValidate(t *testing.T) {
	m := quadMesh()
	require.NoError(t, m.Validate())

	m.Faces = append(m.Faces, [3]uint32{0, 1, 4})
	assert.Error(t, m.Validate())

	assert.Error(t, (&TriangleMesh{}).Validate())
}

func TestMaxFaceIndex(t *testing.T) {
	m := quadMesh()
	assert.Equal(t, uint32(3), m.MaxFaceIndex())
}

func TestDominantColor(t *testing.T) {
	m := quadMesh()
	assert.Equal(t, DefaultColor, m.DominantColor())

	red := [4]uint8{255, 0, 0, 255}
	blue := [4]uint8{0, 0, 255, 255}
	m.Colors = [][4]uint8{red, blue, red, red}
	assert.Equal(t, red, m.DominantColor())
	assert.True(t, m.HasVertexColors())
}

func TestVertexNormalsFlatQuad(t *testing.T) {
	m := quadMesh()
	normals := m.VertexNormals()
	require.Len(t, normals, 4)
	for _, n := range normals {
		assert.InDelta(t, 0, n.X, 1e-12)
		assert.InDelta(t, 0, n.Y, 1e-12)
		assert.InDelta(t, 1, n.Z, 1e-12)
	}
}

func TestVertexNormalsDeclaredWin(t *testing.T) {
	m := quadMesh()
	declared := []r3.Vec{{Y: 1}, {Y: 1}, {Y: 1}, {Y: 1}}
	m.Normals = declared
	assert.Equal(t, declared, m.VertexNormals())
}

func TestPathLineList(t *testing.T) {
	p := &Path{Lines: [][]r3.Vec{
		{{X: 0}, {X: 1}, {X: 2}},
		{{Y: 0}, {Y: 1}},
	}}

	count, flat := p.LineList()
	// 3-point polyline contributes 2 segments, the 2-point one a single segment
	assert.Equal(t, 6, count)
	require.Len(t, flat, 18)
	assert.Equal(t, float32(0), flat[0])
	assert.Equal(t, float32(1), flat[3])
	assert.Equal(t, float32(1), flat[6])
	assert.Equal(t, float32(2), flat[9])
}
