package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kiln3d/kiln/geometry"
	"github.com/kiln3d/kiln/scenegraph"
)

func triangle() *geometry.TriangleMesh {
	return &geometry.TriangleMesh{
		Vertices: []r3.Vec{{X: 0}, {X: 1}, {Y: 1}},
		Faces:    [][3]uint32{{0, 1, 2}},
	}
}

func TestSceneAdd(t *testing.T) {
	s := NewScene()
	assert.Equal(t, "world", s.BaseFrame())

	require.NoError(t, s.Add("tri", triangle()))
	assert.Error(t, s.Add("tri", triangle()))

	got, ok := s.Geometry("tri")
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Equal(t, []string{"tri"}, s.Names())

	edges := s.Graph().Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "world", edges[0].FrameFrom)
	assert.Equal(t, "tri", edges[0].FrameTo)
	assert.Equal(t, "tri", edges[0].Geometry)
}

func TestSceneAddAt(t *testing.T) {
	s := NewSceneWithBase("root")

	shift := scenegraph.Identity()
	shift[2][3] = -1
	require.NoError(t, s.AddAt("a", triangle(), "root", shift))

	// child frames from earlier adds are valid parents
	require.NoError(t, s.AddAt("b", triangle(), "a", scenegraph.Identity()))

	assert.Error(t, s.AddAt("c", triangle(), "nowhere", scenegraph.Identity()))
	assert.Equal(t, []string{"a", "b"}, s.Names())
}

func TestSceneAddGeometry(t *testing.T) {
	s := NewScene()
	require.NoError(t, s.AddGeometry("loose", triangle()))
	assert.Error(t, s.AddGeometry("loose", triangle()))

	// no placement edge is created
	assert.Empty(t, s.Graph().Edges())
	assert.Equal(t, []string{"loose"}, s.Names())
}
