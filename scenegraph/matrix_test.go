package scenegraph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnMajorRoundTrip(t *testing.T) {
	m := [4][4]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{13, 14, 15, 16},
	}
	assert.Equal(t, m, FromColumnMajor(ColumnMajor(m)))

	flat := ColumnMajor(m)
	// row 0 of the matrix spreads over the first element of each column
	assert.Equal(t, 1.0, flat[0])
	assert.Equal(t, 2.0, flat[4])
	assert.Equal(t, 3.0, flat[8])
	assert.Equal(t, 4.0, flat[12])
}

func TestIsIdentity(t *testing.T) {
	assert.True(t, IsIdentity(Identity()))

	m := Identity()
	m[2][3] = 0.001
	assert.False(t, IsIdentity(m))
}

func TestComposeTranslationOnly(t *testing.T) {
	m := Compose([3]float64{1, 2, 3}, [4]float64{0, 0, 0, 1}, [3]float64{1, 1, 1})
	want := Identity()
	want[0][3] = 1
	want[1][3] = 2
	want[2][3] = 3
	assert.Equal(t, want, m)
}

func TestComposeOrder(t *testing.T) {
	// 90 degree rotation about Z, then translate: the local X axis maps to Y
	// and the translation stays in parent space.
	s := math.Sin(math.Pi / 4)
	m := Compose([3]float64{10, 0, 0}, [4]float64{0, 0, s, math.Cos(math.Pi / 4)}, [3]float64{2, 2, 2})

	// column 0 is the image of local X: rotated to Y and scaled by 2
	assert.InDelta(t, 0, m[0][0], 1e-12)
	assert.InDelta(t, 2, m[1][0], 1e-12)
	// translation column unchanged by rotation and scale
	require.InDelta(t, 10, m[0][3], 1e-12)
	assert.InDelta(t, 0, m[1][3], 1e-12)
	assert.InDelta(t, 0, m[2][3], 1e-12)
}
