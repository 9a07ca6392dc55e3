package material

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdDecoderPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.RGBA{R: 200, G: 10, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	d := NewStdDecoder()
	img, err := d.Decode(buf.Bytes(), "image/png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(10), g>>8)
	assert.Equal(t, uint32(30), b>>8)
}

func TestStdDecoderGarbage(t *testing.T) {
	d := NewStdDecoder()
	_, err := d.Decode([]byte("not an image"), "image/png")
	assert.Error(t, err)
}
