package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPad4(t *testing.T) {
	assert.Len(t, Pad4([]byte{1}), 4)
	assert.Len(t, Pad4([]byte{1, 2, 3, 4}), 4)
	assert.Len(t, Pad4([]byte{1, 2, 3, 4, 5}), 8)
	assert.Empty(t, Pad4(nil))

	padded := Pad4([]byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3, 0}, padded)
}

func TestPadSpace4(t *testing.T) {
	// with a 20-byte prefix the payload itself must land on a 4-byte boundary
	for n := 1; n <= 8; n++ {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = 'x'
		}
		padded := PadSpace4(payload, 20)
		assert.Zero(t, (20+len(padded))%4)
		for _, b := range padded[n:] {
			assert.Equal(t, byte(' '), b)
		}
	}

	// odd prefix shifts the target alignment
	padded := PadSpace4([]byte("ab"), 13)
	assert.Zero(t, (13+len(padded))%4)
}

func TestUint32BytesRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0xDEADBEEF, 1<<32 - 1}
	data := Uint32Bytes(values)
	assert.Len(t, data, 16)
	assert.Equal(t, values, Uint32sFrom(data))

	// little-endian layout
	assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE}, data[8:12])
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	values := []float32{0, 1.5, -2.25, 3.4e38}
	data := Float32Bytes(values)
	assert.Len(t, data, 16)
	assert.Equal(t, values, Float32sFrom(data))
}
