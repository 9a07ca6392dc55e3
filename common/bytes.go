// package common contains small helpers shared by the codec packages. They are not
// interface-wrapped structs, just plain functions over commonly used data-types.
package common

import (
	"encoding/binary"
	"math"
)

// Pad4 pads a byte chunk with zero bytes so its length is a multiple of four,
// as required for every buffer chunk referenced by a glTF bufferView.
// The input is returned unchanged when it is already aligned.
//
// Parameters:
//   - data: the chunk to pad
//
// Returns:
//   - []byte: a chunk where len(result) % 4 == 0
func Pad4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	padded := make([]byte, len(data)+4-len(data)%4)
	copy(padded, data)
	return padded
}

// PadSpace4 pads text with ASCII spaces so that the total of the text length plus
// a fixed byte prefix is a multiple of four. glTF requires the binary chunk of a
// GLB container to start on a 4-byte boundary, and the JSON chunk is preceded by
// 20 fixed header bytes, so the JSON text itself must absorb the slack.
//
// Parameters:
//   - text: the UTF-8 text to pad
//   - prefix: the number of fixed bytes preceding the text in the container
//
// Returns:
//   - []byte: text padded with spaces so (prefix + len(result)) % 4 == 0
func PadSpace4(text []byte, prefix int) []byte {
	pad := (4 - (len(text)+prefix)%4) % 4
	if pad == 0 {
		return text
	}
	padded := make([]byte, len(text)+pad)
	copy(padded, text)
	for i := len(text); i < len(padded); i++ {
		padded[i] = ' '
	}
	return padded
}

// Uint32Bytes encodes a uint32 slice as little-endian bytes.
//
// Parameters:
//   - values: the values to encode
//
// Returns:
//   - []byte: len(values)*4 bytes in little-endian order
func Uint32Bytes(values []uint32) []byte {
	result := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(result[i*4:], v)
	}
	return result
}

// Float32Bytes encodes a float32 slice as little-endian IEEE 754 bytes.
//
// Parameters:
//   - values: the values to encode
//
// Returns:
//   - []byte: len(values)*4 bytes in little-endian order
func Float32Bytes(values []float32) []byte {
	result := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(result[i*4:], math.Float32bits(v))
	}
	return result
}

// Float32sFrom decodes little-endian IEEE 754 bytes into a float32 slice.
// The input length must be a multiple of four.
//
// Parameters:
//   - data: the bytes to decode
//
// Returns:
//   - []float32: the decoded values
func Float32sFrom(data []byte) []float32 {
	result := make([]float32, len(data)/4)
	for i := range result {
		result[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return result
}

// Uint32sFrom decodes little-endian bytes into a uint32 slice.
// The input length must be a multiple of four.
//
// Parameters:
//   - data: the bytes to decode
//
// Returns:
//   - []uint32: the decoded values
func Uint32sFrom(data []byte) []uint32 {
	result := make([]uint32, len(data)/4)
	for i := range result {
		result[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return result
}
