// chunk.go handles the GLB binary container framing: a 12-byte header followed
// by length-prefixed chunks, the first holding JSON and the rest binary buffer
// payloads.
package gltf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kiln3d/kiln/common"
)

// glb header is 12 bytes, each chunk header 8 bytes.
const (
	glbHeaderSize      = 12
	glbChunkHeaderSize = 8
)

// isGLB reports whether data starts with the GLB magic bytes.
func isGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic
}

// packGLB assembles a GLB byte stream from the serialized JSON document and
// zero or more binary chunk payloads. The JSON chunk is padded with trailing
// spaces and each binary chunk with trailing zeros so every chunk starts on a
// 4-byte boundary.
//
// Parameters:
//   - jsonData: the serialized glTF JSON document
//   - binChunks: the binary chunk payloads, in buffer order
//
// Returns:
//   - []byte: the complete GLB byte stream
func packGLB(jsonData []byte, binChunks [][]byte) []byte {
	paddedJSON := common.PadSpace4(jsonData, glbHeaderSize+glbChunkHeaderSize)

	total := glbHeaderSize + glbChunkHeaderSize + len(paddedJSON)
	padded := make([][]byte, len(binChunks))
	for i, chunk := range binChunks {
		padded[i] = common.Pad4(chunk)
		total += glbChunkHeaderSize + len(padded[i])
	}

	out := bytes.NewBuffer(make([]byte, 0, total))
	binary.Write(out, binary.LittleEndian, glbHeader{
		Magic:   glbMagic,
		Version: glbVersion,
		Length:  uint32(total),
	})
	binary.Write(out, binary.LittleEndian, glbChunkHeader{
		ChunkLength: uint32(len(paddedJSON)),
		ChunkType:   chunkTypeJSON,
	})
	out.Write(paddedJSON)
	for _, chunk := range padded {
		binary.Write(out, binary.LittleEndian, glbChunkHeader{
			ChunkLength: uint32(len(chunk)),
			ChunkType:   chunkTypeBinary,
		})
		out.Write(chunk)
	}

	if out.Len() != total {
		panic(fmt.Sprintf("gltf: GLB length mismatch, wrote %d expected %d", out.Len(), total))
	}
	return out.Bytes()
}

// unpackGLB splits a GLB byte stream into its JSON document and binary chunk
// payloads. Chunks are read until the length declared in the header is
// consumed; bytes past that length are ignored, and fewer than 8 trailing
// bytes inside the declared length are treated as padding. Every chunk after
// the first must be binary.
//
// Parameters:
//   - data: the GLB byte stream
//
// Returns:
//   - []byte: the JSON chunk payload
//   - [][]byte: the binary chunk payloads, in order of appearance
//   - error: error wrapping ErrFormat when the framing is malformed
func unpackGLB(data []byte) ([]byte, [][]byte, error) {
	if len(data) < glbHeaderSize {
		return nil, nil, ErrHeaderTruncated
	}
	r := bytes.NewReader(data)

	var header glbHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, nil, ErrHeaderTruncated
	}
	if header.Magic != glbMagic {
		return nil, nil, ErrInvalidMagic
	}
	if header.Version != glbVersion {
		return nil, nil, fmt.Errorf("%w: got version %d", ErrInvalidVersion, header.Version)
	}

	declared := int(header.Length)
	if declared > len(data) {
		return nil, nil, fmt.Errorf("%w: header declares %d bytes, have %d", ErrChunkTruncated, declared, len(data))
	}

	var jsonData []byte
	var binChunks [][]byte
	consumed := glbHeaderSize
	for consumed < declared {
		if declared-consumed < glbChunkHeaderSize {
			break
		}
		var chunk glbChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			return nil, nil, ErrChunkTruncated
		}
		consumed += glbChunkHeaderSize

		length := int(chunk.ChunkLength)
		if declared-consumed < length {
			return nil, nil, fmt.Errorf("%w: chunk declares %d bytes, %d remain", ErrChunkTruncated, length, declared-consumed)
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, ErrChunkTruncated
		}
		consumed += length

		switch {
		case jsonData == nil:
			// first chunk must be the JSON document
			if chunk.ChunkType != chunkTypeJSON {
				return nil, nil, ErrMissingJSONChunk
			}
			jsonData = payload
		case chunk.ChunkType == chunkTypeBinary:
			binChunks = append(binChunks, payload)
		default:
			return nil, nil, fmt.Errorf("%w: 0x%08X", ErrChunkType, chunk.ChunkType)
		}
	}

	if jsonData == nil {
		return nil, nil, ErrMissingJSONChunk
	}
	return jsonData, binChunks, nil
}
