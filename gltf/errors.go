package gltf

import (
	"errors"
	"fmt"
)

// ErrFormat is the sentinel all malformed-input errors wrap. Callers can test
// errors.Is(err, gltf.ErrFormat) to distinguish bad input from I/O failures.
var ErrFormat = errors.New("gltf: malformed input")

// Specific malformed-input conditions. Each wraps ErrFormat.
var (
	ErrInvalidMagic     = fmt.Errorf("%w: invalid GLB magic", ErrFormat)
	ErrInvalidVersion   = fmt.Errorf("%w: unsupported GLB version", ErrFormat)
	ErrHeaderTruncated  = fmt.Errorf("%w: truncated GLB header", ErrFormat)
	ErrChunkTruncated   = fmt.Errorf("%w: truncated GLB chunk", ErrFormat)
	ErrMissingJSONChunk = fmt.Errorf("%w: first GLB chunk is not JSON", ErrFormat)
	ErrChunkType        = fmt.Errorf("%w: unexpected GLB chunk type", ErrFormat)
	ErrViewTruncated    = fmt.Errorf("%w: buffer view exceeds buffer length", ErrFormat)
	ErrAccessorRange    = fmt.Errorf("%w: accessor exceeds buffer view length", ErrFormat)
	ErrAccessorType     = fmt.Errorf("%w: unsupported accessor component type", ErrFormat)
	ErrIndexRange       = fmt.Errorf("%w: index reference out of range", ErrFormat)
	ErrMissingBuffer    = fmt.Errorf("%w: named buffer not supplied", ErrFormat)
)
