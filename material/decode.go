package material

import (
	"bytes"
	"fmt"
	"image"

	// Register the image formats glTF assets embed in practice. PNG and JPEG are
	// the formats the glTF spec requires; WebP, BMP and TIFF show up in the wild.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder is the image-decode capability injected into the codec. A nil Decoder
// is a valid configuration: materials and textures are then skipped entirely
// during import and texture-bearing meshes fall back to untextured geometry.
type Decoder interface {
	// Decode decodes an encoded image blob into pixels.
	//
	// Parameters:
	//   - data: the encoded image bytes
	//   - mimeType: the declared MIME type ("image/png", ...), or "" when unknown
	//
	// Returns:
	//   - image.Image: the decoded image
	//   - error: error if decoding fails
	Decode(data []byte, mimeType string) (image.Image, error)
}

// stdDecoder is the implementation of Decoder backed by the registered standard
// image formats.
type stdDecoder struct{}

var _ Decoder = stdDecoder{}

// NewStdDecoder creates a Decoder that handles PNG, JPEG, WebP, BMP and TIFF.
//
// Returns:
//   - Decoder: the decoder
func NewStdDecoder() Decoder {
	return stdDecoder{}
}

func (stdDecoder) Decode(data []byte, mimeType string) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if mimeType != "" {
			return nil, fmt.Errorf("failed to decode %s image: %w", mimeType, err)
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
