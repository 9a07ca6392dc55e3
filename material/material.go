// package material contains the CPU-side PBR metallic-roughness material
// representation the codec maps glTF materials onto, plus the image-decode
// capability used to resolve texture references.
package material

import "image"

// PBRMaterial holds the metallic-roughness parameter set of a material with its
// nested glTF structure flattened: the pbrMetallicRoughness sub-object fields sit
// at the top level alongside the material's own fields, and every texture
// reference is resolved to a decoded image. Factor fields are pointers so a
// round-trip can distinguish "absent" from an explicit zero.
type PBRMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColorFactor is the albedo RGBA, each channel in [0, 1].
	BaseColorFactor *[4]float64

	// MetallicFactor is the metalness (0.0 = dielectric, 1.0 = metal).
	MetallicFactor *float64

	// RoughnessFactor is the roughness (0.0 = smooth, 1.0 = rough).
	RoughnessFactor *float64

	// BaseColorTexture is the decoded albedo texture, nil when untextured or when
	// no image decoder was available at load time.
	BaseColorTexture image.Image

	// MetallicRoughnessTexture is the decoded metallic (B) / roughness (G) texture.
	MetallicRoughnessTexture image.Image

	// NormalTexture is the decoded tangent-space normal map.
	NormalTexture image.Image
}

// FromColor derives a flat material from an RGBA uint8 color, converting each
// channel to the [0, 1] float range.
//
// Parameters:
//   - color: the RGBA color
//   - metallic: the metallic factor
//   - roughness: the roughness factor
//
// Returns:
//   - *PBRMaterial: the derived material
func FromColor(color [4]uint8, metallic, roughness float64) *PBRMaterial {
	factor := [4]float64{
		float64(color[0]) / 255,
		float64(color[1]) / 255,
		float64(color[2]) / 255,
		float64(color[3]) / 255,
	}
	return &PBRMaterial{
		BaseColorFactor: &factor,
		MetallicFactor:  &metallic,
		RoughnessFactor: &roughness,
	}
}
