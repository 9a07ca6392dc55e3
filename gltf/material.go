// material.go maps glTF material entries back into PBR materials, decoding any
// referenced texture images through the configured decoder.
package gltf

import (
	"encoding/base64"
	"image"
	"log"
	"strings"

	"github.com/kiln3d/kiln/material"
)

// resolveMaterials flattens the document's materials into PBR materials. When
// decoder is nil the returned slice is empty and primitives fall back to their
// default appearance. Texture decode failures degrade to an untextured
// material with a warning rather than failing the load.
func (r *resolver) resolveMaterials(decoder material.Decoder) []*material.PBRMaterial {
	if decoder == nil {
		if len(r.doc.Materials) > 0 {
			log.Printf("gltf: no image decoder configured, dropping %d materials", len(r.doc.Materials))
		}
		return nil
	}

	out := make([]*material.PBRMaterial, len(r.doc.Materials))
	for i, dm := range r.doc.Materials {
		m := &material.PBRMaterial{Name: dm.Name}
		if pbr := dm.PbrMetallicRoughness; pbr != nil {
			m.BaseColorFactor = pbr.BaseColorFactor
			m.MetallicFactor = pbr.MetallicFactor
			m.RoughnessFactor = pbr.RoughnessFactor
			if pbr.BaseColorTexture != nil {
				m.BaseColorTexture = r.resolveTexture(pbr.BaseColorTexture.Index, decoder)
			}
			if pbr.MetallicRoughnessTexture != nil {
				m.MetallicRoughnessTexture = r.resolveTexture(pbr.MetallicRoughnessTexture.Index, decoder)
			}
		}
		if dm.NormalTexture != nil {
			m.NormalTexture = r.resolveTexture(dm.NormalTexture.Index, decoder)
		}
		out[i] = m
	}
	return out
}

// resolveTexture follows texture → image → payload and decodes it. Any failure
// along the chain logs a warning and returns nil.
func (r *resolver) resolveTexture(texIdx int, decoder material.Decoder) image.Image {
	if texIdx < 0 || texIdx >= len(r.doc.Textures) {
		log.Printf("gltf: texture %d out of range, skipping", texIdx)
		return nil
	}
	tex := r.doc.Textures[texIdx]
	if tex.Source == nil || *tex.Source < 0 || *tex.Source >= len(r.doc.Images) {
		log.Printf("gltf: texture %d has no valid image source, skipping", texIdx)
		return nil
	}
	img := r.doc.Images[*tex.Source]

	var payload []byte
	mimeType := img.MimeType
	switch {
	case img.BufferView != nil:
		data, err := r.viewData(*img.BufferView)
		if err != nil {
			log.Printf("gltf: image %d: %v, skipping", *tex.Source, err)
			return nil
		}
		payload = data
	case strings.HasPrefix(img.URI, "data:"):
		comma := strings.IndexByte(img.URI, ',')
		if comma < 0 {
			log.Printf("gltf: image %d has malformed data URI, skipping", *tex.Source)
			return nil
		}
		decoded, err := base64.StdEncoding.DecodeString(img.URI[comma+1:])
		if err != nil {
			log.Printf("gltf: image %d data URI: %v, skipping", *tex.Source, err)
			return nil
		}
		payload = decoded
		if mimeType == "" {
			mimeType = strings.TrimSuffix(strings.TrimPrefix(img.URI[:comma], "data:"), ";base64")
		}
	default:
		log.Printf("gltf: image %d references external file %q, skipping", *tex.Source, img.URI)
		return nil
	}

	decoded, err := decoder.Decode(payload, mimeType)
	if err != nil {
		log.Printf("gltf: decoding image %d: %v, skipping", *tex.Source, err)
		return nil
	}
	return decoded
}
