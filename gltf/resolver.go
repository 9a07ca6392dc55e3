// resolver.go turns a parsed glTF document plus its binary payloads back into
// geometry: buffer views are sliced out of buffers, accessors decoded into
// typed values and primitives assembled into triangle meshes.
package gltf

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kiln3d/kiln/geometry"
	"github.com/kiln3d/kiln/material"
)

// resolver holds a document and its fully materialized buffer contents.
type resolver struct {
	doc     *document
	buffers [][]byte
}

// newResolver materializes every buffer of the document. GLB binary chunks are
// consumed in order; buffers with a data: URI are decoded inline; buffers with
// any other URI are looked up in the named map.
//
// Parameters:
//   - doc: the parsed document
//   - binChunks: GLB binary chunk payloads, in order of appearance
//   - named: external buffer contents keyed by URI
//
// Returns:
//   - *resolver: the resolver
//   - error: error when a buffer cannot be materialized or is shorter than declared
func newResolver(doc *document, binChunks [][]byte, named map[string][]byte) (*resolver, error) {
	buffers := make([][]byte, len(doc.Buffers))
	chunk := 0
	for i, buf := range doc.Buffers {
		var data []byte
		switch {
		case buf.URI == "":
			if chunk >= len(binChunks) {
				return nil, fmt.Errorf("%w: buffer %d has no URI and no binary chunk remains", ErrFormat, i)
			}
			data = binChunks[chunk]
			chunk++
		case strings.HasPrefix(buf.URI, "data:"):
			comma := strings.IndexByte(buf.URI, ',')
			if comma < 0 {
				return nil, fmt.Errorf("%w: buffer %d has malformed data URI", ErrFormat, i)
			}
			decoded, err := base64.StdEncoding.DecodeString(buf.URI[comma+1:])
			if err != nil {
				return nil, fmt.Errorf("%w: buffer %d data URI: %v", ErrFormat, i, err)
			}
			data = decoded
		default:
			supplied, ok := named[buf.URI]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingBuffer, buf.URI)
			}
			data = supplied
		}
		if len(data) < buf.ByteLength {
			return nil, fmt.Errorf("%w: buffer %d has %d bytes, declares %d", ErrFormat, i, len(data), buf.ByteLength)
		}
		buffers[i] = data
	}
	return &resolver{doc: doc, buffers: buffers}, nil
}

// viewData slices a buffer view out of its buffer with bounds checks.
func (r *resolver) viewData(viewIdx int) ([]byte, error) {
	if viewIdx < 0 || viewIdx >= len(r.doc.BufferViews) {
		return nil, fmt.Errorf("%w: bufferView %d", ErrIndexRange, viewIdx)
	}
	view := r.doc.BufferViews[viewIdx]
	if view.Buffer < 0 || view.Buffer >= len(r.buffers) {
		return nil, fmt.Errorf("%w: buffer %d", ErrIndexRange, view.Buffer)
	}
	data := r.buffers[view.Buffer]
	end := view.ByteOffset + view.ByteLength
	if view.ByteOffset < 0 || end > len(data) {
		return nil, fmt.Errorf("%w: view %d spans [%d,%d) of %d", ErrViewTruncated, viewIdx, view.ByteOffset, end, len(data))
	}
	return data[view.ByteOffset:end], nil
}

// accessorData returns the raw byte span of an accessor. Interleaved views
// (byteStride different from the element size) are not supported.
func (r *resolver) accessorData(accIdx int) ([]byte, *accessor, error) {
	if accIdx < 0 || accIdx >= len(r.doc.Accessors) {
		return nil, nil, fmt.Errorf("%w: accessor %d", ErrIndexRange, accIdx)
	}
	acc := &r.doc.Accessors[accIdx]

	size := componentSize(acc.ComponentType)
	width := typeWidth(acc.Type)
	if size == 0 || width == 0 {
		return nil, nil, fmt.Errorf("%w: componentType %d type %q", ErrAccessorType, acc.ComponentType, acc.Type)
	}
	if acc.BufferView == nil {
		// zero-filled per spec when no view is present
		return make([]byte, size*width*acc.Count), acc, nil
	}

	view, err := r.viewData(*acc.BufferView)
	if err != nil {
		return nil, nil, err
	}
	elemSize := size * width
	if stride := r.doc.BufferViews[*acc.BufferView].ByteStride; stride != nil && *stride != elemSize {
		return nil, nil, fmt.Errorf("%w: interleaved byteStride %d unsupported", ErrFormat, *stride)
	}
	span := elemSize * acc.Count
	end := acc.ByteOffset + span
	if acc.ByteOffset < 0 || end > len(view) {
		return nil, nil, fmt.Errorf("%w: accessor %d spans [%d,%d) of view length %d", ErrAccessorRange, accIdx, acc.ByteOffset, end, len(view))
	}
	return view[acc.ByteOffset:end], acc, nil
}

// readIndices decodes a SCALAR index accessor of any unsigned component type
// into uint32 values.
func (r *resolver) readIndices(accIdx int) ([]uint32, error) {
	data, acc, err := r.accessorData(accIdx)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case componentUint8:
		for i := range out {
			out[i] = uint32(data[i])
		}
	case componentUint16:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case componentUint32:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, fmt.Errorf("%w: index componentType %d", ErrAccessorType, acc.ComponentType)
	}
	return out, nil
}

// readVec3 decodes a float VEC3 accessor into vectors.
func (r *resolver) readVec3(accIdx int) ([]r3.Vec, error) {
	data, acc, err := r.accessorData(accIdx)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != componentFloat32 || acc.Type != "VEC3" {
		return nil, fmt.Errorf("%w: expected float VEC3, got componentType %d type %q", ErrAccessorType, acc.ComponentType, acc.Type)
	}
	out := make([]r3.Vec, acc.Count)
	for i := range out {
		base := i * 12
		out[i] = r3.Vec{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base:]))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base+4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base+8:]))),
		}
	}
	return out, nil
}

// readUV decodes a float VEC2 accessor and flips the V coordinate back from
// glTF's top-left origin.
func (r *resolver) readUV(accIdx int) ([][2]float64, error) {
	data, acc, err := r.accessorData(accIdx)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != componentFloat32 || acc.Type != "VEC2" {
		return nil, fmt.Errorf("%w: expected float VEC2, got componentType %d type %q", ErrAccessorType, acc.ComponentType, acc.Type)
	}
	out := make([][2]float64, acc.Count)
	for i := range out {
		base := i * 8
		u := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base:])))
		v := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base+4:])))
		out[i] = [2]float64{u, 1.0 - v}
	}
	return out, nil
}

// readColors decodes a COLOR_0 accessor into 8-bit RGBA. Unsigned byte,
// unsigned short and float components are supported, VEC3 colors get an opaque
// alpha channel.
func (r *resolver) readColors(accIdx int) ([][4]uint8, error) {
	data, acc, err := r.accessorData(accIdx)
	if err != nil {
		return nil, err
	}
	width := typeWidth(acc.Type)
	if width != 3 && width != 4 {
		return nil, fmt.Errorf("%w: color type %q", ErrAccessorType, acc.Type)
	}

	component := func(i, c int) (uint8, error) {
		switch acc.ComponentType {
		case componentUint8:
			return data[i*width+c], nil
		case componentUint16:
			v := binary.LittleEndian.Uint16(data[(i*width+c)*2:])
			return uint8(v >> 8), nil
		case componentFloat32:
			f := math.Float32frombits(binary.LittleEndian.Uint32(data[(i*width+c)*4:]))
			if f < 0 {
				f = 0
			} else if f > 1 {
				f = 1
			}
			return uint8(f*255 + 0.5), nil
		default:
			return 0, fmt.Errorf("%w: color componentType %d", ErrAccessorType, acc.ComponentType)
		}
	}

	out := make([][4]uint8, acc.Count)
	for i := range out {
		out[i][3] = 255
		for c := range width {
			v, err := component(i, c)
			if err != nil {
				return nil, err
			}
			out[i][c] = v
		}
	}
	return out, nil
}

// meshes assembles every triangle primitive of the document into a named
// TriangleMesh. Non-triangle primitives and primitives without positions are
// skipped with a warning. The returned meshGeoms maps mesh array indices to the
// geometry names produced from them, in primitive order.
//
// Parameters:
//   - materials: the resolved material list, possibly empty
//
// Returns:
//   - []string: geometry names in document order
//   - map[string]*geometry.TriangleMesh: geometry by name
//   - map[int][]string: mesh index → geometry names
//   - error: error when referenced data is malformed
func (r *resolver) meshes(materials []*material.PBRMaterial) ([]string, map[string]*geometry.TriangleMesh, map[int][]string, error) {
	var names []string
	geoms := map[string]*geometry.TriangleMesh{}
	meshGeoms := map[int][]string{}

	for mi, m := range r.doc.Meshes {
		for pi, prim := range m.Primitives {
			if prim.Mode != nil && *prim.Mode != modeTriangles {
				log.Printf("gltf: mesh %q primitive %d has mode %d, skipping", m.Name, pi, *prim.Mode)
				continue
			}
			posAcc, ok := prim.Attributes["POSITION"]
			if !ok {
				log.Printf("gltf: mesh %q primitive %d has no POSITION, skipping", m.Name, pi)
				continue
			}

			vertices, err := r.readVec3(posAcc)
			if err != nil {
				return nil, nil, nil, err
			}

			var indices []uint32
			if prim.Indices != nil {
				indices, err = r.readIndices(*prim.Indices)
				if err != nil {
					return nil, nil, nil, err
				}
			} else {
				indices = make([]uint32, len(vertices))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}
			if len(indices)%3 != 0 {
				return nil, nil, nil, fmt.Errorf("%w: mesh %q primitive %d has %d indices", ErrFormat, m.Name, pi, len(indices))
			}
			faces := make([][3]uint32, len(indices)/3)
			for i := range faces {
				faces[i] = [3]uint32{indices[i*3], indices[i*3+1], indices[i*3+2]}
			}

			tm := &geometry.TriangleMesh{Vertices: vertices, Faces: faces}
			if m.Extras != nil {
				tm.Units = m.Extras.Units
			}

			if colorAcc, ok := prim.Attributes["COLOR_0"]; ok {
				tm.Colors, err = r.readColors(colorAcc)
				if err != nil {
					return nil, nil, nil, err
				}
			}
			if normalAcc, ok := prim.Attributes["NORMAL"]; ok {
				tm.Normals, err = r.readVec3(normalAcc)
				if err != nil {
					return nil, nil, nil, err
				}
			}
			if prim.Material != nil {
				if *prim.Material >= 0 && *prim.Material < len(materials) {
					tm.Material = materials[*prim.Material]
				} else if len(materials) > 0 {
					return nil, nil, nil, fmt.Errorf("%w: material %d", ErrIndexRange, *prim.Material)
				}
			}
			if uvAcc, ok := prim.Attributes["TEXCOORD_0"]; ok {
				if tm.Material != nil {
					tm.UV, err = r.readUV(uvAcc)
					if err != nil {
						return nil, nil, nil, err
					}
				} else {
					log.Printf("gltf: mesh %q primitive %d has TEXCOORD_0 but no resolved material, skipping UVs", m.Name, pi)
				}
			}

			name := m.Name
			if name == "" {
				name = fmt.Sprintf("mesh_%d", mi)
			}
			if len(m.Primitives) > 1 {
				name = fmt.Sprintf("%s_%d", name, pi)
			}
			for base, n := name, 1; ; n++ {
				if _, taken := geoms[name]; !taken {
					break
				}
				name = fmt.Sprintf("%s_%d", base, n)
			}

			geoms[name] = tm
			names = append(names, name)
			meshGeoms[mi] = append(meshGeoms[mi], name)
		}
	}
	return names, geoms, meshGeoms, nil
}
