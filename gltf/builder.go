// builder.go assembles the glTF document structure for export: accessors,
// buffer views, meshes, materials and nodes, with the binary payload encoding
// deferred to a worker pool so large scenes encode geometry in parallel.
package gltf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kiln3d/kiln/common"
	"github.com/kiln3d/kiln/geometry"
	"github.com/kiln3d/kiln/material"
	"github.com/kiln3d/kiln/scene"
)

const generatorName = "kiln"

// encodeJob produces the binary payload for one buffer item slot.
type encodeJob struct {
	slot int
	do   func() ([]byte, error)
}

// builder accumulates document structure in a sequential pass and encodes the
// binary payloads afterwards. Buffer items map 1:1 to buffer views; the view
// array and buffer layout are produced at assembly time, once the target
// container (GLB or file directory) is known.
type builder struct {
	doc document

	// items[i] is the payload behind buffer view i, filled by encode jobs.
	items     [][]byte
	itemGroup []int
	jobs      []encodeJob

	// groups partition buffer items by the geometry that produced them, so
	// directory export can write one .bin file per geometry.
	groups []string

	materialIndex  map[string]int
	imageIndex     map[*material.PBRMaterial]map[string]int
	samplerIndex   *int
	includeNormals bool

	pool worker.DynamicWorkerPool
}

// newBuilder creates a builder that encodes payloads on the given pool.
func newBuilder(pool worker.DynamicWorkerPool, includeNormals bool) *builder {
	return &builder{
		doc: document{
			Asset: asset{Version: "2.0", Generator: generatorName},
		},
		materialIndex:  map[string]int{},
		imageIndex:     map[*material.PBRMaterial]map[string]int{},
		includeNormals: includeNormals,
		pool:           pool,
	}
}

// addScene walks the scene's geometry in insertion order, appends meshes and
// materials, then flattens the transform graph into the node array.
//
// Parameters:
//   - s: the scene to export
//
// Returns:
//   - error: error if a geometry is invalid or the graph is inconsistent
func (b *builder) addScene(s scene.Scene) error {
	meshIndex := map[string]int{}
	for _, name := range s.Names() {
		geom, _ := s.Geometry(name)
		group := len(b.groups)
		b.groups = append(b.groups, name)

		var idx int
		var err error
		switch g := geom.(type) {
		case *geometry.TriangleMesh:
			idx, err = b.appendMesh(name, g, group)
		case *geometry.Path:
			idx, err = b.appendPath(name, g, group)
		default:
			return fmt.Errorf("gltf: geometry %q has unsupported type %T", name, geom)
		}
		if err != nil {
			return err
		}
		meshIndex[name] = idx
	}

	flat, roots, err := s.Graph().ToGLTF(meshIndex)
	if err != nil {
		return err
	}
	for _, fn := range flat {
		b.doc.Nodes = append(b.doc.Nodes, node{
			Name:     fn.Name,
			Children: fn.Children,
			Mesh:     fn.Mesh,
			Matrix:   fn.Matrix,
		})
	}
	zero := 0
	b.doc.Scenes = []docScene{{Nodes: roots}}
	b.doc.Scene = &zero
	return nil
}

// appendMesh converts one triangle mesh into a glTF mesh with a single
// triangle-mode primitive and returns the mesh index.
func (b *builder) appendMesh(name string, m *geometry.TriangleMesh, group int) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("gltf: geometry %q: %w", name, err)
	}

	faces := m.Faces
	vertices := m.Vertices

	indexAcc := b.addAccessor(accessor{
		ComponentType: componentUint32,
		Count:         len(faces) * 3,
		Type:          "SCALAR",
		Min:           []float64{0},
		Max:           []float64{float64(m.MaxFaceIndex())},
	}, group, func() ([]byte, error) {
		flat := make([]uint32, 0, len(faces)*3)
		for _, f := range faces {
			flat = append(flat, f[0], f[1], f[2])
		}
		return common.Uint32Bytes(flat), nil
	})

	posMin, posMax := boundsF32(vertices)
	posAcc := b.addAccessor(accessor{
		ComponentType: componentFloat32,
		Count:         len(vertices),
		Type:          "VEC3",
		Min:           posMin,
		Max:           posMax,
	}, group, func() ([]byte, error) {
		return common.Float32Bytes(flattenVecs(vertices)), nil
	})

	mode := modeTriangles
	prim := primitive{
		Attributes: map[string]int{"POSITION": posAcc},
		Indices:    &indexAcc,
		Mode:       &mode,
	}

	switch {
	case m.HasVertexColors():
		colors := m.Colors
		prim.Attributes["COLOR_0"] = b.addAccessor(accessor{
			ComponentType: componentUint8,
			Normalized:    true,
			Count:         len(colors),
			Type:          "VEC4",
		}, group, func() ([]byte, error) {
			flat := make([]byte, 0, len(colors)*4)
			for _, c := range colors {
				flat = append(flat, c[0], c[1], c[2], c[3])
			}
			return flat, nil
		})
	case m.Material != nil:
		matIdx, err := b.appendMaterial(m.Material, group)
		if err != nil {
			return 0, err
		}
		prim.Material = &matIdx
		if len(m.UV) > 0 {
			prim.Attributes["TEXCOORD_0"] = b.appendUV(m.UV, group)
		}
	default:
		derived := material.FromColor(m.DominantColor(), 0, 0)
		matIdx, err := b.appendMaterial(derived, group)
		if err != nil {
			return 0, err
		}
		prim.Material = &matIdx
	}

	if b.includeNormals {
		normals := m.VertexNormals()
		nMin, nMax := boundsF32(normals)
		prim.Attributes["NORMAL"] = b.addAccessor(accessor{
			ComponentType: componentFloat32,
			Count:         len(normals),
			Type:          "VEC3",
			Min:           nMin,
			Max:           nMax,
		}, group, func() ([]byte, error) {
			return common.Float32Bytes(flattenVecs(normals)), nil
		})
	}

	entry := mesh{Name: name, Primitives: []primitive{prim}}
	if m.Units != "" {
		entry.Extras = &meshExtras{Units: m.Units}
	}
	idx := len(b.doc.Meshes)
	b.doc.Meshes = append(b.doc.Meshes, entry)
	return idx, nil
}

// appendPath converts a path into a glTF mesh with a single lines-mode
// primitive carrying a default black material.
func (b *builder) appendPath(name string, p *geometry.Path, group int) (int, error) {
	count, flat := p.LineList()
	if count == 0 {
		return 0, fmt.Errorf("gltf: path %q has no line segments", name)
	}

	pMin, pMax := boundsFlatF32(flat)
	posAcc := b.addAccessor(accessor{
		ComponentType: componentFloat32,
		Count:         count,
		Type:          "VEC3",
		Min:           pMin,
		Max:           pMax,
	}, group, func() ([]byte, error) {
		return common.Float32Bytes(flat), nil
	})

	black := [4]float64{0, 0, 0, 1}
	matIdx, err := b.appendMaterial(&material.PBRMaterial{
		Name:            "black",
		BaseColorFactor: &black,
	}, group)
	if err != nil {
		return 0, err
	}

	mode := modeLines
	entry := mesh{
		Name: name,
		Primitives: []primitive{{
			Attributes: map[string]int{"POSITION": posAcc},
			Material:   &matIdx,
			Mode:       &mode,
		}},
	}
	if p.Units != "" {
		entry.Extras = &meshExtras{Units: p.Units}
	}
	idx := len(b.doc.Meshes)
	b.doc.Meshes = append(b.doc.Meshes, entry)
	return idx, nil
}

// appendUV adds a TEXCOORD_0 accessor with the V coordinate flipped from the
// bottom-left origin used by the geometry types to glTF's top-left origin.
func (b *builder) appendUV(uv [][2]float64, group int) int {
	return b.addAccessor(accessor{
		ComponentType: componentFloat32,
		Count:         len(uv),
		Type:          "VEC2",
	}, group, func() ([]byte, error) {
		flat := make([]float32, 0, len(uv)*2)
		for _, p := range uv {
			flat = append(flat, float32(p[0]), float32(1.0-p[1]))
		}
		return common.Float32Bytes(flat), nil
	})
}

// appendMaterial adds a material if an equivalent one has not been added
// already and returns its index. Texture images are PNG-encoded into buffer
// items belonging to the given group.
func (b *builder) appendMaterial(m *material.PBRMaterial, group int) (int, error) {
	key := materialKey(m)
	if idx, ok := b.materialIndex[key]; ok {
		return idx, nil
	}

	entry := docMaterial{Name: m.Name}
	pbr := &pbrMetallicRoughness{
		BaseColorFactor: m.BaseColorFactor,
		MetallicFactor:  m.MetallicFactor,
		RoughnessFactor: m.RoughnessFactor,
	}
	if m.BaseColorTexture != nil {
		texIdx := b.appendTexture(m, "baseColor", m.BaseColorTexture, group)
		pbr.BaseColorTexture = &textureInfo{Index: texIdx}
	}
	if m.MetallicRoughnessTexture != nil {
		texIdx := b.appendTexture(m, "metallicRoughness", m.MetallicRoughnessTexture, group)
		pbr.MetallicRoughnessTexture = &textureInfo{Index: texIdx}
	}
	if m.NormalTexture != nil {
		texIdx := b.appendTexture(m, "normal", m.NormalTexture, group)
		entry.NormalTexture = &textureInfo{Index: texIdx}
	}
	entry.PbrMetallicRoughness = pbr

	idx := len(b.doc.Materials)
	b.doc.Materials = append(b.doc.Materials, entry)
	b.materialIndex[key] = idx
	return idx, nil
}

// appendTexture PNG-encodes an image into a buffer item and adds the image,
// sampler and texture entries. Re-encoding is skipped when the same material
// slot has been added before.
func (b *builder) appendTexture(m *material.PBRMaterial, slot string, img image.Image, group int) int {
	if slots, ok := b.imageIndex[m]; ok {
		if texIdx, ok := slots[slot]; ok {
			return texIdx
		}
	} else {
		b.imageIndex[m] = map[string]int{}
	}

	viewSlot := b.addItem(group, func() ([]byte, error) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("gltf: encoding %s texture: %w", slot, err)
		}
		return buf.Bytes(), nil
	})

	imgIdx := len(b.doc.Images)
	b.doc.Images = append(b.doc.Images, docImage{
		MimeType:   "image/png",
		BufferView: &viewSlot,
	})

	if b.samplerIndex == nil {
		linear, repeat := 9729, 10497
		b.doc.Samplers = append(b.doc.Samplers, sampler{
			MagFilter: &linear,
			MinFilter: &linear,
			WrapS:     &repeat,
			WrapT:     &repeat,
		})
		zero := 0
		b.samplerIndex = &zero
	}

	texIdx := len(b.doc.Textures)
	b.doc.Textures = append(b.doc.Textures, texture{
		Sampler: b.samplerIndex,
		Source:  &imgIdx,
	})
	b.imageIndex[m][slot] = texIdx
	return texIdx
}

// addAccessor appends an accessor whose payload will live in its own buffer
// view and returns the accessor index.
func (b *builder) addAccessor(a accessor, group int, encode func() ([]byte, error)) int {
	slot := b.addItem(group, encode)
	a.BufferView = &slot
	idx := len(b.doc.Accessors)
	b.doc.Accessors = append(b.doc.Accessors, a)
	return idx
}

// addItem reserves a buffer item slot, queues its encode job and returns the
// slot index, which doubles as the buffer view index.
func (b *builder) addItem(group int, encode func() ([]byte, error)) int {
	slot := len(b.items)
	b.items = append(b.items, nil)
	b.itemGroup = append(b.itemGroup, group)
	b.jobs = append(b.jobs, encodeJob{slot: slot, do: encode})
	return slot
}

// encode runs all queued encode jobs on the worker pool. Each job writes a
// distinct item slot so no synchronization beyond the barrier is needed.
//
// Returns:
//   - error: the first job error encountered, if any
func (b *builder) encode() error {
	var wg sync.WaitGroup
	errs := make([]error, len(b.jobs))
	for i, job := range b.jobs {
		wg.Add(1)
		j := job // capture for closure
		idx := i
		b.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				data, err := j.do()
				if err != nil {
					errs[idx] = err
					return nil, err
				}
				b.items[j.slot] = data
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	b.jobs = nil
	return nil
}

// assembleGLB lays all buffer items into a single binary chunk and returns the
// finished document alongside it. Offsets are aligned to 4 bytes.
func (b *builder) assembleGLB() (document, []byte, error) {
	if err := b.encode(); err != nil {
		return document{}, nil, err
	}

	var blob bytes.Buffer
	for _, item := range b.items {
		offset := blob.Len()
		blob.Write(common.Pad4(item))
		b.doc.BufferViews = append(b.doc.BufferViews, bufferView{
			Buffer:     0,
			ByteOffset: offset,
			ByteLength: len(item),
		})
	}
	if blob.Len() > 0 {
		b.doc.Buffers = []buffer{{ByteLength: blob.Len()}}
	}
	return b.doc, blob.Bytes(), nil
}

// assembleDir lays buffer items into one buffer per geometry, each backed by a
// mesh_<name>.bin file, and returns the finished document plus the file
// contents keyed by file name.
func (b *builder) assembleDir() (document, map[string][]byte, error) {
	if err := b.encode(); err != nil {
		return document{}, nil, err
	}

	files := map[string][]byte{}
	bufferOf := map[int]int{}
	blobs := map[int]*bytes.Buffer{}
	for i, item := range b.items {
		group := b.itemGroup[i]
		bufIdx, ok := bufferOf[group]
		if !ok {
			bufIdx = len(b.doc.Buffers)
			bufferOf[group] = bufIdx
			blobs[group] = &bytes.Buffer{}
			b.doc.Buffers = append(b.doc.Buffers, buffer{
				URI: fmt.Sprintf("mesh_%s.bin", b.groups[group]),
			})
		}
		blob := blobs[group]
		offset := blob.Len()
		blob.Write(common.Pad4(item))
		b.doc.BufferViews = append(b.doc.BufferViews, bufferView{
			Buffer:     bufIdx,
			ByteOffset: offset,
			ByteLength: len(item),
		})
	}
	for group, bufIdx := range bufferOf {
		b.doc.Buffers[bufIdx].ByteLength = blobs[group].Len()
		files[b.doc.Buffers[bufIdx].URI] = blobs[group].Bytes()
	}
	return b.doc, files, nil
}

// boundsF32 returns the per-component min and max of the vectors after
// conversion to float32, matching the precision of the encoded payload.
func boundsF32(vs []r3.Vec) ([]float64, []float64) {
	if len(vs) == 0 {
		return nil, nil
	}
	minV := [3]float32{float32(vs[0].X), float32(vs[0].Y), float32(vs[0].Z)}
	maxV := minV
	for _, v := range vs[1:] {
		c := [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		for i := range 3 {
			minV[i] = math32.Min(minV[i], c[i])
			maxV[i] = math32.Max(maxV[i], c[i])
		}
	}
	return []float64{float64(minV[0]), float64(minV[1]), float64(minV[2])},
		[]float64{float64(maxV[0]), float64(maxV[1]), float64(maxV[2])}
}

// boundsFlatF32 is boundsF32 over an xyz-interleaved float32 slice.
func boundsFlatF32(flat []float32) ([]float64, []float64) {
	if len(flat) < 3 {
		return nil, nil
	}
	minV := [3]float32{flat[0], flat[1], flat[2]}
	maxV := minV
	for i := 3; i+2 < len(flat); i += 3 {
		for c := range 3 {
			minV[c] = math32.Min(minV[c], flat[i+c])
			maxV[c] = math32.Max(maxV[c], flat[i+c])
		}
	}
	return []float64{float64(minV[0]), float64(minV[1]), float64(minV[2])},
		[]float64{float64(maxV[0]), float64(maxV[1]), float64(maxV[2])}
}

// flattenVecs packs vectors into an xyz-interleaved float32 slice.
func flattenVecs(vs []r3.Vec) []float32 {
	flat := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		flat = append(flat, float32(v.X), float32(v.Y), float32(v.Z))
	}
	return flat
}

// materialKey builds a deduplication key from a material's scalar content.
// Materials carrying textures are keyed by identity so distinct image sets are
// never merged.
func materialKey(m *material.PBRMaterial) string {
	if m.BaseColorTexture != nil || m.MetallicRoughnessTexture != nil || m.NormalTexture != nil {
		return fmt.Sprintf("ptr:%p", m)
	}
	base := "-"
	if m.BaseColorFactor != nil {
		base = fmt.Sprintf("%v", *m.BaseColorFactor)
	}
	metallic := "-"
	if m.MetallicFactor != nil {
		metallic = fmt.Sprintf("%g", *m.MetallicFactor)
	}
	roughness := "-"
	if m.RoughnessFactor != nil {
		roughness = fmt.Sprintf("%g", *m.RoughnessFactor)
	}
	return fmt.Sprintf("val:%s|%s|%s|%s", m.Name, base, metallic, roughness)
}
