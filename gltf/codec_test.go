package gltf

import (
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kiln3d/kiln/common"
	"github.com/kiln3d/kiln/geometry"
	"github.com/kiln3d/kiln/material"
	"github.com/kiln3d/kiln/scene"
	"github.com/kiln3d/kiln/scenegraph"
)

func quad() *geometry.TriangleMesh {
	return &geometry.TriangleMesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 1, Y: 1, Z: 0},
			{X: 0, Y: 1, Z: 0},
		},
		Faces: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
		Units: "m",
	}
}

func documentOf(t *testing.T, glb []byte) *document {
	t.Helper()
	jsonData, _, err := unpackGLB(glb)
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal(jsonData, &doc))
	return &doc
}

func TestRoundTripGLB(t *testing.T) {
	m := quad()
	m.Colors = [][4]uint8{
		{255, 0, 0, 255},
		{0, 255, 0, 255},
		{0, 0, 255, 255},
		{255, 255, 255, 128},
	}
	s := scene.NewScene()
	require.NoError(t, s.Add("quad", m))

	codec := NewCodec()
	glb, err := codec.ExportGLB(s)
	require.NoError(t, err)

	got, err := codec.Import(glb)
	require.NoError(t, err)

	require.Equal(t, []string{"quad"}, got.Names())
	geom, ok := got.Geometry("quad")
	require.True(t, ok)
	tm, ok := geom.(*geometry.TriangleMesh)
	require.True(t, ok)

	// source coordinates are exactly representable in float32
	assert.Equal(t, m.Vertices, tm.Vertices)
	assert.Equal(t, m.Faces, tm.Faces)
	assert.Equal(t, m.Colors, tm.Colors)
	assert.Equal(t, "m", tm.Units)

	// the geometry hangs off an instance frame minted from its name
	var placed *scenegraph.Edge
	for _, e := range got.Graph().Edges() {
		if e.Geometry == "quad" {
			edge := e
			placed = &edge
		}
	}
	require.NotNil(t, placed)
	assert.True(t, strings.HasPrefix(placed.FrameTo, "quad_"))
}

func TestExportAccessorBounds(t *testing.T) {
	s := scene.NewScene()
	require.NoError(t, s.Add("quad", quad()))

	glb, err := NewCodec().ExportGLB(s)
	require.NoError(t, err)
	doc := documentOf(t, glb)

	require.NotEmpty(t, doc.Meshes)
	prim := doc.Meshes[0].Primitives[0]
	require.NotNil(t, prim.Indices)

	idx := doc.Accessors[*prim.Indices]
	assert.Equal(t, componentUint32, idx.ComponentType)
	assert.Equal(t, "SCALAR", idx.Type)
	assert.Equal(t, 6, idx.Count)
	assert.Equal(t, []float64{0}, idx.Min)
	assert.Equal(t, []float64{3}, idx.Max)

	pos := doc.Accessors[prim.Attributes["POSITION"]]
	assert.Equal(t, componentFloat32, pos.ComponentType)
	assert.Equal(t, "VEC3", pos.Type)
	assert.Equal(t, 4, pos.Count)
	assert.Equal(t, []float64{0, 0, 0}, pos.Min)
	assert.Equal(t, []float64{1, 1, 0}, pos.Max)

	require.NotNil(t, doc.Meshes[0].Extras)
	assert.Equal(t, "m", doc.Meshes[0].Extras.Units)

	// every buffer view starts on a 4-byte boundary
	for _, view := range doc.BufferViews {
		assert.Zero(t, view.ByteOffset%4)
	}
}

func TestExportVertexColorsSkipMaterial(t *testing.T) {
	m := quad()
	m.Colors = [][4]uint8{{1, 2, 3, 4}, {1, 2, 3, 4}, {1, 2, 3, 4}, {1, 2, 3, 4}}
	s := scene.NewScene()
	require.NoError(t, s.Add("quad", m))

	glb, err := NewCodec().ExportGLB(s)
	require.NoError(t, err)

	jsonData, _, err := unpackGLB(glb)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(jsonData, &raw))
	_, hasMaterials := raw["materials"]
	assert.False(t, hasMaterials)

	doc := documentOf(t, glb)
	prim := doc.Meshes[0].Primitives[0]
	colorAcc, ok := prim.Attributes["COLOR_0"]
	require.True(t, ok)
	acc := doc.Accessors[colorAcc]
	assert.Equal(t, componentUint8, acc.ComponentType)
	assert.Equal(t, "VEC4", acc.Type)
	assert.True(t, acc.Normalized)
	assert.Nil(t, prim.Material)
}

func TestExportVertexColorsWinOverMaterial(t *testing.T) {
	m := quad()
	m.Colors = [][4]uint8{{10, 20, 30, 255}, {10, 20, 30, 255}, {10, 20, 30, 255}, {10, 20, 30, 255}}
	m.Material = &material.PBRMaterial{Name: "plain"}
	s := scene.NewScene()
	require.NoError(t, s.Add("quad", m))

	glb, err := NewCodec().ExportGLB(s)
	require.NoError(t, err)
	doc := documentOf(t, glb)

	prim := doc.Meshes[0].Primitives[0]
	_, ok := prim.Attributes["COLOR_0"]
	assert.True(t, ok)
	assert.Nil(t, prim.Material)
	assert.Empty(t, doc.Materials)
}

func TestExportDerivedMaterial(t *testing.T) {
	s := scene.NewScene()
	require.NoError(t, s.Add("quad", quad()))

	glb, err := NewCodec().ExportGLB(s)
	require.NoError(t, err)
	doc := documentOf(t, glb)

	prim := doc.Meshes[0].Primitives[0]
	require.NotNil(t, prim.Material)
	mat := doc.Materials[*prim.Material]
	require.NotNil(t, mat.PbrMetallicRoughness)
	require.NotNil(t, mat.PbrMetallicRoughness.BaseColorFactor)
	base := *mat.PbrMetallicRoughness.BaseColorFactor
	assert.InDelta(t, 0.4, base[0], 0.01)
	require.NotNil(t, mat.PbrMetallicRoughness.MetallicFactor)
	assert.Zero(t, *mat.PbrMetallicRoughness.MetallicFactor)
}

func TestRoundTripUVFlip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	m := quad()
	m.Material = &material.PBRMaterial{Name: "painted", BaseColorTexture: img}
	m.UV = [][2]float64{{0, 0.2}, {1, 0.2}, {1, 0.8}, {0, 0.8}}

	s := scene.NewScene()
	require.NoError(t, s.Add("quad", m))

	exporter := NewCodec()
	glb, err := exporter.ExportGLB(s)
	require.NoError(t, err)

	// exported V is flipped to the top-left origin
	doc := documentOf(t, glb)
	assert.NotEmpty(t, doc.Textures)
	assert.NotEmpty(t, doc.Images)
	assert.NotEmpty(t, doc.Samplers)

	importer := NewCodec(WithImageDecoder(material.NewStdDecoder()))
	got, err := importer.Import(glb)
	require.NoError(t, err)

	geom, _ := got.Geometry("quad")
	tm := geom.(*geometry.TriangleMesh)
	require.NotNil(t, tm.Material)
	assert.NotNil(t, tm.Material.BaseColorTexture)
	require.Len(t, tm.UV, 4)
	for i := range m.UV {
		assert.InDelta(t, m.UV[i][0], tm.UV[i][0], 1e-6)
		assert.InDelta(t, m.UV[i][1], tm.UV[i][1], 1e-6)
	}
}

func TestImportWithoutDecoderDropsMaterials(t *testing.T) {
	m := quad()
	m.Material = &material.PBRMaterial{Name: "plain"}
	m.UV = [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	s := scene.NewScene()
	require.NoError(t, s.Add("quad", m))

	glb, err := NewCodec().ExportGLB(s)
	require.NoError(t, err)

	got, err := NewCodec().Import(glb)
	require.NoError(t, err)

	geom, _ := got.Geometry("quad")
	tm := geom.(*geometry.TriangleMesh)
	assert.Nil(t, tm.Material)
	// texture coordinates without a material are dropped too
	assert.Empty(t, tm.UV)
}

func TestImportInstancing(t *testing.T) {
	s := scene.NewScene()
	require.NoError(t, s.Add("cube", quad()))
	// second placement of the same geometry under its own frame
	require.NoError(t, s.Graph().Update(scenegraph.Edge{
		FrameFrom: "world",
		FrameTo:   "copy",
		Matrix:    scenegraph.Identity(),
		Geometry:  "cube",
	}))

	codec := NewCodec()
	glb, err := codec.ExportGLB(s)
	require.NoError(t, err)

	got, err := codec.Import(glb)
	require.NoError(t, err)

	var frames []string
	for _, e := range got.Graph().Edges() {
		if e.Geometry == "cube" {
			frames = append(frames, e.FrameTo)
		}
	}
	require.Len(t, frames, 2)
	assert.NotEqual(t, frames[0], frames[1])
	for _, f := range frames {
		assert.True(t, strings.HasPrefix(f, "cube_"))
	}
}

func TestImportGeometryEdgePlacement(t *testing.T) {
	shift := scenegraph.Identity()
	shift[0][3], shift[1][3], shift[2][3] = 7, 8, 9

	s := scene.NewScene()
	require.NoError(t, s.AddAt("quad", quad(), "world", shift))

	codec := NewCodec()
	glb, err := codec.ExportGLB(s)
	require.NoError(t, err)

	got, err := codec.Import(glb)
	require.NoError(t, err)

	var placed *scenegraph.Edge
	for _, e := range got.Graph().Edges() {
		if e.Geometry == "quad" {
			edge := e
			placed = &edge
		}
	}
	require.NotNil(t, placed)

	// the geometry edge hangs off the node's parent and carries the node's
	// transform, alongside the structural edge for the node frame
	assert.Equal(t, got.BaseFrame(), placed.FrameFrom)
	assert.Equal(t, 7.0, placed.Matrix[0][3])
	assert.Equal(t, 8.0, placed.Matrix[1][3])
	assert.Equal(t, 9.0, placed.Matrix[2][3])
}

func TestImportBaseFrameCollision(t *testing.T) {
	s := scene.NewScene()
	require.NoError(t, s.Add("quad", quad()))

	codec := NewCodec()
	glb, err := codec.ExportGLB(s)
	require.NoError(t, err)

	// the exported root node is named "world", so the imported base frame
	// falls back to a numeric name
	got, err := codec.Import(glb)
	require.NoError(t, err)
	base := got.BaseFrame()
	assert.NotEqual(t, "world", base)
	for _, r := range base {
		assert.True(t, r >= '0' && r <= '9')
	}
	assert.True(t, got.Graph().HasFrame("world"))
}

func TestExportDir(t *testing.T) {
	s := scene.NewScene()
	require.NoError(t, s.Add("part", quad()))

	codec := NewCodec()
	files, err := codec.ExportDir(s)
	require.NoError(t, err)

	require.Contains(t, files, "model.gltf")
	require.Contains(t, files, "mesh_part.bin")

	var doc document
	require.NoError(t, json.Unmarshal(files["model.gltf"], &doc))
	require.Len(t, doc.Buffers, 1)
	assert.Equal(t, "mesh_part.bin", doc.Buffers[0].URI)
	assert.Equal(t, len(files["mesh_part.bin"]), doc.Buffers[0].ByteLength)

	got, err := codec.ImportDocument(files["model.gltf"], files)
	require.NoError(t, err)
	geom, ok := got.Geometry("part")
	require.True(t, ok)
	tm := geom.(*geometry.TriangleMesh)
	assert.Len(t, tm.Vertices, 4)
	assert.Len(t, tm.Faces, 2)
}

func TestImportDocumentMissingBuffer(t *testing.T) {
	s := scene.NewScene()
	require.NoError(t, s.Add("part", quad()))

	codec := NewCodec()
	files, err := codec.ExportDir(s)
	require.NoError(t, err)

	_, err = codec.ImportDocument(files["model.gltf"], nil)
	require.ErrorIs(t, err, ErrMissingBuffer)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestImportSkipsLinePrimitives(t *testing.T) {
	s := scene.NewScene()
	require.NoError(t, s.Add("wire", &geometry.Path{
		Lines: [][]r3.Vec{{{X: 0}, {X: 1}, {X: 2}}},
	}))

	codec := NewCodec()
	glb, err := codec.ExportGLB(s)
	require.NoError(t, err)

	// the path exports as a mode-1 primitive with a black material
	doc := documentOf(t, glb)
	prim := doc.Meshes[0].Primitives[0]
	require.NotNil(t, prim.Mode)
	assert.Equal(t, modeLines, *prim.Mode)
	require.NotNil(t, prim.Material)
	black := doc.Materials[*prim.Material]
	require.NotNil(t, black.PbrMetallicRoughness.BaseColorFactor)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, *black.PbrMetallicRoughness.BaseColorFactor)

	got, err := codec.Import(glb)
	require.NoError(t, err)
	assert.Empty(t, got.Names())
}

func TestImportJSONWithDataURI(t *testing.T) {
	bin := append(
		common.Uint32Bytes([]uint32{0, 1, 2}),
		common.Float32Bytes([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})...,
	)
	jsonDoc := `{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"name": "root", "mesh": 0}],
		"meshes": [{"name": "tri", "primitives": [
			{"attributes": {"POSITION": 1}, "indices": 0}
		]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5125, "count": 3, "type": "SCALAR"},
			{"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC3"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 12},
			{"buffer": 0, "byteOffset": 12, "byteLength": 36}
		],
		"buffers": [{"uri": "data:application/octet-stream;base64,` +
		base64.StdEncoding.EncodeToString(bin) + `", "byteLength": 48}]
	}`

	// Import sniffs the container form, so a bare JSON document works too
	got, err := NewCodec().Import([]byte(jsonDoc))
	require.NoError(t, err)
	geom, ok := got.Geometry("tri")
	require.True(t, ok)
	assert.Len(t, geom.(*geometry.TriangleMesh).Vertices, 3)
}

func TestImportNodeTransforms(t *testing.T) {
	bin := append(
		common.Uint32Bytes([]uint32{0, 1, 2}),
		common.Float32Bytes([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})...,
	)
	jsonDoc := `{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"nodes": [0, 1]}],
		"nodes": [
			{"name": "explicit", "mesh": 0,
			 "matrix": [1,0,0,0, 0,1,0,0, 0,0,1,0, 4,5,6,1]},
			{"name": "composed", "mesh": 0,
			 "translation": [4,5,6]}
		],
		"meshes": [{"name": "tri", "primitives": [
			{"attributes": {"POSITION": 1}, "indices": 0}
		]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5125, "count": 3, "type": "SCALAR"},
			{"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC3"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 12},
			{"buffer": 0, "byteOffset": 12, "byteLength": 36}
		],
		"buffers": [{"uri": "tri.bin", "byteLength": 48}]
	}`

	got, err := NewCodec().ImportDocument([]byte(jsonDoc), map[string][]byte{"tri.bin": bin})
	require.NoError(t, err)

	matrices := map[string][4][4]float64{}
	for _, e := range got.Graph().Edges() {
		matrices[e.FrameTo] = e.Matrix
	}
	explicit, ok := matrices["explicit"]
	require.True(t, ok)
	composed, ok := matrices["composed"]
	require.True(t, ok)

	// a column-major matrix and the equivalent TRS produce the same transform
	assert.Equal(t, explicit, composed)
	assert.Equal(t, 4.0, explicit[0][3])
	assert.Equal(t, 5.0, explicit[1][3])
	assert.Equal(t, 6.0, explicit[2][3])
}
