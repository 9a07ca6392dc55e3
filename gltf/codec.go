// codec.go is the public surface of the gltf package: a Codec that exports a
// scene to GLB or a glTF file set and imports either back.
package gltf

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/kiln3d/kiln/material"
	"github.com/kiln3d/kiln/scene"
	"github.com/kiln3d/kiln/scenegraph"
)

// codecImpl is the implementation of the Codec interface.
type codecImpl struct {
	decoder        material.Decoder
	includeNormals bool
	randomNames    bool
	workers        int
	pool           worker.DynamicWorkerPool
}

// Codec converts scenes to and from the glTF 2.0 format. A Codec is safe for
// reuse across calls; geometry payload encoding is spread over a worker pool
// shared by all exports.
type Codec interface {
	// ExportGLB serializes a scene into a single binary GLB byte stream.
	//
	// Parameters:
	//   - s: the scene to export
	//
	// Returns:
	//   - []byte: the GLB byte stream
	//   - error: error when the scene contains invalid geometry
	ExportGLB(s scene.Scene) ([]byte, error)

	// ExportDir serializes a scene into a .gltf JSON document plus one binary
	// buffer file per geometry, returned as file contents keyed by file name.
	// The JSON document is stored under "model.gltf".
	//
	// Parameters:
	//   - s: the scene to export
	//
	// Returns:
	//   - map[string][]byte: file name → file contents
	//   - error: error when the scene contains invalid geometry
	ExportDir(s scene.Scene) (map[string][]byte, error)

	// Import parses glTF input into a scene. Both container forms are
	// accepted: a binary GLB stream, recognized by its magic bytes, or a bare
	// JSON document whose buffers are all embedded as data: URIs.
	//
	// Parameters:
	//   - data: the GLB byte stream or glTF JSON document
	//
	// Returns:
	//   - scene.Scene: the reconstructed scene
	//   - error: error wrapping ErrFormat when the input is malformed
	Import(data []byte) (scene.Scene, error)

	// ImportReader reads a complete GLB byte stream from r and imports it.
	//
	// Parameters:
	//   - r: the reader to consume
	//
	// Returns:
	//   - scene.Scene: the reconstructed scene
	//   - error: read errors, or errors wrapping ErrFormat for malformed input
	ImportReader(r io.Reader) (scene.Scene, error)

	// ImportDocument parses a standalone glTF JSON document whose buffers are
	// supplied out of band, keyed by the URI the document references them with.
	//
	// Parameters:
	//   - jsonData: the glTF JSON document
	//   - buffers: external buffer contents keyed by URI
	//
	// Returns:
	//   - scene.Scene: the reconstructed scene
	//   - error: error wrapping ErrFormat when the input is malformed
	ImportDocument(jsonData []byte, buffers map[string][]byte) (scene.Scene, error)
}

var _ Codec = &codecImpl{}

// CodecOption configures a Codec during construction.
type CodecOption func(*codecImpl)

// WithImageDecoder sets the decoder used for texture images on import. Without
// one, materials are dropped and geometry keeps its default appearance.
//
// Parameters:
//   - d: the image decoder
//
// Returns:
//   - CodecOption: the option to pass to NewCodec
func WithImageDecoder(d material.Decoder) CodecOption {
	return func(c *codecImpl) {
		c.decoder = d
	}
}

// WithNormals includes a NORMAL attribute for every exported mesh, generating
// smooth vertex normals for meshes that do not declare any.
//
// Returns:
//   - CodecOption: the option to pass to NewCodec
func WithNormals() CodecOption {
	return func(c *codecImpl) {
		c.includeNormals = true
	}
}

// WithRandomNames switches imported instance frame names from deterministic
// counter suffixes to UUID-derived random suffixes.
//
// Returns:
//   - CodecOption: the option to pass to NewCodec
func WithRandomNames() CodecOption {
	return func(c *codecImpl) {
		c.randomNames = true
	}
}

// WithEncodeWorkers overrides the number of workers encoding geometry payloads
// during export. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - CodecOption: the option to pass to NewCodec
func WithEncodeWorkers(n int) CodecOption {
	return func(c *codecImpl) {
		if n >= 1 {
			c.workers = n
		}
	}
}

// NewCodec creates a Codec.
//
// Parameters:
//   - options: optional configuration
//
// Returns:
//   - Codec: the new codec
func NewCodec(options ...CodecOption) Codec {
	c := &codecImpl{
		workers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(c)
	}
	// Queue size of 256 accommodates the per-accessor encode jobs of large
	// scenes with headroom.
	c.pool = worker.NewDynamicWorkerPool(c.workers, 256, 1*time.Second)
	return c
}

func (c *codecImpl) ExportGLB(s scene.Scene) ([]byte, error) {
	b := newBuilder(c.pool, c.includeNormals)
	if err := b.addScene(s); err != nil {
		return nil, err
	}
	doc, blob, err := b.assembleGLB()
	if err != nil {
		return nil, err
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf: serializing document: %w", err)
	}
	var binChunks [][]byte
	if len(blob) > 0 {
		binChunks = [][]byte{blob}
	}
	return packGLB(jsonData, binChunks), nil
}

func (c *codecImpl) ExportDir(s scene.Scene) (map[string][]byte, error) {
	b := newBuilder(c.pool, c.includeNormals)
	if err := b.addScene(s); err != nil {
		return nil, err
	}
	doc, files, err := b.assembleDir()
	if err != nil {
		return nil, err
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf: serializing document: %w", err)
	}
	files["model.gltf"] = jsonData
	return files, nil
}

func (c *codecImpl) Import(data []byte) (scene.Scene, error) {
	if !isGLB(data) {
		return c.ImportDocument(data, nil)
	}
	jsonData, binChunks, err := unpackGLB(data)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing JSON chunk: %v", ErrFormat, err)
	}
	return c.importDocument(&doc, binChunks, nil)
}

func (c *codecImpl) ImportReader(r io.Reader) (scene.Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gltf: reading input: %w", err)
	}
	return c.Import(data)
}

func (c *codecImpl) ImportDocument(jsonData []byte, buffers map[string][]byte) (scene.Scene, error) {
	var doc document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing document: %v", ErrFormat, err)
	}
	return c.importDocument(&doc, nil, buffers)
}

// importDocument runs the shared import pipeline: materialize buffers, resolve
// materials, decode meshes and rebuild the transform graph.
func (c *codecImpl) importDocument(doc *document, binChunks [][]byte, named map[string][]byte) (scene.Scene, error) {
	res, err := newResolver(doc, binChunks, named)
	if err != nil {
		return nil, err
	}
	materials := res.resolveMaterials(c.decoder)
	names, geoms, meshGeoms, err := res.meshes(materials)
	if err != nil {
		return nil, err
	}
	return buildScene(doc, names, geoms, meshGeoms, scenegraph.NewNameMinter(c.randomNames))
}
