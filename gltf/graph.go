// graph.go rebuilds a scene transform graph from a glTF node hierarchy. Each
// node becomes a frame; nodes carrying a mesh get one extra frame per geometry
// produced from that mesh, placed under the same parent with the same
// transform, so instanced meshes land in distinct frames.
package gltf

import (
	"fmt"
	"log"

	"github.com/kiln3d/kiln/geometry"
	"github.com/kiln3d/kiln/scene"
	"github.com/kiln3d/kiln/scenegraph"
)

const defaultBaseFrame = "world"

// buildScene assembles the final scene from decoded geometry and the node
// hierarchy.
//
// Parameters:
//   - doc: the parsed document
//   - names: geometry names in document order
//   - geoms: geometry by name
//   - meshGeoms: mesh index → geometry names
//   - minter: mints frames for geometry instances and name collisions
//
// Returns:
//   - scene.Scene: the reconstructed scene
//   - error: error when node references are out of range
func buildScene(doc *document, names []string, geoms map[string]*geometry.TriangleMesh, meshGeoms map[int][]string, minter scenegraph.NameMinter) (scene.Scene, error) {
	frameNames := nodeFrameNames(doc, minter)

	baseFrame := defaultBaseFrame
	for _, name := range frameNames {
		if name == baseFrame {
			baseFrame = minter.NumericName()
			break
		}
	}

	s := scene.NewSceneWithBase(baseFrame)
	for _, name := range names {
		if err := s.AddGeometry(name, geoms[name]); err != nil {
			return nil, err
		}
	}
	graph := s.Graph()

	type entry struct {
		parent string
		node   int
	}
	stack := make([]entry, 0, len(doc.Nodes))
	for _, root := range rootNodes(doc) {
		if root < 0 || root >= len(doc.Nodes) {
			return nil, fmt.Errorf("%w: scene root node %d", ErrIndexRange, root)
		}
		stack = append(stack, entry{parent: baseFrame, node: root})
	}

	visited := make([]bool, len(doc.Nodes))
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[e.node] {
			log.Printf("gltf: node %d reachable through multiple parents, keeping first", e.node)
			continue
		}
		visited[e.node] = true

		n := doc.Nodes[e.node]
		frame := frameNames[e.node]
		if err := graph.Update(scenegraph.Edge{
			FrameFrom: e.parent,
			FrameTo:   frame,
			Matrix:    nodeMatrix(&n),
		}); err != nil {
			return nil, err
		}

		if n.Mesh != nil {
			if *n.Mesh < 0 || *n.Mesh >= len(doc.Meshes) {
				return nil, fmt.Errorf("%w: node %d references mesh %d", ErrIndexRange, e.node, *n.Mesh)
			}
			for _, geomName := range meshGeoms[*n.Mesh] {
				if err := graph.Update(scenegraph.Edge{
					FrameFrom: e.parent,
					FrameTo:   minter.Mint(geomName),
					Matrix:    nodeMatrix(&n),
					Geometry:  geomName,
				}); err != nil {
					return nil, err
				}
			}
		}

		for _, child := range n.Children {
			if child < 0 || child >= len(doc.Nodes) {
				return nil, fmt.Errorf("%w: node %d child %d", ErrIndexRange, e.node, child)
			}
			stack = append(stack, entry{parent: frame, node: child})
		}
	}

	return s, nil
}

// nodeFrameNames assigns every node a unique frame name, preferring the node's
// own name and falling back to an index-based one. All assigned names are
// reserved with the minter so instance frames never collide with them.
func nodeFrameNames(doc *document, minter scenegraph.NameMinter) []string {
	names := make([]string, len(doc.Nodes))
	taken := map[string]struct{}{}
	for i, n := range doc.Nodes {
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		for base, k := name, 1; ; k++ {
			if _, dup := taken[name]; !dup {
				break
			}
			name = fmt.Sprintf("%s_%d", base, k)
		}
		taken[name] = struct{}{}
		minter.Reserve(name)
		names[i] = name
	}
	return names
}

// rootNodes returns the node indices the traversal starts from: the default
// scene's roots, the first scene's roots, or every unparented node when the
// document declares no scenes.
func rootNodes(doc *document) []int {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(doc.Nodes) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeMatrix returns the node's local transform: the explicit matrix when
// present, otherwise the composition of translation, rotation and scale.
func nodeMatrix(n *node) [4][4]float64 {
	if n.Matrix != nil {
		return scenegraph.FromColumnMajor(*n.Matrix)
	}
	if n.Translation == nil && n.Rotation == nil && n.Scale == nil {
		return scenegraph.Identity()
	}
	t := [3]float64{}
	if n.Translation != nil {
		t = *n.Translation
	}
	q := [4]float64{0, 0, 0, 1}
	if n.Rotation != nil {
		q = *n.Rotation
	}
	s := [3]float64{1, 1, 1}
	if n.Scale != nil {
		s = *n.Scale
	}
	return scenegraph.Compose(t, q, s)
}
