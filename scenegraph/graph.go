// package scenegraph contains the transform graph a scene hangs its geometry on:
// named frames connected by directed edges, each edge carrying a 4x4 transform
// from parent frame to child frame and optionally referencing a geometry placed
// at the child frame.
package scenegraph

import "fmt"

// Edge is one parent→child transform in the graph.
type Edge struct {
	// FrameFrom is the parent frame name.
	FrameFrom string

	// FrameTo is the child frame name. Child names are unique across the graph.
	FrameTo string

	// Matrix is the row-major transform from parent frame to child frame.
	Matrix [4][4]float64

	// Geometry is the optional name of the geometry placed at the child frame.
	Geometry string
}

// graphImpl is the implementation of the Graph interface.
type graphImpl struct {
	baseFrame string
	edges     []Edge
	frames    map[string]struct{}
}

// Graph defines the interface for the scene transform graph. Edges are
// append-only; each Update registers the child frame name, which must be unique.
type Graph interface {
	// BaseFrame returns the root frame name of the graph.
	//
	// Returns:
	//   - string: the base frame name
	BaseFrame() string

	// Update appends an edge to the graph.
	//
	// Parameters:
	//   - e: the edge to append
	//
	// Returns:
	//   - error: error if the edge's child frame name is already taken
	Update(e Edge) error

	// Edges returns the edge list in insertion order.
	//
	// Returns:
	//   - []Edge: the edges
	Edges() []Edge

	// HasFrame reports whether a frame name is registered in the graph.
	//
	// Parameters:
	//   - name: the frame name to look up
	//
	// Returns:
	//   - bool: true when the frame exists
	HasFrame(name string) bool

	// ToGLTF flattens the graph into an index-referencing node array rooted at
	// the base frame, ready to merge into a glTF document. Identity transforms
	// produce nodes without a matrix.
	//
	// Parameters:
	//   - meshIndex: geometry name → mesh array index
	//
	// Returns:
	//   - []FlatNode: the node array; index 0 is the base frame
	//   - []int: the scene root node indices
	//   - error: error if an edge references a geometry missing from meshIndex
	ToGLTF(meshIndex map[string]int) ([]FlatNode, []int, error)
}

var _ Graph = &graphImpl{}

// NewGraph creates an empty Graph rooted at the given base frame.
//
// Parameters:
//   - baseFrame: the root frame name
//
// Returns:
//   - Graph: the new graph
func NewGraph(baseFrame string) Graph {
	return &graphImpl{
		baseFrame: baseFrame,
		frames:    map[string]struct{}{baseFrame: {}},
	}
}

func (g *graphImpl) BaseFrame() string {
	return g.baseFrame
}

func (g *graphImpl) Update(e Edge) error {
	if e.FrameTo == "" {
		return fmt.Errorf("scenegraph: edge has no child frame name")
	}
	if _, taken := g.frames[e.FrameTo]; taken {
		return fmt.Errorf("scenegraph: frame %q already exists", e.FrameTo)
	}
	g.frames[e.FrameTo] = struct{}{}
	g.edges = append(g.edges, e)
	return nil
}

func (g *graphImpl) Edges() []Edge {
	result := make([]Edge, len(g.edges))
	copy(result, g.edges)
	return result
}

func (g *graphImpl) HasFrame(name string) bool {
	_, ok := g.frames[name]
	return ok
}

// FlatNode is one entry of the flattened node array produced by ToGLTF.
// Cross-references are zero-based indices into the same array.
type FlatNode struct {
	// Name is the frame name of the node.
	Name string

	// Matrix is the column-major transform from parent to this node, nil when
	// the transform is identity.
	Matrix *[16]float64

	// Children are the indices of child nodes.
	Children []int

	// Mesh is the index of the geometry's mesh, nil for pure-structure nodes.
	Mesh *int
}

func (g *graphImpl) ToGLTF(meshIndex map[string]int) ([]FlatNode, []int, error) {
	// edges grouped by parent, preserving insertion order
	children := make(map[string][]Edge, len(g.frames))
	for _, e := range g.edges {
		children[e.FrameFrom] = append(children[e.FrameFrom], e)
	}

	nodes := []FlatNode{{Name: g.baseFrame}}
	indexOf := map[string]int{g.baseFrame: 0}

	// breadth-first from the base frame so parents always precede children
	queue := []string{g.baseFrame}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		parentIdx := indexOf[parent]

		for _, e := range children[parent] {
			node := FlatNode{Name: e.FrameTo}
			if !IsIdentity(e.Matrix) {
				flat := ColumnMajor(e.Matrix)
				node.Matrix = &flat
			}
			if e.Geometry != "" {
				mi, ok := meshIndex[e.Geometry]
				if !ok {
					return nil, nil, fmt.Errorf("scenegraph: edge %q→%q references unknown geometry %q", e.FrameFrom, e.FrameTo, e.Geometry)
				}
				node.Mesh = &mi
			}

			childIdx := len(nodes)
			nodes = append(nodes, node)
			indexOf[e.FrameTo] = childIdx
			nodes[parentIdx].Children = append(nodes[parentIdx].Children, childIdx)
			queue = append(queue, e.FrameTo)
		}
	}

	return nodes, []int{0}, nil
}
