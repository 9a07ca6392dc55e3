// package scene ties named geometry to the transform graph that places it.
package scene

import (
	"fmt"

	"github.com/kiln3d/kiln/geometry"
	"github.com/kiln3d/kiln/scenegraph"
)

// sceneImpl is the implementation of the Scene interface.
type sceneImpl struct {
	names     []string
	geometry  map[string]geometry.Geometry
	graph     scenegraph.Graph
	baseFrame string
}

// Scene is a collection of named geometry positioned by a transform graph.
// Geometry names are unique; insertion order is preserved.
type Scene interface {
	// BaseFrame returns the root frame of the scene's transform graph.
	//
	// Returns:
	//   - string: the base frame name
	BaseFrame() string

	// Names returns the geometry names in insertion order.
	//
	// Returns:
	//   - []string: the geometry names
	Names() []string

	// Geometry returns a geometry by name.
	//
	// Parameters:
	//   - name: the geometry name
	//
	// Returns:
	//   - geometry.Geometry: the geometry, nil when absent
	//   - bool: true when the name exists
	Geometry(name string) (geometry.Geometry, bool)

	// Graph returns the scene's transform graph.
	//
	// Returns:
	//   - scenegraph.Graph: the graph
	Graph() scenegraph.Graph

	// Add registers a geometry under a name and connects it to the base frame
	// with an identity transform.
	//
	// Parameters:
	//   - name: the geometry name, must be unused
	//   - geom: the geometry to add
	//
	// Returns:
	//   - error: error if the name is already taken
	Add(name string, geom geometry.Geometry) error

	// AddGeometry registers a geometry under a name without touching the
	// transform graph. Placement edges referencing the name are added to the
	// graph separately.
	//
	// Parameters:
	//   - name: the geometry name, must be unused
	//   - geom: the geometry to add
	//
	// Returns:
	//   - error: error if the name is already taken
	AddGeometry(name string, geom geometry.Geometry) error

	// AddAt registers a geometry under a name and connects it to a parent
	// frame with the given row-major transform. The child frame takes the
	// geometry's name.
	//
	// Parameters:
	//   - name: the geometry name, must be unused
	//   - geom: the geometry to add
	//   - parentFrame: the frame to attach under
	//   - transform: the parent→child row-major transform
	//
	// Returns:
	//   - error: error if the name is taken or the parent frame is unknown
	AddAt(name string, geom geometry.Geometry, parentFrame string, transform [4][4]float64) error
}

var _ Scene = &sceneImpl{}

// NewScene creates an empty Scene with a "world" base frame.
//
// Returns:
//   - Scene: the new scene
func NewScene() Scene {
	return NewSceneWithBase("world")
}

// NewSceneWithBase creates an empty Scene rooted at the given base frame.
//
// Parameters:
//   - baseFrame: the root frame name
//
// Returns:
//   - Scene: the new scene
func NewSceneWithBase(baseFrame string) Scene {
	return &sceneImpl{
		geometry:  map[string]geometry.Geometry{},
		graph:     scenegraph.NewGraph(baseFrame),
		baseFrame: baseFrame,
	}
}

func (s *sceneImpl) BaseFrame() string {
	return s.baseFrame
}

func (s *sceneImpl) Names() []string {
	result := make([]string, len(s.names))
	copy(result, s.names)
	return result
}

func (s *sceneImpl) Geometry(name string) (geometry.Geometry, bool) {
	g, ok := s.geometry[name]
	return g, ok
}

func (s *sceneImpl) Graph() scenegraph.Graph {
	return s.graph
}

func (s *sceneImpl) AddGeometry(name string, geom geometry.Geometry) error {
	if _, taken := s.geometry[name]; taken {
		return fmt.Errorf("scene: geometry %q already exists", name)
	}
	s.geometry[name] = geom
	s.names = append(s.names, name)
	return nil
}

func (s *sceneImpl) Add(name string, geom geometry.Geometry) error {
	return s.AddAt(name, geom, s.baseFrame, scenegraph.Identity())
}

func (s *sceneImpl) AddAt(name string, geom geometry.Geometry, parentFrame string, transform [4][4]float64) error {
	if _, taken := s.geometry[name]; taken {
		return fmt.Errorf("scene: geometry %q already exists", name)
	}
	if !s.graph.HasFrame(parentFrame) {
		return fmt.Errorf("scene: unknown parent frame %q", parentFrame)
	}
	if err := s.graph.Update(scenegraph.Edge{
		FrameFrom: parentFrame,
		FrameTo:   name,
		Matrix:    transform,
		Geometry:  name,
	}); err != nil {
		return err
	}
	s.geometry[name] = geom
	s.names = append(s.names, name)
	return nil
}
