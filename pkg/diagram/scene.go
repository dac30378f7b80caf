package diagram

import (
	"math"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
)

// Node radii by type.
const (
	RadiusNetwork = 16.0
	RadiusDevice  = 10.0
	RadiusDefault = 7.0
)

// Radius returns the circle radius used for nodes of type t.
func Radius(t graph.NodeType) float64 {
	switch t {
	case graph.NodeTypeNetwork:
		return RadiusNetwork
	case graph.NodeTypeFirewall, graph.NodeTypeRouter, graph.NodeTypeSwitch:
		return RadiusDevice
	default:
		return RadiusDefault
	}
}

// StrokeWidth returns the line width for a link of the given value.
func StrokeWidth(value float64) float64 {
	return math.Sqrt(value)
}

// Circle is the rendered form of a node.
type Circle struct {
	ID    string
	Class string
	Label string
	R     float64
	CX    float64
	CY    float64
}

// Line is the rendered form of a link.
type Line struct {
	Source      string
	Target      string
	StrokeWidth float64
	X1, Y1      float64
	X2, Y2      float64
}

// Scene holds the visual attributes written on every tick.
type Scene struct {
	Width   float64
	Height  float64
	Circles []Circle
	Lines   []Line
}

func newScene(m *graph.Model, classes []string, width, height float64) *Scene {
	s := &Scene{
		Width:   width,
		Height:  height,
		Circles: make([]Circle, len(m.Nodes)),
		Lines:   make([]Line, len(m.Links)),
	}
	for i, n := range m.Nodes {
		s.Circles[i] = Circle{ID: n.ID, Class: classes[i], Label: n.Label, R: Radius(n.Type)}
	}
	for i, l := range m.Links {
		s.Lines[i] = Line{Source: l.Source.ID, Target: l.Target.ID, StrokeWidth: StrokeWidth(l.Value)}
	}
	s.Bind(m)
	return s
}

// Bind copies the current node positions into the scene. It only writes
// positions, so calling it repeatedly without a tick in between is a no-op.
func (s *Scene) Bind(m *graph.Model) {
	for i, l := range m.Links {
		line := &s.Lines[i]
		line.X1, line.Y1 = l.Source.X, l.Source.Y
		line.X2, line.Y2 = l.Target.X, l.Target.Y
	}
	for i, n := range m.Nodes {
		c := &s.Circles[i]
		c.CX, c.CY = n.X, n.Y
	}
}

func (s *Scene) setClasses(classes []string) {
	for i := range s.Circles {
		s.Circles[i].Class = classes[i]
	}
}

// Circle returns the circle of the node with the given id.
func (s *Scene) Circle(id string) (Circle, bool) {
	for _, c := range s.Circles {
		if c.ID == id {
			return c, true
		}
	}
	return Circle{}, false
}

// Bounds returns the bounding box of all circles including their radii.
func (s *Scene) Bounds() (minX, minY, maxX, maxY float64) {
	if len(s.Circles) == 0 {
		return 0, 0, s.Width, s.Height
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range s.Circles {
		minX = math.Min(minX, c.CX-c.R)
		minY = math.Min(minY, c.CY-c.R)
		maxX = math.Max(maxX, c.CX+c.R)
		maxY = math.Max(maxY, c.CY+c.R)
	}
	return minX, minY, maxX, maxY
}
