package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
)

func TestRadius(t *testing.T) {
	tests := map[string]struct {
		nodeType graph.NodeType
		expected float64
	}{
		"network":  {nodeType: graph.NodeTypeNetwork, expected: 16},
		"firewall": {nodeType: graph.NodeTypeFirewall, expected: 10},
		"router":   {nodeType: graph.NodeTypeRouter, expected: 10},
		"switch":   {nodeType: graph.NodeTypeSwitch, expected: 10},
		"host":     {nodeType: graph.NodeTypeHost, expected: 7},
		"ipset":    {nodeType: graph.NodeTypeIPSet, expected: 7},
		"untyped":  {nodeType: "", expected: 7},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Radius(tt.nodeType); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestStrokeWidth(t *testing.T) {
	assert.Equal(t, 2.0, StrokeWidth(4))
	assert.Equal(t, 1.0, StrokeWidth(1))
	assert.Equal(t, 3.0, StrokeWidth(9))
}

func TestSceneBindIsIdempotent(t *testing.T) {
	model, err := graph.NewBuilder().Build(meshDoc())
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range model.Nodes {
		n.X, n.Y = float64(i*10), float64(i*20)
	}
	s := newScene(model, make([]string, len(model.Nodes)), DefaultWidth, DefaultHeight)
	first := *s
	first.Lines = append([]Line(nil), s.Lines...)
	first.Circles = append([]Circle(nil), s.Circles...)

	s.Bind(model)
	s.Bind(model)

	assert.Equal(t, first.Lines, s.Lines)
	assert.Equal(t, first.Circles, s.Circles)
	assert.Equal(t, 10.0, s.Lines[0].X2)
	assert.Equal(t, 20.0, s.Lines[0].Y2)
}

func TestSceneBoundsEmpty(t *testing.T) {
	s := &Scene{Width: 700, Height: 500}
	minX, minY, maxX, maxY := s.Bounds()
	assert.Equal(t, []float64{0, 0, 700, 500}, []float64{minX, minY, maxX, maxY})
}
