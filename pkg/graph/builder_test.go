package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeNodeDoc() *Document {
	return &Document{
		Nodes: []NodeSpec{
			{ID: "A", Type: NodeTypeNetwork, Name: "lan", Addrs: []string{"10.0.0.0/24"}},
			{ID: "B", Type: NodeTypeFirewall, Name: "fw", Addrs: []string{"10.0.0.1"}},
			{ID: "C", Type: NodeTypeHost, Name: "srv", Addrs: []string{"10.0.0.5"}},
		},
		Links: []LinkSpec{
			{Source: "A", Target: "B", Value: 1},
			{Source: "B", Target: "C", Value: 4},
		},
	}
}

func TestBuildResolvesLinks(t *testing.T) {
	model, err := NewBuilder().Build(threeNodeDoc())
	require.NoError(t, err)

	require.Len(t, model.Nodes, 3)
	require.Len(t, model.Links, 2)

	a, _ := model.Node("A")
	b, _ := model.Node("B")
	c, _ := model.Node("C")

	assert.Same(t, a, model.Links[0].Source)
	assert.Same(t, b, model.Links[0].Target)
	assert.Same(t, b, model.Links[1].Source)
	assert.Same(t, c, model.Links[1].Target)
	assert.Equal(t, 4.0, model.Links[1].Value)
}

func TestBuildDanglingLink(t *testing.T) {
	doc := &Document{
		Nodes: []NodeSpec{{ID: "A"}, {ID: "B"}},
		Links: []LinkSpec{{Source: "A", Target: "Z"}},
	}

	model, err := NewBuilder().Build(doc)
	assert.Nil(t, model)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDanglingLink))

	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, 0, refErr.Link)
	assert.Equal(t, "target", refErr.Endpoint)
	assert.Equal(t, "Z", refErr.ID)
}

func TestBuildErrors(t *testing.T) {
	tests := map[string]struct {
		doc     *Document
		wantErr error
	}{
		"dangling source": {
			doc:     &Document{Nodes: []NodeSpec{{ID: "A"}}, Links: []LinkSpec{{Source: "X", Target: "A"}}},
			wantErr: ErrDanglingLink,
		},
		"duplicate node": {
			doc:     &Document{Nodes: []NodeSpec{{ID: "A"}, {ID: "A"}}},
			wantErr: ErrDuplicateNode,
		},
		"invalid": {
			doc:     &Document{Nodes: []NodeSpec{{}}},
			wantErr: ErrInvalidDocument,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewBuilder().Build(tt.doc)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildDefaults(t *testing.T) {
	doc := &Document{
		Nodes: []NodeSpec{
			{ID: "A", Type: NodeTypeRouter, Name: "core"},
			{ID: "B", Type: NodeTypeHost, Name: "web", Class: "node host special", Label: "Web"},
			{ID: "C"},
		},
		Links: []LinkSpec{{Source: "A", Target: "B"}},
	}

	model, err := NewBuilder().Build(doc)
	require.NoError(t, err)

	assert.Equal(t, "node router", model.Nodes[0].Class)
	assert.Equal(t, "core (router)", model.Nodes[0].Label)
	assert.Equal(t, "node host special", model.Nodes[1].Class)
	assert.Equal(t, "Web", model.Nodes[1].Label)
	assert.Equal(t, "", model.Nodes[2].Class)
	assert.Equal(t, "C", model.Nodes[2].Label)
	assert.Equal(t, 1.0, model.Links[0].Value, "zero value defaults to 1")

	plain, err := NewBuilder().WithoutDefaults().Build(doc)
	require.NoError(t, err)
	assert.Equal(t, "", plain.Nodes[0].Class)
	assert.Equal(t, "", plain.Nodes[0].Label)
}

func TestBuildDoesNotShareInput(t *testing.T) {
	doc := threeNodeDoc()
	before := doc.Clone()

	model, err := NewBuilder().Build(doc)
	require.NoError(t, err)

	model.Nodes[0].Addrs[0] = "192.168.0.0/16"
	model.Nodes[0].Class = "node network found"
	model.Nodes[0].X = 42

	assert.Equal(t, before, doc)
}

func TestModelBodiesAndSprings(t *testing.T) {
	model, err := NewBuilder().Build(threeNodeDoc())
	require.NoError(t, err)

	bodies := model.Bodies()
	require.Len(t, bodies, 3)
	for i, b := range bodies {
		assert.Same(t, &model.Nodes[i].Body, b)
	}

	springs := model.Springs()
	require.Len(t, springs, 2)
	assert.Same(t, &model.Nodes[1].Body, springs[1].Source)
	assert.Same(t, &model.Nodes[2].Body, springs[1].Target)
}

// TestBuildReferenceProperty checks that a build fails exactly when some
// link names an id missing from the node list.
func TestBuildReferenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("build fails iff a link is dangling", prop.ForAll(
		func(nodeCount int, ends []int) bool {
			doc := &Document{}
			for i := 0; i < nodeCount; i++ {
				doc.Nodes = append(doc.Nodes, NodeSpec{ID: ID(fmt.Sprintf("n%d", i))})
			}
			dangling := false
			for i := 0; i+1 < len(ends); i += 2 {
				s, t := ends[i], ends[i+1]
				if s >= nodeCount || t >= nodeCount {
					dangling = true
				}
				doc.Links = append(doc.Links, LinkSpec{
					Source: ID(fmt.Sprintf("n%d", s)),
					Target: ID(fmt.Sprintf("n%d", t)),
				})
			}

			model, err := NewBuilder().Build(doc)
			if dangling {
				return model == nil && errors.Is(err, ErrDanglingLink)
			}
			if err != nil || len(model.Links) != len(doc.Links) {
				return false
			}
			for i, l := range model.Links {
				if ID(l.Source.ID) != doc.Links[i].Source || ID(l.Target.ID) != doc.Links[i].Target {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 8),
		gen.SliceOf(gen.IntRange(0, 10)),
	))

	properties.TestingRun(t)
}
