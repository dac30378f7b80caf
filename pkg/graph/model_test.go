package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClass(t *testing.T) {
	tests := map[string]struct {
		nodeType NodeType
		expected string
	}{
		"network":  {nodeType: NodeTypeNetwork, expected: "node network"},
		"firewall": {nodeType: NodeTypeFirewall, expected: "node firewall"},
		"host":     {nodeType: NodeTypeHost, expected: "node host"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := DefaultClass(tt.nodeType); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDefaultLabel(t *testing.T) {
	if got := DefaultLabel("fw1", NodeTypeFirewall); got != "fw1 (firewall)" {
		t.Errorf("expected %q, got %q", "fw1 (firewall)", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]struct {
		node     Node
		expected string
	}{
		"name":     {node: Node{ID: "1", Name: "lan", Label: "LAN"}, expected: "lan"},
		"label":    {node: Node{ID: "1", Label: "LAN"}, expected: "LAN"},
		"fallback": {node: Node{ID: "1"}, expected: "1"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.node.DisplayName(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestPrimaryAddr(t *testing.T) {
	assert.Equal(t, "", (&Node{}).PrimaryAddr())
	assert.Equal(t, "10.0.0.1", (&Node{Addrs: []string{"10.0.0.1", "10.0.0.2"}}).PrimaryAddr())
}

func TestParse(t *testing.T) {
	tests := map[string]struct {
		input     string
		wantNodes []NodeSpec
		wantLinks []LinkSpec
	}{
		"json with string ids": {
			input: `{"nodes":[{"id":"A","type":"network","addrs":["10.0.0.0/24"]},{"id":"B"}],
				"links":[{"source":"A","target":"B","value":2}]}`,
			wantNodes: []NodeSpec{
				{ID: "A", Type: NodeTypeNetwork, Addrs: []string{"10.0.0.0/24"}},
				{ID: "B"},
			},
			wantLinks: []LinkSpec{{Source: "A", Target: "B", Value: 2}},
		},
		"json with numeric ids": {
			input:     `{"nodes":[{"id":0},{"id":1}],"links":[{"source":0,"target":1}]}`,
			wantNodes: []NodeSpec{{ID: "0"}, {ID: "1"}},
			wantLinks: []LinkSpec{{Source: "0", Target: "1"}},
		},
		"yaml": {
			input: "nodes:\n  - id: fw\n    type: firewall\n    name: edge\nlinks: []\n",
			wantNodes: []NodeSpec{
				{ID: "fw", Type: NodeTypeFirewall, Name: "edge"},
			},
			wantLinks: []LinkSpec{},
		},
		"missing ids use index": {
			input:     `{"nodes":[{"name":"a"},{"name":"b"}]}`,
			wantNodes: []NodeSpec{{ID: "0", Name: "a"}, {ID: "1", Name: "b"}},
			wantLinks: []LinkSpec{},
		},
		"empty": {
			input:     `{}`,
			wantNodes: []NodeSpec{},
			wantLinks: []LinkSpec{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantNodes, doc.Nodes)
			assert.Equal(t, tt.wantLinks, doc.Links)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`{"nodes": [`))
	assert.Error(t, err)
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := &Document{
		Nodes: []NodeSpec{{ID: "A", Type: NodeTypeRouter, Addrs: []string{"10.0.0.1"}}},
		Links: []LinkSpec{},
	}

	data, err := doc.Encode()
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, doc, back)

	y, err := doc.ToYAML()
	require.NoError(t, err)
	back, err = Parse(y)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestClone(t *testing.T) {
	doc := &Document{
		Nodes: []NodeSpec{{ID: "A", Addrs: []string{"10.0.0.1"}}},
		Links: []LinkSpec{{Source: "A", Target: "A"}},
	}
	c := doc.Clone()
	c.Nodes[0].Addrs[0] = "changed"
	c.Links[0].Value = 5

	assert.Equal(t, "10.0.0.1", doc.Nodes[0].Addrs[0])
	assert.Equal(t, 0.0, doc.Links[0].Value)
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		doc     *Document
		wantErr bool
	}{
		"nil":             {doc: nil, wantErr: true},
		"empty":           {doc: &Document{}, wantErr: false},
		"missing node id": {doc: &Document{Nodes: []NodeSpec{{Name: "x"}}}, wantErr: true},
		"missing target": {
			doc:     &Document{Nodes: []NodeSpec{{ID: "A"}}, Links: []LinkSpec{{Source: "A"}}},
			wantErr: true,
		},
		"negative value": {
			doc:     &Document{Nodes: []NodeSpec{{ID: "A"}}, Links: []LinkSpec{{Source: "A", Target: "A", Value: -1}}},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := Validate(tt.doc)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDocument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	tests := map[string]struct {
		spec        NodeSpec
		expectClass string
		expectLabel string
	}{
		"typed and named": {
			spec:        NodeSpec{ID: "n1", Type: NodeTypeNetwork, Name: "lan"},
			expectClass: "node network", expectLabel: "lan (network)",
		},
		"id as name": {
			spec:        NodeSpec{ID: "fw1", Type: NodeTypeFirewall},
			expectClass: "node firewall", expectLabel: "fw1 (firewall)",
		},
		"explicit fields kept": {
			spec:        NodeSpec{ID: "h", Type: NodeTypeHost, Class: "c1", Label: "web"},
			expectClass: "c1", expectLabel: "web",
		},
		"untyped": {
			spec:        NodeSpec{ID: "x", Name: "x"},
			expectClass: "", expectLabel: "x",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := WithDefaults(tt.spec)
			assert.Equal(t, tt.expectClass, got.Class)
			assert.Equal(t, tt.expectLabel, got.Label)
		})
	}
}

func TestExport(t *testing.T) {
	doc := &Document{
		Nodes: []NodeSpec{{ID: "n1", Type: NodeTypeNetwork, Name: "lan", Addrs: []string{"10.0.0.0/24"}}},
		Links: []LinkSpec{},
	}

	out := doc.Export()
	assert.Equal(t, "node network", out.Nodes[0].Class)
	assert.Equal(t, "lan (network)", out.Nodes[0].Label)
	assert.Empty(t, doc.Nodes[0].Class)
	assert.Empty(t, doc.Nodes[0].Label)
}
