// Package graph provides the topology document, its validation, and the
// mutable node-link model that diagrams simulate.
package graph

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/physics"
)

// NodeType represents the type of a topology node.
type NodeType string

const (
	NodeTypeAny      NodeType = "any"
	NodeTypeNetwork  NodeType = "network"
	NodeTypeIPSet    NodeType = "ipset"
	NodeTypeHost     NodeType = "host"
	NodeTypeRouter   NodeType = "router"
	NodeTypeSwitch   NodeType = "switch"
	NodeTypeFirewall NodeType = "firewall"
)

// ID is a node identifier. Documents may carry ids as JSON strings or
// numbers; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a string or a number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// NodeSpec is a node as it appears in an input document.
type NodeSpec struct {
	ID    ID       `json:"id" validate:"required"`
	Type  NodeType `json:"type,omitempty"`
	Name  string   `json:"name,omitempty"`
	Label string   `json:"label,omitempty"`
	Addrs []string `json:"addrs,omitempty"`
	Class string   `json:"class,omitempty"`
}

// LinkSpec is a link as it appears in an input document; endpoints are ids.
type LinkSpec struct {
	Source ID      `json:"source" validate:"required"`
	Target ID      `json:"target" validate:"required"`
	Value  float64 `json:"value,omitempty" validate:"gte=0"`
}

// Document is a node-link topology document.
type Document struct {
	Nodes []NodeSpec `json:"nodes" validate:"dive"`
	Links []LinkSpec `json:"links" validate:"dive"`
}

// Node is a simulated topology node. The embedded Body carries the
// simulation-owned position, velocity and pin override.
type Node struct {
	physics.Body

	ID    string
	Type  NodeType
	Name  string
	Label string
	Addrs []string
	Class string
}

// DisplayName returns the node name, falling back to its label and id.
func (n *Node) DisplayName() string {
	switch {
	case n.Name != "":
		return n.Name
	case n.Label != "":
		return n.Label
	default:
		return n.ID
	}
}

// PrimaryAddr returns the first address of the node, or "".
func (n *Node) PrimaryAddr() string {
	if len(n.Addrs) == 0 {
		return ""
	}
	return n.Addrs[0]
}

// Link is a simulated link with endpoints resolved to node references.
type Link struct {
	Index  int
	Source *Node
	Target *Node
	Value  float64
}

// Model is the node-link state a diagram simulates.
type Model struct {
	Nodes []*Node
	Links []*Link

	index map[string]*Node
}

// Node returns the node with the given id.
func (m *Model) Node(id string) (*Node, bool) {
	n, ok := m.index[id]
	return n, ok
}

// Bodies returns the physics bodies of all nodes, in node order.
func (m *Model) Bodies() []*physics.Body {
	bodies := make([]*physics.Body, len(m.Nodes))
	for i, n := range m.Nodes {
		bodies[i] = &n.Body
	}
	return bodies
}

// Springs returns the physics springs of all links, in link order.
func (m *Model) Springs() []physics.Spring {
	springs := make([]physics.Spring, len(m.Links))
	for i, l := range m.Links {
		springs[i] = physics.Spring{Source: &l.Source.Body, Target: &l.Target.Body}
	}
	return springs
}

// DefaultClass returns the class given to nodes without one.
func DefaultClass(t NodeType) string {
	return "node " + string(t)
}

// DefaultLabel returns the label given to nodes without one.
func DefaultLabel(name string, t NodeType) string {
	return name + " (" + string(t) + ")"
}

// WithDefaults fills an empty class with DefaultClass and an empty label
// with DefaultLabel, naming the node by its id when it has no name.
func WithDefaults(spec NodeSpec) NodeSpec {
	if spec.Class == "" && spec.Type != "" {
		spec.Class = DefaultClass(spec.Type)
	}
	if spec.Label == "" {
		name := spec.Name
		if name == "" {
			name = string(spec.ID)
		}
		if spec.Type != "" {
			spec.Label = DefaultLabel(name, spec.Type)
		} else {
			spec.Label = name
		}
	}
	return spec
}

// Export returns a copy of the document with node defaults applied, the
// node-link form served to clients.
func (d *Document) Export() *Document {
	out := d.Clone()
	for i, n := range out.Nodes {
		out.Nodes[i] = WithDefaults(n)
	}
	return out
}

// IndexID returns the id assigned to the i-th node when it has none.
func IndexID(i int) ID {
	return ID(strconv.Itoa(i))
}
