package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Parse decodes a JSON or YAML topology document. Nodes without an id get
// their index in the node list as id.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	for i := range doc.Nodes {
		if doc.Nodes[i].ID == "" {
			doc.Nodes[i].ID = IndexID(i)
		}
	}
	if doc.Nodes == nil {
		doc.Nodes = []NodeSpec{}
	}
	if doc.Links == nil {
		doc.Links = []LinkSpec{}
	}
	return &doc, nil
}

// Load reads and decodes a topology document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Parse(data)
}

// Encode encodes the document as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ToYAML encodes the document as YAML.
func (d *Document) ToYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Nodes: make([]NodeSpec, len(d.Nodes)),
		Links: append([]LinkSpec(nil), d.Links...),
	}
	for i, n := range d.Nodes {
		n.Addrs = append([]string(nil), n.Addrs...)
		out.Nodes[i] = n
	}
	return out
}
