package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrDanglingLink is wrapped by ReferenceError.
	ErrDanglingLink = errors.New("link references unknown node")
	// ErrDuplicateNode is returned when two nodes share an id.
	ErrDuplicateNode = errors.New("duplicate node id")
)

// ReferenceError reports a link endpoint that names no node in the document.
type ReferenceError struct {
	Link     int    // index of the link in the document
	Endpoint string // "source" or "target"
	ID       string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("links[%d].%s %q: %v", e.Link, e.Endpoint, e.ID, ErrDanglingLink)
}

// Unwrap returns ErrDanglingLink.
func (e *ReferenceError) Unwrap() error {
	return ErrDanglingLink
}

// Builder constructs simulation models from topology documents.
type Builder struct {
	defaults bool
}

// NewBuilder creates a new model builder that fills in default classes and
// labels.
func NewBuilder() *Builder {
	return &Builder{defaults: true}
}

// WithoutDefaults disables default class and label assignment.
func (b *Builder) WithoutDefaults() *Builder {
	b.defaults = false
	return b
}

// Build validates doc and converts it into a Model. Every node receives its
// own copy of the document fields, so the document is never shared with or
// mutated by the simulation. Build fails if any link references an id that
// is not in doc.Nodes; no partial model is returned.
func (b *Builder) Build(doc *Document) (*Model, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	model := &Model{
		Nodes: make([]*Node, 0, len(doc.Nodes)),
		Links: make([]*Link, 0, len(doc.Links)),
		index: make(map[string]*Node, len(doc.Nodes)),
	}

	for _, spec := range doc.Nodes {
		id := string(spec.ID)
		if _, dup := model.index[id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, id)
		}
		n := b.newNode(spec)
		model.index[id] = n
		model.Nodes = append(model.Nodes, n)
	}

	for i, spec := range doc.Links {
		source, ok := model.index[string(spec.Source)]
		if !ok {
			return nil, &ReferenceError{Link: i, Endpoint: "source", ID: string(spec.Source)}
		}
		target, ok := model.index[string(spec.Target)]
		if !ok {
			return nil, &ReferenceError{Link: i, Endpoint: "target", ID: string(spec.Target)}
		}
		value := spec.Value
		if value == 0 {
			value = 1
		}
		model.Links = append(model.Links, &Link{Index: i, Source: source, Target: target, Value: value})
	}

	return model, nil
}

func (b *Builder) newNode(spec NodeSpec) *Node {
	if b.defaults {
		spec = WithDefaults(spec)
	}
	n := &Node{
		ID:    string(spec.ID),
		Type:  spec.Type,
		Name:  spec.Name,
		Label: spec.Label,
		Class: spec.Class,
	}
	if spec.Addrs != nil {
		n.Addrs = append([]string(nil), spec.Addrs...)
	}
	return n
}
