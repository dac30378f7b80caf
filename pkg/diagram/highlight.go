package diagram

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
)

// Well-known highlight set names.
const (
	SetNetworkAddresses = "network_addresses"
	SetPathAddresses    = "node_path_0_addrs"
)

// FoundSuffix is appended to the class of highlighted nodes.
const FoundSuffix = " found"

// HighlightSet is a named, read-only list of addresses.
type HighlightSet struct {
	Name  string
	Addrs []string
}

// Resolver assigns the found class to nodes having an address in any of its
// highlight sets. Results are cached until the nodes or the sets change.
type Resolver struct {
	sets    []HighlightSet
	members map[string]struct{}

	fingerprint uint64
	classes     []string
	valid       bool
	computed    int
}

// NewResolver creates a resolver over the union of sets.
func NewResolver(sets ...HighlightSet) *Resolver {
	r := &Resolver{}
	r.SetHighlights(sets...)
	return r
}

// SetHighlights replaces the highlight sets. Sets with the same name are
// replaced, others are kept independent.
func (r *Resolver) SetHighlights(sets ...HighlightSet) {
	r.sets = nil
	for _, s := range sets {
		r.putSet(HighlightSet{Name: s.Name, Addrs: append([]string(nil), s.Addrs...)})
	}
	r.rebuild()
}

// AddHighlight adds or replaces a single named set.
func (r *Resolver) AddHighlight(name string, addrs []string) {
	r.putSet(HighlightSet{Name: name, Addrs: append([]string(nil), addrs...)})
	r.rebuild()
}

func (r *Resolver) putSet(s HighlightSet) {
	for i := range r.sets {
		if r.sets[i].Name == s.Name {
			r.sets[i] = s
			return
		}
	}
	r.sets = append(r.sets, s)
}

func (r *Resolver) rebuild() {
	r.members = make(map[string]struct{})
	for _, s := range r.sets {
		for _, a := range s.Addrs {
			r.members[a] = struct{}{}
		}
	}
}

// Sets returns a copy of the highlight sets.
func (r *Resolver) Sets() []HighlightSet {
	out := make([]HighlightSet, len(r.sets))
	for i, s := range r.sets {
		out[i] = HighlightSet{Name: s.Name, Addrs: append([]string(nil), s.Addrs...)}
	}
	return out
}

// Found reports whether any address of n is in a highlight set.
func (r *Resolver) Found(n *graph.Node) bool {
	for _, a := range n.Addrs {
		if _, ok := r.members[a]; ok {
			return true
		}
	}
	return false
}

// Class returns the visual class of n.
func (r *Resolver) Class(n *graph.Node) string {
	if r.Found(n) {
		return n.Class + FoundSuffix
	}
	return n.Class
}

// Resolve returns the visual class of every node, in node order. Node data
// is never modified.
func (r *Resolver) Resolve(nodes []*graph.Node) []string {
	fp := r.fingerprintOf(nodes)
	if r.valid && fp == r.fingerprint {
		return append([]string(nil), r.classes...)
	}

	classes := make([]string, len(nodes))
	for i, n := range nodes {
		classes[i] = r.Class(n)
	}
	r.classes = classes
	r.fingerprint = fp
	r.valid = true
	r.computed++
	return append([]string(nil), classes...)
}

// Computations returns how many times Resolve recomputed the classes.
func (r *Resolver) Computations() int {
	return r.computed
}

func (r *Resolver) fingerprintOf(nodes []*graph.Node) uint64 {
	d := xxhash.New()
	for _, n := range nodes {
		_, _ = d.WriteString(n.ID)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(n.Class)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(strings.Join(n.Addrs, "\x01"))
		_, _ = d.WriteString("\x02")
	}
	_, _ = d.WriteString("\x03")
	for _, s := range r.sets {
		_, _ = d.WriteString(s.Name)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(strings.Join(s.Addrs, "\x01"))
		_, _ = d.WriteString("\x02")
	}
	return d.Sum64()
}
