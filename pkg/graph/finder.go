package graph

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"strings"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// ErrInvalidAddr is returned for addresses that are not IP addresses.
var ErrInvalidAddr = errors.New("invalid IP address")

// addrNode is a network or ipset node with parsed addresses.
type addrNode struct {
	idx      int
	prefixes []netip.Prefix // network nodes
	ips      []netip.Addr   // ipset nodes
}

// Finder answers address and path queries over a topology document.
type Finder struct {
	doc   *Document
	nets  []addrNode
	g     *simple.UndirectedGraph
	index map[ID]int
}

// NewFinder indexes doc for queries. Network node addresses must be
// prefixes (a bare address is taken as a host prefix) and ipset node
// addresses must be IP addresses.
func NewFinder(doc *Document) (*Finder, error) {
	f := &Finder{
		doc:   doc,
		g:     simple.NewUndirectedGraph(),
		index: make(map[ID]int, len(doc.Nodes)),
	}

	for i, n := range doc.Nodes {
		if _, dup := f.index[n.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		f.index[n.ID] = i
		f.g.AddNode(simple.Node(i))

		switch n.Type {
		case NodeTypeNetwork:
			an := addrNode{idx: i}
			for _, a := range n.Addrs {
				p, err := parsePrefix(a)
				if err != nil {
					return nil, fmt.Errorf("node %q: %w", n.ID, err)
				}
				an.prefixes = append(an.prefixes, p)
			}
			f.nets = append(f.nets, an)
		case NodeTypeIPSet:
			an := addrNode{idx: i}
			for _, a := range n.Addrs {
				ip, err := parseInterfaceAddr(a)
				if err != nil {
					return nil, fmt.Errorf("node %q: %w", n.ID, err)
				}
				an.ips = append(an.ips, ip)
			}
			f.nets = append(f.nets, an)
		}
	}

	for i, l := range doc.Links {
		s, ok := f.index[l.Source]
		if !ok {
			return nil, &ReferenceError{Link: i, Endpoint: "source", ID: string(l.Source)}
		}
		t, ok := f.index[l.Target]
		if !ok {
			return nil, &ReferenceError{Link: i, Endpoint: "target", ID: string(l.Target)}
		}
		if s == t {
			continue
		}
		f.g.SetEdge(f.g.NewEdge(simple.Node(s), simple.Node(t)))
	}

	return f, nil
}

func parsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w: %q", ErrInvalidAddr, s)
		}
		return p.Masked(), nil
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %q", ErrInvalidAddr, s)
	}
	return netip.PrefixFrom(a, a.BitLen()), nil
}

// parseInterfaceAddr accepts "10.0.0.1" or "10.0.0.1/24" and returns the
// address part.
func parseInterfaceAddr(s string) (netip.Addr, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddr, s)
		}
		return p.Addr(), nil
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddr, s)
	}
	return a, nil
}

func (an addrNode) contains(ip netip.Addr) bool {
	for _, p := range an.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	for _, a := range an.ips {
		if a == ip {
			return true
		}
	}
	return false
}

// moreSpecific orders ipset nodes before network nodes, ipsets with fewer
// addresses first, and networks with narrower first prefixes first.
func moreSpecific(a, b addrNode) bool {
	aSet, bSet := len(a.prefixes) == 0, len(b.prefixes) == 0
	if aSet != bSet {
		return aSet
	}
	if aSet {
		return len(a.ips) < len(b.ips)
	}
	pa, pb := a.prefixes[0], b.prefixes[0]
	if pa.Bits() != pb.Bits() {
		return pa.Bits() > pb.Bits()
	}
	return pa.Addr().Compare(pb.Addr()) > 0
}

func (f *Finder) matching(addr string) ([]addrNode, error) {
	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddr, addr)
	}
	var found []addrNode
	for _, an := range f.nets {
		if an.contains(ip) {
			found = append(found, an)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return moreSpecific(found[i], found[j]) })
	return found, nil
}

// NetworksByAddr returns the network and ipset nodes containing addr, most
// specific first.
func (f *Finder) NetworksByAddr(addr string) ([]NodeSpec, error) {
	found, err := f.matching(addr)
	if err != nil {
		return nil, err
	}
	out := make([]NodeSpec, 0, len(found))
	for _, an := range found {
		out = append(out, f.doc.Nodes[an.idx])
	}
	return out, nil
}

// NetworkByAddr returns the most specific network or ipset node containing
// addr.
func (f *Finder) NetworkByAddr(addr string) (NodeSpec, bool, error) {
	found, err := f.matching(addr)
	if err != nil || len(found) == 0 {
		return NodeSpec{}, false, err
	}
	return f.doc.Nodes[found[0].idx], true, nil
}

// Paths returns the unique shortest paths between the most specific
// networks containing src and dst. When nodeType is set (and is not "any"),
// only nodes of that type are kept between the two end networks.
func (f *Finder) Paths(src, dst string, nodeType NodeType) ([][]NodeSpec, error) {
	srcNets, err := f.matching(src)
	if err != nil {
		return nil, err
	}
	dstNets, err := f.matching(dst)
	if err != nil {
		return nil, err
	}
	if len(srcNets) == 0 || len(dstNets) == 0 {
		return [][]NodeSpec{}, nil
	}

	srcIdx, dstIdx := srcNets[0].idx, dstNets[0].idx
	filter := nodeType != "" && nodeType != NodeTypeAny

	if srcIdx == dstIdx {
		n := f.doc.Nodes[srcIdx]
		if filter && n.Type != nodeType {
			return [][]NodeSpec{}, nil
		}
		return [][]NodeSpec{{n}}, nil
	}

	nodePaths, _ := path.DijkstraAllFrom(simple.Node(srcIdx), f.g).AllTo(int64(dstIdx))

	seen := make(map[string]bool)
	result := make([][]NodeSpec, 0, len(nodePaths))
	for _, np := range nodePaths {
		p := f.specs(np, srcIdx, dstIdx, filter, nodeType)
		key := pathKey(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, p)
	}
	sort.SliceStable(result, func(i, j int) bool { return pathKey(result[i]) < pathKey(result[j]) })
	return result, nil
}

func (f *Finder) specs(np []gonumgraph.Node, srcIdx, dstIdx int, filter bool, nodeType NodeType) []NodeSpec {
	out := make([]NodeSpec, 0, len(np))
	for _, gn := range np {
		idx := int(gn.ID())
		n := f.doc.Nodes[idx]
		if filter && idx != srcIdx && idx != dstIdx && n.Type != nodeType {
			continue
		}
		out = append(out, n)
	}
	return out
}

func pathKey(p []NodeSpec) string {
	ids := make([]string, len(p))
	for i, n := range p {
		ids[i] = string(n.ID)
	}
	return strings.Join(ids, "\x00")
}

// PathAddrs returns the addresses of every node on p, in path order.
func PathAddrs(p []NodeSpec) []string {
	var addrs []string
	for _, n := range p {
		addrs = append(addrs, n.Addrs...)
	}
	return addrs
}

// NodeAddrs returns the addresses of every node in nodes.
func NodeAddrs(nodes []NodeSpec) []string {
	return PathAddrs(nodes)
}
