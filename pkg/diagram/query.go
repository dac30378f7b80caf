package diagram

import (
	"errors"
	"fmt"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/config"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
)

// ErrIncompleteQuery is returned when only one end of a path is given.
var ErrIncompleteQuery = errors.New("src and dst must be given together")

// Query selects what a rendered diagram highlights.
type Query struct {
	// Addr highlights the networks containing the address.
	Addr string
	// Src and Dst highlight the first path between their networks.
	Src, Dst string
	// NodeType filters path nodes; empty or "any" keeps all.
	NodeType graph.NodeType
}

// Empty reports whether the query highlights nothing.
func (q Query) Empty() bool {
	return q.Addr == "" && q.Src == "" && q.Dst == ""
}

// Highlights resolves the query against doc into highlight sets.
func (q Query) Highlights(doc *graph.Document) ([]HighlightSet, error) {
	if q.Empty() {
		return nil, nil
	}
	if (q.Src == "") != (q.Dst == "") {
		return nil, ErrIncompleteQuery
	}

	f, err := graph.NewFinder(doc)
	if err != nil {
		return nil, err
	}

	var sets []HighlightSet
	if q.Addr != "" {
		nets, err := f.NetworksByAddr(q.Addr)
		if err != nil {
			return nil, err
		}
		sets = append(sets, HighlightSet{Name: SetNetworkAddresses, Addrs: graph.NodeAddrs(nets)})
	}
	if q.Src != "" {
		paths, err := f.Paths(q.Src, q.Dst, q.NodeType)
		if err != nil {
			return nil, err
		}
		var addrs []string
		if len(paths) > 0 {
			addrs = graph.PathAddrs(paths[0])
		}
		sets = append(sets, HighlightSet{Name: SetPathAddresses, Addrs: addrs})
	}
	return sets, nil
}

// ConfigOptions returns the options matching the simulation settings. A
// zero seed keeps the simulation's fixed default seed, so the same
// document always settles into the same layout.
func ConfigOptions(c config.SimulationConfig) []Option {
	opts := []Option{
		WithSize(c.Width, c.Height),
		WithCharge(c.Charge),
		WithLinkDistance(c.LinkDistance),
	}
	if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}
	return opts
}

// Render builds a diagram of doc highlighting q, settles it within
// maxTicks steps and returns it stopped. The caller closes it.
func Render(doc *graph.Document, q Query, maxTicks int, opts ...Option) (*Diagram, error) {
	sets, err := q.Highlights(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve highlights: %w", err)
	}
	for _, s := range sets {
		opts = append(opts, WithHighlights(s.Name, s.Addrs))
	}
	opts = append(opts, WithoutAutostart())

	d, err := Build(doc, opts...)
	if err != nil {
		return nil, err
	}
	n, _ := d.Settle(maxTicks)
	d.logger.Debug("Diagram settled", "ticks", n, "alpha", d.sim.Alpha())
	return d, nil
}
