// Package render turns settled diagrams into standalone HTML pages and SVG
// snapshots.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/diagram"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/physics"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageNode is a node as the page script sees it.
type PageNode struct {
	ID    string   `json:"id"`
	Type  string   `json:"type"`
	Name  string   `json:"name"`
	Label string   `json:"label"`
	Addrs []string `json:"addrs"`
	Class string   `json:"class"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
}

// PageLink is a link as the page script sees it.
type PageLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

// PageData is the payload embedded into the HTML page.
type PageData struct {
	Width        float64             `json:"width"`
	Height       float64             `json:"height"`
	Alpha        float64             `json:"alpha"`
	Charge       float64             `json:"charge"`
	LinkDistance float64             `json:"linkDistance"`
	Nodes        []PageNode          `json:"nodes"`
	Links        []PageLink          `json:"links"`
	Highlights   map[string][]string `json:"highlights"`
}

// NewPageData captures the current state of d. Positions come from the
// model, classes from the scene, so a settled diagram renders without the
// page having to lay it out again.
func NewPageData(d *diagram.Diagram) PageData {
	scene := d.Scene()
	model := d.Model()
	sim := d.Simulation()

	data := PageData{
		Width:        scene.Width,
		Height:       scene.Height,
		Alpha:        sim.Alpha(),
		Charge:       diagram.DefaultCharge,
		LinkDistance: diagram.DefaultLinkDistance,
		Nodes:        make([]PageNode, len(model.Nodes)),
		Links:        make([]PageLink, len(model.Links)),
		Highlights:   make(map[string][]string),
	}
	if f, ok := sim.Force("charge").(*physics.ManyBodyForce); ok {
		data.Charge = f.Strength
	}
	if f, ok := sim.Force("link").(*physics.LinkForce); ok {
		data.LinkDistance = f.Distance
	}

	for i, n := range model.Nodes {
		addrs := n.Addrs
		if addrs == nil {
			addrs = []string{}
		}
		data.Nodes[i] = PageNode{
			ID:    n.ID,
			Type:  string(n.Type),
			Name:  n.Name,
			Label: n.Label,
			Addrs: addrs,
			Class: scene.Circles[i].Class,
			X:     n.X,
			Y:     n.Y,
		}
	}
	for i, l := range model.Links {
		data.Links[i] = PageLink{Source: l.Source.ID, Target: l.Target.ID, Value: l.Value}
	}
	for _, s := range d.Highlights().Sets() {
		addrs := s.Addrs
		if addrs == nil {
			addrs = []string{}
		}
		data.Highlights[s.Name] = addrs
	}
	return data
}

// HTMLRenderer renders diagrams as interactive D3 pages.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer creates a new HTML renderer.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/graph.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render renders the diagram as an HTML page titled title.
func (r *HTMLRenderer) Render(title string, d *diagram.Diagram) (string, error) {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, map[string]any{
		"Title": title,
		"Data":  NewPageData(d),
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
