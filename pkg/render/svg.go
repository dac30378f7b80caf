package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/diagram"
)

// SVGRenderer renders the current scene of a diagram as a static SVG image.
type SVGRenderer struct {
	tmpl *template.Template
}

// NewSVGRenderer creates a new SVG renderer.
func NewSVGRenderer() (*SVGRenderer, error) {
	tmpl, err := template.New("snapshot.svg.tmpl").
		Funcs(template.FuncMap{"num": formatNum}).
		ParseFS(templateFS, "templates/snapshot.svg.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &SVGRenderer{tmpl: tmpl}, nil
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Render renders the scene of d. Settle the diagram first for a laid out
// image.
func (r *SVGRenderer) Render(d *diagram.Diagram) (string, error) {
	scene := d.Scene()
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, map[string]any{
		"Width":   formatNum(scene.Width),
		"Height":  formatNum(scene.Height),
		"ViewBox": fmt.Sprintf("0 0 %s %s", formatNum(scene.Width), formatNum(scene.Height)),
		"Circles": scene.Circles,
		"Lines":   scene.Lines,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
