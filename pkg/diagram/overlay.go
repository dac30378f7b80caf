package diagram

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
)

// Tooltip offset from the pointer position.
const (
	TooltipOffsetX = 10.0
	TooltipOffsetY = -20.0
)

// Tooltip is the floating hover label.
type Tooltip struct {
	Visible bool
	NodeID  string
	Name    string
	Addr    string
	X, Y    float64
}

// Detail is the content of the detail panel.
type Detail struct {
	Visible bool
	ID      string
	Name    string
	Type    string
	Addrs   string
}

// Overlay holds tooltip and detail panel state. It reads node data and
// never writes it.
type Overlay struct {
	tooltip Tooltip
	detail  Detail
}

// Enter shows the tooltip for n at the given page position.
func (o *Overlay) Enter(n *graph.Node, pageX, pageY float64) {
	o.tooltip = Tooltip{
		Visible: true,
		NodeID:  n.ID,
		Name:    n.DisplayName(),
		Addr:    n.PrimaryAddr(),
	}
	o.Move(pageX, pageY)
}

// Move repositions the tooltip next to the pointer.
func (o *Overlay) Move(pageX, pageY float64) {
	o.tooltip.X = pageX + TooltipOffsetX
	o.tooltip.Y = pageY + TooltipOffsetY
}

// Leave hides the tooltip.
func (o *Overlay) Leave() {
	o.tooltip.Visible = false
}

// Click replaces the detail panel with the details of n.
func (o *Overlay) Click(n *graph.Node) {
	o.detail = Detail{
		Visible: true,
		ID:      n.ID,
		Name:    n.DisplayName(),
		Type:    string(n.Type),
		Addrs:   strings.Join(n.Addrs, ", "),
	}
}

// Tooltip returns the current tooltip state.
func (o *Overlay) Tooltip() Tooltip { return o.tooltip }

// Detail returns the current detail panel state.
func (o *Overlay) Detail() Detail { return o.detail }

var overlayTemplates = template.Must(template.New("tooltip").Parse(
	`<div class="tooltip" style="left: {{printf "%.0f" .X}}px; top: {{printf "%.0f" .Y}}px; opacity: 0.9">name: {{.Name}}<br/>addr: {{.Addr}}</div>`,
))

func init() {
	template.Must(overlayTemplates.New("detail").Parse(
		`<div class="detail"><p>id: {{.ID}}</p><p>name: {{.Name}}</p><p>type: {{.Type}}</p><p>addrs: {{.Addrs}}</p></div>`,
	))
}

// TooltipHTML renders the tooltip as an escaped HTML fragment, or "" when
// hidden.
func (o *Overlay) TooltipHTML() (template.HTML, error) {
	if !o.tooltip.Visible {
		return "", nil
	}
	return execute("tooltip", o.tooltip)
}

// DetailHTML renders the detail panel as an escaped HTML fragment, or ""
// before the first click.
func (o *Overlay) DetailHTML() (template.HTML, error) {
	if !o.detail.Visible {
		return "", nil
	}
	return execute("detail", o.detail)
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := overlayTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// TooltipText returns the tooltip content as plain text lines.
func (o *Overlay) TooltipText() string {
	if !o.tooltip.Visible {
		return ""
	}
	return fmt.Sprintf("name: %s\naddr: %s", o.tooltip.Name, o.tooltip.Addr)
}

// DetailText returns the detail panel content as plain text lines.
func (o *Overlay) DetailText() string {
	if !o.detail.Visible {
		return ""
	}
	return fmt.Sprintf("id: %s\nname: %s\ntype: %s\naddrs: %s",
		o.detail.ID, o.detail.Name, o.detail.Type, o.detail.Addrs)
}
