// Package tui draws a live diagram in the terminal and maps mouse input to
// diagram pointer events.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/diagram"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/eventloop"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/physics"
)

// Rows reserved below the canvas for the panels and help.
const chromeRows = 8

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)

	nodeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	foundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	dragStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type keyMap struct {
	Restart key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Restart: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reheat layout"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Restart, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Restart}, {k.Help, k.Quit}}
}

type frameMsg time.Time

// Model is the bubbletea model of the terminal viewer. It drives the
// diagram loop with Frame on every tick, so the diagram must not also be
// run with Run.
type Model struct {
	title    string
	diagram  *diagram.Diagram
	canvas   *Canvas
	interval time.Duration
	keys     keyMap
	help     help.Model

	dragging string
	moved    bool
	hovering string
	err      error
}

// New creates a viewer for d. Positions are projected onto an 80x24
// canvas until the first window size message arrives.
func New(title string, d *diagram.Diagram) Model {
	scene := d.Scene()
	m := Model{
		title:    title,
		diagram:  d,
		canvas:   NewCanvas(80, 24-chromeRows, scene.Width, scene.Height),
		interval: physics.DefaultInterval,
		keys:     keys,
		help:     help.New(),
	}
	m.canvas.Draw(d)
	return m
}

// Canvas returns the current canvas.
func (m Model) Canvas() *Canvas { return m.canvas }

// Err returns the last diagram error.
func (m Model) Err() error { return m.err }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if err := m.diagram.Frame(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.canvas.Draw(m.diagram)
		return m, m.tick()

	case tea.WindowSizeMsg:
		scene := m.diagram.Scene()
		m.canvas = NewCanvas(msg.Width, msg.Height-chromeRows, scene.Width, scene.Height)
		m.canvas.Draw(m.diagram)
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Restart):
			m.diagram.Simulation().SetAlpha(1)
			m.dispatchErr(m.diagram.Restart())
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.MouseMsg:
		m.mouse(msg)
	}
	return m, nil
}

func (m *Model) dispatchErr(err error) {
	if err != nil {
		m.err = err
	}
}

func (m *Model) dispatch(ev eventloop.Event) {
	m.dispatchErr(m.diagram.Dispatch(ev))
}

// mouse maps terminal mouse input to diagram events. Cell coordinates are
// the page coordinates; their projection is the diagram position.
func (m *Model) mouse(msg tea.MouseMsg) {
	row := msg.Y - titleRows
	x, y := m.canvas.ToScene(msg.X, row)
	pageX, pageY := float64(msg.X), float64(msg.Y)

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		id, ok := m.canvas.NodeAt(msg.X, row)
		if !ok {
			return
		}
		m.dragging, m.moved = id, false
		m.dispatch(eventloop.Event{Kind: eventloop.DragStart, Target: id, X: x, Y: y})

	case msg.Action == tea.MouseActionRelease:
		if m.dragging == "" {
			return
		}
		id := m.dragging
		m.dispatch(eventloop.Event{Kind: eventloop.DragEnd, Target: id, X: x, Y: y})
		// A press and release without motion is a click.
		if !m.moved {
			m.dispatch(eventloop.Event{Kind: eventloop.Click, Target: id, PageX: pageX, PageY: pageY})
		}
		m.dragging, m.moved = "", false

	case msg.Action == tea.MouseActionMotion:
		if m.dragging != "" {
			m.moved = true
			m.dispatch(eventloop.Event{Kind: eventloop.Drag, Target: m.dragging, X: x, Y: y})
		}
		id, ok := m.canvas.NodeAt(msg.X, row)
		switch {
		case ok && id == m.hovering:
			m.dispatch(eventloop.Event{Kind: eventloop.PointerMove, Target: id, PageX: pageX, PageY: pageY})
		case ok:
			if m.hovering != "" {
				m.dispatch(eventloop.Event{Kind: eventloop.PointerLeave, Target: m.hovering, PageX: pageX, PageY: pageY})
			}
			m.hovering = id
			m.dispatch(eventloop.Event{Kind: eventloop.PointerEnter, Target: id, PageX: pageX, PageY: pageY})
		case m.hovering != "":
			m.dispatch(eventloop.Event{Kind: eventloop.PointerLeave, Target: m.hovering, PageX: pageX, PageY: pageY})
			m.hovering = ""
		}
	}
}

// titleRows is the height of the title bar above the canvas.
const titleRows = 2

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("netgraph: " + m.title))
	s.WriteString("\n")
	s.WriteString(m.renderCanvas())
	s.WriteString("\n")

	var panels []string
	overlay := m.diagram.Overlay()
	if text := overlay.TooltipText(); text != "" {
		panels = append(panels, panelStyle.Render(text))
	}
	if text := overlay.DetailText(); text != "" {
		panels = append(panels, panelStyle.Render(text))
	}
	if len(panels) > 0 {
		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
		s.WriteString("\n")
	}

	sim := m.diagram.Simulation()
	status := "settled"
	if sim.Running() {
		status = "running"
	}
	s.WriteString(statusStyle.Render(fmt.Sprintf("%s  alpha %.4f  nodes %d",
		status, sim.Alpha(), len(m.diagram.Model().Nodes))))
	if m.err != nil {
		s.WriteString("  " + m.err.Error())
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m Model) renderCanvas() string {
	var s strings.Builder
	for row := 0; row < m.canvas.Rows; row++ {
		if row > 0 {
			s.WriteString("\n")
		}
		for col := 0; col < m.canvas.Cols; col++ {
			cell := m.canvas.At(col, row)
			glyph := string(cell.Glyph)
			switch {
			case cell.Node != "" && cell.Node == m.dragging:
				s.WriteString(dragStyle.Render(glyph))
			case cell.Found:
				s.WriteString(foundStyle.Render(glyph))
			case cell.Node != "":
				s.WriteString(nodeStyle.Render(glyph))
			case cell.Glyph == linkGlyph:
				s.WriteString(linkStyle.Render(glyph))
			default:
				s.WriteString(glyph)
			}
		}
	}
	return s.String()
}

// Run starts the viewer on the terminal with mouse motion reporting and
// returns when the user quits.
func Run(title string, d *diagram.Diagram, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseAllMotion()}, opts...)
	final, err := tea.NewProgram(New(title, d), opts...).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}
	return nil
}
