package tui

import (
	"math"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/diagram"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
)

const (
	linkGlyph  = '·'
	emptyGlyph = ' '
)

// Glyph returns the character drawn for nodes of type t.
func Glyph(t graph.NodeType) rune {
	switch t {
	case graph.NodeTypeNetwork:
		return 'N'
	case graph.NodeTypeIPSet:
		return 'I'
	case graph.NodeTypeFirewall:
		return 'F'
	case graph.NodeTypeRouter:
		return 'R'
	case graph.NodeTypeSwitch:
		return 'S'
	case graph.NodeTypeHost:
		return 'h'
	default:
		return 'o'
	}
}

// Cell is one character of the canvas.
type Cell struct {
	Glyph rune
	// Node is the id of the node drawn here, if any.
	Node  string
	Found bool
}

// Canvas is a character grid onto which a scene is projected.
type Canvas struct {
	Cols, Rows    int
	width, height float64
	cells         [][]Cell
	index         map[string][2]int
}

// NewCanvas creates a canvas of cols by rows characters showing a scene of
// the given size.
func NewCanvas(cols, rows int, width, height float64) *Canvas {
	c := &Canvas{
		Cols:   max(cols, 1),
		Rows:   max(rows, 1),
		width:  width,
		height: height,
	}
	c.clear()
	return c
}

func (c *Canvas) clear() {
	c.cells = make([][]Cell, c.Rows)
	for i := range c.cells {
		row := make([]Cell, c.Cols)
		for j := range row {
			row[j] = Cell{Glyph: emptyGlyph}
		}
		c.cells[i] = row
	}
	c.index = make(map[string][2]int)
}

// ToCell projects scene coordinates onto the grid. ok is false outside it.
func (c *Canvas) ToCell(x, y float64) (col, row int, ok bool) {
	col = int(math.Floor(x * float64(c.Cols) / c.width))
	row = int(math.Floor(y * float64(c.Rows) / c.height))
	ok = col >= 0 && col < c.Cols && row >= 0 && row < c.Rows
	return col, row, ok
}

// ToScene returns the scene coordinates of the center of a cell.
func (c *Canvas) ToScene(col, row int) (x, y float64) {
	x = (float64(col) + 0.5) * c.width / float64(c.Cols)
	y = (float64(row) + 0.5) * c.height / float64(c.Rows)
	return x, y
}

// Draw projects the scene: links first, then nodes on top.
func (c *Canvas) Draw(d *diagram.Diagram) {
	c.clear()
	scene := d.Scene()
	for _, l := range scene.Lines {
		c.line(l.X1, l.Y1, l.X2, l.Y2)
	}
	model := d.Model()
	for i, circle := range scene.Circles {
		col, row, ok := c.ToCell(circle.CX, circle.CY)
		if !ok {
			continue
		}
		n := model.Nodes[i]
		c.cells[row][col] = Cell{Glyph: Glyph(n.Type), Node: n.ID, Found: d.Highlights().Found(n)}
		c.index[n.ID] = [2]int{col, row}
	}
}

// line draws a link with Bresenham's algorithm, clipped to the grid.
func (c *Canvas) line(x1, y1, x2, y2 float64) {
	c0, r0, _ := c.ToCell(x1, y1)
	c1, r1, _ := c.ToCell(x2, y2)
	dc := abs(c1 - c0)
	dr := -abs(r1 - r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		if c0 >= 0 && c0 < c.Cols && r0 >= 0 && r0 < c.Rows {
			c.cells[r0][c0] = Cell{Glyph: linkGlyph}
		}
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

// At returns the cell at col, row.
func (c *Canvas) At(col, row int) Cell {
	if col < 0 || col >= c.Cols || row < 0 || row >= c.Rows {
		return Cell{Glyph: emptyGlyph}
	}
	return c.cells[row][col]
}

// NodeAt returns the node drawn at or next to col, row. The exact cell
// wins over neighbours.
func (c *Canvas) NodeAt(col, row int) (string, bool) {
	if cell := c.At(col, row); cell.Node != "" {
		return cell.Node, true
	}
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if cell := c.At(col+dc, row+dr); cell.Node != "" {
				return cell.Node, true
			}
		}
	}
	return "", false
}

// Position returns the cell a node was drawn at.
func (c *Canvas) Position(id string) (col, row int, ok bool) {
	p, ok := c.index[id]
	return p[0], p[1], ok
}

// String returns the grid without styling, one line per row.
func (c *Canvas) String() string {
	buf := make([]rune, 0, (c.Cols+1)*c.Rows)
	for i, row := range c.cells {
		if i > 0 {
			buf = append(buf, '\n')
		}
		for _, cell := range row {
			buf = append(buf, cell.Glyph)
		}
	}
	return string(buf)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
