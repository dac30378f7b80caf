package diagram

import (
	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/physics"
)

// DefaultReheat is the alpha target held while any node is dragged.
const DefaultReheat = 0.3

// DragController pins dragged nodes to the pointer. Each node has its own
// pin; the simulation stays reheated while at least one drag is active.
type DragController struct {
	sim    *physics.Simulation
	reheat float64
	active map[string]*graph.Node
}

// NewDragController creates a controller for sim.
func NewDragController(sim *physics.Simulation, reheat float64) *DragController {
	return &DragController{
		sim:    sim,
		reheat: reheat,
		active: make(map[string]*graph.Node),
	}
}

// Start pins n at its current position. The first active drag raises the
// simulation's alpha target and restarts it. Starting a drag on a node that
// is already being dragged only moves its pin.
func (c *DragController) Start(n *graph.Node) {
	if _, ok := c.active[n.ID]; !ok {
		if len(c.active) == 0 {
			c.sim.SetAlphaTarget(c.reheat)
			c.sim.Restart()
		}
		c.active[n.ID] = n
	}
	n.Pin(n.X, n.Y)
}

// Move retargets the pin of n. It returns false when n is not being dragged.
func (c *DragController) Move(n *graph.Node, x, y float64) bool {
	if _, ok := c.active[n.ID]; !ok {
		return false
	}
	n.Pin(x, y)
	return true
}

// End releases the pin of n. When no drag remains active the alpha target
// returns to 0 so the layout settles. It returns false when n was not being
// dragged.
func (c *DragController) End(n *graph.Node) bool {
	if _, ok := c.active[n.ID]; !ok {
		return false
	}
	delete(c.active, n.ID)
	n.Unpin()
	if len(c.active) == 0 {
		c.sim.SetAlphaTarget(0)
	}
	return true
}

// Dragging reports whether the node with the given id is being dragged.
func (c *DragController) Dragging(id string) bool {
	_, ok := c.active[id]
	return ok
}

// Active returns the number of nodes being dragged.
func (c *DragController) Active() int {
	return len(c.active)
}

// Release ends every active drag.
func (c *DragController) Release() {
	for _, n := range c.active {
		c.End(n)
	}
}
