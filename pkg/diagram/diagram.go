// Package diagram builds interactive force-directed topology diagrams.
//
// A Diagram owns a graph model, its physics simulation, the rendered scene,
// drag state, highlight classes and overlay state. All of it is driven by a
// single eventloop.Loop: simulation ticks and pointer events run on the loop
// goroutine one at a time.
package diagram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/eventloop"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/metrics"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/physics"
)

// ErrClosed is returned by operations on a closed diagram.
var ErrClosed = errors.New("diagram closed")

// Default viewport size.
const (
	DefaultWidth  = 700.0
	DefaultHeight = 700.0
)

// Default force parameters.
const (
	DefaultCharge       = -50.0
	DefaultLinkDistance = 30.0
)

type options struct {
	width, height float64
	highlights    []HighlightSet
	loop          *eventloop.Loop
	logger        *slog.Logger
	seed          uint64
	seeded        bool
	reheat        float64
	charge        float64
	linkDistance  float64
	interval      time.Duration
	autostart     bool
}

// Option configures a diagram.
type Option func(*options)

// WithSize sets the viewport size.
func WithSize(width, height float64) Option {
	return func(o *options) { o.width, o.height = width, height }
}

// WithHighlights adds a named highlight set. Sets are unioned.
func WithHighlights(name string, addrs []string) Option {
	return func(o *options) {
		o.highlights = append(o.highlights, HighlightSet{Name: name, Addrs: addrs})
	}
}

// WithLoop runs the diagram on an existing loop. The diagram does not close
// a loop it did not create.
func WithLoop(l *eventloop.Loop) Option {
	return func(o *options) { o.loop = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSeed seeds the jiggle applied to coincident or aligned bodies.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed, o.seeded = seed, true }
}

// WithReheat sets the alpha target held while nodes are dragged.
func WithReheat(alpha float64) Option {
	return func(o *options) { o.reheat = alpha }
}

// WithCharge sets the many-body strength.
func WithCharge(strength float64) Option {
	return func(o *options) { o.charge = strength }
}

// WithLinkDistance sets the link rest length.
func WithLinkDistance(d float64) Option {
	return func(o *options) { o.linkDistance = d }
}

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithoutAutostart leaves the simulation timer stopped after Build. The
// layout then only advances through Settle or Restart.
func WithoutAutostart() Option {
	return func(o *options) { o.autostart = false }
}

// Diagram is a live topology diagram.
type Diagram struct {
	model    *graph.Model
	sim      *physics.Simulation
	loop     *eventloop.Loop
	ownsLoop bool
	logger   *slog.Logger

	scene    *Scene
	resolver *Resolver
	drag     *DragController
	overlay  *Overlay

	unsubscribe []func()
	closed      atomic.Bool
}

// Build validates doc, builds its model and starts the layout. It fails
// without returning a partial diagram when any link references an unknown
// node. doc is never modified.
func Build(doc *graph.Document, opts ...Option) (*Diagram, error) {
	o := options{
		width:        DefaultWidth,
		height:       DefaultHeight,
		reheat:       DefaultReheat,
		charge:       DefaultCharge,
		linkDistance: DefaultLinkDistance,
		interval:     physics.DefaultInterval,
		autostart:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	model, err := graph.NewBuilder().Build(doc)
	metrics.RecordBuild(err)
	if err != nil {
		o.logger.Warn("Diagram build failed", "error", err)
		return nil, fmt.Errorf("failed to build diagram: %w", err)
	}

	d := &Diagram{
		model:    model,
		loop:     o.loop,
		logger:   o.logger,
		resolver: NewResolver(o.highlights...),
		overlay:  &Overlay{},
	}
	if d.loop == nil {
		d.loop = eventloop.New()
		d.ownsLoop = true
	}

	simOpts := []physics.Option{
		physics.WithScheduler(d.loop),
		physics.WithInterval(o.interval),
	}
	if o.seeded {
		simOpts = append(simOpts, physics.WithSeed(o.seed))
	}
	d.sim = physics.NewSimulation(model.Bodies(), simOpts...)

	link := physics.NewLinkForce(model.Springs())
	link.Distance = o.linkDistance
	d.sim.AddForce("link", link)
	d.sim.AddForce("charge", physics.NewManyBodyForce(o.charge))
	d.sim.AddForce("center", physics.NewCenterForce(o.width/2, o.height/2))

	d.drag = NewDragController(d.sim, o.reheat)
	d.scene = newScene(model, d.resolver.Resolve(model.Nodes), o.width, o.height)

	d.unsubscribe = append(d.unsubscribe,
		d.sim.On(physics.EventTick, d.onTick),
		d.sim.On(physics.EventEnd, d.onEnd),
		d.loop.On(eventloop.DragStart, d.onDragStart),
		d.loop.On(eventloop.Drag, d.onDrag),
		d.loop.On(eventloop.DragEnd, d.onDragEnd),
		d.loop.On(eventloop.PointerEnter, d.onPointerEnter),
		d.loop.On(eventloop.PointerMove, d.onPointerMove),
		d.loop.On(eventloop.PointerLeave, d.onPointerLeave),
		d.loop.On(eventloop.Click, d.onClick),
	)

	d.logger.Debug("Diagram built",
		"nodes", len(model.Nodes),
		"links", len(model.Links),
		"highlight_sets", len(o.highlights))

	if o.autostart {
		d.sim.Restart()
	}
	return d, nil
}

func (d *Diagram) onTick() {
	d.scene.Bind(d.model)
	metrics.SimulationTicks.Inc()
}

func (d *Diagram) onEnd() {
	d.logger.Debug("Simulation settled", "ticks", d.sim.Ticks())
}

func (d *Diagram) node(ev eventloop.Event) (*graph.Node, bool) {
	n, ok := d.model.Node(ev.Target)
	if !ok {
		d.logger.Debug("Event for unknown node ignored", "kind", ev.Kind, "target", ev.Target)
	}
	return n, ok
}

func (d *Diagram) onDragStart(ev eventloop.Event) {
	if n, ok := d.node(ev); ok {
		d.drag.Start(n)
	}
}

func (d *Diagram) onDrag(ev eventloop.Event) {
	if n, ok := d.node(ev); ok {
		d.drag.Move(n, ev.X, ev.Y)
	}
}

func (d *Diagram) onDragEnd(ev eventloop.Event) {
	if n, ok := d.node(ev); ok {
		d.drag.End(n)
	}
}

func (d *Diagram) onPointerEnter(ev eventloop.Event) {
	if n, ok := d.node(ev); ok {
		d.overlay.Enter(n, ev.PageX, ev.PageY)
	}
}

func (d *Diagram) onPointerMove(ev eventloop.Event) {
	d.overlay.Move(ev.PageX, ev.PageY)
}

func (d *Diagram) onPointerLeave(eventloop.Event) {
	d.overlay.Leave()
}

func (d *Diagram) onClick(ev eventloop.Event) {
	if n, ok := d.node(ev); ok {
		d.overlay.Click(n)
	}
}

// Dispatch queues a pointer event. It takes effect when the loop next runs.
// It may be called from any goroutine.
func (d *Diagram) Dispatch(ev eventloop.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if err := d.loop.Emit(ev); err != nil {
		return fmt.Errorf("failed to dispatch %s: %w", ev.Kind, err)
	}
	return nil
}

// SetHighlights replaces the highlight sets and recomputes node classes.
func (d *Diagram) SetHighlights(sets ...HighlightSet) error {
	if d.closed.Load() {
		return ErrClosed
	}
	d.resolver.SetHighlights(sets...)
	d.scene.setClasses(d.resolver.Resolve(d.model.Nodes))
	return nil
}

// Settle runs up to maxTicks simulation steps synchronously, without tick
// events, and binds the resulting positions. It returns the number of steps.
func (d *Diagram) Settle(maxTicks int) (int, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}
	n := d.sim.Settle(maxTicks)
	d.scene.Bind(d.model)
	return n, nil
}

// Restart resumes the simulation timer.
func (d *Diagram) Restart() error {
	if d.closed.Load() {
		return ErrClosed
	}
	d.sim.Restart()
	return nil
}

// Frame synchronously processes queued events and runs one timer pass.
func (d *Diagram) Frame() error {
	if d.closed.Load() {
		return ErrClosed
	}
	d.loop.Frame()
	return nil
}

// Run drives the diagram loop until ctx is done or the diagram is closed.
func (d *Diagram) Run(ctx context.Context) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return d.loop.Run(ctx)
}

// Close stops the simulation and releases every tick and pointer handler.
// It must run on the loop goroutine or while the loop is not running.
func (d *Diagram) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.sim.Stop()
	d.drag.Release()
	for _, unsub := range d.unsubscribe {
		unsub()
	}
	d.unsubscribe = nil
	if d.ownsLoop {
		d.loop.Close()
	}
}

// Closed reports whether Close has been called.
func (d *Diagram) Closed() bool { return d.closed.Load() }

// Model returns the simulated model.
func (d *Diagram) Model() *graph.Model { return d.model }

// Simulation returns the physics simulation.
func (d *Diagram) Simulation() *physics.Simulation { return d.sim }

// Scene returns the rendered scene.
func (d *Diagram) Scene() *Scene { return d.scene }

// Overlay returns the tooltip and detail panel state.
func (d *Diagram) Overlay() *Overlay { return d.overlay }

// Drag returns the drag controller.
func (d *Diagram) Drag() *DragController { return d.drag }

// Highlights returns the highlight resolver.
func (d *Diagram) Highlights() *Resolver { return d.resolver }

// Loop returns the event loop driving the diagram.
func (d *Diagram) Loop() *eventloop.Loop { return d.loop }
