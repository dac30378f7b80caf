// Package eventloop provides a single-threaded, cooperative event loop.
//
// All callbacks registered with a Loop run on the goroutine that drives it
// (Run or Frame), one at a time, so the state they touch needs no locking.
// Post and Emit may be called from any goroutine.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.New("event loop closed")

// Kind identifies the type of a pointer event.
type Kind string

const (
	PointerEnter Kind = "pointerenter"
	PointerMove  Kind = "pointermove"
	PointerLeave Kind = "pointerleave"
	Click        Kind = "click"
	DragStart    Kind = "dragstart"
	Drag         Kind = "drag"
	DragEnd      Kind = "dragend"
)

// Event is a pointer interaction targeting a diagram node.
type Event struct {
	Kind   Kind
	Target string // node id
	// X and Y are in diagram coordinates.
	X, Y float64
	// PageX and PageY are in surface coordinates.
	PageX, PageY float64
}

// Handler handles an event of a registered kind.
type Handler func(Event)

type timer struct {
	id       int
	interval time.Duration
	next     time.Time
	fn       func()
}

type handlerEntry struct {
	id int
	fn Handler
}

// Loop is a single-threaded event loop.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	timers   []*timer
	handlers map[Kind][]handlerEntry
	nextID   int
	closed   bool
	wake     chan struct{}
	now      func() time.Time
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{
		handlers: make(map[Kind][]handlerEntry),
		wake:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Post schedules fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
	return nil
}

// Emit queues ev for delivery to the handlers registered for its kind.
func (l *Loop) Emit(ev Event) error {
	return l.Post(func() { l.dispatch(ev) })
}

// On registers a handler for kind and returns the matching unsubscribe func.
func (l *Loop) On(kind Kind, h Handler) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.handlers[kind] = append(l.handlers[kind], handlerEntry{id: id, fn: h})
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		hs := l.handlers[kind]
		for i := range hs {
			if hs[i].id == id {
				l.handlers[kind] = append(hs[:i:i], hs[i+1:]...)
				return
			}
		}
	}
}

// Every registers fn to run every interval and returns a cancel func.
// It satisfies physics.Scheduler.
func (l *Loop) Every(interval time.Duration, fn func()) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	if !l.closed {
		l.timers = append(l.timers, &timer{id: id, interval: interval, next: l.now().Add(interval), fn: fn})
	}
	l.signalLocked()
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, t := range l.timers {
			if t.id == id {
				l.timers = append(l.timers[:i:i], l.timers[i+1:]...)
				return
			}
		}
	}
}

// Handlers returns the number of handlers registered for kind.
func (l *Loop) Handlers(kind Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handlers[kind])
}

// Timers returns the number of active periodic callbacks.
func (l *Loop) Timers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// Frame synchronously runs queued callbacks, fires every periodic callback
// once as if its interval had elapsed, then runs callbacks queued meanwhile.
func (l *Loop) Frame() {
	l.drain()
	for _, t := range l.snapshotTimers() {
		if l.active(t) {
			t.fn()
		}
	}
	l.drain()
}

// Run drives the loop until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.drain()
		l.fireDue()

		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return nil
		}
		pending := len(l.queue) > 0
		var wait time.Duration = -1
		now := l.now()
		for _, t := range l.timers {
			d := t.next.Sub(now)
			if d < 0 {
				d = 0
			}
			if wait < 0 || d < wait {
				wait = d
			}
		}
		l.mu.Unlock()

		if pending {
			continue
		}

		var timeout <-chan time.Time
		if wait >= 0 {
			tm := time.NewTimer(wait)
			timeout = tm.C
			select {
			case <-ctx.Done():
				tm.Stop()
				return ctx.Err()
			case <-l.wake:
				tm.Stop()
			case <-timeout:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Close drops every queued callback, timer and handler. Further Post and
// Emit calls return ErrClosed.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.timers = nil
	l.handlers = make(map[Kind][]handlerEntry)
	l.mu.Unlock()
	l.signal()
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) dispatch(ev Event) {
	l.mu.Lock()
	hs := append([]handlerEntry(nil), l.handlers[ev.Kind]...)
	l.mu.Unlock()
	for _, h := range hs {
		h.fn(ev)
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
	}
}

func (l *Loop) fireDue() {
	now := l.now()
	for _, t := range l.snapshotTimers() {
		if !l.active(t) || t.next.After(now) {
			continue
		}
		t.next = now.Add(t.interval)
		t.fn()
	}
}

func (l *Loop) snapshotTimers() []*timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*timer(nil), l.timers...)
}

// active reports whether t is still registered; a callback fired earlier in
// the same pass may have cancelled it.
func (l *Loop) active(t *timer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, cur := range l.timers {
		if cur == t {
			return true
		}
	}
	return false
}

func (l *Loop) signal() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signalLocked()
}

func (l *Loop) signalLocked() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
