// Package pool provides the streaming ReLU + 2x2 max-pooling engine.
package pool

import (
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/stream"
)

// Statistics aggregates the activity counters of one pooling engine.
type Statistics struct {
	Inputs  uint64
	Outputs uint64
	Images  uint64
}

// Engine consumes one element per step in raster order, rectifies it, and
// folds it into a half-width row of running maxima. Even input rows start
// fresh partials; odd rows complete them, so the engine emits exactly one
// output per 2x2 neighborhood, at a quarter of the input rate.
//
// An emitted element that the downstream link cannot take is held in a
// one-deep pending slot; while it is held the engine refuses further input,
// which propagates the backpressure upstream.
type Engine struct {
	name     string
	width    int
	height   int
	channels int

	in  *stream.Link
	out *stream.Link

	partial []fixed.Vector
	x, y    int
	pending fixed.Vector

	stats Statistics
}

// NewEngine creates a pooling engine for the given input geometry. Both
// dimensions must be even.
func NewEngine(name string, width, height, channels int, in, out *stream.Link) *Engine {
	e := &Engine{
		name:     name,
		width:    width,
		height:   height,
		channels: channels,
		in:       in,
		out:      out,
		partial:  make([]fixed.Vector, width/2),
	}
	for i := range e.partial {
		e.partial[i] = make(fixed.Vector, channels)
	}

	return e
}

// Name returns the engine's name.
func (e *Engine) Name() string {
	return e.name
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Statistics {
	return e.stats
}

// Tick advances the engine by one step.
func (e *Engine) Tick() bool {
	madeProgress := e.drain()

	if e.pending != nil || !e.in.Valid() {
		if e.in.Valid() {
			e.in.RecordStall()
		}
		return madeProgress
	}

	e.fold(e.in.Pop())
	e.stats.Inputs++

	return true
}

func (e *Engine) drain() bool {
	if e.pending == nil {
		return false
	}
	if !e.out.CanAccept() {
		e.out.RecordStall()
		return false
	}

	e.out.Push(e.pending)
	e.pending = nil
	e.stats.Outputs++

	return true
}

func (e *Engine) fold(v fixed.Vector) {
	px := e.x / 2
	fresh := e.x%2 == 0 && e.y%2 == 0

	for c := 0; c < e.channels; c++ {
		r := fixed.ReLU(v[c])
		if fresh || r > e.partial[px][c] {
			e.partial[px][c] = r
		}
	}

	if e.x%2 == 1 && e.y%2 == 1 {
		e.emit(e.partial[px].Clone())
	}

	e.x++
	if e.x == e.width {
		e.x = 0
		e.y++
		if e.y == e.height {
			e.y = 0
			e.stats.Images++
		}
	}
}

// emit pushes the completed maximum in the same step when the downstream
// link is ready, and parks it in the pending slot otherwise.
func (e *Engine) emit(v fixed.Vector) {
	if e.out.CanAccept() {
		e.out.Push(v)
		e.stats.Outputs++
		return
	}

	e.pending = v
}

// Reset returns the engine to its power-on state.
func (e *Engine) Reset() {
	e.x, e.y = 0, 0
	e.pending = nil
	for i := range e.partial {
		for c := range e.partial[i] {
			e.partial[i][c] = 0
		}
	}
	e.stats = Statistics{}
}
