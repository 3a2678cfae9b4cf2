// Package fc provides the streaming fully-connected engine.
package fc

import (
	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/stream"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

type fcState int

const (
	fcCollect fcState = iota
	fcLoad
	fcRun
	fcEmit
)

// Statistics aggregates the activity counters of the fully-connected engine.
type Statistics struct {
	Inputs  uint64
	Classes uint64
	Images  uint64
}

// Engine collects one image's flattened activations, then computes the
// class scores one at a time over a bank of M shared multiply-accumulate
// units. Each class takes one load step seeding the accumulator with its
// bias, ceil(inputs/M) accumulation steps of M products each, and one emit
// step. Scores leave in class order; upstream tokens for the next image
// wait in the input link until the collect state resumes.
type Engine struct {
	name     string
	table    *weights.FCTable
	fracBits uint
	macUnits int
	groups   int

	in  *stream.Link
	out *stream.Link

	state fcState
	buf   []fixed.Value
	class int
	group int
	acc   fixed.Value
	score fixed.Value

	stats Statistics
}

// NewEngine creates an idle fully-connected engine.
func NewEngine(name string, table *weights.FCTable, cfg *config.Config,
	in, out *stream.Link) *Engine {
	return &Engine{
		name:     name,
		table:    table,
		fracBits: cfg.FracBits,
		macUnits: cfg.FCMacUnits,
		groups:   cfg.FCGroupCycles(),
		in:       in,
		out:      out,
		buf:      make([]fixed.Value, 0, table.Inputs),
	}
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
	switch e.state {
	case fcCollect:
		return e.collect()

	case fcLoad:
		e.acc = fixed.FromWeight(e.table.Bias[e.class])
		e.group = 0
		e.state = fcRun

	case fcRun:
		e.accumulateGroup()
		e.group++
		if e.group == e.groups {
			e.score = fixed.ToActivation(e.acc, e.fracBits)
			e.state = fcEmit
		}

	case fcEmit:
		return e.emit()
	}

	return true
}

// collect appends every channel of an arriving token, preserving the
// position-major, channel-minor flattening order of the upstream raster.
func (e *Engine) collect() bool {
	if !e.in.Valid() {
		return false
	}

	e.buf = append(e.buf, e.in.Pop()...)
	e.stats.Inputs++

	if len(e.buf) == e.table.Inputs {
		e.class = 0
		e.state = fcLoad
	}

	return true
}

func (e *Engine) accumulateGroup() {
	start := e.group * e.macUnits
	end := start + e.macUnits
	if end > e.table.Inputs {
		end = e.table.Inputs
	}

	for i := start; i < end; i++ {
		e.acc += e.buf[i] * fixed.FromWeight(e.table.Weights[e.class][i])
	}
}

func (e *Engine) emit() bool {
	if !e.out.CanAccept() {
		e.out.RecordStall()
		return false
	}

	e.out.Push(fixed.Vector{e.score})
	e.stats.Classes++

	e.class++
	if e.class == e.table.Classes {
		e.buf = e.buf[:0]
		e.state = fcCollect
		e.stats.Images++
	} else {
		e.state = fcLoad
	}

	return true
}

// Reset returns the engine to its power-on state.
func (e *Engine) Reset() {
	e.state = fcCollect
	e.buf = e.buf[:0]
	e.class, e.group = 0, 0
	e.acc, e.score = 0, 0
	e.stats = Statistics{}
}
