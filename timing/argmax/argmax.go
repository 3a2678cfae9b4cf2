// Package argmax provides the streaming class-score comparator.
package argmax

import (
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/stream"
)

// Statistics aggregates the activity counters of the comparator.
type Statistics struct {
	Scores uint64
	Images uint64
}

// Comparator consumes one class score per step and tracks the running
// maximum. Only strictly greater scores take over, so a tie resolves to the
// lowest class index. After the final score the winning index is held until
// the output link takes it.
type Comparator struct {
	name    string
	classes int

	in  *stream.Link
	out *stream.Link

	count   int
	bestVal fixed.Value
	bestIdx int
	done    bool

	stats Statistics
}

// NewComparator creates a comparator for the given class count.
func NewComparator(name string, classes int, in, out *stream.Link) *Comparator {
	return &Comparator{name: name, classes: classes, in: in, out: out}
}

// Name returns the comparator's name.
func (c *Comparator) Name() string {
	return c.name
}

// Stats returns a snapshot of the comparator's counters.
func (c *Comparator) Stats() Statistics {
	return c.stats
}

// Tick advances the comparator by one step.
func (c *Comparator) Tick() bool {
	if c.done {
		if !c.out.CanAccept() {
			c.out.RecordStall()
			return false
		}

		c.out.Push(fixed.Vector{fixed.Value(c.bestIdx)})
		c.count = 0
		c.done = false
		c.stats.Images++

		return true
	}

	if !c.in.Valid() {
		return false
	}

	v := c.in.Pop()[0]
	if c.count == 0 || v > c.bestVal {
		c.bestVal = v
		c.bestIdx = c.count
	}
	c.count++
	c.stats.Scores++

	if c.count == c.classes {
		c.done = true
	}

	return true
}

// Reset returns the comparator to its power-on state.
func (c *Comparator) Reset() {
	c.count = 0
	c.done = false
	c.bestVal, c.bestIdx = 0, 0
	c.stats = Statistics{}
}
