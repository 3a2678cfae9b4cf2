package conv

import (
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/stream"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

// Statistics aggregates the activity counters of one convolution layer.
type Statistics struct {
	Inputs  uint64
	Outputs uint64
	Images  uint64
}

// Layer is one streaming convolution stage. It consumes input elements in
// raster order from its input link, buffers the last K rows in the line
// store, slides a KxK window across them, and produces one output vector
// per valid kernel position on its output link, also in raster order.
//
// Input acceptance is throttled so a new row never overwrites a buffered
// row that pending outputs still need; output production is throttled by
// the downstream link. Between those two gates the layer is free-running.
type Layer struct {
	name     string
	width    int
	height   int
	outWidth int

	in  *stream.Link
	out *stream.Link

	line   *LineStore
	window *WindowStore
	mac    *MACEngine

	inX, inY   int
	outX, outY int
	winX       int

	stats Statistics
}

// NewLayer creates a convolution layer for the given input geometry. The
// output geometry follows from valid padding: each dimension shrinks by
// K-1.
func NewLayer(
	name string,
	table *weights.ConvTable,
	width, height int,
	fracBits uint,
	in, out *stream.Link,
) *Layer {
	return &Layer{
		name:     name,
		width:    width,
		height:   height,
		outWidth: width - table.KernelSize + 1,
		in:       in,
		out:      out,
		line:     NewLineStore(table.KernelSize, width, table.InChannels),
		window:   NewWindowStore(table.KernelSize, table.InChannels),
		mac:      NewMACEngine(table, fracBits),
	}
}

// Name returns the layer's name.
func (l *Layer) Name() string {
	return l.name
}

// Stats returns a snapshot of the layer's counters.
func (l *Layer) Stats() Statistics {
	return l.stats
}

// Tick advances the layer by one step. Window reads are issued before the
// input write, so a write to the column being read lands one step later,
// and the MAC result is drained before the engine restarts.
func (l *Layer) Tick() bool {
	madeProgress := l.drainMAC()
	madeProgress = l.mac.Tick(l.window) || madeProgress
	madeProgress = l.feedWindow() || madeProgress
	l.startMAC()
	madeProgress = l.acceptInput() || madeProgress

	return madeProgress
}

func (l *Layer) drainMAC() bool {
	if !l.mac.Emitting() {
		return false
	}
	if !l.out.CanAccept() {
		l.out.RecordStall()
		return false
	}

	l.out.Push(l.mac.Result())
	l.mac.Finish()
	l.stats.Outputs++
	l.advanceOutput()

	return true
}

func (l *Layer) advanceOutput() {
	l.outX++
	if l.outX < l.outWidth {
		return
	}

	l.outX = 0
	l.outY++
	l.window.StartRow()
	l.winX = 0

	outHeight := l.height - l.line.k + 1
	if l.outY == outHeight {
		l.outY = 0
		l.inX, l.inY = 0, 0
		l.stats.Images++
	}
}

func (l *Layer) feedWindow() bool {
	if l.winX == l.width || !l.window.Ready() {
		return false
	}
	if !l.columnAvailable(l.winX) {
		return false
	}

	l.window.LoadColumn(l.line.Column(l.winX, l.outY))
	l.winX++

	return true
}

// columnAvailable reports whether every row of the K-high column at x has
// been written. Rows fill in raster order, so checking the bottom row is
// enough.
func (l *Layer) columnAvailable(x int) bool {
	bottom := l.outY + l.line.k - 1

	return bottom < l.inY || (bottom == l.inY && x < l.inX)
}

func (l *Layer) startMAC() {
	if l.mac.Idle() && l.window.Full() && !l.window.Consumed() {
		l.mac.Start()
	}
}

func (l *Layer) acceptInput() bool {
	if !l.in.Valid() {
		return false
	}
	if !l.canAcceptInput() {
		l.in.RecordStall()
		return false
	}

	l.line.Write(l.inX, l.inY, l.in.Pop())
	l.stats.Inputs++

	l.inX++
	if l.inX == l.width {
		l.inX = 0
		l.inY++
	}

	return true
}

// canAcceptInput holds while writing row inY cannot clobber a buffered row
// that the current or a future output position still reads.
func (l *Layer) canAcceptInput() bool {
	return l.inY < l.height && l.inY <= l.outY+l.line.k-1
}

// Reset returns the layer to its power-on state.
func (l *Layer) Reset() {
	l.line.Reset()
	l.window.StartRow()
	l.mac.Reset()
	l.inX, l.inY = 0, 0
	l.outX, l.outY = 0, 0
	l.winX = 0
	l.stats = Statistics{}
}

// RawAccumulators exposes the pre-rescale sums of the most recent output
// vector, for bit-level verification against the functional model.
func (l *Layer) RawAccumulators() []fixed.Value {
	return l.mac.Accumulators()
}
