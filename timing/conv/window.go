package conv

import "github.com/Min-DongYoung/energy-efficiency-CNN/fixed"

// WindowStore holds the KxK patch currently under the kernel. At the start
// of an output row it is filled with a burst of K columns, one per step;
// afterwards each new output position shifts one column in from the right.
//
// The store refuses a shift while a full window is still being read by the
// MAC engine. The engine marks the window consumed on its final
// accumulation step, so the shift for the next position may overlap the
// emit step of the current one.
type WindowStore struct {
	k        int
	channels int

	cols     [][]fixed.Vector
	loaded   int
	consumed bool
}

// NewWindowStore creates an empty window for a KxK kernel.
func NewWindowStore(k, channels int) *WindowStore {
	return &WindowStore{
		k:        k,
		channels: channels,
		cols:     make([][]fixed.Vector, k),
	}
}

// Ready reports whether a new column may be loaded this step.
func (w *WindowStore) Ready() bool {
	return w.loaded < w.k || w.consumed
}

// LoadColumn appends one K-high column on the right. While filling, columns
// accumulate left to right; once full, the leftmost column is shifted out.
func (w *WindowStore) LoadColumn(col []fixed.Vector) {
	if !w.Ready() {
		panic("conv: column load into unconsumed window")
	}

	if w.loaded < w.k {
		w.cols[w.loaded] = col
		w.loaded++
	} else {
		copy(w.cols, w.cols[1:])
		w.cols[w.k-1] = col
	}
	w.consumed = false
}

// Full reports whether all K columns are present.
func (w *WindowStore) Full() bool {
	return w.loaded == w.k
}

// Consumed reports whether the MAC engine has finished reading the current
// full window.
func (w *WindowStore) Consumed() bool {
	return w.consumed
}

// MarkConsumed releases the window for the next shift.
func (w *WindowStore) MarkConsumed() {
	w.consumed = true
}

// At returns the element at kernel position (row, col), both in 0..K-1.
func (w *WindowStore) At(row, col int) fixed.Vector {
	return w.cols[col][row]
}

// StartRow invalidates the window ahead of the burst reload for a new
// output row.
func (w *WindowStore) StartRow() {
	w.loaded = 0
	w.consumed = false
}
