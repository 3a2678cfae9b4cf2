// Package conv provides the streaming convolution engine: a circular line
// store feeding a sliding window store feeding a multiply-accumulate engine.
package conv

import "github.com/Min-DongYoung/energy-efficiency-CNN/fixed"

// LineStore holds the last K image rows for one channel set in a circular
// buffer. Logical row y always lives in physical slot y mod K, so advancing
// to a new row never moves data; only the mapping advances.
//
// The caller guarantees raster-order, non-skipping traversal and never keeps
// more than K rows of unread data in flight. A write and a read in the same
// step are safe as long as the reads are issued first; the layer tick
// enforces that ordering, which gives the same-column write its
// next-step-visible semantics.
type LineStore struct {
	k        int
	width    int
	channels int

	rows [][]fixed.Vector
}

// NewLineStore creates a line store for K rows of the given width.
func NewLineStore(k, width, channels int) *LineStore {
	s := &LineStore{k: k, width: width, channels: channels}
	s.rows = make([][]fixed.Vector, k)
	for i := range s.rows {
		s.rows[i] = make([]fixed.Vector, width)
		for x := range s.rows[i] {
			s.rows[i][x] = make(fixed.Vector, channels)
		}
	}

	return s
}

// Write stores one element at logical position (x, y). The physical row is
// y mod K.
func (s *LineStore) Write(x, y int, v fixed.Vector) {
	copy(s.rows[y%s.k][x], v)
}

// Column returns the K-high column at x covering logical rows
// top..top+K-1, ordered top to bottom. The returned vectors are copies, so
// a later write cannot corrupt a column already handed to the window store.
func (s *LineStore) Column(x, top int) []fixed.Vector {
	col := make([]fixed.Vector, s.k)
	for i := 0; i < s.k; i++ {
		col[i] = s.rows[(top+i)%s.k][x].Clone()
	}

	return col
}

// Reset zeroes every buffered element.
func (s *LineStore) Reset() {
	for _, row := range s.rows {
		for _, v := range row {
			for c := range v {
				v[c] = 0
			}
		}
	}
}
