package conv

import (
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

type macState int

const (
	macIdle macState = iota
	macLoad
	macRun
	macEmit
)

// MACEngine computes one convolution output vector over K+1 steps: a load
// step that seeds every accumulator with its bias, then one step per kernel
// row accumulating K columns across all input channels. After the last row
// it latches the rescaled, saturated result and waits in the emit state
// until the layer drains it.
type MACEngine struct {
	table    *weights.ConvTable
	fracBits uint

	state macState
	row   int
	acc   []fixed.Value
	out   fixed.Vector
}

// NewMACEngine creates an idle engine bound to one weight table.
func NewMACEngine(table *weights.ConvTable, fracBits uint) *MACEngine {
	return &MACEngine{
		table:    table,
		fracBits: fracBits,
		acc:      make([]fixed.Value, table.OutChannels),
	}
}

// Idle reports whether the engine can start a new output.
func (m *MACEngine) Idle() bool {
	return m.state == macIdle
}

// Emitting reports whether a finished result is waiting to be drained.
func (m *MACEngine) Emitting() bool {
	return m.state == macEmit
}

// Start schedules the load step for the next Tick.
func (m *MACEngine) Start() {
	if m.state != macIdle {
		panic("conv: MAC start while busy")
	}
	m.state = macLoad
}

// Tick advances the engine by one step. The window must stay stable from
// the load step through the final accumulation step; the engine marks it
// consumed on that final step. Returns true if the engine did work.
func (m *MACEngine) Tick(w *WindowStore) bool {
	switch m.state {
	case macLoad:
		for oc := range m.acc {
			m.acc[oc] = fixed.FromWeight(m.table.Bias[oc])
		}
		m.row = 0
		m.state = macRun

	case macRun:
		m.accumulateRow(w)
		m.row++
		if m.row == m.table.KernelSize {
			w.MarkConsumed()
			m.latch()
			m.state = macEmit
		}

	default:
		return false
	}

	return true
}

func (m *MACEngine) accumulateRow(w *WindowStore) {
	for col := 0; col < m.table.KernelSize; col++ {
		v := w.At(m.row, col)
		for oc := 0; oc < m.table.OutChannels; oc++ {
			for ic := 0; ic < m.table.InChannels; ic++ {
				m.acc[oc] += v[ic] *
					fixed.FromWeight(m.table.Weights[oc][ic][m.row][col])
			}
		}
	}
}

func (m *MACEngine) latch() {
	m.out = make(fixed.Vector, m.table.OutChannels)
	for oc, a := range m.acc {
		m.out[oc] = fixed.ToActivation(a, m.fracBits)
	}
}

// Result returns the latched output vector. Valid only in the emit state.
func (m *MACEngine) Result() fixed.Vector {
	if m.state != macEmit {
		panic("conv: MAC result before completion")
	}

	return m.out
}

// Accumulators exposes the raw pre-rescale sums of the latest output.
func (m *MACEngine) Accumulators() []fixed.Value {
	out := make([]fixed.Value, len(m.acc))
	copy(out, m.acc)

	return out
}

// Finish returns the engine to idle after its result has been drained.
func (m *MACEngine) Finish() {
	m.state = macIdle
}

// Reset aborts any computation in flight.
func (m *MACEngine) Reset() {
	m.state = macIdle
	m.row = 0
	for i := range m.acc {
		m.acc[i] = 0
	}
	m.out = nil
}
