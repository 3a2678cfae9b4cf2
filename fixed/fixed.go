// Package fixed provides the fixed-point scalar types used throughout the
// streaming datapath.
//
// Every value travelling between engines is a signed fixed-point number held
// in an int32 working register. Per-stage widths follow the hardware design:
// 8-bit input pixels, 8-bit weights and biases, 12-bit activations, and
// 32-bit accumulators, which leaves enough headroom that no accumulation path
// can silently overflow for the fixed 5x5 kernel geometry.
package fixed

// Value is the working representation of a fixed-point scalar. The datapath
// narrows it to the per-stage widths below when a value crosses a stage
// boundary.
type Value int32

// Vector is one handshake token: one Value per channel.
type Vector []Value

// Per-stage bit widths.
const (
	PixelBits      = 8
	WeightBits     = 8
	ActivationBits = 12
	ClassIndexBits = 4
)

// Activation range limits for ActivationBits-wide signed values.
const (
	MaxActivation Value = 1<<(ActivationBits-1) - 1
	MinActivation Value = -(1 << (ActivationBits - 1))
)

// FromWeight sign-extends a raw 8-bit table entry into a working Value.
func FromWeight(w int8) Value {
	return Value(w)
}

// FromPixel widens an unsigned 8-bit pixel into a working Value.
func FromPixel(p uint8) Value {
	return Value(p)
}

// ReLU clamps negative values to zero.
func ReLU(v Value) Value {
	if v < 0 {
		return 0
	}
	return v
}

// RoundShift performs the fixed-point rescale: an arithmetic right shift by n
// bits with round-half-up. A shift of zero returns v unchanged.
func RoundShift(v Value, n uint) Value {
	if n == 0 {
		return v
	}
	return (v + 1<<(n-1)) >> n
}

// Saturate clamps v to the range of a signed value with the given bit width.
func Saturate(v Value, bits uint) Value {
	maxVal := Value(1)<<(bits-1) - 1
	minVal := -(Value(1) << (bits - 1))

	if v > maxVal {
		return maxVal
	}
	if v < minVal {
		return minVal
	}
	return v
}

// ToActivation rescales an accumulator by fracBits and saturates the result
// to the activation width. This is the single conversion applied on every
// accumulate-and-emit path (convolution and fully-connected).
func ToActivation(acc Value, fracBits uint) Value {
	return Saturate(RoundShift(acc, fracBits), ActivationBits)
}

// Clone returns an independent copy of the vector. Tokens crossing a
// handshake boundary are cloned so that a producer reusing its scratch
// storage cannot corrupt a value already transferred downstream.
func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}
