package emu

import (
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

// ConvAccumulate computes the raw, pre-rescale accumulator of one
// convolution output: sum of window x kernel products over every input
// channel, plus the sign-extended bias. The streaming MAC engine must match
// this value bit for bit before its rescale step.
func ConvAccumulate(
	in [][][]fixed.Value,
	t *weights.ConvTable,
	oc, top, left int,
) fixed.Value {
	acc := fixed.FromWeight(t.Bias[oc])
	for ic := 0; ic < t.InChannels; ic++ {
		for row := 0; row < t.KernelSize; row++ {
			for col := 0; col < t.KernelSize; col++ {
				acc += in[ic][top+row][left+col] *
					fixed.FromWeight(t.Weights[oc][ic][row][col])
			}
		}
	}

	return acc
}

// Conv2D computes a valid-padding convolution over fixed-point planes,
// rescaling and saturating every output to the activation width.
func Conv2D(
	in [][][]fixed.Value,
	t *weights.ConvTable,
	fracBits uint,
) [][][]fixed.Value {
	height := len(in[0])
	width := len(in[0][0])
	outHeight := height - t.KernelSize + 1
	outWidth := width - t.KernelSize + 1

	out := make([][][]fixed.Value, t.OutChannels)
	for oc := 0; oc < t.OutChannels; oc++ {
		out[oc] = make([][]fixed.Value, outHeight)
		for y := 0; y < outHeight; y++ {
			out[oc][y] = make([]fixed.Value, outWidth)
			for x := 0; x < outWidth; x++ {
				acc := ConvAccumulate(in, t, oc, y, x)
				out[oc][y][x] = fixed.ToActivation(acc, fracBits)
			}
		}
	}

	return out
}

// MaxPool2x2 applies ReLU elementwise, then reduces every non-overlapping
// 2x2 neighborhood to its maximum. Input dimensions must be even.
func MaxPool2x2(in [][][]fixed.Value) [][][]fixed.Value {
	channels := len(in)
	outHeight := len(in[0]) / 2
	outWidth := len(in[0][0]) / 2

	out := make([][][]fixed.Value, channels)
	for c := 0; c < channels; c++ {
		out[c] = make([][]fixed.Value, outHeight)
		for y := 0; y < outHeight; y++ {
			out[c][y] = make([]fixed.Value, outWidth)
			for x := 0; x < outWidth; x++ {
				m := fixed.ReLU(in[c][2*y][2*x])
				for _, v := range []fixed.Value{
					in[c][2*y][2*x+1],
					in[c][2*y+1][2*x],
					in[c][2*y+1][2*x+1],
				} {
					if r := fixed.ReLU(v); r > m {
						m = r
					}
				}
				out[c][y][x] = m
			}
		}
	}

	return out
}

// FullyConnected computes every class score as a biased dot product over the
// flattened input, rescaled and saturated like the convolution outputs.
func FullyConnected(
	in []fixed.Value,
	t *weights.FCTable,
	fracBits uint,
) []fixed.Value {
	out := make([]fixed.Value, t.Classes)
	for c := 0; c < t.Classes; c++ {
		acc := fixed.FromWeight(t.Bias[c])
		for i := 0; i < t.Inputs; i++ {
			acc += in[i] * fixed.FromWeight(t.Weights[c][i])
		}
		out[c] = fixed.ToActivation(acc, fracBits)
	}

	return out
}
