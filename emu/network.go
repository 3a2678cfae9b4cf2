// Package emu provides the functional reference model of the classifier.
//
// The model computes every layer in plain nested loops with un-pipelined
// accumulation order. It is bit-exact with the streaming engines in timing/
// and serves as the oracle for their tests; it is also the fast inference
// path of the CLI when cycle accuracy is not needed.
package emu

import (
	"fmt"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

// Network is the functional model of the full classifier.
type Network struct {
	cfg *config.Config
	set *weights.Set
}

// NewNetwork creates a reference network for the given configuration and
// weight set.
func NewNetwork(cfg *config.Config, set *weights.Set) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Network{cfg: cfg, set: set}, nil
}

// Classify runs one 28x28 image through the network and returns the
// predicted class index.
func (n *Network) Classify(image []uint8) (int, error) {
	scores, err := n.Scores(image)
	if err != nil {
		return 0, err
	}

	return Argmax(scores), nil
}

// Scores runs one image through every layer up to the class scores.
func (n *Network) Scores(image []uint8) ([]fixed.Value, error) {
	if len(image) != config.ImagePixels {
		return nil, fmt.Errorf(
			"image has %d pixels, want %d", len(image), config.ImagePixels)
	}

	in := ImageToPlanes(image)

	conv1 := Conv2D(in, n.set.Conv1, n.cfg.FracBits)
	pool1 := MaxPool2x2(conv1)
	conv2 := Conv2D(pool1, n.set.Conv2, n.cfg.FracBits)
	pool2 := MaxPool2x2(conv2)
	flat := Flatten(pool2)

	return FullyConnected(flat, n.set.FC, n.cfg.FracBits), nil
}

// ImageToPlanes widens a raster-order 8-bit image into the single-channel
// plane representation used by the layer functions.
func ImageToPlanes(image []uint8) [][][]fixed.Value {
	plane := make([][]fixed.Value, config.ImageHeight)
	for y := 0; y < config.ImageHeight; y++ {
		plane[y] = make([]fixed.Value, config.ImageWidth)
		for x := 0; x < config.ImageWidth; x++ {
			plane[y][x] = fixed.FromPixel(image[y*config.ImageWidth+x])
		}
	}

	return [][][]fixed.Value{plane}
}

// Flatten lays pooled activation planes out in the fully-connected input
// order: position-major, channel-minor. This matches the arrival order of
// the streamed tokens, one vector of channel values per spatial position.
func Flatten(in [][][]fixed.Value) []fixed.Value {
	channels := len(in)
	height := len(in[0])
	width := len(in[0][0])

	flat := make([]fixed.Value, 0, channels*height*width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				flat = append(flat, in[c][y][x])
			}
		}
	}

	return flat
}

// Argmax returns the index of the maximum score. On ties the lowest index
// wins: a later equal value never replaces the first-seen maximum.
func Argmax(scores []fixed.Value) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}

	return best
}
