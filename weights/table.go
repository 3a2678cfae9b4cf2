// Package weights provides the write-once weight and bias tables consumed by
// the streaming engines.
//
// Tables are loaded once before any stream processing and are immutable
// afterward; the engines only ever read them, so they can be shared across
// components without synchronization.
package weights

import (
	"fmt"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
)

// ConvTable holds one convolution stage's kernels and biases.
// Weights are indexed [outChannel][inChannel][row][col].
type ConvTable struct {
	OutChannels int
	InChannels  int
	KernelSize  int

	Weights [][][][]int8
	Bias    []int8
}

// NewConvTable builds a ConvTable from flat slices. The weight slice is
// ordered (outChannel, inChannel, row, col) nested, matching the flat table
// layout of the hex memory files.
func NewConvTable(outCh, inCh, k int, flat []int8, bias []int8) (*ConvTable, error) {
	if len(flat) != outCh*inCh*k*k {
		return nil, fmt.Errorf(
			"conv weight table has %d entries, want %d", len(flat), outCh*inCh*k*k)
	}
	if len(bias) != outCh {
		return nil, fmt.Errorf(
			"conv bias table has %d entries, want %d", len(bias), outCh)
	}

	t := &ConvTable{
		OutChannels: outCh,
		InChannels:  inCh,
		KernelSize:  k,
		Bias:        append([]int8(nil), bias...),
	}

	t.Weights = make([][][][]int8, outCh)
	i := 0
	for oc := 0; oc < outCh; oc++ {
		t.Weights[oc] = make([][][]int8, inCh)
		for ic := 0; ic < inCh; ic++ {
			t.Weights[oc][ic] = make([][]int8, k)
			for row := 0; row < k; row++ {
				t.Weights[oc][ic][row] = append([]int8(nil), flat[i:i+k]...)
				i += k
			}
		}
	}

	return t, nil
}

// FCTable holds the fully-connected stage's per-class weight rows and biases.
// Weights are indexed [class][input]; the input index is position-major,
// channel-minor, matching the arrival order of the upstream stream.
type FCTable struct {
	Classes int
	Inputs  int

	Weights [][]int8
	Bias    []int8
}

// NewFCTable builds an FCTable from flat slices. The weight slice is ordered
// (class, input) nested.
func NewFCTable(classes, inputs int, flat []int8, bias []int8) (*FCTable, error) {
	if len(flat) != classes*inputs {
		return nil, fmt.Errorf(
			"fc weight table has %d entries, want %d", len(flat), classes*inputs)
	}
	if len(bias) != classes {
		return nil, fmt.Errorf(
			"fc bias table has %d entries, want %d", len(bias), classes)
	}

	t := &FCTable{
		Classes: classes,
		Inputs:  inputs,
		Bias:    append([]int8(nil), bias...),
	}

	t.Weights = make([][]int8, classes)
	for c := 0; c < classes; c++ {
		t.Weights[c] = append([]int8(nil), flat[c*inputs:(c+1)*inputs]...)
	}

	return t, nil
}

// Set bundles every table the pipeline needs.
type Set struct {
	Conv1 *ConvTable
	Conv2 *ConvTable
	FC    *FCTable
}

// TestSet returns the fixed tables used by the known-answer properties:
// conv1 kernels are all-1, all-2, and all-3 for output channels 0..2 with
// zero bias; conv2 kernels pass channel c through with weight 1 on the center
// tap; the FC table is an identity-like ramp so every class score differs.
func TestSet() *Set {
	k := config.KernelSize

	conv1Flat := make([]int8, config.Conv1OutChannels*config.Conv1InChannels*k*k)
	for oc := 0; oc < config.Conv1OutChannels; oc++ {
		for i := 0; i < k*k; i++ {
			conv1Flat[oc*k*k+i] = int8(oc + 1)
		}
	}
	conv1, err := NewConvTable(
		config.Conv1OutChannels, config.Conv1InChannels, k,
		conv1Flat, make([]int8, config.Conv1OutChannels))
	if err != nil {
		panic(err)
	}

	conv2Flat := make([]int8, config.Conv2OutChannels*config.Conv2InChannels*k*k)
	center := (k/2)*k + k/2
	for oc := 0; oc < config.Conv2OutChannels; oc++ {
		base := (oc*config.Conv2InChannels + oc) * k * k
		conv2Flat[base+center] = 1
	}
	conv2, err := NewConvTable(
		config.Conv2OutChannels, config.Conv2InChannels, k,
		conv2Flat, make([]int8, config.Conv2OutChannels))
	if err != nil {
		panic(err)
	}

	fcFlat := make([]int8, config.NumClasses*config.FCInputs)
	for c := 0; c < config.NumClasses; c++ {
		for i := 0; i < config.FCInputs; i++ {
			fcFlat[c*config.FCInputs+i] = int8((c+i)%5 - 2)
		}
	}
	fc, err := NewFCTable(
		config.NumClasses, config.FCInputs,
		fcFlat, make([]int8, config.NumClasses))
	if err != nil {
		panic(err)
	}

	return &Set{Conv1: conv1, Conv2: conv2, FC: fc}
}
