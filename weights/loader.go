package weights

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
)

// Table file names expected inside a weight directory. Each file is a
// Verilog-style hex memory image: whitespace-separated two-digit hex bytes
// interpreted as two's-complement signed 8-bit values, with optional
// //-comments. This matches the $readmemh images the synthesis flow emits.
const (
	Conv1WeightFile = "conv1_weight.hex"
	Conv1BiasFile   = "conv1_bias.hex"
	Conv2WeightFile = "conv2_weight.hex"
	Conv2BiasFile   = "conv2_bias.hex"
	FCWeightFile    = "fc_weight.hex"
	FCBiasFile      = "fc_bias.hex"
)

// Load reads every table of the pipeline from the given directory. It is the
// single start-of-day initialization step: after Load returns, the tables are
// never written again.
func Load(dir string) (*Set, error) {
	k := config.KernelSize

	conv1Flat, err := loadHex8(
		filepath.Join(dir, Conv1WeightFile),
		config.Conv1OutChannels*config.Conv1InChannels*k*k)
	if err != nil {
		return nil, err
	}
	conv1Bias, err := loadHex8(
		filepath.Join(dir, Conv1BiasFile), config.Conv1OutChannels)
	if err != nil {
		return nil, err
	}
	conv1, err := NewConvTable(
		config.Conv1OutChannels, config.Conv1InChannels, k, conv1Flat, conv1Bias)
	if err != nil {
		return nil, fmt.Errorf("conv1: %w", err)
	}

	conv2Flat, err := loadHex8(
		filepath.Join(dir, Conv2WeightFile),
		config.Conv2OutChannels*config.Conv2InChannels*k*k)
	if err != nil {
		return nil, err
	}
	conv2Bias, err := loadHex8(
		filepath.Join(dir, Conv2BiasFile), config.Conv2OutChannels)
	if err != nil {
		return nil, err
	}
	conv2, err := NewConvTable(
		config.Conv2OutChannels, config.Conv2InChannels, k, conv2Flat, conv2Bias)
	if err != nil {
		return nil, fmt.Errorf("conv2: %w", err)
	}

	fcFlat, err := loadHex8(
		filepath.Join(dir, FCWeightFile), config.NumClasses*config.FCInputs)
	if err != nil {
		return nil, err
	}
	fcBias, err := loadHex8(
		filepath.Join(dir, FCBiasFile), config.NumClasses)
	if err != nil {
		return nil, err
	}
	fc, err := NewFCTable(config.NumClasses, config.FCInputs, fcFlat, fcBias)
	if err != nil {
		return nil, fmt.Errorf("fc: %w", err)
	}

	return &Set{Conv1: conv1, Conv2: conv2, FC: fc}, nil
}

// loadHex8 parses a hex memory file into exactly n signed bytes.
func loadHex8(path string, n int) ([]int8, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table file: %w", err)
	}

	vals := make([]int8, 0, n)
	for lineNum, line := range strings.Split(string(data), "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		for _, tok := range strings.Fields(line) {
			b, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return nil, fmt.Errorf(
					"%s:%d: bad hex byte %q: %w", path, lineNum+1, tok, err)
			}
			vals = append(vals, int8(uint8(b)))
		}
	}

	if len(vals) != n {
		return nil, fmt.Errorf(
			"%s: table has %d entries, want %d", path, len(vals), n)
	}

	return vals, nil
}
