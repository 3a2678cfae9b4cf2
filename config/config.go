// Package config holds the fixed network geometry and the tunable
// parameters of the streaming classifier.
//
// The geometry is a compile-time property of the design: every buffer in the
// datapath is sized from these constants and no per-image allocation ever
// happens. Tunables that do not change buffer shapes (the fixed-point rescale
// shift and the width of the shared fully-connected MAC bank) live in Config
// and can be overridden from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Fixed network geometry.
const (
	// ImageWidth and ImageHeight are the input image dimensions.
	ImageWidth  = 28
	ImageHeight = 28

	// KernelSize is the convolution kernel edge length (K).
	KernelSize = 5

	// Conv1InChannels and Conv1OutChannels are the first stage's channel counts.
	Conv1InChannels  = 1
	Conv1OutChannels = 3

	// Conv2InChannels and Conv2OutChannels are the second stage's channel counts.
	Conv2InChannels  = 3
	Conv2OutChannels = 3

	// PoolSize is the pooling neighborhood edge length.
	PoolSize = 2

	// NumClasses is the number of classifier outputs.
	NumClasses = 10
)

// Derived sizes (valid-padding convolution followed by 2x2 pooling).
const (
	Conv1OutWidth  = ImageWidth - KernelSize + 1  // 24
	Conv1OutHeight = ImageHeight - KernelSize + 1 // 24
	Pool1OutWidth  = Conv1OutWidth / PoolSize     // 12
	Pool1OutHeight = Conv1OutHeight / PoolSize    // 12

	Conv2OutWidth  = Pool1OutWidth - KernelSize + 1  // 8
	Conv2OutHeight = Pool1OutHeight - KernelSize + 1 // 8
	Pool2OutWidth  = Conv2OutWidth / PoolSize        // 4
	Pool2OutHeight = Conv2OutHeight / PoolSize       // 4

	// FCInputs is the flattened fully-connected input count.
	FCInputs = Pool2OutWidth * Pool2OutHeight * Conv2OutChannels // 48

	// ImagePixels is the number of pixels per input image.
	ImagePixels = ImageWidth * ImageHeight
)

// Config holds the tunable datapath parameters.
type Config struct {
	// FracBits is the fixed-point rescale shift applied to every biased
	// accumulator before it is narrowed to the activation width.
	FracBits uint `json:"frac_bits"`

	// FCMacUnits is the number of multiply-accumulate units shared across
	// the fully-connected dot products (M). Each class takes
	// ceil(FCInputs/M) accumulation cycles.
	FCMacUnits int `json:"fc_mac_units"`
}

// DefaultConfig returns the configuration the hardware design was sized for.
func DefaultConfig() *Config {
	return &Config{
		FracBits:   8,
		FCMacUnits: 8,
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration preconditions once, at build time.
// Dimension problems are never detected during streaming.
func (c *Config) Validate() error {
	if c.FracBits > 16 {
		return fmt.Errorf("frac_bits must be <= 16")
	}
	if c.FCMacUnits <= 0 {
		return fmt.Errorf("fc_mac_units must be > 0")
	}
	if c.FCMacUnits > FCInputs {
		return fmt.Errorf("fc_mac_units must be <= %d", FCInputs)
	}
	if Conv1OutWidth%PoolSize != 0 || Conv1OutHeight%PoolSize != 0 {
		return fmt.Errorf("conv1 output dimensions must be even for pooling")
	}
	if Conv2OutWidth%PoolSize != 0 || Conv2OutHeight%PoolSize != 0 {
		return fmt.Errorf("conv2 output dimensions must be even for pooling")
	}
	return nil
}

// FCGroupCycles returns the number of accumulation cycles per class:
// ceil(FCInputs / FCMacUnits).
func (c *Config) FCGroupCycles() int {
	return (FCInputs + c.FCMacUnits - 1) / c.FCMacUnits
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
