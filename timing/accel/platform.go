package accel

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/sim/directconnection"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

// Platform is a ready-to-run simulation: one driver and one accelerator
// joined by a direct connection.
type Platform struct {
	Engine sim.Engine
	Driver *Driver
	Accel  *Accelerator
}

// PlatformBuilder builds Platforms.
type PlatformBuilder struct {
	freq sim.Freq
	cfg  *config.Config
	set  *weights.Set
}

// MakePlatformBuilder creates a PlatformBuilder with defaults.
func MakePlatformBuilder() PlatformBuilder {
	return PlatformBuilder{
		freq: 1 * sim.GHz,
		cfg:  config.DefaultConfig(),
	}
}

// WithFreq sets the platform frequency.
func (b PlatformBuilder) WithFreq(freq sim.Freq) PlatformBuilder {
	b.freq = freq
	return b
}

// WithConfig sets the datapath configuration.
func (b PlatformBuilder) WithConfig(cfg *config.Config) PlatformBuilder {
	b.cfg = cfg
	return b
}

// WithWeights sets the weight set.
func (b PlatformBuilder) WithWeights(set *weights.Set) PlatformBuilder {
	b.set = set
	return b
}

// Build creates the platform.
func (b PlatformBuilder) Build(name string) *Platform {
	engine := sim.NewSerialEngine()

	accel := MakeBuilder().
		WithEngine(engine).
		WithFreq(b.freq).
		WithConfig(b.cfg).
		WithWeights(b.set).
		Build(name + ".Accel")

	driver := MakeDriverBuilder().
		WithEngine(engine).
		WithFreq(b.freq).
		WithAccelerator(accel.CtrlPort().AsRemote()).
		Build(name + ".Driver")

	conn := directconnection.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.freq).
		Build(name + ".Conn")
	conn.PlugIn(accel.CtrlPort())
	conn.PlugIn(driver.Port())

	return &Platform{Engine: engine, Driver: driver, Accel: accel}
}

// Classify queues the images, runs the simulation to completion, and
// returns one class index per image in order.
func (p *Platform) Classify(images [][]uint8) ([]int, error) {
	for _, img := range images {
		p.Driver.FeedImage(img)
	}
	p.Driver.TickLater()

	if err := p.Engine.Run(); err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}

	results := p.Driver.Results()
	if len(results) != len(images) {
		return nil, fmt.Errorf("simulation finished with %d of %d results",
			len(results), len(images))
	}

	return results, nil
}
