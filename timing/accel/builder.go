package accel

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/pipeline"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

// Builder builds Accelerators.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	cfg    *config.Config
	set    *weights.Set
}

// MakeBuilder creates a Builder with default frequency and configuration.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
		cfg:  config.DefaultConfig(),
	}
}

// WithEngine sets the event engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the tick frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithConfig sets the datapath configuration.
func (b Builder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithWeights sets the weight set.
func (b Builder) WithWeights(set *weights.Set) Builder {
	b.set = set
	return b
}

// Build creates the accelerator. It panics if the configuration or weight
// set is unusable; a platform that cannot be constructed cannot be
// simulated.
func (b Builder) Build(name string) *Accelerator {
	p, err := pipeline.NewPipeline(b.cfg, b.set)
	if err != nil {
		panic(err)
	}

	a := &Accelerator{pipeline: p}
	a.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, a)

	a.ctrlPort = sim.NewPort(a, 4, 4, name+".CtrlPort")
	a.AddPort("Ctrl", a.ctrlPort)

	return a
}
