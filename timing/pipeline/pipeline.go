// Package pipeline composes the streaming stages into the full classifier
// datapath: two convolution + pooling stages, the fully-connected engine,
// and the argmax comparator, joined by handshake links.
package pipeline

import (
	"fmt"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/argmax"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/conv"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/fc"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/pool"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/stream"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

// Statistics aggregates the whole-datapath counters.
type Statistics struct {
	Cycles uint64
	Pixels uint64
	Images uint64

	// Stalls maps a link name to the number of steps its producer spent
	// blocked on backpressure.
	Stalls map[string]uint64
}

// CyclesPerImage returns the average cycle cost of a completed image.
func (s Statistics) CyclesPerImage() float64 {
	if s.Images == 0 {
		return 0
	}

	return float64(s.Cycles) / float64(s.Images)
}

// Pipeline is the complete streaming classifier. Pixels enter on the input
// link in raster order, one per transfer; predicted class indices leave on
// the output link, one per image, in arrival order. Every internal buffer
// is bounded and sized at construction; backpressure anywhere propagates to
// the input link rather than dropping data.
type Pipeline struct {
	cfg *config.Config

	in, out *stream.Link
	links   []*stream.Link

	conv1 *conv.Layer
	pool1 *pool.Engine
	conv2 *conv.Layer
	pool2 *pool.Engine
	fc    *fc.Engine
	am    *argmax.Comparator

	cycles uint64
}

// NewPipeline builds the datapath for the given configuration and weight
// set.
func NewPipeline(cfg *config.Config, set *weights.Set) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := checkWeights(set); err != nil {
		return nil, fmt.Errorf("invalid weight set: %w", err)
	}

	p := &Pipeline{cfg: cfg}

	p.in = stream.NewLink("pixels")
	c1p1 := stream.NewLink("conv1.pool1")
	p1c2 := stream.NewLink("pool1.conv2")
	c2p2 := stream.NewLink("conv2.pool2")
	p2fc := stream.NewLink("pool2.fc")
	fcam := stream.NewLink("fc.argmax")
	p.out = stream.NewLink("classes")
	p.links = []*stream.Link{p.in, c1p1, p1c2, c2p2, p2fc, fcam, p.out}

	p.conv1 = conv.NewLayer("conv1", set.Conv1,
		config.ImageWidth, config.ImageHeight, cfg.FracBits, p.in, c1p1)
	p.pool1 = pool.NewEngine("pool1",
		config.Conv1OutWidth, config.Conv1OutHeight,
		config.Conv1OutChannels, c1p1, p1c2)
	p.conv2 = conv.NewLayer("conv2", set.Conv2,
		config.Pool1OutWidth, config.Pool1OutHeight, cfg.FracBits, p1c2, c2p2)
	p.pool2 = pool.NewEngine("pool2",
		config.Conv2OutWidth, config.Conv2OutHeight,
		config.Conv2OutChannels, c2p2, p2fc)
	p.fc = fc.NewEngine("fc", set.FC, cfg, p2fc, fcam)
	p.am = argmax.NewComparator("argmax", config.NumClasses, fcam, p.out)

	return p, nil
}

func checkWeights(set *weights.Set) error {
	switch {
	case set == nil:
		return fmt.Errorf("nil weight set")
	case set.Conv1.KernelSize != config.KernelSize,
		set.Conv2.KernelSize != config.KernelSize:
		return fmt.Errorf("kernel size mismatch")
	case set.Conv1.InChannels != config.Conv1InChannels,
		set.Conv1.OutChannels != config.Conv1OutChannels:
		return fmt.Errorf("conv1 channel mismatch")
	case set.Conv2.InChannels != config.Conv2InChannels,
		set.Conv2.OutChannels != config.Conv2OutChannels:
		return fmt.Errorf("conv2 channel mismatch")
	case set.FC.Inputs != config.FCInputs,
		set.FC.Classes != config.NumClasses:
		return fmt.Errorf("fully-connected shape mismatch")
	}

	return nil
}

// In returns the pixel input link.
func (p *Pipeline) In() *stream.Link {
	return p.in
}

// Out returns the class index output link.
func (p *Pipeline) Out() *stream.Link {
	return p.out
}

// Tick advances every stage by one step, downstream first, so a token
// freed by a consumer this step can be refilled by its producer in the
// same step.
func (p *Pipeline) Tick() bool {
	p.cycles++

	madeProgress := p.am.Tick()
	madeProgress = p.fc.Tick() || madeProgress
	madeProgress = p.pool2.Tick() || madeProgress
	madeProgress = p.conv2.Tick() || madeProgress
	madeProgress = p.pool1.Tick() || madeProgress
	madeProgress = p.conv1.Tick() || madeProgress

	return madeProgress
}

// Stats returns a snapshot of the datapath counters.
func (p *Pipeline) Stats() Statistics {
	s := Statistics{
		Cycles: p.cycles,
		Pixels: p.in.Transfers(),
		Images: p.out.Transfers(),
		Stalls: make(map[string]uint64, len(p.links)),
	}
	for _, l := range p.links {
		s.Stalls[l.Name()] = l.Stalls()
	}

	return s
}

// Reset returns the datapath to its power-on state, dropping any image in
// flight.
func (p *Pipeline) Reset() {
	for _, l := range p.links {
		l.Reset()
	}
	p.conv1.Reset()
	p.pool1.Reset()
	p.conv2.Reset()
	p.pool2.Reset()
	p.fc.Reset()
	p.am.Reset()
	p.cycles = 0
}

// classifyCycleLimit bounds a single-image run; the steady-state cost is a
// few cycles per output position per stage, far below this.
const classifyCycleLimit = 1 << 20

// Classify pushes one image through an otherwise idle pipeline and returns
// the predicted class index.
func (p *Pipeline) Classify(image []uint8) (int, error) {
	if len(image) != config.ImagePixels {
		return 0, fmt.Errorf("image must have %d pixels, got %d",
			config.ImagePixels, len(image))
	}

	fed := 0
	for i := 0; i < classifyCycleLimit; i++ {
		if p.out.Valid() {
			return int(p.out.Pop()[0]), nil
		}
		if fed < len(image) && p.in.CanAccept() {
			p.in.Push(fixed.Vector{fixed.FromPixel(image[fed])})
			fed++
		}
		p.Tick()
	}

	return 0, fmt.Errorf("pipeline made no result after %d cycles", classifyCycleLimit)
}
