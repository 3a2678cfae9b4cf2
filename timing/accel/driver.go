package accel

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
)

// Driver feeds images to an accelerator and collects the predicted
// classes. It sends one ImageMsg per queued image, as fast as the
// connection accepts them, and records ClassMsgs in arrival order.
type Driver struct {
	*sim.TickingComponent

	port  sim.Port
	accel sim.RemotePort

	queue   [][]uint8
	results []int
}

// Port returns the driver's connection port.
func (d *Driver) Port() sim.Port {
	return d.port
}

// FeedImage queues one image for classification. Call TickLater afterwards
// if the simulation is already running.
func (d *Driver) FeedImage(pixels []uint8) {
	d.queue = append(d.queue, pixels)
}

// Results returns the classes collected so far, in image order.
func (d *Driver) Results() []int {
	out := make([]int, len(d.results))
	copy(out, d.results)

	return out
}

// Tick sends at most one queued image and collects at most one result.
func (d *Driver) Tick() bool {
	madeProgress := d.collect()
	madeProgress = d.send() || madeProgress

	return madeProgress
}

func (d *Driver) collect() bool {
	msg := d.port.PeekIncoming()
	if msg == nil {
		return false
	}

	class, ok := msg.(*ClassMsg)
	if !ok {
		slog.Warn("driver dropped unexpected message",
			"component", d.Name(), "msg", msg)
		d.port.RetrieveIncoming()
		return true
	}

	d.port.RetrieveIncoming()
	d.results = append(d.results, class.Class)

	slog.Debug("driver collected class",
		"component", d.Name(), "class", class.Class)

	return true
}

func (d *Driver) send() bool {
	if len(d.queue) == 0 {
		return false
	}

	msg := ImageMsgBuilder{}.
		WithSrc(d.port.AsRemote()).
		WithDst(d.accel).
		WithPixels(d.queue[0]).
		Build()
	if err := d.port.Send(msg); err != nil {
		return false
	}

	d.queue = d.queue[1:]

	return true
}

// DriverBuilder builds Drivers.
type DriverBuilder struct {
	engine sim.Engine
	freq   sim.Freq
	accel  sim.RemotePort
}

// MakeDriverBuilder creates a DriverBuilder with the default frequency.
func MakeDriverBuilder() DriverBuilder {
	return DriverBuilder{freq: 1 * sim.GHz}
}

// WithEngine sets the event engine.
func (b DriverBuilder) WithEngine(engine sim.Engine) DriverBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the tick frequency.
func (b DriverBuilder) WithFreq(freq sim.Freq) DriverBuilder {
	b.freq = freq
	return b
}

// WithAccelerator sets the control port the driver sends images to.
func (b DriverBuilder) WithAccelerator(port sim.RemotePort) DriverBuilder {
	b.accel = port
	return b
}

// Build creates the driver. Its port still needs a connection before the
// simulation runs.
func (b DriverBuilder) Build(name string) *Driver {
	d := &Driver{accel: b.accel}
	d.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, d)

	d.port = sim.NewPort(d, 4, 4, name+".Port")
	d.AddPort("Ctrl", d.port)

	return d
}
