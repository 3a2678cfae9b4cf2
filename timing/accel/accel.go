package accel

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/pipeline"
)

// Accelerator is the classifier datapath as a ticking simulation component.
// Each tick advances the pipeline one cycle, streams at most one pixel of
// the current image into it, and forwards at most one finished class index
// to its requester. Images arrive whole on the control port and are
// serialized into the pipeline at one pixel per cycle; results leave in
// arrival order.
type Accelerator struct {
	*sim.TickingComponent

	pipeline *pipeline.Pipeline
	ctrlPort sim.Port

	feeding    []uint8
	fed        int
	requesters []sim.RemotePort
}

// CtrlPort returns the port that accepts ImageMsgs and emits ClassMsgs.
func (a *Accelerator) CtrlPort() sim.Port {
	return a.ctrlPort
}

// PipelineStats returns the datapath counters.
func (a *Accelerator) PipelineStats() pipeline.Statistics {
	return a.pipeline.Stats()
}

// Tick runs one accelerator cycle.
func (a *Accelerator) Tick() bool {
	madeProgress := a.sendResult()
	madeProgress = a.streamPixel() || madeProgress
	madeProgress = a.pipeline.Tick() || madeProgress
	madeProgress = a.acceptImage() || madeProgress

	return madeProgress
}

func (a *Accelerator) sendResult() bool {
	out := a.pipeline.Out()
	if !out.Valid() || len(a.requesters) == 0 {
		return false
	}

	msg := ClassMsgBuilder{}.
		WithSrc(a.ctrlPort.AsRemote()).
		WithDst(a.requesters[0]).
		WithClass(int(out.Peek()[0])).
		Build()
	if err := a.ctrlPort.Send(msg); err != nil {
		return false
	}

	out.Pop()
	a.requesters = a.requesters[1:]

	return true
}

func (a *Accelerator) streamPixel() bool {
	if a.fed == len(a.feeding) || !a.pipeline.In().CanAccept() {
		return false
	}

	a.pipeline.In().Push(fixed.Vector{fixed.FromPixel(a.feeding[a.fed])})
	a.fed++

	return true
}

func (a *Accelerator) acceptImage() bool {
	if a.fed < len(a.feeding) {
		return false
	}

	msg := a.ctrlPort.PeekIncoming()
	if msg == nil {
		return false
	}

	img, ok := msg.(*ImageMsg)
	if !ok {
		slog.Warn("accelerator dropped unexpected message",
			"component", a.Name(), "msg", msg)
		a.ctrlPort.RetrieveIncoming()
		return true
	}

	a.ctrlPort.RetrieveIncoming()
	if len(img.Pixels) != config.ImagePixels {
		slog.Warn("accelerator dropped malformed image",
			"component", a.Name(), "pixels", len(img.Pixels))
		return true
	}

	a.feeding = img.Pixels
	a.fed = 0
	a.requesters = append(a.requesters, img.Src)

	slog.Debug("accelerator accepted image",
		"component", a.Name(), "pixels", len(img.Pixels))

	return true
}
