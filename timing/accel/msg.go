// Package accel wraps the streaming classifier in an event-driven
// simulation component and provides a driver to feed it images.
package accel

import "github.com/sarchlab/akita/v4/sim"

// ImageMsg carries one raster-order image to the accelerator.
type ImageMsg struct {
	sim.MsgMeta

	Pixels []uint8
}

// Meta returns the message metadata.
func (m *ImageMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone duplicates the message with a fresh ID.
func (m *ImageMsg) Clone() sim.Msg {
	c := *m
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// ImageMsgBuilder builds ImageMsgs.
type ImageMsgBuilder struct {
	src, dst sim.RemotePort
	pixels   []uint8
}

// WithSrc sets the source port.
func (b ImageMsgBuilder) WithSrc(src sim.RemotePort) ImageMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port.
func (b ImageMsgBuilder) WithDst(dst sim.RemotePort) ImageMsgBuilder {
	b.dst = dst
	return b
}

// WithPixels sets the image payload.
func (b ImageMsgBuilder) WithPixels(pixels []uint8) ImageMsgBuilder {
	b.pixels = pixels
	return b
}

// Build creates the message.
func (b ImageMsgBuilder) Build() *ImageMsg {
	m := &ImageMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.Pixels = b.pixels

	return m
}

// ClassMsg carries one predicted class index back to the requester.
type ClassMsg struct {
	sim.MsgMeta

	Class int
}

// Meta returns the message metadata.
func (m *ClassMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone duplicates the message with a fresh ID.
func (m *ClassMsg) Clone() sim.Msg {
	c := *m
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// ClassMsgBuilder builds ClassMsgs.
type ClassMsgBuilder struct {
	src, dst sim.RemotePort
	class    int
}

// WithSrc sets the source port.
func (b ClassMsgBuilder) WithSrc(src sim.RemotePort) ClassMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port.
func (b ClassMsgBuilder) WithDst(dst sim.RemotePort) ClassMsgBuilder {
	b.dst = dst
	return b
}

// WithClass sets the predicted class index.
func (b ClassMsgBuilder) WithClass(class int) ClassMsgBuilder {
	b.class = class
	return b
}

// Build creates the message.
func (b ClassMsgBuilder) Build() *ClassMsg {
	m := &ClassMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.Class = b.class

	return m
}
