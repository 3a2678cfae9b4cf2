// Package stream provides the valid/ready handshake primitive that connects
// the streaming engines.
//
// A Link is a one-element register between a producer and a consumer. The
// producer may Push only when CanAccept reports true (the consumer side is
// ready); the consumer may Pop only when Valid reports true (the producer
// side offered data). A transfer is exactly one Push/Pop pair; a Link never
// drops, duplicates, or reorders a token. Pushing into a full link or
// popping an empty one is a protocol violation and panics: the condition is
// prevented by construction, not handled at run time.
package stream

import "github.com/Min-DongYoung/energy-efficiency-CNN/fixed"

// Link is a named one-element handshake register.
type Link struct {
	name string

	data  fixed.Vector
	valid bool

	transfers uint64
	stalls    uint64
}

// NewLink creates an empty link.
func NewLink(name string) *Link {
	return &Link{name: name}
}

// Name returns the link's name.
func (l *Link) Name() string {
	return l.name
}

// CanAccept reports whether the producer may push this step. This is the
// consumer-side ready signal seen by the producer.
func (l *Link) CanAccept() bool {
	return !l.valid
}

// Push transfers one token into the link. The producer must have observed
// CanAccept first.
func (l *Link) Push(v fixed.Vector) {
	if l.valid {
		panic("stream: push into full link " + l.name)
	}

	l.data = v
	l.valid = true
	l.transfers++
}

// Valid reports whether a token is available to the consumer.
func (l *Link) Valid() bool {
	return l.valid
}

// Peek returns the pending token without consuming it.
func (l *Link) Peek() fixed.Vector {
	if !l.valid {
		panic("stream: peek on empty link " + l.name)
	}

	return l.data
}

// Pop consumes the pending token.
func (l *Link) Pop() fixed.Vector {
	if !l.valid {
		panic("stream: pop on empty link " + l.name)
	}

	v := l.data
	l.data = nil
	l.valid = false

	return v
}

// RecordStall counts one step in which the producer had a token ready but
// the link could not accept it.
func (l *Link) RecordStall() {
	l.stalls++
}

// Transfers returns the number of tokens that have crossed the link.
func (l *Link) Transfers() uint64 {
	return l.transfers
}

// Stalls returns the number of recorded backpressure steps.
func (l *Link) Stalls() uint64 {
	return l.stalls
}

// Reset empties the link and clears its counters.
func (l *Link) Reset() {
	l.data = nil
	l.valid = false
	l.transfers = 0
	l.stalls = 0
}
