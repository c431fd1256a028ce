// Package tube defines the capability interfaces at the bottom of the
// pipeline: Fount, Drain, and the Tube transform they are adapted from.
// Everything else in this module (siphon, fan, router, divert, memory,
// queue, listener) is built on top of the types in this package.
package tube

import (
	"reflect"

	"github.com/tubekit/tubes/pause"
)

// Fount is a producer capability. It holds (internally) a reference to its
// current Drain, if any, and attaches to exactly one drain at a time.
type Fount interface {
	// FlowTo attaches this fount to drain, detaching any previous drain
	// first. It returns the result of drain.FlowingFrom, which callers such
	// as Series use to keep chaining further downstream. Passing nil
	// detaches without attaching a replacement.
	FlowTo(drain Drain) (Fount, error)

	// PauseFlow returns a token; while any token handed out by this fount
	// is live, it must not call Receive on its drain.
	PauseFlow() pause.Token

	// StopFlow asks this fount, and transitively anything upstream of it,
	// to wind down and eventually deliver a terminal FlowStopped.
	StopFlow()

	// OutputType optionally declares the static type of items this fount
	// emits, for hand-off compatibility checks. ok is false if untyped.
	OutputType() (typ reflect.Type, ok bool)
}

// Drain is a consumer capability. It holds (internally) a reference to its
// current Fount, if any, and receives zero or more items followed by exactly
// one terminal FlowStopped.
type Drain interface {
	// FlowingFrom attaches this drain to fount, detaching any previous
	// fount first. The returned Fount, if non-nil, is the next fount
	// downstream of this drain (used to keep a Series chain going); most
	// terminal drains return nil. Passing nil detaches without attaching
	// a replacement and performs no type check.
	FlowingFrom(fount Fount) (Fount, error)

	// Receive delivers one item. Never called while a pause token from
	// the attached fount is live, and never called after FlowStopped.
	Receive(item any) error

	// FlowStopped delivers the single terminal notification for this
	// flow. reason is nil for a clean stop with no particular cause.
	FlowStopped(reason error) error

	// InputType optionally declares the static type of items this drain
	// accepts, for hand-off compatibility checks. ok is false if untyped.
	InputType() (typ reflect.Type, ok bool)
}

// Flow is a bidirectional pair, e.g. an accepted connection presented as a
// fount of inbound items and a drain for outbound ones.
type Flow struct {
	Fount Fount
	Drain Drain
}

// Segment is a raw byte chunk, the unit a Transport adapter produces and
// consumes before framing has split it into messages.
type Segment []byte

// Frame is a decoded message, the unit downstream of a Framing collaborator.
type Frame []byte

// ISegment marks types that can stand in for a Segment at the framing
// boundary. Segment implements it directly; collaborators may define their
// own byte-chunk types that do the same.
type ISegment interface {
	isSegment()
}

// IFrame marks types that can stand in for a Frame at the framing boundary.
type IFrame interface {
	isFrame()
}

func (Segment) isSegment() {}
func (Frame) isFrame()     {}
