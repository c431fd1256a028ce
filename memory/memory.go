// Package memory provides a fount that replays a fixed, in-memory sequence
// of items, terminating with an exhaustion signal.
package memory

import (
	"errors"
	"reflect"

	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

// ErrEndOfIteration is the reason carried by the FlowStopped a Fount
// delivers once its backing sequence is exhausted naturally.
var ErrEndOfIteration = errors.New("memory: end of iteration")

// memoryFount delivers every element of items in order, pausable like any
// other fount, and signals exactly one terminal FlowStopped: EndOfIteration
// if it ran out of items, or tube.ErrStopFlowCalled if StopFlow cut it off
// first.
type memoryFount struct {
	tube.FountPeer
	items   []any
	pos     int
	pauser  *pause.Pauser
	paused  bool
	stopped bool
}

// Fount builds a tube.Fount that emits items in order (delivered as soon as
// a drain attaches and is not paused) and then signals
// FlowStopped(ErrEndOfIteration).
func Fount(items ...any) tube.Fount {
	f := &memoryFount{items: append([]any(nil), items...)}
	f.pauser = pause.New(f.onPause, f.onResume)
	return f
}

func (f *memoryFount) onPause()  { f.paused = true }
func (f *memoryFount) onResume() { f.paused = false; f.pump() }

func (f *memoryFount) OutputType() (reflect.Type, bool) { return nil, false }

// FlowTo attaches drain and immediately starts (or resumes) delivery.
func (f *memoryFount) FlowTo(drain tube.Drain) (tube.Fount, error) {
	result, err := tube.BeginFlowingTo(&f.FountPeer, f, drain)
	if err != nil {
		return nil, err
	}
	f.pump()
	return result, nil
}

// PauseFlow suspends delivery; items already queued for this call remain
// unsent until every outstanding token is unpaused.
func (f *memoryFount) PauseFlow() pause.Token {
	return f.pauser.Pause()
}

// StopFlow cuts delivery off wherever it currently stands and signals
// FlowStopped(ErrStopFlowCalled) instead of letting natural exhaustion win;
// a no-op if the fount has already delivered its terminal notification.
func (f *memoryFount) StopFlow() {
	if f.stopped {
		return
	}
	f.stopped = true
	if d := f.Drain(); d != nil {
		d.FlowStopped(tube.ErrStopFlowCalled)
	}
}

// pump delivers items while unpaused, not stopped, and a drain is attached;
// on exhaustion it delivers the terminal EndOfIteration notification
// exactly once.
func (f *memoryFount) pump() {
	drain := f.Drain()
	for !f.paused && !f.stopped && drain != nil && f.pos < len(f.items) {
		item := f.items[f.pos]
		f.pos++
		if err := drain.Receive(item); err != nil {
			return
		}
		drain = f.Drain()
	}
	if !f.stopped && drain != nil && f.pos >= len(f.items) {
		f.stopped = true
		drain.FlowStopped(ErrEndOfIteration)
	}
}
