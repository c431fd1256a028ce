// Package queue implements a bounded-buffer fount fed by Push calls and
// drained one item per clock tick.
package queue

import (
	"errors"
	"reflect"
	"time"

	"golang.org/x/time/rate"

	"github.com/tubekit/tubes/clock"
	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

// ErrQueueOverflow is returned by Push when the queue is already at
// capacity. Capacity is checked before mutating the underlying buffer, so a
// rejected Push never partially applies (spec.md §9's resolved ambiguity).
var ErrQueueOverflow = errors.New("queue: overflow")

// Option configures a Fount at construction.
type Option func(*Fount)

// WithPace attaches an optional rate limiter that throttles delivery: a
// turn that finds the limiter has no tokens available reschedules itself
// after turnDelay instead of delivering, rather than dropping the item.
func WithPace(limiter *rate.Limiter) Option {
	return func(f *Fount) { f.pace = limiter }
}

// Fount is a bounded push buffer: Push enqueues, and once a drain is
// attached (and not paused) one item is delivered per clock tick, FIFO in
// push order.
type Fount struct {
	tube.FountPeer
	capacity  int
	clock     clock.Clock
	turnDelay time.Duration
	pace      *rate.Limiter

	buf     []any
	started bool
	stopped bool
	pauser  *pause.Pauser
}

// New builds a Fount with the given capacity, driven by clk. turnDelay
// paces deliveries after the first (which fires as soon as a drain attaches
// and the queue is non-empty); zero delivers as fast as the clock can be
// pumped. WithPace additionally caps delivery rate.
func New(capacity int, clk clock.Clock, turnDelay time.Duration, opts ...Option) *Fount {
	f := &Fount{capacity: capacity, clock: clk, turnDelay: turnDelay}
	for _, o := range opts {
		o(f)
	}
	f.pauser = pause.New(nil, f.onResume)
	return f
}

func (f *Fount) onResume() {
	f.turn()
}

// Push enqueues item. If len(buffer) is already at capacity, it returns
// ErrQueueOverflow without mutating the buffer. If a drain is attached and
// currently unpaused, a turn is scheduled on the clock at zero delay.
func (f *Fount) Push(item any) error {
	if len(f.buf) >= f.capacity {
		return ErrQueueOverflow
	}
	f.buf = append(f.buf, item)
	if f.started && f.pauser.Count() == 0 && !f.stopped {
		f.clock.CallLater(0, f.turn)
	}
	return nil
}

// Len reports the number of items currently buffered.
func (f *Fount) Len() int { return len(f.buf) }

func (f *Fount) OutputType() (reflect.Type, bool) { return nil, false }

// FlowTo attaches drain and, if the buffer is non-empty, delivers the first
// item immediately (matching the one-item-per-tick pacing that follows).
func (f *Fount) FlowTo(drain tube.Drain) (tube.Fount, error) {
	result, err := tube.BeginFlowingTo(&f.FountPeer, f, drain)
	if err != nil {
		return nil, err
	}
	f.started = true
	f.turn()
	return result, nil
}

func (f *Fount) PauseFlow() pause.Token {
	return f.pauser.Pause()
}

// StopFlow ends the flow, discards whatever remains buffered, and delivers
// FlowStopped(ErrStopFlowCalled) exactly once.
func (f *Fount) StopFlow() {
	if f.stopped {
		return
	}
	f.stopped = true
	f.buf = nil
	if d := f.Drain(); d != nil {
		d.FlowStopped(tube.ErrStopFlowCalled)
	}
}

// turn delivers one buffered item (if any, and if not paused or stopped)
// and, having done so, schedules another turn after turnDelay. If the
// buffer is empty it does nothing and schedules nothing further — the next
// turn is kicked off by the next Push or the next pause/resume cycle.
func (f *Fount) turn() {
	if f.stopped || f.pauser.Count() > 0 {
		return
	}
	drain := f.Drain()
	if drain == nil || len(f.buf) == 0 {
		return
	}
	if f.pace != nil && !f.pace.Allow() {
		f.clock.CallLater(f.turnDelay, f.turn)
		return
	}
	item := f.buf[0]
	f.buf = f.buf[1:]
	drain.Receive(item)
	f.clock.CallLater(f.turnDelay, f.turn)
}
