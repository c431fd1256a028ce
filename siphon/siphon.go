// Package siphon implements the adapter that turns a tube.Tube into a
// tube.Drain on one side (tdrain) and a tube.Fount on the other (tfount),
// threading pause propagation, buffered output, and type-checked hand-off
// between the two. It is the hardest and largest piece of the pipeline.
package siphon

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
	"github.com/tubekit/tubes/diag"
	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

// Siphon wraps a single tube.Tube. It implements both tube.Drain (its
// "tdrain" side) and tube.Fount (its "tfount" side) directly — one object
// exposing two capability views rather than two objects pointing at each
// other. AsDrain/AsFount exist only to hand out those views with the
// narrower interface type.
type Siphon struct {
	t          tube.Tube
	divertable tube.Divertable
	logger     *zerolog.Logger

	drainPeer tube.DrainPeer // tdrain: tracks our upstream fount
	fountPeer tube.FountPeer // tfount: tracks our downstream drain

	pending *pendingQueue

	downstreamPauser        *pause.Pauser
	pauseBecausePauseCalled pause.Token
	pauseBecauseNoDrain     *pause.OncePause

	everStarted           bool
	canStillProcessInput  bool
	flowStopping          bool
	flowStoppingReason    error
	downstreamTail        tube.Fount
	unbuffering           bool

	registry *diag.Registry
	statsKey string
}

// New wraps t in a Siphon.
func New(t tube.Tube, opts ...Option) *Siphon {
	nop := zerolog.Nop()
	s := &Siphon{
		t:                    t,
		logger:               &nop,
		pending:              &pendingQueue{},
		canStillProcessInput: true,
	}
	if d, ok := t.(tube.Divertable); ok {
		s.divertable = d
	}
	s.downstreamPauser = pause.New(s.onFirstDownstreamPause, s.onLastDownstreamResume)
	s.pauseBecauseNoDrain = pause.NewOncePause(upstreamPausable{s})
	for _, o := range opts {
		o(s)
	}
	return s
}

// AsDrain returns this siphon's tdrain view.
func (s *Siphon) AsDrain() tube.Drain { return s }

// AsFount returns this siphon's tfount view.
func (s *Siphon) AsFount() tube.Fount { return s }

// Upstream returns the fount currently feeding this siphon's tdrain, if any.
func (s *Siphon) Upstream() tube.Fount { return s.Fount() }

// Fount returns the fount currently attached to this siphon's tdrain
// (upstream) side, or nil — mirroring DrainPeer's own accessor of the same
// name. Along with Drain below, this lets tube.BeginFlowingTo/
// BeginFlowingFrom detect stale reciprocal-detach notifications during
// reentrant attach/detach sequences, which Siphon would otherwise miss since
// it holds its peer bookkeeping in unexported fields rather than by
// embedding FountPeer/DrainPeer.
func (s *Siphon) Fount() tube.Fount { return s.drainPeer.Fount() }

// Drain returns the drain currently attached to this siphon's tfount
// (downstream) side, or nil.
func (s *Siphon) Drain() tube.Drain { return s.fountPeer.Drain() }

// Divertable reports the wrapped tube's Divertable view, if it has one.
func (s *Siphon) Divertable() (tube.Divertable, bool) { return s.divertable, s.divertable != nil }

// EjectPending drains every item remaining in the pending queue, including
// ones currently suppressed by suspension, and clears it. Used by a
// Diverter re-plugging this siphon's downstream.
func (s *Siphon) EjectPending() []any {
	return s.pending.ejectAll()
}

// upstreamPausable defers PauseFlow to whatever fount currently feeds s,
// resolved at call time rather than captured once.
type upstreamPausable struct{ s *Siphon }

func (u upstreamPausable) PauseFlow() pause.Token {
	if up := u.s.drainPeer.Fount(); up != nil {
		return up.PauseFlow()
	}
	return pause.NoPause
}

// --- tube.Drain (tdrain) ---

func (s *Siphon) InputType() (reflect.Type, bool) {
	return s.t.InputType()
}

// FlowingFrom attaches fount as our upstream. If a pause was already held
// against the prior upstream, the replacement token is captured before the
// old one is released so the composite is never momentarily unpaused
// during hand-off.
func (s *Siphon) FlowingFrom(fount tube.Fount) (tube.Fount, error) {
	if s.pauseBecausePauseCalled != nil && fount != nil {
		next := fount.PauseFlow()
		old := s.pauseBecausePauseCalled
		s.pauseBecausePauseCalled = next
		old.Unpause()
	}
	if err := tube.BeginFlowingFrom(&s.drainPeer, s, fount); err != nil {
		return nil, err
	}
	if !s.canStillProcessInput && fount != nil {
		fount.StopFlow()
	}
	if !s.everStarted {
		s.everStarted = true
		s.deliverFrom(func() (tube.Outputs, error) { return s.t.Started() })
	}
	if s.fountPeer.Drain() != nil {
		return s.downstreamTail, nil
	}
	return s, nil
}

// Receive delivers item to the wrapped tube and unbuffers any resulting
// output.
func (s *Siphon) Receive(item any) error {
	if !s.canStillProcessInput {
		return fmt.Errorf("siphon: receive called after flow stopped")
	}
	s.deliverFrom(func() (tube.Outputs, error) { return s.t.Received(item) })
	return nil
}

// FlowStopped forbids further input, lets the tube emit a farewell
// sequence, and propagates the terminal notification downstream once that
// sequence (and anything already pending) has drained.
func (s *Siphon) FlowStopped(reason error) error {
	s.canStillProcessInput = false
	s.flowStopping = true
	s.flowStoppingReason = reason
	s.deliverFrom(func() (tube.Outputs, error) {
		outs, err := s.t.Stopped(reason)
		if err == nil && outs == nil {
			// An empty farewell still has to pass through the unbuffer
			// loop, which is what propagates FlowStopped downstream.
			outs = tube.FromFunc(func() (any, bool) { return nil, false })
		}
		return outs, err
	})
	return nil
}

// --- tube.Fount (tfount) ---

func (s *Siphon) OutputType() (reflect.Type, bool) {
	return s.t.OutputType()
}

// FlowTo attaches drain as our downstream, releases any pause held solely
// because there was no downstream, and unbuffers whatever is pending.
func (s *Siphon) FlowTo(drain tube.Drain) (tube.Fount, error) {
	tail, err := tube.BeginFlowingTo(&s.fountPeer, s, drain)
	if err != nil {
		return nil, err
	}
	s.downstreamTail = tail
	s.pauseBecauseNoDrain.MaybeUnpause()
	s.runUnbuffer()
	return tail, nil
}

// PauseFlow suspends the pending queue and holds a pause on the current
// upstream (ref-counted: the Nth concurrent pause is a no-op against the
// upstream, the last matching Unpause resumes it).
func (s *Siphon) PauseFlow() pause.Token {
	return s.downstreamPauser.Pause()
}

func (s *Siphon) onFirstDownstreamPause() {
	s.pending.suspend()
	if up := s.drainPeer.Fount(); up != nil {
		s.pauseBecausePauseCalled = up.PauseFlow()
	} else {
		s.pauseBecausePauseCalled = pause.NoPause
	}
	s.publishPaused(true)
}

func (s *Siphon) onLastDownstreamResume() {
	if s.pauseBecausePauseCalled != nil {
		s.pauseBecausePauseCalled.Unpause()
		s.pauseBecausePauseCalled = nil
	}
	s.pending.resume()
	s.publishPaused(false)
	s.runUnbuffer()
}

// publishDepth and publishPaused are no-ops unless WithStats was given a
// registry; they let an operator scrape pending-queue depth and pause state
// for every siphon in a pipeline from one place.
func (s *Siphon) publishDepth() {
	if s.registry == nil {
		return
	}
	s.registry.Set(s.statsKey+".pending_depth", int64(len(s.pending.iters)))
}

func (s *Siphon) publishPaused(paused bool) {
	if s.registry == nil {
		return
	}
	var v int64
	if paused {
		v = 1
	}
	s.registry.Set(s.statsKey+".paused", v)
}

// StopFlow marks this siphon as accepting no further input, then asks the
// upstream to stop. It does not cut off output: anything still pending, and
// whatever Stopped() yields when the upstream's FlowStopped arrives, still
// drains downstream before endOfLine.
func (s *Siphon) StopFlow() {
	s.canStillProcessInput = false
	if up := s.drainPeer.Fount(); up != nil {
		up.StopFlow()
	}
}

// --- internal delivery machinery ---

// deliverFrom invokes fn (one of tube.Started/Received/Stopped), queues its
// output, and runs the unbuffer loop. A tube error is logged and tears the
// flow down instead of propagating to the caller.
func (s *Siphon) deliverFrom(fn func() (tube.Outputs, error)) {
	outs, err := fn()
	if err != nil {
		s.logger.Error().Err(err).Msg("tube raised error during delivery")
		if up := s.drainPeer.Fount(); up != nil {
			up.StopFlow()
		}
		s.endOfLine(err)
		return
	}
	if outs == nil {
		return
	}
	s.pending.append(outs)
	s.publishDepth()
	if s.fountPeer.Drain() == nil {
		s.pauseBecauseNoDrain.PauseOnce()
	}
	s.runUnbuffer()
}

// runUnbuffer repeatedly pops the pending queue and delivers to the
// downstream drain. Re-entrancy-guarded: receive may synchronously pause,
// stop, flowTo, or divert us, and the loop picks up the new state on its
// next iteration rather than caching anything across iterations.
func (s *Siphon) runUnbuffer() {
	if s.unbuffering {
		return
	}
	s.unbuffering = true
	defer func() { s.unbuffering = false }()

	for {
		drain := s.fountPeer.Drain()
		if drain == nil {
			return
		}
		item, state := s.pending.pop(false)
		s.publishDepth()
		switch state {
		case popSuspended:
			return
		case popFinished:
			if s.flowStopping {
				s.endOfLine(s.flowStoppingReason)
			}
			return
		default: // popValue
			if item == tube.SKIP {
				continue
			}
			if err := drain.Receive(item); err != nil {
				s.logger.Error().Err(err).Msg("downstream receive failed")
				return
			}
		}
	}
}

// endOfLine tears down this siphon's output side: clears buffers, releases
// the no-drain pause if held, and propagates the terminal notification.
func (s *Siphon) endOfLine(reason error) {
	s.canStillProcessInput = false
	s.pending.clear()
	s.pauseBecauseNoDrain.MaybeUnpause()
	if d := s.fountPeer.Drain(); d != nil {
		d.FlowStopped(reason)
	}
}
