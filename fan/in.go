// Package fan implements the multi-peer composites: In (fan-in), Out
// (fan-out), and Thru (fan-out into independent sub-pipelines, gathered back
// through a fan-in).
package fan

import (
	"reflect"

	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

// In presents a single public fount that delivers items forwarded by
// however many drains NewDrain hands out:
//
//	upstream fount ---> In.NewDrain() --\
//	upstream fount ---> In.NewDrain() ----> In.Fount() ---> your drain
//	upstream fount ---> In.NewDrain() --/
type In struct {
	drains []*inDrain
	fount  *inFount
}

// NewIn builds an empty fan-in.
func NewIn() *In {
	in := &In{}
	in.fount = newInFount(in)
	return in
}

// Fount returns the single public fount all attached drains forward to.
func (in *In) Fount() tube.Fount { return in.fount }

// NewDrain creates a new drain whose received items are forwarded to
// Fount()'s attached downstream.
func (in *In) NewDrain() tube.Drain {
	d := &inDrain{in: in}
	in.drains = append(in.drains, d)
	return d
}

func (in *In) removeDrain(d *inDrain) {
	for i, cand := range in.drains {
		if cand == d {
			in.drains = append(in.drains[:i], in.drains[i+1:]...)
			return
		}
	}
}

type inDrain struct {
	tube.DrainPeer
	in           *In
	presentPause pause.Token
}

func (d *inDrain) InputType() (reflect.Type, bool) { return nil, false }

// FlowingFrom attaches an upstream fount to this drain; if the fan's public
// fount is currently paused (aggregate), the new upstream is immediately
// paused too. Terminal drain: always returns nil.
func (d *inDrain) FlowingFrom(fount tube.Fount) (tube.Fount, error) {
	if err := tube.BeginFlowingFrom(&d.DrainPeer, d, fount); err != nil {
		return nil, err
	}
	if d.in.fount.paused && fount != nil {
		d.presentPause = fount.PauseFlow()
	}
	return nil, nil
}

func (d *inDrain) Receive(item any) error {
	drain := d.in.fount.Drain()
	if drain == nil {
		return nil
	}
	return drain.Receive(item)
}

// FlowStopped removes this drain from the fan with no propagation to its
// siblings (spec.md §9's resolved ambiguity: the later/converged behavior).
func (d *inDrain) FlowStopped(reason error) error {
	d.in.removeDrain(d)
	return nil
}

// inFount is In's single public fount.
type inFount struct {
	tube.FountPeer
	in                  *In
	paused              bool
	pauser              *pause.Pauser
	pauseBecauseNoDrain *pause.OncePause
}

func newInFount(in *In) *inFount {
	f := &inFount{in: in}
	f.pauser = pause.New(f.onPause, f.onResume)
	f.pauseBecauseNoDrain = pause.NewOncePause(f)
	f.pauseBecauseNoDrain.PauseOnce()
	return f
}

func (f *inFount) onPause() {
	f.paused = true
	for _, d := range f.in.drains {
		if up := d.Fount(); up != nil {
			d.presentPause = up.PauseFlow()
		}
	}
}

func (f *inFount) onResume() {
	f.paused = false
	for _, d := range f.in.drains {
		if d.presentPause != nil {
			d.presentPause.Unpause()
			d.presentPause = nil
		}
	}
}

func (f *inFount) OutputType() (reflect.Type, bool) { return nil, false }

// FlowTo attaches the public downstream drain, holding a pause while none is
// attached.
func (f *inFount) FlowTo(drain tube.Drain) (tube.Fount, error) {
	result, err := tube.BeginFlowingTo(&f.FountPeer, f, drain)
	if err != nil {
		return nil, err
	}
	if drain == nil {
		f.pauseBecauseNoDrain.PauseOnce()
	} else {
		f.pauseBecauseNoDrain.MaybeUnpause()
	}
	return result, nil
}

func (f *inFount) PauseFlow() pause.Token {
	return f.pauser.Pause()
}

// StopFlow asks every upstream fount currently feeding this fan to stop.
func (f *inFount) StopFlow() {
	for _, d := range f.in.drains {
		if up := d.Fount(); up != nil {
			up.StopFlow()
		}
	}
}
