package fan

import (
	"reflect"

	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

// Out presents a single public drain that delivers each received item to
// however many founts NewFount hands out:
//
//	                                 /--> Out.NewFount() --> your drain
//	your fount --> Out.Drain() --> Out <--> Out.NewFount() --> your drain
//	                                 \--> Out.NewFount() --> your drain
type Out struct {
	founts []*outFount
	drain  *outDrain
}

// NewOut builds an empty fan-out.
func NewOut() *Out {
	out := &Out{}
	out.drain = newOutDrain(out)
	return out
}

// Drain returns the single public drain all attached founts receive from.
func (out *Out) Drain() tube.Drain { return out.drain }

// NewFount creates a new fount that receives every item Drain() is given.
func (out *Out) NewFount() tube.Fount {
	f := newOutFount(out.drain.pauser, out.removeFount)
	out.founts = append(out.founts, f)
	return f
}

func (out *Out) removeFount(f *outFount) {
	for i, cand := range out.founts {
		if cand == f {
			out.founts = append(out.founts[:i], out.founts[i+1:]...)
			return
		}
	}
}

// outDrain is Out's single public tube.Drain.
type outDrain struct {
	tube.DrainPeer
	out    *Out
	pause  pause.Token
	paused bool
	pauser *pause.Pauser
}

func newOutDrain(out *Out) *outDrain {
	d := &outDrain{out: out}
	d.pauser = pause.New(d.actuallyPause, d.actuallyResume)
	return d
}

func (d *outDrain) actuallyPause() {
	d.paused = true
	if up := d.Fount(); up != nil {
		d.pause = up.PauseFlow()
	}
}

func (d *outDrain) actuallyResume() {
	p := d.pause
	d.pause = nil
	d.paused = false
	if p != nil {
		p.Unpause()
	}
}

func (d *outDrain) InputType() (reflect.Type, bool) { return nil, false }

// FlowingFrom attaches the upstream fount feeding this fan-out. If a pause
// is already held, the replacement token is captured before the old one is
// released so the aggregate is never momentarily unpaused during hand-off.
func (d *outDrain) FlowingFrom(fount tube.Fount) (tube.Fount, error) {
	if d.paused {
		old := d.pause
		if fount != nil {
			d.pause = fount.PauseFlow()
		} else {
			d.pause = nil
		}
		if old != nil {
			old.Unpause()
		}
	}
	if err := tube.BeginFlowingFrom(&d.DrainPeer, d, fount); err != nil {
		return nil, err
	}
	return nil, nil
}

// Receive delivers item to every currently attached fount, each of which may
// independently buffer it if its own downstream is paused.
func (d *outDrain) Receive(item any) error {
	snapshot := append([]*outFount(nil), d.out.founts...)
	for _, f := range snapshot {
		f.deliverOne(item)
	}
	return nil
}

// FlowStopped propagates the terminal notification to every fount whose
// downstream drain is still attached.
func (d *outDrain) FlowStopped(reason error) error {
	snapshot := append([]*outFount(nil), d.out.founts...)
	for _, f := range snapshot {
		if dn := f.Drain(); dn != nil {
			dn.FlowStopped(reason)
		}
	}
	return nil
}

// outFount is the concrete fount type returned by Out.NewFount.
type outFount struct {
	tube.FountPeer
	upstreamPauser      *pause.Pauser
	stopper             func(*outFount)
	receivedWhilePaused []any
	myPause             pause.Token
	pauser              *pause.Pauser
}

func newOutFount(upstreamPauser *pause.Pauser, stopper func(*outFount)) *outFount {
	f := &outFount{upstreamPauser: upstreamPauser, stopper: stopper}
	f.pauser = pause.New(f.actuallyPause, f.actuallyUnpause)
	return f
}

func (f *outFount) actuallyPause() {
	f.myPause = f.upstreamPauser.Pause()
}

// actuallyUnpause releases this fount's own pause and, if anything queued up
// while paused, delivers exactly one queued item before releasing the
// shared upstream pause — matching the one-item-per-unpause-cycle rule.
func (f *outFount) actuallyUnpause() {
	p := f.myPause
	f.myPause = nil
	if len(f.receivedWhilePaused) > 0 {
		item := f.receivedWhilePaused[0]
		f.receivedWhilePaused = f.receivedWhilePaused[1:]
		if d := f.Drain(); d != nil {
			d.Receive(item)
		}
	}
	p.Unpause()
}

func (f *outFount) OutputType() (reflect.Type, bool) { return nil, false }

func (f *outFount) FlowTo(drain tube.Drain) (tube.Fount, error) {
	return tube.BeginFlowingTo(&f.FountPeer, f, drain)
}

func (f *outFount) PauseFlow() pause.Token {
	return f.pauser.Pause()
}

func (f *outFount) StopFlow() {
	f.stopper(f)
}

// deliverOne delivers item to this fount's drain, or queues it if this
// fount itself is currently paused.
func (f *outFount) deliverOne(item any) {
	if f.Drain() == nil {
		return
	}
	if f.myPause != nil {
		f.receivedWhilePaused = append(f.receivedWhilePaused, item)
		return
	}
	f.Drain().Receive(item)
}
