// Package divert implements mid-stream re-plugging: unplugging a
// Divertable tube's downstream and re-plugging a new one while
// reassembling already-produced-but-undelivered output back into input
// form for the new pipeline.
package divert

import (
	"fmt"
	"reflect"

	"github.com/tubekit/tubes/siphon"
	"github.com/tubekit/tubes/tube"
)

// Diverter wraps a Divertable tube through its own private Siphon and
// presents itself as that siphon's drain view; its fount view is the
// siphon's tfount, used for the initial (pre-divert) wiring.
type Diverter struct {
	friend     *siphon.Siphon
	divertable tube.Divertable
}

// New wraps d in a Diverter.
func New(d tube.Divertable, opts ...siphon.Option) *Diverter {
	return &Diverter{friend: siphon.New(d, opts...), divertable: d}
}

// AsDrain returns this diverter's drain view (proxying the friend siphon's
// tdrain).
func (dv *Diverter) AsDrain() tube.Drain { return dv }

// AsFount returns the friend siphon's tfount, the initial downstream
// attachment point before any Divert call.
func (dv *Diverter) AsFount() tube.Fount { return dv.friend.AsFount() }

func (dv *Diverter) FlowingFrom(f tube.Fount) (tube.Fount, error) { return dv.friend.FlowingFrom(f) }
func (dv *Diverter) Receive(item any) error                      { return dv.friend.Receive(item) }
func (dv *Diverter) FlowStopped(reason error) error               { return dv.friend.FlowStopped(reason) }
func (dv *Diverter) InputType() (reflect.Type, bool)              { return dv.friend.InputType() }

// Divert unplugs the friend siphon's downstream and re-plugs newDrain,
// reassembling whatever output the tube had already produced (including
// output suppressed by suspension) back into input form so newDrain
// receives a semantically equivalent prefix. After Divert returns, items
// arriving from the original upstream flow directly into newDrain; this
// Diverter and its friend siphon are no longer in the path. Divert may be
// called re-entrantly from within newDrain's own machinery.
func (dv *Diverter) Divert(newDrain tube.Drain) error {
	ejected := dv.friend.EjectPending()

	reassembled, err := dv.divertable.Reassemble(ejected)
	if err != nil {
		return fmt.Errorf("divert: reassemble: %w", err)
	}

	upstream := dv.friend.Upstream()

	var switchErr error
	draining := &drainingTube{
		items: reassembled,
		onDone: func() {
			if upstream == nil {
				return
			}
			if _, err := upstream.FlowTo(newDrain); err != nil {
				switchErr = err
			}
		},
	}

	drainDrain, drainFount, err := siphon.Series(draining)
	if err != nil {
		return fmt.Errorf("divert: wiring draining tube: %w", err)
	}

	nf := &nullFount{}
	if _, err := nf.FlowTo(drainDrain); err != nil {
		return fmt.Errorf("divert: starting draining tube: %w", err)
	}
	if _, err := drainFount.FlowTo(newDrain); err != nil {
		return fmt.Errorf("divert: attaching new drain: %w", err)
	}
	return switchErr
}
