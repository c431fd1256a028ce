package divert

import (
	"reflect"

	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

// drainingTube is the ephemeral transform a Divert call builds: its
// Started() yields each reassembled item, and once exhausted it invokes
// onDone exactly once, which performs the actual upstream-to-newDrain
// switch.
type drainingTube struct {
	tube.BaseTube
	items  []any
	onDone func()
}

func (d *drainingTube) Started() (tube.Outputs, error) {
	i := 0
	done := false
	return tube.FromFunc(func() (any, bool) {
		if i < len(d.items) {
			item := d.items[i]
			i++
			return item, true
		}
		if !done {
			done = true
			if d.onDone != nil {
				d.onDone()
			}
		}
		return nil, false
	}), nil
}

// nullFount is an almost-no-op Fount used only to kick off a draining
// tube's Started sequence: attaching it does nothing but hand off to the
// drain, with no pause/stop behavior of its own.
type nullFount struct {
	tube.FountPeer
}

func (n *nullFount) FlowTo(drain tube.Drain) (tube.Fount, error) {
	return tube.BeginFlowingTo(&n.FountPeer, n, drain)
}
func (n *nullFount) PauseFlow() pause.Token           { return pause.NoPause }
func (n *nullFount) StopFlow()                        {}
func (n *nullFount) OutputType() (reflect.Type, bool) { return nil, false }
