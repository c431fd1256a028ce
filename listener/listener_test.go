package listener_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tubekit/tubes/listener"
	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

// connFount stands in for a per-connection fount, e.g. a bridge.Fount over
// an accepted net.Conn.
type connFount struct {
	tube.FountPeer
	paused int
}

func (f *connFount) FlowTo(d tube.Drain) (tube.Fount, error) {
	return tube.BeginFlowingTo(&f.FountPeer, f, d)
}
func (f *connFount) PauseFlow() pause.Token {
	f.paused++
	return &connToken{f}
}
func (f *connFount) StopFlow()                        {}
func (f *connFount) OutputType() (reflect.Type, bool) { return nil, false }
func (f *connFount) stop(reason error) error          { return f.Drain().FlowStopped(reason) }

type connToken struct{ f *connFount }

func (t *connToken) Unpause() error {
	t.f.paused--
	return nil
}

// driverFount feeds Listener.Receive with Flow values, like a real
// accept-loop fount would.
type driverFount struct {
	tube.FountPeer
	paused int
}

func (f *driverFount) FlowTo(d tube.Drain) (tube.Fount, error) {
	return tube.BeginFlowingTo(&f.FountPeer, f, d)
}
func (f *driverFount) PauseFlow() pause.Token {
	f.paused++
	return &driverToken{f}
}
func (f *driverFount) StopFlow()                        {}
func (f *driverFount) OutputType() (reflect.Type, bool) { return nil, false }
func (f *driverFount) push(flow tube.Flow) error        { return f.Drain().Receive(flow) }

type driverToken struct{ f *driverFount }

func (t *driverToken) Unpause() error {
	t.f.paused--
	return nil
}

func TestAcceptsUpToMaxConnectionsThenPauses(t *testing.T) {
	var accepted []tube.Flow
	l := listener.New(func(f tube.Flow) { accepted = append(accepted, f) }, 2)

	driver := &driverFount{}
	_, err := driver.FlowTo(l)
	require.NoError(t, err)

	require.NoError(t, driver.push(tube.Flow{Fount: &connFount{}}))
	require.Equal(t, 0, driver.paused, "below the connection cap, upstream stays unpaused")

	require.NoError(t, driver.push(tube.Flow{Fount: &connFount{}}))
	require.Equal(t, 1, driver.paused, "hitting the cap must pause the accept-loop fount")
	require.Len(t, accepted, 2)
}

func TestConnectionCompletionResumesAcceptLoop(t *testing.T) {
	var accepted []tube.Flow
	l := listener.New(func(f tube.Flow) { accepted = append(accepted, f) }, 1)

	driver := &driverFount{}
	_, err := driver.FlowTo(l)
	require.NoError(t, err)

	cf := &connFount{}
	require.NoError(t, driver.push(tube.Flow{Fount: cf}))
	require.Equal(t, 1, driver.paused, "single connection already at cap of 1")

	require.NoError(t, cf.stop(nil))
	require.Equal(t, 0, driver.paused, "connection ending must resume the accept loop")
}

func TestHookedFountPassesItemsThrough(t *testing.T) {
	var accepted tube.Flow
	l := listener.New(func(f tube.Flow) { accepted = f }, 10)

	driver := &driverFount{}
	_, err := driver.FlowTo(l)
	require.NoError(t, err)

	cf := &connFount{}
	require.NoError(t, driver.push(tube.Flow{Fount: cf}))

	down := &recordingDrain{}
	_, err = accepted.Fount.FlowTo(down)
	require.NoError(t, err)

	require.NoError(t, cf.Drain().Receive("payload"))
	require.Equal(t, []any{"payload"}, down.items)
}

type recordingDrain struct {
	tube.DrainPeer
	items []any
}

func (d *recordingDrain) FlowingFrom(f tube.Fount) (tube.Fount, error) {
	if err := tube.BeginFlowingFrom(&d.DrainPeer, d, f); err != nil {
		return nil, err
	}
	return nil, nil
}
func (d *recordingDrain) Receive(item any) error {
	d.items = append(d.items, item)
	return nil
}
func (d *recordingDrain) FlowStopped(error) error          { return nil }
func (d *recordingDrain) InputType() (reflect.Type, bool) { return nil, false }
