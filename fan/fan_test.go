package fan_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tubekit/tubes/fan"
	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

type testFount struct {
	tube.FountPeer
	paused  int
	stopped bool
}

func (f *testFount) FlowTo(d tube.Drain) (tube.Fount, error) {
	return tube.BeginFlowingTo(&f.FountPeer, f, d)
}
func (f *testFount) PauseFlow() pause.Token {
	f.paused++
	return &testToken{f}
}
func (f *testFount) StopFlow()                        { f.stopped = true }
func (f *testFount) OutputType() (reflect.Type, bool) { return nil, false }
func (f *testFount) push(item any) error              { return f.Drain().Receive(item) }
func (f *testFount) stop(reason error) error          { return f.Drain().FlowStopped(reason) }

type testToken struct{ f *testFount }

func (t *testToken) Unpause() error {
	t.f.paused--
	return nil
}

type recordingDrain struct {
	tube.DrainPeer
	items      []any
	stopped    bool
	stopReason error
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
func (d *recordingDrain) FlowStopped(reason error) error {
	d.stopped = true
	d.stopReason = reason
	return nil
}
func (d *recordingDrain) InputType() (reflect.Type, bool) { return nil, false }

func TestFanInForwardsFromEverySource(t *testing.T) {
	in := fan.NewIn()
	up1, up2 := &testFount{}, &testFount{}
	_, err := up1.FlowTo(in.NewDrain())
	require.NoError(t, err)
	_, err = up2.FlowTo(in.NewDrain())
	require.NoError(t, err)

	down := &recordingDrain{}
	_, err = in.Fount().FlowTo(down)
	require.NoError(t, err)

	require.NoError(t, up1.push("a"))
	require.NoError(t, up2.push("b"))
	require.Equal(t, []any{"a", "b"}, down.items)
}

func TestFanInPausesBeforeDrainAttached(t *testing.T) {
	in := fan.NewIn()
	up := &testFount{}
	_, err := up.FlowTo(in.NewDrain())
	require.NoError(t, err)
	require.Equal(t, 1, up.paused, "no downstream yet must pause every upstream")

	down := &recordingDrain{}
	_, err = in.Fount().FlowTo(down)
	require.NoError(t, err)
	require.Equal(t, 0, up.paused)
}

func TestFanInSourceFlowStoppedRemovesWithoutPropagating(t *testing.T) {
	in := fan.NewIn()
	up1, up2 := &testFount{}, &testFount{}
	_, err := up1.FlowTo(in.NewDrain())
	require.NoError(t, err)
	_, err = up2.FlowTo(in.NewDrain())
	require.NoError(t, err)
	down := &recordingDrain{}
	_, err = in.Fount().FlowTo(down)
	require.NoError(t, err)

	require.NoError(t, up1.stop(nil))
	require.False(t, down.stopped, "one source stopping must not tear down the fan-in's own fount")

	require.NoError(t, up2.push("still here"))
	require.Equal(t, []any{"still here"}, down.items)
}

func TestFanOutDeliversToEveryPeer(t *testing.T) {
	out := fan.NewOut()
	d1, d2 := &recordingDrain{}, &recordingDrain{}
	_, err := out.NewFount().FlowTo(d1)
	require.NoError(t, err)
	_, err = out.NewFount().FlowTo(d2)
	require.NoError(t, err)

	up := &testFount{}
	_, err = up.FlowTo(out.Drain())
	require.NoError(t, err)

	require.NoError(t, up.push("x"))
	require.Equal(t, []any{"x"}, d1.items)
	require.Equal(t, []any{"x"}, d2.items)
}

func TestFanOutOnePausedPeerPausesUpstream(t *testing.T) {
	out := fan.NewOut()
	f1 := out.NewFount()
	d1 := &recordingDrain{}
	_, err := f1.FlowTo(d1)
	require.NoError(t, err)
	d2 := &recordingDrain{}
	_, err = out.NewFount().FlowTo(d2)
	require.NoError(t, err)

	up := &testFount{}
	_, err = up.FlowTo(out.Drain())
	require.NoError(t, err)

	tok := f1.PauseFlow()
	require.Equal(t, 1, up.paused, "pausing any one peer must pause upstream")

	require.NoError(t, up.push("queued"))
	require.Empty(t, d1.items, "paused peer buffers instead of receiving")
	require.Equal(t, []any{"queued"}, d2.items, "unpaused peer still receives immediately")

	require.NoError(t, tok.Unpause())
	require.Equal(t, []any{"queued"}, d1.items, "buffered item delivers on resume")
	require.Equal(t, 0, up.paused)
}

func TestFanOutFlowStoppedPropagatesToEveryPeer(t *testing.T) {
	out := fan.NewOut()
	d1, d2 := &recordingDrain{}, &recordingDrain{}
	_, err := out.NewFount().FlowTo(d1)
	require.NoError(t, err)
	_, err = out.NewFount().FlowTo(d2)
	require.NoError(t, err)

	up := &testFount{}
	_, err = up.FlowTo(out.Drain())
	require.NoError(t, err)

	require.NoError(t, up.stop(nil))
	require.True(t, d1.stopped)
	require.True(t, d2.stopped)
}

// passThroughDrain is a trivial sub-pipeline stand-in for Thru: it forwards
// whatever it receives straight to its own internal fount.
type passThroughDrain struct {
	tube.DrainPeer
	tube.FountPeer
}

func (p *passThroughDrain) InputType() (reflect.Type, bool)  { return nil, false }
func (p *passThroughDrain) OutputType() (reflect.Type, bool) { return nil, false }
func (p *passThroughDrain) FlowingFrom(f tube.Fount) (tube.Fount, error) {
	if err := tube.BeginFlowingFrom(&p.DrainPeer, p, f); err != nil {
		return nil, err
	}
	return p, nil
}
func (p *passThroughDrain) FlowTo(d tube.Drain) (tube.Fount, error) {
	return tube.BeginFlowingTo(&p.FountPeer, p, d)
}
func (p *passThroughDrain) PauseFlow() pause.Token { return pause.NoPause }
func (p *passThroughDrain) StopFlow()              {}
func (p *passThroughDrain) Receive(item any) error {
	if d := p.Drain(); d != nil {
		return d.Receive(item)
	}
	return nil
}
func (p *passThroughDrain) FlowStopped(reason error) error {
	if d := p.Drain(); d != nil {
		return d.FlowStopped(reason)
	}
	return nil
}

func TestThruFansOutAndGathers(t *testing.T) {
	sub1, sub2 := &passThroughDrain{}, &passThroughDrain{}
	thru := fan.New(sub1, sub2)

	up := &testFount{}
	_, err := up.FlowTo(thru.AsDrain())
	require.NoError(t, err)

	down := &recordingDrain{}
	_, err = thru.AsFount().FlowTo(down)
	require.NoError(t, err)

	require.NoError(t, up.push("x"))
	require.Equal(t, []any{"x", "x"}, down.items, "one copy of x from each sub-pipeline, in order")
}
