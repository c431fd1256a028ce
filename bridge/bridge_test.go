package bridge_test

import (
	"bytes"
	"io"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tubekit/tubes/bridge"
	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

type testFount struct {
	tube.FountPeer
}

func (f *testFount) FlowTo(d tube.Drain) (tube.Fount, error) {
	return tube.BeginFlowingTo(&f.FountPeer, f, d)
}
func (f *testFount) PauseFlow() pause.Token           { return pause.NoPause }
func (f *testFount) StopFlow()                        {}
func (f *testFount) OutputType() (reflect.Type, bool) { return nil, false }
func (f *testFount) push(item any) error              { return f.Drain().Receive(item) }

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

type fakeConn struct {
	bytes.Buffer
	closed bool
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestFountDeliversBacklogOnceDrainAttaches(t *testing.T) {
	pr, pw := io.Pipe()
	f := bridge.NewFount(pr, nil)

	go func() {
		pw.Write([]byte("hello"))
		pw.Close()
	}()
	<-f.Done()
	require.NoError(t, f.Err())

	down := &recordingDrain{}
	_, err := f.FlowTo(down)
	require.NoError(t, err)
	require.Equal(t, []any{tube.Segment("hello")}, down.items)
}

func TestDrainWritesAndClosesOnFlowStopped(t *testing.T) {
	conn := &fakeConn{}
	d := bridge.NewDrain(conn, nil)

	up := &testFount{}
	_, err := up.FlowTo(d)
	require.NoError(t, err)

	require.NoError(t, up.push(tube.Segment("hi")))
	require.Equal(t, "hi", conn.String())

	require.NoError(t, d.FlowStopped(nil))
	require.True(t, conn.closed)
}

func TestCopyPumpsBothDirectionsUntilPeerCloses(t *testing.T) {
	ours, remote := net.Pipe()

	out := &testFount{}
	in := &recordingDrain{}

	done := make(chan error, 1)
	go func() {
		done <- bridge.Copy(tube.Flow{Fount: out, Drain: in}, ours, nil)
	}()

	// wait for Copy to finish wiring out/in before pushing
	for out.Drain() == nil {
	}
	// net.Pipe is unbuffered: the write completes only once remote reads it.
	pushed := make(chan error, 1)
	go func() { pushed <- out.push(tube.Segment("ping")) }()

	buf := make([]byte, 4)
	n, err := remote.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))
	require.NoError(t, <-pushed)

	_, err = remote.Write([]byte("pong"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(in.items) > 0 }, time.Second, time.Millisecond)

	require.NoError(t, remote.Close())
	require.NoError(t, <-done)
}
