package queue_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tubekit/tubes/clock"
	"github.com/tubekit/tubes/queue"
	"github.com/tubekit/tubes/tube"
)

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

func TestPushRejectsAtCapacityWithoutMutating(t *testing.T) {
	q := queue.New(2, clock.NewManual(), 0)
	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))
	require.Equal(t, 2, q.Len())

	err := q.Push("c")
	require.ErrorIs(t, err, queue.ErrQueueOverflow)
	require.Equal(t, 2, q.Len(), "a rejected push must not mutate the buffer")
}

func TestOverflowThenAttachDeliversInPushOrder(t *testing.T) {
	m := clock.NewManual()
	q := queue.New(2, m, 0)
	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))
	require.ErrorIs(t, q.Push("c"), queue.ErrQueueOverflow)

	down := &recordingDrain{}
	_, err := q.FlowTo(down)
	require.NoError(t, err)
	m.RunReady()

	require.Equal(t, []any{"a", "b"}, down.items)
}

func TestPauseSuppressesDelivery(t *testing.T) {
	m := clock.NewManual()
	q := queue.New(4, m, 0)
	down := &recordingDrain{}
	_, err := q.FlowTo(down)
	require.NoError(t, err)

	tok := q.PauseFlow()
	require.NoError(t, q.Push("x"))
	m.RunReady()
	require.Empty(t, down.items)

	require.NoError(t, tok.Unpause())
	require.Equal(t, []any{"x"}, down.items)
}

func TestStopFlowDiscardsBufferAndDeliversOnce(t *testing.T) {
	m := clock.NewManual()
	q := queue.New(4, m, 0)
	require.NoError(t, q.Push("x"))
	down := &recordingDrain{}
	_, err := q.FlowTo(down)
	require.NoError(t, err)
	m.RunReady()

	q.StopFlow()
	q.StopFlow()
	require.True(t, down.stopped)
	require.Equal(t, 0, q.Len())
}

func TestWithPaceThrottlesDelivery(t *testing.T) {
	m := clock.NewManual()
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow() // consume the initial burst token
	q := queue.New(4, m, time.Millisecond, queue.WithPace(limiter))
	require.NoError(t, q.Push("x"))

	down := &recordingDrain{}
	_, err := q.FlowTo(down)
	require.NoError(t, err)
	m.RunReady()

	require.Empty(t, down.items, "rate limiter has no tokens yet")
}
