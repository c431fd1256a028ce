package router_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tubekit/tubes/router"
	"github.com/tubekit/tubes/tube"
)

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

func TestDispatchesByRouteIdentityNotName(t *testing.T) {
	r := router.New()
	alice := r.NewRoute("peer")
	bob := r.NewRoute("peer") // same name, distinct identity

	aliceOut, bobOut := &recordingDrain{}, &recordingDrain{}
	_, err := alice.Fount().FlowTo(aliceOut)
	require.NoError(t, err)
	_, err = bob.Fount().FlowTo(bobOut)
	require.NoError(t, err)

	require.NoError(t, r.Drain().Receive(router.NewEnvelope(alice, "hello")))

	require.Equal(t, []any{"hello"}, aliceOut.items)
	require.Empty(t, bobOut.items, "same-named route must not receive the other's mail")
}

func TestUnaddressedItemsFallIntoNullRoute(t *testing.T) {
	r := router.New()
	route := r.NewRoute("only")
	out := &recordingDrain{}
	_, err := route.Fount().FlowTo(out)
	require.NoError(t, err)

	// Neither a bare value nor an envelope for an unknown route should
	// reach this route's output; both are swallowed by the null route.
	require.NoError(t, r.Drain().Receive("not an envelope"))
	other := &router.Route{}
	require.NoError(t, r.Drain().Receive(router.NewEnvelope(other, "for nobody")))

	require.Empty(t, out.items)
}

func TestRoutedSpecMatchesEnvelopesOnly(t *testing.T) {
	spec := router.Routed(nil)
	route := &router.Route{}
	require.True(t, spec.ProvidedBy(router.NewEnvelope(route, 1)))
	require.False(t, spec.ProvidedBy("bare value"))
}
