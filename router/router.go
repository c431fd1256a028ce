// Package router implements address-dispatched fan-out: one drain accepting
// To envelopes, many outbound founts keyed by route identity rather than
// value equality.
package router

import (
	"reflect"

	"github.com/spf13/cast"
	"github.com/tubekit/tubes/fan"
	"github.com/tubekit/tubes/receiver"
	"github.com/tubekit/tubes/siphon"
	"github.com/tubekit/tubes/tube"
)

// Route is the address token returned by Router.NewRoute: both a sink (a
// tube.Fount items destined for it arrive on) and an address (the Route
// value itself, compared by identity inside To envelopes).
type Route struct {
	name  string
	fount tube.Fount
}

// Name returns the human-readable name this route was created with; it
// plays no part in dispatch, which is by pointer identity only.
func (r *Route) Name() string { return r.name }

// Fount returns the outbound fount for this route.
func (r *Route) Fount() tube.Fount { return r.fount }

// To is an envelope pairing a destination Route with a payload. Equality of
// envelopes is not defined beyond identity of Where.
type To struct {
	Where *Route
	What  any
}

// NewEnvelope constructs a To envelope addressed to where, carrying what.
func NewEnvelope(where *Route, what any) To {
	return To{Where: where, What: what}
}

// Router holds a fan.Out whose drain accepts any item (To envelopes are
// unwrapped by address; anything else, or a To naming an unknown route,
// falls into the null route) and dispatches each to the outbound fount of
// the route it names.
type Router struct {
	out  *fan.Out
	null *Route
}

// New builds an empty Router. A synthetic "null route" is wired immediately,
// flowing into a sink that discards everything, so the fan-out's broadcast
// loop never stalls on a missing drain for un-addressed items.
func New() *Router {
	r := &Router{out: fan.NewOut()}
	r.null = r.NewRoute("null")
	if _, err := r.null.fount.FlowTo(sink{}); err != nil {
		panic(err) // sink never type-mismatches, never fails
	}
	return r
}

// Drain is the Router's public input.
func (r *Router) Drain() tube.Drain { return r.out.Drain() }

// NewRoute creates a new outbound fount addressed by a fresh *Route. Items
// reach it only via a To envelope whose Where is this exact *Route value
// (identity, not name equality — two routes may share a name).
func (r *Router) NewRoute(name string) *Route {
	route := &Route{name: cast.ToString(name)}
	broadcast := r.out.NewFount()
	route.fount = addressFilter(broadcast, route)
	return route
}

// addressFilter pipes broadcast through a stateless receiver that keeps
// only To envelopes addressed to route, unwrapping them to their payload,
// so that back-pressure from this one route's downstream propagates up
// through broadcast's own fount.PauseFlow to the shared fan.Out.
func addressFilter(broadcast tube.Fount, route *Route) tube.Fount {
	filter := receiver.New(func(item any) (tube.Outputs, error) {
		env, ok := item.(To)
		if !ok || env.Where != route {
			return nil, nil
		}
		return tube.Of(env.What), nil
	})
	s := siphon.New(filter)
	if _, err := broadcast.FlowTo(s.AsDrain()); err != nil {
		panic(err) // a siphon's drain is always untyped; can't mismatch
	}
	return s.AsFount()
}

// sink is a terminal drain that accepts anything and discards it.
type sink struct{}

func (sink) FlowingFrom(tube.Fount) (tube.Fount, error) { return nil, nil }
func (sink) Receive(any) error                          { return nil }
func (sink) FlowStopped(error) error                    { return nil }
func (sink) InputType() (reflect.Type, bool)            { return nil, false }
