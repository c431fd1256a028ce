package tube

import (
	"fmt"
	"reflect"
)

// FountPeer is embedded by Fount implementations to hold the bookkeeping
// BeginFlowingTo needs: the currently attached drain.
type FountPeer struct {
	drain Drain
}

// Drain returns the currently attached drain, or nil.
func (p *FountPeer) Drain() Drain {
	return p.drain
}

// BeginFlowingTo implements the shared flowTo hand-off: it detaches the
// previous drain (if different from the new one, and still bound to this
// fount), attaches drain, and returns the Fount that drain.FlowingFrom hands
// back (nil for a terminal drain, or for drain == nil). self is the Fount
// doing the attaching, passed through to FlowingFrom so the drain can record
// its new upstream.
func BeginFlowingTo(p *FountPeer, self Fount, drain Drain) (Fount, error) {
	prev := p.drain
	p.drain = drain
	if prev != nil && prev != drain && stillFlowingFrom(prev, self) {
		if _, err := prev.FlowingFrom(nil); err != nil {
			return nil, err
		}
	}
	if drain == nil {
		return nil, nil
	}
	return drain.FlowingFrom(self)
}

// stillFlowingFrom reports whether drain still considers fount its current
// upstream. prev.FlowingFrom(nil) can itself recurse back into fount's own
// FlowTo (when fount is also drain's recorded peer), and by the time that
// reentrant call would fire, an outer frame may already have moved fount on
// to a different drain; in that case the notification is stale and must be
// skipped rather than clobbering the newer attachment. Drains that don't
// expose their current fount (i.e. don't embed DrainPeer) are conservatively
// treated as still bound.
func stillFlowingFrom(drain Drain, fount Fount) bool {
	if d, ok := drain.(interface{ Fount() Fount }); ok {
		return d.Fount() == fount
	}
	return true
}

// DrainPeer is embedded by Drain implementations to hold the bookkeeping
// BeginFlowingFrom needs: the currently attached fount.
type DrainPeer struct {
	fount Fount
}

// Fount returns the currently attached fount, or nil.
func (p *DrainPeer) Fount() Fount {
	return p.fount
}

// BeginFlowingFrom implements the shared flowingFrom hand-off: type-checks
// fount against self (when both sides declare a type), detaches the
// previous fount (if different, and still bound to this drain), and
// attaches the new one. self is the Drain being attached, used for the type
// check and to detect stale reciprocal-detach notifications.
func BeginFlowingFrom(p *DrainPeer, self Drain, fount Fount) error {
	if fount != nil {
		if err := CheckTypes(fount, self); err != nil {
			return err
		}
	}
	prev := p.fount
	p.fount = fount
	if prev != nil && prev != fount && stillFlowingTo(prev, self) {
		if _, err := prev.FlowTo(nil); err != nil {
			return err
		}
	}
	return nil
}

// stillFlowingTo is stillFlowingFrom's Fount-side counterpart: it reports
// whether fount still considers drain its current downstream, guarding
// against the same reentrant-staleness hazard in the opposite direction.
func stillFlowingTo(fount Fount, drain Drain) bool {
	if f, ok := fount.(interface{ Drain() Drain }); ok {
		return f.Drain() == drain
	}
	return true
}

// CheckTypes enforces type-compat between a fount's declared output and a
// drain's declared input: if both are present, input must equal output or
// output must implement input (when input is an interface type). Silently
// passes if either side is untyped.
func CheckTypes(fount Fount, drain Drain) error {
	outT, outOK := fount.OutputType()
	inT, inOK := drain.InputType()
	if !outOK || !inOK {
		return nil
	}
	if outT == inT {
		return nil
	}
	if inT.Kind() == reflect.Interface && outT.Implements(inT) {
		return nil
	}
	return fmt.Errorf("%w: drain requires %s, fount produces %s", ErrTypeMismatch, inT, outT)
}
