// Package receiver adapts a stateless function into a full tube.Tube,
// matching the source's "@receiver" decorator design note: most transforms
// only care about Received, so this fills in no-op Started/Stopped and
// untyped InputType/OutputType around a single function.
package receiver

import (
	"github.com/tubekit/tubes/tube"
)

// Func is a stateless per-item transform: given one input item, it returns
// the outputs for that item (nil for none; any tube.SKIP item among them is
// dropped on its own, the other outputs are still delivered).
type Func func(item any) (tube.Outputs, error)

// receiverTube wraps a Func as a tube.Tube with no-op Started/Stopped.
type receiverTube struct {
	tube.BaseTube
	fn Func
}

// New wraps fn as a tube.Tube suitable for siphon.New or siphon.Series.
func New(fn Func) tube.Tube {
	return &receiverTube{fn: fn}
}

func (r *receiverTube) Received(item any) (tube.Outputs, error) {
	return r.fn(item)
}

// Of is a convenience constructor for the common one-output-per-item case:
// fn returns a single replacement item, or ok=false to emit nothing.
func Of(fn func(item any) (out any, ok bool, err error)) tube.Tube {
	return New(func(item any) (tube.Outputs, error) {
		out, ok, err := fn(item)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return tube.Of(out), nil
	})
}

// Filter builds a receiver tube that only passes through items for which
// keep returns true, dropping the rest.
func Filter(keep func(item any) bool) tube.Tube {
	return New(func(item any) (tube.Outputs, error) {
		if !keep(item) {
			return nil, nil
		}
		return tube.Of(item), nil
	})
}
