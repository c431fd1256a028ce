package tube

import "reflect"

// Tube is a user-supplied transform. A Siphon adapts a Tube into a Drain on
// one side and a Fount on the other.
type Tube interface {
	// Started returns a greeting sequence emitted once, the first time the
	// siphon's drain side is attached to an upstream fount.
	Started() (Outputs, error)

	// Received returns zero or more outputs for one input item. A nil
	// Outputs means no output; a SKIP item in the sequence is itself
	// dropped, while the call's other outputs are still delivered.
	Received(item any) (Outputs, error)

	// Stopped returns a farewell sequence emitted after the upstream
	// fount delivers FlowStopped(reason); its outputs reach the
	// downstream drain before FlowStopped is propagated.
	Stopped(reason error) (Outputs, error)

	// InputType and OutputType optionally declare static types for
	// hand-off compatibility checks at Series/attach time.
	InputType() (typ reflect.Type, ok bool)
	OutputType() (typ reflect.Type, ok bool)
}

// Divertable is a Tube that can surrender its buffered-but-undelivered
// output for replay into a new downstream when a Diverter re-plugs it.
type Divertable interface {
	Tube

	// Reassemble converts items already produced by Received (but not yet
	// delivered downstream) back into the tube's input type, so that
	// feeding them to a fresh copy of the tube reproduces an equivalent
	// prefix of output.
	Reassemble(buffered []any) ([]any, error)
}

// BaseTube supplies no-op defaults for every Tube method. Embed it and
// override only the methods a concrete transform actually needs, mirroring
// the "@tube decorator fills in missing methods" design note.
type BaseTube struct{}

func (BaseTube) Started() (Outputs, error)             { return nil, nil }
func (BaseTube) Received(item any) (Outputs, error)     { return nil, nil }
func (BaseTube) Stopped(reason error) (Outputs, error)  { return nil, nil }
func (BaseTube) InputType() (reflect.Type, bool)        { return nil, false }
func (BaseTube) OutputType() (reflect.Type, bool)       { return nil, false }
