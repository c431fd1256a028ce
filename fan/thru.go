package fan

import (
	"reflect"

	"github.com/tubekit/tubes/tube"
)

// Thru fans a single input out to a list of independent sub-pipelines and
// gathers their outputs back into one output fount, preserving per-input
// delivery order: for input X, sub-pipeline 1's output for X is delivered,
// then 2's, then 3's, before the fan moves on to the next input. It is
// built directly from Out (fan the input out to each sub-pipeline) and In
// (gather each sub-pipeline's output back together), which is what makes
// the ordering guarantee fall out for free — Out delivers to each
// downstream in turn and every sub-pipeline runs synchronously.
type Thru struct {
	tube.DrainPeer
	in     *In
	out    *Out
	drains []tube.Drain
}

// New builds a Thru over drains, each of which should be the entry point of
// a sub-pipeline (e.g. the result of siphon.Series) whose FlowingFrom
// returns the fount at the far end of that sub-pipeline.
func New(drains ...tube.Drain) *Thru {
	return &Thru{
		in:     NewIn(),
		out:    NewOut(),
		drains: append([]tube.Drain(nil), drains...),
	}
}

// AsDrain returns this Thru's drain view.
func (t *Thru) AsDrain() tube.Drain { return t }

// AsFount returns the gathered output fount, available for flowing to a
// downstream drain once FlowingFrom has wired the sub-pipelines.
func (t *Thru) AsFount() tube.Fount { return t.in.Fount() }

func (t *Thru) InputType() (reflect.Type, bool) { return nil, false }

// FlowingFrom attaches the upstream fount, wires out.Drain() to it, then
// threads every sub-pipeline drain between a fresh Out fount and a fresh In
// drain so that Out.Drain().Receive fans the item out and In.Fount()
// gathers the results.
func (t *Thru) FlowingFrom(fount tube.Fount) (tube.Fount, error) {
	if err := tube.BeginFlowingFrom(&t.DrainPeer, t, fount); err != nil {
		return nil, err
	}
	if _, err := t.out.Drain().FlowingFrom(fount); err != nil {
		return nil, err
	}
	for _, appDrain := range t.drains {
		outFount := t.out.NewFount()
		appFount, err := outFount.FlowTo(appDrain)
		if err != nil {
			return nil, err
		}
		inDrain := t.in.NewDrain()
		if appFount != nil {
			if _, err := appFount.FlowTo(inDrain); err != nil {
				return nil, err
			}
		}
	}
	nextFount := t.in.Fount()
	if nextDrain := t.in.fount.Drain(); nextDrain != nil {
		return nextFount.FlowTo(nextDrain)
	}
	return nextFount, nil
}

func (t *Thru) Receive(item any) error {
	return t.out.Drain().Receive(item)
}

func (t *Thru) FlowStopped(reason error) error {
	return t.out.Drain().FlowStopped(reason)
}
