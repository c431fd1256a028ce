package tube

// Outputs is a pull iterator over the zero-or-more items a transform
// produces for a single call to Started, Received, or Stopped. A nil Outputs
// means "no output, continue" — callers must check for nil before calling
// Next.
type Outputs interface {
	// Next returns the next item and true, or a zero value and false once
	// exhausted. Must not be called again after returning false.
	Next() (item any, ok bool)
}

// skip is the type of the SKIP sentinel.
type skip struct{}

func (skip) String() string { return "tube.SKIP" }

// SKIP is emitted as an item within an Outputs stream to mean "no item
// here": a Siphon drops the SKIP item itself and keeps delivering the
// remaining outputs of the same call. Outputs after a SKIP are not dropped,
// and the flow keeps running.
var SKIP = skip{}

// sliceOutputs is the common case: a transform that already has its outputs
// as a materialized slice.
type sliceOutputs struct {
	items []any
	pos   int
}

func (s *sliceOutputs) Next() (any, bool) {
	if s.pos >= len(s.items) {
		return nil, false
	}
	item := s.items[s.pos]
	s.pos++
	return item, true
}

// Of builds an Outputs from a fixed list of items. Of() with no arguments
// returns nil, matching "no output" rather than an empty-but-non-nil
// iterator.
func Of(items ...any) Outputs {
	if len(items) == 0 {
		return nil
	}
	return &sliceOutputs{items: items}
}

// funcOutputs adapts a plain pull function to Outputs, for transforms that
// want to generate items lazily instead of materializing a slice up front.
type funcOutputs struct {
	next func() (any, bool)
}

func (f funcOutputs) Next() (any, bool) {
	return f.next()
}

// FromFunc builds an Outputs around a pull function, the lazy counterpart
// to Of.
func FromFunc(next func() (item any, ok bool)) Outputs {
	return funcOutputs{next: next}
}

// CollectOutputs exhausts o, appending every item (including SKIP, if
// present) to a slice, for callers that need the full sequence rather than
// pulling item by item.
func CollectOutputs(o Outputs) []any {
	if o == nil {
		return nil
	}
	var out []any
	for {
		item, ok := o.Next()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}
