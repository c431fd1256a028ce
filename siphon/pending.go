package siphon

import "github.com/tubekit/tubes/tube"

// popState is the result of popping the pending queue.
type popState int

const (
	popValue popState = iota
	popSuspended
	popFinished
)

// pendingQueue is the Siphon-internal ordered queue of output iterators
// described in the data model: append/prepend add iterators, pop advances
// the head iterator (or moves past an exhausted one), and suspend/resume
// gate delivery without ever discarding buffered items.
type pendingQueue struct {
	iters     []tube.Outputs
	suspended bool
}

func (q *pendingQueue) append(o tube.Outputs) {
	if o == nil {
		return
	}
	q.iters = append(q.iters, o)
}

func (q *pendingQueue) prepend(o tube.Outputs) {
	if o == nil {
		return
	}
	q.iters = append([]tube.Outputs{o}, q.iters...)
}

func (q *pendingQueue) clear() {
	q.iters = nil
}

func (q *pendingQueue) suspend() { q.suspended = true }
func (q *pendingQueue) resume()  { q.suspended = false }

// pop returns the next pending value. If suspended and evenIfSuspended is
// false, it returns popSuspended without touching any iterator — the
// invariant that a suspended queue never advances state. evenIfSuspended is
// the override used only by ejectAll.
func (q *pendingQueue) pop(evenIfSuspended bool) (any, popState) {
	if q.suspended && !evenIfSuspended {
		return nil, popSuspended
	}
	for len(q.iters) > 0 {
		item, ok := q.iters[0].Next()
		if !ok {
			q.iters = q.iters[1:]
			continue
		}
		return item, popValue
	}
	return nil, popFinished
}

// ejectAll drains every item remaining in every queued iterator, including
// ones currently suppressed by suspension, and clears the queue. Used by
// the Diverter when re-plugging mid-stream.
func (q *pendingQueue) ejectAll() []any {
	var out []any
	for {
		item, state := q.pop(true)
		if state == popFinished {
			break
		}
		if item == tube.SKIP {
			continue
		}
		out = append(out, item)
	}
	return out
}
