package tube

import "errors"

// ErrTypeMismatch is returned by a flow attachment when the drain's declared
// input type does not accept the fount's declared output type.
var ErrTypeMismatch = errors.New("tube: type mismatch")

// ErrStopFlowCalled is the reason carried by a flowStopped notification that
// originated from a StopFlow request rather than natural exhaustion.
var ErrStopFlowCalled = errors.New("tube: stop flow called")
