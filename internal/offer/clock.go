package offer

import "code.cloudfoundry.org/clock"

// Clock is the monotonic "now" source used by the Processor. It is
// the cloudfoundry clock.Clock interface re-exported under this
// package so callers of this package don't need to import
// code.cloudfoundry.org/clock themselves just to construct a
// Processor.
type Clock = clock.Clock

// NewClock returns the real wall clock.
func NewClock() Clock {
	return clock.NewClock()
}
