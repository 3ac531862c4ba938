package offer

// WantedObserver receives the "should upstream offer us more work"
// signal. Publish must not block the Processor goroutine; a
// consumer that wants to do slow work (an HTTP call, a subscription
// toggle) should hand the value off to its own goroutine/queue.
//
// Publish is called on every relevant mutation, not only on edge
// crossings: a consumer must tolerate repeated identical values.
type WantedObserver interface {
	Publish(wanted bool)
}

// WantedObserverFunc adapts a plain func into a WantedObserver.
type WantedObserverFunc func(wanted bool)

// Publish implements WantedObserver.
func (f WantedObserverFunc) Publish(wanted bool) { f(wanted) }

// NopWantedObserver discards every published value. Useful as a
// default when the caller does not care about backpressure.
var NopWantedObserver WantedObserver = WantedObserverFunc(func(bool) {})

// computeWanted implements the predicate from spec §4.3: wanted iff
// at least one matcher is registered and the launch-token balance is
// positive.
func computeWanted(matcherCount int, launchTokens int64) bool {
	return matcherCount > 0 && launchTokens > 0
}
