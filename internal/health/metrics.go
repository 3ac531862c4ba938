package health

import "github.com/uber-go/tally"

// Metrics holds the health package's own counters, separate from the
// offer processor's Metrics so a dead heartbeat is visible even if
// the processor scope stops emitting.
type Metrics struct {
	Init      tally.Counter
	Heartbeat tally.Gauge
}

// NewMetrics returns Metrics rooted at scope.
func NewMetrics(scope tally.Scope) *Metrics {
	return &Metrics{
		Init:      scope.Counter("init"),
		Heartbeat: scope.Gauge("heartbeat"),
	}
}
