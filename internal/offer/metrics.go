package offer

import (
	"github.com/uber-go/tally"
)

// Metrics tracks the Processor's two gauges plus a handful of counters
// on the surrounding facade traffic, rooted at the given tally.Scope
// the way hostmgr/offer/metrics.go roots pool and handler metrics
// under the same parent scope.
type Metrics struct {
	// LaunchTokens is the current launch-token balance.
	LaunchTokens tally.Gauge
	// CurrentOffers is the number of offers currently in flight.
	CurrentOffers tally.Gauge

	MatchOfferTotal        tally.Counter
	MatchOfferShortCircuit tally.Counter
	MatcherAdded           tally.Counter
	MatcherRemoved         tally.Counter
	OfferTimedOut          tally.Counter
	OpsRejected            tally.Counter
	OpsAccepted            tally.Counter
	AdmissionErrors        tally.Counter
	RecoveredPanics        tally.Counter
}

// NewMetrics returns a Metrics struct with every metric initialized
// and rooted at scope.
func NewMetrics(scope tally.Scope) *Metrics {
	gaugeScope := scope.SubScope("offermatcher")
	handlerScope := gaugeScope.SubScope("handler")

	return &Metrics{
		LaunchTokens:  gaugeScope.Gauge("launch_tokens"),
		CurrentOffers: gaugeScope.Gauge("current_offers"),

		MatchOfferTotal:        handlerScope.Counter("match_offer"),
		MatchOfferShortCircuit: handlerScope.Tagged(map[string]string{"result": "not_wanted"}).Counter("match_offer_short_circuit"),
		MatcherAdded:           handlerScope.Counter("matcher_added"),
		MatcherRemoved:         handlerScope.Counter("matcher_removed"),
		OfferTimedOut:          handlerScope.Counter("offer_timed_out"),
		OpsRejected:            handlerScope.Counter("ops_rejected"),
		OpsAccepted:            handlerScope.Counter("ops_accepted"),
		AdmissionErrors:        handlerScope.Counter("admission_errors"),
		RecoveredPanics:        handlerScope.Counter("recovered_panics"),
	}
}
