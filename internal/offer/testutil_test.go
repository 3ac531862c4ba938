package offer

import (
	"context"
	"sync"
	"time"
)

// fakeMatcher is a Matcher driven by a canned sequence of responses,
// one per call. A response beyond the configured sequence returns an
// empty, non-resending match.
type fakeMatcher struct {
	name       string
	precedence map[string]struct{}

	mu        sync.Mutex
	calls     int
	responses []func(o *Offer) MatchResult
}

func newFakeMatcher(name string, responses ...func(o *Offer) MatchResult) *fakeMatcher {
	return &fakeMatcher{name: name, responses: responses}
}

func (m *fakeMatcher) MatchOffer(_ context.Context, _, _ time.Time, o *Offer) <-chan MatchResult {
	ch := make(chan MatchResult, 1)
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.mu.Unlock()

	go func() {
		if idx < len(m.responses) {
			ch <- m.responses[idx](o)
			return
		}
		ch <- MatchResult{Ops: &MatchedInstanceOps{OfferID: o.OfferID}}
	}()
	return ch
}

func (m *fakeMatcher) Precedence() map[string]struct{} { return m.precedence }

func (m *fakeMatcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// noopOp is an InstanceOp that doesn't change the offer it is applied
// to, useful for tests that only care about admission counting.
type noopOp struct {
	name string
}

func (o *noopOp) ApplyToOffer(of *Offer) *Offer { return of }

// withSource builds n InstanceOpWithSource values wrapping noopOps,
// recording rejection reasons into rejections (keyed by op name).
func withSource(rejections *sync.Map, names ...string) []*InstanceOpWithSource {
	out := make([]*InstanceOpWithSource, len(names))
	for i, name := range names {
		name := name
		out[i] = &InstanceOpWithSource{
			Op: &noopOp{name: name},
			Reject: func(reason string) {
				rejections.Store(name, reason)
			},
		}
	}
	return out
}

func testOffer(id string) *Offer {
	return &Offer{OfferID: id, Hostname: "host-" + id}
}

func reservedOffer(id, persistenceID string) *Offer {
	return &Offer{
		OfferID:  id,
		Hostname: "host-" + id,
		Resources: []Resource{
			{Name: "disk", Reservation: &Reservation{PersistenceID: persistenceID}},
		},
	}
}
