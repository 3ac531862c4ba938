package main

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"code.uber.internal/infra/offermatcher/internal/config"
	"code.uber.internal/infra/offermatcher/internal/offer"
	"code.uber.internal/infra/offermatcher/internal/util/randutil"
)

// simulator stands in for a live cluster manager: it registers a pool
// of synthetic matchers against the facade and then repeatedly
// manufactures offers and submits them for matching, logging the
// outcome. It exists purely to make the binary runnable end-to-end
// without a real upstream; see SPEC_FULL.md's supplemented features.
type simulator struct {
	facade *offer.Facade
	cfg    config.SimulatorConfig
}

func newSimulator(facade *offer.Facade, cfg config.SimulatorConfig) *simulator {
	return &simulator{facade: facade, cfg: cfg}
}

// run registers cfg.MatcherCount synthetic matchers and then loops
// producing offers every cfg.OfferInterval until ctx is done.
func (s *simulator) run(ctx context.Context) {
	for i := 0; i < s.cfg.MatcherCount; i++ {
		m := newSimMatcher(i)
		if _, err := s.facade.AddOrUpdateMatcher(ctx, m); err != nil {
			log.WithField("error", err).Warn("offermatcher: simulator could not register matcher")
			return
		}
	}
	s.facade.SetInstanceLaunchTokens(s.cfg.InitialLaunchTokens)

	ticker := time.NewTicker(s.cfg.OfferInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.submitOffer(ctx)
		}
	}
}

func (s *simulator) submitOffer(ctx context.Context) {
	o := &offer.Offer{
		OfferID:  randutil.OfferID(),
		Hostname: "sim-host-" + uuid.NewString()[:8],
	}
	if rand.Intn(3) == 0 {
		o.Resources = []offer.Resource{
			{Name: "disk", Reservation: &offer.Reservation{PersistenceID: randutil.AppID("/sim")}},
		}
	}

	deadline := time.Now().Add(s.cfg.OfferDeadline)
	result, err := s.facade.MatchOffer(ctx, deadline, o)
	if err != nil {
		log.WithFields(log.Fields{"offer_id": o.OfferID, "error": err}).Debug("offermatcher: simulator match cancelled")
		return
	}
	log.WithFields(log.Fields{
		"offer_id":          result.OfferID,
		"ops_accepted":      len(result.Ops),
		"resend_this_offer": result.ResendThisOffer,
	}).Info("offermatcher: simulator offer resolved")
}

// simMatcher is a Matcher that proposes a single op with probability
// 1/2 on each of its first three calls (counted across all offers)
// and no op after that, to exercise multi-pass matching and eventual
// exhaustion without ever blocking.
type simMatcher struct {
	id         int
	precedence map[string]struct{}
	calls      int64
}

func newSimMatcher(id int) *simMatcher {
	m := &simMatcher{id: id}
	if id == 0 {
		m.precedence = map[string]struct{}{"/sim": {}}
	}
	return m
}

func (m *simMatcher) MatchOffer(ctx context.Context, _, _ time.Time, o *offer.Offer) <-chan offer.MatchResult {
	ch := make(chan offer.MatchResult, 1)
	call := atomic.AddInt64(&m.calls, 1)

	go func() {
		defer close(ch)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(rand.Intn(5)) * time.Millisecond):
		}

		if call > 3 || rand.Intn(2) == 0 {
			ch <- offer.MatchResult{Ops: &offer.MatchedInstanceOps{OfferID: o.OfferID}}
			return
		}

		op := &offer.InstanceOpWithSource{
			Op: launchOp{},
			Reject: func(reason string) {
				log.WithFields(log.Fields{
					"offer_id": o.OfferID,
					"matcher":  m.id,
					"reason":   reason,
				}).Debug("offermatcher: simulator op rejected")
			},
		}
		ch <- offer.MatchResult{Ops: &offer.MatchedInstanceOps{OfferID: o.OfferID, Ops: []*offer.InstanceOpWithSource{op}}}
	}()
	return ch
}

func (m *simMatcher) Precedence() map[string]struct{} { return m.precedence }

// launchOp is a no-op InstanceOp: the simulator has no real resources
// to subtract from an offer.
type launchOp struct{}

func (launchOp) ApplyToOffer(o *offer.Offer) *offer.Offer { return o }
