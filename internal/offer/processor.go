package offer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const mailboxSize = 256

// Processor is the central state machine of §4.5. It owns every
// mutable piece of shared state (matchers, launch tokens, in-flight
// offers) and touches none of it outside its own goroutine: all
// callers communicate through the mailbox channel, which the Run
// loop drains one message at a time. This is the single-writer
// discipline of spec §5, option (a).
type Processor struct {
	cfg      Config
	clock    Clock
	decode   PersistenceDecoder
	observer WantedObserver
	metrics  *Metrics
	rng      *rand.Rand

	mailbox chan interface{}
	stopCh  chan struct{}
	wg      sync.WaitGroup
	runCtx  context.Context

	// state below this line is owned exclusively by the Run goroutine.
	registry *Registry
	tokens   TokenAccountant
	offers   map[string]*OfferData
}

// NewProcessor constructs a Processor. decode may be nil, in which
// case no offer is ever treated as carrying a persistent reservation.
// observer may be nil, in which case NopWantedObserver is used.
func NewProcessor(cfg Config, clk Clock, decode PersistenceDecoder, observer WantedObserver, metrics *Metrics) *Processor {
	if observer == nil {
		observer = NopWantedObserver
	}
	return &Processor{
		cfg:      cfg,
		clock:    clk,
		decode:   decode,
		observer: observer,
		metrics:  metrics,
		rng:      rand.New(rand.NewSource(clk.Now().UnixNano())),
		mailbox:  make(chan interface{}, mailboxSize),
		stopCh:   make(chan struct{}),
		registry: NewRegistry(),
		offers:   make(map[string]*OfferData),
	}
}

// Run drains the mailbox until ctx is done. It is meant to be run in
// its own goroutine, typically by internal/common/async.Daemon.
func (p *Processor) Run(ctx context.Context) error {
	p.runCtx = ctx
	for {
		select {
		case msg := <-p.mailbox:
			p.handle(msg)
		case <-ctx.Done():
			close(p.stopCh)
			return ctx.Err()
		}
	}
}

// post enqueues msg onto the mailbox, dropping it if the Processor
// has already stopped. Used both by the facade and by goroutines
// relaying matcher futures and timers back to the single writer.
func (p *Processor) post(msg interface{}) {
	select {
	case p.mailbox <- msg:
	case <-p.stopCh:
	}
}

// handle dispatches one mailbox message. It recovers from any panic
// raised while handling it, including one raised by caller-supplied
// code reached indirectly, such as a Matcher's Precedence or a
// PersistenceDecoder consulted while building a match queue, so a
// single bad participant can never take down the single-writer
// goroutine.
func (p *Processor) handle(msg interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"type":  fmt.Sprintf("%T", msg),
				"panic": r,
			}).Error("offer matcher: recovered panic while handling mailbox message")
			p.metrics.RecoveredPanics.Inc(1)
		}
	}()

	switch m := msg.(type) {
	case matchOfferMsg:
		p.handleMatchOffer(m)
	case addMatcherMsg:
		p.handleAddMatcher(m)
	case removeMatcherMsg:
		p.handleRemoveMatcher(m)
	case setTokensMsg:
		p.handleSetTokens(m)
	case addTokensMsg:
		p.handleAddTokens(m)
	case matchedOpsMsg:
		p.handleMatchedOps(m)
	case timeoutMsg:
		p.handleTimeout(m)
	default:
		log.WithField("type", fmt.Sprintf("%T", msg)).Error("offer processor: unknown mailbox message")
	}
}

// wanted implements the predicate of spec §4.3/§4.5.
func (p *Processor) wanted() bool {
	return computeWanted(p.registry.Count(), p.tokens.Balance())
}

func (p *Processor) publishWanted() {
	p.observer.Publish(p.wanted())
}

// --- §4.1 Matcher Registry -------------------------------------------------

func (p *Processor) handleAddMatcher(m addMatcherMsg) {
	if p.registry.Add(m.matcher) {
		// Append to every in-flight offer's queue, per spec §9's fix
		// to the source's lost-append bug: freshly registered matchers
		// may still benefit in-flight offers.
		for _, data := range p.offers {
			data.MatcherQueue = append(data.MatcherQueue, m.matcher)
		}
		p.publishWanted()
		p.metrics.MatcherAdded.Inc(1)
	}
	m.ack <- m.matcher
}

func (p *Processor) handleRemoveMatcher(m removeMatcherMsg) {
	if p.registry.Remove(m.matcher) {
		// In-flight OfferData queues are left untouched: removal is a
		// hint, not a cancel (spec §4.1).
		p.publishWanted()
		p.metrics.MatcherRemoved.Inc(1)
	}
	m.ack <- m.matcher
}

// --- §4.2 Token Accountant --------------------------------------------------

func (p *Processor) handleSetTokens(m setTokensMsg) {
	becamePositive := p.tokens.Set(m.n)
	p.metrics.LaunchTokens.Update(float64(p.tokens.Balance()))
	if becamePositive {
		p.publishWanted()
	}
}

func (p *Processor) handleAddTokens(m addTokensMsg) {
	becamePositive := p.tokens.Add(m.n)
	p.metrics.LaunchTokens.Update(float64(p.tokens.Balance()))
	if becamePositive {
		p.publishWanted()
	}
}

// --- §4.5 Offer Processor ---------------------------------------------------

func (p *Processor) handleMatchOffer(m matchOfferMsg) {
	p.metrics.MatchOfferTotal.Inc(1)

	if !p.wanted() {
		p.metrics.MatchOfferShortCircuit.Inc(1)
		m.promise.TrySucceed(&MatchedInstanceOps{
			OfferID:         m.offer.OfferID,
			Ops:             nil,
			ResendThisOffer: false,
		})
		return
	}

	queue := buildMatcherQueue(p.registry.Snapshot(), m.offer, p.decode, p.rng)
	data := &OfferData{
		Offer:        m.offer,
		Deadline:     m.deadline,
		Promise:      m.promise,
		MatcherQueue: queue,
	}
	p.offers[m.offer.OfferID] = data
	p.metrics.CurrentOffers.Update(float64(len(p.offers)))

	p.scheduleTimeout(m.offer.OfferID, m.deadline)
	p.stepOffer(m.offer.OfferID)
}

// scheduleTimeout arranges for a timeoutMsg to land back on the
// mailbox at deadline. This is the only cancellation signal in the
// system (spec §5): it does not cancel any outstanding matcher
// future, and firing for an offer that has already completed is a
// benign no-op (spec §7 kind 4).
func (p *Processor) scheduleTimeout(offerID string, deadline time.Time) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		timer := p.clock.NewTimer(deadline.Sub(p.clock.Now()))
		defer timer.Stop()
		select {
		case <-timer.C():
			p.post(timeoutMsg{offerID: offerID})
		case <-p.runCtx.Done():
		case <-p.stopCh:
		}
	}()
}

// stepOffer implements scheduleNextMatcherOrFinish (spec §4.5): it
// checks the stop conditions in order and either completes the offer
// or dispatches the next matcher in the queue.
func (p *Processor) stepOffer(offerID string) {
	data := p.offers[offerID]
	if data == nil {
		return
	}

	now := p.clock.Now()
	switch {
	case !now.Before(data.Deadline):
		log.WithFields(log.Fields{
			"offer_id": offerID,
			"deadline": data.Deadline,
		}).Warn("offer matcher: offer is overdue, completing with partial result")
		p.completeOffer(offerID)
		return
	case len(data.Ops) >= p.cfg.MaxInstancesPerOffer:
		log.WithFields(log.Fields{
			"offer_id": offerID,
			"cap":      p.cfg.MaxInstancesPerOffer,
			"flag":     p.cfg.MaxInstancesPerOfferFlagName,
		}).Debug("offer matcher: per-offer instance cap reached, completing offer")
		p.completeOffer(offerID)
		return
	case p.tokens.Balance() <= 0:
		p.completeOffer(offerID)
		return
	case len(data.MatcherQueue) == 0:
		p.completeOffer(offerID)
		return
	}

	m := data.MatcherQueue[0]
	data.MatcherQueue = data.MatcherQueue[1:]
	p.dispatchMatcher(offerID, m, now, data.Deadline, data.Offer)
}

// dispatchMatcher calls m.MatchOffer and relays its eventual response
// (or a synthesized no-match, on future failure) back onto the
// mailbox. At most one outstanding matcher call exists per offer: the
// next call for this offer is only issued from stepOffer, which only
// runs again once this response has been fully processed.
func (p *Processor) dispatchMatcher(offerID string, m Matcher, now, deadline time.Time, currentOffer *Offer) {
	resultCh := m.MatchOffer(p.runCtx, now, deadline, currentOffer)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case result, ok := <-resultCh:
			if !ok || result.Err != nil || result.Ops == nil {
				p.post(matchedOpsMsg{offerID: offerID, source: m, ops: nil, resend: true})
				return
			}
			p.post(matchedOpsMsg{
				offerID: offerID,
				source:  m,
				ops:     result.Ops.Ops,
				resend:  result.Ops.ResendThisOffer,
			})
		case <-p.stopCh:
		}
	}()
}

// handleMatchedOps implements spec §4.5's "On MatchedInstanceOps" and
// the unknown-offerId branch.
func (p *Processor) handleMatchedOps(m matchedOpsMsg) {
	data := p.offers[m.offerID]
	if data == nil {
		// The offer already timed out or completed; this is a benign
		// race (spec §7 kind 3).
		for _, op := range m.ops {
			p.safeReject(op, m.source, fmt.Sprintf("offer '%s' already timed out", m.offerID))
		}
		return
	}

	data.MatchPasses++
	data.ResendThisOffer = data.ResendThisOffer || m.resend

	k := admissionLimit(p.tokens.Balance(), len(m.ops), p.cfg.MaxInstancesPerOffer-len(data.Ops))
	accepted, rejected := m.ops[:k], m.ops[k:]

	for _, op := range rejected {
		p.safeReject(op, m.source, "not enough launch tokens OR already scheduled sufficient instances on offer")
	}
	p.metrics.OpsRejected.Inc(int64(len(rejected)))

	admitErr := p.admitOps(data, accepted)
	if admitErr != nil {
		log.WithFields(log.Fields{
			"offer_id": m.offerID,
			"matcher":  fmt.Sprintf("%T", m.source),
			"error":    admitErr,
		}).Error("offer matcher: failed to admit ops, dropping this matcher's proposal")
		p.metrics.AdmissionErrors.Inc(1)
	}

	// Re-enqueue the matcher only if it offered something this pass.
	// On the admission-exception path the offender is not re-queued
	// (spec §7 kind 2; §9 open question 2 leaves whether a retry is
	// desired here as a stakeholder decision still to be made).
	if admitErr == nil && len(m.ops) > 0 {
		data.MatcherQueue = append(data.MatcherQueue, m.source)
	}

	p.stepOffer(m.offerID)
}

// safeReject invokes op.Reject, recovering from and logging any panic
// it raises, along with the offending matcher's identity, so a
// misbehaving Reject callback is isolated to this one op rather than
// reaching the mailbox loop. Reject is caller-supplied code, same as
// InstanceOp.ApplyToOffer.
func (p *Processor) safeReject(op *InstanceOpWithSource, source Matcher, reason string) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"matcher": fmt.Sprintf("%T", source),
				"panic":   r,
			}).Error("offer matcher: recovered panic from a Reject callback")
			p.metrics.RecoveredPanics.Inc(1)
		}
	}()
	op.Reject(reason)
}

// admissionLimit computes k = min(launchTokens, len(addedOps), residualCap),
// clamped to [0, len(addedOps)] (spec §4.5 step 2).
func admissionLimit(launchTokens int64, addedOps, residualCap int) int {
	k := addedOps
	if int(launchTokens) < k {
		k = int(launchTokens)
	}
	if residualCap < k {
		k = residualCap
	}
	if k < 0 {
		k = 0
	}
	return k
}

// admitOps folds accepted ops into data's offer and ops list, and
// debits the token balance. If anything panics while folding — an
// op's ApplyToOffer may be third-party code — data is restored to
// exactly the state it had on entry and no partial admission is
// observed, per spec §4.5 step 6 / §7 kind 2.
func (p *Processor) admitOps(data *OfferData, accepted []*InstanceOpWithSource) (err error) {
	if len(accepted) == 0 {
		return nil
	}

	origOffer, origOps := data.Offer, data.Ops
	defer func() {
		if r := recover(); r != nil {
			data.Offer, data.Ops = origOffer, origOps
			err = errors.Errorf("panic while admitting ops: %v", r)
		}
	}()

	offerAfter := data.Offer
	newOps := make([]*InstanceOpWithSource, len(accepted))
	for i, op := range accepted {
		offerAfter = op.Op.ApplyToOffer(offerAfter)
		newOps[i] = op
	}

	data.Offer = offerAfter
	data.Ops = append(newOps, data.Ops...) // newest first
	p.tokens.Debit(int64(len(accepted)))
	p.metrics.LaunchTokens.Update(float64(p.tokens.Balance()))
	p.metrics.OpsAccepted.Inc(int64(len(accepted)))
	return nil
}

func (p *Processor) handleTimeout(m timeoutMsg) {
	data := p.offers[m.offerID]
	if data == nil {
		// Benign: the offer already completed (spec §7 kind 4).
		return
	}
	data.ResendThisOffer = true
	p.metrics.OfferTimedOut.Inc(1)
	p.completeOffer(m.offerID)
}

// completeWithMatchResult / completeOffer fulfills the promise
// exactly once and removes the OfferData (spec §4.5 "Completion").
func (p *Processor) completeOffer(offerID string) {
	data := p.offers[offerID]
	if data == nil {
		return
	}
	delete(p.offers, offerID)
	p.metrics.CurrentOffers.Update(float64(len(p.offers)))

	data.Promise.TrySucceed(&MatchedInstanceOps{
		OfferID:         offerID,
		Ops:             data.Ops,
		ResendThisOffer: data.ResendThisOffer,
	})

	log.WithFields(log.Fields{
		"offer_id":           offerID,
		"match_passes":       data.MatchPasses,
		"ops_accepted":       len(data.Ops),
		"resend_this_offer":  data.ResendThisOffer,
		"leftover_resources": len(data.Offer.Resources),
	}).Debug("offer matcher: offer resolved")
}

// Wait blocks until every outstanding goroutine spawned by the
// Processor (timers, matcher relays) has exited. Intended for use
// after Run has returned, during graceful shutdown.
func (p *Processor) Wait() {
	p.wg.Wait()
}
