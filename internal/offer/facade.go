package offer

import (
	"context"
	"time"
)

// Facade is the only way callers interact with the Processor (spec
// §4.6). Every method serializes through the Processor's single
// mailbox; AddOrUpdateMatcher and RemoveMatcher round-trip through an
// ack channel so the caller can rely on having observed the
// registration take effect before proceeding, the way the spec's
// MatcherAdded/MatcherRemoved replies do.
type Facade struct {
	proc *Processor
}

// NewFacade wraps proc.
func NewFacade(proc *Processor) *Facade {
	return &Facade{proc: proc}
}

// MatchOffer submits offer for matching and blocks until the
// Processor resolves it (match, exhaustion, or timeout) or ctx is
// done.
func (f *Facade) MatchOffer(ctx context.Context, deadline time.Time, o *Offer) (*MatchedInstanceOps, error) {
	promise := NewPromise()
	msg := matchOfferMsg{deadline: deadline, offer: o, promise: promise}
	select {
	case f.proc.mailbox <- msg:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return promise.Wait(ctx)
}

// AddOrUpdateMatcher registers m if it is not already registered.
// Idempotent: calling it twice with the same m is harmless and still
// acknowledged.
func (f *Facade) AddOrUpdateMatcher(ctx context.Context, m Matcher) (Matcher, error) {
	ack := make(chan Matcher, 1)
	select {
	case f.proc.mailbox <- addMatcherMsg{matcher: m, ack: ack}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case got := <-ack:
		return got, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RemoveMatcher unregisters m. Idempotent on a non-member.
func (f *Facade) RemoveMatcher(ctx context.Context, m Matcher) (Matcher, error) {
	ack := make(chan Matcher, 1)
	select {
	case f.proc.mailbox <- removeMatcherMsg{matcher: m, ack: ack}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case got := <-ack:
		return got, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SetInstanceLaunchTokens overwrites the launch-token balance.
func (f *Facade) SetInstanceLaunchTokens(n int64) {
	f.proc.post(setTokensMsg{n: n})
}

// AddInstanceLaunchTokens adds n to the launch-token balance.
func (f *Facade) AddInstanceLaunchTokens(n int64) {
	f.proc.post(addTokensMsg{n: n})
}
