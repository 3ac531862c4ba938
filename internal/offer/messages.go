package offer

import "time"

// The Processor's mailbox carries these message types. All of them
// are handled one at a time by the single Processor goroutine; this
// is the entirety of the inbound surface described in spec §6.
type matchOfferMsg struct {
	deadline time.Time
	offer    *Offer
	promise  *Promise
}

type addMatcherMsg struct {
	matcher Matcher
	ack     chan<- Matcher
}

type removeMatcherMsg struct {
	matcher Matcher
	ack     chan<- Matcher
}

type setTokensMsg struct {
	n int64
}

type addTokensMsg struct {
	n int64
}

// matchedOpsMsg is both the reply to a dispatched matcher call and
// the synthesized no-match substituted when a matcher's future fails.
type matchedOpsMsg struct {
	offerID string
	source  Matcher
	ops     []*InstanceOpWithSource
	resend  bool
}

type timeoutMsg struct {
	offerID string
}
