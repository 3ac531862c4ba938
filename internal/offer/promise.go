package offer

import (
	"context"
	"sync"
)

// Promise is a single-shot completion handle for a MatchOffer caller.
// TrySucceed is safe to call more than once; only the first call has
// an effect, matching the trySucceed semantics required for offers
// that could otherwise be completed twice (once by a matcher response,
// once by a racing timeout).
type Promise struct {
	once sync.Once
	ch   chan *MatchedInstanceOps
}

// NewPromise returns a Promise ready to be waited on.
func NewPromise() *Promise {
	return &Promise{ch: make(chan *MatchedInstanceOps, 1)}
}

// TrySucceed completes the promise with result. Second and later
// calls are silently ignored.
func (p *Promise) TrySucceed(result *MatchedInstanceOps) {
	p.once.Do(func() {
		p.ch <- result
	})
}

// Wait blocks until the promise is completed or ctx is done.
func (p *Promise) Wait(ctx context.Context) (*MatchedInstanceOps, error) {
	select {
	case result := <-p.ch:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
