package async

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// runCounter is a Runnable that counts how many times it has run,
// standing in for the offer Processor's Run method in tests that only
// care about Daemon's start/stop bookkeeping.
type runCounter struct {
	runs int64
}

func (c *runCounter) Run(ctx context.Context) error {
	atomic.AddInt64(&c.runs, 1)
	return nil
}

func (c *runCounter) atLeast(expected int64) int64 {
	for {
		value := atomic.LoadInt64(&c.runs)
		if value >= expected {
			return value
		}
	}
}

// blockingRunnable stays in Run until its context is cancelled,
// standing in for the Processor's real blocking select loop.
type blockingRunnable struct {
	mu        sync.Mutex
	running   bool
	sawCancel bool
}

func (b *blockingRunnable) isRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *blockingRunnable) setRunning(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = v
}

func (b *blockingRunnable) Run(ctx context.Context) error {
	b.setRunning(true)
	defer b.setRunning(false)
	<-ctx.Done()
	b.sawCancel = true
	return ctx.Err()
}

func newBlockingDaemon() (Daemon, *blockingRunnable) {
	r := &blockingRunnable{}
	return NewDaemon("blocking", r), r
}

func newCountingDaemon() (Daemon, *runCounter) {
	c := &runCounter{}
	return NewDaemon("counting", c), c
}

func TestDaemonStart(t *testing.T) {
	d, counter := newCountingDaemon()
	d.Start()
	first := counter.atLeast(1)
	assert.True(t, first > 0)
	d.Stop()
}

func TestDaemonStopCancelsContext(t *testing.T) {
	d, r := newBlockingDaemon()
	d.Start()
	for !r.isRunning() {
	}
	d.Stop()
	for r.isRunning() {
	}
	assert.True(t, r.sawCancel)
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	d, counter := newCountingDaemon()
	d.Start()
	counter.atLeast(1)
	d.Stop()
	d.Stop()
}

func TestDaemonStartAfterStopRunsAgain(t *testing.T) {
	d, counter := newCountingDaemon()
	d.Start()
	counter.atLeast(1)
	d.Stop()

	d.Start()
	second := counter.atLeast(2)
	assert.True(t, second >= 2)
	d.Stop()
}
