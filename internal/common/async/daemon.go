package async

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Daemon wraps a Runnable with idempotent Start/Stop so the offer
// processor's main loop can be launched and torn down the same way as
// every other long-running goroutine in this service.
type Daemon interface {
	// Start launches the runnable if it is not already running. It
	// returns once the daemon's state is running; the runnable's own
	// goroutine may not have begun executing Run yet.
	Start()

	// Stop cancels the runnable's context and blocks until the
	// runnable has returned.
	Stop()
}

// Runnable is anything a Daemon can drive.
type Runnable interface {
	Run(ctx context.Context) (err error)
}

type runnableFunc struct {
	fn func(context.Context) error
}

func (r *runnableFunc) Run(ctx context.Context) (err error) {
	return r.fn(ctx)
}

// NewRunnable adapts a plain function into a Runnable, for callers
// that don't already have a type with a Run method.
// cmd/offermatcher uses it to run the offer Processor against the
// Processor's own context.
func NewRunnable(fn func(context.Context) error) Runnable {
	return &runnableFunc{fn: fn}
}

// NewDaemon builds a Daemon named name around runnable. name is used
// only for log lines.
func NewDaemon(name string, runnable Runnable) Daemon {
	return &daemon{
		cond:     sync.NewCond(&sync.Mutex{}),
		name:     name,
		runnable: runnable,
	}
}

type daemonState uint

const (
	daemonStopped daemonState = iota
	daemonRunning
	daemonStopping
)

func (s daemonState) String() string {
	switch s {
	case daemonRunning:
		return "running"
	case daemonStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

type daemon struct {
	cancel   context.CancelFunc
	cond     *sync.Cond
	state    daemonState
	name     string
	runnable Runnable
}

func (d *daemon) markStopped() {
	d.cond.L.Lock()
	defer d.cond.L.Unlock()
	d.state = daemonStopped
	d.cond.Broadcast()
}

func (d *daemon) Start() {
	d.cond.L.Lock()
	defer d.cond.L.Unlock()
	for {
		switch d.state {
		case daemonRunning:
			return
		case daemonStopping:
			d.cond.Wait()
		case daemonStopped:
			ctx, cancel := context.WithCancel(context.Background())
			d.cancel = cancel
			go func() {
				defer d.markStopped()
				if err := d.runnable.Run(ctx); err != nil && err != context.Canceled {
					log.WithFields(log.Fields{
						"daemon": d.name,
						"error":  err,
					}).Error("daemon exited with error")
				}
			}()
			d.state = daemonRunning
			d.cond.Broadcast()
			log.WithField("daemon", d.name).Info("daemon started")
			return
		}
	}
}

func (d *daemon) Stop() {
	d.cond.L.Lock()
	defer d.cond.L.Unlock()
	for {
		switch d.state {
		case daemonRunning:
			d.state = daemonStopping
			if d.cancel != nil {
				d.cancel()
				d.cancel = nil
			}
			d.cond.Wait()
		case daemonStopping:
			d.cond.Wait()
		case daemonStopped:
			log.WithField("daemon", d.name).Info("daemon stopped")
			return
		}
	}
}
