package health

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/atomic"
	"github.com/uber-go/tally"
)

// Heartbeat periodically emits a liveness gauge. It has no notion of
// leadership: the offer Processor is single-writer by construction
// and never elects anything, so unlike the teacher's heartbeat this
// one only answers "is the process alive," via an optional LiveFunc.
type Heartbeat interface {
	Start()
	Stop()
}

// LiveFunc reports whether the thing being monitored (typically the
// offer Processor's Run loop) is still making progress.
type LiveFunc func() bool

type heartbeat struct {
	sync.Mutex

	running  atomic.Bool
	stopCh   chan struct{}
	interval time.Duration
	metrics  *Metrics
	isLive   LiveFunc
}

var (
	hb   *heartbeat
	once sync.Once
)

// InitHeartbeat starts a process-wide heartbeat rooted at parent. A
// nil isLive always reports alive. Safe to call multiple times; only
// the first call takes effect.
func InitHeartbeat(parent tally.Scope, cfg Config, isLive LiveFunc) {
	once.Do(func() {
		if isLive == nil {
			isLive = func() bool { return true }
		}
		hb = &heartbeat{
			metrics:  NewMetrics(parent.SubScope("health")),
			interval: cfg.HeartbeatInterval,
			stopCh:   make(chan struct{}, 1),
			isLive:   isLive,
		}
		hb.metrics.Init.Inc(1)
		hb.Start()
	})
}

func (h *heartbeat) Start() {
	if h.running.Swap(true) {
		log.Warn("offermatcher: heartbeat already running")
		return
	}

	go func() {
		defer h.running.Store(false)
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stopCh:
				log.Info("offermatcher: heartbeat stopped")
				return
			case <-ticker.C:
				if h.isLive() {
					h.metrics.Heartbeat.Update(1)
				} else {
					h.metrics.Heartbeat.Update(0)
				}
			}
		}
	}()
	log.Info("offermatcher: heartbeat started")
}

func (h *heartbeat) Stop() {
	if !h.running.Load() {
		return
	}
	h.stopCh <- struct{}{}
	for h.running.Load() {
		time.Sleep(time.Millisecond)
	}
}
