package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
	tallyprom "github.com/uber-go/tally/prometheus"
	tallystatsd "github.com/uber-go/tally/statsd"
)

// FlushInterval is the tally reporting cadence used across the
// binary, mirroring the teacher's metrics.TallyFlushInterval.
const FlushInterval = time.Second

// Config selects the metrics backend for the process. At most one of
// Prometheus or Statsd should be enabled; neither enabled falls back
// to a statsd noop client, same as the teacher.
type Config struct {
	Prometheus *PrometheusConfig `yaml:"prometheus"`
	Statsd     *StatsdConfig     `yaml:"statsd"`
}

// PrometheusConfig enables the Prometheus tally reporter.
type PrometheusConfig struct {
	Enable bool `yaml:"enable"`
}

// StatsdConfig enables the statsd tally reporter.
type StatsdConfig struct {
	Enable   bool   `yaml:"enable"`
	Endpoint string `yaml:"endpoint"`
}

// LivenessFunc reports whether the process is healthy enough to serve
// the /health endpoint with a 200.
type LivenessFunc func() bool

// InitScope builds a root tally.Scope plus an *http.ServeMux carrying
// a /health handler (gated on isLive) and, when Prometheus is
// enabled, a /metrics handler. The caller is responsible for serving
// the mux and for closing the returned io.Closer on shutdown.
func InitScope(cfg *Config, rootName string, isLive LivenessFunc) (tally.Scope, io.Closer, *http.ServeMux) {
	mux := http.NewServeMux()

	var reporter tally.StatsReporter
	var cachedReporter tally.CachedStatsReporter
	var promHandler http.Handler
	separator := "."

	switch {
	case cfg.Prometheus != nil && cfg.Prometheus.Enable:
		rootName = strings.Replace(rootName, "-", "_", -1)
		separator = "_"
		promReporter := tallyprom.NewReporter(tallyprom.Options{})
		cachedReporter = promReporter
		promHandler = promReporter.HTTPHandler()
	case cfg.Statsd != nil && cfg.Statsd.Enable:
		log.WithField("endpoint", cfg.Statsd.Endpoint).Info("offermatcher: metrics configured with statsd endpoint")
		c, err := statsd.NewClient(cfg.Statsd.Endpoint, "")
		if err != nil {
			log.WithField("error", err).Fatal("offermatcher: unable to set up statsd client")
		}
		reporter = tallystatsd.NewReporter(c, tallystatsd.Options{})
	default:
		log.Warn("offermatcher: no metrics backend configured, using a noop statsd client")
		c, _ := statsd.NewNoopClient()
		reporter = tallystatsd.NewReporter(c, tallystatsd.Options{})
	}

	if promHandler != nil {
		mux.Handle("/metrics", promHandler)
	}

	if isLive == nil {
		isLive = func() bool { return true }
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		if isLive() {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "not ready")
	})

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:         rootName,
		Tags:           map[string]string{},
		Reporter:       reporter,
		CachedReporter: cachedReporter,
		Separator:      separator,
	}, FlushInterval)

	return scope, closer, mux
}
