package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"
	"gopkg.in/alecthomas/kingpin.v2"

	"code.uber.internal/infra/offermatcher/internal/common/async"
	"code.uber.internal/infra/offermatcher/internal/config"
	"code.uber.internal/infra/offermatcher/internal/health"
	"code.uber.internal/infra/offermatcher/internal/metrics"
	"code.uber.internal/infra/offermatcher/internal/offer"
)

var (
	version string
	app     = kingpin.New("offermatcher", "Offer matcher manager")

	debug = app.Flag(
		"debug", "enable debug-level logging").
		Short('d').
		Default("false").
		Envar("ENABLE_DEBUG_LOGGING").
		Bool()

	configFiles = app.Flag(
		"config",
		"YAML config files (can be provided multiple times to merge configs)").
		Short('c').
		Required().
		ExistingFiles()

	httpPort = app.Flag(
		"http-port", "HTTP port for /health and /metrics (http_port override)").
		Envar("HTTP_PORT").
		Int()

	initialLaunchTokens = app.Flag(
		"initial-launch-tokens", "Initial launch-token balance (simulator.initial_launch_tokens override)").
		Envar("INITIAL_LAUNCH_TOKENS").
		Int64()

	matcherCount = app.Flag(
		"matcher-count", "Number of synthetic matchers to register (simulator.matcher_count override)").
		Envar("MATCHER_COUNT").
		Int()
)

func main() {
	app.Version(version)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	level := log.InfoLevel
	if *debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.JSONFormatter{})

	log.WithField("files", *configFiles).Info("offermatcher: loading config")
	var cfg config.Config
	if err := config.Parse(&cfg, *configFiles...); err != nil {
		log.WithField("error", err).Fatal("offermatcher: cannot parse config")
	}

	if *httpPort != 0 {
		cfg.HTTPPort = *httpPort
	}
	if *initialLaunchTokens != 0 {
		cfg.Simulator.InitialLaunchTokens = *initialLaunchTokens
	}
	if *matcherCount != 0 {
		cfg.Simulator.MatcherCount = *matcherCount
	}
	log.WithField("config", cfg).Debug("offermatcher: loaded config")

	rootScope, scopeCloser, mux := metrics.InitScope(&cfg.Metrics, "offermatcher", nil)
	defer scopeCloser.Close()

	clk := offer.NewClock()
	proc := offer.NewProcessor(cfg.Offer, clk, nil, offer.NopWantedObserver, offer.NewMetrics(rootScope))
	facade := offer.NewFacade(proc)

	processorCtx, cancelProcessor := context.WithCancel(context.Background())
	defer cancelProcessor()

	daemon := async.NewDaemon("offer-processor", async.NewRunnable(func(context.Context) error {
		return proc.Run(processorCtx)
	}))
	daemon.Start()
	defer daemon.Stop()

	simCtx, cancelSim := context.WithCancel(context.Background())
	var simWG sync.WaitGroup
	simWG.Add(1)
	go func() {
		defer simWG.Done()
		newSimulator(facade, cfg.Simulator).run(simCtx)
	}()
	defer func() {
		cancelSim()
		simWG.Wait()
	}()

	health.InitHeartbeat(rootScope, cfg.Health, func() bool {
		return processorCtx.Err() == nil
	})

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	log.WithField("addr", addr).Info("offermatcher: serving /health and /metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithField("error", err).Fatal("offermatcher: http server exited")
	}
}
