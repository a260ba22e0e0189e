// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Command infrapoller polls OpenStack clouds and Kubernetes leader
// election records and exposes their health as prometheus metrics.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4/dependency"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/juju/infrapoller/internal/config"
	"github.com/juju/infrapoller/internal/kube"
	"github.com/juju/infrapoller/internal/metrics"
	"github.com/juju/infrapoller/internal/worker/signalhandler"
)

var logger = loggo.GetLogger("infrapoller")

// Version is set at link time.
var Version = "dev"

const (
	defaultConfigPath    = "/etc/infrapoller/config.yaml"
	defaultLoggingConfig = "<root>=INFO"
)

func main() {
	os.Exit(Main(os.Args[1:]))
}

// Main runs the poller with the given arguments and returns the exit
// code.
func Main(args []string) int {
	var (
		configPath    string
		loggingConfig string
		showVersion   bool
	)
	flags := gnuflag.NewFlagSet("infrapoller", gnuflag.ContinueOnError)
	flags.StringVar(&configPath, "config", defaultConfigPath, "path of the configuration file")
	flags.StringVar(&loggingConfig, "logging-config", defaultLoggingConfig, "loggo configuration string")
	flags.BoolVar(&showVersion, "version", false, "print the version and exit")
	if err := flags.Parse(true, args); err != nil {
		return 2
	}
	if showVersion {
		fmt.Println(Version)
		return 0
	}

	if err := loggo.ConfigureLoggers(loggingConfig); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config %q: %v\n", loggingConfig, err)
		return 2
	}
	kube.RouteKlog()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	if err := runUntilTerminated(configPath, signals); err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}

// runUntilTerminated runs the poller, reading the configuration afresh
// every time a reload is requested.
func runUntilTerminated(configPath string, signals <-chan os.Signal) error {
	for {
		err := run(configPath, signals)
		switch {
		case errors.Is(err, signalhandler.ErrReload):
			logger.Infof("reloading configuration from %s", configPath)
		case errors.Is(err, signalhandler.ErrTerminate):
			logger.Infof("shutting down")
			return nil
		default:
			return err
		}
	}
}

func run(configPath string, signals <-chan os.Signal) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return errors.Trace(err)
	}
	logger.Infof("polling %d OpenStack instance(s) and %d leader election record(s)",
		len(cfg.OpenStack), len(cfg.LeaderElection))

	clk := clock.WallClock
	collector := metrics.NewCollector(clk, cfg.Metrics.Staleness)
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return errors.Annotate(err, "registering collector")
	}

	instanceID, err := os.Hostname()
	if err != nil || instanceID == "" {
		instanceID = uuid.NewString()
	}
	manifolds, err := makeManifolds(manifoldsConfig{
		Config:        cfg,
		ConfigPath:    configPath,
		Collector:     collector,
		Gatherer:      registry,
		Clock:         clk,
		InstanceID:    instanceID,
		Version:       Version,
		Signals:       signals,
		NewKubeClient: kube.NewClient,
	})
	if err != nil {
		return errors.Trace(err)
	}

	engine, err := dependency.NewEngine(engineConfig(clk))
	if err != nil {
		return errors.Trace(err)
	}
	if err := dependency.Install(engine, manifolds); err != nil {
		engine.Kill()
		_ = engine.Wait()
		return errors.Trace(err)
	}
	return engine.Wait()
}
