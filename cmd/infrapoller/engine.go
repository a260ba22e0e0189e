// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4/dependency"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/client-go/kubernetes"

	"github.com/juju/infrapoller/internal/backoff"
	"github.com/juju/infrapoller/internal/config"
	"github.com/juju/infrapoller/internal/inventory"
	"github.com/juju/infrapoller/internal/kube"
	"github.com/juju/infrapoller/internal/leaderelection"
	"github.com/juju/infrapoller/internal/metrics"
	"github.com/juju/infrapoller/internal/tracing"
	"github.com/juju/infrapoller/internal/worker/configwatcher"
	"github.com/juju/infrapoller/internal/worker/leaderelectioncheck"
	"github.com/juju/infrapoller/internal/worker/metricsserver"
	"github.com/juju/infrapoller/internal/worker/openstackcheck"
	"github.com/juju/infrapoller/internal/worker/signalhandler"
)

const (
	tracerName        = "tracer"
	metricsServerName = "metrics-server"
	signalHandlerName = "signal-handler"
	configWatcherName = "config-watcher"

	configSettle = 2 * time.Second
)

func engineConfig(clk clock.Clock) dependency.EngineConfig {
	return dependency.EngineConfig{
		IsFatal:          isFatal,
		WorstError:       moreImportantError,
		ErrorDelay:       3 * time.Second,
		BounceDelay:      10 * time.Millisecond,
		BackoffFactor:    1.2,
		BackoffResetTime: time.Minute,
		MaxDelay:         2 * time.Minute,
		Clock:            clk,
		Metrics:          dependency.DefaultMetrics(),
		Logger:           loggo.GetLogger("infrapoller.worker.dependency"),
	}
}

// isFatal reports whether err stops the whole engine. Invalid
// configuration never fixes itself by restarting a worker.
func isFatal(err error) bool {
	return isSignal(err) ||
		errors.Is(err, errors.NotValid) ||
		errors.Is(err, errors.NotSupported)
}

func isSignal(err error) bool {
	return errors.Is(err, signalhandler.ErrTerminate) || errors.Is(err, signalhandler.ErrReload)
}

var signalErrors = map[os.Signal]error{
	syscall.SIGHUP: signalhandler.ErrReload,
}

// moreImportantError prefers configuration errors over signals, and
// both over anything else.
func moreImportantError(err0, err1 error) error {
	if isFatal(err0) && isSignal(err1) {
		return err0
	}
	if isFatal(err1) && isSignal(err0) {
		return err1
	}
	if isFatal(err0) || err1 == nil {
		return err0
	}
	return err1
}

// manifoldsConfig holds what the manifolds of the poller share.
type manifoldsConfig struct {
	Config     *config.Config
	ConfigPath string
	Collector  *metrics.Collector
	Gatherer   prometheus.Gatherer
	Clock      clock.Clock
	InstanceID string
	Version    string

	Signals       <-chan os.Signal
	NewKubeClient func(kube.Config) (kubernetes.Interface, error)
}

// makeManifolds returns a manifold per configured target, plus the
// tracer, the metrics server and the workers requesting shutdown or
// reload.
func makeManifolds(cfg manifoldsConfig) (dependency.Manifolds, error) {
	c := cfg.Config
	manifolds := dependency.Manifolds{
		tracerName: tracing.Manifold(tracing.ManifoldConfig{
			Config: tracing.Config{
				Endpoint:   c.Tracing.Endpoint,
				Insecure:   c.Tracing.Insecure,
				InstanceID: cfg.InstanceID,
				Version:    cfg.Version,
			},
			NewClient: tracing.NewClient,
		}),
		metricsServerName: metricsserver.Manifold(metricsserver.Config{
			ListenAddress: c.Metrics.Listen,
			Gatherer:      cfg.Gatherer,
			Logger:        loggo.GetLogger("infrapoller.worker.metricsserver"),
		}),
		signalHandlerName: signalhandler.Manifold(signalhandler.ManifoldConfig{
			Signals: cfg.Signals,
			Handler: signalhandler.Handler(signalhandler.ErrTerminate, signalErrors),
			Logger:  loggo.GetLogger("infrapoller.worker.signalhandler"),
		}),
		configWatcherName: configwatcher.Manifold(configwatcher.Config{
			Path:   cfg.ConfigPath,
			Settle: configSettle,
			Clock:  cfg.Clock,
			Logger: loggo.GetLogger("infrapoller.worker.configwatcher"),
		}),
	}

	servers := inventory.NewCache(cfg.Clock)
	for _, instance := range c.OpenStack {
		controller, err := backoff.NewController(backoff.Config{
			Clock: cfg.Clock,
			Base:  instance.BackoffBase,
			Max:   instance.BackoffMax,
		})
		if err != nil {
			return nil, errors.Annotatef(err, "instance %q", instance.Name)
		}
		manifolds["openstack-"+instance.Name] = openstackcheck.Manifold(openstackcheck.ManifoldConfig{
			TracerName: tracerName,
			Instance:   instance,
			Backoff:    controller,
			Inventory:  servers,
			Sink:       cfg.Collector,
			HostTagger: cfg.Collector,
			Connect:    openstackcheck.Connect,
			NewWorker:  openstackcheck.NewWorker,
			Clock:      cfg.Clock,
			Logger:     loggo.GetLogger("infrapoller.worker.openstackcheck"),
		})
	}

	if len(c.LeaderElection) == 0 {
		return manifolds, nil
	}
	client, err := cfg.NewKubeClient(kube.Config{
		KubeConfig: c.KubeConfig,
		Context:    c.KubeContext,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	getter := leaderelection.NewGetter(client, cfg.Clock)
	for _, record := range c.LeaderElection {
		name := fmt.Sprintf("leader-election-%s-%s-%s", record.Namespace, record.RecordNamespace, record.RecordName)
		manifolds[name] = leaderelectioncheck.Manifold(leaderelectioncheck.ManifoldConfig{
			TracerName: tracerName,
			Record:     record,
			Getter:     getter,
			Sink:       cfg.Collector,
			NewWorker:  leaderelectioncheck.NewWorker,
			Clock:      cfg.Clock,
			Logger:     loggo.GetLogger("infrapoller.worker.leaderelectioncheck"),
		})
	}
	return manifolds, nil
}
