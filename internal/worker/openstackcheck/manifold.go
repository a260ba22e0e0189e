// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package openstackcheck

import (
	"context"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/dependency"
	"go.opentelemetry.io/otel/trace"

	"github.com/juju/infrapoller/internal/backoff"
	"github.com/juju/infrapoller/internal/config"
	"github.com/juju/infrapoller/internal/inventory"
	"github.com/juju/infrapoller/internal/metrics"
	"github.com/juju/infrapoller/internal/worker/poller"
)

const tracerName = "infrapoller/openstack"

// ManifoldConfig defines the configuration of an OpenStack check
// manifold.
type ManifoldConfig struct {
	TracerName string

	Instance   config.OpenStackInstance
	Backoff    *backoff.Controller
	Inventory  *inventory.Cache
	Sink       metrics.Sink
	HostTagger metrics.HostTagger

	Connect   ConnectFunc
	NewWorker func(poller.Config) (worker.Worker, error)
	Clock     clock.Clock
	Logger    Logger
}

// Validate validates the manifold configuration.
func (cfg ManifoldConfig) Validate() error {
	if cfg.TracerName == "" {
		return errors.NotValidf("empty TracerName")
	}
	if cfg.Backoff == nil {
		return errors.NotValidf("nil Backoff")
	}
	if cfg.Inventory == nil {
		return errors.NotValidf("nil Inventory")
	}
	if cfg.Sink == nil {
		return errors.NotValidf("nil Sink")
	}
	if cfg.HostTagger == nil {
		return errors.NotValidf("nil HostTagger")
	}
	if cfg.Connect == nil {
		return errors.NotValidf("nil Connect")
	}
	if cfg.NewWorker == nil {
		return errors.NotValidf("nil NewWorker")
	}
	if cfg.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if cfg.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Manifold returns a dependency manifold that polls one OpenStack cloud.
func Manifold(config ManifoldConfig) dependency.Manifold {
	return dependency.Manifold{
		Inputs: []string{
			config.TracerName,
		},
		Start: func(ctx context.Context, getter dependency.Getter) (worker.Worker, error) {
			if err := config.Validate(); err != nil {
				return nil, errors.Trace(err)
			}

			var provider trace.TracerProvider
			if err := getter.Get(config.TracerName, &provider); err != nil {
				return nil, errors.Trace(err)
			}

			checker, err := NewChecker(CheckerConfig{
				Instance:   config.Instance,
				Connect:    config.Connect,
				Backoff:    config.Backoff,
				Inventory:  config.Inventory,
				Sink:       config.Sink,
				HostTagger: config.HostTagger,
				Tracer:     provider.Tracer(tracerName),
				Clock:      config.Clock,
				Logger:     config.Logger,
			})
			if err != nil {
				return nil, errors.Trace(err)
			}

			w, err := config.NewWorker(poller.Config{
				Name:     config.Instance.Name,
				Check:    checker.Check,
				Interval: config.Instance.Interval,
				Clock:    config.Clock,
				Logger:   config.Logger,
			})
			if err != nil {
				return nil, errors.Trace(err)
			}
			return w, nil
		},
	}
}

// NewWorker is the default NewWorker of a ManifoldConfig.
func NewWorker(cfg poller.Config) (worker.Worker, error) {
	w, err := poller.NewWorker(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}
