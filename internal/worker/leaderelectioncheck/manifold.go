// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package leaderelectioncheck

import (
	"context"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/dependency"
	"go.opentelemetry.io/otel/trace"

	"github.com/juju/infrapoller/internal/config"
	"github.com/juju/infrapoller/internal/metrics"
	"github.com/juju/infrapoller/internal/worker/poller"
)

const tracerName = "infrapoller/leaderelection"

// ManifoldConfig defines the configuration of a leader election check
// manifold.
type ManifoldConfig struct {
	TracerName string

	Record    config.LeaderElectionRecord
	Getter    RecordGetter
	Sink      metrics.Sink
	NewWorker func(poller.Config) (worker.Worker, error)
	Clock     clock.Clock
	Logger    Logger
}

// Validate validates the manifold configuration.
func (cfg ManifoldConfig) Validate() error {
	if cfg.TracerName == "" {
		return errors.NotValidf("empty TracerName")
	}
	if cfg.Getter == nil {
		return errors.NotValidf("nil Getter")
	}
	if cfg.Sink == nil {
		return errors.NotValidf("nil Sink")
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

// Manifold returns a dependency manifold that checks one leader
// election record.
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
				Record: config.Record,
				Getter: config.Getter,
				Sink:   config.Sink,
				Tracer: provider.Tracer(tracerName),
				Logger: config.Logger,
			})
			if err != nil {
				return nil, errors.Trace(err)
			}

			w, err := config.NewWorker(poller.Config{
				Name:     checker.Name(),
				Check:    checker.Check,
				Interval: config.Record.Interval,
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
