// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package signalhandler

import (
	"context"
	"os"

	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/dependency"
)

// ManifoldConfig defines the configuration of the signal handler
// manifold.
type ManifoldConfig struct {
	Signals <-chan os.Signal
	Handler HandlerFunc
	Logger  Logger
}

// Validate validates the manifold configuration.
func (cfg ManifoldConfig) Validate() error {
	if cfg.Signals == nil {
		return errors.NotValidf("nil Signals")
	}
	if cfg.Handler == nil {
		return errors.NotValidf("nil Handler")
	}
	if cfg.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Manifold returns a dependency manifold running a Watcher.
func Manifold(config ManifoldConfig) dependency.Manifold {
	return dependency.Manifold{
		Start: func(ctx context.Context, getter dependency.Getter) (worker.Worker, error) {
			if err := config.Validate(); err != nil {
				return nil, errors.Trace(err)
			}
			w, err := NewWatcher(config.Logger, config.Signals, config.Handler)
			if err != nil {
				return nil, errors.Trace(err)
			}
			return w, nil
		},
	}
}
