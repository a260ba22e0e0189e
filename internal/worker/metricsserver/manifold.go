// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package metricsserver

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/dependency"
)

// Manifold returns a dependency manifold serving metrics.
func Manifold(config Config) dependency.Manifold {
	return dependency.Manifold{
		Start: func(ctx context.Context, getter dependency.Getter) (worker.Worker, error) {
			w, err := NewWorker(config)
			if err != nil {
				return nil, errors.Trace(err)
			}
			return w, nil
		},
	}
}
