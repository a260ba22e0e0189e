// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package tracing

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/dependency"
	"go.opentelemetry.io/otel/trace"
)

// ManifoldConfig defines the configuration of the tracer manifold.
type ManifoldConfig struct {
	Config    Config
	NewClient NewClientFunc
}

// Validate validates the manifold configuration.
func (cfg ManifoldConfig) Validate() error {
	if cfg.NewClient == nil {
		return errors.NotValidf("nil NewClient")
	}
	return nil
}

// Manifold returns a dependency manifold running a Tracer. Its output is
// a trace.TracerProvider.
func Manifold(config ManifoldConfig) dependency.Manifold {
	return dependency.Manifold{
		Start: func(ctx context.Context, getter dependency.Getter) (worker.Worker, error) {
			if err := config.Validate(); err != nil {
				return nil, errors.Trace(err)
			}
			t, err := NewTracer(ctx, config.Config, config.NewClient)
			if err != nil {
				return nil, errors.Trace(err)
			}
			return t, nil
		},
		Output: manifoldOutput,
	}
}

func manifoldOutput(in worker.Worker, out any) error {
	t, ok := in.(*Tracer)
	if !ok {
		return errors.Errorf("expected *Tracer, got %T", in)
	}
	switch result := out.(type) {
	case *trace.TracerProvider:
		*result = t.TracerProvider()
	default:
		return errors.Errorf("expected *trace.TracerProvider, got %T", out)
	}
	return nil
}
