// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package tracing exports spans of the poll cycles to an OpenTelemetry
// collector.
package tracing

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"gopkg.in/tomb.v2"
)

var logger = loggo.GetLogger("infrapoller.tracing")

const serviceName = "infrapoller"

// Client manages the connection to the collector.
type Client interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ClientTracerProvider flushes and releases the spans of a provider.
type ClientTracerProvider interface {
	trace.TracerProvider
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// NewClientFunc creates the client and provider exporting to endpoint.
type NewClientFunc func(ctx context.Context, cfg Config) (Client, ClientTracerProvider, error)

// Config describes where spans are sent.
type Config struct {
	// Endpoint is the host:port of an OTLP gRPC collector. Tracing is
	// disabled when it is empty.
	Endpoint string

	// Insecure disables transport security towards the collector.
	Insecure bool

	// InstanceID identifies this poller among others exporting to the
	// same collector.
	InstanceID string

	// Version is reported as the service version.
	Version string
}

// Tracer is a worker owning a tracer provider. Buffered spans are
// flushed when it stops.
type Tracer struct {
	tomb tomb.Tomb

	client   Client
	provider ClientTracerProvider
}

// NewTracer returns a running Tracer. With no endpoint configured it
// hands out no-op tracers.
func NewTracer(ctx context.Context, cfg Config, newClient NewClientFunc) (*Tracer, error) {
	t := &Tracer{}
	if cfg.Endpoint == "" {
		logger.Debugf("no tracing endpoint configured")
		t.tomb.Go(func() error {
			<-t.tomb.Dying()
			return tomb.ErrDying
		})
		return t, nil
	}

	client, provider, err := newClient(ctx, cfg)
	if err != nil {
		return nil, errors.Annotatef(err, "creating tracing client for %q", cfg.Endpoint)
	}
	t.client = client
	t.provider = provider
	t.tomb.Go(t.loop)
	return t, nil
}

// Kill is part of the worker.Worker interface.
func (t *Tracer) Kill() {
	t.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (t *Tracer) Wait() error {
	return t.tomb.Wait()
}

// Enabled reports whether spans are exported.
func (t *Tracer) Enabled() bool {
	return t.provider != nil
}

// TracerProvider returns the provider spans should be created from.
func (t *Tracer) TracerProvider() trace.TracerProvider {
	if t.provider == nil {
		return noop.NewTracerProvider()
	}
	return t.provider
}

func (t *Tracer) loop() error {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := t.provider.ForceFlush(ctx); err != nil {
			logger.Infof("failed to flush spans: %v", err)
		}
		if err := t.client.Stop(ctx); err != nil {
			logger.Infof("failed to stop tracing client: %v", err)
		}
		if err := t.provider.Shutdown(ctx); err != nil {
			logger.Infof("failed to shutdown tracer provider: %v", err)
		}
	}()

	<-t.tomb.Dying()
	return tomb.ErrDying
}

// NewClient returns an OTLP gRPC client and a batching provider
// exporting through it.
func NewClient(ctx context.Context, cfg Config) (Client, ClientTracerProvider, error) {
	options := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		options = append(options, otlptracegrpc.WithInsecure())
	}

	client := otlptracegrpc.NewClient(options...)
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(cfg)),
	)
	return client, provider, nil
}

func newResource(cfg Config) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(cfg.Version),
		semconv.ServiceInstanceID(cfg.InstanceID),
	)
}
