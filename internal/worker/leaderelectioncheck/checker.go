// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package leaderelectioncheck reports the health of a Kubernetes leader
// election record.
package leaderelectioncheck

import (
	"context"

	"github.com/juju/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/juju/infrapoller/internal/config"
	"github.com/juju/infrapoller/internal/leaderelection"
	"github.com/juju/infrapoller/internal/metrics"
)

// Logger represents the logging methods called.
type Logger interface {
	Errorf(message string, args ...any)
	Warningf(message string, args ...any)
	Infof(message string, args ...any)
	Debugf(message string, args ...any)
	Tracef(message string, args ...any)

	IsTraceEnabled() bool
}

// RecordGetter reads election records.
type RecordGetter interface {
	Get(ctx context.Context, kind, name, namespace string) (*leaderelection.Record, error)
}

// CheckerConfig holds the collaborators of a Checker.
type CheckerConfig struct {
	Record config.LeaderElectionRecord
	Getter RecordGetter
	Sink   metrics.Sink
	Tracer trace.Tracer
	Logger Logger
}

// Validate ensures that the config values are valid.
func (c CheckerConfig) Validate() error {
	if err := c.Record.Validate(); err != nil {
		return errors.Trace(err)
	}
	if c.Getter == nil {
		return errors.NotValidf("nil Getter")
	}
	if c.Sink == nil {
		return errors.NotValidf("nil Sink")
	}
	if c.Tracer == nil {
		return errors.NotValidf("nil Tracer")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Checker reads one election record and reports its status.
type Checker struct {
	cfg    CheckerConfig
	report leaderelection.ReportConfig
}

// NewChecker returns a Checker for the configured record.
func NewChecker(cfg CheckerConfig) (*Checker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Checker{
		cfg: cfg,
		report: leaderelection.ReportConfig{
			Namespace:       cfg.Record.Namespace,
			Tags:            cfg.Record.Tags,
			RecordKind:      cfg.Record.RecordKind,
			RecordName:      cfg.Record.RecordName,
			RecordNamespace: cfg.Record.RecordNamespace,
		},
	}, nil
}

// Name identifies the checked record.
func (c *Checker) Name() string {
	return c.cfg.Record.RecordNamespace + "/" + c.cfg.Record.RecordName
}

// Check reads the record and reports its status. Only a cancelled
// context is returned as an error.
func (c *Checker) Check(ctx context.Context) error {
	rec := c.cfg.Record
	ctx, span := c.cfg.Tracer.Start(ctx, "leaderelection.check",
		trace.WithAttributes(
			attribute.String("record_kind", rec.RecordKind),
			attribute.String("record", c.Name()),
		),
	)
	defer span.End()

	record, err := c.cfg.Getter.Get(ctx, rec.RecordKind, rec.RecordName, rec.RecordNamespace)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Trace(ctxErr)
		}
		span.RecordError(err)
		c.cfg.Logger.Warningf("cannot retrieve leader election record %s: %v", c.Name(), err)
		return nil
	}

	if valid, reason := record.Validate(); !valid {
		c.cfg.Logger.Debugf("leader election record %s is invalid: %s", c.Name(), reason)
	}
	if err := leaderelection.ReportStatus(c.cfg.Sink, c.report, record); err != nil {
		c.cfg.Logger.Warningf("cannot report leader election record %s: %v", c.Name(), err)
	}
	return nil
}
