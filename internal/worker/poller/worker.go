// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package poller provides a worker running a check at a fixed interval.
package poller

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"gopkg.in/tomb.v2"
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

// CheckFunc runs a single poll cycle. Returning an error stops the
// worker.
type CheckFunc func(ctx context.Context) error

// Config holds the configuration of a poll worker.
type Config struct {
	// Name identifies the polled target in logs.
	Name     string
	Check    CheckFunc
	Interval time.Duration
	Clock    clock.Clock
	Logger   Logger
}

// Validate ensures that the config values are valid.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.NotValidf("empty Name")
	}
	if c.Check == nil {
		return errors.NotValidf("nil Check")
	}
	if c.Interval <= 0 {
		return errors.NotValidf("non-positive Interval")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Worker runs its check straight away and then every interval, measured
// from the end of the previous run.
type Worker struct {
	tomb tomb.Tomb
	cfg  Config
}

// NewWorker returns a running Worker.
func NewWorker(cfg Config) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	w := &Worker{cfg: cfg}
	w.tomb.Go(w.loop)
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Worker) Kill() {
	w.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.tomb.Wait()
}

func (w *Worker) loop() error {
	ctx := w.tomb.Context(context.Background())

	timer := w.cfg.Clock.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-w.tomb.Dying():
			return tomb.ErrDying

		case <-timer.Chan():
			started := w.cfg.Clock.Now()
			if err := w.cfg.Check(ctx); err != nil {
				select {
				case <-w.tomb.Dying():
					return tomb.ErrDying
				default:
				}
				return errors.Annotatef(err, "checking %s", w.cfg.Name)
			}
			if w.cfg.Logger.IsTraceEnabled() {
				w.cfg.Logger.Tracef("checked %s in %v", w.cfg.Name, w.cfg.Clock.Now().Sub(started))
			}
			timer.Reset(w.cfg.Interval)
		}
	}
}
