// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package signalhandler turns process signals into worker errors, so the
// dependency engine stops with an error saying what was asked of it.
package signalhandler

import (
	"os"

	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"
)

const (
	// ErrTerminate asks the poller to exit.
	ErrTerminate = errors.ConstError("terminate requested")

	// ErrReload asks the poller to re-read its configuration and start
	// over.
	ErrReload = errors.ConstError("configuration reload requested")
)

// Logger represents the logging methods called.
type Logger interface {
	Infof(message string, args ...any)
}

// HandlerFunc maps a received signal to the error the watcher stops
// with.
type HandlerFunc func(os.Signal) error

// Handler returns a HandlerFunc looking signals up in signalMap and
// falling back to defaultErr.
func Handler(defaultErr error, signalMap map[os.Signal]error) HandlerFunc {
	return func(sig os.Signal) error {
		if err, ok := signalMap[sig]; ok {
			return err
		}
		return defaultErr
	}
}

// Watcher is a worker that stops with the error its handler returns for
// the first signal received.
type Watcher struct {
	catacomb catacomb.Catacomb
	handler  HandlerFunc
	logger   Logger
	signals  <-chan os.Signal
}

// NewWatcher returns a running Watcher reading signals.
func NewWatcher(logger Logger, signals <-chan os.Signal, handler HandlerFunc) (*Watcher, error) {
	if signals == nil {
		return nil, errors.NotValidf("nil signal channel")
	}
	if handler == nil {
		return nil, errors.NotValidf("nil handler")
	}
	w := &Watcher{
		handler: handler,
		logger:  logger,
		signals: signals,
	}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Watcher) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Watcher) Wait() error {
	return w.catacomb.Wait()
}

func (w *Watcher) loop() error {
	select {
	case <-w.catacomb.Dying():
		return w.catacomb.ErrDying()
	case sig, ok := <-w.signals:
		if !ok {
			return errors.New("signal channel closed unexpectedly")
		}
		w.logger.Infof("received %v", sig)
		return w.handler(sig)
	}
}
