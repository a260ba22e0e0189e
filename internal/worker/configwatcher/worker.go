// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package configwatcher stops with a reload request once the poller
// configuration file has been rewritten.
package configwatcher

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"gopkg.in/tomb.v2"

	"github.com/juju/infrapoller/internal/worker/signalhandler"
)

// Logger represents the logging methods called.
type Logger interface {
	Infof(message string, args ...any)
	Debugf(message string, args ...any)
}

// Config holds the dependencies of a Worker.
type Config struct {
	// Path is the configuration file to watch.
	Path string

	// Settle is how long the file must stay untouched after a change
	// before a reload is requested.
	Settle time.Duration

	Clock  clock.Clock
	Logger Logger
}

// Validate ensures that the config values are valid.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.NotValidf("empty Path")
	}
	if c.Settle <= 0 {
		return errors.NotValidf("non-positive Settle")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Worker watches the directory holding the configuration file, so files
// replaced by rename are noticed as well as files written in place.
type Worker struct {
	tomb    tomb.Tomb
	config  Config
	path    string
	watcher *fsnotify.Watcher
}

// NewWorker returns a running Worker.
func NewWorker(config Config) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	path, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Annotate(err, "creating file watcher")
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, errors.Annotatef(err, "watching %s", filepath.Dir(path))
	}
	w := &Worker{
		config:  config,
		path:    path,
		watcher: watcher,
	}
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
	defer func() { _ = w.watcher.Close() }()

	var settled <-chan time.Time
	for {
		select {
		case <-w.tomb.Dying():
			return tomb.ErrDying
		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if !w.changed(event) {
				continue
			}
			w.config.Logger.Debugf("%s: %v", event.Name, event.Op)
			settled = w.config.Clock.After(w.config.Settle)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			return errors.Annotatef(err, "watching %s", w.path)
		case <-settled:
			w.config.Logger.Infof("%s changed", w.path)
			return signalhandler.ErrReload
		}
	}
}

func (w *Worker) changed(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
