// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package metricsserver serves the reported values to prometheus.
package metricsserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/tomb.v2"
)

const shutdownTimeout = 5 * time.Second

// Logger represents the logging methods called.
type Logger interface {
	Errorf(message string, args ...any)
	Infof(message string, args ...any)
	Debugf(message string, args ...any)
}

// Config holds the configuration of the metrics server.
type Config struct {
	// ListenAddress is the host:port to listen on.
	ListenAddress string
	Gatherer      prometheus.Gatherer
	Logger        Logger
}

// Validate ensures that the config values are valid.
func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return errors.NotValidf("empty ListenAddress")
	}
	if c.Gatherer == nil {
		return errors.NotValidf("nil Gatherer")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Server is a worker serving /metrics.
type Server struct {
	tomb     tomb.Tomb
	listener net.Listener
	server   *http.Server
	logger   Logger
}

// NewWorker starts listening and returns the running Server.
func NewWorker(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return nil, errors.Annotatef(err, "listening on %q", cfg.ListenAddress)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	s := &Server{
		listener: listener,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: cfg.Logger,
	}
	s.tomb.Go(s.loop)
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Kill is part of the worker.Worker interface.
func (s *Server) Kill() {
	s.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (s *Server) Wait() error {
	return s.tomb.Wait()
}

func (s *Server) loop() error {
	s.logger.Infof("serving metrics on %s", s.listener.Addr())
	served := make(chan error, 1)
	go func() {
		served <- s.server.Serve(s.listener)
	}()

	select {
	case <-s.tomb.Dying():
	case err := <-served:
		return errors.Annotate(err, "serving metrics")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Errorf("shutting down metrics server: %v", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Annotate(err, "serving metrics")
	}
	return tomb.ErrDying
}
