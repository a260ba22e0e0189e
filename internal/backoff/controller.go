// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package backoff tracks consecutive failures of polling targets and
// decides when a target may be polled again.
package backoff

import (
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
)

const (
	// DefaultBase is the interval applied after the first failure.
	DefaultBase = 15 * time.Second

	// DefaultMax caps the interval however many failures there were.
	DefaultMax = 300 * time.Second

	growthFactor = 2
)

// Config holds the parameters of a Controller.
type Config struct {
	Clock clock.Clock

	// Base and Max default to DefaultBase and DefaultMax when zero.
	Base time.Duration
	Max  time.Duration
}

// Validate ensures that the config values are valid.
func (c Config) Validate() error {
	if c.Clock == nil {
		return errors.NotValidf("missing clock")
	}
	if c.Base < 0 {
		return errors.NotValidf("negative base interval %v", c.Base)
	}
	if c.Max < 0 {
		return errors.NotValidf("negative max interval %v", c.Max)
	}
	if c.Base > 0 && c.Max > 0 && c.Max < c.Base {
		return errors.NotValidf("max interval %v less than base interval %v", c.Max, c.Base)
	}
	return nil
}

type state struct {
	retries      int
	nextRunAfter time.Time
}

// Controller holds the backoff state of any number of targets. State is
// kept in memory only.
type Controller struct {
	clock    clock.Clock
	interval func(time.Duration, int) time.Duration

	mu     sync.Mutex
	states map[string]state
}

// NewController returns a Controller with no target backed off.
func NewController(config Config) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	base, max := config.Base, config.Max
	if base == 0 {
		base = DefaultBase
	}
	if max == 0 {
		max = DefaultMax
	}
	if max < base {
		max = base
	}
	return &Controller{
		clock:    config.Clock,
		interval: retry.ExpBackoff(base, max, growthFactor, false),
		states:   make(map[string]state),
	}, nil
}

// ShouldRun reports whether target may be polled now.
func (c *Controller) ShouldRun(target string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[target]
	if !ok {
		return true
	}
	return !c.clock.Now().Before(s.nextRunAfter)
}

// DoBackoff records a failure of target and returns the interval until
// it may run again along with the number of consecutive failures.
func (c *Controller) DoBackoff(target string) (time.Duration, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.states[target]
	s.retries++
	interval := c.interval(0, s.retries-1)
	s.nextRunAfter = c.clock.Now().Add(interval)
	c.states[target] = s
	return interval, s.retries
}

// ResetBackoff forgets every failure of target.
func (c *Controller) ResetBackoff(target string) {
	c.mu.Lock()
	delete(c.states, target)
	c.mu.Unlock()
}

// Retries returns the number of consecutive failures of target.
func (c *Controller) Retries(target string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[target].retries
}
