// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
)

// DefaultTTL is how long aggregates and hypervisors are reused.
const DefaultTTL = 300 * time.Second

// TTLCache holds a single value that is fetched again once it is older
// than its time to live.
type TTLCache[T any] struct {
	clock clock.Clock
	ttl   time.Duration

	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	valid     bool
}

// NewTTLCache returns an empty TTLCache.
func NewTTLCache[T any](clk clock.Clock, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		clock: clk,
		ttl:   ttl,
	}
}

// Get returns the cached value, calling fetch first if there is none or
// it has expired. A failed fetch leaves the cache as it was.
func (c *TTLCache[T]) Get(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.valid && now.Sub(c.fetchedAt) <= c.ttl {
		return c.value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, errors.Trace(err)
	}
	c.value = value
	c.fetchedAt = now
	c.valid = true
	return value, nil
}

// Invalidate forces the next Get to fetch.
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
