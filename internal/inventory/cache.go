// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("infrapoller.inventory")

// Snapshot is the set of active servers of a target, keyed by server id,
// and the time from which the next incremental refresh fetches changes.
// A snapshot is never modified once returned.
type Snapshot struct {
	Servers map[string]Server
	AsOf    time.Time
}

// Source describes where the servers of a target come from.
type Source struct {
	Fetcher ServerFetcher

	// Projects maps tenant ids to project names. Servers of tenants
	// not in the map are ignored.
	Projects map[string]string
}

type target struct {
	mu       sync.Mutex
	snapshot *Snapshot
}

// Cache holds a snapshot per target. Refreshes of a single target are
// serialised; distinct targets refresh independently.
type Cache struct {
	clock clock.Clock

	mu      sync.Mutex
	targets map[string]*target
}

// NewCache returns an empty Cache.
func NewCache(clk clock.Clock) *Cache {
	return &Cache{
		clock:   clk,
		targets: make(map[string]*target),
	}
}

func (c *Cache) target(name string) *target {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.targets[name]
	if !ok {
		t = &target{}
		c.targets[name] = t
	}
	return t
}

// Snapshot returns the current snapshot of name, or a NotFound error if
// it was never refreshed.
func (c *Cache) Snapshot(name string) (Snapshot, error) {
	t := c.target(name)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snapshot == nil {
		return Snapshot{}, errors.NotFoundf("server snapshot for %q", name)
	}
	return *t.snapshot, nil
}

// Refresh brings the snapshot of name up to date, fetching every active
// server the first time and only the changes afterwards.
func (c *Cache) Refresh(ctx context.Context, name string, src Source) (Snapshot, error) {
	t := c.target(name)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snapshot == nil {
		return c.fullRefresh(ctx, t, src)
	}
	return c.incrementalRefresh(ctx, t, src)
}

// FullRefresh replaces the snapshot of name with every active server.
func (c *Cache) FullRefresh(ctx context.Context, name string, src Source) (Snapshot, error) {
	t := c.target(name)
	t.mu.Lock()
	defer t.mu.Unlock()
	return c.fullRefresh(ctx, t, src)
}

// IncrementalRefresh applies the servers changed since the last refresh
// of name to its snapshot. Active servers are added or replaced, servers
// in any other state are removed and servers not reported are left as
// they were. It fails with NotFound if name has no snapshot yet.
func (c *Cache) IncrementalRefresh(ctx context.Context, name string, src Source) (Snapshot, error) {
	t := c.target(name)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snapshot == nil {
		return Snapshot{}, errors.NotFoundf("server snapshot for %q", name)
	}
	return c.incrementalRefresh(ctx, t, src)
}

func (c *Cache) fullRefresh(ctx context.Context, t *target, src Source) (Snapshot, error) {
	// Changes made while fetching must be seen by the next refresh.
	asOf := c.clock.Now()
	fetched, err := src.Fetcher.FetchActiveServers(ctx)
	if err != nil {
		return Snapshot{}, errors.Annotate(err, "fetching active servers")
	}

	servers := make(map[string]Server, len(fetched))
	for _, server := range fetched {
		if !server.Active() {
			continue
		}
		if server, ok := withProject(server, src.Projects); ok {
			servers[server.ID] = server
		}
	}
	t.snapshot = &Snapshot{Servers: servers, AsOf: asOf}
	return *t.snapshot, nil
}

func (c *Cache) incrementalRefresh(ctx context.Context, t *target, src Source) (Snapshot, error) {
	previous := t.snapshot
	asOf := c.clock.Now()
	changed, err := src.Fetcher.FetchChangedServers(ctx, previous.AsOf)
	if err != nil {
		return Snapshot{}, errors.Annotatef(err, "fetching servers changed since %v", previous.AsOf)
	}

	servers := make(map[string]Server, len(previous.Servers))
	for id, server := range previous.Servers {
		servers[id] = server
	}
	for _, server := range changed {
		if !server.Active() {
			delete(servers, server.ID)
			continue
		}
		if server, ok := withProject(server, src.Projects); ok {
			servers[server.ID] = server
		}
	}
	logger.Tracef("applied %d server changes, %d servers known", len(changed), len(servers))

	t.snapshot = &Snapshot{Servers: servers, AsOf: asOf}
	return *t.snapshot, nil
}

func withProject(server Server, projects map[string]string) (Server, bool) {
	name := projects[server.TenantID]
	if name == "" {
		return server, false
	}
	server.ProjectName = name
	return server, true
}
