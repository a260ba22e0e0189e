// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package inventory keeps per target snapshots of the servers known to a
// compute service, refreshed incrementally between polls.
package inventory

import (
	"context"
	"time"
)

// StateActive is the only server state kept in a snapshot.
const StateActive = "ACTIVE"

// Flavor describes the resources allocated to a server.
type Flavor struct {
	ID        string
	Disk      float64
	VCPUs     float64
	RAM       float64
	Ephemeral float64
	Swap      float64
}

// Server is the metadata of a server held in a snapshot.
type Server struct {
	ID                 string
	State              string
	Name               string
	HypervisorHostname string
	TenantID           string
	AvailabilityZone   string
	ProjectName        string

	// FlavorID is set by compute services that only reference the
	// flavor of a server. Newer services embed the flavor instead.
	FlavorID string
	Flavor   *Flavor
}

// Active reports whether the server is in the state kept by snapshots.
func (s Server) Active() bool {
	return s.State == StateActive
}

// ServerFetcher retrieves servers from a compute service.
type ServerFetcher interface {
	// FetchActiveServers returns every active server of every tenant.
	FetchActiveServers(ctx context.Context) ([]Server, error)

	// FetchChangedServers returns every server of every tenant changed
	// since the given time, whatever its state.
	FetchChangedServers(ctx context.Context, since time.Time) ([]Server, error)
}
