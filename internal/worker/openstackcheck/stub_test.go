// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package openstackcheck_test

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/juju/testing"

	"github.com/juju/infrapoller/internal/inventory"
	"github.com/juju/infrapoller/internal/openstack"
)

// stubAPI serves a small cloud. Failures are injected per method so
// they do not depend on call order.
type stubAPI struct {
	testing.Stub

	errs        map[string]error
	projects    []openstack.Project
	limits      map[string]map[string]float64
	hypervisors []openstack.Hypervisor
	loads       map[string][]float64
	aggregates  []openstack.Aggregate
	servers     []inventory.Server
	diagnostics map[string]map[string]float64
	flavors     map[string]inventory.Flavor
	networks    []openstack.Network
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		errs: make(map[string]error),
		projects: []openstack.Project{
			{ID: "p2", Name: "demo"},
			{ID: "p1", Name: "admin"},
		},
		limits: map[string]map[string]float64{
			"p1": {"maxTotalCores": 20, "totalCoresUsed": 4, "unknownField": 1},
			"p2": {"maxTotalCores": 10},
		},
		hypervisors: []openstack.Hypervisor{{
			ID:       "1",
			Hostname: "compute-1.example.com",
			Type:     "QEMU",
			Status:   "enabled",
			State:    "up",
			Metrics:  map[string]float64{"vcpus": 8, "running_vms": 2},
		}, {
			ID:       "2",
			Hostname: "compute-2.example.com",
			Type:     "QEMU",
			Status:   "disabled",
			State:    "down",
			Metrics:  map[string]float64{"vcpus": 4},
		}},
		loads: map[string][]float64{
			"1": {0.5, 0.25, 0.1},
			"2": {1, 2, 3},
		},
		aggregates: []openstack.Aggregate{{
			Name:             "fast",
			AvailabilityZone: "nova",
			Hosts:            []string{"compute-1.example.com"},
		}},
		servers: []inventory.Server{{
			ID:                 "s1",
			State:              inventory.StateActive,
			Name:               "web",
			HypervisorHostname: "compute-1.example.com",
			TenantID:           "p1",
			AvailabilityZone:   "nova",
			FlavorID:           "f1",
		}, {
			ID:                 "s2",
			State:              inventory.StateActive,
			Name:               "db",
			HypervisorHostname: "compute-2.example.com",
			TenantID:           "p2",
			FlavorID:           "f2",
		}, {
			ID:                 "s4",
			State:              inventory.StateActive,
			Name:               "orphan",
			HypervisorHostname: "compute-2.example.com",
			TenantID:           "gone",
		}},
		diagnostics: map[string]map[string]float64{
			"s1": {
				"memory":         2048,
				"memory-actual":  1024,
				"tap1_rx":        10,
				"tap1_tx_errors": 1,
				"bogus":          5,
			},
		},
		flavors: map[string]inventory.Flavor{
			"f1": {ID: "f1", Disk: 20, VCPUs: 2, RAM: 4096},
		},
		networks: []openstack.Network{
			{ID: "net-1", Name: "public", TenantID: "p1", AdminStateUp: true},
			{ID: "net-2"},
			{ID: "skip-3", AdminStateUp: true},
		},
	}
}

func (a *stubAPI) call(name string, args ...interface{}) error {
	a.AddCall(name, args...)
	return a.errs[name]
}

func (a *stubAPI) Projects(ctx context.Context) ([]openstack.Project, error) {
	if err := a.call("Projects"); err != nil {
		return nil, err
	}
	return a.projects, nil
}

func (a *stubAPI) ProjectLimits(ctx context.Context, projectID string) (map[string]float64, error) {
	if err := a.call("ProjectLimits", projectID); err != nil {
		return nil, err
	}
	limits, ok := a.limits[projectID]
	if !ok {
		return nil, errors.NotFoundf("absolute limits of project %q", projectID)
	}
	return limits, nil
}

func (a *stubAPI) Hypervisors(ctx context.Context) ([]openstack.Hypervisor, error) {
	if err := a.call("Hypervisors"); err != nil {
		return nil, err
	}
	return a.hypervisors, nil
}

func (a *stubAPI) HypervisorLoad(ctx context.Context, hypervisorID string) ([]float64, error) {
	if err := a.call("HypervisorLoad", hypervisorID); err != nil {
		return nil, err
	}
	return a.loads[hypervisorID], nil
}

func (a *stubAPI) Aggregates(ctx context.Context) ([]openstack.Aggregate, error) {
	if err := a.call("Aggregates"); err != nil {
		return nil, err
	}
	return a.aggregates, nil
}

func (a *stubAPI) FetchActiveServers(ctx context.Context) ([]inventory.Server, error) {
	if err := a.call("FetchActiveServers"); err != nil {
		return nil, err
	}
	return a.servers, nil
}

func (a *stubAPI) FetchChangedServers(ctx context.Context, since time.Time) ([]inventory.Server, error) {
	if err := a.call("FetchChangedServers", since); err != nil {
		return nil, err
	}
	return nil, nil
}

func (a *stubAPI) ServerDiagnostics(ctx context.Context, serverID string) (map[string]float64, error) {
	if err := a.call("ServerDiagnostics", serverID); err != nil {
		return nil, err
	}
	stats, ok := a.diagnostics[serverID]
	if !ok {
		return nil, errors.NotFoundf("server %q", serverID)
	}
	return stats, nil
}

func (a *stubAPI) Flavors(ctx context.Context) (map[string]inventory.Flavor, error) {
	if err := a.call("Flavors"); err != nil {
		return nil, err
	}
	return a.flavors, nil
}

func (a *stubAPI) Networks(ctx context.Context) ([]openstack.Network, error) {
	if err := a.call("Networks"); err != nil {
		return nil, err
	}
	return a.networks, nil
}
