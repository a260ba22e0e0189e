// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package openstack reads the state of an OpenStack control plane through
// the compute, network and identity APIs.
package openstack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-goose/goose/v5/client"
	goosehttp "github.com/go-goose/goose/v5/http"
	"github.com/go-goose/goose/v5/identity"
	"github.com/go-goose/goose/v5/nova"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/juju/infrapoller/internal/inventory"
)

var logger = loggo.GetLogger("infrapoller.openstack")

const (
	computeService  = "compute"
	computeVersion  = "v2"
	networkService  = "network"
	networkVersion  = "v2.0"
	identityService = "identity"
	identityVersion = "v3"
)

// Credentials identify a user of an OpenStack cloud.
type Credentials struct {
	KeystoneURL   string
	Region        string
	User          string
	Password      string
	UserDomain    string
	Project       string
	ProjectDomain string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// Validate ensures that the credentials are complete.
func (c Credentials) Validate() error {
	if c.KeystoneURL == "" {
		return errors.NotValidf("empty keystone url")
	}
	if c.User == "" {
		return errors.NotValidf("empty user")
	}
	if c.Password == "" {
		return errors.NotValidf("empty password")
	}
	return nil
}

// requester is the part of a goose client used to talk to the services.
type requester interface {
	SendRequest(method, svcType, apiVersion, apiCall string, requestData *goosehttp.RequestData) error
}

// Client reads the state of a single OpenStack cloud.
type Client struct {
	requester requester
}

var _ inventory.ServerFetcher = (*Client)(nil)

// authenticator is satisfied by goose's client.AuthenticatingClient.
type authenticator interface {
	requester
	Authenticate() error
}

var newGooseClient = func(creds *identity.Credentials, insecure bool) authenticator {
	if insecure {
		return client.NewNonValidatingClient(creds, identity.AuthUserPassV3, nil)
	}
	return client.NewClient(creds, identity.AuthUserPassV3, nil)
}

// Connect authenticates against keystone and returns a client using the
// resulting service catalog. Keystone failures are classified like any
// other request; callers decide whether a failed connection backs off.
func Connect(ctx context.Context, creds Credentials) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	cl := newGooseClient(&identity.Credentials{
		URL:           creds.KeystoneURL,
		Region:        creds.Region,
		User:          creds.User,
		Secrets:       creds.Password,
		UserDomain:    creds.UserDomain,
		TenantName:    creds.Project,
		ProjectDomain: creds.ProjectDomain,
		Version:       3,
	}, creds.InsecureSkipVerify)
	if err := cl.Authenticate(); err != nil {
		logger.Debugf("authenticating with %s failed: %v", creds.KeystoneURL, err)
		return nil, classifyError(err, "authenticating with "+creds.KeystoneURL)
	}
	return &Client{requester: cl}, nil
}

func (c *Client) get(ctx context.Context, svcType, apiVersion, apiCall string, params url.Values, resp interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	data := &goosehttp.RequestData{
		ExpectedStatus: []int{http.StatusOK},
		RespValue:      resp,
	}
	if len(params) > 0 {
		data.Params = &params
	}
	logger.Tracef("GET %s %s", svcType, apiCall)
	err := c.requester.SendRequest(http.MethodGet, svcType, apiVersion, apiCall, data)
	return classifyError(err, fmt.Sprintf("GET %s %s", svcType, apiCall))
}

// Projects lists the projects visible to the user.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var resp struct {
		Projects []Project `json:"projects"`
	}
	if err := c.get(ctx, identityService, identityVersion, "projects", nil, &resp); err != nil {
		return nil, errors.Trace(err)
	}
	return resp.Projects, nil
}

// ProjectLimits returns the absolute compute limits of a project.
func (c *Client) ProjectLimits(ctx context.Context, projectID string) (map[string]float64, error) {
	var resp struct {
		Limits struct {
			Absolute map[string]interface{} `json:"absolute"`
		} `json:"limits"`
	}
	params := url.Values{"tenant_id": {projectID}}
	if err := c.get(ctx, computeService, computeVersion, "limits", params, &resp); err != nil {
		return nil, errors.Trace(err)
	}
	if resp.Limits.Absolute == nil {
		return nil, errors.NotFoundf("absolute limits of project %q", projectID)
	}
	return numericFields(resp.Limits.Absolute), nil
}

// Hypervisors lists every hypervisor with its details.
func (c *Client) Hypervisors(ctx context.Context) ([]Hypervisor, error) {
	var resp struct {
		Hypervisors []Hypervisor `json:"hypervisors"`
	}
	if err := c.get(ctx, computeService, computeVersion, "os-hypervisors/detail", nil, &resp); err != nil {
		return nil, errors.Trace(err)
	}
	return resp.Hypervisors, nil
}

// HypervisorLoad returns the 1, 5 and 15 minute load averages of a
// hypervisor.
func (c *Client) HypervisorLoad(ctx context.Context, hypervisorID string) ([]float64, error) {
	var resp struct {
		Hypervisor struct {
			Uptime string `json:"uptime"`
		} `json:"hypervisor"`
	}
	call := "os-hypervisors/" + url.PathEscape(hypervisorID) + "/uptime"
	if err := c.get(ctx, computeService, computeVersion, call, nil, &resp); err != nil {
		return nil, errors.Trace(err)
	}
	return ParseLoadAverages(resp.Hypervisor.Uptime)
}

// Aggregates lists the host aggregates.
func (c *Client) Aggregates(ctx context.Context) ([]Aggregate, error) {
	var resp struct {
		Aggregates []Aggregate `json:"aggregates"`
	}
	if err := c.get(ctx, computeService, computeVersion, "os-aggregates", nil, &resp); err != nil {
		return nil, errors.Trace(err)
	}
	return resp.Aggregates, nil
}

// FetchActiveServers is part of the inventory.ServerFetcher interface.
func (c *Client) FetchActiveServers(ctx context.Context) ([]inventory.Server, error) {
	return c.servers(ctx, url.Values{
		"all_tenants": {"True"},
		"status":      {nova.StatusActive},
	})
}

// FetchChangedServers is part of the inventory.ServerFetcher interface.
func (c *Client) FetchChangedServers(ctx context.Context, since time.Time) ([]inventory.Server, error) {
	return c.servers(ctx, url.Values{
		"all_tenants":   {"True"},
		"changes-since": {since.UTC().Format(time.RFC3339)},
	})
}

func (c *Client) servers(ctx context.Context, params url.Values) ([]inventory.Server, error) {
	var resp struct {
		Servers []serverDetail `json:"servers"`
	}
	if err := c.get(ctx, computeService, computeVersion, "servers/detail", params, &resp); err != nil {
		return nil, errors.Trace(err)
	}
	servers := make([]inventory.Server, 0, len(resp.Servers))
	for _, detail := range resp.Servers {
		server, err := detail.server()
		if err != nil {
			logger.Warningf("ignoring server: %v", err)
			continue
		}
		servers = append(servers, server)
	}
	return servers, nil
}

// ServerDiagnostics returns the numeric diagnostics of a server.
func (c *Client) ServerDiagnostics(ctx context.Context, serverID string) (map[string]float64, error) {
	var resp map[string]interface{}
	call := "servers/" + url.PathEscape(serverID) + "/diagnostics"
	if err := c.get(ctx, computeService, computeVersion, call, nil, &resp); err != nil {
		return nil, errors.Trace(err)
	}
	return numericFields(resp), nil
}

// Flavors returns every flavor keyed by id.
func (c *Client) Flavors(ctx context.Context) (map[string]inventory.Flavor, error) {
	var resp struct {
		Flavors []flavorDetail `json:"flavors"`
	}
	if err := c.get(ctx, computeService, computeVersion, "flavors/detail", nil, &resp); err != nil {
		return nil, errors.Trace(err)
	}
	flavors := make(map[string]inventory.Flavor, len(resp.Flavors))
	for _, f := range resp.Flavors {
		flavors[f.ID] = f.flavor()
	}
	return flavors, nil
}

// Networks lists the networks visible to the user.
func (c *Client) Networks(ctx context.Context) ([]Network, error) {
	var resp struct {
		Networks []Network `json:"networks"`
	}
	if err := c.get(ctx, networkService, networkVersion, "networks", nil, &resp); err != nil {
		return nil, errors.Trace(err)
	}
	return resp.Networks, nil
}
