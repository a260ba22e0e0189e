// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package openstackcheck polls an OpenStack control plane and reports the
// state of its services, hypervisors, servers and networks.
package openstackcheck

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/juju/infrapoller/internal/backoff"
	"github.com/juju/infrapoller/internal/config"
	"github.com/juju/infrapoller/internal/inventory"
	"github.com/juju/infrapoller/internal/metrics"
	"github.com/juju/infrapoller/internal/openstack"
)

// Service check names.
const (
	IdentityAPICheck = "openstack.keystone.api.up"
	ComputeAPICheck  = "openstack.nova.api.up"
	NetworkAPICheck  = "openstack.neutron.api.up"
	HypervisorCheck  = "openstack.nova.hypervisor.up"
	NetworkCheck     = "openstack.neutron.network.up"
)

// HostTagSource is the source under which server host tags are
// published.
const HostTagSource = "openstack"

const hypervisorStateUp = "up"

// errNoAPIClient is returned when no client could be built for the
// cloud. It never triggers a backoff.
const errNoAPIClient = errors.ConstError("no OpenStack API client")

// projectMetrics maps compute limit fields to their metric names.
var projectMetrics = map[string]string{
	"maxImageMeta":                "max_image_meta",
	"maxPersonality":              "max_personality",
	"maxPersonalitySize":          "max_personality_size",
	"maxSecurityGroupRules":       "max_security_group_rules",
	"maxSecurityGroups":           "max_security_groups",
	"maxServerMeta":               "max_server_meta",
	"maxTotalCores":               "max_total_cores",
	"maxTotalFloatingIps":         "max_total_floating_ips",
	"maxTotalInstances":           "max_total_instances",
	"maxTotalKeypairs":            "max_total_keypairs",
	"maxTotalRAMSize":             "max_total_ram_size",
	"totalImageMetaUsed":          "total_image_meta_used",
	"totalPersonalityUsed":        "total_personality_used",
	"totalPersonalitySizeUsed":    "total_personality_size_used",
	"totalSecurityGroupRulesUsed": "total_security_group_rules_used",
	"totalSecurityGroupsUsed":     "total_security_groups_used",
	"totalServerMetaUsed":         "total_server_meta_used",
	"totalCoresUsed":              "total_cores_used",
	"totalFloatingIpsUsed":        "total_floating_ips_used",
	"totalInstancesUsed":          "total_instances_used",
	"totalKeypairsUsed":           "total_keypairs_used",
	"totalRAMUsed":                "total_ram_used",
}

// serverMetrics are the server diagnostics reported as gauges, besides
// the per interface counters.
var serverMetrics = set.NewStrings(
	"hdd_errors",
	"hdd_read",
	"hdd_read_req",
	"hdd_write",
	"hdd_write_req",
	"memory",
	"memory-actual",
	"memory-rss",
	"cpu0_time",
	"vda_errors",
	"vda_read",
	"vda_read_req",
	"vda_write",
	"vda_write_req",
)

var interfaceSegment = regexp.MustCompile("_rx|_tx")

// API is the part of an OpenStack client used by a check.
type API interface {
	inventory.ServerFetcher

	Projects(ctx context.Context) ([]openstack.Project, error)
	ProjectLimits(ctx context.Context, projectID string) (map[string]float64, error)
	Hypervisors(ctx context.Context) ([]openstack.Hypervisor, error)
	HypervisorLoad(ctx context.Context, hypervisorID string) ([]float64, error)
	Aggregates(ctx context.Context) ([]openstack.Aggregate, error)
	ServerDiagnostics(ctx context.Context, serverID string) (map[string]float64, error)
	Flavors(ctx context.Context) (map[string]inventory.Flavor, error)
	Networks(ctx context.Context) ([]openstack.Network, error)
}

// ConnectFunc authenticates against a cloud.
type ConnectFunc func(ctx context.Context, creds openstack.Credentials) (API, error)

// Connect is a ConnectFunc using openstack.Connect.
func Connect(ctx context.Context, creds openstack.Credentials) (API, error) {
	client, err := openstack.Connect(ctx, creds)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return client, nil
}

// Logger represents the logging methods called.
type Logger interface {
	Errorf(message string, args ...any)
	Warningf(message string, args ...any)
	Infof(message string, args ...any)
	Debugf(message string, args ...any)
	Tracef(message string, args ...any)

	IsTraceEnabled() bool
}

// CheckerConfig holds the collaborators of a Checker.
type CheckerConfig struct {
	Instance   config.OpenStackInstance
	Connect    ConnectFunc
	Backoff    *backoff.Controller
	Inventory  *inventory.Cache
	Sink       metrics.Sink
	HostTagger metrics.HostTagger
	Tracer     trace.Tracer
	Clock      clock.Clock
	Logger     Logger
}

// Validate ensures that the config values are valid.
func (c CheckerConfig) Validate() error {
	if err := c.Instance.Validate(); err != nil {
		return errors.Trace(err)
	}
	if c.Connect == nil {
		return errors.NotValidf("nil Connect")
	}
	if c.Backoff == nil {
		return errors.NotValidf("nil Backoff")
	}
	if c.Inventory == nil {
		return errors.NotValidf("nil Inventory")
	}
	if c.Sink == nil {
		return errors.NotValidf("nil Sink")
	}
	if c.HostTagger == nil {
		return errors.NotValidf("nil HostTagger")
	}
	if c.Tracer == nil {
		return errors.NotValidf("nil Tracer")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// aggregateInfo is the aggregate membership of a host.
type aggregateInfo struct {
	name             string
	availabilityZone string
}

// Checker runs the poll cycles of one cloud. Check must not be called
// concurrently.
type Checker struct {
	cfg  CheckerConfig
	name string

	excludeNetworks []*regexp.Regexp
	excludeServers  []*regexp.Regexp
	includeProjects []*regexp.Regexp
	excludeProjects []*regexp.Regexp

	api         API
	aggregates  *inventory.TTLCache[map[string]aggregateInfo]
	hypervisors *inventory.TTLCache[[]openstack.Hypervisor]
}

// NewChecker returns a Checker for the configured instance.
func NewChecker(cfg CheckerConfig) (*Checker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	c := &Checker{
		cfg:         cfg,
		name:        cfg.Instance.Name,
		aggregates:  inventory.NewTTLCache[map[string]aggregateInfo](cfg.Clock, inventory.DefaultTTL),
		hypervisors: inventory.NewTTLCache[[]openstack.Hypervisor](cfg.Clock, inventory.DefaultTTL),
	}
	for _, p := range []struct {
		dest     *[]*regexp.Regexp
		patterns []string
	}{
		{&c.excludeNetworks, cfg.Instance.ExcludeNetworkIDs},
		{&c.excludeServers, cfg.Instance.ExcludeServerIDs},
		{&c.includeProjects, cfg.Instance.IncludeProjectNames},
		{&c.excludeProjects, cfg.Instance.ExcludeProjectNames},
	} {
		compiled, err := config.CompilePatterns(p.patterns)
		if err != nil {
			return nil, errors.Trace(err)
		}
		*p.dest = compiled
	}
	return c, nil
}

// Check runs a single poll cycle. Problems talking to the cloud are
// reported through the sink and logs; only a cancelled context is
// returned as an error.
func (c *Checker) Check(ctx context.Context) (err error) {
	ctx, span := c.cfg.Tracer.Start(ctx, "openstack.check",
		trace.WithAttributes(attribute.String("instance", c.name)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !c.cfg.Backoff.ShouldRun(c.name) {
		c.cfg.Logger.Infof("skipping run of %q due to exponential backoff in effect", c.name)
		span.AddEvent("backoff")
		return nil
	}

	runErr := c.run(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Trace(ctxErr)
	}

	switch {
	case runErr == nil:
	case errors.Is(runErr, openstack.ErrAuthenticationNeeded):
		c.cfg.Logger.Infof("authentication with %q expired, reconnecting on the next run: %v", c.name, runErr)
		c.api = nil
	case errors.Is(runErr, openstack.ErrUpstreamUnavailable):
		span.RecordError(runErr)
		c.doBackoff(runErr)
		return nil
	case errors.Is(runErr, errNoAPIClient):
		c.cfg.Logger.Warningf("incomplete configuration of %q: %v", c.name, runErr)
	default:
		span.RecordError(runErr)
		c.cfg.Logger.Warningf("error reaching OpenStack APIs of %q: %v", c.name, runErr)
	}
	c.cfg.Backoff.ResetBackoff(c.name)
	return nil
}

func (c *Checker) doBackoff(cause error) {
	interval, retries := c.cfg.Backoff.DoBackoff(c.name)
	tags := c.cfg.Instance.Tags
	c.cfg.Sink.Gauge("openstack.backoff.interval", interval.Seconds(), tags, "")
	c.cfg.Sink.Gauge("openstack.backoff.retries", float64(retries), tags, "")
	c.cfg.Logger.Warningf("problems reaching the OpenStack APIs of %q, backing off for %v: %v", c.name, interval, cause)
}

func (c *Checker) run(ctx context.Context) error {
	inst := c.cfg.Instance
	serviceTags := append([]string{"keystone_server:" + inst.KeystoneServerURL}, inst.Tags...)

	api, err := c.ensureAPI(ctx, serviceTags)
	if err != nil {
		return errors.Trace(err)
	}

	projects, projectsErr := c.projects(ctx, api)
	if projectsErr != nil {
		c.cfg.Logger.Debugf("listing projects of %q: %v", c.name, projectsErr)
		c.cfg.Sink.ServiceCheck(ComputeAPICheck, metrics.StatusCritical, serviceTags, "", projectsErr.Error())
		if errors.Is(projectsErr, openstack.ErrAuthenticationNeeded) {
			return errors.Trace(projectsErr)
		}
	} else {
		c.cfg.Sink.ServiceCheck(ComputeAPICheck, metrics.StatusOK, serviceTags, "", "")
	}

	if inst.CollectProjectMetrics {
		for _, project := range projects {
			if err := c.collectProjectLimits(ctx, api, project); err != nil {
				return errors.Trace(err)
			}
		}
	}

	if err := c.collectHypervisors(ctx, api); err != nil {
		return errors.Trace(err)
	}

	// Without the project map every server would be dropped and the
	// inventory cursor moved past their changes.
	hostTags := make(map[string][]string)
	serversKnown := projectsErr == nil
	if serversKnown && (inst.CollectServerDiagnosticMetrics || inst.CollectServerFlavorMetrics) {
		if err := c.collectServers(ctx, api, projects, hostTags); err != nil {
			return errors.Trace(err)
		}
	}

	if inst.CollectNetworkMetrics {
		if err := c.collectNetworks(ctx, api); err != nil {
			c.cfg.Logger.Debugf("listing networks of %q: %v", c.name, err)
			c.cfg.Sink.ServiceCheck(NetworkAPICheck, metrics.StatusCritical, serviceTags, "", err.Error())
			if errors.Is(err, openstack.ErrAuthenticationNeeded) {
				return errors.Trace(err)
			}
		} else {
			c.cfg.Sink.ServiceCheck(NetworkAPICheck, metrics.StatusOK, serviceTags, "", "")
		}
	}

	if serversKnown {
		c.cfg.HostTagger.SetExternalHostTags(HostTagSource, hostTags)
	}
	return nil
}

// ensureAPI returns the client of the cloud, authenticating first when
// there is none.
func (c *Checker) ensureAPI(ctx context.Context, serviceTags []string) (API, error) {
	if c.api != nil {
		return c.api, nil
	}

	inst := c.cfg.Instance
	api, err := c.cfg.Connect(ctx, openstack.Credentials{
		KeystoneURL:        inst.KeystoneServerURL,
		Region:             inst.Region,
		User:               inst.User,
		Password:           inst.Password,
		UserDomain:         inst.UserDomain,
		Project:            inst.Project,
		ProjectDomain:      inst.ProjectDomain,
		InsecureSkipVerify: !inst.SSLVerify,
	})
	if err != nil {
		c.cfg.Logger.Warningf("could not contact the identity server at %s: %v", inst.KeystoneServerURL, err)
		c.cfg.Sink.ServiceCheck(IdentityAPICheck, metrics.StatusCritical, serviceTags, "", err.Error())
		c.cfg.Sink.ServiceCheck(NetworkAPICheck, metrics.StatusUnknown, serviceTags, "", "")
		c.cfg.Sink.ServiceCheck(ComputeAPICheck, metrics.StatusUnknown, serviceTags, "", "")
		return nil, errors.Annotatef(errNoAPIClient, "connecting to %s: %v", inst.KeystoneServerURL, err)
	}
	c.cfg.Sink.ServiceCheck(IdentityAPICheck, metrics.StatusOK, serviceTags, "", "")
	c.api = api
	return api, nil
}

// projects lists the projects passing the include and exclude patterns,
// sorted by name.
func (c *Checker) projects(ctx context.Context, api API) ([]openstack.Project, error) {
	all, err := api.Projects(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var result []openstack.Project
	for _, p := range all {
		if len(c.includeProjects) > 0 && !anyMatch(c.includeProjects, p.Name) {
			continue
		}
		if anyMatch(c.excludeProjects, p.Name) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (c *Checker) collectProjectLimits(ctx context.Context, api API, project openstack.Project) error {
	c.cfg.Logger.Debugf("collecting limits of project %s (%s)", project.Name, project.ID)
	limits, err := api.ProjectLimits(ctx, project.ID)
	if errors.Is(err, errors.NotFound) {
		c.cfg.Logger.Warningf("unexpected response, not reporting limits of project %s: %v", project.ID, err)
		return nil
	} else if err != nil {
		return errors.Annotatef(err, "getting limits of project %s", project.ID)
	}

	tags := append([]string(nil), c.cfg.Instance.Tags...)
	tags = append(tags, "tenant_id:"+project.ID)
	if project.Name != "" {
		tags = append(tags, "project_name:"+project.Name)
	}
	for _, field := range sortedKeys(limits) {
		name, ok := projectMetrics[field]
		if !ok {
			continue
		}
		c.cfg.Sink.Gauge("openstack.nova.limits."+name, limits[field], tags, "")
	}
	return nil
}

func (c *Checker) collectHypervisors(ctx context.Context, api API) error {
	hypervisors, err := c.hypervisors.Get(ctx, api.Hypervisors)
	if err != nil {
		return errors.Annotate(err, "listing hypervisors")
	}
	if len(hypervisors) == 0 {
		c.cfg.Logger.Warningf("no hypervisors reported by %q", c.name)
	}
	for _, hyp := range hypervisors {
		if err := c.collectHypervisor(ctx, api, hyp); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (c *Checker) collectHypervisor(ctx context.Context, api API, hyp openstack.Hypervisor) error {
	inst := c.cfg.Instance
	aggregateTags, err := c.aggregateTags(ctx, api, hyp.Hostname)
	if err != nil {
		return errors.Trace(err)
	}
	tags := []string{
		"hypervisor:" + hyp.Hostname,
		"hypervisor_id:" + hyp.ID,
		"virt_type:" + hyp.Type,
		"status:" + hyp.Status,
	}
	tags = append(tags, aggregateTags...)
	tags = append(tags, inst.Tags...)

	status := metrics.StatusOK
	switch hyp.State {
	case "":
		status = metrics.StatusUnknown
	case hypervisorStateUp:
	default:
		status = metrics.StatusCritical
	}
	c.cfg.Sink.ServiceCheck(HypervisorCheck, status, inst.Tags, hyp.Hostname, "")

	if !inst.CollectHypervisorMetrics {
		return nil
	}
	for _, field := range sortedKeys(hyp.Metrics) {
		c.cfg.Sink.Gauge("openstack.nova."+field, hyp.Metrics[field], tags, "")
	}

	if !inst.CollectHypervisorLoad {
		return nil
	}
	loads, err := api.HypervisorLoad(ctx, hyp.ID)
	if err != nil {
		c.cfg.Logger.Warningf("unable to get load averages of hypervisor %s: %v", hyp.ID, err)
		return nil
	}
	if len(loads) != 3 {
		c.cfg.Logger.Debugf("unexpected load averages of hypervisor %s: %v", hyp.ID, loads)
		return nil
	}
	for i, minutes := range []string{"1", "5", "15"} {
		c.cfg.Sink.Gauge("openstack.nova.hypervisor_load."+minutes, loads[i], tags, "")
	}
	return nil
}

// aggregateTags returns the aggregate and availability zone tags of a
// hypervisor host.
func (c *Checker) aggregateTags(ctx context.Context, api API, hostname string) ([]string, error) {
	if c.cfg.Instance.UseShortname {
		hostname, _, _ = strings.Cut(hostname, ".")
	}
	hosts, err := c.aggregates.Get(ctx, func(ctx context.Context) (map[string]aggregateInfo, error) {
		aggregates, err := api.Aggregates(ctx)
		if err != nil {
			return nil, errors.Annotate(err, "listing aggregates")
		}
		hosts := make(map[string]aggregateInfo)
		for _, agg := range aggregates {
			for _, host := range agg.Hosts {
				hosts[host] = aggregateInfo{
					name:             agg.Name,
					availabilityZone: agg.AvailabilityZone,
				}
			}
		}
		return hosts, nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	info, ok := hosts[hostname]
	if !ok {
		c.cfg.Logger.Debugf("host %s is not in any aggregate", hostname)
		return nil, nil
	}
	name := info.name
	if name == "" {
		name = "unknown"
	}
	tags := []string{"aggregate:" + name}
	if info.availabilityZone != "" {
		tags = append(tags, "availability_zone:"+info.availabilityZone)
	}
	return tags, nil
}

func (c *Checker) collectServers(ctx context.Context, api API, projects []openstack.Project, hostTags map[string][]string) error {
	inst := c.cfg.Instance
	tenants := make(map[string]string, len(projects))
	for _, p := range projects {
		tenants[p.ID] = p.Name
	}
	snapshot, err := c.cfg.Inventory.Refresh(ctx, c.name, inventory.Source{
		Fetcher:  api,
		Projects: tenants,
	})
	if err != nil {
		return errors.Annotate(err, "refreshing servers")
	}

	var servers []inventory.Server
	for _, id := range sortedKeys(snapshot.Servers) {
		if anyPrefixMatch(c.excludeServers, id) {
			continue
		}
		servers = append(servers, snapshot.Servers[id])
	}

	type serverTags struct {
		tags     []string
		hostTags []string
	}
	tagged := make([]serverTags, len(servers))
	for i, server := range servers {
		aggregateTags, err := c.aggregateTags(ctx, api, server.HypervisorHostname)
		if err != nil {
			return errors.Trace(err)
		}
		zone := server.AvailabilityZone
		if zone == "" {
			zone = "NA"
		}
		tagged[i].hostTags = append(aggregateTags, "availability_zone:"+zone)
		tagged[i].tags = c.serverTags(server)
		hostTags[server.Name] = tagged[i].hostTags
	}

	if inst.CollectServerDiagnosticMetrics {
		c.cfg.Logger.Debugf("fetching diagnostics of %d server(s) of %q", len(servers), c.name)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(inst.DiagnosticConcurrency)
		for i, server := range servers {
			i, server := i, server
			g.Go(func() error {
				c.collectDiagnostics(gctx, api, server, tagged[i].tags, tagged[i].hostTags)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return errors.Trace(err)
		}
	}

	if inst.CollectServerFlavorMetrics {
		var flavors map[string]inventory.Flavor
		if len(servers) > 0 && servers[0].FlavorID != "" {
			c.cfg.Logger.Debugf("fetching flavors of %q", c.name)
			if flavors, err = api.Flavors(ctx); err != nil {
				return errors.Annotate(err, "listing flavors")
			}
		}
		for i, server := range servers {
			c.collectFlavor(server, flavors, tagged[i].tags, tagged[i].hostTags)
		}
	}
	return nil
}

func (c *Checker) serverTags(server inventory.Server) []string {
	tags := append([]string(nil), c.cfg.Instance.Tags...)
	tags = append(tags, "nova_managed_server")
	if server.ProjectName != "" {
		tags = append(tags, "project_name:"+server.ProjectName)
	}
	if server.HypervisorHostname != "" {
		tags = append(tags, "hypervisor:"+server.HypervisorHostname)
	}
	if server.Name != "" {
		tags = append(tags, "server_name:"+server.Name)
	}
	return tags
}

// collectDiagnostics reports the diagnostics of a server. Servers whose
// diagnostics are unavailable are skipped.
func (c *Checker) collectDiagnostics(ctx context.Context, api API, server inventory.Server, tags, hostTags []string) {
	stats, err := api.ServerDiagnostics(ctx, server.ID)
	if errors.Is(err, errors.NotFound) {
		c.cfg.Logger.Debugf("server %s is not active and cannot be monitored: %v", server.ID, err)
		return
	} else if err != nil {
		c.cfg.Logger.Debugf("cannot get diagnostics of server %s: %v", server.ID, err)
		return
	}

	for _, field := range sortedKeys(stats) {
		if name, iface, ok := interfaceMetric(field); ok {
			c.cfg.Sink.Gauge("openstack.nova.server."+name, stats[field], joinTags(tags, hostTags, "interface:"+iface), server.ID)
			continue
		}
		if serverMetrics.Contains(field) {
			name := strings.ReplaceAll(field, "-", "_")
			c.cfg.Sink.Gauge("openstack.nova.server."+name, stats[field], joinTags(tags, hostTags), server.ID)
		}
	}
}

// interfaceMetric splits an interface counter such as "tap1_rx_errors"
// into its metric name "rx_errors" and interface "tap1".
func interfaceMetric(field string) (name, iface string, ok bool) {
	loc := interfaceSegment.FindStringIndex(field)
	if loc == nil {
		return "", "", false
	}
	rest := field[loc[1]:]
	if next := interfaceSegment.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return field[loc[0]+1:loc[1]] + rest, field[:loc[0]], true
}

func (c *Checker) collectFlavor(server inventory.Server, flavors map[string]inventory.Flavor, tags, hostTags []string) {
	var flavor *inventory.Flavor
	if server.FlavorID != "" && len(flavors) > 0 {
		if f, ok := flavors[server.FlavorID]; ok {
			flavor = &f
		}
	} else {
		flavor = server.Flavor
	}
	if flavor == nil {
		return
	}

	all := joinTags(tags, hostTags)
	for _, g := range []struct {
		name  string
		value float64
	}{
		{"disk", flavor.Disk},
		{"vcpus", flavor.VCPUs},
		{"ram", flavor.RAM},
		{"ephemeral", flavor.Ephemeral},
		{"swap", flavor.Swap},
	} {
		c.cfg.Sink.Gauge("openstack.nova.server.flavor."+g.name, g.value, all, server.ID)
	}
}

func (c *Checker) collectNetworks(ctx context.Context, api API) error {
	networks, err := api.Networks(ctx)
	if err != nil {
		return errors.Annotate(err, "listing networks")
	}

	only := set.NewStrings(c.cfg.Instance.NetworkIDs...)
	for _, network := range networks {
		if !only.IsEmpty() {
			if !only.Contains(network.ID) {
				continue
			}
		} else if anyPrefixMatch(c.excludeNetworks, network.ID) {
			continue
		}

		tags := append([]string{"network:" + network.ID}, c.cfg.Instance.Tags...)
		if network.Name != "" {
			tags = append(tags, "network_name:"+network.Name)
		}
		if network.TenantID != "" {
			tags = append(tags, "tenant_id:"+network.TenantID)
		}
		status := metrics.StatusCritical
		if network.AdminStateUp {
			status = metrics.StatusOK
		}
		c.cfg.Sink.ServiceCheck(NetworkCheck, status, tags, "", "")
	}
	return nil
}

func joinTags(tags, hostTags []string, extra ...string) []string {
	all := make([]string, 0, len(tags)+len(hostTags)+len(extra))
	all = append(all, tags...)
	all = append(all, hostTags...)
	return append(all, extra...)
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// anyPrefixMatch reports whether a pattern matches at the start of s.
func anyPrefixMatch(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if loc := re.FindStringIndex(s); loc != nil && loc[0] == 0 {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
