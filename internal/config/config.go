// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config reads the poller configuration file.
package config

import (
	"os"
	"regexp"
	"time"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/juju/infrapoller/internal/leaderelection"
)

const (
	// DefaultInterval is how often each target is polled.
	DefaultInterval = 15 * time.Second

	// DefaultMetricsListen is the address serving /metrics.
	DefaultMetricsListen = ":9180"

	// DefaultStaleness is how long a reported value is exposed without
	// being refreshed.
	DefaultStaleness = 10 * time.Minute
)

// Config is the whole configuration of the poller.
type Config struct {
	// KubeConfig is the path of a kubeconfig file. The in-cluster
	// configuration is used when it is empty.
	KubeConfig  string
	KubeContext string

	Metrics        MetricsConfig
	Tracing        TracingConfig
	OpenStack      []OpenStackInstance
	LeaderElection []LeaderElectionRecord
}

// MetricsConfig configures how values are exposed.
type MetricsConfig struct {
	Listen    string
	Staleness time.Duration
}

// TracingConfig configures span export.
type TracingConfig struct {
	Endpoint string
	Insecure bool
}

// OpenStackInstance is an OpenStack cloud to poll.
type OpenStackInstance struct {
	Name              string
	KeystoneServerURL string
	Region            string
	User              string
	Password          string
	UserDomain        string
	Project           string
	ProjectDomain     string
	SSLVerify         bool
	Tags              []string

	CollectProjectMetrics          bool
	CollectHypervisorMetrics       bool
	CollectHypervisorLoad          bool
	CollectNetworkMetrics          bool
	CollectServerDiagnosticMetrics bool
	CollectServerFlavorMetrics     bool
	UseShortname                   bool

	NetworkIDs            []string
	ExcludeNetworkIDs     []string
	ExcludeServerIDs      []string
	IncludeProjectNames   []string
	ExcludeProjectNames   []string
	DiagnosticConcurrency int

	Interval    time.Duration
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Validate ensures that the instance can be polled.
func (i OpenStackInstance) Validate() error {
	if i.Name == "" {
		return errors.NotValidf("empty instance name")
	}
	if i.KeystoneServerURL == "" {
		return errors.NotValidf("instance %q without keystone_server_url", i.Name)
	}
	if i.User == "" || i.Password == "" {
		return errors.NotValidf("instance %q without user and password", i.Name)
	}
	if i.Interval <= 0 {
		return errors.NotValidf("instance %q interval %v", i.Name, i.Interval)
	}
	if i.DiagnosticConcurrency <= 0 {
		return errors.NotValidf("instance %q diagnostic_concurrency %d", i.Name, i.DiagnosticConcurrency)
	}
	if i.BackoffBase < 0 || i.BackoffMax < 0 || i.BackoffMax < i.BackoffBase {
		return errors.NotValidf("instance %q backoff between %v and %v", i.Name, i.BackoffBase, i.BackoffMax)
	}
	for _, patterns := range [][]string{
		i.ExcludeNetworkIDs, i.ExcludeServerIDs, i.IncludeProjectNames, i.ExcludeProjectNames,
	} {
		if _, err := CompilePatterns(patterns); err != nil {
			return errors.Annotatef(err, "instance %q", i.Name)
		}
	}
	return nil
}

// LeaderElectionRecord is a leader election record to check.
type LeaderElectionRecord struct {
	// Namespace prefixes the reported metric names.
	Namespace       string
	RecordKind      string
	RecordName      string
	RecordNamespace string
	Tags            []string
	Interval        time.Duration
}

// Validate ensures that the record can be checked.
func (r LeaderElectionRecord) Validate() error {
	if r.Namespace == "" {
		return errors.NotValidf("empty metric namespace")
	}
	if _, err := leaderelection.ParseKind(r.RecordKind); err != nil {
		return errors.Trace(err)
	}
	if r.RecordName == "" {
		return errors.NotValidf("leader election record without record_name")
	}
	if r.Interval <= 0 {
		return errors.NotValidf("leader election interval %v", r.Interval)
	}
	return nil
}

// Validate ensures that the configuration is usable.
func (c *Config) Validate() error {
	if c.Metrics.Listen == "" {
		return errors.NotValidf("empty metrics listen address")
	}
	if c.Metrics.Staleness < 0 {
		return errors.NotValidf("negative metrics staleness")
	}
	names := set.NewStrings()
	for _, instance := range c.OpenStack {
		if err := instance.Validate(); err != nil {
			return errors.Trace(err)
		}
		if names.Contains(instance.Name) {
			return errors.NotValidf("duplicate instance name %q", instance.Name)
		}
		names.Add(instance.Name)
	}
	for _, record := range c.LeaderElection {
		if err := record.Validate(); err != nil {
			return errors.Annotatef(err, "leader election record %s/%s", record.RecordNamespace, record.RecordName)
		}
	}
	return nil
}

// CompilePatterns compiles a list of regular expressions.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	result := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.NewNotValid(err, "pattern "+p)
		}
		result = append(result, re)
	}
	return result, nil
}

// Read parses and validates the configuration file at path.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "reading configuration %q", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "parsing configuration %q", path)
	}
	return cfg, nil
}

// Parse parses and validates YAML configuration, filling in defaults.
func Parse(data []byte) (*Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Trace(err)
	}
	if raw == nil {
		raw = make(map[string]interface{})
	}
	coerced, err := configChecker.Coerce(raw, nil)
	if err != nil {
		return nil, errors.NewNotValid(err, "configuration")
	}
	attrs := coerced.(map[string]interface{})

	cfg := &Config{
		KubeConfig:  attrs["kubeconfig"].(string),
		KubeContext: attrs["kube_context"].(string),
	}

	metrics := attrs["metrics"].(map[string]interface{})
	cfg.Metrics.Listen = metrics["listen"].(string)
	if cfg.Metrics.Staleness, err = duration(metrics, "staleness"); err != nil {
		return nil, errors.Trace(err)
	}

	tracing := attrs["tracing"].(map[string]interface{})
	cfg.Tracing.Endpoint = tracing["endpoint"].(string)
	cfg.Tracing.Insecure = tracing["insecure"].(bool)

	for _, v := range attrs["openstack"].([]interface{}) {
		instance, err := parseInstance(v.(map[string]interface{}))
		if err != nil {
			return nil, errors.Trace(err)
		}
		cfg.OpenStack = append(cfg.OpenStack, instance)
	}
	for _, v := range attrs["leader_election"].([]interface{}) {
		record, err := parseRecord(v.(map[string]interface{}))
		if err != nil {
			return nil, errors.Trace(err)
		}
		cfg.LeaderElection = append(cfg.LeaderElection, record)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

func parseInstance(attrs map[string]interface{}) (OpenStackInstance, error) {
	instance := OpenStackInstance{
		Name:              attrs["name"].(string),
		KeystoneServerURL: attrs["keystone_server_url"].(string),
		Region:            attrs["region"].(string),
		User:              attrs["user"].(string),
		Password:          attrs["password"].(string),
		UserDomain:        attrs["user_domain"].(string),
		Project:           attrs["project"].(string),
		ProjectDomain:     attrs["project_domain"].(string),
		SSLVerify:         attrs["ssl_verify"].(bool),
		Tags:              stringList(attrs["tags"]),

		CollectProjectMetrics:          attrs["collect_project_metrics"].(bool),
		CollectHypervisorMetrics:       attrs["collect_hypervisor_metrics"].(bool),
		CollectHypervisorLoad:          attrs["collect_hypervisor_load"].(bool),
		CollectNetworkMetrics:          attrs["collect_network_metrics"].(bool),
		CollectServerDiagnosticMetrics: attrs["collect_server_diagnostic_metrics"].(bool),
		CollectServerFlavorMetrics:     attrs["collect_server_flavor_metrics"].(bool),
		UseShortname:                   attrs["use_shortname"].(bool),

		NetworkIDs:            stringList(attrs["network_ids"]),
		ExcludeNetworkIDs:     stringList(attrs["exclude_network_ids"]),
		ExcludeServerIDs:      stringList(attrs["exclude_server_ids"]),
		IncludeProjectNames:   stringList(attrs["whitelist_project_names"]),
		ExcludeProjectNames:   stringList(attrs["blacklist_project_names"]),
		DiagnosticConcurrency: attrs["diagnostic_concurrency"].(int),
	}
	if instance.Name == "" {
		instance.Name = instance.KeystoneServerURL
	}

	var err error
	if instance.Interval, err = duration(attrs, "interval"); err != nil {
		return instance, errors.Trace(err)
	}
	if instance.BackoffBase, err = duration(attrs, "backoff_base"); err != nil {
		return instance, errors.Trace(err)
	}
	if instance.BackoffMax, err = duration(attrs, "backoff_max"); err != nil {
		return instance, errors.Trace(err)
	}
	return instance, nil
}

func parseRecord(attrs map[string]interface{}) (LeaderElectionRecord, error) {
	record := LeaderElectionRecord{
		Namespace:       attrs["namespace"].(string),
		RecordKind:      attrs["record_kind"].(string),
		RecordName:      attrs["record_name"].(string),
		RecordNamespace: attrs["record_namespace"].(string),
		Tags:            stringList(attrs["tags"]),
	}
	var err error
	if record.Interval, err = duration(attrs, "interval"); err != nil {
		return record, errors.Trace(err)
	}
	return record, nil
}

func duration(attrs map[string]interface{}, key string) (time.Duration, error) {
	d, err := time.ParseDuration(attrs[key].(string))
	if err != nil {
		return 0, errors.NewNotValid(err, key)
	}
	return d, nil
}

func stringList(v interface{}) []string {
	list, _ := v.([]interface{})
	if len(list) == 0 {
		return nil
	}
	result := make([]string, len(list))
	for i, item := range list {
		result[i] = item.(string)
	}
	return result
}
