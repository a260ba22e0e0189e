// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package config

import (
	"github.com/juju/schema"

	"github.com/juju/infrapoller/internal/backoff"
	"github.com/juju/infrapoller/internal/leaderelection"
)

var metricsChecker = schema.FieldMap(
	schema.Fields{
		"listen":    schema.String(),
		"staleness": schema.String(),
	},
	schema.Defaults{
		"listen":    DefaultMetricsListen,
		"staleness": DefaultStaleness.String(),
	},
)

var tracingChecker = schema.FieldMap(
	schema.Fields{
		"endpoint": schema.String(),
		"insecure": schema.Bool(),
	},
	schema.Defaults{
		"endpoint": "",
		"insecure": false,
	},
)

var instanceChecker = schema.FieldMap(
	schema.Fields{
		"name":                              schema.String(),
		"keystone_server_url":               schema.String(),
		"region":                            schema.String(),
		"user":                              schema.String(),
		"password":                          schema.String(),
		"user_domain":                       schema.String(),
		"project":                           schema.String(),
		"project_domain":                    schema.String(),
		"ssl_verify":                        schema.Bool(),
		"tags":                              schema.List(schema.String()),
		"collect_project_metrics":           schema.Bool(),
		"collect_hypervisor_metrics":        schema.Bool(),
		"collect_hypervisor_load":           schema.Bool(),
		"collect_network_metrics":           schema.Bool(),
		"collect_server_diagnostic_metrics": schema.Bool(),
		"collect_server_flavor_metrics":     schema.Bool(),
		"use_shortname":                     schema.Bool(),
		"network_ids":                       schema.List(schema.String()),
		"exclude_network_ids":               schema.List(schema.String()),
		"exclude_server_ids":                schema.List(schema.String()),
		"whitelist_project_names":           schema.List(schema.String()),
		"blacklist_project_names":           schema.List(schema.String()),
		"diagnostic_concurrency":            schema.ForceInt(),
		"interval":                          schema.String(),
		"backoff_base":                      schema.String(),
		"backoff_max":                       schema.String(),
	},
	schema.Defaults{
		"name":                              "",
		"keystone_server_url":               "",
		"region":                            "",
		"user":                              "",
		"password":                          "",
		"user_domain":                       "default",
		"project":                           "",
		"project_domain":                    "default",
		"ssl_verify":                        true,
		"tags":                              []interface{}{},
		"collect_project_metrics":           true,
		"collect_hypervisor_metrics":        true,
		"collect_hypervisor_load":           true,
		"collect_network_metrics":           true,
		"collect_server_diagnostic_metrics": true,
		"collect_server_flavor_metrics":     true,
		"use_shortname":                     false,
		"network_ids":                       []interface{}{},
		"exclude_network_ids":               []interface{}{},
		"exclude_server_ids":                []interface{}{},
		"whitelist_project_names":           []interface{}{},
		"blacklist_project_names":           []interface{}{},
		"diagnostic_concurrency":            4,
		"interval":                          DefaultInterval.String(),
		"backoff_base":                      backoff.DefaultBase.String(),
		"backoff_max":                       backoff.DefaultMax.String(),
	},
)

var recordChecker = schema.FieldMap(
	schema.Fields{
		"namespace":        schema.String(),
		"record_kind":      schema.String(),
		"record_name":      schema.String(),
		"record_namespace": schema.String(),
		"tags":             schema.List(schema.String()),
		"interval":         schema.String(),
	},
	schema.Defaults{
		"namespace":        "",
		"record_kind":      string(leaderelection.KindEndpoints),
		"record_name":      "",
		"record_namespace": "kube-system",
		"tags":             []interface{}{},
		"interval":         DefaultInterval.String(),
	},
)

var configChecker = schema.FieldMap(
	schema.Fields{
		"kubeconfig":      schema.String(),
		"kube_context":    schema.String(),
		"metrics":         metricsChecker,
		"tracing":         tracingChecker,
		"openstack":       schema.List(instanceChecker),
		"leader_election": schema.List(recordChecker),
	},
	schema.Defaults{
		"kubeconfig":      "",
		"kube_context":    "",
		"metrics":         map[string]interface{}{},
		"tracing":         map[string]interface{}{},
		"openstack":       []interface{}{},
		"leader_election": []interface{}{},
	},
)
