// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package metrics holds the reporting side of the checks: gauges,
// service checks and the tags attached to hosts the poller discovers.
package metrics

import (
	"strings"
)

// Status is the outcome of a service check.
type Status int

const (
	StatusOK       Status = 0
	StatusWarning  Status = 1
	StatusCritical Status = 2
	StatusUnknown  Status = 3
)

// String returns the conventional upper case name of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	case StatusCritical:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

// Sink receives the values produced by a check.
type Sink interface {
	// Gauge records the current value of a metric. An empty hostname
	// means the host running the poller.
	Gauge(name string, value float64, tags []string, hostname string)

	// ServiceCheck records the health of a service.
	ServiceCheck(name string, status Status, tags []string, hostname, message string)
}

// HostTagger receives tags for hosts other than the one running the
// poller, keyed by host name.
type HostTagger interface {
	SetExternalHostTags(source string, tags map[string][]string)
}

// SplitTag splits a "key:value" tag. Tags without a separator are
// returned as their own key with an empty value. Whitespace around the
// value is dropped.
func SplitTag(tag string) (string, string) {
	key, value, ok := strings.Cut(tag, ":")
	if !ok {
		return tag, ""
	}
	return key, strings.TrimSpace(value)
}
