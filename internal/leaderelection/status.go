// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package leaderelection

import (
	"github.com/juju/errors"

	"github.com/juju/infrapoller/internal/metrics"
)

const metricSuffix = ".leader_election"

// ReportConfig describes where an election record was read from and how
// its status is reported.
type ReportConfig struct {
	// Namespace prefixes every metric and service check name.
	Namespace string

	// Tags are attached to everything reported.
	Tags []string

	RecordKind      string
	RecordName      string
	RecordNamespace string
}

// Prefix returns the metric name prefix for the record.
func (c ReportConfig) Prefix() (string, error) {
	if c.Namespace == "" {
		return "", errors.NotValidf("empty metric namespace")
	}
	return c.Namespace + metricSuffix, nil
}

// ReportTags returns the configured tags followed by the tags
// identifying the record.
func (c ReportConfig) ReportTags() []string {
	tags := append([]string(nil), c.Tags...)
	for _, t := range []struct{ key, value string }{
		{"record_kind", c.RecordKind},
		{"record_name", c.RecordName},
		{"record_namespace", c.RecordNamespace},
	} {
		if t.value != "" {
			tags = append(tags, t.key+":"+t.value)
		}
	}
	return tags
}

// ReportStatus sends the health of the record to sink. An invalid record
// only produces a critical service check carrying the reason.
func ReportStatus(sink metrics.Sink, cfg ReportConfig, record *Record) error {
	prefix, err := cfg.Prefix()
	if err != nil {
		return errors.Trace(err)
	}
	tags := cfg.ReportTags()

	if valid, reason := record.Validate(); !valid {
		sink.ServiceCheck(prefix, metrics.StatusCritical, tags, "", invalidMessage(reason))
		return nil
	}

	sink.Gauge(prefix+".transitions", float64(record.Transitions()), tags, "")
	sink.Gauge(prefix+".lease_duration", float64(record.LeaseDuration()), tags, "")

	status := metrics.StatusOK
	if record.Expired() {
		status = metrics.StatusCritical
	}
	sink.ServiceCheck(prefix, status, tags, "", record.String())
	return nil
}
