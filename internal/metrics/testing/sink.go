// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"sync"

	"github.com/juju/infrapoller/internal/metrics"
)

// Gauge is a recorded call to Sink.Gauge.
type Gauge struct {
	Name     string
	Value    float64
	Tags     []string
	Hostname string
}

// ServiceCheck is a recorded call to Sink.ServiceCheck.
type ServiceCheck struct {
	Name     string
	Status   metrics.Status
	Tags     []string
	Hostname string
	Message  string
}

// RecordingSink is a metrics.Sink and metrics.HostTagger that remembers
// everything it is given.
type RecordingSink struct {
	mu            sync.Mutex
	gauges        []Gauge
	serviceChecks []ServiceCheck
	hostTags      map[string]map[string][]string
}

// NewRecordingSink returns an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{
		hostTags: make(map[string]map[string][]string),
	}
}

// Gauge is part of the metrics.Sink interface.
func (s *RecordingSink) Gauge(name string, value float64, tags []string, hostname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges = append(s.gauges, Gauge{
		Name:     name,
		Value:    value,
		Tags:     append([]string(nil), tags...),
		Hostname: hostname,
	})
}

// ServiceCheck is part of the metrics.Sink interface.
func (s *RecordingSink) ServiceCheck(name string, status metrics.Status, tags []string, hostname, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceChecks = append(s.serviceChecks, ServiceCheck{
		Name:     name,
		Status:   status,
		Tags:     append([]string(nil), tags...),
		Hostname: hostname,
		Message:  message,
	})
}

// SetExternalHostTags is part of the metrics.HostTagger interface.
func (s *RecordingSink) SetExternalHostTags(source string, tags map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hostTags[source] = tags
}

// Gauges returns the recorded gauges, optionally restricted to name.
func (s *RecordingSink) Gauges(name string) []Gauge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []Gauge
	for _, g := range s.gauges {
		if name == "" || g.Name == name {
			result = append(result, g)
		}
	}
	return result
}

// ServiceChecks returns the recorded service checks, optionally
// restricted to name.
func (s *RecordingSink) ServiceChecks(name string) []ServiceCheck {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []ServiceCheck
	for _, sc := range s.serviceChecks {
		if name == "" || sc.Name == name {
			result = append(result, sc)
		}
	}
	return result
}

// HostTags returns the external host tags last set for source.
func (s *RecordingSink) HostTags(source string) map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostTags[source]
}

// Reset forgets everything recorded so far.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges = nil
	s.serviceChecks = nil
	s.hostTags = make(map[string]map[string][]string)
}
