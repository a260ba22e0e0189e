// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	hostLabel = "host"

	externalHostFamily = "infrapoller_external_host_info"
)

// Collector is a Sink exposing the most recent value of every gauge and
// service check as a prometheus.Collector. Values not refreshed within
// the staleness window are dropped, so entities that disappear from the
// monitored cloud stop being reported.
type Collector struct {
	clock     clock.Clock
	staleness time.Duration

	mu       sync.Mutex
	samples  map[string]*sample
	hostTags map[string]map[string][]string
}

type sample struct {
	family  string
	help    string
	labels  map[string]string
	value   float64
	updated time.Time
}

var (
	_ Sink                 = (*Collector)(nil)
	_ HostTagger           = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

// NewCollector returns a Collector that forgets samples older than
// staleness. A zero staleness keeps samples forever.
func NewCollector(clk clock.Clock, staleness time.Duration) *Collector {
	return &Collector{
		clock:     clk,
		staleness: staleness,
		samples:   make(map[string]*sample),
		hostTags:  make(map[string]map[string][]string),
	}
}

// Gauge is part of the Sink interface.
func (c *Collector) Gauge(name string, value float64, tags []string, hostname string) {
	c.record(name, fmt.Sprintf("Gauge %s.", name), value, tags, hostname)
}

// ServiceCheck is part of the Sink interface. The status code is
// exported as the value; the message is not.
func (c *Collector) ServiceCheck(name string, status Status, tags []string, hostname, message string) {
	help := fmt.Sprintf("Service check %s (0 OK, 1 WARNING, 2 CRITICAL, 3 UNKNOWN).", name)
	c.record(name, help, float64(status), tags, hostname)
}

// SetExternalHostTags is part of the HostTagger interface. It replaces
// all tags previously set for source.
func (c *Collector) SetExternalHostTags(source string, tags map[string][]string) {
	copied := make(map[string][]string, len(tags))
	for host, t := range tags {
		copied[host] = append([]string(nil), t...)
	}
	c.mu.Lock()
	c.hostTags[source] = copied
	c.mu.Unlock()
}

func (c *Collector) record(name, help string, value float64, tags []string, hostname string) {
	family := sanitizeName(name)
	labels := tagsToLabels(tags)
	if hostname != "" {
		labels[hostLabel] = hostname
	}

	key := sampleKey(family, labels)
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[key] = &sample{
		family:  family,
		help:    help,
		labels:  labels,
		value:   value,
		updated: now,
	}
}

// Describe is part of the prometheus.Collector interface. The set of
// metrics is only known once the checks have run, so nothing is
// described up front.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	families := make(map[string][]*sample)
	for key, s := range c.samples {
		if c.staleness > 0 && now.Sub(s.updated) > c.staleness {
			delete(c.samples, key)
			continue
		}
		families[s.family] = append(families[s.family], s)
	}

	for family, samples := range families {
		// Every sample of a family must carry the same label names.
		keySet := make(map[string]struct{})
		for _, s := range samples {
			for k := range s.labels {
				keySet[k] = struct{}{}
			}
		}
		keys := make([]string, 0, len(keySet))
		for k := range keySet {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		desc := prometheus.NewDesc(family, samples[0].help, keys, nil)
		for _, s := range samples {
			values := make([]string, len(keys))
			for i, k := range keys {
				values[i] = s.labels[k]
			}
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, s.value, values...)
		}
	}

	desc := prometheus.NewDesc(externalHostFamily,
		"Tags of hosts discovered by the poller.",
		[]string{"source", hostLabel, "tags"}, nil,
	)
	for source, hosts := range c.hostTags {
		for host, tags := range hosts {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, 1,
				source, host, strings.Join(tags, ","),
			)
		}
	}
}

// tagsToLabels converts "key:value" tags into prometheus labels. Repeated
// keys are joined with a comma, bare tags get the value "true".
func tagsToLabels(tags []string) map[string]string {
	labels := make(map[string]string, len(tags))
	for _, tag := range tags {
		key, value := SplitTag(tag)
		key = sanitizeLabel(key)
		if key == "" {
			continue
		}
		if value == "" {
			value = "true"
		}
		if existing, ok := labels[key]; ok && existing != value {
			value = existing + "," + value
		}
		labels[key] = value
	}
	return labels
}

func sampleKey(family string, labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(family)
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}

// sanitizeName maps a dotted check metric name onto the prometheus
// metric name alphabet.
func sanitizeName(name string) string {
	return sanitize(name, true)
}

// sanitizeLabel maps a tag key onto a label name. Names starting with
// "__" are reserved by prometheus and lose all but one leading
// underscore.
func sanitizeLabel(name string) string {
	label := sanitize(strings.TrimSpace(name), false)
	if strings.HasPrefix(label, "__") {
		label = "_" + strings.TrimLeft(label, "_")
	}
	return label
}

func sanitize(name string, allowColon bool) string {
	b := []byte(name)
	for i, ch := range b {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case ch >= '0' && ch <= '9' && i > 0:
		case ch == ':' && allowColon:
		default:
			b[i] = '_'
		}
	}
	return string(b)
}
