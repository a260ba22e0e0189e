// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package metrics_test

import (
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	gc "gopkg.in/check.v1"

	"github.com/juju/infrapoller/internal/metrics"
)

type collectorSuite struct {
	testing.IsolationSuite

	clock     *testclock.Clock
	collector *metrics.Collector
	registry  *prometheus.Registry
}

var _ = gc.Suite(&collectorSuite{})

func (s *collectorSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.clock = testclock.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.collector = metrics.NewCollector(s.clock, time.Minute)
	s.registry = prometheus.NewRegistry()
	c.Assert(s.registry.Register(s.collector), jc.ErrorIsNil)
}

func (s *collectorSuite) gather(c *gc.C) map[string]*dto.MetricFamily {
	families, err := s.registry.Gather()
	c.Assert(err, jc.ErrorIsNil)
	result := make(map[string]*dto.MetricFamily)
	for _, f := range families {
		result[f.GetName()] = f
	}
	return result
}

func labels(m *dto.Metric) map[string]string {
	result := make(map[string]string)
	for _, l := range m.GetLabel() {
		result[l.GetName()] = l.GetValue()
	}
	return result
}

func (s *collectorSuite) TestGauge(c *gc.C) {
	s.collector.Gauge("openstack.nova.free_ram_mb", 2048, []string{"hypervisor:compute-1", "nova_managed_server"}, "")

	families := s.gather(c)
	family, ok := families["openstack_nova_free_ram_mb"]
	c.Assert(ok, jc.IsTrue)
	c.Assert(family.GetMetric(), gc.HasLen, 1)
	metric := family.GetMetric()[0]
	c.Check(metric.GetGauge().GetValue(), gc.Equals, 2048.0)
	c.Check(labels(metric), jc.DeepEquals, map[string]string{
		"hypervisor":          "compute-1",
		"nova_managed_server": "true",
	})
}

func (s *collectorSuite) TestReservedLabelPrefix(c *gc.C) {
	s.collector.Gauge("openstack.nova.vcpus", 8, []string{"__name__:evil", "__:x", "_private:y"}, "")

	families := s.gather(c)
	family, ok := families["openstack_nova_vcpus"]
	c.Assert(ok, jc.IsTrue)
	c.Assert(family.GetMetric(), gc.HasLen, 1)
	c.Check(labels(family.GetMetric()[0]), jc.DeepEquals, map[string]string{
		"_name__":  "evil",
		"_":        "x",
		"_private": "y",
	})
}

func (s *collectorSuite) TestLatestValueWins(c *gc.C) {
	s.collector.Gauge("openstack.backoff.retries", 1, []string{"env:prod"}, "")
	s.collector.Gauge("openstack.backoff.retries", 2, []string{"env:prod"}, "")

	family := s.gather(c)["openstack_backoff_retries"]
	c.Assert(family.GetMetric(), gc.HasLen, 1)
	c.Check(family.GetMetric()[0].GetGauge().GetValue(), gc.Equals, 2.0)
}

func (s *collectorSuite) TestServiceCheck(c *gc.C) {
	s.collector.ServiceCheck("openstack.nova.hypervisor.up", metrics.StatusCritical, nil, "compute-2", "")

	family := s.gather(c)["openstack_nova_hypervisor_up"]
	c.Assert(family.GetMetric(), gc.HasLen, 1)
	metric := family.GetMetric()[0]
	c.Check(metric.GetGauge().GetValue(), gc.Equals, 2.0)
	c.Check(labels(metric), jc.DeepEquals, map[string]string{"host": "compute-2"})
}

func (s *collectorSuite) TestLabelsUnionedAcrossFamily(c *gc.C) {
	s.collector.Gauge("openstack.nova.server.memory", 1, []string{"server_name:a"}, "id-a")
	s.collector.Gauge("openstack.nova.server.memory", 2, []string{"server_name:b", "project_name:admin"}, "id-b")

	family := s.gather(c)["openstack_nova_server_memory"]
	c.Assert(family.GetMetric(), gc.HasLen, 2)
	hosts := make(map[string]map[string]string)
	for _, m := range family.GetMetric() {
		l := labels(m)
		hosts[l["host"]] = l
	}
	c.Check(hosts["id-a"]["server_name"], gc.Equals, "a")
	c.Check(hosts["id-a"]["project_name"], gc.Equals, "")
	c.Check(hosts["id-b"]["project_name"], gc.Equals, "admin")
}

func (s *collectorSuite) TestStaleSamplesDropped(c *gc.C) {
	s.collector.Gauge("openstack.nova.running_vms", 3, nil, "")
	s.clock.Advance(30 * time.Second)
	s.collector.Gauge("openstack.nova.vcpus", 8, nil, "")
	s.clock.Advance(31 * time.Second)

	families := s.gather(c)
	_, ok := families["openstack_nova_running_vms"]
	c.Check(ok, jc.IsFalse)
	_, ok = families["openstack_nova_vcpus"]
	c.Check(ok, jc.IsTrue)
}

func (s *collectorSuite) TestExternalHostTags(c *gc.C) {
	s.collector.SetExternalHostTags("openstack", map[string][]string{
		"server-1": {"aggregate:fast", "availability_zone:nova"},
	})

	family := s.gather(c)["infrapoller_external_host_info"]
	c.Assert(family.GetMetric(), gc.HasLen, 1)
	c.Check(labels(family.GetMetric()[0]), jc.DeepEquals, map[string]string{
		"source": "openstack",
		"host":   "server-1",
		"tags":   "aggregate:fast,availability_zone:nova",
	})

	// A new set replaces the previous one.
	s.collector.SetExternalHostTags("openstack", nil)
	_, ok := s.gather(c)["infrapoller_external_host_info"]
	c.Check(ok, jc.IsFalse)
}

type sinkSuite struct{}

var _ = gc.Suite(&sinkSuite{})

func (*sinkSuite) TestSplitTag(c *gc.C) {
	for i, test := range []struct {
		tag, key, value string
	}{
		{"env:prod", "env", "prod"},
		{"keystone_server: http://10.0.0.1:5000", "keystone_server", "http://10.0.0.1:5000"},
		{"nova_managed_server", "nova_managed_server", ""},
	} {
		c.Logf("test %d: %q", i, test.tag)
		key, value := metrics.SplitTag(test.tag)
		c.Check(key, gc.Equals, test.key)
		c.Check(value, gc.Equals, test.value)
	}
}

func (*sinkSuite) TestStatusString(c *gc.C) {
	c.Check(metrics.StatusOK.String(), gc.Equals, "OK")
	c.Check(metrics.StatusWarning.String(), gc.Equals, "WARNING")
	c.Check(metrics.StatusCritical.String(), gc.Equals, "CRITICAL")
	c.Check(metrics.StatusUnknown.String(), gc.Equals, "UNKNOWN")
}
