// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package metricsserver_test

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	"github.com/prometheus/client_golang/prometheus"
	gc "gopkg.in/check.v1"

	"github.com/juju/infrapoller/internal/metrics"
	"github.com/juju/infrapoller/internal/worker/metricsserver"
)

type workerSuite struct {
	testing.IsolationSuite

	registry *prometheus.Registry
}

var _ = gc.Suite(&workerSuite{})

func (s *workerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	collector := metrics.NewCollector(testclock.NewClock(time.Now()), 0)
	collector.Gauge("openstack.nova.vcpus", 8, []string{"hypervisor:compute-1"}, "")
	s.registry = prometheus.NewRegistry()
	c.Assert(s.registry.Register(collector), jc.ErrorIsNil)
}

func (s *workerSuite) config() metricsserver.Config {
	return metricsserver.Config{
		ListenAddress: "127.0.0.1:0",
		Gatherer:      s.registry,
		Logger:        loggo.GetLogger("test"),
	}
}

func (s *workerSuite) TestValidate(c *gc.C) {
	cfg := s.config()
	c.Check(cfg.Validate(), jc.ErrorIsNil)

	cfg.ListenAddress = ""
	c.Check(cfg.Validate(), gc.ErrorMatches, "empty ListenAddress not valid")

	cfg = s.config()
	cfg.Gatherer = nil
	c.Check(cfg.Validate(), jc.ErrorIs, errors.NotValid)
}

func (s *workerSuite) TestServesMetrics(c *gc.C) {
	w, err := metricsserver.NewWorker(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.CleanKill(c, w)

	ctx, cancel := context.WithTimeout(context.Background(), testing.LongWait)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+w.Addr().String()+"/metrics", nil)
	c.Assert(err, jc.ErrorIsNil)
	resp, err := http.DefaultClient.Do(req)
	c.Assert(err, jc.ErrorIsNil)
	defer resp.Body.Close()

	c.Check(resp.StatusCode, gc.Equals, http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(body), jc.Contains, `openstack_nova_vcpus{hypervisor="compute-1"} 8`)
}

func (s *workerSuite) TestListenFailure(c *gc.C) {
	cfg := s.config()
	cfg.ListenAddress = "256.0.0.1:0"
	_, err := metricsserver.NewWorker(cfg)
	c.Check(err, gc.ErrorMatches, `listening on "256.0.0.1:0": .*`)
}

func (s *workerSuite) TestManifold(c *gc.C) {
	w, err := metricsserver.Manifold(s.config()).Start(context.Background(), nil)
	c.Assert(err, jc.ErrorIsNil)
	workertest.CleanKill(c, w)
}
