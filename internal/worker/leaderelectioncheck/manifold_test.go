// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package leaderelectioncheck_test

import (
	"context"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4"
	dt "github.com/juju/worker/v4/dependency/testing"
	"go.opentelemetry.io/otel/trace/noop"
	gc "gopkg.in/check.v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/juju/infrapoller/internal/config"
	"github.com/juju/infrapoller/internal/leaderelection"
	metricstesting "github.com/juju/infrapoller/internal/metrics/testing"
	"github.com/juju/infrapoller/internal/worker/leaderelectioncheck"
	"github.com/juju/infrapoller/internal/worker/poller"
)

type manifoldSuite struct {
	testing.IsolationSuite
	config leaderelectioncheck.ManifoldConfig
}

var _ = gc.Suite(&manifoldSuite{})

func (s *manifoldSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.config = s.validConfig()
}

func (s *manifoldSuite) validConfig() leaderelectioncheck.ManifoldConfig {
	clk := testclock.NewClock(time.Time{})
	return leaderelectioncheck.ManifoldConfig{
		TracerName: "tracer",
		Record: config.LeaderElectionRecord{
			Namespace:       "kube_scheduler",
			RecordKind:      "endpoints",
			RecordName:      "kube-scheduler",
			RecordNamespace: "kube-system",
			Interval:        30 * time.Second,
		},
		Getter: leaderelection.NewGetter(fake.NewSimpleClientset(), clk),
		Sink:   metricstesting.NewRecordingSink(),
		NewWorker: func(poller.Config) (worker.Worker, error) {
			return nil, nil
		},
		Clock:  clk,
		Logger: loggo.GetLogger("test"),
	}
}

func (s *manifoldSuite) TestValid(c *gc.C) {
	c.Check(s.config.Validate(), jc.ErrorIsNil)
}

func (s *manifoldSuite) TestMissingTracerName(c *gc.C) {
	s.config.TracerName = ""
	s.checkNotValid(c, "empty TracerName not valid")
}

func (s *manifoldSuite) TestMissingGetter(c *gc.C) {
	s.config.Getter = nil
	s.checkNotValid(c, "nil Getter not valid")
}

func (s *manifoldSuite) TestMissingSink(c *gc.C) {
	s.config.Sink = nil
	s.checkNotValid(c, "nil Sink not valid")
}

func (s *manifoldSuite) TestMissingNewWorker(c *gc.C) {
	s.config.NewWorker = nil
	s.checkNotValid(c, "nil NewWorker not valid")
}

func (s *manifoldSuite) TestMissingClock(c *gc.C) {
	s.config.Clock = nil
	s.checkNotValid(c, "nil Clock not valid")
}

func (s *manifoldSuite) TestMissingLogger(c *gc.C) {
	s.config.Logger = nil
	s.checkNotValid(c, "nil Logger not valid")
}

func (s *manifoldSuite) checkNotValid(c *gc.C, expect string) {
	err := s.config.Validate()
	c.Check(err, gc.ErrorMatches, expect)
	c.Check(err, jc.ErrorIs, errors.NotValid)
}

func (s *manifoldSuite) TestStart(c *gc.C) {
	called := false
	s.config.NewWorker = func(cfg poller.Config) (worker.Worker, error) {
		called = true
		c.Check(cfg.Name, gc.Equals, "kube-system/kube-scheduler")
		c.Check(cfg.Interval, gc.Equals, 30*time.Second)
		c.Check(cfg.Validate(), jc.ErrorIsNil)
		return nil, nil
	}
	manifold := leaderelectioncheck.Manifold(s.config)
	c.Check(manifold.Inputs, jc.DeepEquals, []string{"tracer"})

	w, err := manifold.Start(context.Background(), dt.StubGetter(map[string]interface{}{
		"tracer": noop.NewTracerProvider(),
	}))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(w, gc.IsNil)
	c.Check(called, jc.IsTrue)
}

func (s *manifoldSuite) TestStartWorker(c *gc.C) {
	s.config.NewWorker = leaderelectioncheck.NewWorker
	manifold := leaderelectioncheck.Manifold(s.config)

	w, err := manifold.Start(context.Background(), dt.StubGetter(map[string]interface{}{
		"tracer": noop.NewTracerProvider(),
	}))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(w, gc.NotNil)
	w.Kill()
	c.Check(w.Wait(), jc.ErrorIsNil)
}
