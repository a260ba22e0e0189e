// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package backoff_test

import (
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/infrapoller/internal/backoff"
)

type controllerSuite struct {
	testing.IsolationSuite

	clock      *testclock.Clock
	controller *backoff.Controller
}

var _ = gc.Suite(&controllerSuite{})

func (s *controllerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.clock = testclock.NewClock(time.Now())

	var err error
	s.controller, err = backoff.NewController(backoff.Config{Clock: s.clock})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *controllerSuite) TestValidate(c *gc.C) {
	_, err := backoff.NewController(backoff.Config{})
	c.Check(err, jc.ErrorIs, errors.NotValid)

	_, err = backoff.NewController(backoff.Config{Clock: s.clock, Base: -time.Second})
	c.Check(err, jc.ErrorIs, errors.NotValid)

	_, err = backoff.NewController(backoff.Config{Clock: s.clock, Base: time.Minute, Max: time.Second})
	c.Check(err, gc.ErrorMatches, "max interval 1s less than base interval 1m0s not valid")
}

func (s *controllerSuite) TestShouldRunWithoutFailures(c *gc.C) {
	c.Check(s.controller.ShouldRun("instance-1"), jc.IsTrue)
}

func (s *controllerSuite) TestIntervalDoubles(c *gc.C) {
	var intervals []time.Duration
	for i := 1; i <= 3; i++ {
		interval, retries := s.controller.DoBackoff("instance-1")
		c.Check(retries, gc.Equals, i)
		intervals = append(intervals, interval)
	}
	c.Check(intervals, jc.DeepEquals, []time.Duration{
		15 * time.Second,
		30 * time.Second,
		60 * time.Second,
	})
}

func (s *controllerSuite) TestIntervalCapped(c *gc.C) {
	var interval time.Duration
	for i := 0; i < 20; i++ {
		interval, _ = s.controller.DoBackoff("instance-1")
		c.Check(interval <= backoff.DefaultMax, jc.IsTrue)
	}
	c.Check(interval, gc.Equals, backoff.DefaultMax)
	c.Check(s.controller.Retries("instance-1"), gc.Equals, 20)
}

func (s *controllerSuite) TestCustomBounds(c *gc.C) {
	controller, err := backoff.NewController(backoff.Config{
		Clock: s.clock,
		Base:  time.Second,
		Max:   3 * time.Second,
	})
	c.Assert(err, jc.ErrorIsNil)

	var intervals []time.Duration
	for i := 0; i < 4; i++ {
		interval, _ := controller.DoBackoff("instance-1")
		intervals = append(intervals, interval)
	}
	c.Check(intervals, jc.DeepEquals, []time.Duration{
		time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second,
	})
}

func (s *controllerSuite) TestShouldRunAfterInterval(c *gc.C) {
	interval, _ := s.controller.DoBackoff("instance-1")
	c.Check(s.controller.ShouldRun("instance-1"), jc.IsFalse)

	s.clock.Advance(interval - time.Second)
	c.Check(s.controller.ShouldRun("instance-1"), jc.IsFalse)

	s.clock.Advance(time.Second)
	c.Check(s.controller.ShouldRun("instance-1"), jc.IsTrue)

	// Running again does not clear the failure count.
	c.Check(s.controller.Retries("instance-1"), gc.Equals, 1)
}

func (s *controllerSuite) TestReset(c *gc.C) {
	s.controller.DoBackoff("instance-1")
	s.controller.DoBackoff("instance-1")
	s.controller.ResetBackoff("instance-1")

	c.Check(s.controller.ShouldRun("instance-1"), jc.IsTrue)
	c.Check(s.controller.Retries("instance-1"), gc.Equals, 0)

	interval, retries := s.controller.DoBackoff("instance-1")
	c.Check(interval, gc.Equals, backoff.DefaultBase)
	c.Check(retries, gc.Equals, 1)
}

func (s *controllerSuite) TestTargetsIndependent(c *gc.C) {
	s.controller.DoBackoff("instance-1")
	c.Check(s.controller.ShouldRun("instance-1"), jc.IsFalse)
	c.Check(s.controller.ShouldRun("instance-2"), jc.IsTrue)

	interval, retries := s.controller.DoBackoff("instance-2")
	c.Check(interval, gc.Equals, backoff.DefaultBase)
	c.Check(retries, gc.Equals, 1)
}
