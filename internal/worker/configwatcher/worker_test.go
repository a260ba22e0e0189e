// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package configwatcher_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	gc "gopkg.in/check.v1"

	"github.com/juju/infrapoller/internal/worker/configwatcher"
	"github.com/juju/infrapoller/internal/worker/signalhandler"
)

type workerSuite struct {
	testing.IsolationSuite

	clock *testclock.Clock
	path  string
}

var _ = gc.Suite(&workerSuite{})

func (s *workerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.clock = testclock.NewClock(time.Now())
	s.path = filepath.Join(c.MkDir(), "config.yaml")
	err := os.WriteFile(s.path, []byte("metrics: {}\n"), 0600)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *workerSuite) config() configwatcher.Config {
	return configwatcher.Config{
		Path:   s.path,
		Settle: time.Second,
		Clock:  s.clock,
		Logger: loggo.GetLogger("test"),
	}
}

func (s *workerSuite) TestValidate(c *gc.C) {
	for i, test := range []struct {
		mutate func(*configwatcher.Config)
		err    string
	}{
		{func(cfg *configwatcher.Config) { cfg.Path = "" }, "empty Path not valid"},
		{func(cfg *configwatcher.Config) { cfg.Settle = 0 }, "non-positive Settle not valid"},
		{func(cfg *configwatcher.Config) { cfg.Clock = nil }, "nil Clock not valid"},
		{func(cfg *configwatcher.Config) { cfg.Logger = nil }, "nil Logger not valid"},
	} {
		c.Logf("test %d", i)
		cfg := s.config()
		test.mutate(&cfg)
		c.Check(cfg.Validate(), gc.ErrorMatches, test.err)
	}
}

func (s *workerSuite) TestChangeRequestsReload(c *gc.C) {
	w, err := configwatcher.NewWorker(s.config())
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.DirtyKill(c, w)

	err = os.WriteFile(s.path, []byte("metrics: {listen: ':9999'}\n"), 0600)
	c.Assert(err, jc.ErrorIsNil)

	err = s.clock.WaitAdvance(time.Second, testing.LongWait, 1)
	c.Assert(err, jc.ErrorIsNil)

	err = workertest.CheckKilled(c, w)
	c.Check(err, jc.ErrorIs, signalhandler.ErrReload)
}

func (s *workerSuite) TestOtherFilesIgnored(c *gc.C) {
	w, err := configwatcher.NewWorker(s.config())
	c.Assert(err, jc.ErrorIsNil)

	other := filepath.Join(filepath.Dir(s.path), "other.yaml")
	err = os.WriteFile(other, []byte("x: 1\n"), 0600)
	c.Assert(err, jc.ErrorIsNil)

	workertest.CheckAlive(c, w)
	workertest.CleanKill(c, w)
}

func (s *workerSuite) TestMissingDirectory(c *gc.C) {
	cfg := s.config()
	cfg.Path = filepath.Join(c.MkDir(), "missing", "config.yaml")
	_, err := configwatcher.NewWorker(cfg)
	c.Check(err, gc.ErrorMatches, "watching .*")
}

func (s *workerSuite) TestInvalidConfig(c *gc.C) {
	cfg := s.config()
	cfg.Clock = nil
	_, err := configwatcher.NewWorker(cfg)
	c.Check(err, jc.ErrorIs, errors.NotValid)
}

func (s *workerSuite) TestManifold(c *gc.C) {
	w, err := configwatcher.Manifold(s.config()).Start(context.Background(), nil)
	c.Assert(err, jc.ErrorIsNil)
	workertest.CleanKill(c, w)
}
