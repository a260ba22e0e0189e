// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package openstack_test

import (
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/infrapoller/internal/openstack"
)

type uptimeSuite struct{}

var _ = gc.Suite(&uptimeSuite{})

func (*uptimeSuite) TestParseLoadAverages(c *gc.C) {
	loads, err := openstack.ParseLoadAverages(" 08:32:11 up 93 days, 18:25, 12 users,  load average: 0.20, 0.12, 0.08\n")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(loads, jc.DeepEquals, []float64{0.20, 0.12, 0.08})
}

func (*uptimeSuite) TestParseLoadAveragesInvalid(c *gc.C) {
	for i, uptime := range []string{
		"",
		" 08:32:11 up 93 days",
		"load average: 0.20, 0.12",
		"load average: 0.20, high, 0.08",
	} {
		c.Logf("test %d: %q", i, uptime)
		_, err := openstack.ParseLoadAverages(uptime)
		c.Check(err, jc.ErrorIs, errors.NotValid)
	}
}
