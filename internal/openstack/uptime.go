// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package openstack

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

const loadAverageMarker = "load average:"

// ParseLoadAverages extracts the load averages from the output of uptime,
// as returned by the hypervisor uptime API:
//
//	16:53:48 up 1 day, 21:34,  3 users,  load average: 0.04, 0.14, 0.19
func ParseLoadAverages(uptime string) ([]float64, error) {
	idx := strings.Index(uptime, loadAverageMarker)
	if idx < 0 {
		return nil, errors.NotValidf("uptime %q without load average", strings.TrimSpace(uptime))
	}
	fields := strings.Split(uptime[idx+len(loadAverageMarker):], ",")
	loads := make([]float64, 0, len(fields))
	for _, field := range fields {
		load, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, errors.NotValidf("load average %q", strings.TrimSpace(field))
		}
		loads = append(loads, load)
	}
	if len(loads) != 3 {
		return nil, errors.NotValidf("%d load averages", len(loads))
	}
	return loads, nil
}
