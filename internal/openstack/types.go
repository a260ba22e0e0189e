// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package openstack

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/infrapoller/internal/inventory"
)

// HypervisorMetrics are the hypervisor fields reported as gauges.
var HypervisorMetrics = []string{
	"current_workload",
	"disk_available_least",
	"free_disk_gb",
	"free_ram_mb",
	"local_gb",
	"local_gb_used",
	"memory_mb",
	"memory_mb_used",
	"running_vms",
	"vcpus",
	"vcpus_used",
}

// Project is a keystone project.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Aggregate is a nova host aggregate.
type Aggregate struct {
	Name             string   `json:"name"`
	AvailabilityZone string   `json:"availability_zone"`
	Hosts            []string `json:"hosts"`
}

// Network is a neutron network.
type Network struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TenantID     string `json:"tenant_id"`
	AdminStateUp bool   `json:"admin_state_up"`
}

// Hypervisor is a nova hypervisor with the numeric fields found in
// HypervisorMetrics.
type Hypervisor struct {
	ID       string
	Hostname string
	Type     string
	Status   string
	State    string
	Metrics  map[string]float64
}

// UnmarshalJSON accepts both integer and uuid hypervisor ids.
func (h *Hypervisor) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       flexString `json:"id"`
		Hostname string     `json:"hypervisor_hostname"`
		Type     string     `json:"hypervisor_type"`
		Status   string     `json:"status"`
		State    string     `json:"state"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Trace(err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Trace(err)
	}
	*h = Hypervisor{
		ID:       string(raw.ID),
		Hostname: raw.Hostname,
		Type:     raw.Type,
		Status:   raw.Status,
		State:    raw.State,
		Metrics:  make(map[string]float64),
	}
	for _, name := range HypervisorMetrics {
		if v, ok := fields[name].(float64); ok {
			h.Metrics[name] = v
		}
	}
	return nil
}

// flexString decodes a JSON string or number as a string.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return errors.Trace(err)
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(data)
	return nil
}

// flexNumber decodes a JSON number, a numeric string or an empty string
// as a number. Nova reports no swap as "".
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Trace(err)
	}
	switch v := v.(type) {
	case nil:
		*n = 0
	case float64:
		*n = flexNumber(v)
	case string:
		if strings.TrimSpace(v) == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.NotValidf("number %q", v)
		}
		*n = flexNumber(f)
	default:
		return errors.NotValidf("number %s", data)
	}
	return nil
}

type flavorDetail struct {
	ID           string     `json:"id"`
	Disk         flexNumber `json:"disk"`
	VCPUs        flexNumber `json:"vcpus"`
	RAM          flexNumber `json:"ram"`
	Ephemeral    flexNumber `json:"ephemeral"`
	ExtEphemeral flexNumber `json:"OS-FLV-EXT-DATA:ephemeral"`
	Swap         flexNumber `json:"swap"`
}

func (f flavorDetail) flavor() inventory.Flavor {
	ephemeral := f.ExtEphemeral
	if ephemeral == 0 {
		ephemeral = f.Ephemeral
	}
	return inventory.Flavor{
		ID:        f.ID,
		Disk:      float64(f.Disk),
		VCPUs:     float64(f.VCPUs),
		RAM:       float64(f.RAM),
		Ephemeral: float64(ephemeral),
		Swap:      float64(f.Swap),
	}
}

type serverDetail struct {
	ID                 string                     `json:"id"`
	Status             string                     `json:"status"`
	Name               string                     `json:"name"`
	HypervisorHostname string                     `json:"OS-EXT-SRV-ATTR:hypervisor_hostname"`
	TenantID           string                     `json:"tenant_id"`
	AvailabilityZone   string                     `json:"OS-EXT-AZ:availability_zone"`
	Flavor             map[string]json.RawMessage `json:"flavor"`
}

// server converts the detail into an inventory server. Before compute
// API 2.47 the flavor is referenced by id, afterwards it is embedded.
func (s serverDetail) server() (inventory.Server, error) {
	result := inventory.Server{
		ID:                 s.ID,
		State:              s.Status,
		Name:               s.Name,
		HypervisorHostname: s.HypervisorHostname,
		TenantID:           s.TenantID,
		AvailabilityZone:   s.AvailabilityZone,
	}
	if id, ok := s.Flavor["id"]; ok {
		var flavorID flexString
		if err := json.Unmarshal(id, &flavorID); err != nil {
			return result, errors.Annotatef(err, "flavor id of server %q", s.ID)
		}
		result.FlavorID = string(flavorID)
	}
	if _, ok := s.Flavor["disk"]; ok {
		data, err := json.Marshal(s.Flavor)
		if err != nil {
			return result, errors.Trace(err)
		}
		var detail flavorDetail
		if err := json.Unmarshal(data, &detail); err != nil {
			return result, errors.Annotatef(err, "flavor of server %q", s.ID)
		}
		flavor := detail.flavor()
		result.Flavor = &flavor
	}
	return result, nil
}

// numericFields keeps the numeric values of a decoded JSON object.
func numericFields(fields map[string]interface{}) map[string]float64 {
	result := make(map[string]float64, len(fields))
	for k, v := range fields {
		if f, ok := v.(float64); ok {
			result[k] = f
		}
	}
	return result
}
