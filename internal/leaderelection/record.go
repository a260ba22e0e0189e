// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package leaderelection

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Raw field names of a leader election record, as written by the
// Kubernetes leader election library into the leader annotation.
const (
	fieldHolderIdentity = "holderIdentity"
	fieldLeaseDuration  = "leaseDurationSeconds"
	fieldTransitions    = "leaderTransitions"
	fieldAcquireTime    = "acquireTime"
	fieldRenewTime      = "renewTime"
)

// Validation reasons. Downstream consumers match on these, so they must
// not change.
const (
	ReasonNoLeader         = "no current leader recorded"
	ReasonNoLeaseDuration  = "no lease duration set"
	ReasonNoRenewTime      = "no renew time set"
	ReasonNoAcquireTime    = "no acquire time recorded"
	ReasonBadRenewTime     = "bad format for renewTime field"
	ReasonBadAcquireTime   = "bad format for acquireTime field"
	invalidRecordMsgPrefix = "Invalid record: "
)

// Record is a parsed leader election record. It is immutable once
// constructed; time dependent values are computed from the clock on
// every access.
type Record struct {
	clock clock.Clock

	leaderName    string
	leaseDuration int
	transitions   int

	acquireTime time.Time
	acquireErr  error
	renewTime   time.Time
	renewErr    error

	// present holds the raw fields that were set in the payload,
	// regardless of whether their values could be parsed.
	present set.Strings
}

// NewRecord parses the raw annotation payload. It never fails: fields
// that are missing or of the wrong shape are left unset and reported by
// Validate. A nil clock means the wall clock.
func NewRecord(raw string, clk clock.Clock) *Record {
	if clk == nil {
		clk = clock.WallClock
	}
	r := &Record{
		clock:   clk,
		present: set.NewStrings(),
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		logger.Debugf("cannot decode leader election record %q: %v", raw, err)
		return r
	}

	if name, ok := fields[fieldHolderIdentity].(string); ok && name != "" {
		r.leaderName = name
		r.present.Add(fieldHolderIdentity)
	}
	if d, ok := wholeNumber(fields[fieldLeaseDuration]); ok && d > 0 {
		r.leaseDuration = d
		r.present.Add(fieldLeaseDuration)
	}
	if n, ok := wholeNumber(fields[fieldTransitions]); ok {
		r.transitions = n
		r.present.Add(fieldTransitions)
	}
	r.acquireTime, r.acquireErr = r.parseTime(fields, fieldAcquireTime)
	r.renewTime, r.renewErr = r.parseTime(fields, fieldRenewTime)
	return r
}

// parseTime records the presence of a timestamp field and parses it.
// A present value that is not a string is malformed.
func (r *Record) parseTime(fields map[string]interface{}, name string) (time.Time, error) {
	value, ok := fields[name]
	if !ok || value == nil {
		return time.Time{}, nil
	}
	text, isString := value.(string)
	if isString && text == "" {
		return time.Time{}, nil
	}
	r.present.Add(name)
	if !isString {
		return time.Time{}, errors.Annotatef(ErrMalformedTimestamp, "%s is a %T", name, value)
	}
	return ParseTimestamp(text)
}

// wholeNumber accepts JSON numbers without a fraction that fit an int.
// float64(math.MaxInt) rounds up to 2^63, hence the exclusive bound.
func wholeNumber(value interface{}) (int, bool) {
	f, ok := value.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// Validate reports whether the record is usable. When it is not, the
// returned reason explains the first problem found. Presence problems are
// reported before format problems.
func (r *Record) Validate() (bool, string) {
	switch {
	case !r.present.Contains(fieldHolderIdentity):
		return false, ReasonNoLeader
	case !r.present.Contains(fieldLeaseDuration):
		return false, ReasonNoLeaseDuration
	case !r.present.Contains(fieldRenewTime):
		return false, ReasonNoRenewTime
	case !r.present.Contains(fieldAcquireTime):
		return false, ReasonNoAcquireTime
	case r.renewErr != nil:
		return false, ReasonBadRenewTime
	case r.acquireErr != nil:
		return false, ReasonBadAcquireTime
	}
	return true, ""
}

// LeaderName returns the identity of the current lease holder.
func (r *Record) LeaderName() string {
	return r.leaderName
}

// LeaseDuration returns the lease duration in seconds.
func (r *Record) LeaseDuration() int {
	return r.leaseDuration
}

// Transitions returns the number of leadership changes, 0 if unset.
func (r *Record) Transitions() int {
	return r.transitions
}

// AcquireTime returns when the current leader acquired the lease.
func (r *Record) AcquireTime() time.Time {
	return r.acquireTime
}

// RenewTime returns when the lease was, or is due to be, renewed.
func (r *Record) RenewTime() time.Time {
	return r.renewTime
}

// SecondsUntilRenew returns the time left before the renew time, in
// seconds. It is negative once the renew time has passed.
func (r *Record) SecondsUntilRenew() float64 {
	return r.renewTime.Sub(r.clock.Now()).Seconds()
}

// Expired reports whether the lease has run out even allowing for the
// full lease duration past the renew time.
//
// This is not the client-go notion of an expired lease (renew time older
// than the lease duration). Existing monitors depend on this formula.
func (r *Record) Expired() bool {
	return r.SecondsUntilRenew()+float64(r.leaseDuration) < 0
}

// String describes the record for service check messages.
func (r *Record) String() string {
	return fmt.Sprintf("Leader: %s since %s, next renew %s",
		r.leaderName,
		formatTimestamp(r.acquireTime),
		formatTimestamp(r.renewTime),
	)
}

// invalidMessage is the service check message of an invalid record.
func invalidMessage(reason string) string {
	return invalidRecordMsgPrefix + reason
}
