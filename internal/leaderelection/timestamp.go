// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package leaderelection

import (
	"regexp"
	"time"

	"github.com/juju/errors"
)

// ErrMalformedTimestamp is returned when a leader election timestamp does
// not conform to the accepted grammar.
const ErrMalformedTimestamp = errors.ConstError("malformed timestamp")

// timestampRE is the restricted RFC 3339 profile written by the
// Kubernetes leader election library: a mandatory "T" separator,
// optional fractional seconds and a mandatory "Z" or numeric offset.
var timestampRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)

// ParseTimestamp parses a leader election timestamp into an absolute
// instant. Year 0000 is rejected even though it is representable.
func ParseTimestamp(text string) (time.Time, error) {
	if !timestampRE.MatchString(text) {
		return time.Time{}, errors.Annotatef(ErrMalformedTimestamp, "%q", text)
	}
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return time.Time{}, errors.Annotatef(ErrMalformedTimestamp, "%q: %v", text, err)
	}
	if t.Year() == 0 {
		return time.Time{}, errors.Annotatef(ErrMalformedTimestamp, "%q: year zero", text)
	}
	return t, nil
}

// formatTimestamp renders t the way record descriptions expect it:
// space separated, microsecond precision only when needed, and an
// explicit UTC offset.
func formatTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format("2006-01-02 15:04:05.000000-07:00")
	}
	return t.Format("2006-01-02 15:04:05-07:00")
}
