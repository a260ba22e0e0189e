// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package openstack

import (
	"net/http"

	gooseerrors "github.com/go-goose/goose/v5/errors"
	goosehttp "github.com/go-goose/goose/v5/http"
	"github.com/juju/errors"
)

const (
	// ErrUpstreamUnavailable is returned when an OpenStack service could
	// not be reached or failed to serve a request. Polling of the
	// instance should back off.
	ErrUpstreamUnavailable = errors.ConstError("upstream unavailable")

	// ErrAuthenticationNeeded is returned when the credentials of a
	// client were rejected. The client must be discarded.
	ErrAuthenticationNeeded = errors.ConstError("authentication needed")
)

// classifyError maps an error returned by goose onto the errors the
// poller reacts to. Errors caused by the request itself, including any
// 4xx response, are returned annotated but otherwise unchanged. Server
// side and transport failures are ErrUpstreamUnavailable.
func classifyError(err error, call string) error {
	if err == nil {
		return nil
	}
	switch {
	case gooseerrors.IsUnauthorised(err):
		return errors.Annotatef(ErrAuthenticationNeeded, "%s: %v", call, err)
	case gooseerrors.IsNotFound(err):
		return errors.NewNotFound(err, call)
	case gooseerrors.IsNotImplemented(err):
		return errors.Annotatef(ErrUpstreamUnavailable, "%s: %v", call, err)
	case gooseerrors.IsForbidden(err), gooseerrors.IsDuplicateValue(err):
		return errors.Annotate(err, call)
	}
	if status, ok := httpStatus(err); ok && status < http.StatusInternalServerError {
		return errors.Annotate(err, call)
	}
	return errors.Annotatef(ErrUpstreamUnavailable, "%s: %v", call, err)
}

// httpStatus returns the status code of the HTTP response behind err,
// following goose error causes.
func httpStatus(err error) (int, bool) {
	for err != nil {
		var httpErr *goosehttp.HttpError
		if errors.As(err, &httpErr) {
			return httpErr.StatusCode, true
		}
		gooseErr, ok := err.(gooseerrors.Error)
		if !ok {
			return 0, false
		}
		err = gooseErr.Cause()
	}
	return 0, false
}
