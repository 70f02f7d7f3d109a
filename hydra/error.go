// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hydra

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNilParameter        = errors.New("nil parameter")
	ErrUpstreamUnavailable = errors.New("provider unavailable")
	ErrUpstreamRejected    = errors.New("provider rejected request")
	ErrInvalidResponse     = errors.New("invalid provider response")
)

// UpstreamError is returned when the provider answers with a non-2xx status.
// errors.Is(err, ErrUpstreamRejected) reports true for it.
type UpstreamError struct {
	Op         string
	StatusCode int

	// Body is the raw (possibly truncated) response body.
	Body string

	// ErrorCode and Description are decoded from the provider's
	// {"error": ..., "error_description": ...} body when present.
	ErrorCode   string
	Description string
}

func (e *UpstreamError) Error() string {
	switch {
	case e.ErrorCode != "" && e.Description != "":
		return fmt.Sprintf("%s: %s: status %d: %s: %s", e.Op, ErrUpstreamRejected, e.StatusCode, e.ErrorCode, e.Description)
	case e.ErrorCode != "":
		return fmt.Sprintf("%s: %s: status %d: %s", e.Op, ErrUpstreamRejected, e.StatusCode, e.ErrorCode)
	default:
		return fmt.Sprintf("%s: %s: status %d: %s", e.Op, ErrUpstreamRejected, e.StatusCode, e.Body)
	}
}

// Is supports errors.Is(err, ErrUpstreamRejected)
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamRejected
}

// IsStatus reports whether err is an UpstreamError with the given status
// code.
func IsStatus(err error, statusCode int) bool {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode == statusCode
	}
	return false
}
