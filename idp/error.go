// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package idp

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrMissingChallenge = errors.New("challenge is missing")
)
