// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import "errors"

var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNilParameter        = errors.New("nil parameter")
	ErrIdGeneratorFailed   = errors.New("id generation failed")
	ErrMissingParameter    = errors.New("missing parameter")
	ErrInvalidState        = errors.New("invalid state")
	ErrExpiredRequest      = errors.New("request is expired")
	ErrRegistrationFailed  = errors.New("client registration failed")
	ErrExchangeFailed      = errors.New("token exchange failed")
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrMissingAccessToken  = errors.New("access_token is missing")
)
