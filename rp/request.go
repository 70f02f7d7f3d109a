// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"fmt"
	"time"

	"github.com/hashicorp/autoidp/sdk/id"
)

// Request represents one authorization code flow attempt.  Its State() is
// sent with the authorization request and must come back unchanged on the
// callback; its Nonce() is bound into the ID token by the provider.  Both are
// random and never equal.
type Request struct {
	state      string
	nonce      string
	expiration time.Time
	nowFunc    func() time.Time
}

// reqOptions is the set of available options for NewRequest
type reqOptions struct {
	withNowFunc func() time.Time
}

func reqDefaults() reqOptions {
	return reqOptions{withNowFunc: time.Now}
}

func getReqOpts(opt ...Option) reqOptions {
	opts := reqDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// NewRequest creates a new Request which expires after expireIn.
// Supported options:
//
//	WithNow
func NewRequest(expireIn time.Duration, opt ...Option) (*Request, error) {
	const op = "rp.NewRequest"
	if expireIn <= 0 {
		return nil, fmt.Errorf("%s: expireIn not greater than zero: %w", op, ErrInvalidParameter)
	}
	opts := getReqOpts(opt...)
	state, err := id.New("st")
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a request's state: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	nonce, err := id.New("n")
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a request's nonce: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	return &Request{
		state:      state,
		nonce:      nonce,
		expiration: opts.withNowFunc().Add(expireIn),
		nowFunc:    opts.withNowFunc,
	}, nil
}

func (r *Request) State() string         { return r.state }
func (r *Request) Nonce() string         { return r.nonce }
func (r *Request) Expiration() time.Time { return r.expiration }

// DefaultRequestExpirySkew defines a default time skew when checking a
// Request's expiration.
const DefaultRequestExpirySkew = 1 * time.Second

// IsExpired returns true if the request has expired (allowing for
// DefaultRequestExpirySkew).
func (r *Request) IsExpired() bool {
	return r.expiration.Before(r.now().Add(DefaultRequestExpirySkew))
}

func (r *Request) now() time.Time {
	if r.nowFunc != nil {
		return r.nowFunc()
	}
	return time.Now()
}
