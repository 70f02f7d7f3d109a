// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultSweepInterval is the least time between two sweeps of expired
// requests out of a RequestCache.
const DefaultSweepInterval = time.Minute

// RequestCache holds the pending Requests of in-flight flows, keyed by
// state.  It's concurrently safe.
type RequestCache struct {
	mu            sync.Mutex
	c             map[string]*Request
	nowFunc       func() time.Time
	sweepInterval time.Duration
	lastSweep     time.Time
}

// cacheOptions is the set of available options for NewRequestCache
type cacheOptions struct {
	withNowFunc       func() time.Time
	withSweepInterval time.Duration
}

// NewRequestCache creates an empty RequestCache.
// Supported options:
//
//	WithNow
//	WithSweepInterval
func NewRequestCache(opt ...Option) *RequestCache {
	opts := cacheOptions{
		withNowFunc:       time.Now,
		withSweepInterval: DefaultSweepInterval,
	}
	ApplyOpts(&opts, opt...)
	return &RequestCache{
		c:             map[string]*Request{},
		nowFunc:       opts.withNowFunc,
		sweepInterval: opts.withSweepInterval,
	}
}

// Add a request.  Expired requests are dropped at most once per sweep
// interval; Take rejects them in between.
func (rc *RequestCache) Add(r *Request) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	now := rc.nowFunc()
	if now.Sub(rc.lastSweep) >= rc.sweepInterval {
		for k, v := range rc.c {
			if v.expiration.Before(now) {
				delete(rc.c, k)
			}
		}
		rc.lastSweep = now
	}
	rc.c[r.State()] = r
}

// Take returns the request for state and removes it from the cache, so a
// state can only ever be used once.
func (rc *RequestCache) Take(_ context.Context, state string) (*Request, error) {
	const op = "RequestCache.Take"
	if state == "" {
		return nil, fmt.Errorf("%s: state is empty: %w", op, ErrMissingParameter)
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	r, ok := rc.c[state]
	if !ok {
		return nil, fmt.Errorf("%s: state %s not found: %w", op, state, ErrInvalidState)
	}
	delete(rc.c, state)
	if r.IsExpired() {
		return nil, fmt.Errorf("%s: state %s: %w: %w", op, state, ErrInvalidState, ErrExpiredRequest)
	}
	return r, nil
}

// Len returns the number of pending requests.
func (rc *RequestCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.c)
}
