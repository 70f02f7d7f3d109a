// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/language"

	"github.com/hashicorp/autoidp/internal/metrics"
)

// Option defines a common functional options type
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		o(opts)
	}
}

// WithLogger provides an optional logger for: Register, NewServer.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if l == nil {
			return
		}
		switch v := o.(type) {
		case *registerOptions:
			v.withLogger = l
		case *serverOptions:
			v.withLogger = l
		}
	}
}

// WithMetrics provides optional metrics for: Register, NewServer.
// NewServer also exposes them at GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *registerOptions:
			v.withMetrics = m
		case *serverOptions:
			v.withMetrics = m
		}
	}
}

// WithNow provides an optional func for determining what the current time it
// is, for: NewRequest, NewRequestCache, Register.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if now == nil {
			return
		}
		switch v := o.(type) {
		case *reqOptions:
			v.withNowFunc = now
		case *cacheOptions:
			v.withNowFunc = now
		case *registerOptions:
			v.withNowFunc = now
		}
	}
}

// WithHTTPClient provides an optional http client for token exchanges, for:
// NewExchanger, NewServer.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *exchangerOptions:
			v.withHTTPClient = c
		case *serverOptions:
			v.withHTTPClient = c
		}
	}
}

// WithUILocales provides optional End-User's preferred languages and scripts
// for the user interface, sent as the ui_locales parameter of the
// authorization request, for: NewInitiator, NewServer.
func WithUILocales(locales ...language.Tag) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *initiatorOptions:
			v.withUILocales = locales
		case *serverOptions:
			v.withUILocales = locales
		}
	}
}

// WithSweepInterval provides an optional least time between two sweeps of
// expired requests, for: NewRequestCache.
func WithSweepInterval(d time.Duration) Option {
	return func(o interface{}) {
		if d <= 0 {
			return
		}
		if v, ok := o.(*cacheOptions); ok {
			v.withSweepInterval = d
		}
	}
}

// WithRequestTTL provides an optional lifetime of a flow's Request, for:
// NewServer.
func WithRequestTTL(d time.Duration) Option {
	return func(o interface{}) {
		if v, ok := o.(*serverOptions); ok {
			v.withRequestTTL = d
		}
	}
}
