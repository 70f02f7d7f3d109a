// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/text/language"
)

// Initiator builds authorization URLs.  It makes no provider requests.
type Initiator struct {
	config    *Config
	uiLocales []language.Tag
}

// initiatorOptions is the set of available options for NewInitiator
type initiatorOptions struct {
	withUILocales []language.Tag
}

// NewInitiator creates an Initiator for a registered client.
// Supported options:
//
//	WithUILocales
func NewInitiator(c *Config, opt ...Option) (*Initiator, error) {
	const op = "rp.NewInitiator"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var opts initiatorOptions
	ApplyOpts(&opts, opt...)
	return &Initiator{
		config:    c,
		uiLocales: opts.withUILocales,
	}, nil
}

// AuthURL returns the provider authorization URL which starts the flow for
// r.  It carries client_id, response_type=code, scope, redirect_uri, the
// request's state and nonce, and ui_locales when configured.
func (i *Initiator) AuthURL(r *Request) (string, error) {
	const op = "Initiator.AuthURL"
	switch {
	case r == nil:
		return "", fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	case r.State() == "" || r.Nonce() == "":
		return "", fmt.Errorf("%s: request state and nonce must not be empty: %w", op, ErrInvalidParameter)
	case r.State() == r.Nonce():
		return "", fmt.Errorf("%s: request state and nonce cannot be equal: %w", op, ErrInvalidParameter)
	case r.IsExpired():
		return "", fmt.Errorf("%s: %w", op, ErrExpiredRequest)
	}
	authCodeOpts := []oauth2.AuthCodeOption{
		oidc.Nonce(r.Nonce()),
	}
	if len(i.uiLocales) > 0 {
		locales := make([]string, 0, len(i.uiLocales))
		for _, l := range i.uiLocales {
			locales = append(locales, l.String())
		}
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("ui_locales", strings.Join(locales, " ")))
	}
	return i.config.oauth2Config().AuthCodeURL(r.State(), authCodeOpts...), nil
}
