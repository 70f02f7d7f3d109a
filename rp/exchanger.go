// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/hashicorp/autoidp/hydra"
	sdkHttp "github.com/hashicorp/autoidp/sdk/http"
)

// Exchanger exchanges authorization codes at the provider's token endpoint.
type Exchanger struct {
	config *Config
	client *http.Client
}

// exchangerOptions is the set of available options for NewExchanger
type exchangerOptions struct {
	withHTTPClient *http.Client
}

// NewExchanger creates an Exchanger for a registered client.
// Supported options:
//
//	WithHTTPClient
func NewExchanger(c *Config, opt ...Option) (*Exchanger, error) {
	const op = "rp.NewExchanger"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var opts exchangerOptions
	ApplyOpts(&opts, opt...)
	client := opts.withHTTPClient
	if client == nil {
		var err error
		if client, err = sdkHttp.NewClient("", 0); err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
	}
	return &Exchanger{config: c, client: client}, nil
}

// Exchange the authorization code for a Token.  The request carries
// grant_type=authorization_code, the code, the redirect_uri and the client
// credentials.  Codes are single-use, so a failed exchange is never retried.
//
// A non-2xx response wraps a *hydra.UpstreamError with the provider's error
// detail; transport failures wrap hydra.ErrUpstreamUnavailable.  Both also
// wrap ErrExchangeFailed.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*Token, error) {
	const op = "Exchanger.Exchange"
	if code == "" {
		return nil, fmt.Errorf("%s: code is empty: %w", op, ErrMissingParameter)
	}
	oauth2Token, err := e.config.oauth2Config().Exchange(oidc.ClientContext(ctx, e.client), code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		var urlErr *url.Error
		switch {
		case errors.As(err, &retrieveErr):
			upErr := &hydra.UpstreamError{
				Op:          op,
				Body:        string(retrieveErr.Body),
				ErrorCode:   retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
			}
			if retrieveErr.Response != nil {
				upErr.StatusCode = retrieveErr.Response.StatusCode
			}
			return nil, fmt.Errorf("%s: %w: %w", op, ErrExchangeFailed, upErr)
		case errors.As(err, &urlErr):
			return nil, fmt.Errorf("%s: %w: %w: %s", op, ErrExchangeFailed, hydra.ErrUpstreamUnavailable, err)
		default:
			return nil, fmt.Errorf("%s: %w: %w: %s", op, ErrExchangeFailed, hydra.ErrInvalidResponse, err)
		}
	}
	if oauth2Token.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrExchangeFailed, ErrMissingAccessToken)
	}

	t := &Token{
		AccessToken:  oauth2Token.AccessToken,
		TokenType:    oauth2Token.TokenType,
		RefreshToken: oauth2Token.RefreshToken,
		Expiry:       oauth2Token.Expiry,
	}
	if idToken, ok := oauth2Token.Extra("id_token").(string); ok {
		t.IDToken = idToken
	}
	if scope, ok := oauth2Token.Extra("scope").(string); ok {
		t.Scope = scope
	}
	return t, nil
}
