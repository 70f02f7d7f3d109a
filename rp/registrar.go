// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/autoidp/hydra"
	"github.com/hashicorp/autoidp/internal/metrics"
)

// Fixed client registration metadata.
var (
	registeredGrantTypes    = []string{"authorization_code", "refresh_token"}
	registeredResponseTypes = []string{"code", "id_token"}
)

const registeredAuthMethod = "client_secret_post"

// Registrar is the subset of the provider API Register needs.
// *hydra.Client implements it.
type Registrar interface {
	CreateClient(ctx context.Context, c *hydra.OAuth2Client) (*hydra.OAuth2Client, error)
	AuthURL() string
	TokenURL() string
}

var _ Registrar = (*hydra.Client)(nil)

// RegistrationRequest describes the client to register.
type RegistrationRequest struct {
	// ClientName is suffixed with the registration time, since a new client
	// is created on every start.
	ClientName string

	// Scopes the client may request.  "openid" is always included.
	Scopes []string

	// RedirectURL is the client's only redirect URI: its own callback.
	RedirectURL string
}

// registerOptions is the set of available options for Register
type registerOptions struct {
	withLogger  hclog.Logger
	withMetrics *metrics.Metrics
	withNowFunc func() time.Time
}

func registerDefaults() registerOptions {
	return registerOptions{
		withLogger:  hclog.NewNullLogger(),
		withNowFunc: time.Now,
	}
}

func getRegisterOpts(opt ...Option) registerOptions {
	opts := registerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// Register creates a new client with the provider and returns its Config.
// It makes exactly one provider request and never retries.  Every failure
// is an ErrRegistrationFailed, which callers should treat as fatal.
//
// Supported options:
//
//	WithLogger
//	WithMetrics
//	WithNow
func Register(ctx context.Context, reg Registrar, r RegistrationRequest, opt ...Option) (c *Config, e error) {
	const op = "rp.Register"
	opts := getRegisterOpts(opt...)
	defer func() { opts.withMetrics.Observe("register", e) }()

	if reg == nil {
		return nil, fmt.Errorf("%s: %w: registrar is nil: %w", op, ErrRegistrationFailed, ErrNilParameter)
	}
	if err := validateURL(r.RedirectURL); err != nil {
		return nil, fmt.Errorf("%s: %w: redirect url: %w", op, ErrRegistrationFailed, err)
	}
	scopes := normalizeScopes(r.Scopes)
	name := r.ClientName
	if name == "" {
		name = "autoidp test client"
	}

	created, err := reg.CreateClient(ctx, &hydra.OAuth2Client{
		ClientName:              fmt.Sprintf("%s (dynamic @ %s)", name, opts.withNowFunc().UTC().Format(time.RFC3339)),
		GrantTypes:              registeredGrantTypes,
		ResponseTypes:           registeredResponseTypes,
		Scope:                   strings.Join(scopes, " "),
		RedirectURIs:            []string{r.RedirectURL},
		TokenEndpointAuthMethod: registeredAuthMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrRegistrationFailed, err)
	}
	if created.ClientSecret == "" {
		return nil, fmt.Errorf("%s: %w: client_secret is missing: %w", op, ErrRegistrationFailed, hydra.ErrInvalidResponse)
	}

	c, err = NewConfig(created.ClientID, ClientSecret(created.ClientSecret), reg.AuthURL(), reg.TokenURL(), r.RedirectURL, scopes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrRegistrationFailed, err)
	}
	opts.withLogger.Info("oauth2 client created", "client_id", c.ClientID())
	return c, nil
}
