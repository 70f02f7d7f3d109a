// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/oauth2"

	"github.com/hashicorp/autoidp/sdk/strutils"
)

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config is the configuration of a registered relying party.  It's immutable
// once created, and can be shared by any number of concurrent requests.
// Create one with Register (or NewConfig for a pre-registered client).
type Config struct {
	clientID     string
	clientSecret ClientSecret
	authURL      string
	tokenURL     string
	redirectURL  string
	scopes       []string
}

// NewConfig composes a Config for an already registered client.  The
// "openid" scope is always requested and duplicate scopes are removed.
func NewConfig(clientID string, clientSecret ClientSecret, authURL, tokenURL, redirectURL string, scopes []string) (*Config, error) {
	const op = "rp.NewConfig"
	c := &Config{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      authURL,
		tokenURL:     tokenURL,
		redirectURL:  redirectURL,
		scopes:       normalizeScopes(scopes),
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	return c, nil
}

// Validate the config.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var errs *multierror.Error
	if c.clientID == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter))
	}
	if c.clientSecret == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s: client secret is empty: %w", op, ErrInvalidParameter))
	}
	for _, u := range []struct{ name, value string }{
		{"auth url", c.authURL},
		{"token url", c.tokenURL},
		{"redirect url", c.redirectURL},
	} {
		if err := validateURL(u.value); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s: %w", op, u.name, err))
		}
	}
	return errs.ErrorOrNil()
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is empty: %w", ErrInvalidParameter)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url %q is invalid: %w", raw, ErrInvalidParameter)
	}
	if !strutils.StrListContains([]string{"https", "http"}, u.Scheme) || u.Host == "" {
		return fmt.Errorf("url %q is not an absolute http or https url: %w", raw, ErrInvalidParameter)
	}
	return nil
}

// normalizeScopes makes sure "openid" is the first scope and removes
// duplicates.
func normalizeScopes(scopes []string) []string {
	return strutils.RemoveDuplicatesStable(append([]string{oidc.ScopeOpenID}, scopes...), false)
}

func (c *Config) ClientID() string           { return c.clientID }
func (c *Config) ClientSecret() ClientSecret { return c.clientSecret }
func (c *Config) AuthURL() string            { return c.authURL }
func (c *Config) TokenURL() string           { return c.tokenURL }
func (c *Config) RedirectURL() string        { return c.redirectURL }

// Scopes returns a copy of the requested scopes.
func (c *Config) Scopes() []string {
	return append([]string(nil), c.scopes...)
}

// oauth2Config returns the oauth2 configuration for the client.  Client
// credentials are sent in the token request body (client_secret_post).
func (c *Config) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: string(c.clientSecret),
		RedirectURL:  c.redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.authURL,
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: c.Scopes(),
	}
}
