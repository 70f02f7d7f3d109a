// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package config loads the binaries' configuration from the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/language"
)

var ErrInvalidConfig = errors.New("invalid config")

// IDP is the configuration of the always-approve identity provider.
type IDP struct {
	Addr              string        `env:"AUTOIDP_ADDR" envDefault:"127.0.0.1:6001"`
	HydraAdminURL     string        `env:"AUTOIDP_HYDRA_ADMIN_URL" envDefault:"http://127.0.0.1:4445"`
	Subject           string        `env:"AUTOIDP_SUBJECT" envDefault:"test-user-subject-id"`
	ClaimsJSON        string        `env:"AUTOIDP_CLAIMS" envDefault:"{\"fhirUser\":\"Practitioner?identifier=npi|1234\"}"`
	Remember          bool          `env:"AUTOIDP_REMEMBER" envDefault:"true"`
	RememberFor       time.Duration `env:"AUTOIDP_REMEMBER_FOR" envDefault:"0s"`
	AccessTokenClaims bool          `env:"AUTOIDP_ACCESS_TOKEN_CLAIMS" envDefault:"true"`
	Timeout           time.Duration `env:"AUTOIDP_TIMEOUT" envDefault:"5s"`
	ProviderCA        string        `env:"AUTOIDP_PROVIDER_CA"`
	LogLevel          string        `env:"AUTOIDP_LOG_LEVEL" envDefault:"info"`
}

// Claims decodes ClaimsJSON.
func (c *IDP) Claims() (map[string]interface{}, error) {
	const op = "IDP.Claims"
	claims := map[string]interface{}{}
	if strings.TrimSpace(c.ClaimsJSON) == "" {
		return claims, nil
	}
	if err := json.Unmarshal([]byte(c.ClaimsJSON), &claims); err != nil {
		return nil, fmt.Errorf("%s: AUTOIDP_CLAIMS is not a json object: %w: %w", op, ErrInvalidConfig, err)
	}
	return claims, nil
}

// Validate the config, reporting every problem found.
func (c *IDP) Validate() error {
	const op = "IDP.Validate"
	var errs *multierror.Error
	if c.Addr == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s: AUTOIDP_ADDR is empty: %w", op, ErrInvalidConfig))
	}
	if err := validateURL(c.HydraAdminURL); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%s: AUTOIDP_HYDRA_ADMIN_URL: %w", op, err))
	}
	if strings.TrimSpace(c.Subject) == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s: AUTOIDP_SUBJECT is empty: %w", op, ErrInvalidConfig))
	}
	if _, err := c.Claims(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if c.RememberFor < 0 {
		errs = multierror.Append(errs, fmt.Errorf("%s: AUTOIDP_REMEMBER_FOR is negative: %w", op, ErrInvalidConfig))
	}
	if c.Timeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("%s: AUTOIDP_TIMEOUT not greater than zero: %w", op, ErrInvalidConfig))
	}
	if err := validateLogLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%s: AUTOIDP_LOG_LEVEL: %w", op, err))
	}
	return errs.ErrorOrNil()
}

// RP is the configuration of the relying party test client.
type RP struct {
	Addr           string        `env:"TESTRP_ADDR" envDefault:"127.0.0.1:8080"`
	HydraAdminURL  string        `env:"TESTRP_HYDRA_ADMIN_URL" envDefault:"http://127.0.0.1:4445"`
	HydraPublicURL string        `env:"TESTRP_HYDRA_PUBLIC_URL" envDefault:"http://127.0.0.1:4444"`
	Scope          string        `env:"TESTRP_SCOPE" envDefault:"openid profile offline fhirUser"`
	CallbackURL    string        `env:"TESTRP_CALLBACK_URL" envDefault:"http://127.0.0.1:8080/callback"`
	ClientName     string        `env:"TESTRP_CLIENT_NAME" envDefault:"autoidp test client"`
	UILocales      []string      `env:"TESTRP_UI_LOCALES" envSeparator:","`
	StateTTL       time.Duration `env:"TESTRP_STATE_TTL" envDefault:"5m"`
	Timeout        time.Duration `env:"TESTRP_TIMEOUT" envDefault:"5s"`
	ProviderCA     string        `env:"TESTRP_PROVIDER_CA"`
	LogLevel       string        `env:"TESTRP_LOG_LEVEL" envDefault:"info"`
}

// Scopes splits Scope on whitespace.
func (c *RP) Scopes() []string {
	return strings.Fields(c.Scope)
}

// Locales parses UILocales as BCP 47 language tags.
func (c *RP) Locales() ([]language.Tag, error) {
	const op = "RP.Locales"
	var tags []language.Tag
	for _, l := range c.UILocales {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("%s: TESTRP_UI_LOCALES %q: %w: %w", op, l, ErrInvalidConfig, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Validate the config, reporting every problem found.
func (c *RP) Validate() error {
	const op = "RP.Validate"
	var errs *multierror.Error
	if c.Addr == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s: TESTRP_ADDR is empty: %w", op, ErrInvalidConfig))
	}
	for _, u := range []struct{ name, value string }{
		{"TESTRP_HYDRA_ADMIN_URL", c.HydraAdminURL},
		{"TESTRP_HYDRA_PUBLIC_URL", c.HydraPublicURL},
		{"TESTRP_CALLBACK_URL", c.CallbackURL},
	} {
		if err := validateURL(u.value); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s: %w", op, u.name, err))
		}
	}
	if len(c.Scopes()) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("%s: TESTRP_SCOPE is empty: %w", op, ErrInvalidConfig))
	}
	if _, err := c.Locales(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if c.StateTTL <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("%s: TESTRP_STATE_TTL not greater than zero: %w", op, ErrInvalidConfig))
	}
	if c.Timeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("%s: TESTRP_TIMEOUT not greater than zero: %w", op, ErrInvalidConfig))
	}
	if err := validateLogLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%s: TESTRP_LOG_LEVEL: %w", op, err))
	}
	return errs.ErrorOrNil()
}

// LoadIDP parses the IDP configuration from the process environment and
// validates it.
func LoadIDP() (*IDP, error) {
	return loadIDP(env.Options{})
}

// LoadRP parses the RP configuration from the process environment and
// validates it.
func LoadRP() (*RP, error) {
	return loadRP(env.Options{})
}

func loadIDP(opts env.Options) (*IDP, error) {
	const op = "config.LoadIDP"
	var c IDP
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("%s: parse env: %w: %w", op, ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func loadRP(opts env.Options) (*RP, error) {
	const op = "config.LoadRP"
	var c RP
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("%s: parse env: %w: %w", op, ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// Logger returns the binaries' logger, at level.
func Logger(name, level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(level),
	})
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	switch {
	case raw == "":
		return fmt.Errorf("url is empty: %w", ErrInvalidConfig)
	case err != nil:
		return fmt.Errorf("url %q is invalid: %w", raw, ErrInvalidConfig)
	case (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		return fmt.Errorf("url %q is not an absolute http or https url: %w", raw, ErrInvalidConfig)
	}
	return nil
}

func validateLogLevel(level string) error {
	if hclog.LevelFromString(level) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q: %w", level, ErrInvalidConfig)
	}
	return nil
}
