// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIDP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		environ map[string]string
		want    *IDP
		wantErr bool
	}{
		{
			name:    "defaults",
			environ: map[string]string{},
			want: &IDP{
				Addr:              "127.0.0.1:6001",
				HydraAdminURL:     "http://127.0.0.1:4445",
				Subject:           "test-user-subject-id",
				ClaimsJSON:        `{"fhirUser":"Practitioner?identifier=npi|1234"}`,
				Remember:          true,
				AccessTokenClaims: true,
				Timeout:           5 * time.Second,
				LogLevel:          "info",
			},
		},
		{
			name: "overrides",
			environ: map[string]string{
				"AUTOIDP_ADDR":                "0.0.0.0:7000",
				"AUTOIDP_HYDRA_ADMIN_URL":     "https://hydra-admin:4445",
				"AUTOIDP_SUBJECT":             "alice",
				"AUTOIDP_CLAIMS":              `{"email":"alice@example.com"}`,
				"AUTOIDP_REMEMBER":            "false",
				"AUTOIDP_REMEMBER_FOR":        "1h",
				"AUTOIDP_ACCESS_TOKEN_CLAIMS": "false",
				"AUTOIDP_TIMEOUT":             "2s",
				"AUTOIDP_LOG_LEVEL":           "debug",
			},
			want: &IDP{
				Addr:          "0.0.0.0:7000",
				HydraAdminURL: "https://hydra-admin:4445",
				Subject:       "alice",
				ClaimsJSON:    `{"email":"alice@example.com"}`,
				RememberFor:   time.Hour,
				Timeout:       2 * time.Second,
				LogLevel:      "debug",
			},
		},
		{
			name:    "bad-duration",
			environ: map[string]string{"AUTOIDP_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "bad-claims",
			environ: map[string]string{"AUTOIDP_CLAIMS": `["not", "an", "object"]`},
			wantErr: true,
		},
		{
			name:    "empty-subject",
			environ: map[string]string{"AUTOIDP_SUBJECT": " "},
			wantErr: true,
		},
		{
			name:    "relative-admin-url",
			environ: map[string]string{"AUTOIDP_HYDRA_ADMIN_URL": "hydra:4445"},
			wantErr: true,
		},
		{
			name:    "negative-remember-for",
			environ: map[string]string{"AUTOIDP_REMEMBER_FOR": "-1s"},
			wantErr: true,
		},
		{
			name:    "unknown-log-level",
			environ: map[string]string{"AUTOIDP_LOG_LEVEL": "loud"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := loadIDP(env.Options{Environment: tt.environ})
			if tt.wantErr {
				require.Error(err)
				assert.True(errors.Is(err, ErrInvalidConfig), "wanted \"%s\" but got \"%s\"", ErrInvalidConfig, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestIDP_Claims(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	c := &IDP{ClaimsJSON: `{"fhirUser":"Practitioner?identifier=npi|1234","roles":["a","b"]}`}
	got, err := c.Claims()
	require.NoError(err)
	assert.Equal(map[string]interface{}{
		"fhirUser": "Practitioner?identifier=npi|1234",
		"roles":    []interface{}{"a", "b"},
	}, got)

	c = &IDP{}
	got, err = c.Claims()
	require.NoError(err)
	assert.Empty(got)
}

func TestIDP_Validate(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	err := (&IDP{ClaimsJSON: "{"}).Validate()
	require.Error(err)
	for _, want := range []string{"AUTOIDP_ADDR", "AUTOIDP_HYDRA_ADMIN_URL", "AUTOIDP_SUBJECT", "AUTOIDP_CLAIMS", "AUTOIDP_TIMEOUT", "AUTOIDP_LOG_LEVEL"} {
		assert.Contains(err.Error(), want)
	}
}

func TestLoadRP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		environ    map[string]string
		want       *RP
		wantScopes []string
		wantTags   []string
		wantErr    bool
	}{
		{
			name:    "defaults",
			environ: map[string]string{},
			want: &RP{
				Addr:           "127.0.0.1:8080",
				HydraAdminURL:  "http://127.0.0.1:4445",
				HydraPublicURL: "http://127.0.0.1:4444",
				Scope:          "openid profile offline fhirUser",
				CallbackURL:    "http://127.0.0.1:8080/callback",
				ClientName:     "autoidp test client",
				StateTTL:       5 * time.Minute,
				Timeout:        5 * time.Second,
				LogLevel:       "info",
			},
			wantScopes: []string{"openid", "profile", "offline", "fhirUser"},
		},
		{
			name: "overrides",
			environ: map[string]string{
				"TESTRP_ADDR":             ":9090",
				"TESTRP_HYDRA_ADMIN_URL":  "https://hydra:4445",
				"TESTRP_HYDRA_PUBLIC_URL": "https://hydra:4444",
				"TESTRP_SCOPE":            "openid  email",
				"TESTRP_CALLBACK_URL":     "https://rp.example.com/callback",
				"TESTRP_CLIENT_NAME":      "ci client",
				"TESTRP_UI_LOCALES":       "en,fr-CA",
				"TESTRP_STATE_TTL":        "30s",
				"TESTRP_TIMEOUT":          "1s",
				"TESTRP_LOG_LEVEL":        "warn",
			},
			want: &RP{
				Addr:           ":9090",
				HydraAdminURL:  "https://hydra:4445",
				HydraPublicURL: "https://hydra:4444",
				Scope:          "openid  email",
				CallbackURL:    "https://rp.example.com/callback",
				ClientName:     "ci client",
				UILocales:      []string{"en", "fr-CA"},
				StateTTL:       30 * time.Second,
				Timeout:        time.Second,
				LogLevel:       "warn",
			},
			wantScopes: []string{"openid", "email"},
			wantTags:   []string{"en", "fr-CA"},
		},
		{
			name:    "bad-locale",
			environ: map[string]string{"TESTRP_UI_LOCALES": "en,not a locale"},
			wantErr: true,
		},
		{
			name:    "empty-scope",
			environ: map[string]string{"TESTRP_SCOPE": " "},
			wantErr: true,
		},
		{
			name:    "zero-state-ttl",
			environ: map[string]string{"TESTRP_STATE_TTL": "0s"},
			wantErr: true,
		},
		{
			name:    "bad-callback",
			environ: map[string]string{"TESTRP_CALLBACK_URL": "/callback"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := loadRP(env.Options{Environment: tt.environ})
			if tt.wantErr {
				require.Error(err)
				assert.True(errors.Is(err, ErrInvalidConfig), "wanted \"%s\" but got \"%s\"", ErrInvalidConfig, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
			assert.Equal(tt.wantScopes, got.Scopes())
			tags, err := got.Locales()
			require.NoError(err)
			var gotTags []string
			for _, tag := range tags {
				gotTags = append(gotTags, tag.String())
			}
			assert.Equal(tt.wantTags, gotTags)
		})
	}
}

func TestLogger(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	l := Logger("autoidp", "debug")
	assert.Equal("autoidp", l.Name())
	assert.True(l.IsDebug())
	assert.False(Logger("autoidp", "error").IsInfo())
}
