// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewInitiator(t *testing.T) {
	t.Parallel()
	_, err := NewInitiator(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNilParameter))
}

func TestInitiator_AuthURL(t *testing.T) {
	t.Parallel()
	c := testConfig(t)
	now := time.Now()

	valid, err := NewRequest(time.Minute)
	require.NoError(t, err)
	expiredClock := now
	expired, err := NewRequest(time.Minute, WithNow(func() time.Time { return expiredClock }))
	require.NoError(t, err)
	expiredClock = now.Add(time.Hour)

	tests := []struct {
		name          string
		opts          []Option
		req           *Request
		wantUILocales string
		wantErr       bool
		wantIsErr     error
	}{
		{
			name: "valid",
			req:  valid,
		},
		{
			name:          "with-ui-locales",
			opts:          []Option{WithUILocales(language.English, language.MustParse("es-419"))},
			req:           valid,
			wantUILocales: "en es-419",
		},
		{
			name:      "nil-request",
			wantErr:   true,
			wantIsErr: ErrNilParameter,
		},
		{
			name:      "empty-request",
			req:       &Request{},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "state-equals-nonce",
			req:       &Request{state: "st_same", nonce: "st_same", expiration: now.Add(time.Hour)},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "expired",
			req:       expired,
			wantErr:   true,
			wantIsErr: ErrExpiredRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			i, err := NewInitiator(c, tt.opts...)
			require.NoError(err)

			got, err := i.AuthURL(tt.req)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			u, err := url.Parse(got)
			require.NoError(err)
			assert.Equal("127.0.0.1:4444", u.Host)
			assert.Equal("/oauth2/auth", u.Path)

			q := u.Query()
			assert.Equal("test-client", q.Get("client_id"))
			assert.Equal("code", q.Get("response_type"))
			assert.Equal("openid profile", q.Get("scope"))
			assert.Equal(testRedirectURL, q.Get("redirect_uri"))
			assert.Equal(tt.req.State(), q.Get("state"))
			assert.Equal(tt.req.Nonce(), q.Get("nonce"))
			assert.Equal(tt.wantUILocales, q.Get("ui_locales"))
			assert.Empty(q.Get("client_secret"))
		})
	}
}
