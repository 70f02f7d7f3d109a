// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package idp

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/autoidp/hydra"
	"github.com/hashicorp/autoidp/internal/metrics"
)

func testHandler(t *testing.T, tp *hydra.TestProvider, opt ...Option) http.Handler {
	t.Helper()
	require := require.New(t)
	opt = append(opt, WithLogger(hclog.New(&hclog.LoggerOptions{Name: t.Name(), Level: hclog.Error})))
	r, err := NewResolver(tp.Client(), testIdentity(), opt...)
	require.NoError(err)
	h, err := NewHandler(r, opt...)
	require.NoError(err)
	return h
}

func TestNewHandler(t *testing.T) {
	t.Parallel()
	_, err := NewHandler(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNilParameter))
}

func TestHandler_login(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		target       string
		method       string
		failStatus   int
		wantStatus   int
		wantLocation string
		wantBody     string
		wantCalls    int
	}{
		{
			name:         "valid",
			target:       "/login?login_challenge=abc",
			wantStatus:   http.StatusFound,
			wantLocation: "http://x/consent?consent_challenge=xyz",
			wantCalls:    1,
		},
		{
			name:       "missing-challenge",
			target:     "/login",
			wantStatus: http.StatusInternalServerError,
			wantBody:   loginFailedMsg,
			wantCalls:  0,
		},
		{
			name:       "unknown-challenge",
			target:     "/login?login_challenge=nope",
			wantStatus: http.StatusInternalServerError,
			wantBody:   loginFailedMsg,
			wantCalls:  1,
		},
		{
			name:       "provider-error",
			target:     "/login?login_challenge=abc",
			failStatus: http.StatusBadGateway,
			wantStatus: http.StatusInternalServerError,
			wantBody:   loginFailedMsg,
			wantCalls:  1,
		},
		{
			name:       "wrong-method",
			target:     "/login?login_challenge=abc",
			method:     http.MethodPost,
			wantStatus: http.StatusMethodNotAllowed,
			wantCalls:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			tp := hydra.StartTestProvider(t)
			tp.AddLoginChallenge("abc", "http://x/consent?consent_challenge=xyz")
			tp.SetFailure(hydra.TestLoginAcceptPath, tt.failStatus, "bad gateway")
			h := testHandler(t, tp)

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(method, tt.target, nil))

			assert.Equal(tt.wantStatus, rec.Code)
			assert.Equal(tt.wantLocation, rec.Header().Get("Location"))
			if tt.wantBody != "" {
				assert.Equal(tt.wantBody, strings.TrimSpace(rec.Body.String()))
			}
			assert.Equal(tt.wantCalls, tp.CallCount(hydra.TestLoginAcceptPath))
		})
	}
}

func TestHandler_consent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name            string
		target          string
		failPath        string
		wantStatus      int
		wantLocation    string
		wantGrantScope  []string
		wantAcceptCalls int
	}{
		{
			name:            "valid",
			target:          "/consent?consent_challenge=xyz",
			wantStatus:      http.StatusFound,
			wantLocation:    "http://x/callback?code=abc123",
			wantGrantScope:  []string{"openid", "profile"},
			wantAcceptCalls: 1,
		},
		{
			name:            "missing-challenge",
			target:          "/consent",
			wantStatus:      http.StatusInternalServerError,
			wantAcceptCalls: 0,
		},
		{
			name:            "fetch-fails",
			target:          "/consent?consent_challenge=xyz",
			failPath:        hydra.TestConsentPath,
			wantStatus:      http.StatusInternalServerError,
			wantAcceptCalls: 0,
		},
		{
			name:            "accept-fails",
			target:          "/consent?consent_challenge=xyz",
			failPath:        hydra.TestConsentAcceptPath,
			wantStatus:      http.StatusInternalServerError,
			wantAcceptCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			tp := hydra.StartTestProvider(t)
			tp.AddConsentChallenge("xyz", hydra.ConsentRequest{RequestedScope: []string{"openid", "profile"}}, "http://x/callback?code=abc123")
			if tt.failPath != "" {
				tp.SetFailure(tt.failPath, http.StatusInternalServerError, "internal error")
			}
			h := testHandler(t, tp)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(tt.wantStatus, rec.Code)
			assert.Equal(tt.wantLocation, rec.Header().Get("Location"))
			assert.Equal(tt.wantAcceptCalls, tp.CallCount(hydra.TestConsentAcceptPath))
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(consentFailedMsg, strings.TrimSpace(rec.Body.String()))
			}
			if tt.wantGrantScope != nil {
				assert.Equal(tt.wantGrantScope, tp.LastAcceptConsent().GrantScope)
			}
		})
	}
}

func TestHandler_healthAndMetrics(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp := hydra.StartTestProvider(t)
	tp.AddLoginChallenge("abc", "http://x/consent?consent_challenge=xyz")
	h := testHandler(t, tp, WithMetrics(metrics.New("autoidp")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?login_challenge=abc", nil))
	require.Equal(http.StatusFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(err)
	assert.Contains(string(body), `autoidp_operations_total{operation="login",outcome="success"} 1`)
}

func TestHandler_noMetricsRoute(t *testing.T) {
	t.Parallel()
	tp := hydra.StartTestProvider(t)
	h := testHandler(t, tp)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
