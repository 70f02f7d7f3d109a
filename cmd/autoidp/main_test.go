// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/autoidp/hydra"
	"github.com/hashicorp/autoidp/internal/config"
)

func testConfig(tp *hydra.TestProvider) *config.IDP {
	return &config.IDP{
		Addr:              "127.0.0.1:0",
		HydraAdminURL:     tp.Addr(),
		Subject:           "test-user-subject-id",
		ClaimsJSON:        `{"fhirUser":"Practitioner?identifier=npi|1234"}`,
		Remember:          true,
		AccessTokenClaims: true,
		Timeout:           5 * time.Second,
		LogLevel:          "error",
	}
}

func TestRun_invalidConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		modify func(*config.IDP)
	}{
		{name: "bad-claims", modify: func(c *config.IDP) { c.ClaimsJSON = "{" }},
		{name: "empty-subject", modify: func(c *config.IDP) { c.Subject = "" }},
		{name: "bad-ca", modify: func(c *config.IDP) { c.ProviderCA = "not a pem" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			cfg := testConfig(hydra.StartTestProvider(t))
			tt.modify(cfg)
			listened := false
			listen := func(string) (net.Listener, error) {
				listened = true
				return nil, errors.New("should not listen")
			}
			err := run(context.Background(), cfg, hclog.NewNullLogger(), listen)
			require.Error(err)
			assert.False(listened)
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp := hydra.StartTestProvider(t)
	tp.AddLoginChallenge("abc", "http://hydra/oauth2/auth?login_verifier=abc")

	addrCh := make(chan string, 1)
	listen := func(addr string) (net.Listener, error) {
		l, err := net.Listen("tcp", addr)
		if err == nil {
			addrCh <- l.Addr().String()
		}
		return l, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- run(ctx, testConfig(tp), hclog.NewNullLogger(), listen) }()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-done:
		require.FailNow("run returned before listening", "%v", err)
	case <-time.After(5 * time.Second):
		require.FailNow("timed out waiting for listener")
	}

	noRedirect := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := noRedirect.Get("http://" + addr + "/login?login_challenge=abc")
	require.NoError(err)
	_ = resp.Body.Close()
	assert.Equal(http.StatusFound, resp.StatusCode)
	assert.Equal("http://hydra/oauth2/auth?login_verifier=abc", resp.Header.Get("Location"))
	assert.Equal("test-user-subject-id", tp.LastAcceptLogin().Subject)
	assert.True(tp.LastAcceptLogin().Remember)

	resp, err = noRedirect.Get("http://" + addr + "/healthz")
	require.NoError(err)
	_ = resp.Body.Close()
	assert.Equal(http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		require.FailNow("run did not return after cancel")
	}
}
