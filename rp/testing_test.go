// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hashicorp/autoidp/hydra"
)

const (
	testRedirectURL = "http://127.0.0.1:8080/callback"
	testAuthURL     = "http://127.0.0.1:4444/oauth2/auth"
	testTokenURL    = "http://127.0.0.1:4444/oauth2/token"
)

// testCtx returns a context which is cancelled when the test completes.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// testConfig returns a valid Config which isn't registered anywhere.
func testConfig(t *testing.T) *Config {
	t.Helper()
	c, err := NewConfig("test-client", "test-secret", testAuthURL, testTokenURL, testRedirectURL, []string{"profile"})
	require.NoError(t, err)
	return c
}

// testProviderConfig returns a Config for a client that's known to tp, whose
// redirect URL is redirectURL.
func testProviderConfig(t *testing.T, tp *hydra.TestProvider, redirectURL string) *Config {
	t.Helper()
	tp.SetClientCreds("test-client", "test-secret", redirectURL)
	hc := tp.Client()
	c, err := NewConfig("test-client", "test-secret", hc.AuthURL(), hc.TokenURL(), redirectURL, []string{"profile", "offline"})
	require.NoError(t, err)
	return c
}
