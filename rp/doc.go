// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package rp is a minimal OIDC relying party used to exercise an authorization
code flow end to end against a Hydra compatible provider.

Register creates a client with the provider's admin API and returns an
immutable Config; nothing else in the package can be built without one, so
the relying party's endpoints can't be reached before registration has
completed.

	cfg, err := rp.Register(ctx, hydraClient, rp.RegistrationRequest{
		ClientName:  "test app",
		Scopes:      []string{"openid", "profile", "offline"},
		RedirectURL: "http://127.0.0.1:8080/callback",
	})
	if err != nil {
		// exit: there is no useful degraded mode
	}
	h, err := rp.NewServer(cfg)

The server's index page starts a flow: it creates a Request with a random
state and nonce, remembers it in a RequestCache, and links to the provider's
authorization endpoint.  The callback takes (and so invalidates) the
Request for the returned state and exchanges the code for a Token.
*/
package rp
