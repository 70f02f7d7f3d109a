// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package idp is an always-approve identity provider back-end for a Hydra
compatible OAuth2/OIDC provider.  The provider delegates login and consent to
this package by redirecting the browser to:

	GET /login?login_challenge=...
	GET /consent?consent_challenge=...

A Resolver accepts every login for one configured Identity, and accepts every
consent by granting exactly the requested scope and audience while attaching
the Identity's claims to the ID token (and access token) session.  Both
endpoints finish by redirecting the browser back to the provider.

Resolvers keep no state between requests: everything is keyed by the
challenge.  A failed resolution is never retried since challenges are
single-use at the provider.
*/
package idp
