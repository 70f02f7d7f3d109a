// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package hydra is a small client for the administrative and public APIs of an
Ory Hydra compatible OAuth2/OIDC provider.  It covers just the operations an
external login/consent application and a dynamically registered relying party
need:

	PUT  /admin/oauth2/auth/requests/login/accept
	GET  /admin/oauth2/auth/requests/consent
	PUT  /admin/oauth2/auth/requests/consent/accept
	POST /admin/clients

Login and consent challenges are single-use at the provider.  The client never
retries a request: a failed resolution must be restarted by the browser.

Errors returned by the client can be classified with errors.Is against
ErrUpstreamUnavailable (transport failure), ErrUpstreamRejected (non-2xx
response, see UpstreamError) and ErrInvalidResponse.

TestProvider is an httptest based stand-in for the provider which enforces
single-use challenges and codes, and is used by this module's tests.
*/
package hydra
