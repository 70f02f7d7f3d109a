// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hydra

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AcceptLoginRequest is the body of an accept login call.
type AcceptLoginRequest struct {
	// Subject is the stable identifier of the authenticated principal.
	Subject string `json:"subject"`

	// Remember tells the provider to remember the login for the browser
	// session, so subsequent login challenges can be resolved without asking
	// this application again.
	Remember bool `json:"remember"`

	// RememberFor is how long (in seconds) to remember the login.  Zero means
	// the provider's default (the lifetime of the browser session).
	RememberFor int64 `json:"remember_for,omitempty"`
}

// CompletedRequest is returned by the provider when a login or consent
// challenge has been resolved.
type CompletedRequest struct {
	RedirectTo string `json:"redirect_to"`
}

// AcceptLoginRequest accepts the login request identified by challenge.  On
// success the browser must be redirected to the returned RedirectTo.
func (c *Client) AcceptLoginRequest(ctx context.Context, challenge string, body *AcceptLoginRequest) (*CompletedRequest, error) {
	const op = "Client.AcceptLoginRequest"
	switch {
	case challenge == "":
		return nil, fmt.Errorf("%s: login challenge is empty: %w", op, ErrInvalidParameter)
	case body == nil:
		return nil, fmt.Errorf("%s: accept login request is nil: %w", op, ErrNilParameter)
	case body.Subject == "":
		return nil, fmt.Errorf("%s: subject is empty: %w", op, ErrInvalidParameter)
	}
	endpoint := c.adminEndpoint(loginAcceptPath, url.Values{"login_challenge": {challenge}})
	var completed CompletedRequest
	if err := c.do(ctx, op, http.MethodPut, endpoint, body, &completed); err != nil {
		return nil, err
	}
	if completed.RedirectTo == "" {
		return nil, fmt.Errorf("%s: redirect_to is missing: %w", op, ErrInvalidResponse)
	}
	return &completed, nil
}
