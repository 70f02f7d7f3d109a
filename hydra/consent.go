// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hydra

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ConsentRequest is a pending consent request, as fetched from the provider.
type ConsentRequest struct {
	Challenge                    string         `json:"challenge"`
	RequestedScope               []string       `json:"requested_scope"`
	RequestedAccessTokenAudience []string       `json:"requested_access_token_audience"`
	Subject                      string         `json:"subject,omitempty"`
	Skip                         bool           `json:"skip,omitempty"`
	Client                       *ConsentClient `json:"client,omitempty"`
}

// ConsentClient identifies the relying party asking for consent.
type ConsentClient struct {
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name,omitempty"`
}

// AcceptConsentRequest is the body of an accept consent call.
type AcceptConsentRequest struct {
	GrantScope               []string        `json:"grant_scope"`
	GrantAccessTokenAudience []string        `json:"grant_access_token_audience"`
	Session                  *ConsentSession `json:"session,omitempty"`
}

// ConsentSession carries claims the provider copies into the issued tokens.
// A nil mapping is left out of the request; an empty one is sent as {}.
type ConsentSession struct {
	IDToken     map[string]interface{} `json:"id_token,omitzero"`
	AccessToken map[string]interface{} `json:"access_token,omitzero"`
}

// GetConsentRequest fetches the pending consent request identified by
// challenge.  It's a read-only call.
func (c *Client) GetConsentRequest(ctx context.Context, challenge string) (*ConsentRequest, error) {
	const op = "Client.GetConsentRequest"
	if challenge == "" {
		return nil, fmt.Errorf("%s: consent challenge is empty: %w", op, ErrInvalidParameter)
	}
	endpoint := c.adminEndpoint(consentPath, url.Values{"consent_challenge": {challenge}})
	var cr ConsentRequest
	if err := c.do(ctx, op, http.MethodGet, endpoint, nil, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// AcceptConsentRequest accepts the consent request identified by challenge.
// On success the browser must be redirected to the returned RedirectTo.
func (c *Client) AcceptConsentRequest(ctx context.Context, challenge string, body *AcceptConsentRequest) (*CompletedRequest, error) {
	const op = "Client.AcceptConsentRequest"
	switch {
	case challenge == "":
		return nil, fmt.Errorf("%s: consent challenge is empty: %w", op, ErrInvalidParameter)
	case body == nil:
		return nil, fmt.Errorf("%s: accept consent request is nil: %w", op, ErrNilParameter)
	}
	endpoint := c.adminEndpoint(consentAcceptPath, url.Values{"consent_challenge": {challenge}})
	var completed CompletedRequest
	if err := c.do(ctx, op, http.MethodPut, endpoint, body, &completed); err != nil {
		return nil, err
	}
	if completed.RedirectTo == "" {
		return nil, fmt.Errorf("%s: redirect_to is missing: %w", op, ErrInvalidResponse)
	}
	return &completed, nil
}
