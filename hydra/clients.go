// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hydra

import (
	"context"
	"fmt"
	"net/http"
)

// OAuth2Client is a provider client record.  ClientID and ClientSecret are
// assigned by the provider on creation.
type OAuth2Client struct {
	ClientID                string   `json:"client_id,omitempty"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientName              string   `json:"client_name"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	Scope                   string   `json:"scope"`
	RedirectURIs            []string `json:"redirect_uris"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// CreateClient registers a new client with the provider and returns the
// provider's record, including the issued id and secret.
func (c *Client) CreateClient(ctx context.Context, in *OAuth2Client) (*OAuth2Client, error) {
	const op = "Client.CreateClient"
	if in == nil {
		return nil, fmt.Errorf("%s: client is nil: %w", op, ErrNilParameter)
	}
	var created OAuth2Client
	if err := c.do(ctx, op, http.MethodPost, c.adminEndpoint(clientsPath, nil), in, &created); err != nil {
		return nil, err
	}
	if created.ClientID == "" {
		return nil, fmt.Errorf("%s: client_id is missing: %w", op, ErrInvalidResponse)
	}
	return &created, nil
}
