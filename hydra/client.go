// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hydra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"

	sdkHttp "github.com/hashicorp/autoidp/sdk/http"
	"github.com/hashicorp/autoidp/sdk/strutils"
)

const (
	loginAcceptPath   = "/admin/oauth2/auth/requests/login/accept"
	consentPath       = "/admin/oauth2/auth/requests/consent"
	consentAcceptPath = "/admin/oauth2/auth/requests/consent/accept"
	clientsPath       = "/admin/clients"
	authPath          = "/oauth2/auth"
	tokenPath         = "/oauth2/token"
)

// maxBodySize caps how much of a provider response is read.
const maxBodySize = 1 << 20

// Client talks to the provider's admin API (and knows the public endpoint
// URLs).  It keeps no per-flow state and is safe for concurrent use.
type Client struct {
	adminURL  *url.URL
	publicURL *url.URL
	http      *http.Client
	logger    hclog.Logger
}

// NewClient creates a Client for the provider admin API at adminURL.
// Supported options:
//
//	WithPublicURL
//	WithHTTPClient
//	WithLogger
func NewClient(adminURL string, opt ...Option) (*Client, error) {
	const op = "hydra.NewClient"
	opts := getClientOpts(opt...)

	admin, err := parseBaseURL(adminURL)
	if err != nil {
		return nil, fmt.Errorf("%s: admin url: %w", op, err)
	}
	c := &Client{
		adminURL: admin,
		http:     opts.withHTTPClient,
		logger:   opts.withLogger,
	}
	if opts.withPublicURL != "" {
		if c.publicURL, err = parseBaseURL(opts.withPublicURL); err != nil {
			return nil, fmt.Errorf("%s: public url: %w", op, err)
		}
	}
	if c.http == nil {
		if c.http, err = sdkHttp.NewClient("", 0); err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
	}
	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("url is empty: %w", ErrInvalidParameter)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("url %q is invalid: %w", raw, ErrInvalidParameter)
	}
	if !strutils.StrListContains([]string{"https", "http"}, u.Scheme) || u.Host == "" {
		return nil, fmt.Errorf("url %q is not an absolute http or https url: %w", raw, ErrInvalidParameter)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// AdminURL returns the configured admin base URL.
func (c *Client) AdminURL() string { return c.adminURL.String() }

// AuthURL returns the provider's authorization endpoint.  It's empty when no
// public URL was configured.
func (c *Client) AuthURL() string { return c.publicEndpoint(authPath) }

// TokenURL returns the provider's token endpoint.  It's empty when no public
// URL was configured.
func (c *Client) TokenURL() string { return c.publicEndpoint(tokenPath) }

// HTTPClient returns the http client used for provider requests.
func (c *Client) HTTPClient() *http.Client { return c.http }

func (c *Client) publicEndpoint(path string) string {
	if c.publicURL == nil {
		return ""
	}
	u := *c.publicURL
	u.Path += path
	return u.String()
}

func (c *Client) adminEndpoint(path string, query url.Values) string {
	u := *c.adminURL
	u.Path += path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a JSON request (when in != nil) and decodes a 2xx JSON response
// into out.  Non-2xx responses become an *UpstreamError.
func (c *Client) do(ctx context.Context, op, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: unable to encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %s %s: %w: %s", op, method, req.URL.Path, ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%s: unable to read response: %w: %s", op, ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upErr := &UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
		var detail struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if json.Unmarshal(raw, &detail) == nil {
			upErr.ErrorCode = detail.Error
			upErr.Description = detail.Description
		}
		c.logger.Debug("provider rejected request", "op", op, "method", method, "path", req.URL.Path, "status", resp.StatusCode)
		return upErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: unable to decode response: %w: %s", op, ErrInvalidResponse, err)
	}
	return nil
}
