// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package idp

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/autoidp/hydra"
	"github.com/hashicorp/autoidp/internal/metrics"
)

// Provider is the subset of the provider admin API a Resolver needs.
// *hydra.Client implements it.
type Provider interface {
	AcceptLoginRequest(ctx context.Context, challenge string, body *hydra.AcceptLoginRequest) (*hydra.CompletedRequest, error)
	GetConsentRequest(ctx context.Context, challenge string) (*hydra.ConsentRequest, error)
	AcceptConsentRequest(ctx context.Context, challenge string, body *hydra.AcceptConsentRequest) (*hydra.CompletedRequest, error)
}

var _ Provider = (*hydra.Client)(nil)

// Resolver resolves login and consent challenges for a single Identity.  It's
// stateless and safe for concurrent use.
type Resolver struct {
	provider Provider
	identity Identity
	logger   hclog.Logger
	metrics  *metrics.Metrics
}

// NewResolver creates a Resolver.  The identity is copied.
// Supported options:
//
//	WithLogger
//	WithMetrics
func NewResolver(p Provider, id Identity, opt ...Option) (*Resolver, error) {
	const op = "idp.NewResolver"
	if p == nil {
		return nil, fmt.Errorf("%s: provider is nil: %w", op, ErrNilParameter)
	}
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid identity: %w", op, err)
	}
	opts := getOpts(opt...)
	id.Claims = id.claims()
	return &Resolver{
		provider: p,
		identity: id,
		logger:   opts.withLogger,
		metrics:  opts.withMetrics,
	}, nil
}

// ResolveLogin accepts the login challenge for the resolver's identity and
// returns the provider's redirect target.
func (r *Resolver) ResolveLogin(ctx context.Context, challenge string) (redirectTo string, e error) {
	const op = "Resolver.ResolveLogin"
	defer func() { r.metrics.Observe("login", e) }()
	if challenge == "" {
		return "", fmt.Errorf("%s: %w", op, ErrMissingChallenge)
	}
	completed, err := r.provider.AcceptLoginRequest(ctx, challenge, &hydra.AcceptLoginRequest{
		Subject:     r.identity.Subject,
		Remember:    r.identity.Remember,
		RememberFor: int64(r.identity.RememberFor.Seconds()),
	})
	if err != nil {
		return "", fmt.Errorf("%s: unable to accept login request: %w", op, err)
	}
	r.logger.Info("login accepted", "subject", r.identity.Subject)
	return completed.RedirectTo, nil
}

// ResolveConsent fetches the consent request, then accepts it, granting
// exactly the requested scope and audience.  If the fetch fails, nothing is
// accepted.
func (r *Resolver) ResolveConsent(ctx context.Context, challenge string) (redirectTo string, e error) {
	const op = "Resolver.ResolveConsent"
	defer func() { r.metrics.Observe("consent", e) }()
	if challenge == "" {
		return "", fmt.Errorf("%s: %w", op, ErrMissingChallenge)
	}
	cr, err := r.provider.GetConsentRequest(ctx, challenge)
	if err != nil {
		return "", fmt.Errorf("%s: unable to get consent request: %w", op, err)
	}
	// a skipped consent was already granted once; it's accepted again all the same
	r.logger.Debug("consent request fetched", "subject", cr.Subject, "skip", cr.Skip)
	completed, err := r.provider.AcceptConsentRequest(ctx, challenge, r.grant(cr))
	if err != nil {
		return "", fmt.Errorf("%s: unable to accept consent request: %w", op, err)
	}
	r.logger.Info("consent accepted", "subject", r.identity.Subject, "scope", cr.RequestedScope)
	return completed.RedirectTo, nil
}

// grant builds the accept body for cr.
func (r *Resolver) grant(cr *hydra.ConsentRequest) *hydra.AcceptConsentRequest {
	session := &hydra.ConsentSession{
		IDToken: r.identity.claims(),
	}
	if r.identity.AccessTokenClaims {
		session.AccessToken = r.identity.claims()
	}
	return &hydra.AcceptConsentRequest{
		GrantScope:               nonNil(cr.RequestedScope),
		GrantAccessTokenAudience: nonNil(cr.RequestedAccessTokenAudience),
		Session:                  session,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
