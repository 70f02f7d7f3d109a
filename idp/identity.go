// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package idp

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Identity is the principal every login is resolved to.
type Identity struct {
	// Subject is the stable identifier of the principal.
	Subject string

	// Claims are added to the ID token (and, when AccessTokenClaims is set,
	// the access token) during consent.
	Claims map[string]interface{}

	// Remember asks the provider to remember the login for the browser
	// session.
	Remember bool

	// RememberFor limits how long a remembered login is valid.  Zero uses
	// the provider's default.
	RememberFor time.Duration

	// AccessTokenClaims also embeds Claims in the access token session.
	AccessTokenClaims bool
}

// Validate the identity.
func (i *Identity) Validate() error {
	const op = "Identity.Validate"
	if i == nil {
		return fmt.Errorf("%s: identity is nil: %w", op, ErrNilParameter)
	}
	var errs *multierror.Error
	if i.Subject == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s: subject is empty: %w", op, ErrInvalidParameter))
	}
	if i.RememberFor < 0 {
		errs = multierror.Append(errs, fmt.Errorf("%s: remember for %s is negative: %w", op, i.RememberFor, ErrInvalidParameter))
	}
	for k := range i.Claims {
		if k == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: claim name is empty: %w", op, ErrInvalidParameter))
		}
	}
	return errs.ErrorOrNil()
}

// claims returns a copy of the identity's claims, so a session handed to the
// provider never aliases the configured map.
func (i *Identity) claims() map[string]interface{} {
	c := make(map[string]interface{}, len(i.Claims))
	for k, v := range i.Claims {
		c[k] = v
	}
	return c
}
