// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// DefaultEntropy is the number of random bytes used by New.
const DefaultEntropy = 20

// New generates a random ID with an optional prefix.  The ID is url safe and
// is suitable for an oidc state or nonce.
func New(optionalPrefix string) (string, error) {
	return NewWithEntropy(optionalPrefix, DefaultEntropy)
}

// NewWithEntropy generates a random ID from n random bytes with an optional
// prefix.
func NewWithEntropy(optionalPrefix string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("entropy must be greater than zero")
	}
	b, err := uuid.GenerateRandomBytes(n)
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	id := base64.RawURLEncoding.EncodeToString(b)
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}
