// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// autoidp provides the pieces needed to run an OIDC authorization code flow
// against Hydra without a human in the loop: an always-approve login and
// consent provider (idp), a relying party test client (rp), and the Hydra
// admin API client they share (hydra).
package autoidp
