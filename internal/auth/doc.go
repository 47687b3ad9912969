// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package auth provides JWT issuance and validation, password hashing,
// and the HTTP middleware that gates every authenticated route.
//
// Tokens are stateless HS256 JWTs carrying the user id, org id, email,
// and role. Org scoping throughout the rest of the system derives from
// the org id claim, never from request parameters. Logout clears the
// session cookie but cannot invalidate an already issued token before
// its expiry.
package auth
