// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
Package api implements the versioned REST surface under /api/v1.

The package is organized around a Server value that holds every
collaborator a handler can reach (stores, cache, billing, media, the
websocket hub) and a chi router that wires handlers to routes. Handlers
stay thin: decode and validate the request, call a store or service
method, and translate the result through the shared response envelope.

Conventions:

  - Every response is a models.APIResponse envelope written by
    ResponseWriter; handlers never touch the http.ResponseWriter
    directly after construction.
  - Tenant scoping comes exclusively from the JWT claims in the request
    context. Handlers never read an org id from the URL or body.
  - Domain errors from internal/database are mapped centrally in
    errors.go; handlers call rw.DomainError(err) instead of matching
    sentinels themselves.
*/
package api
