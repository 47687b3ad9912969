// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package models defines the persistent domain entities (GORM) and the
// request/response types shared by the HTTP API.
//
// Every business row is scoped to an Org; multi-tenancy is enforced by the
// database layer filtering on OrgID taken from the authenticated token,
// never from request bodies.
package models
