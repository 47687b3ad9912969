// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package cache

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
)

// Key builders. Every tenant-scoped key starts with "org:{id}:" so a
// write inside an org invalidates exactly that org's entries and public
// blog keys survive tenant churn.

// OrgPrefix is the invalidation prefix covering every cached response
// for one org.
func OrgPrefix(orgID uuid.UUID) string {
	return fmt.Sprintf("org:%s:", orgID)
}

// PropertyListKey caches one page of GET /api/v1/properties. The query
// fingerprint folds filters and pagination into a fixed-length suffix.
func PropertyListKey(orgID uuid.UUID, queryFingerprint string) string {
	return fmt.Sprintf("org:%s:properties:%s", orgID, queryFingerprint)
}

// PropertyListPrefix invalidates all cached property pages for an org.
func PropertyListPrefix(orgID uuid.UUID) string {
	return fmt.Sprintf("org:%s:properties:", orgID)
}

// BlogListKey caches one page of the public blog index.
func BlogListKey(queryFingerprint string) string {
	return "blog:published:list:" + queryFingerprint
}

// BlogPostKey caches a single published post by slug.
func BlogPostKey(slug string) string {
	return "blog:published:post:" + slug
}

// BlogPrefix invalidates every cached public blog response.
const BlogPrefix = "blog:published:"

// Fingerprint hashes an arbitrary query description (filters, limit,
// offset) into a short stable key segment, keeping raw user input out
// of cache keys.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
