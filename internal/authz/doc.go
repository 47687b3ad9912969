// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
Package authz enforces role-based access control with Casbin.

The RBAC model and policy are embedded in the binary (model.conf and
policy.csv). Subjects are the four platform roles:

	admin > property_manager > technician
	tenant

Admins inherit everything property managers can do, who in turn inherit
technician grants. Tenants stand outside the hierarchy and only touch
their own service requests, units, and notifications.

Objects are resource names (jobs, properties, ...), actions are read,
write, and delete. Decisions are cached with a TTL; role changes
invalidate the affected subject's entries.

Ownership checks (a tenant reading only their own service requests, a
technician touching only assigned jobs) are narrower than role policy
and live in the API handlers, layered on top of this package.

Wire the middleware after authentication:

	authzMW := authz.NewMiddleware(enforcer, auditLogger)
	r.With(authzMW.RequirePermission(authz.ObjectJobs, authz.ActionWrite)).
		Post("/jobs", h.CreateJob)

Denied decisions are logged asynchronously through the AuditLogger and
counted in Prometheus for alerting.
*/
package authz
