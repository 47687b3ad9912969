// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"errors"

	"github.com/custodahq/custoda/internal/billing"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/media"
	"github.com/custodahq/custoda/internal/validation"
)

// DomainError maps errors from the store and service layers onto the
// response envelope. Handlers call this for any error whose origin they
// do not need to distinguish; anything unrecognized becomes a 500.
func (rw *ResponseWriter) DomainError(err error) {
	var planErr *billing.ErrPlanLimit
	var verr *validation.RequestValidationError

	switch {
	case errors.Is(err, database.ErrNotFound):
		rw.NotFound("resource not found")
	case errors.Is(err, database.ErrConflict):
		rw.Conflict(err.Error())
	case errors.Is(err, database.ErrInvalidTransition):
		rw.Conflict(err.Error())
	case errors.Is(err, database.ErrForeignReference):
		rw.BadRequest(err.Error())
	case errors.As(err, &planErr):
		rw.PaymentRequired(planErr.Error())
	case errors.As(err, &verr):
		rw.ValidationFailed(verr)
	case errors.Is(err, media.ErrFileTooLarge),
		errors.Is(err, media.ErrUnsupportedFormat):
		rw.BadRequest(err.Error())
	case errors.Is(err, media.ErrUploadsDisabled):
		rw.ServiceUnavailable("media uploads are not configured")
	default:
		rw.InternalError(err)
	}
}
