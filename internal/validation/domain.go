// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/custodahq/custoda/internal/models"
)

// cronParser accepts standard 5-field expressions plus @descriptors
// (@daily, @weekly). Must match the parser used by the maintenance-plan
// runner so a value that validates here always schedules there.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// domainValidators maps custom tag names to their validation functions.
// Registered once by GetValidator.
var domainValidators = map[string]validator.Func{
	"role":              validRole,
	"unit_status":       validUnitStatus,
	"job_status":        validJobStatus,
	"job_priority":      validJobPriority,
	"job_category":      validJobCategory,
	"inspection_status": validInspectionStatus,
	"cron_expr":         validCronExpr,
}

func validRole(fl validator.FieldLevel) bool {
	return models.IsValidRole(fl.Field().String())
}

func validUnitStatus(fl validator.FieldLevel) bool {
	return models.IsValidUnitStatus(fl.Field().String())
}

func validJobStatus(fl validator.FieldLevel) bool {
	return models.IsValidJobStatus(fl.Field().String())
}

func validJobPriority(fl validator.FieldLevel) bool {
	return models.IsValidJobPriority(fl.Field().String())
}

func validJobCategory(fl validator.FieldLevel) bool {
	return models.IsValidJobCategory(fl.Field().String())
}

func validInspectionStatus(fl validator.FieldLevel) bool {
	return models.IsValidInspectionStatus(fl.Field().String())
}

func validCronExpr(fl validator.FieldLevel) bool {
	_, err := cronParser.Parse(fl.Field().String())
	return err == nil
}

// ParseCron exposes the shared parser for schedule computation. Returns
// the cron schedule or an error for malformed expressions.
func ParseCron(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}
