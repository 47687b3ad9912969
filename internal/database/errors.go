// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors returned by store methods. Handlers map these to HTTP
// status codes; callers match with errors.Is.
var (
	// ErrNotFound means the row does not exist or belongs to another org.
	// The two cases are indistinguishable on purpose: cross-org probing
	// must look identical to a missing row.
	ErrNotFound = errors.New("record not found")

	// ErrConflict means a unique constraint rejected the write.
	ErrConflict = errors.New("record conflicts with existing data")

	// ErrInvalidTransition means a status change violated the entity's
	// state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForeignReference means a referenced row (property, unit, user)
	// does not exist in the caller's org.
	ErrForeignReference = errors.New("referenced record not found in org")
)

// translateError maps driver and GORM errors onto the sentinel set.
// Unique violations surface as "duplicate key" (postgres, SQLSTATE 23505)
// or "UNIQUE constraint failed" (sqlite).
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}

	msg := err.Error()
	if strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed") {
		return ErrConflict
	}

	return err
}
