// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"

	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/metrics"
)

// gormLogger adapts GORM's logger interface onto zerolog and feeds query
// durations into Prometheus. Not-found errors are logged at debug only;
// they are expected flow, not failures.
type gormLogger struct {
	slowThreshold time.Duration
}

func newGormLogger(slowThreshold time.Duration) gormlog.Interface {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	return &gormLogger{slowThreshold: slowThreshold}
}

// LogMode is a no-op: verbosity follows the global zerolog level.
func (l *gormLogger) LogMode(gormlog.LogLevel) gormlog.Interface {
	return l
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	logging.Ctx(ctx).Info().Msgf(msg, args...)
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	logging.Ctx(ctx).Warn().Msgf(msg, args...)
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	logging.Ctx(ctx).Error().Msgf(msg, args...)
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	metrics.RecordDBQuery(elapsed)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		logging.Ctx(ctx).Error().
			Err(err).
			Str("sql", sql).
			Int64("rows", rows).
			Dur("took", elapsed).
			Msg("Query failed")
	case elapsed > l.slowThreshold:
		metrics.RecordDBSlowQuery()
		logging.Ctx(ctx).Warn().
			Str("sql", sql).
			Int64("rows", rows).
			Dur("took", elapsed).
			Dur("threshold", l.slowThreshold).
			Msg("Slow query")
	default:
		logging.Ctx(ctx).Trace().
			Str("sql", sql).
			Int64("rows", rows).
			Dur("took", elapsed).
			Msg("Query")
	}
}
