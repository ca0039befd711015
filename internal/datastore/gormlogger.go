package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openstudio/director-go/internal/errors"
)

// slowQueryThreshold marks queries worth a warning.
const slowQueryThreshold = 200 * time.Millisecond

// gormSlogAdapter bridges GORM's logger interface to slog.
type gormSlogAdapter struct {
	logger   *slog.Logger
	logLevel gormlogger.LogLevel
}

// createGormLogger returns a GORM logger backed by the given slog logger.
func createGormLogger(logger *slog.Logger) gormlogger.Interface {
	if logger == nil {
		logger = slog.Default()
	}
	return &gormSlogAdapter{
		logger:   logger,
		logLevel: gormlogger.Warn,
	}
}

// LogMode implements logger.Interface
func (l *gormSlogAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

// Info implements logger.Interface
func (l *gormSlogAdapter) Info(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Warn implements logger.Interface
func (l *gormSlogAdapter) Warn(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Error implements logger.Interface
func (l *gormSlogAdapter) Error(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace implements logger.Interface
func (l *gormSlogAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.ErrorContext(ctx, "database query failed",
			"error", err,
			"sql", sql,
			"duration", elapsed,
			"rows_affected", rows)
	case elapsed > slowQueryThreshold:
		l.logger.WarnContext(ctx, "slow query detected",
			"sql", sql,
			"duration", elapsed,
			"rows_affected", rows,
			"threshold", slowQueryThreshold)
	case l.logLevel >= gormlogger.Info:
		l.logger.DebugContext(ctx, "query executed",
			"sql", sql,
			"duration", elapsed,
			"rows_affected", rows)
	}
}
