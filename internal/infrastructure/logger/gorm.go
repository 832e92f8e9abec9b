package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowThreshold is used when GormConfig leaves SlowThreshold unset.
const DefaultSlowThreshold = 500 * time.Millisecond

// GormConfig selects what the database layer reports.
type GormConfig struct {
	// Level is the application log level; see MapGormLogLevel
	Level string
	// SlowThreshold of zero falls back to DefaultSlowThreshold, negative disables
	SlowThreshold time.Duration
	// ReportNotFound logs gorm.ErrRecordNotFound as an SQL error
	ReportNotFound bool
}

// GormLogger routes GORM statements and messages through zap, tagged with
// the request id carried by the statement context.
type GormLogger struct {
	base   *zap.Logger
	level  gormlogger.LogLevel
	slow   time.Duration
	notFnd bool
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger builds a GORM logger under the "gorm" name.
func NewGormLogger(zapLogger *zap.Logger, cfg GormConfig) *GormLogger {
	slow := cfg.SlowThreshold
	if slow == 0 {
		slow = DefaultSlowThreshold
	}
	return &GormLogger{
		base:   zapLogger.Named("gorm"),
		level:  MapGormLogLevel(cfg.Level),
		slow:   slow,
		notFnd: cfg.ReportNotFound,
	}
}

// LogMode returns a copy at the given level; GORM calls it for Debug() sessions.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, at gormlogger.LogLevel, msg string, data []any) {
	if l.level < at {
		return
	}
	sugar := l.forContext(ctx).Sugar()
	switch at {
	case gormlogger.Error:
		sugar.Errorf(msg, data...)
	case gormlogger.Warn:
		sugar.Warnf(msg, data...)
	default:
		sugar.Infof(msg, data...)
	}
}

func (l *GormLogger) forContext(ctx context.Context) *zap.Logger {
	if id := GetRequestID(ctx); id != "" {
		return l.base.With(zap.String("request_id", id))
	}
	return l.base
}

// Trace reports one executed statement. Failures win over slowness, and plain
// statements are only emitted at debug.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var msg string
	switch {
	case err != nil && l.level >= gormlogger.Error:
		if !l.notFnd && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		msg = "SQL Error"
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		msg = "Slow SQL"
	case l.level >= gormlogger.Info:
		msg = "SQL Query"
	default:
		return
	}

	stmt, rows := fc()
	log := l.forContext(ctx).With(
		zap.String("sql", stmt),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
	switch msg {
	case "SQL Error":
		log.Error(msg, zap.Error(err))
	case "Slow SQL":
		log.Warn(msg, zap.Duration("threshold", l.slow))
	default:
		log.Debug(msg)
	}
}

// MapGormLogLevel maps the application log level to a GORM log level.
// Statements are only traced at debug.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
