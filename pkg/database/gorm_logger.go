package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's SQL logging through zap and records query latency.
type GormLogger struct {
	log           *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	metrics       *metrics.Collector
}

func NewGormLogger(log *zap.Logger, slowThreshold time.Duration, m *metrics.Collector) *GormLogger {
	return &GormLogger{
		log:           log.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		level:         gormlogger.Warn,
		slowThreshold: slowThreshold,
		metrics:       m,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if l.metrics != nil {
		op, table := classify(sql)
		l.metrics.DBQueryDuration.WithLabelValues(op, table).Observe(elapsed.Seconds())
	}

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		l.log.Error("query failed", append(fields, zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.log.Warn("slow query", fields...)
	case l.level >= gormlogger.Info:
		l.log.Debug("query", fields...)
	}
}

// classify pulls the verb and first table out of a statement for metric
// labels. Unknown shapes are labelled "other".
func classify(sql string) (op, table string) {
	words := strings.Fields(sql)
	if len(words) == 0 {
		return "other", "other"
	}
	op = strings.ToLower(words[0])

	var marker string
	switch op {
	case "select", "delete":
		marker = "from"
	case "insert":
		marker = "into"
	case "update":
		if len(words) > 1 {
			return op, cleanTable(words[1])
		}
		return op, "other"
	default:
		return "other", "other"
	}

	for i, w := range words {
		if strings.EqualFold(w, marker) && i+1 < len(words) {
			return op, cleanTable(words[i+1])
		}
	}
	return op, "other"
}

func cleanTable(s string) string {
	s = strings.Trim(s, `"(`)
	return strings.ReplaceAll(s, `"`, "")
}
