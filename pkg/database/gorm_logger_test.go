package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		sql, op, table string
	}{
		{`SELECT * FROM "clinical"."appointments" WHERE id = $1`, "select", "clinical.appointments"},
		{`INSERT INTO "auth"."users" ("email") VALUES ($1)`, "insert", "auth.users"},
		{`UPDATE "clinical"."educational_content" SET "views"=views + 1`, "update", "clinical.educational_content"},
		{`DELETE FROM "billing"."payments" WHERE id = $1`, "delete", "billing.payments"},
		{`CREATE SCHEMA IF NOT EXISTS audit`, "other", "other"},
		{``, "other", "other"},
	}
	for _, tt := range tests {
		op, table := classify(tt.sql)
		assert.Equal(t, tt.op, op, tt.sql)
		assert.Equal(t, tt.table, table, tt.sql)
	}
}

func TestTraceLogsSlowAndFailedQueries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector("test", reg)
	l := NewGormLogger(zap.New(core), 10*time.Millisecond, m)

	sql := func() (string, int64) { return `SELECT * FROM "auth"."users"`, 1 }

	l.Trace(context.Background(), time.Now(), sql, nil)
	assert.Equal(t, 0, logs.Len(), "fast queries are quiet at warn level")

	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Equal(t, 1, logs.FilterMessage("slow query").Len())

	l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())

	assert.Equal(t, 1, testutil.CollectAndCount(m.DBQueryDuration), "one select series for auth.users")

	l.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 2, logs.Len())
}
