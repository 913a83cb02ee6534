package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger() (gormlogger.Interface, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return newZapGormLogger(zap.New(core)), logs
}

func TestZapGormLogger_Trace(t *testing.T) {
	l, logs := newObservedGormLogger()
	sql := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	l.Trace(ctx, time.Now(), sql, errors.New("disk I/O error"))
	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	l.Trace(ctx, time.Now(), sql, nil)

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected error and slow query entries only, got %d: %+v", len(entries), entries)
	}
	if entries[0].Level != zapcore.ErrorLevel || entries[0].Message != "gorm query failed" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Level != zapcore.WarnLevel || entries[1].Message != "gorm slow query" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if entries[0].LoggerName != "gorm" {
		t.Fatalf("expected named logger, got %q", entries[0].LoggerName)
	}
}

func TestZapGormLogger_LogMode(t *testing.T) {
	l, logs := newObservedGormLogger()
	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	silent.Warn(context.Background(), "ignored %d", 1)
	if logs.Len() != 0 {
		t.Fatalf("expected silent mode to drop logs, got %d", logs.Len())
	}

	l.LogMode(gormlogger.Info).Info(context.Background(), "migrated %d models", 3)
	if logs.Len() != 1 || logs.AllUntimed()[0].Message != "migrated 3 models" {
		t.Fatalf("expected formatted info entry, got %+v", logs.AllUntimed())
	}
}
