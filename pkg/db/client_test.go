package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/pkg/config"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := NewFromGorm(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatal("expected error without dsn")
	}
}

func TestNewOpensSQLite(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{Driver: config.DriverSQLite, DSN: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestApplySQLiteSchemaIsIdempotent(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	if err := ApplySQLiteSchema(ctx, conn); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := NewFromGorm(conn).EnsureSQLiteSchema(ctx); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	for _, table := range []string{"cycles", "market_cycles", "composition_products", "payments"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("expected table %s", table)
		}
	}
}

func TestApplySQLiteSchemaRequiresConn(t *testing.T) {
	if err := ApplySQLiteSchema(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	func() {
		defer func() { _ = recover() }()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			tx.Create(&testModel{Name: "half-written"})
			panic("payment generation crashed")
		})
	}()

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected panic to roll back, found %d rows", count)
	}
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{Output: &buf})
	client, err := New(context.Background(), config.DBConfig{
		Driver:             config.DriverSQLite,
		DSN:                "file::memory:",
		SlowQueryThreshold: time.Nanosecond,
	}, logg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer client.Close()

	buf.Reset()
	client.DB().Exec("SELECT 1")
	if !strings.Contains(buf.String(), "db.slow_query") {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}

	buf.Reset()
	client.DB().Exec("SELECT * FROM missing_table")
	if !strings.Contains(buf.String(), "db.query_failed") {
		t.Fatalf("expected failure entry, got %s", buf.String())
	}
}

func TestQueryLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	q := newQueryLogger(logger.New(logger.Options{Output: &buf}), 0)
	q.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT", 0 }, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record not found must not be logged, got %s", buf.String())
	}
}
