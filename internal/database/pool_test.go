package database

import (
	"context"
	"testing"
	"time"

	"todo-api/internal/config"
	"todo-api/internal/models"

	"gorm.io/gorm/logger"
)

func newMemoryPool(t *testing.T) *DatabasePool {
	t.Helper()

	pool, err := NewDatabasePool(&PoolConfig{
		Driver:       config.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 10,
		MaxIdleConns: 1,
		LogLevel:     logger.Silent,
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestDefaultPoolConfig(t *testing.T) {
	config := DefaultPoolConfig()

	if config.MaxOpenConns != 25 {
		t.Errorf("Expected MaxOpenConns to be 25, got %d", config.MaxOpenConns)
	}

	if config.MaxIdleConns != 10 {
		t.Errorf("Expected MaxIdleConns to be 10, got %d", config.MaxIdleConns)
	}

	if config.ConnMaxLifetime != time.Hour {
		t.Errorf("Expected ConnMaxLifetime to be 1 hour, got %v", config.ConnMaxLifetime)
	}

	if config.ConnMaxIdleTime != time.Minute*30 {
		t.Errorf("Expected ConnMaxIdleTime to be 30 minutes, got %v", config.ConnMaxIdleTime)
	}

	if config.LogLevel != logger.Warn {
		t.Errorf("Expected LogLevel to be Warn, got %v", config.LogLevel)
	}
}

func TestNewDatabasePool_WithNilConfig(t *testing.T) {
	_, err := NewDatabasePool(nil)

	if err == nil {
		t.Error("Expected error due to empty DSN, got nil")
	}
}

func TestNewDatabasePool_InvalidConfigs(t *testing.T) {
	tests := []struct {
		name   string
		config *PoolConfig
	}{
		{
			name:   "empty DSN",
			config: &PoolConfig{Driver: config.DriverSQLite},
		},
		{
			name:   "negative pool size",
			config: &PoolConfig{Driver: config.DriverSQLite, DSN: ":memory:", MaxOpenConns: -1},
		},
		{
			name:   "negative lifetime",
			config: &PoolConfig{Driver: config.DriverSQLite, DSN: ":memory:", ConnMaxLifetime: -time.Hour},
		},
		{
			name:   "unknown driver",
			config: &PoolConfig{Driver: "oracle", DSN: "whatever"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDatabasePool(tt.config); err == nil {
				t.Error("Expected error but pool creation succeeded")
			}
		})
	}
}

func TestNewDatabasePool_SQLiteMemory(t *testing.T) {
	pool := newMemoryPool(t)

	if err := pool.HealthCheck(context.Background()); err != nil {
		t.Fatalf("Expected healthy pool, got %v", err)
	}

	sqlDB, err := pool.SQLDB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	if maxOpen := sqlDB.Stats().MaxOpenConnections; maxOpen != 1 {
		t.Errorf("Expected in-memory sqlite to be pinned to one connection, got %d", maxOpen)
	}
}

func TestDatabasePool_Migrate(t *testing.T) {
	pool := newMemoryPool(t)

	if err := pool.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	for _, model := range []interface{}{&models.User{}, &models.Task{}} {
		if !pool.DB.Migrator().HasTable(model) {
			t.Errorf("Expected table for %T to exist", model)
		}
	}

	if !pool.DB.Migrator().HasIndex(&models.User{}, "idx_users_email") {
		t.Error("Expected unique index on users.email")
	}
}

func TestDatabasePool_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
	}

	if _, err := pool.SQLDB(); err == nil {
		t.Error("Expected error when reading sql.DB from nil DB")
	}
	if err := pool.HealthCheck(context.Background()); err == nil {
		t.Error("Expected error when checking health with nil DB")
	}
}

func TestDatabasePool_Close_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
	}

	if err := pool.Close(); err != nil {
		t.Errorf("Expected no error when closing nil DB, got: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent":  logger.Silent,
		"ERROR":   logger.Error,
		"info":    logger.Info,
		"warn":    logger.Warn,
		"verbose": logger.Warn,
	}

	for input, expected := range tests {
		if got := ParseLogLevel(input); got != expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", input, got, expected)
		}
	}
}

func BenchmarkDefaultPoolConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultPoolConfig()
	}
}
