package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, cfg.Ledger.RetryBackoff())
	assert.Equal(t, "migrations", cfg.DB.MigrationsPath)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/stock.db")
	t.Setenv("LEDGER_MAX_RETRIES", "5")
	t.Setenv("LEDGER_RETRY_BACKOFF_MS", "25")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/stock.db", cfg.DB.SQLitePath)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, 25*time.Millisecond, cfg.Ledger.RetryBackoff())
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, 200, cfg.Ledger.HistoryMax)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestLoad_RejectsZeroRetries(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("LEDGER_MAX_RETRIES", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN_EscapesPassword(t *testing.T) {
	c := DBConfig{User: "app", Password: "p@ss:word", Host: "db", Port: 5432, DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/stock?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
