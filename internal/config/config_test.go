package config

import (
	"testing"
)

func TestLoad_DefaultValues(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "LEDGER_BACKEND", "LEDGER_PATH", "REDIS_ENABLED", "DB_PORT", "LOG_LEVEL", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.HTTP.Addr != ":3000" {
		t.Errorf("Expected HTTP_ADDR default ':3000', got '%s'", cfg.HTTP.Addr)
	}
	if cfg.Ledger.Backend != "file" {
		t.Errorf("Expected LEDGER_BACKEND default 'file', got '%s'", cfg.Ledger.Backend)
	}
	if cfg.Ledger.Path != "data/auto_save.json" {
		t.Errorf("Expected LEDGER_PATH default 'data/auto_save.json', got '%s'", cfg.Ledger.Path)
	}
	if cfg.Redis.Enabled {
		t.Error("Expected Redis to be disabled by default")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("Unexpected CORS origins: %v", cfg.HTTP.CORSOrigins)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LEDGER_BACKEND", "postgres")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local,,")

	cfg := Load()

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("Expected HTTP_ADDR ':9090', got '%s'", cfg.HTTP.Addr)
	}
	if cfg.Ledger.Backend != "postgres" {
		t.Errorf("Expected LEDGER_BACKEND 'postgres', got '%s'", cfg.Ledger.Backend)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected invalid DB_PORT to fall back to 5432, got %d", cfg.Database.Port)
	}
	if !cfg.Redis.Enabled || cfg.Redis.DB != 3 {
		t.Errorf("Unexpected redis config: %+v", cfg.Redis)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %v", cfg.HTTP.CORSOrigins)
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "w", SSLMode: "disable"}
	want := "host=db port=5433 user=u password=p dbname=w sslmode=disable"
	if got := c.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
