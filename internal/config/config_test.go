package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg := Load()

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("Expected HTTP_ADDR default ':8080', got '%s'", cfg.HTTP.Addr)
	}
	if !cfg.DBEnabled {
		t.Error("Expected DB_ENABLED default true")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected DB_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}
	if cfg.Database.Database != "leadsmanager" {
		t.Errorf("Expected DB_NAME default 'leadsmanager', got '%s'", cfg.Database.Database)
	}
	if cfg.Redis.Enabled {
		t.Error("Expected REDIS_ENABLED default false")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
	if cfg.Sync.FetchTimeout != 30*time.Second {
		t.Errorf("Expected fetch timeout default 30s, got %v", cfg.Sync.FetchTimeout)
	}
	if cfg.Sync.ExportBaseURL != "https://docs.google.com" {
		t.Errorf("Expected Google export base URL, got '%s'", cfg.Sync.ExportBaseURL)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Setenv("HTTP_ADDR", ":9999")
	os.Setenv("DATABASE_URL", "postgres://u:p@db.example.com:5432/leads")
	os.Setenv("DB_ENABLED", "false")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SYNC_FETCH_TIMEOUT_SECONDS", "5")

	defer func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("DB_ENABLED")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SYNC_FETCH_TIMEOUT_SECONDS")
	}()

	cfg := Load()

	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("Expected HTTP_ADDR ':9999', got '%s'", cfg.HTTP.Addr)
	}
	if cfg.Database.URL != "postgres://u:p@db.example.com:5432/leads" {
		t.Errorf("Unexpected DATABASE_URL: '%s'", cfg.Database.URL)
	}
	if cfg.DBEnabled {
		t.Error("Expected DB_ENABLED false")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
	if cfg.Sync.FetchTimeout != 5*time.Second {
		t.Errorf("Expected fetch timeout 5s, got %v", cfg.Sync.FetchTimeout)
	}
}

func TestLoad_HerokuPort(t *testing.T) {
	os.Clearenv()
	os.Setenv("PORT", "5000")
	defer os.Unsetenv("PORT")

	cfg := Load()
	if cfg.HTTP.Addr != ":5000" {
		t.Errorf("Expected HTTP_ADDR ':5000' from PORT, got '%s'", cfg.HTTP.Addr)
	}
}
